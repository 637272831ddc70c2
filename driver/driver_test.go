package driver

import (
	"database/sql"
	"net"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/joeandaverde/chidb/internal/btree"
	"github.com/joeandaverde/chidb/internal/server"
)

type DriverTestSuite struct {
	suite.Suite
	a          *require.Assertions
	driverName string
	db         *sql.DB
	cleanup    func()
}

func (s *DriverTestSuite) SetupTest() {
	s.a = require.New(s.T())

	logger := logrus.New()
	logger.SetLevel(logrus.WarnLevel)

	tempDir := s.T().TempDir()
	bt, err := btree.Open(filepath.Join(tempDir, "driver-test.db"), logger)
	s.a.NoError(err)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	s.a.NoError(err)

	srv := server.NewServer(logger, server.Config{DataDir: tempDir}, bt)
	go func() { _ = srv.Serve(ln) }()

	// for testing we register a unique instance of a driver
	s.driverName = uuid.New().String()
	sql.Register(s.driverName, &ChidbDriver{
		testDialer: func() (net.Conn, error) {
			return net.Dial("tcp", ln.Addr().String())
		},
	})

	db, err := sql.Open(s.driverName, ln.Addr().String())
	s.a.NoError(err)
	s.db = db

	s.cleanup = func() {
		db.Close()
		_ = srv.Shutdown()
		ln.Close()
		bt.Close()
	}
}

func (s *DriverTestSuite) TearDownTest() {
	s.cleanup()
}

func TestDriverTestSuite(t *testing.T) {
	suite.Run(t, new(DriverTestSuite))
}

func (s *DriverTestSuite) TestSetGet() {
	_, err := s.db.Exec("set 1 hello")
	s.a.NoError(err)

	rows, err := s.db.Query("get 1")
	s.a.NoError(err)
	defer rows.Close()

	cols, err := rows.Columns()
	s.a.NoError(err)
	s.a.Equal([]string{"value"}, cols)

	s.a.True(rows.Next())
	var value string
	s.a.NoError(rows.Scan(&value))
	s.a.Equal("hello", value)
	s.a.False(rows.Next())
}

func (s *DriverTestSuite) TestScan() {
	for _, cmd := range []string{"set 2 two", "set 1 one", "set 3 three"} {
		_, err := s.db.Exec(cmd)
		s.a.NoError(err)
	}

	rows, err := s.db.Query("scan")
	s.a.NoError(err)
	defer rows.Close()

	var got [][2]string
	for rows.Next() {
		var key, value string
		s.a.NoError(rows.Scan(&key, &value))
		got = append(got, [2]string{key, value})
	}
	s.a.NoError(rows.Err())

	s.a.Equal([][2]string{
		{"1", "one"},
		{"2", "two"},
		{"3", "three"},
	}, got)
}

func (s *DriverTestSuite) TestDuplicateKey() {
	_, err := s.db.Exec("set 1 first")
	s.a.NoError(err)

	_, err = s.db.Exec("set 1 second")
	s.a.Error(err)
	s.a.Contains(err.Error(), "duplicate")
}

func (s *DriverTestSuite) TestGetMissing() {
	rows, err := s.db.Query("get 42")
	s.a.NoError(err)
	defer rows.Close()
	s.a.False(rows.Next())
}

func (s *DriverTestSuite) TestUnknownCommand() {
	_, err := s.db.Exec("frobnicate")
	s.a.Error(err)
}
