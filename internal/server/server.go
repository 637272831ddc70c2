package server

import (
	"errors"
	"net"

	"github.com/sirupsen/logrus"

	"github.com/joeandaverde/chidb/internal/btree"
)

// ErrServerClosed is returned by Serve after Shutdown.
var ErrServerClosed = errors.New("chidb: Server closed")

// Config describes the configuration for the database
type Config struct {
	// DataDir is the directory holding the database file
	DataDir string `yaml:"data_directory"`

	// Addr is the TCP listen address
	Addr string `yaml:"listen"`

	// LogLevel is a logrus level name, e.g. "debug"
	LogLevel string `yaml:"log_level"`
}

// Server accepts client connections and runs their commands against a
// single b-tree file.
type Server struct {
	config     Config
	bt         *btree.BTree
	shutdownCh chan struct{}
	log        *logrus.Logger
}

func NewServer(log *logrus.Logger, config Config, bt *btree.BTree) *Server {
	return &Server{
		config:     config,
		bt:         bt,
		shutdownCh: make(chan struct{}),
		log:        log,
	}
}

// Serve accepts connections on ln until Shutdown is called.
func (s *Server) Serve(ln net.Listener) error {
	for {
		conn, err := ln.Accept()
		if err != nil {
			select {
			case <-s.shutdownCh:
				return ErrServerClosed
			default:
			}
			s.log.WithError(err).Error("error accepting new connection")
			continue
		}

		select {
		case <-s.shutdownCh:
			conn.Close()
			return ErrServerClosed
		default:
		}

		go s.Handle(conn)
	}
}

// Shutdown stops accepting new connections.
func (s *Server) Shutdown() error {
	close(s.shutdownCh)
	return nil
}

// Handle runs the command loop for a single client connection.
func (s *Server) Handle(conn net.Conn) {
	s.log.Infof("client connected remote: %v, local: %v", conn.RemoteAddr(), conn.LocalAddr())

	dbConn := NewConnection(s.log, s.bt, conn)
	defer func() {
		s.log.Infof("client disconnected remote: %v", conn.RemoteAddr())
		dbConn.Close()
	}()

	if err := dbConn.Run(s.shutdownCh); err != nil {
		s.log.WithError(err).Error("connection error")
	}
}
