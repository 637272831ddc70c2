// Package driver implements a database/sql driver that speaks the
// chidb server's line protocol.
package driver

import (
	"bufio"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
)

func init() {
	sql.Register("chidb", &ChidbDriver{})
}

// ChidbDriver connects to a chidb server over TCP. The DSN is the
// server address.
type ChidbDriver struct {
	testDialer func() (net.Conn, error)
}

// Open opens a chidb connection
func (d *ChidbDriver) Open(dsn string) (driver.Conn, error) {
	var conn net.Conn
	var err error
	if d.testDialer != nil {
		conn, err = d.testDialer()
	} else {
		conn, err = net.Dial("tcp", dsn)
	}
	if err != nil {
		return nil, err
	}

	return &ChidbConnection{
		dsn:    dsn,
		conn:   conn,
		reader: bufio.NewReader(conn),
	}, nil
}

// ChidbConnection is a single client connection to the server.
type ChidbConnection struct {
	dsn    string
	conn   net.Conn
	reader *bufio.Reader
}

// Prepare prepares a command for execution
func (c *ChidbConnection) Prepare(text string) (driver.Stmt, error) {
	return &ChidbStmt{command: text, conn: c}, nil
}

// Close closes the underlying connection
func (c *ChidbConnection) Close() error {
	return c.conn.Close()
}

// Begin is unsupported: the engine has no transactions.
func (c *ChidbConnection) Begin() (driver.Tx, error) {
	return nil, errors.New("chidb: transactions are not supported")
}

// roundTrip sends a command and collects the complete response.
func (c *ChidbConnection) roundTrip(command string) (*ChidbRows, error) {
	if _, err := fmt.Fprintf(c.conn, "%s;", command); err != nil {
		return nil, err
	}

	rows := &ChidbRows{}
	for {
		line, err := c.reader.ReadString('\n')
		if err != nil {
			return nil, err
		}
		line = strings.TrimRight(line, "\n")

		switch {
		case line == "ok":
			return rows, nil
		case strings.HasPrefix(line, "error "):
			return nil, errors.New(strings.TrimPrefix(line, "error "))
		case strings.HasPrefix(line, "cols\t"):
			rows.columns = strings.Split(strings.TrimPrefix(line, "cols\t"), "\t")
		case strings.HasPrefix(line, "row\t"):
			fields := strings.Split(strings.TrimPrefix(line, "row\t"), "\t")
			row := make([]driver.Value, len(fields))
			for i, f := range fields {
				row[i] = f
			}
			rows.rows = append(rows.rows, row)
		default:
			return nil, fmt.Errorf("chidb: unexpected response line %q", line)
		}
	}
}

// ChidbStmt is a prepared command.
type ChidbStmt struct {
	command string
	conn    *ChidbConnection
}

func (s *ChidbStmt) Close() error {
	return nil
}

// NumInput returns the number of placeholders; the protocol has none.
func (s *ChidbStmt) NumInput() int {
	return 0
}

// Exec runs a command that returns no rows.
func (s *ChidbStmt) Exec(args []driver.Value) (driver.Result, error) {
	if _, err := s.conn.roundTrip(s.command); err != nil {
		return nil, err
	}
	return driver.RowsAffected(0), nil
}

// Query runs a command and returns its rows.
func (s *ChidbStmt) Query(args []driver.Value) (driver.Rows, error) {
	return s.conn.roundTrip(s.command)
}

// ChidbRows is a fully buffered result set.
type ChidbRows struct {
	columns []string
	rows    [][]driver.Value
	pos     int
}

func (r *ChidbRows) Columns() []string {
	return r.columns
}

func (r *ChidbRows) Close() error {
	return nil
}

func (r *ChidbRows) Next(dest []driver.Value) error {
	if r.pos >= len(r.rows) {
		return io.EOF
	}
	copy(dest, r.rows[r.pos])
	r.pos++
	return nil
}
