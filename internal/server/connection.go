package server

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"strconv"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/joeandaverde/chidb/internal/btree"
	"github.com/joeandaverde/chidb/internal/virtualmachine"
)

// SchemaRootPage is the page commands operate on when no table was
// created explicitly.
const SchemaRootPage = 1

// Connection is a session that can be used to issue related requests.
// Commands are semicolon terminated lines of text:
//
//	set <key> <value>;
//	get <key>;
//	scan;
//	create;
//	createindex;
//
// Responses are newline terminated: an optional "cols" line, zero or
// more "row" lines, then "ok" or "error <message>".
type Connection struct {
	sync.Mutex
	net.Conn

	log *logrus.Logger
	bt  *btree.BTree
	pid int
}

func NewConnection(logger *logrus.Logger, bt *btree.BTree, conn net.Conn) *Connection {
	return &Connection{
		Conn: conn,
		log:  logger,
		bt:   bt,
	}
}

// Run reads commands until the client disconnects or shutdownCh closes.
func (c *Connection) Run(shutdownCh <-chan struct{}) error {
	scanner := bufio.NewScanner(c)
	scanner.Split(onSemicolon)

	writer := bufio.NewWriter(c)

	for scanner.Scan() {
		select {
		case <-shutdownCh:
			return nil
		default:
		}

		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}

		cols, rows, err := c.RunCommand(context.Background(), text)
		if err != nil {
			c.log.WithError(err).Error("command failed")
			fmt.Fprintf(writer, "error %s\n", err.Error())
			writer.Flush()
			continue
		}

		if len(cols) > 0 {
			fmt.Fprintf(writer, "cols\t%s\n", strings.Join(cols, "\t"))
		}
		for _, row := range rows {
			fields := make([]string, len(row))
			for i, v := range row {
				fields[i] = formatValue(v)
			}
			fmt.Fprintf(writer, "row\t%s\n", strings.Join(fields, "\t"))
		}
		fmt.Fprintln(writer, "ok")
		writer.Flush()
	}

	return scanner.Err()
}

// RunCommand parses and executes a single command, collecting any
// result rows.
func (c *Connection) RunCommand(ctx context.Context, text string) ([]string, [][]interface{}, error) {
	stmt, err := Prepare(text)
	if err != nil {
		return nil, nil, err
	}

	c.pid++
	program := virtualmachine.NewProgram(c.pid, c.bt, stmt)

	errCh := make(chan error, 1)
	go func() {
		errCh <- program.Run(ctx)
	}()

	var rows [][]interface{}
	for out := range program.Output() {
		rows = append(rows, out.Data)
	}

	if err := <-errCh; err != nil {
		return nil, nil, err
	}
	return stmt.Columns, rows, nil
}

// Prepare compiles a textual command into a database machine program.
func Prepare(text string) (*virtualmachine.PreparedStatement, error) {
	parts := strings.Fields(text)
	if len(parts) == 0 {
		return nil, fmt.Errorf("empty command")
	}

	switch strings.ToLower(parts[0]) {
	case "set":
		if len(parts) < 3 {
			return nil, fmt.Errorf("usage: set <key> <value>")
		}
		key, err := strconv.Atoi(parts[1])
		if err != nil {
			return nil, fmt.Errorf("set: key must be an integer: %w", err)
		}
		value := strings.Join(parts[2:], " ")
		return virtualmachine.PrepareSet(SchemaRootPage, key, value), nil

	case "get":
		if len(parts) != 2 {
			return nil, fmt.Errorf("usage: get <key>")
		}
		key, err := strconv.Atoi(parts[1])
		if err != nil {
			return nil, fmt.Errorf("get: key must be an integer: %w", err)
		}
		return virtualmachine.PrepareGet(SchemaRootPage, key), nil

	case "scan":
		return virtualmachine.PrepareScan(SchemaRootPage), nil

	case "create":
		return virtualmachine.PrepareCreateTable(), nil

	case "createindex":
		return virtualmachine.PrepareCreateIndex(), nil

	case "del", "delete":
		return nil, fmt.Errorf("delete is not supported")

	default:
		return nil, fmt.Errorf("unknown command %q", parts[0])
	}
}

func formatValue(v interface{}) string {
	switch v := v.(type) {
	case nil:
		return "NULL"
	case string:
		return v
	case int:
		return strconv.Itoa(v)
	default:
		return fmt.Sprintf("%v", v)
	}
}

func onSemicolon(data []byte, atEOF bool) (advance int, token []byte, err error) {
	for i := 0; i < len(data); i++ {
		if data[i] == ';' {
			return i + 1, data[:i], nil
		}
	}

	if atEOF {
		return len(data), data, bufio.ErrFinalToken
	}

	return 0, nil, nil
}
