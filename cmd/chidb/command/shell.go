package command

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/joeandaverde/chidb/internal/btree"
	"github.com/joeandaverde/chidb/internal/server"
	"github.com/joeandaverde/chidb/internal/virtualmachine"
)

type ShellCommand struct {
	ShutDownCh <-chan struct{}
}

func (i *ShellCommand) Help() string {
	helpText := `
Usage: chidb shell [options]

Runs commands from stdin against a database file.

Options:

	-db="chidb.db"	Database file
	-log=""	Log level
`

	return strings.TrimSpace(helpText)
}

func (i *ShellCommand) Synopsis() string {
	return "Interact with a database file directly"
}

func (i *ShellCommand) Run(args []string) int {
	var dbPath string
	var logLevel string

	cmdFlags := flag.NewFlagSet("shell", flag.PanicOnError)
	cmdFlags.StringVar(&dbPath, "db", "chidb.db", "database file")
	cmdFlags.StringVar(&logLevel, "log", "", "log level")

	if err := cmdFlags.Parse(args); err != nil {
		return 1
	}

	logger := newLogger(logLevel)

	bt, err := btree.Open(dbPath, logger)
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error opening database: %s\n", err.Error())
		return 1
	}
	defer bt.Close()

	scanner := bufio.NewScanner(os.Stdin)
	pid := 0

	for scanner.Scan() {
		select {
		case <-i.ShutDownCh:
			return 0
		default:
		}

		text := strings.TrimSuffix(strings.TrimSpace(scanner.Text()), ";")
		if text == "" {
			continue
		}

		stmt, err := server.Prepare(text)
		if err != nil {
			fmt.Println("error:", err)
			continue
		}

		pid++
		program := virtualmachine.NewProgram(pid, bt, stmt)

		errCh := make(chan error, 1)
		go func() {
			errCh <- program.Run(context.Background())
		}()

		for out := range program.Output() {
			fmt.Println(out.Data...)
		}

		if err := <-errCh; err != nil {
			fmt.Println("error:", err)
		}
	}

	return 0
}
