package main

import (
	"fmt"
	"os"
	"os/signal"

	"github.com/mitchellh/cli"

	"github.com/joeandaverde/chidb/cmd/chidb/command"
)

func main() {
	args := os.Args[1:]
	if len(args) == 0 {
		args = append(args, "listen")
	}

	commands := map[string]cli.CommandFactory{
		"listen": func() (cli.Command, error) {
			return &command.ListenCommand{
				ShutDownCh: makeShutdownCh(),
			}, nil
		},
		"shell": func() (cli.Command, error) {
			return &command.ShellCommand{
				ShutDownCh: makeShutdownCh(),
			}, nil
		},
	}

	chidbCLI := &cli.CLI{
		Args:     args,
		Commands: commands,
		HelpFunc: cli.BasicHelpFunc("chidb"),
	}

	exitCode, err := chidbCLI.Run()
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error: %s\n", err.Error())
		os.Exit(1)
	}

	os.Exit(exitCode)
}

func makeShutdownCh() <-chan struct{} {
	resultCh := make(chan struct{})

	signalCh := make(chan os.Signal, 4)
	signal.Notify(signalCh, os.Interrupt)
	go func() {
		for {
			<-signalCh
			resultCh <- struct{}{}
		}
	}()

	return resultCh
}
