package command

import (
	"flag"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v2"

	"github.com/joeandaverde/chidb/internal/btree"
	"github.com/joeandaverde/chidb/internal/server"
)

type ListenCommand struct {
	ShutDownCh <-chan struct{}
}

func (i *ListenCommand) Help() string {
	helpText := `
Usage: chidb listen [options]

Options:

	-config="chidb.yml"	Database configuration file
`

	return strings.TrimSpace(helpText)
}

func (i *ListenCommand) Synopsis() string {
	return "Accepts client connections to interact with database"
}

func (i *ListenCommand) Run(args []string) int {
	var configPath string

	cmdFlags := flag.NewFlagSet("listen", flag.PanicOnError)
	cmdFlags.StringVar(&configPath, "config", "chidb.yml", "config file")

	if err := cmdFlags.Parse(args); err != nil {
		return 1
	}

	config, err := loadConfig(configPath)
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error loading config file: %s\n", err.Error())
		return 1
	}

	logger := newLogger(config.LogLevel)

	bt, err := btree.Open(filepath.Join(config.DataDir, "chidb.db"), logger)
	if err != nil {
		logger.WithError(err).Error("unable to open database")
		return 1
	}
	defer bt.Close()

	ln, err := net.Listen("tcp", config.Addr)
	if err != nil {
		logger.WithError(err).Error("unable to listen")
		return 1
	}
	defer ln.Close()
	logger.Infof("listening on %s", config.Addr)

	srv := server.NewServer(logger, config, bt)

	go func() {
		<-i.ShutDownCh
		_ = srv.Shutdown()
		ln.Close()
	}()

	if err := srv.Serve(ln); err != nil && err != server.ErrServerClosed {
		logger.WithError(err).Error("server error")
		return 1
	}

	return 0
}

func loadConfig(path string) (server.Config, error) {
	configFile, err := os.Open(path)
	if err != nil {
		return server.Config{}, err
	}
	defer configFile.Close()

	config := server.Config{}
	if err := yaml.NewDecoder(configFile).Decode(&config); err != nil {
		return server.Config{}, err
	}
	return config, nil
}

func newLogger(level string) *logrus.Logger {
	logger := logrus.New()
	if level != "" {
		if parsed, err := logrus.ParseLevel(level); err == nil {
			logger.SetLevel(parsed)
		}
	}
	return logger
}
