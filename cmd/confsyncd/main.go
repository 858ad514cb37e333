package main

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/spf13/pflag"

	"github.com/zurustar/confsync/internal/config"
	"github.com/zurustar/confsync/internal/server"
)

var version = "dev"

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		log.Fatalf("confsyncd: %v", err)
	}
}

func run(args []string, stdout io.Writer) error {
	flags := pflag.NewFlagSet("confsyncd", pflag.ContinueOnError)
	flags.SetOutput(stdout)
	configFile := flags.StringP("config", "c", "config.yaml", "Configuration file path")
	check := flags.Bool("check", false, "Validate the configuration and exit")
	showVersion := flags.BoolP("version", "v", false, "Print the version and exit")

	if err := flags.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}

	if *showVersion {
		fmt.Fprintf(stdout, "confsyncd %s\n", version)
		return nil
	}

	if *check {
		cfg, err := config.NewManager().Load(*configFile)
		if err != nil {
			return err
		}
		fmt.Fprintf(stdout, "%s: %d accounts, %d local and %d remote conferences\n",
			*configFile, len(cfg.Accounts), len(cfg.Conferences.Local), len(cfg.Conferences.Remote))
		return nil
	}

	daemon := server.NewSIPServer()
	if err := daemon.LoadConfig(*configFile); err != nil {
		return err
	}
	return daemon.RunWithSignalHandling()
}
