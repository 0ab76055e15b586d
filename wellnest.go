package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/wellnest/cmd"
)

const (
	version = "0.1.0"
)

func main() {
	app := &cli.App{
		Name:    "wellnest",
		Usage:   "Social wellness platform backend: chat request negotiation and materialization",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Load configuration from `FILE`",
				Value:   "wellnest.toml",
			},
		},
		Commands: []*cli.Command{
			cmd.APICommand(),
			cmd.MigrateCommand(),
			cmd.ConfigCommand(),
		},
	}

	err := app.Run(os.Args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}
