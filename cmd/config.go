package cmd

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/wellnest/internal/config"
)

// ConfigCommand returns the CLI command for configuration management
func ConfigCommand() *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "Manage WellNest configuration",
		Subcommands: []*cli.Command{
			{
				Name:  "init",
				Usage: "Create a sample configuration file",
				Action: func(c *cli.Context) error {
					path := c.String("config")
					if path == "" {
						path = "wellnest.toml"
					}
					if err := config.InitConfig(path); err != nil {
						return err
					}
					fmt.Printf("Configuration file created at %s\n", path)
					return nil
				},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "config",
						Usage: "Path for the new configuration `FILE`",
						Value: "wellnest.toml",
					},
				},
			},
		},
	}
}
