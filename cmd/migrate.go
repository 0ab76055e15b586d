package cmd

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/wellnest/internal/database"
)

// MigrateCommand returns the CLI command for applying the database schema
func MigrateCommand() *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "Apply the WellNest database schema",
		Action: func(c *cli.Context) error {
			db, err := database.NewDB()
			if err != nil {
				return err
			}
			defer db.Close()

			if err := database.Migrate(db); err != nil {
				return err
			}

			fmt.Println("Database schema applied.")
			return nil
		},
	}
}
