package cmd

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"

	"github.com/wellnest/internal/actors"
	"github.com/wellnest/internal/api"
	"github.com/wellnest/internal/chat"
	"github.com/wellnest/internal/chatreq"
	"github.com/wellnest/internal/config"
	"github.com/wellnest/internal/database"
	"github.com/wellnest/internal/jobqueue"
	"github.com/wellnest/internal/logging"
	"github.com/wellnest/internal/profile"
)

// APICommand returns the CLI command for starting the API server
func APICommand() *cli.Command {
	return &cli.Command{
		Name:  "api",
		Usage: "Start the WellNest API server",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Port for the API server (overrides config)",
			},
		},
		Action: func(c *cli.Context) error {
			cfg, err := config.LoadConfig(c.String("config"))
			if err != nil {
				return err
			}
			if port := c.Int("port"); port != 0 {
				cfg.Server.Port = port
			}
			logging.Setup(cfg.Log.Level)

			db, err := database.NewDB()
			if err != nil {
				return err
			}
			defer db.Close()

			dbURL, err := database.URL()
			if err != nil {
				return err
			}

			queueConfig := jobqueue.DefaultQueueConfig()
			queueConfig.NotifierEndpoint = cfg.Notify.Endpoint
			queueConfig.NotifierToken = cfg.Notify.Token
			if cfg.Notify.MaxWorkers > 0 {
				queueConfig.MaxWorkers = cfg.Notify.MaxWorkers
			}
			if cfg.Notify.MaxRetries > 0 {
				queueConfig.MaxRetries = cfg.Notify.MaxRetries
			}

			ctx := context.Background()
			queue, err := jobqueue.NewQueue(ctx, dbURL, queueConfig)
			if err != nil {
				return fmt.Errorf("failed to create notification queue: %w", err)
			}
			if err := queue.Start(ctx); err != nil {
				return fmt.Errorf("failed to start notification queue: %w", err)
			}
			defer func() {
				if err := queue.Stop(ctx); err != nil {
					log.Warn().Err(err).Msg("failed to stop notification queue cleanly")
				}
			}()

			directory := actors.NewPostgresDirectory(db)
			profiles := profile.NewPostgresStore(db)
			chats := chat.NewPostgresStore(db)
			requests := chatreq.NewPostgresStore(db)
			manager := chatreq.NewManager(requests, chats, directory, profiles, queue)

			fmt.Printf("Starting WellNest API server on port %d...\n", cfg.Server.Port)
			server := api.NewServer(cfg, manager, chats, directory, profiles)
			return server.Start()
		},
	}
}
