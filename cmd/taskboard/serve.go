package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/dkovalov/taskboard/internal/bot"
	"github.com/dkovalov/taskboard/internal/config"
	"github.com/dkovalov/taskboard/internal/db"
	"github.com/dkovalov/taskboard/internal/server"
	"github.com/dkovalov/taskboard/internal/taskstore"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

func newServeCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the webhook and REST API server",
		Long:  "Connects to the database, runs migrations, and serves the Telegram webhook plus the REST API until interrupted.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, configPath)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "taskboard.yaml", "path to config file")
	return cmd
}

func runServe(cmd *cobra.Command, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	gormDB, err := connectDB(cfg)
	if err != nil {
		return err
	}
	if err := db.AutoMigrate(gormDB); err != nil {
		return err
	}

	client, err := bot.NewClient(bot.ClientOpts{
		Token:   cfg.Telegram.BotToken,
		Timeout: cfg.Telegram.SendTimeout,
	})
	if err != nil {
		return err
	}

	blobs, err := taskstore.NewDiskStore(cfg.Storage.Dir)
	if err != nil {
		return err
	}
	tasks, err := taskstore.NewStore(taskstore.StoreOpts{DB: gormDB, Blobs: blobs})
	if err != nil {
		return err
	}

	modes := bot.NewMemoryModeStore(bot.MemoryModeStoreOpts{TTL: cfg.Telegram.ModeTTL})

	cmds, err := bot.NewCommandHandler(bot.CommandHandlerOpts{
		Tasks:  tasks,
		Sender: client,
		Modes:  modes,
	})
	if err != nil {
		return err
	}
	callbacks, err := bot.NewCallbackHandler(bot.CallbackHandlerOpts{
		Tasks:    tasks,
		Sender:   client,
		Commands: cmds,
	})
	if err != nil {
		return err
	}
	router, err := bot.NewRouter(bot.RouterOpts{
		DB:        gormDB,
		Commands:  cmds,
		Callbacks: callbacks,
		Modes:     modes,
		Sender:    client,
		Out:       cmd.OutOrStdout(),
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Reminder.Enabled {
		reminder, err := bot.NewReminder(bot.ReminderOpts{
			DB:       gormDB,
			Sender:   client,
			Modes:    modes,
			Schedule: cfg.Reminder.Schedule,
			Out:      cmd.OutOrStdout(),
		})
		if err != nil {
			return err
		}
		if err := reminder.Start(ctx); err != nil {
			return err
		}
	}

	return server.Start(ctx, server.Opts{
		DB:       gormDB,
		Router:   router,
		Tasks:    tasks,
		Telegram: client,
		Port:     cfg.Server.Port,
		Out:      cmd.OutOrStdout(),
	})
}

// connectDB opens the configured database.
func connectDB(cfg *config.Config) (*gorm.DB, error) {
	switch cfg.Database.Driver {
	case "sqlite":
		return db.Connect("sqlite", cfg.Database.Path)
	case "mysql":
		dsn := db.DSN(cfg.Database.User, cfg.Database.Password, cfg.Database.Host, cfg.Database.Port, cfg.Database.Database)
		return db.Connect("mysql", dsn)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Database.Driver)
	}
}
