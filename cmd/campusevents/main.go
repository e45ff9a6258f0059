package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/GoArmGo/CampusEvents/internal/app"
	"github.com/GoArmGo/CampusEvents/internal/config"
	"github.com/GoArmGo/CampusEvents/internal/database/client"
	"github.com/GoArmGo/CampusEvents/internal/di"
	"github.com/spf13/cobra"
)

func main() {
	// bootstrap-логгер (используется только на этапе инициализации т.к еще не создан основной)
	bootstrapLogger := slog.New(
		slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}),
	)

	if err := newRootCommand(bootstrapLogger).Execute(); err != nil {
		bootstrapLogger.Error("command failed", "error", err)
		os.Exit(1)
	}
}

func newRootCommand(bootstrapLogger *slog.Logger) *cobra.Command {
	root := &cobra.Command{
		Use:           "campusevents",
		Short:         "Campus events API server",
		Long:          "Campus events API: accounts, event listings and image hosting.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		newRunCommand("serve", "Start the HTTP API server", app.ModeServer, bootstrapLogger),
		newRunCommand("worker", "Consume image cleanup jobs from RabbitMQ", app.ModeWorker, bootstrapLogger),
		newMigrateCommand(),
	)
	return root
}

func newRunCommand(use, short, mode string, bootstrapLogger *slog.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			bootstrapLogger.Info("starting application", "mode", mode)

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			application, err := di.BuildApp(ctx)
			if err != nil {
				return fmt.Errorf("failed to build app: %w", err)
			}

			logger := application.LoggerIns()
			logger.Info("application initialized successfully")

			if err := application.Run(ctx, mode); err != nil {
				return err
			}

			logger.Info("application stopped gracefully")
			return nil
		},
	}
}

func newMigrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations and exit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig()
			if err != nil {
				return err
			}
			if cfg.StorageDriver == config.StorageDriverMemory {
				return fmt.Errorf("миграции не нужны для драйвера %q", cfg.StorageDriver)
			}
			return client.ApplyMigrations(cfg.DatabaseURL, di.NewLogger(cfg))
		},
	}
}
