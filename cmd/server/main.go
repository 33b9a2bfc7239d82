// Package main is the entry point for the reimbursement API server.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/phrazzld/reimburse-api/internal/config"
	"github.com/phrazzld/reimburse-api/internal/platform/logger"
	"github.com/phrazzld/reimburse-api/internal/platform/migrations"
)

func main() {
	migrateCmd := flag.String("migrate", "",
		"run a migration command (up, down, reset, status, version) and exit")
	flag.Parse()

	if err := run(context.Background(), *migrateCmd); err != nil {
		slog.Error("server exited with error", "error", err)
		os.Exit(1)
	}
}

// run loads configuration, builds the application and either executes a
// migration command or serves HTTP until SIGINT or SIGTERM.
func run(ctx context.Context, migrateCmd string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	log, err := logger.Setup(cfg.Server)
	if err != nil {
		return fmt.Errorf("failed to set up logger: %w", err)
	}

	log.Info("server configuration loaded",
		"port", cfg.Server.Port,
		"log_level", cfg.Server.LogLevel,
		"database_driver", cfg.Database.Driver)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := newApplication(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}
	defer app.cleanup()

	if migrateCmd != "" {
		return app.migrate(ctx, migrateCmd)
	}

	if cfg.Database.AutoMigrate && app.db != nil {
		if err := app.migrate(ctx, migrations.CommandUp); err != nil {
			return err
		}
	}

	return app.serve(ctx)
}
