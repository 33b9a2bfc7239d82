// Package migrations embeds the SQL schema migrations and runs them with goose.
package migrations

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/pressly/goose/v3"
)

//go:embed postgres/*.sql sqlite/*.sql
var embedded embed.FS

// TableName is the table goose uses to track applied migrations.
const TableName = "schema_migrations"

// Supported migration commands.
const (
	CommandUp      = "up"
	CommandDown    = "down"
	CommandReset   = "reset"
	CommandStatus  = "status"
	CommandVersion = "version"
)

// goose keeps its configuration in package globals.
var gooseMu sync.Mutex

// dialects maps a storage driver name to the goose dialect and embedded directory.
var dialects = map[string]struct {
	goose string
	dir   string
}{
	"postgres": {goose: "postgres", dir: "postgres"},
	"sqlite":   {goose: "sqlite3", dir: "sqlite"},
}

// Up applies all pending migrations for driver.
func Up(ctx context.Context, db *sql.DB, driver string, logger *slog.Logger) error {
	return Run(ctx, db, driver, CommandUp, logger)
}

// Run executes a goose command against db using the migrations embedded for
// driver ("postgres" or "sqlite").
func Run(ctx context.Context, db *sql.DB, driver, command string, logger *slog.Logger) error {
	d, ok := dialects[driver]
	if !ok {
		return fmt.Errorf("migrations not available for driver %q", driver)
	}
	if logger == nil {
		logger = slog.Default()
	}
	log := logger.With(
		slog.String("component", "migrations"),
		slog.String("driver", driver),
		slog.String("command", command),
	)

	gooseMu.Lock()
	defer gooseMu.Unlock()

	goose.SetBaseFS(embedded)
	defer goose.SetBaseFS(nil)
	goose.SetLogger(&slogGooseLogger{logger: log})
	goose.SetTableName(TableName)
	if err := goose.SetDialect(d.goose); err != nil {
		return fmt.Errorf("failed to set dialect: %w", err)
	}

	start := time.Now()
	log.Info("starting migration command")

	var err error
	switch command {
	case CommandUp:
		err = goose.UpContext(ctx, db, d.dir)
	case CommandDown:
		err = goose.DownContext(ctx, db, d.dir)
	case CommandReset:
		err = goose.ResetContext(ctx, db, d.dir)
	case CommandStatus:
		err = goose.StatusContext(ctx, db, d.dir)
	case CommandVersion:
		err = goose.VersionContext(ctx, db, d.dir)
	default:
		return fmt.Errorf(
			"unknown migration command: %s (expected up, down, reset, status, or version)",
			command,
		)
	}
	if err != nil {
		log.Error("migration command failed",
			slog.String("error", err.Error()),
			slog.Int64("duration_ms", time.Since(start).Milliseconds()))
		return fmt.Errorf("migration command '%s' failed: %w", command, err)
	}

	log.Info("migration command executed successfully",
		slog.Int64("duration_ms", time.Since(start).Milliseconds()))
	return nil
}

// slogGooseLogger adapts the goose logger interface to slog.
type slogGooseLogger struct {
	logger *slog.Logger
}

// Printf implements goose.Logger.
func (l *slogGooseLogger) Printf(format string, v ...interface{}) {
	l.logger.Info(fmt.Sprintf(format, v...))
}

// Fatalf implements goose.Logger. Unlike the default it does not exit; goose
// returns the error to Run.
func (l *slogGooseLogger) Fatalf(format string, v ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, v...))
}
