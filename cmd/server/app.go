package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/phrazzld/reimburse-api/internal/config"
	"github.com/phrazzld/reimburse-api/internal/events"
	"github.com/phrazzld/reimburse-api/internal/platform/memstore"
	"github.com/phrazzld/reimburse-api/internal/platform/metrics"
	"github.com/phrazzld/reimburse-api/internal/platform/migrations"
	"github.com/phrazzld/reimburse-api/internal/platform/postgres"
	"github.com/phrazzld/reimburse-api/internal/platform/sqlite"
	"github.com/phrazzld/reimburse-api/internal/service"
	"github.com/phrazzld/reimburse-api/internal/service/auth"
	"github.com/phrazzld/reimburse-api/internal/store"
)

// application holds all the shared application dependencies to simplify management
// and ensure proper cleanup on shutdown.
type application struct {
	config *config.Config
	logger *slog.Logger

	// db is nil for the memory driver.
	db *sql.DB

	userStore          store.UserStore
	reimbursementStore store.ReimbursementStore
	txManager          store.TxManager

	jwtService           auth.JWTService
	userService          service.UserService
	reimbursementService service.ReimbursementService

	eventEmitter *events.InMemoryEventEmitter
	metrics      *metrics.Metrics
}

// newApplication creates a new application instance with all dependencies initialized.
func newApplication(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*application, error) {
	app := &application{
		config: cfg,
		logger: logger,
	}

	if err := app.setupStorage(ctx); err != nil {
		return nil, err
	}

	var err error
	app.jwtService, err = auth.NewJWTService(cfg.Auth)
	if err != nil {
		app.cleanup()
		return nil, fmt.Errorf("failed to initialize JWT service: %w", err)
	}

	app.metrics = metrics.New(metrics.DefaultNamespace)

	app.eventEmitter = events.NewInMemoryEventEmitter(logger)
	app.eventEmitter.RegisterHandler(events.NewAuditLogHandler(logger))
	app.eventEmitter.RegisterHandler(app.metrics)

	app.userService, err = service.NewUserService(
		app.userStore,
		app.txManager,
		auth.NewBcryptHasher(cfg.Auth.BCryptCost),
		app.eventEmitter,
		logger,
	)
	if err != nil {
		app.cleanup()
		return nil, fmt.Errorf("failed to initialize user service: %w", err)
	}

	app.reimbursementService, err = service.NewReimbursementService(
		app.userStore,
		app.reimbursementStore,
		app.txManager,
		app.eventEmitter,
		logger,
	)
	if err != nil {
		app.cleanup()
		return nil, fmt.Errorf("failed to initialize reimbursement service: %w", err)
	}

	return app, nil
}

// setupStorage opens the configured database and creates the stores over it.
func (app *application) setupStorage(ctx context.Context) error {
	cfg := app.config.Database

	switch cfg.Driver {
	case config.DriverPostgres:
		db, err := postgres.Open(ctx, cfg)
		if err != nil {
			return err
		}
		app.db = db
		app.userStore = postgres.NewUserStore(db, app.logger)
		app.reimbursementStore = postgres.NewReimbursementStore(db, app.logger)

	case config.DriverSQLite:
		db, err := sqlite.Open(ctx, cfg.URL)
		if err != nil {
			return err
		}
		app.db = db
		app.userStore = sqlite.NewUserStore(db, app.logger)
		app.reimbursementStore = sqlite.NewReimbursementStore(db, app.logger)

	case config.DriverMemory:
		mem := memstore.New()
		app.userStore = mem.Users()
		app.reimbursementStore = mem.Reimbursements()
		app.txManager = mem.TxManager()
		app.logger.Warn("using in-memory storage, data is lost on exit")
		return nil

	default:
		return fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	app.txManager = store.NewSQLTxManager(app.db, app.userStore, app.reimbursementStore)
	app.logger.Info("database connection established", "driver", cfg.Driver)
	return nil
}

// migrate runs a goose command against the configured database.
func (app *application) migrate(ctx context.Context, command string) error {
	if app.db == nil {
		return fmt.Errorf("migrations are not supported by the %q driver", app.config.Database.Driver)
	}
	if err := migrations.Run(ctx, app.db, app.config.Database.Driver, command, app.logger); err != nil {
		return fmt.Errorf("migration %q failed: %w", command, err)
	}
	return nil
}

// cleanup releases resources held by the application.
func (app *application) cleanup() {
	if app.db == nil {
		return
	}
	if err := app.db.Close(); err != nil {
		app.logger.Error("failed to close database connection", "error", err)
	}
	app.db = nil
}
