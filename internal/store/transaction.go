package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/phrazzld/reimburse-api/internal/platform/logger"
)

// TxFn is a function that executes within a database transaction.
// The transaction is committed if the function returns nil, or rolled back if it returns an error.
type TxFn func(ctx context.Context, tx *sql.Tx) error

// RunInTransaction executes the given function within a database transaction.
// If the function returns an error or panics, the transaction is rolled back.
// Otherwise, the transaction is committed.
func RunInTransaction(ctx context.Context, db *sql.DB, fn TxFn) error {
	log := logger.FromContext(ctx)

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		log.Error("failed to begin transaction",
			slog.String("error", err.Error()))
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			if txErr := tx.Rollback(); txErr != nil {
				log.Error("failed to roll back transaction after panic",
					slog.String("error", txErr.Error()),
					slog.Any("panic", p))
			} else {
				log.Error("rolled back transaction after panic",
					slog.Any("panic", p))
			}
			// ALLOW-PANIC: Propagating caught panic from transaction
			panic(p)
		}
	}()

	if err = fn(ctx, tx); err != nil {
		if rollbackErr := tx.Rollback(); rollbackErr != nil {
			log.Error("failed to roll back transaction",
				slog.String("rollback_error", rollbackErr.Error()),
				slog.String("original_error", err.Error()))
			return fmt.Errorf(
				"error rolling back transaction: %v (original error: %w)",
				rollbackErr,
				err,
			)
		}
		log.Debug("rolled back transaction due to error",
			slog.String("error", err.Error()))
		return err
	}

	if err = tx.Commit(); err != nil {
		log.Error("failed to commit transaction",
			slog.String("error", err.Error()))
		return fmt.Errorf("%w: failed to commit transaction: %w", ErrTransactionFailed, err)
	}

	log.Debug("transaction committed successfully")
	return nil
}

// Stores groups the transaction-bound stores handed to a TxManager callback.
type Stores struct {
	Users          UserStore
	Reimbursements ReimbursementStore
}

// TxManager runs a unit of work atomically across all stores.
// Either every write made through the provided Stores is committed, or none is.
type TxManager interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, stores Stores) error) error
}

// SQLTxManager is a TxManager backed by a *sql.DB transaction.
type SQLTxManager struct {
	db             *sql.DB
	users          UserStore
	reimbursements ReimbursementStore
}

var _ TxManager = (*SQLTxManager)(nil)

// NewSQLTxManager creates a TxManager that binds users and reimbursements to
// each transaction it opens on db.
func NewSQLTxManager(db *sql.DB, users UserStore, reimbursements ReimbursementStore) *SQLTxManager {
	return &SQLTxManager{
		db:             db,
		users:          users,
		reimbursements: reimbursements,
	}
}

// WithinTx implements TxManager.
func (m *SQLTxManager) WithinTx(
	ctx context.Context,
	fn func(ctx context.Context, stores Stores) error,
) error {
	return RunInTransaction(ctx, m.db, func(ctx context.Context, tx *sql.Tx) error {
		return fn(ctx, Stores{
			Users:          m.users.WithTx(tx),
			Reimbursements: m.reimbursements.WithTx(tx),
		})
	})
}
