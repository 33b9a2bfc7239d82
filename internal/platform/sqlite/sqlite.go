package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mattn/go-sqlite3"

	"github.com/phrazzld/reimburse-api/internal/platform/sqlstore"
	"github.com/phrazzld/reimburse-api/internal/store"
)

// connParams are applied to every connection the pool opens. LIKE is made
// case-sensitive so prefix search behaves as it does on PostgreSQL.
const connParams = "_foreign_keys=1&_busy_timeout=5000&_case_sensitive_like=1"

// Open opens the SQLite database described by dsn (a file path, ":memory:"
// or a file: URI) with foreign keys enforced.
//
// SQLite allows a single writer, so the pool is limited to one connection.
// This also keeps a ":memory:" database alive for the lifetime of the pool.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	if dsn == "" {
		return nil, errors.New("sqlite dsn is empty")
	}

	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}

	db, err := sql.Open("sqlite3", dsn+sep+connParams)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping sqlite database: %w", err)
	}
	return db, nil
}

// Dialect is the sqlstore.Dialect for SQLite.
type Dialect struct{}

var _ sqlstore.Dialect = Dialect{}

// Name implements sqlstore.Dialect.
func (Dialect) Name() string { return "sqlite" }

// LockClause is empty: SQLite serializes writers at the database level.
func (Dialect) LockClause() string { return "" }

// MapError implements sqlstore.Dialect using SQLite extended result codes.
func (Dialect) MapError(err error) error {
	if err == nil {
		return nil
	}

	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) || sqliteErr.Code != sqlite3.ErrConstraint {
		return err
	}

	switch sqliteErr.ExtendedCode {
	case sqlite3.ErrConstraintUnique, sqlite3.ErrConstraintPrimaryKey:
		return fmt.Errorf("%w: %v", store.ErrDuplicate, err)
	case sqlite3.ErrConstraintForeignKey:
		return fmt.Errorf("%w: foreign key violation: %v", store.ErrInvalidEntity, err)
	case sqlite3.ErrConstraintCheck:
		return fmt.Errorf("%w: check constraint violation: %v", store.ErrInvalidEntity, err)
	case sqlite3.ErrConstraintNotNull:
		return fmt.Errorf("%w: not null violation: %v", store.ErrInvalidEntity, err)
	default:
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}
}

// NewUserStore creates a SQLite-backed store.UserStore.
func NewUserStore(db store.DBTX, logger *slog.Logger) *sqlstore.UserStore {
	return sqlstore.NewUserStore(db, Dialect{}, logger)
}

// NewReimbursementStore creates a SQLite-backed store.ReimbursementStore.
func NewReimbursementStore(db store.DBTX, logger *slog.Logger) *sqlstore.ReimbursementStore {
	return sqlstore.NewReimbursementStore(db, Dialect{}, logger)
}
