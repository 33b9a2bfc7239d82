package postgres

import (
	"log/slog"

	"github.com/phrazzld/reimburse-api/internal/platform/sqlstore"
	"github.com/phrazzld/reimburse-api/internal/store"
)

// Dialect is the sqlstore.Dialect for PostgreSQL.
type Dialect struct{}

var _ sqlstore.Dialect = Dialect{}

// Name implements sqlstore.Dialect.
func (Dialect) Name() string { return "postgres" }

// MapError implements sqlstore.Dialect.
func (Dialect) MapError(err error) error { return MapError(err) }

// LockClause locks only the reimbursement row of the users join.
func (Dialect) LockClause() string { return "FOR UPDATE OF r" }

// NewUserStore creates a PostgreSQL-backed store.UserStore.
func NewUserStore(db store.DBTX, logger *slog.Logger) *sqlstore.UserStore {
	return sqlstore.NewUserStore(db, Dialect{}, logger)
}

// NewReimbursementStore creates a PostgreSQL-backed store.ReimbursementStore.
func NewReimbursementStore(db store.DBTX, logger *slog.Logger) *sqlstore.ReimbursementStore {
	return sqlstore.NewReimbursementStore(db, Dialect{}, logger)
}
