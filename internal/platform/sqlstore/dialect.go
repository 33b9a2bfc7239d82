package sqlstore

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/phrazzld/reimburse-api/internal/store"
)

// Dialect captures the engine-specific behaviour the shared SQL stores need.
type Dialect interface {
	// Name identifies the engine in logs, e.g. "postgres".
	Name() string

	// MapError translates a driver error into a store sentinel
	// (store.ErrNotFound, store.ErrDuplicate, store.ErrInvalidEntity),
	// wrapping the original. Unknown errors are returned unchanged.
	MapError(err error) error

	// LockClause is appended to single-row selects that must hold a row lock
	// until the transaction ends. It may be empty.
	LockClause() string
}

// mapError runs err through the dialect and marks anything it could not
// classify as an internal store error.
func mapError(d Dialect, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %v", store.ErrNotFound, err)
	}

	mapped := d.MapError(err)
	if errors.Is(mapped, store.ErrNotFound) ||
		errors.Is(mapped, store.ErrDuplicate) ||
		errors.Is(mapped, store.ErrInvalidEntity) {
		return mapped
	}
	return fmt.Errorf("%w: %w", store.ErrInternal, err)
}

// checkRowsAffected returns notFound when result reports no affected rows.
func checkRowsAffected(result sql.Result, notFound error) error {
	if result == nil {
		return fmt.Errorf("%w: nil result", store.ErrInternal)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: failed to get rows affected: %w", store.ErrInternal, err)
	}

	if rowsAffected == 0 {
		return notFound
	}
	return nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// prefixPattern turns a literal prefix into a LIKE pattern using '\' as the escape character.
func prefixPattern(prefix string) string {
	return likeEscaper.Replace(prefix) + "%"
}
