package store

import (
	"context"
	"database/sql"

	"github.com/phrazzld/reimburse-api/internal/domain"
)

// UserStore defines the interface for user data persistence.
type UserStore interface {
	// Create saves a new user and sets user.ID to the generated identifier.
	// The user must already carry a PasswordHash; plaintext passwords are never stored.
	// Returns ErrUsernameExists if the username is already taken.
	Create(ctx context.Context, user *domain.User) error

	// GetByID retrieves a user by their unique ID.
	// Returns ErrUserNotFound if the user does not exist.
	GetByID(ctx context.Context, id int64) (*domain.User, error)

	// GetByUsername retrieves a user by exact, case-sensitive username.
	// Returns ErrUserNotFound if the user does not exist.
	GetByUsername(ctx context.Context, username string) (*domain.User, error)

	// FindByUsernamePrefix returns users whose username starts with prefix,
	// ordered by ID. The match is case-sensitive and treats the prefix
	// literally. An empty result is not an error.
	FindByUsernamePrefix(ctx context.Context, prefix string) ([]*domain.User, error)

	// List returns all users ordered by ID.
	List(ctx context.Context) ([]*domain.User, error)

	// Delete removes a user by ID.
	// Returns ErrUserNotFound if the user does not exist.
	// Callers that need the user's reimbursements removed must do so in the
	// same transaction; see ReimbursementStore.DeleteByUser.
	Delete(ctx context.Context, id int64) error

	// WithTx returns a new UserStore instance that uses the provided transaction.
	WithTx(tx *sql.Tx) UserStore
}
