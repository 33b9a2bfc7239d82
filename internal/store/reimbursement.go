package store

import (
	"context"
	"database/sql"

	"github.com/phrazzld/reimburse-api/internal/domain"
)

// ReimbursementFilter narrows a reimbursement listing. Nil fields match everything.
type ReimbursementFilter struct {
	UserID *int64
	Status *domain.Status
}

// ReimbursementStore defines the interface for reimbursement persistence.
type ReimbursementStore interface {
	// Create saves a new reimbursement and sets its ID.
	// Returns ErrUserNotFound if the owning user does not exist.
	Create(ctx context.Context, r *domain.Reimbursement) error

	// GetByID retrieves a reimbursement with its owner's username.
	// Returns ErrReimbursementNotFound if it does not exist.
	GetByID(ctx context.Context, id int64) (*domain.Reimbursement, error)

	// GetByIDForUpdate is GetByID that also locks the row until the
	// surrounding transaction ends, where the backend supports row locks.
	GetByIDForUpdate(ctx context.Context, id int64) (*domain.Reimbursement, error)

	// UpdateStatus persists the status and UpdatedAt of r.
	// Returns ErrReimbursementNotFound if it does not exist.
	UpdateStatus(ctx context.Context, r *domain.Reimbursement) error

	// List returns reimbursements matching filter, ordered by ID.
	List(ctx context.Context, filter ReimbursementFilter) ([]*domain.Reimbursement, error)

	// SumAmount totals the amounts of a user's reimbursements in status.
	// Returns 0 when there are none.
	SumAmount(ctx context.Context, userID int64, status domain.Status) (int64, error)

	// DeleteByUser removes every reimbursement owned by userID and reports how many were removed.
	DeleteByUser(ctx context.Context, userID int64) (int64, error)

	// WithTx returns a new ReimbursementStore instance that uses the provided transaction.
	WithTx(tx *sql.Tx) ReimbursementStore
}
