package domain

import (
	"math"
	"time"
)

// Status is the lifecycle state of a reimbursement.
type Status string

// Valid reimbursement statuses. Pending is initial.
const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusDenied   Status = "denied"
)

// MaxAmount is the largest amount a single reimbursement may claim.
const MaxAmount int64 = math.MaxInt32

// Reimbursement validation errors
var (
	ErrEmptyDescription = NewValidationError("", "Description cannot be empty!", ErrValidation)
	ErrInvalidAmount    = NewValidationError("", "Amount must be greater than zero!", ErrValidation)
	ErrAmountTooLarge   = NewValidationError("", "Amount cannot exceed 2147483647!", ErrValidation)
	ErrMissingOwner     = NewValidationError("", "Reimbursement must belong to a user!", ErrInvalidID)
)

// ParseStatus converts s into a Status. It returns ErrInvalidStatus for any
// value other than the three known statuses.
func ParseStatus(s string) (Status, error) {
	status := Status(s)
	if !status.Valid() {
		return "", ErrInvalidStatus
	}
	return status, nil
}

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusDenied:
		return true
	default:
		return false
	}
}

// Reimbursement is an expense claim submitted by a user.
type Reimbursement struct {
	ID          int64     `json:"reimbursementId"`
	Description string    `json:"description"`
	Amount      int64     `json:"amount"`
	Status      Status    `json:"status"`
	UserID      int64     `json:"userId"`
	Username    string    `json:"username,omitempty"` // Owner's username, filled in on reads
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// NewReimbursement creates a pending reimbursement owned by userID.
func NewReimbursement(description string, amount int64, userID int64) (*Reimbursement, error) {
	now := time.Now().UTC()
	r := &Reimbursement{
		Description: description,
		Amount:      amount,
		Status:      StatusPending,
		UserID:      userID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := r.Validate(); err != nil {
		return nil, err
	}

	return r, nil
}

// Validate checks if the Reimbursement has valid data.
func (r *Reimbursement) Validate() error {
	if r.UserID <= 0 {
		return ErrMissingOwner
	}

	if isBlank(r.Description) {
		return ErrEmptyDescription
	}

	if r.Amount <= 0 {
		return ErrInvalidAmount
	}

	if r.Amount > MaxAmount {
		return ErrAmountTooLarge
	}

	if !r.Status.Valid() {
		return ErrInvalidStatus
	}

	return nil
}

// Resolve moves the reimbursement to status. Any known status may replace
// any other, including an earlier resolution. Re-applying the current status
// leaves UpdatedAt untouched. It returns ErrInvalidStatus for unknown statuses
// and leaves the receiver unchanged.
func (r *Reimbursement) Resolve(status Status) error {
	if !status.Valid() {
		return ErrInvalidStatus
	}

	if r.Status != status {
		r.Status = status
		r.UpdatedAt = time.Now().UTC()
	}
	return nil
}
