package api

import (
	"time"

	"github.com/phrazzld/reimburse-api/internal/service"
)

// LoginRequest defines the payload for the login endpoint.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse defines the successful response for the login endpoint.
type LoginResponse struct {
	// Token is the JWT access token to send as "Authorization: Bearer <token>"
	Token string `json:"token"`

	// ExpiresAt is when the token stops being accepted
	ExpiresAt time.Time `json:"expiresAt"`

	UserID int64  `json:"userId"`
	Role   string `json:"role"`
}

// RegisterUserRequest defines the payload for creating a user.
// Field checks happen in the service so that duplicate usernames are reported first.
type RegisterUserRequest = service.Registration

// CreateReimbursementRequest defines the payload for submitting a reimbursement.
type CreateReimbursementRequest struct {
	Description string `json:"description"`
	Amount      int64  `json:"amount"`
	Username    string `json:"username"`
}

// ResolveReimbursementRequest defines the payload for approving or denying a reimbursement.
type ResolveReimbursementRequest struct {
	ReimbursementID int64  `json:"reimbursementId" validate:"required,gt=0"`
	Status          string `json:"status"`
}
