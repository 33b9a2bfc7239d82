package domain

import (
	"strings"
	"time"
)

// Role names understood by the application.
const (
	// RoleAdmin grants access to admin-only operations. Comparison is case-sensitive.
	RoleAdmin = "admin"

	// RoleDefault is assigned when a user registers without a role.
	RoleDefault = "default user"
)

// Common user validation errors
var (
	ErrEmptyUsername  = NewValidationError("", "Username cannot be empty!", ErrValidation)
	ErrEmptyPassword  = NewValidationError("", "Password cannot be empty!", ErrValidation)
	ErrEmptyFirstName = NewValidationError("", "First name cannot be empty!", ErrValidation)
	ErrEmptyLastName  = NewValidationError("", "Last name cannot be empty!", ErrValidation)
)

// User represents a registered employee who can submit reimbursements.
type User struct {
	ID           int64     `json:"userId"`
	FirstName    string    `json:"firstName"`
	LastName     string    `json:"lastName"`
	Username     string    `json:"username"`
	Password     string    `json:"-"` // Plaintext password, only present during registration
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// NewUser creates a new User from registration input and validates it.
// An empty role falls back to RoleDefault. The ID is assigned by the store.
//
// The caller is responsible for hashing the password before storing the user.
func NewUser(firstName, lastName, username, password, role string) (*User, error) {
	if strings.TrimSpace(role) == "" {
		role = RoleDefault
	}

	now := time.Now().UTC()
	user := &User{
		FirstName: firstName,
		LastName:  lastName,
		Username:  username,
		Password:  password,
		Role:      role,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := user.Validate(); err != nil {
		return nil, err
	}

	return user, nil
}

// Validate checks that the User has the fields required for storage.
// Either a plaintext password (registration) or a hash (stored user) must be present.
func (u *User) Validate() error {
	if isBlank(u.Username) {
		return ErrEmptyUsername
	}

	if isBlank(u.Password) && u.PasswordHash == "" {
		return ErrEmptyPassword
	}

	if isBlank(u.FirstName) {
		return ErrEmptyFirstName
	}

	if isBlank(u.LastName) {
		return ErrEmptyLastName
	}

	return nil
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
