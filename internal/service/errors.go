package service

import (
	"errors"
	"fmt"
)

// Error kinds returned by the workflow services. Callers check them with
// errors.Is; the API layer maps each kind to an HTTP status.
var (
	// ErrInvalidInput indicates a malformed, missing or blank field.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotFound indicates that the requested entity has no match.
	ErrNotFound = errors.New("not found")

	// ErrUserNotFound indicates that a user id or username does not resolve.
	ErrUserNotFound = fmt.Errorf("%w: user", ErrNotFound)

	// ErrReimbursementNotFound indicates that no reimbursement has the given id.
	ErrReimbursementNotFound = fmt.Errorf("%w: reimbursement", ErrNotFound)

	// ErrDuplicateUsername indicates that registration used a taken username.
	ErrDuplicateUsername = errors.New("duplicate username")

	// ErrInvalidStatus indicates a status outside pending, approved and denied.
	ErrInvalidStatus = errors.New("invalid status")

	// ErrForbidden indicates that the caller lacks the required capability.
	ErrForbidden = errors.New("forbidden")

	// ErrInvalidCredentials indicates a failed login.
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// Error is a service failure with a message that is safe to show to clients.
// Kind is one of the Err* sentinels above; Err is the underlying cause, if any.
type Error struct {
	Kind    error
	Message string
	Err     error
}

// Error returns the client-facing message.
func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Kind != nil {
		return e.Kind.Error()
	}
	return "service error"
}

// Unwrap exposes both the kind and the cause to errors.Is and errors.As.
func (e *Error) Unwrap() []error {
	errs := make([]error, 0, 2)
	if e.Kind != nil {
		errs = append(errs, e.Kind)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

func newError(kind error, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func wrapError(kind error, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// Message returns the client-facing message carried by err, if err is or
// wraps an *Error.
func Message(err error) (string, bool) {
	var svcErr *Error
	if errors.As(err, &svcErr) {
		return svcErr.Error(), true
	}
	return "", false
}

func userNotFoundByUsername(username string) *Error {
	return newError(ErrUserNotFound, fmt.Sprintf("No user found with username: %s", username))
}

func userNotFoundByID(id int64) *Error {
	return newError(ErrUserNotFound, fmt.Sprintf("No user found with id: %d", id))
}

func reimbursementNotFound(id int64) *Error {
	return newError(ErrReimbursementNotFound, fmt.Sprintf("No reimbursement found with id: %d", id))
}
