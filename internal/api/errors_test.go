package api

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/phrazzld/reimburse-api/internal/domain"
	"github.com/phrazzld/reimburse-api/internal/service"
	"github.com/phrazzld/reimburse-api/internal/service/auth"
	"github.com/phrazzld/reimburse-api/internal/store"
	"github.com/stretchr/testify/assert"
)

func TestMapErrorToStatusCode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want int
	}{
		{"invalid token", auth.ErrInvalidToken, http.StatusUnauthorized},
		{"expired token", fmt.Errorf("wrapped: %w", auth.ErrExpiredToken), http.StatusUnauthorized},
		{"bad credentials", &service.Error{Kind: service.ErrInvalidCredentials}, http.StatusUnauthorized},
		{"forbidden", &service.Error{Kind: service.ErrForbidden}, http.StatusForbidden},
		{"invalid input", &service.Error{Kind: service.ErrInvalidInput}, http.StatusBadRequest},
		{"invalid status", &service.Error{Kind: service.ErrInvalidStatus}, http.StatusBadRequest},
		{"duplicate", &service.Error{Kind: service.ErrDuplicateUsername}, http.StatusBadRequest},
		{"user not found", &service.Error{Kind: service.ErrUserNotFound}, http.StatusBadRequest},
		{"domain validation", domain.NewValidationError("userid", "is required", nil), http.StatusBadRequest},
		{"store error is internal", store.ErrInternal, http.StatusInternalServerError},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, MapErrorToStatusCode(tc.err))
		})
	}
}

func TestGetSafeErrorMessage(t *testing.T) {
	t.Parallel()

	assert.Equal(t, genericErrorMessage, GetSafeErrorMessage(nil))
	assert.Equal(t, "Invalid token", GetSafeErrorMessage(auth.ErrInvalidToken))
	assert.Equal(t, "Token expired", GetSafeErrorMessage(auth.ErrExpiredToken))
	assert.Equal(t, "Username already exists!",
		GetSafeErrorMessage(&service.Error{Kind: service.ErrDuplicateUsername, Message: "Username already exists!"}))
	assert.Equal(t, "userid is required",
		GetSafeErrorMessage(domain.NewValidationError("userid", "is required", nil)))

	leaky := fmt.Errorf("failed to list users: %w",
		errors.New(`pq: relation "users" does not exist at postgres://admin:secret@db/app`))
	assert.Equal(t, genericErrorMessage, GetSafeErrorMessage(leaky))

	// A service message wrapped around an internal failure must not leak.
	internal := &service.Error{Message: "connection refused on 10.0.0.5", Err: store.ErrInternal}
	assert.Equal(t, genericErrorMessage, GetSafeErrorMessage(internal))
}

func TestHandleAPIError_FallbackMessage(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	HandleAPIError(rec, httptest.NewRequest(http.MethodGet, "/users", nil), errors.New("boom"), "Failed to list users")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "Failed to list users")

	rec = httptest.NewRecorder()
	HandleAPIError(rec, httptest.NewRequest(http.MethodGet, "/users", nil),
		&service.Error{Kind: service.ErrForbidden, Message: "Access denied: admin role required"}, "Failed to list users")
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "Access denied: admin role required")
}

func TestSanitizeValidationError(t *testing.T) {
	t.Parallel()

	err := validator.New().Struct(ResolveReimbursementRequest{ReimbursementID: 0, Status: "approved"})
	assert.Equal(t, "Invalid ReimbursementID: required field", SanitizeValidationError(err))

	err = validator.New().Struct(ResolveReimbursementRequest{ReimbursementID: -4, Status: "approved"})
	assert.Equal(t, "Invalid ReimbursementID: too small", SanitizeValidationError(err))

	assert.Equal(t, "Validation error", SanitizeValidationError(errors.New("other")))
}

func TestSearchPrefix(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "al", searchPrefix("@al"))
	assert.Equal(t, "", searchPrefix("@"))
	assert.Equal(t, "", searchPrefix(""))
	assert.Equal(t, "lice", searchPrefix("élice"))
}
