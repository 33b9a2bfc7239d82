package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/phrazzld/reimburse-api/internal/domain"
)

// getPathBool parses a boolean URL path parameter.
func getPathBool(r *http.Request, paramName string) (bool, error) {
	value := chi.URLParam(r, paramName)
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return false, domain.NewValidationError(paramName, "must be true or false", domain.ErrValidation)
	}
	return parsed, nil
}

// getQueryID parses a positive integer identifier from the query string.
func getQueryID(r *http.Request, paramName string) (int64, error) {
	value := r.URL.Query().Get(paramName)
	if value == "" {
		return 0, domain.NewValidationError(paramName, "is required", domain.ErrValidation)
	}
	id, err := strconv.ParseInt(value, 10, 64)
	if err != nil || id <= 0 {
		return 0, domain.NewValidationError(paramName, "must be a positive integer", domain.ErrInvalidID)
	}
	return id, nil
}

// searchPrefix drops the leading sigil character from a search path segment,
// so /users/search/@al searches for "al".
func searchPrefix(segment string) string {
	runes := []rune(segment)
	if len(runes) == 0 {
		return ""
	}
	return string(runes[1:])
}
