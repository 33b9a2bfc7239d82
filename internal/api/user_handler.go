package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/phrazzld/reimburse-api/internal/api/shared"
	"github.com/phrazzld/reimburse-api/internal/service"
)

// UserHandler serves the /users endpoints.
type UserHandler struct {
	users  service.UserService
	logger *slog.Logger
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(users service.UserService, logger *slog.Logger) *UserHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &UserHandler{
		users:  users,
		logger: logger.With(slog.String("component", "user_handler")),
	}
}

// Register handles POST /users.
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterUserRequest
	if err := shared.DecodeJSON(w, r, &req); err != nil {
		respondInvalidBody(w, r, err)
		return
	}

	user, err := h.users.RegisterUser(r.Context(), req)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to register user")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusCreated, user)
}

// List handles GET /users. Admin only.
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.GetAllUsers(r.Context(), shared.GetCaller(r.Context()))
	if err != nil {
		HandleAPIError(w, r, err, "Failed to list users")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, nonNil(users))
}

// Delete handles DELETE /users?userid=N. Admin only.
func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, err := getQueryID(r, "userid")
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	user, err := h.users.DeleteUser(r.Context(), shared.GetCaller(r.Context()), userID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to delete user")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, user)
}

// Search handles GET /users/search/{username}. The first character of the
// path segment is a sigil and is not part of the prefix.
func (h *UserHandler) Search(w http.ResponseWriter, r *http.Request) {
	prefix := searchPrefix(chi.URLParam(r, "username"))

	users, err := h.users.GetUsersByUsernamePrefix(r.Context(), prefix)
	if err != nil {
		handleLookupError(w, r, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, nonNil(users))
}

// GetByUsername handles GET /users/username/{username}.
func (h *UserHandler) GetByUsername(w http.ResponseWriter, r *http.Request) {
	user, err := h.users.GetUserByUsername(r.Context(), chi.URLParam(r, "username"))
	if err != nil {
		handleLookupError(w, r, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, user)
}
