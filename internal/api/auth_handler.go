package api

import (
	"log/slog"
	"net/http"

	"github.com/phrazzld/reimburse-api/internal/api/shared"
	"github.com/phrazzld/reimburse-api/internal/platform/logger"
	"github.com/phrazzld/reimburse-api/internal/service"
	"github.com/phrazzld/reimburse-api/internal/service/auth"
)

// LoginRecorder observes login outcomes.
type LoginRecorder interface {
	RecordLogin(success bool)
}

// AuthHandler handles authentication-related API requests.
type AuthHandler struct {
	users      service.UserService
	jwtService auth.JWTService
	recorder   LoginRecorder
	logger     *slog.Logger
}

// NewAuthHandler creates a new AuthHandler with the given dependencies.
// recorder may be nil.
func NewAuthHandler(
	users service.UserService,
	jwtService auth.JWTService,
	recorder LoginRecorder,
	logger *slog.Logger,
) *AuthHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthHandler{
		users:      users,
		jwtService: jwtService,
		recorder:   recorder,
		logger:     logger.With(slog.String("component", "auth_handler")),
	}
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := shared.DecodeJSON(w, r, &req); err != nil {
		respondInvalidBody(w, r, err)
		return
	}

	user, err := h.users.Authenticate(r.Context(), req.Username, req.Password)
	if err != nil {
		h.record(false)
		HandleAPIError(w, r, err, "Failed to authenticate user")
		return
	}

	token, expiresAt, err := h.jwtService.GenerateToken(r.Context(), user)
	if err != nil {
		h.record(false)
		HandleAPIError(w, r, err, "Failed to generate authentication token")
		return
	}
	h.record(true)

	logger.FromContextOrDefault(r.Context(), h.logger).Info("user logged in",
		slog.Int64("user_id", user.ID))

	shared.RespondWithJSON(w, r, http.StatusOK, LoginResponse{
		Token:     token,
		ExpiresAt: expiresAt,
		UserID:    user.ID,
		Role:      user.Role,
	})
}

func (h *AuthHandler) record(success bool) {
	if h.recorder != nil {
		h.recorder.RecordLogin(success)
	}
}
