package middleware

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/phrazzld/reimburse-api/internal/api/shared"
	"github.com/phrazzld/reimburse-api/internal/platform/logger"
	"github.com/phrazzld/reimburse-api/internal/redact"
	"github.com/phrazzld/reimburse-api/internal/service/auth"
)

// AuthMiddleware identifies callers from JWT bearer tokens.
type AuthMiddleware struct {
	jwtService auth.JWTService
}

// NewAuthMiddleware creates a new AuthMiddleware with the given dependencies.
func NewAuthMiddleware(jwtService auth.JWTService) *AuthMiddleware {
	return &AuthMiddleware{
		jwtService: jwtService,
	}
}

// Identify places the caller described by the Authorization header in the
// request context. Requests without the header continue as anonymous;
// a malformed header or an invalid token is rejected with 401.
// Authorization decisions are left to the services.
func (m *AuthMiddleware) Identify(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			next.ServeHTTP(w, r)
			return
		}

		parts := strings.Fields(authHeader)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			shared.RespondWithError(w, r, http.StatusUnauthorized, "Invalid authorization format")
			return
		}

		claims, err := m.jwtService.ValidateToken(r.Context(), parts[1])
		if err != nil {
			switch {
			case errors.Is(err, auth.ErrExpiredToken):
				shared.RespondWithError(w, r, http.StatusUnauthorized, "Token expired")
			case errors.Is(err, auth.ErrInvalidToken),
				errors.Is(err, auth.ErrTokenNotYetValid),
				errors.Is(err, auth.ErrMissingToken):
				shared.RespondWithError(w, r, http.StatusUnauthorized, "Invalid token")
			default:
				logger.FromContext(r.Context()).Error("failed to validate token", redact.ErrorAttr(err))
				shared.RespondWithError(w, r, http.StatusInternalServerError, "Authentication error")
			}
			return
		}

		caller := claims.Caller()
		log := logger.FromContext(r.Context()).With(slog.Int64("caller_id", caller.UserID))
		ctx := logger.WithLogger(shared.WithCaller(r.Context(), caller), log)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
