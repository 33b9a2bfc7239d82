package middleware_test

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/phrazzld/reimburse-api/internal/api/middleware"
	"github.com/phrazzld/reimburse-api/internal/api/shared"
	"github.com/phrazzld/reimburse-api/internal/domain"
	"github.com/phrazzld/reimburse-api/internal/mocks"
	"github.com/phrazzld/reimburse-api/internal/platform/logger"
	"github.com/phrazzld/reimburse-api/internal/service/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIdentify(t *testing.T) {
	t.Parallel()

	jwtService := &mocks.MockJWTService{
		ValidateTokenFn: func(_ context.Context, token string) (*auth.Claims, error) {
			switch token {
			case "good":
				return &auth.Claims{UserID: 7, Username: "root", Role: domain.RoleAdmin}, nil
			case "expired":
				return nil, auth.ErrExpiredToken
			case "broken":
				return nil, errors.New("keystore unavailable")
			default:
				return nil, auth.ErrInvalidToken
			}
		},
	}
	mw := middleware.NewAuthMiddleware(jwtService)

	tests := []struct {
		name       string
		header     string
		wantStatus int
		wantCaller domain.Caller
	}{
		{"no header is anonymous", "", http.StatusOK, domain.Anonymous()},
		{"valid token", "Bearer good", http.StatusOK, domain.Caller{UserID: 7, Username: "root", Role: domain.RoleAdmin}},
		{"scheme is case-insensitive", "bearer good", http.StatusOK, domain.Caller{UserID: 7, Username: "root", Role: domain.RoleAdmin}},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized, domain.Caller{}},
		{"missing token", "Bearer", http.StatusUnauthorized, domain.Caller{}},
		{"invalid token", "Bearer forged", http.StatusUnauthorized, domain.Caller{}},
		{"expired token", "Bearer expired", http.StatusUnauthorized, domain.Caller{}},
		{"validation failure", "Bearer broken", http.StatusInternalServerError, domain.Caller{}},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			var got domain.Caller
			reached := false
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				reached = true
				got = shared.GetCaller(r.Context())
				w.WriteHeader(http.StatusOK)
			})

			req := httptest.NewRequest(http.MethodGet, "/users", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			mw.Identify(next).ServeHTTP(rec, req)

			assert.Equal(t, tc.wantStatus, rec.Code)
			if tc.wantStatus == http.StatusOK {
				require.True(t, reached)
				assert.Equal(t, tc.wantCaller, got)
			} else {
				assert.False(t, reached)
			}
		})
	}
}

func TestTraceMiddleware(t *testing.T) {
	t.Parallel()

	var traceID string
	var reqLogger *slog.Logger
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		traceID = shared.GetTraceID(r.Context())
		reqLogger = logger.FromContext(r.Context())
	})

	rec := httptest.NewRecorder()
	middleware.NewTraceMiddleware(nil)(next).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Len(t, traceID, 32)
	assert.NotSame(t, slog.Default(), reqLogger)
	assert.Equal(t, traceID, rec.Header().Get(middleware.TraceHeader))
}
