package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/phrazzld/reimburse-api/internal/api"
	"github.com/phrazzld/reimburse-api/internal/api/middleware"
	"github.com/phrazzld/reimburse-api/internal/domain"
	"github.com/phrazzld/reimburse-api/internal/mocks"
	"github.com/phrazzld/reimburse-api/internal/platform/memstore"
	"github.com/phrazzld/reimburse-api/internal/service"
	"github.com/phrazzld/reimburse-api/internal/service/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	adminToken = "admin-token"
	userToken  = "user-token"
)

type loginCounter struct {
	ok, failed int
}

func (c *loginCounter) RecordLogin(success bool) {
	if success {
		c.ok++
	} else {
		c.failed++
	}
}

type testServer struct {
	handler http.Handler
	logins  *loginCounter
	db      *memstore.DB
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	db := memstore.New()

	users, err := service.NewUserService(db.Users(), db.TxManager(), &mocks.MockPasswordHasher{}, nil, log)
	require.NoError(t, err)
	reimbursements, err := service.NewReimbursementService(db.Users(), db.Reimbursements(), db.TxManager(), nil, log)
	require.NoError(t, err)

	jwtService := &mocks.MockJWTService{
		GenerateTokenFn: func(_ context.Context, user *domain.User) (string, time.Time, error) {
			return "token-for-" + user.Username, time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC), nil
		},
		ValidateTokenFn: func(_ context.Context, token string) (*auth.Claims, error) {
			switch token {
			case adminToken:
				return &auth.Claims{UserID: 1000, Username: "boss", Role: domain.RoleAdmin}, nil
			case userToken:
				return &auth.Claims{UserID: 1001, Username: "pleb", Role: domain.RoleDefault}, nil
			}
			return nil, auth.ErrInvalidToken
		},
	}

	logins := &loginCounter{}
	authHandler := api.NewAuthHandler(users, jwtService, logins, log)
	userHandler := api.NewUserHandler(users, log)
	reimbursementHandler := api.NewReimbursementHandler(reimbursements, log)

	r := chi.NewRouter()
	r.Use(middleware.NewTraceMiddleware(log))
	r.Use(middleware.NewAuthMiddleware(jwtService).Identify)
	r.Post("/auth/login", authHandler.Login)
	r.Route("/users", func(r chi.Router) {
		r.Post("/", userHandler.Register)
		r.Get("/", userHandler.List)
		r.Delete("/", userHandler.Delete)
		r.Get("/search/{username}", userHandler.Search)
		r.Get("/username/{username}", userHandler.GetByUsername)
	})
	r.Route("/reimbursements", func(r chi.Router) {
		r.Post("/", reimbursementHandler.Create)
		r.Put("/", reimbursementHandler.Resolve)
		r.Get("/all/{pending}", reimbursementHandler.ListAll)
		r.Get("/user/{pending}/{username}", reimbursementHandler.ListForUser)
		r.Get("/amount/{username}", reimbursementHandler.TotalPending)
	})

	return &testServer{handler: r, logins: logins, db: db}
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = strings.NewReader(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func errorMessage(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	body := decode[map[string]string](t, rec)
	assert.NotEmpty(t, body["trace_id"])
	return body["error"]
}

func registerAlice(t *testing.T, s *testServer) {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/users", "", map[string]string{
		"firstName": "Alice", "lastName": "Liddell", "username": "alice", "password": "pw1", "role": "default user",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
}

func TestAliceScenarioOverHTTP(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/users", "", map[string]string{
		"firstName": "Alice", "lastName": "Liddell", "username": "alice", "password": "pw1", "role": "default user",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	user := decode[map[string]any](t, rec)
	assert.Equal(t, "alice", user["username"])
	assert.Equal(t, "default user", user["role"])
	assert.Positive(t, user["userId"])
	assert.NotContains(t, rec.Body.String(), "pw1")
	assert.NotContains(t, rec.Body.String(), "password")

	rec = s.do(t, http.MethodPost, "/reimbursements", "", map[string]any{
		"description": "lunch", "amount": 500, "username": "alice",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	created := decode[domain.Reimbursement](t, rec)
	assert.Equal(t, domain.StatusPending, created.Status)
	assert.Equal(t, "alice", created.Username)

	rec = s.do(t, http.MethodGet, "/reimbursements/amount/alice", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "500", strings.TrimSpace(rec.Body.String()))

	rec = s.do(t, http.MethodPut, "/reimbursements", adminToken, map[string]any{
		"reimbursementId": created.ID, "status": "approved",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, domain.StatusApproved, decode[domain.Reimbursement](t, rec).Status)

	rec = s.do(t, http.MethodGet, "/reimbursements/amount/alice", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "0", strings.TrimSpace(rec.Body.String()))
}

func TestGhostScenarioOverHTTP(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/reimbursements", "", map[string]any{
		"description": "lunch", "amount": 500, "username": "ghost",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "No user found with username: ghost", errorMessage(t, rec))
}

func TestUserEndpoints(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)
	registerAlice(t, s)

	t.Run("duplicate registration", func(t *testing.T) {
		rec := s.do(t, http.MethodPost, "/users", "", map[string]string{"username": "alice"})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "Username already exists!", errorMessage(t, rec))
	})

	t.Run("blank password", func(t *testing.T) {
		rec := s.do(t, http.MethodPost, "/users", "", map[string]string{
			"firstName": "B", "lastName": "C", "username": "bob", "password": " ",
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "Password cannot be empty!", errorMessage(t, rec))
	})

	t.Run("malformed body", func(t *testing.T) {
		rec := s.do(t, http.MethodPost, "/users", "", `{"username":`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "Invalid request format", errorMessage(t, rec))
	})

	t.Run("lookup by username", func(t *testing.T) {
		rec := s.do(t, http.MethodGet, "/users/username/alice", "", nil)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "alice", decode[map[string]any](t, rec)["username"])

		rec = s.do(t, http.MethodGet, "/users/username/nobody", "", nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "No user found with username: nobody", errorMessage(t, rec))
	})

	t.Run("search strips the first character", func(t *testing.T) {
		rec := s.do(t, http.MethodGet, "/users/search/@al", "", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		found := decode[[]map[string]any](t, rec)
		require.Len(t, found, 1)
		assert.Equal(t, "alice", found[0]["username"])

		rec = s.do(t, http.MethodGet, "/users/search/xal", "", nil)
		assert.Equal(t, http.StatusOK, rec.Code)

		rec = s.do(t, http.MethodGet, "/users/search/al", "", nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)

		rec = s.do(t, http.MethodGet, "/users/search/@", "", nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "Please search for a valid username!", errorMessage(t, rec))
	})

	t.Run("list requires admin", func(t *testing.T) {
		assert.Equal(t, http.StatusForbidden, s.do(t, http.MethodGet, "/users", "", nil).Code)
		assert.Equal(t, http.StatusForbidden, s.do(t, http.MethodGet, "/users", userToken, nil).Code)
		assert.Equal(t, http.StatusUnauthorized, s.do(t, http.MethodGet, "/users", "forged", nil).Code)

		rec := s.do(t, http.MethodGet, "/users", adminToken, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Len(t, decode[[]map[string]any](t, rec), 1)
	})
}

func TestDeleteUserEndpoint(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)
	registerAlice(t, s)
	rec := s.do(t, http.MethodPost, "/reimbursements", "", map[string]any{
		"description": "lunch", "amount": 500, "username": "alice",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = s.do(t, http.MethodDelete, "/users?userid=1", userToken, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(t, http.MethodDelete, "/users?userid=abc", adminToken, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodDelete, "/users", adminToken, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodDelete, "/users?userid=99", adminToken, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "No user found with id: 99", errorMessage(t, rec))

	rec = s.do(t, http.MethodDelete, "/users?userid=1", adminToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "alice", decode[map[string]any](t, rec)["username"])

	rec = s.do(t, http.MethodGet, "/reimbursements/all/false", adminToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "[]", strings.TrimSpace(rec.Body.String()))
}

func TestReimbursementEndpoints(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)
	registerAlice(t, s)

	for _, body := range []map[string]any{
		{"description": "lunch", "amount": 500, "username": "alice"},
		{"description": "taxi", "amount": 250, "username": "alice"},
	} {
		require.Equal(t, http.StatusCreated, s.do(t, http.MethodPost, "/reimbursements", "", body).Code)
	}

	t.Run("invalid amount", func(t *testing.T) {
		rec := s.do(t, http.MethodPost, "/reimbursements", "", map[string]any{
			"description": "lunch", "amount": 0, "username": "alice",
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code)

		rec = s.do(t, http.MethodPost, "/reimbursements", "", map[string]any{
			"description": "yacht", "amount": int64(9223372036854775807), "username": "alice",
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "Amount cannot exceed 2147483647!", errorMessage(t, rec))
	})

	t.Run("resolve", func(t *testing.T) {
		rec := s.do(t, http.MethodPut, "/reimbursements", userToken, map[string]any{"reimbursementId": 1, "status": "approved"})
		assert.Equal(t, http.StatusForbidden, rec.Code)

		rec = s.do(t, http.MethodPut, "/reimbursements", adminToken, map[string]any{"reimbursementId": 1, "status": "paid"})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "Invalid status", errorMessage(t, rec))

		rec = s.do(t, http.MethodPut, "/reimbursements", adminToken, map[string]any{"reimbursementId": 0, "status": "approved"})
		assert.Equal(t, http.StatusBadRequest, rec.Code)

		rec = s.do(t, http.MethodPut, "/reimbursements", adminToken, map[string]any{"reimbursementId": 77, "status": "approved"})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "No reimbursement found with id: 77", errorMessage(t, rec))

		rec = s.do(t, http.MethodPut, "/reimbursements", adminToken, map[string]any{"reimbursementId": 1, "status": "denied"})
		assert.Equal(t, http.StatusOK, rec.Code)

		rec = s.do(t, http.MethodPut, "/reimbursements", adminToken, map[string]any{"reimbursementId": 1, "status": "approved"})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Equal(t, domain.StatusApproved, decode[domain.Reimbursement](t, rec).Status)

		rec = s.do(t, http.MethodPut, "/reimbursements", adminToken, map[string]any{"reimbursementId": 1, "status": "denied"})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Equal(t, domain.StatusDenied, decode[domain.Reimbursement](t, rec).Status)
	})

	t.Run("list all", func(t *testing.T) {
		assert.Equal(t, http.StatusForbidden, s.do(t, http.MethodGet, "/reimbursements/all/true", userToken, nil).Code)
		assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodGet, "/reimbursements/all/maybe", adminToken, nil).Code)

		rec := s.do(t, http.MethodGet, "/reimbursements/all/true", adminToken, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Len(t, decode[[]domain.Reimbursement](t, rec), 1)

		rec = s.do(t, http.MethodGet, "/reimbursements/all/false", adminToken, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Len(t, decode[[]domain.Reimbursement](t, rec), 2)
	})

	t.Run("list for user", func(t *testing.T) {
		rec := s.do(t, http.MethodGet, "/reimbursements/user/true/alice", "", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		pending := decode[[]domain.Reimbursement](t, rec)
		require.Len(t, pending, 1)
		assert.Equal(t, "taxi", pending[0].Description)

		rec = s.do(t, http.MethodGet, "/reimbursements/user/false/alice", "", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Len(t, decode[[]domain.Reimbursement](t, rec), 2)

		rec = s.do(t, http.MethodGet, "/reimbursements/user/false/ghost", "", nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)

		rec = s.do(t, http.MethodGet, "/reimbursements/amount/ghost", "", nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestLoginEndpoint(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)
	registerAlice(t, s)

	rec := s.do(t, http.MethodPost, "/auth/login", "", map[string]string{"username": "alice", "password": "pw1"})
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[api.LoginResponse](t, rec)
	assert.Equal(t, "token-for-alice", resp.Token)
	assert.Equal(t, int64(1), resp.UserID)
	assert.Equal(t, domain.RoleDefault, resp.Role)

	rec = s.do(t, http.MethodPost, "/auth/login", "", map[string]string{"username": "alice", "password": "nope"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Invalid username or password", errorMessage(t, rec))

	rec = s.do(t, http.MethodPost, "/auth/login", "", map[string]string{"username": "", "password": "x"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPost, "/auth/login", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Request body is required", errorMessage(t, rec))

	assert.Equal(t, 1, s.logins.ok)
	assert.Equal(t, 2, s.logins.failed)
}
