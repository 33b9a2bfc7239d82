package main

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

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/reimburse-api/internal/config"
	"github.com/phrazzld/reimburse-api/internal/platform/migrations"
)

func testConfig(driver, url string) *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			Port:            8080,
			LogLevel:        "error",
			ShutdownTimeout: time.Second,
		},
		Database: config.DatabaseConfig{
			Driver: driver,
			URL:    url,
		},
		Auth: config.AuthConfig{
			JWTSecret:            "test-secret-that-is-at-least-32-characters",
			TokenLifetimeMinutes: 5,
			BCryptCost:           4,
		},
	}
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestApp(t *testing.T, driver, url string) *application {
	t.Helper()
	cfg := testConfig(driver, url)
	require.NoError(t, config.Validate(cfg))

	app, err := newApplication(context.Background(), cfg, testLogger())
	require.NoError(t, err)
	t.Cleanup(app.cleanup)
	return app
}

type client struct {
	t      *testing.T
	server *httptest.Server
}

func (c client) do(method, path, token string, body any) (int, []byte) {
	c.t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(c.t, err)
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, c.server.URL+path, reader)
	require.NoError(c.t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.server.Client().Do(req)
	require.NoError(c.t, err)
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	require.NoError(c.t, err)
	return resp.StatusCode, data
}

func (c client) login(username, password string) string {
	c.t.Helper()
	status, body := c.do(http.MethodPost, "/auth/login", "", map[string]string{
		"username": username, "password": password,
	})
	require.Equal(c.t, http.StatusOK, status, string(body))

	var resp struct {
		Token string `json:"token"`
		Role  string `json:"role"`
	}
	require.NoError(c.t, json.Unmarshal(body, &resp))
	require.NotEmpty(c.t, resp.Token)
	return resp.Token
}

// exerciseWorkflow runs the register, submit, approve flow through the full router.
func exerciseWorkflow(t *testing.T, app *application) {
	t.Helper()
	srv := httptest.NewServer(app.setupRouter())
	t.Cleanup(srv.Close)
	c := client{t: t, server: srv}

	status, body := c.do(http.MethodPost, "/users", "", map[string]string{
		"firstName": "Ada", "lastName": "Admin", "username": "boss", "password": "s3cret", "role": "admin",
	})
	require.Equal(t, http.StatusCreated, status, string(body))

	status, body = c.do(http.MethodPost, "/users", "", map[string]string{
		"firstName": "Alice", "lastName": "Liddell", "username": "alice", "password": "pw1", "role": "",
	})
	require.Equal(t, http.StatusCreated, status, string(body))

	adminToken := c.login("boss", "s3cret")
	aliceToken := c.login("alice", "pw1")

	status, body = c.do(http.MethodPost, "/reimbursements", aliceToken, map[string]any{
		"description": "lunch", "amount": 500, "username": "alice",
	})
	require.Equal(t, http.StatusCreated, status, string(body))
	var created struct {
		ID     int64  `json:"reimbursementId"`
		Status string `json:"status"`
	}
	require.NoError(t, json.Unmarshal(body, &created))
	assert.Equal(t, "pending", created.Status)

	status, body = c.do(http.MethodGet, "/reimbursements/amount/alice", "", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "500", strings.TrimSpace(string(body)))

	status, _ = c.do(http.MethodPut, "/reimbursements", aliceToken, map[string]any{
		"reimbursementId": created.ID, "status": "approved",
	})
	assert.Equal(t, http.StatusForbidden, status)

	status, body = c.do(http.MethodPut, "/reimbursements", adminToken, map[string]any{
		"reimbursementId": created.ID, "status": "approved",
	})
	require.Equal(t, http.StatusOK, status, string(body))

	status, body = c.do(http.MethodGet, "/reimbursements/amount/alice", "", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "0", strings.TrimSpace(string(body)))

	status, _ = c.do(http.MethodGet, "/users", "not-a-jwt", nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	status, body = c.do(http.MethodGet, "/users", adminToken, nil)
	require.Equal(t, http.StatusOK, status)
	var users []map[string]any
	require.NoError(t, json.Unmarshal(body, &users))
	assert.Len(t, users, 2)
	assert.NotContains(t, string(body), "pw1")

	status, body = c.do(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "OK", string(body))

	status, body = c.do(http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(body), "reimburse_http_requests_total")
	assert.Contains(t, string(body), `route="/reimbursements/amount/{username}"`)
	assert.Contains(t, string(body), "reimburse_login_attempts_total")
}

func TestApplication_MemoryDriver(t *testing.T) {
	t.Parallel()
	app := newTestApp(t, config.DriverMemory, "")

	assert.Nil(t, app.db)
	err := app.migrate(context.Background(), migrations.CommandUp)
	assert.Error(t, err)

	exerciseWorkflow(t, app)
}

func TestApplication_SQLiteDriver(t *testing.T) {
	t.Parallel()
	app := newTestApp(t, config.DriverSQLite, ":memory:")
	require.NotNil(t, app.db)
	require.NoError(t, app.migrate(context.Background(), migrations.CommandUp))

	exerciseWorkflow(t, app)
}

func TestNewApplication_Errors(t *testing.T) {
	t.Parallel()

	t.Run("unsupported driver", func(t *testing.T) {
		t.Parallel()
		_, err := newApplication(context.Background(), testConfig("oracle", "x"), testLogger())
		assert.ErrorContains(t, err, "unsupported database driver")
	})

	t.Run("short jwt secret", func(t *testing.T) {
		t.Parallel()
		cfg := testConfig(config.DriverMemory, "")
		cfg.Auth.JWTSecret = "short"
		_, err := newApplication(context.Background(), cfg, testLogger())
		assert.Error(t, err)
	})

	t.Run("unknown migration command", func(t *testing.T) {
		t.Parallel()
		app := newTestApp(t, config.DriverSQLite, ":memory:")
		assert.Error(t, app.migrate(context.Background(), "sideways"))
	})
}

func TestServe_ShutsDownOnCancel(t *testing.T) {
	t.Parallel()
	app := newTestApp(t, config.DriverMemory, "")
	app.config.Server.Port = 0

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- app.serve(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
