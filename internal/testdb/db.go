//go:build integration

package testdb

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/phrazzld/reimburse-api/internal/ciutil"
	"github.com/phrazzld/reimburse-api/internal/config"
	"github.com/phrazzld/reimburse-api/internal/platform/migrations"
	"github.com/phrazzld/reimburse-api/internal/platform/postgres"
)

// TestTimeout bounds connection and migration work done by the helpers.
const TestTimeout = 30 * time.Second

var (
	migrateOnce sync.Once
	migrateErr  error
)

// GetTestDatabaseURL returns the configured test database URL, or "".
func GetTestDatabaseURL() string {
	return ciutil.GetTestDatabaseURL(slog.Default())
}

// ShouldSkipDatabaseTest reports whether no test database is configured.
func ShouldSkipDatabaseTest() bool {
	return GetTestDatabaseURL() == ""
}

// GetTestDB opens a connection pool to the test database and applies all
// migrations the first time it is called in a test binary.
func GetTestDB() (*sql.DB, error) {
	dbURL := GetTestDatabaseURL()
	if dbURL == "" {
		return nil, errors.New("no test database URL configured")
	}

	ctx, cancel := context.WithTimeout(context.Background(), TestTimeout)
	defer cancel()

	db, err := postgres.Open(ctx, config.DatabaseConfig{
		Driver:          config.DriverPostgres,
		URL:             dbURL,
		MaxOpenConns:    10,
		MaxIdleConns:    5,
		ConnMaxLifetime: time.Minute,
	})
	if err != nil {
		return nil, err
	}

	migrateOnce.Do(func() {
		migrateErr = migrations.Up(ctx, db, config.DriverPostgres, slog.Default())
	})
	if migrateErr != nil {
		_ = db.Close()
		return nil, migrateErr
	}

	return db, nil
}

// GetTestDBWithT returns a migrated connection pool that is closed when the
// test finishes. The test is skipped when no database is configured.
func GetTestDBWithT(t *testing.T) *sql.DB {
	t.Helper()

	if ShouldSkipDatabaseTest() {
		t.Skip("no test database URL set - skipping integration test")
	}

	db, err := GetTestDB()
	require.NoError(t, err, "failed to open test database at %s",
		ciutil.MaskSensitiveValue(GetTestDatabaseURL()))

	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Logf("warning: failed to close test database: %v", err)
		}
	})
	return db
}
