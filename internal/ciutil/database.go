package ciutil

import (
	"fmt"
	"log/slog"
	"net/url"
	"strings"
)

// Connection defaults applied to test database URLs in CI, matching the
// postgres service container the pipeline starts.
const (
	StandardCIUser     = "postgres"
	StandardCIPassword = "postgres"
	StandardCIPort     = "5432"
	StandardCIDatabase = "reimburse_test"
	StandardCIOptions  = "sslmode=disable"
)

// GetTestDatabaseURL returns the URL integration tests should connect to, or
// "" when none is configured. In CI the URL is normalized to the standard
// credentials, port, database and options.
func GetTestDatabaseURL(logger *slog.Logger) string {
	dbURL := GetEnvWithFallbacks([]string{EnvTestDBURL, EnvDatabaseURL, EnvAppDBURL}, "", logger)
	if dbURL == "" || !IsCI() {
		return dbURL
	}

	standardized, err := StandardizeDatabaseURL(dbURL)
	if err != nil {
		if logger != nil {
			logger.Error("failed to standardize database URL",
				"error", err,
				"url", MaskSensitiveValue(dbURL))
		}
		return dbURL
	}
	return standardized
}

// StandardizeDatabaseURL rewrites a postgres URL to use the CI credentials and
// fills in the port, database name and options when they are missing.
// Non-postgres URLs are returned unchanged.
func StandardizeDatabaseURL(dbURL string) (string, error) {
	u, err := url.Parse(dbURL)
	if err != nil {
		return "", fmt.Errorf("failed to parse database URL: %w", err)
	}
	if u.Scheme != "postgres" && u.Scheme != "postgresql" {
		return dbURL, nil
	}

	u.User = url.UserPassword(StandardCIUser, StandardCIPassword)

	host := u.Hostname()
	if u.Port() == "" && (host == "" || host == "localhost" || host == "127.0.0.1") {
		if host == "" {
			host = "localhost"
		}
		u.Host = host + ":" + StandardCIPort
	}
	if strings.TrimPrefix(u.Path, "/") == "" {
		u.Path = "/" + StandardCIDatabase
	}
	if u.RawQuery == "" {
		u.RawQuery = StandardCIOptions
	}

	return u.String(), nil
}
