package ciutil

import (
	"log/slog"
	"net/url"
	"os"
)

// Environment variables read by this package.
const (
	EnvCI            = "CI"
	EnvGitHubActions = "GITHUB_ACTIONS"
	EnvGitLabCI      = "GITLAB_CI"
	EnvJenkinsURL    = "JENKINS_URL"
	EnvCircleCI      = "CIRCLECI"

	// Database connection environment variables, in lookup order.
	EnvTestDBURL   = "REIMBURSE_TEST_DB_URL"
	EnvDatabaseURL = "DATABASE_URL"
	EnvAppDBURL    = "REIMBURSE_DATABASE_URL"
)

// IsCI returns true if the current environment is a CI environment.
func IsCI() bool {
	for _, v := range []string{EnvCI, EnvGitHubActions, EnvGitLabCI, EnvJenkinsURL, EnvCircleCI} {
		if os.Getenv(v) != "" {
			return true
		}
	}
	return false
}

// GetEnvWithFallbacks returns the value of the first non-empty environment variable
// from envVars, or defaultValue when none is set. Using anything but the first
// variable is logged as a warning.
func GetEnvWithFallbacks(envVars []string, defaultValue string, logger *slog.Logger) string {
	for i, envVar := range envVars {
		val := os.Getenv(envVar)
		if val == "" {
			continue
		}
		if i > 0 && logger != nil {
			logger.Warn("using fallback environment variable",
				"used_var", envVar,
				"preferred_var", envVars[0],
				"value", MaskSensitiveValue(val))
		}
		return val
	}
	return defaultValue
}

// MaskSensitiveValue hides the password of a URL so it can be logged.
// Values that do not parse as URLs with credentials are returned unchanged.
func MaskSensitiveValue(value string) string {
	u, err := url.Parse(value)
	if err != nil || u.User == nil {
		return value
	}
	if _, ok := u.User.Password(); !ok {
		return value
	}
	return u.Redacted()
}
