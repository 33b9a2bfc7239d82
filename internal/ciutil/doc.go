// Package ciutil detects CI environments and resolves the database URL used
// by integration tests, masking credentials whenever a URL is logged.
package ciutil
