package shared

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/phrazzld/reimburse-api/internal/domain"
)

// ContextKey is the type of keys this package stores in request contexts.
type ContextKey string

const (
	// CallerContextKey holds the domain.Caller identified from the bearer token.
	CallerContextKey ContextKey = "caller"

	// TraceIDKey is the key for the trace ID in the request context
	TraceIDKey ContextKey = "traceID"
)

// SetTraceID adds a new trace ID to the context.
// This is useful for correlating logs and error responses.
func SetTraceID(ctx context.Context) context.Context {
	return context.WithValue(ctx, TraceIDKey, newTraceID())
}

// GetTraceID retrieves the trace ID from the context.
// If no trace ID exists, it returns an empty string.
func GetTraceID(ctx context.Context) string {
	traceID, ok := ctx.Value(TraceIDKey).(string)
	if !ok {
		return ""
	}
	return traceID
}

// newTraceID returns a random 32-character hex identifier.
func newTraceID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// WithCaller returns a copy of ctx carrying caller.
func WithCaller(ctx context.Context, caller domain.Caller) context.Context {
	return context.WithValue(ctx, CallerContextKey, caller)
}

// GetCaller returns the caller stored in ctx, or an anonymous caller.
func GetCaller(ctx context.Context) domain.Caller {
	caller, ok := ctx.Value(CallerContextKey).(domain.Caller)
	if !ok {
		return domain.Anonymous()
	}
	return caller
}
