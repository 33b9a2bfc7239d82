package events

import (
	"context"
	"log/slog"
)

// AuditLogHandler writes one structured log line per event.
type AuditLogHandler struct {
	logger *slog.Logger
}

// NewAuditLogHandler creates an AuditLogHandler that logs through logger.
func NewAuditLogHandler(logger *slog.Logger) *AuditLogHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuditLogHandler{logger: logger.With("component", "audit")}
}

// HandleEvent implements EventHandler.
func (h *AuditLogHandler) HandleEvent(ctx context.Context, event *Event) error {
	h.logger.InfoContext(ctx, "audit",
		slog.String("event_id", event.ID.String()),
		slog.String("event_type", event.Type),
		slog.Time("occurred_at", event.CreatedAt),
		slog.Any("payload", event.Payload),
	)
	return nil
}
