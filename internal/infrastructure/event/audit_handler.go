package event

import (
	"context"

	"github.com/StoneFind22/CineMan/internal/domain/shared"
	"go.uber.org/zap"
)

// AuditLogHandler writes one structured log line per domain event. Subscribed
// without event types it receives everything the bus publishes.
type AuditLogHandler struct {
	logger *zap.Logger
}

// NewAuditLogHandler creates a new AuditLogHandler
func NewAuditLogHandler(logger *zap.Logger) *AuditLogHandler {
	return &AuditLogHandler{logger: logger.Named("events")}
}

// EventTypes returns nil: every event
func (h *AuditLogHandler) EventTypes() []string {
	return nil
}

// Handle logs the event envelope together with the event payload
func (h *AuditLogHandler) Handle(_ context.Context, event shared.DomainEvent) error {
	h.logger.Info("domain event",
		zap.String("event_type", event.EventType()),
		zap.String("event_id", event.EventID().String()),
		zap.String("aggregate_type", event.AggregateType()),
		zap.String("aggregate_id", event.AggregateID().String()),
		zap.Time("occurred_at", event.OccurredAt()),
		zap.Any("payload", event),
	)
	return nil
}

var _ shared.EventHandler = (*AuditLogHandler)(nil)
