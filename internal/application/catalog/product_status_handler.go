package catalog

import (
	"context"
	"fmt"

	"github.com/StoneFind22/CineMan/internal/domain/catalog"
	"github.com/StoneFind22/CineMan/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ChildUsageCounter reports how many recipe lines use a product as a component
type ChildUsageCounter interface {
	CountByChildProduct(ctx context.Context, productID uuid.UUID) (int64, error)
}

// ProductStatusHandler handles ProductStatusChangedEvent.
// A deactivated product that is still a component of other recipes keeps
// being consumed when those combos sell, so it is reported.
type ProductStatusHandler struct {
	logger *zap.Logger
	usage  ChildUsageCounter
}

// NewProductStatusHandler creates a new handler for product status events
func NewProductStatusHandler(logger *zap.Logger, usage ChildUsageCounter) *ProductStatusHandler {
	return &ProductStatusHandler{
		logger: logger,
		usage:  usage,
	}
}

// EventTypes returns the event types this handler is interested in
func (h *ProductStatusHandler) EventTypes() []string {
	return []string{catalog.EventTypeProductStatusChanged}
}

// Handle processes a ProductStatusChangedEvent
func (h *ProductStatusHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	statusEvent, ok := event.(*catalog.ProductStatusChangedEvent)
	if !ok {
		h.logger.Error("unexpected event type",
			zap.String("expected", catalog.EventTypeProductStatusChanged),
			zap.String("actual", event.EventType()),
		)
		return fmt.Errorf("unexpected event type: expected %s, got %s",
			catalog.EventTypeProductStatusChanged, event.EventType())
	}

	if statusEvent.IsActive {
		h.logger.Info("product activated",
			zap.String("product_id", statusEvent.ProductID.String()),
			zap.String("name", statusEvent.Name),
		)
		return nil
	}

	uses, err := h.usage.CountByChildProduct(ctx, statusEvent.ProductID)
	if err != nil {
		return err
	}
	if uses > 0 {
		h.logger.Warn("deactivated product is still a recipe component",
			zap.String("product_id", statusEvent.ProductID.String()),
			zap.String("name", statusEvent.Name),
			zap.Int64("recipe_lines", uses),
		)
		return nil
	}
	h.logger.Info("product deactivated",
		zap.String("product_id", statusEvent.ProductID.String()),
		zap.String("name", statusEvent.Name),
	)
	return nil
}

// Ensure ProductStatusHandler implements shared.EventHandler
var _ shared.EventHandler = (*ProductStatusHandler)(nil)
