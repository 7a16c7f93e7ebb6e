package inventory

import (
	"context"
	"fmt"

	"github.com/StoneFind22/CineMan/internal/domain/inventory"
	"github.com/StoneFind22/CineMan/internal/domain/shared"
	"go.uber.org/zap"
)

// Alert types
const (
	AlertTypeLowStock      = "low_stock"
	AlertTypeOutOfStock    = "out_of_stock"
	AlertTypeNegativeStock = "negative_stock"
)

// StockAlertNotifier is the interface for sending stock alerts.
// Implementations can support different channels (POS banner, email, chat).
type StockAlertNotifier interface {
	// SendAlert sends a stock alert notification
	SendAlert(ctx context.Context, alert StockAlert) error
}

// StockAlert represents a stock level alert
type StockAlert struct {
	InventoryItemID string `json:"inventory_item_id"`
	ItemName        string `json:"item_name"`
	CurrentStock    string `json:"current_stock"`
	ReorderPoint    string `json:"reorder_point,omitempty"`
	ReferenceID     string `json:"reference_id,omitempty"`
	AlertType       string `json:"alert_type"`
}

// StockAlertHandler turns StockBelowReorderPoint and NegativeStockDetected
// events into alerts
type StockAlertHandler struct {
	logger   *zap.Logger
	notifier StockAlertNotifier
}

// NewStockAlertHandler creates a new handler for stock alert events
func NewStockAlertHandler(logger *zap.Logger) *StockAlertHandler {
	return &StockAlertHandler{
		logger: logger,
	}
}

// WithNotifier sets the notifier for sending alerts
func (h *StockAlertHandler) WithNotifier(notifier StockAlertNotifier) *StockAlertHandler {
	h.notifier = notifier
	return h
}

// EventTypes returns the event types this handler is interested in
func (h *StockAlertHandler) EventTypes() []string {
	return []string{
		inventory.EventTypeStockBelowReorderPoint,
		inventory.EventTypeNegativeStockDetected,
	}
}

// Handle processes a stock alert event
func (h *StockAlertHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	var alert StockAlert
	switch e := event.(type) {
	case *inventory.StockBelowReorderPointEvent:
		alert = StockAlert{
			InventoryItemID: e.InventoryItemID.String(),
			ItemName:        e.Name,
			CurrentStock:    e.CurrentStock.String(),
			ReorderPoint:    e.ReorderPoint.String(),
			AlertType:       AlertTypeLowStock,
		}
		if !e.CurrentStock.IsPositive() {
			alert.AlertType = AlertTypeOutOfStock
		}
	case *inventory.NegativeStockDetectedEvent:
		alert = StockAlert{
			InventoryItemID: e.InventoryItemID.String(),
			ItemName:        e.Name,
			CurrentStock:    e.Balance.String(),
			ReferenceID:     e.ReferenceID,
			AlertType:       AlertTypeNegativeStock,
		}
	default:
		h.logger.Error("unexpected event type",
			zap.Strings("expected", h.EventTypes()),
			zap.String("actual", event.EventType()),
		)
		return fmt.Errorf("unexpected event type: %s", event.EventType())
	}

	h.logger.Warn("stock alert",
		zap.String("alert_type", alert.AlertType),
		zap.String("inventory_item_id", alert.InventoryItemID),
		zap.String("item_name", alert.ItemName),
		zap.String("current_stock", alert.CurrentStock),
	)

	if h.notifier != nil {
		if err := h.notifier.SendAlert(ctx, alert); err != nil {
			h.logger.Error("failed to send stock alert notification",
				zap.String("inventory_item_id", alert.InventoryItemID),
				zap.Error(err),
			)
			// notification failure does not fail event handling
		}
	}
	return nil
}

// Ensure StockAlertHandler implements shared.EventHandler
var _ shared.EventHandler = (*StockAlertHandler)(nil)

// LoggingStockAlertNotifier is a notifier that only logs alerts
type LoggingStockAlertNotifier struct {
	logger *zap.Logger
}

// NewLoggingStockAlertNotifier creates a new logging notifier
func NewLoggingStockAlertNotifier(logger *zap.Logger) *LoggingStockAlertNotifier {
	return &LoggingStockAlertNotifier{
		logger: logger,
	}
}

// SendAlert logs the stock alert
func (n *LoggingStockAlertNotifier) SendAlert(_ context.Context, alert StockAlert) error {
	n.logger.Warn("STOCK ALERT",
		zap.String("type", alert.AlertType),
		zap.String("item", alert.ItemName),
		zap.String("current_stock", alert.CurrentStock),
		zap.String("reorder_point", alert.ReorderPoint),
	)
	return nil
}
