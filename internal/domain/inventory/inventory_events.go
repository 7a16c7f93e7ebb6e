package inventory

import (
	"github.com/StoneFind22/CineMan/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Aggregate type constants
const (
	AggregateTypeInventoryItem = "InventoryItem"
	AggregateTypeSale          = "Sale"
)

// Event type constants
const (
	EventTypeInventoryItemCreated   = "InventoryItemCreated"
	EventTypeStockMovementRecorded  = "StockMovementRecorded"
	EventTypeStockBelowReorderPoint = "StockBelowReorderPoint"
	EventTypeNegativeStockDetected  = "NegativeStockDetected"
	EventTypeSaleConsumptionApplied = "SaleConsumptionApplied"
)

// InventoryItemCreatedEvent is raised when a new inventory item is registered
type InventoryItemCreatedEvent struct {
	shared.BaseDomainEvent
	InventoryItemID uuid.UUID `json:"inventory_item_id"`
	Name            string    `json:"name"`
	Unit            string    `json:"unit"`
}

// NewInventoryItemCreatedEvent creates a new InventoryItemCreatedEvent
func NewInventoryItemCreatedEvent(item *InventoryItem) *InventoryItemCreatedEvent {
	return &InventoryItemCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeInventoryItemCreated, AggregateTypeInventoryItem, item.ID),
		InventoryItemID: item.ID,
		Name:            item.Name,
		Unit:            item.Unit,
	}
}

// EventType returns the event type name
func (e *InventoryItemCreatedEvent) EventType() string {
	return EventTypeInventoryItemCreated
}

// StockMovementRecordedEvent is raised for every ledger entry
type StockMovementRecordedEvent struct {
	shared.BaseDomainEvent
	InventoryItemID uuid.UUID       `json:"inventory_item_id"`
	MovementID      uuid.UUID       `json:"movement_id"`
	MovementType    MovementType    `json:"movement_type"`
	Quantity        decimal.Decimal `json:"quantity"`
	BalanceAfter    decimal.Decimal `json:"balance_after"`
	ReferenceID     string          `json:"reference_id,omitempty"`
}

// NewStockMovementRecordedEvent creates a new StockMovementRecordedEvent
func NewStockMovementRecordedEvent(item *InventoryItem, m *StockMovement) *StockMovementRecordedEvent {
	return &StockMovementRecordedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeStockMovementRecorded, AggregateTypeInventoryItem, item.ID),
		InventoryItemID: item.ID,
		MovementID:      m.ID,
		MovementType:    m.MovementType,
		Quantity:        m.Quantity,
		BalanceAfter:    m.BalanceAfter,
		ReferenceID:     m.ReferenceID,
	}
}

// EventType returns the event type name
func (e *StockMovementRecordedEvent) EventType() string {
	return EventTypeStockMovementRecorded
}

// StockBelowReorderPointEvent is raised when stock crosses the reorder point downwards
type StockBelowReorderPointEvent struct {
	shared.BaseDomainEvent
	InventoryItemID uuid.UUID       `json:"inventory_item_id"`
	Name            string          `json:"name"`
	CurrentStock    decimal.Decimal `json:"current_stock"`
	ReorderPoint    decimal.Decimal `json:"reorder_point"`
}

// NewStockBelowReorderPointEvent creates a new StockBelowReorderPointEvent
func NewStockBelowReorderPointEvent(item *InventoryItem) *StockBelowReorderPointEvent {
	return &StockBelowReorderPointEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeStockBelowReorderPoint, AggregateTypeInventoryItem, item.ID),
		InventoryItemID: item.ID,
		Name:            item.Name,
		CurrentStock:    item.CurrentStock,
		ReorderPoint:    item.ReorderPoint,
	}
}

// EventType returns the event type name
func (e *StockBelowReorderPointEvent) EventType() string {
	return EventTypeStockBelowReorderPoint
}

// NegativeStockDetectedEvent is raised when a consumption leaves a negative balance.
// It only occurs when the stock policy allows negative stock.
type NegativeStockDetectedEvent struct {
	shared.BaseDomainEvent
	InventoryItemID uuid.UUID       `json:"inventory_item_id"`
	Name            string          `json:"name"`
	Balance         decimal.Decimal `json:"balance"`
	MovementID      uuid.UUID       `json:"movement_id"`
	ReferenceID     string          `json:"reference_id,omitempty"`
}

// NewNegativeStockDetectedEvent creates a new NegativeStockDetectedEvent
func NewNegativeStockDetectedEvent(item *InventoryItem, m *StockMovement) *NegativeStockDetectedEvent {
	return &NegativeStockDetectedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeNegativeStockDetected, AggregateTypeInventoryItem, item.ID),
		InventoryItemID: item.ID,
		Name:            item.Name,
		Balance:         m.BalanceAfter,
		MovementID:      m.ID,
		ReferenceID:     m.ReferenceID,
	}
}

// EventType returns the event type name
func (e *NegativeStockDetectedEvent) EventType() string {
	return EventTypeNegativeStockDetected
}

// SaleConsumptionAppliedEvent is raised once a sale's whole consumption has committed.
// Sales live outside this system, so the aggregate ID is nil and SaleID carries the reference.
type SaleConsumptionAppliedEvent struct {
	shared.BaseDomainEvent
	SaleID        string `json:"sale_id"`
	MovementCount int    `json:"movement_count"`
	AnomalyCount  int    `json:"anomaly_count"`
}

// NewSaleConsumptionAppliedEvent creates a new SaleConsumptionAppliedEvent
func NewSaleConsumptionAppliedEvent(saleID string, movements, anomalies int) *SaleConsumptionAppliedEvent {
	return &SaleConsumptionAppliedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeSaleConsumptionApplied, AggregateTypeSale, uuid.Nil),
		SaleID:          saleID,
		MovementCount:   movements,
		AnomalyCount:    anomalies,
	}
}

// EventType returns the event type name
func (e *SaleConsumptionAppliedEvent) EventType() string {
	return EventTypeSaleConsumptionApplied
}
