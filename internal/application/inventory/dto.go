package inventory

import (
	"time"

	"github.com/StoneFind22/CineMan/internal/domain/catalog"
	"github.com/StoneFind22/CineMan/internal/domain/inventory"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InventoryItemResponse represents an inventory item in API responses
type InventoryItemResponse struct {
	ID                  uuid.UUID       `json:"id"`
	Name                string          `json:"name"`
	Unit                string          `json:"unit"`
	CurrentStock        decimal.Decimal `json:"current_stock"`
	ReorderPoint        decimal.Decimal `json:"reorder_point"`
	CostPerUnit         decimal.Decimal `json:"cost_per_unit"`
	StockValue          decimal.Decimal `json:"stock_value"`
	IsBelowReorderPoint bool            `json:"is_below_reorder_point"`
	CreatedAt           time.Time       `json:"created_at"`
	UpdatedAt           time.Time       `json:"updated_at"`
	Version             int             `json:"version"`
}

// ItemListFilter represents filter options for the stock list
type ItemListFilter struct {
	Search       string `form:"search"`
	BelowReorder bool   `form:"below_reorder"`
	Page         int    `form:"page" binding:"omitempty,min=1"`
	PageSize     int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy      string `form:"order_by"`
	OrderDir     string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// CreateItemRequest represents a request to register an inventory item
type CreateItemRequest struct {
	Name         string           `json:"name" binding:"required,max=255"`
	Unit         string           `json:"unit" binding:"required,max=20"`
	InitialStock decimal.Decimal  `json:"initial_stock"`
	ReorderPoint *decimal.Decimal `json:"reorder_point"`
	CostPerUnit  decimal.Decimal  `json:"cost_per_unit"`
	UserID       *uuid.UUID       `json:"-"`
}

// UpdateItemRequest represents a request to change an item's descriptive fields
type UpdateItemRequest struct {
	Name         string          `json:"name" binding:"required,max=255"`
	Unit         string          `json:"unit" binding:"required,max=20"`
	ReorderPoint decimal.Decimal `json:"reorder_point"`
	CostPerUnit  decimal.Decimal `json:"cost_per_unit"`
	Version      int             `json:"version"` // optional: when set, must match the stored version
}

// RecordMovementRequest represents a manual stock movement
type RecordMovementRequest struct {
	ItemID      uuid.UUID       `json:"-"`
	Delta       decimal.Decimal `json:"quantity"`
	Type        string          `json:"movement_type" binding:"required"`
	ReferenceID string          `json:"reference_id" binding:"max=100"`
	Notes       string          `json:"notes"`
	UserID      *uuid.UUID      `json:"-"`
}

// StockMovementResponse represents a ledger entry in API responses
type StockMovementResponse struct {
	ID              uuid.UUID       `json:"id"`
	InventoryItemID uuid.UUID       `json:"inventory_item_id"`
	Quantity        decimal.Decimal `json:"quantity"`
	MovementType    string          `json:"movement_type"`
	ReferenceID     string          `json:"reference_id,omitempty"`
	UserID          *uuid.UUID      `json:"user_id,omitempty"`
	Notes           string          `json:"notes,omitempty"`
	BalanceAfter    decimal.Decimal `json:"balance_after"`
	CreatedAt       time.Time       `json:"created_at"`
}

// MovementListFilter represents filter options for movement history
type MovementListFilter struct {
	ItemID      *uuid.UUID `form:"-"` // parsed from item_id by the HTTP layer
	From        *time.Time `form:"from" time_format:"2006-01-02T15:04:05Z07:00"`
	To          *time.Time `form:"to" time_format:"2006-01-02T15:04:05Z07:00"`
	Type        string     `form:"type"`
	ReferenceID string     `form:"reference_id"`
	Page        int        `form:"page" binding:"omitempty,min=1"`
	PageSize    int        `form:"page_size" binding:"omitempty,min=1,max=200"`
}

// StockReconciliationResponse compares the cached stock with the ledger sum
type StockReconciliationResponse struct {
	InventoryItemID uuid.UUID       `json:"inventory_item_id"`
	CurrentStock    decimal.Decimal `json:"current_stock"`
	LedgerSum       decimal.Decimal `json:"ledger_sum"`
	Drift           decimal.Decimal `json:"drift"`
	Consistent      bool            `json:"consistent"`
}

// SaleLineItem is one (product, quantity) pair of a sale
type SaleLineItem struct {
	ProductID uuid.UUID       `json:"product_id" binding:"required"`
	Quantity  decimal.Decimal `json:"quantity"`
}

// DeductStockForSaleRequest asks for the consumption of a whole sale
type DeductStockForSaleRequest struct {
	SaleID    string         `json:"-"`
	LineItems []SaleLineItem `json:"line_items" binding:"required,min=1,dive"`
	UserID    *uuid.UUID     `json:"-"`
}

// SaleConsumptionResult is the outcome of a committed sale deduction
type SaleConsumptionResult struct {
	SaleID    string                  `json:"sale_id"`
	Movements []StockMovementResponse `json:"movements"`
	Anomalies []catalog.Anomaly       `json:"anomalies,omitempty"`
	Warnings  []string                `json:"warnings,omitempty"`
}

// ToInventoryItemResponse converts a domain InventoryItem to InventoryItemResponse
func ToInventoryItemResponse(item *inventory.InventoryItem) InventoryItemResponse {
	return InventoryItemResponse{
		ID:                  item.ID,
		Name:                item.Name,
		Unit:                item.Unit,
		CurrentStock:        item.CurrentStock,
		ReorderPoint:        item.ReorderPoint,
		CostPerUnit:         item.CostPerUnit,
		StockValue:          item.CurrentStock.Mul(item.CostPerUnit),
		IsBelowReorderPoint: item.IsBelowReorderPoint(),
		CreatedAt:           item.CreatedAt,
		UpdatedAt:           item.UpdatedAt,
		Version:             item.Version,
	}
}

// ToInventoryItemResponses converts a slice of domain InventoryItems to responses
func ToInventoryItemResponses(items []inventory.InventoryItem) []InventoryItemResponse {
	responses := make([]InventoryItemResponse, len(items))
	for i := range items {
		responses[i] = ToInventoryItemResponse(&items[i])
	}
	return responses
}

// ToStockMovementResponse converts a domain StockMovement to StockMovementResponse
func ToStockMovementResponse(m *inventory.StockMovement) StockMovementResponse {
	return StockMovementResponse{
		ID:              m.ID,
		InventoryItemID: m.InventoryItemID,
		Quantity:        m.Quantity,
		MovementType:    m.MovementType.String(),
		ReferenceID:     m.ReferenceID,
		UserID:          m.UserID,
		Notes:           m.Notes,
		BalanceAfter:    m.BalanceAfter,
		CreatedAt:       m.CreatedAt,
	}
}

// ToStockMovementResponses converts a slice of domain StockMovements to responses
func ToStockMovementResponses(ms []inventory.StockMovement) []StockMovementResponse {
	responses := make([]StockMovementResponse, len(ms))
	for i := range ms {
		responses[i] = ToStockMovementResponse(&ms[i])
	}
	return responses
}
