package inventory

import (
	"strings"
	"time"

	"github.com/StoneFind22/CineMan/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MovementType classifies a ledger entry
type MovementType string

const (
	// MovementTypeSale is a consumption caused by selling a product
	MovementTypeSale MovementType = "SALE"
	// MovementTypeRestock is stock received
	MovementTypeRestock MovementType = "RESTOCK"
	// MovementTypeAdjustment is a free-form audit correction of either sign
	MovementTypeAdjustment MovementType = "ADJUSTMENT"
	// MovementTypeLoss is spoilage, breakage or theft
	MovementTypeLoss MovementType = "LOSS"
	// MovementTypeInitial is the opening balance of an item
	MovementTypeInitial MovementType = "INITIAL"
)

// AllMovementTypes lists the movement types in display order
var AllMovementTypes = []MovementType{
	MovementTypeSale,
	MovementTypeRestock,
	MovementTypeAdjustment,
	MovementTypeLoss,
	MovementTypeInitial,
}

// String returns the string representation of MovementType
func (t MovementType) String() string {
	return string(t)
}

// IsValid returns true if the movement type is known
func (t MovementType) IsValid() bool {
	switch t {
	case MovementTypeSale,
		MovementTypeRestock,
		MovementTypeAdjustment,
		MovementTypeLoss,
		MovementTypeInitial:
		return true
	}
	return false
}

// ExpectedSign returns +1 for types that add stock, -1 for types that remove
// it and 0 when either sign is acceptable.
func (t MovementType) ExpectedSign() int {
	switch t {
	case MovementTypeRestock, MovementTypeInitial:
		return 1
	case MovementTypeLoss, MovementTypeSale:
		return -1
	}
	return 0
}

// ParseMovementType parses a movement type case-insensitively
func ParseMovementType(s string) (MovementType, error) {
	t := MovementType(strings.ToUpper(strings.TrimSpace(s)))
	if !t.IsValid() {
		return "", shared.NewDomainError("INVALID_MOVEMENT_TYPE", "Unknown movement type: "+s)
	}
	return t, nil
}

// MovementRequest describes a stock change before it is applied to an item
type MovementRequest struct {
	Delta       decimal.Decimal
	Type        MovementType
	ReferenceID string
	UserID      *uuid.UUID
	Notes       string
}

// StockMovement is an immutable ledger (kardex) entry.
// Corrections are made with new movements, never by editing old ones.
type StockMovement struct {
	ID              uuid.UUID       `gorm:"type:uuid;primaryKey"`
	InventoryItemID uuid.UUID       `gorm:"type:uuid;not null;index:idx_stock_movements_item_time,priority:1"`
	Quantity        decimal.Decimal `gorm:"type:decimal(18,3);not null"` // signed: negative consumes, positive replenishes
	MovementType    MovementType    `gorm:"type:varchar(20);not null;index:idx_stock_movements_type"`
	ReferenceID     string          `gorm:"type:varchar(100);index:idx_stock_movements_reference"`
	UserID          *uuid.UUID      `gorm:"type:uuid"`
	Notes           string          `gorm:"type:text"`
	BalanceAfter    decimal.Decimal `gorm:"type:decimal(18,3);not null"`
	CreatedAt       time.Time       `gorm:"not null;index:idx_stock_movements_item_time,priority:2"`
}

// TableName returns the table name for GORM
func (StockMovement) TableName() string {
	return "stock_movements"
}

func newStockMovement(itemID uuid.UUID, req MovementRequest, balanceAfter decimal.Decimal) *StockMovement {
	return &StockMovement{
		ID:              uuid.New(),
		InventoryItemID: itemID,
		Quantity:        req.Delta,
		MovementType:    req.Type,
		ReferenceID:     strings.TrimSpace(req.ReferenceID),
		UserID:          req.UserID,
		Notes:           req.Notes,
		BalanceAfter:    balanceAfter,
		CreatedAt:       time.Now(),
	}
}

// IsConsumption reports whether the movement removed stock
func (m *StockMovement) IsConsumption() bool {
	return m.Quantity.IsNegative()
}
