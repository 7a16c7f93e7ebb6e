package inventory

import (
	"unicode/utf8"

	"github.com/StoneFind22/CineMan/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// DefaultReorderPoint is the reorder point given to items created without one
var DefaultReorderPoint = decimal.NewFromInt(10)

// StockScale is the number of decimal places kept for stock quantities.
// It matches the DECIMAL(18,3) columns of inventory_items and stock_movements.
const StockScale int32 = 3

// InventoryItem is a raw, trackable material (popcorn kernels, cups, syrup).
// It is the aggregate root for stock operations: CurrentStock is a cached
// balance that always equals the sum of the item's ledger entries, and it only
// changes through ApplyMovement.
type InventoryItem struct {
	shared.BaseAggregateRoot
	Name         string          `gorm:"type:varchar(255);not null;uniqueIndex:idx_inventory_items_name"`
	Unit         string          `gorm:"type:varchar(20);not null"`
	CurrentStock decimal.Decimal `gorm:"type:decimal(18,3);not null;default:0"`
	ReorderPoint decimal.Decimal `gorm:"type:decimal(18,3);not null;default:10"`
	CostPerUnit  decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
}

// TableName returns the table name for GORM
func (InventoryItem) TableName() string {
	return "inventory_items"
}

// NewInventoryItem creates an inventory item with zero stock.
// Opening stock is recorded afterwards as an INITIAL movement so that the
// ledger accounts for it.
func NewInventoryItem(name, unit string, reorderPoint, costPerUnit decimal.Decimal) (*InventoryItem, error) {
	name = shared.NormalizeName(name)
	if err := validateItemName(name); err != nil {
		return nil, err
	}
	if err := validateItemUnit(unit); err != nil {
		return nil, err
	}
	if err := validateNonNegative("INVALID_REORDER_POINT", "Reorder point", reorderPoint); err != nil {
		return nil, err
	}
	if err := validateNonNegative("INVALID_COST", "Cost per unit", costPerUnit); err != nil {
		return nil, err
	}

	item := &InventoryItem{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Name:              name,
		Unit:              unit,
		CurrentStock:      decimal.Zero,
		ReorderPoint:      reorderPoint,
		CostPerUnit:       costPerUnit,
	}
	item.AddDomainEvent(NewInventoryItemCreatedEvent(item))
	return item, nil
}

// Update changes the descriptive fields of the item. Stock is not touched.
func (i *InventoryItem) Update(name, unit string, reorderPoint, costPerUnit decimal.Decimal) error {
	name = shared.NormalizeName(name)
	if err := validateItemName(name); err != nil {
		return err
	}
	if err := validateItemUnit(unit); err != nil {
		return err
	}
	if err := validateNonNegative("INVALID_REORDER_POINT", "Reorder point", reorderPoint); err != nil {
		return err
	}
	if err := validateNonNegative("INVALID_COST", "Cost per unit", costPerUnit); err != nil {
		return err
	}

	i.Name = name
	i.Unit = unit
	i.ReorderPoint = reorderPoint
	i.CostPerUnit = costPerUnit
	i.MarkChanged()
	return nil
}

// ApplyMovement validates a stock change against the policy, moves the cached
// balance and returns the ledger entry that must be persisted alongside it.
//
// The delta is rounded to StockScale before anything else, and the rounded
// value is the one the ledger records and the balance moves by. A delta that
// rounds to zero is rejected.
func (i *InventoryItem) ApplyMovement(req MovementRequest, policy StockPolicy) (*StockMovement, error) {
	if !req.Delta.IsZero() && req.Delta.Round(StockScale).IsZero() {
		return nil, shared.NewDomainError("INVALID_QUANTITY",
			"Movement quantity "+req.Delta.String()+" for "+i.Name+" is below the smallest stock unit")
	}
	req.Delta = req.Delta.Round(StockScale)
	if err := policy.Check(req.Type, req.Delta); err != nil {
		return nil, err
	}

	before := i.CurrentStock
	after := before.Add(req.Delta)
	if req.Delta.IsNegative() && after.IsNegative() && !policy.AllowNegativeStock {
		return nil, shared.NewDomainError(shared.ErrInsufficientStock.Code,
			"Insufficient stock for "+i.Name+": available "+before.String()+" "+i.Unit+", requested "+req.Delta.Neg().String())
	}

	movement := newStockMovement(i.ID, req, after)

	i.CurrentStock = after
	i.MarkChanged()

	i.AddDomainEvent(NewStockMovementRecordedEvent(i, movement))
	if req.Delta.IsNegative() && after.IsNegative() {
		i.AddDomainEvent(NewNegativeStockDetectedEvent(i, movement))
	}
	if before.GreaterThan(i.ReorderPoint) && !after.GreaterThan(i.ReorderPoint) {
		i.AddDomainEvent(NewStockBelowReorderPointEvent(i))
	}

	return movement, nil
}

// IsBelowReorderPoint reports whether stock is at or below the reorder point
func (i *InventoryItem) IsBelowReorderPoint() bool {
	return i.CurrentStock.LessThanOrEqual(i.ReorderPoint)
}

func validateItemName(name string) error {
	if name == "" {
		return shared.NewDomainError("INVALID_NAME", "Inventory item name cannot be empty")
	}
	if utf8.RuneCountInString(name) > 255 {
		return shared.NewDomainError("INVALID_NAME", "Inventory item name cannot exceed 255 characters")
	}
	return nil
}

func validateItemUnit(unit string) error {
	if unit == "" {
		return shared.NewDomainError("INVALID_UNIT", "Unit cannot be empty")
	}
	if utf8.RuneCountInString(unit) > 20 {
		return shared.NewDomainError("INVALID_UNIT", "Unit cannot exceed 20 characters")
	}
	return nil
}

func validateNonNegative(code, field string, v decimal.Decimal) error {
	if v.IsNegative() {
		return shared.NewDomainError(code, field+" cannot be negative")
	}
	return nil
}
