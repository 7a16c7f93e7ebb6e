package catalog

import (
	"time"

	"github.com/StoneFind22/CineMan/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TargetKind says what a recipe component points at
type TargetKind string

const (
	// TargetInventoryItem is a raw material, a leaf of the recipe graph
	TargetInventoryItem TargetKind = "INVENTORY_ITEM"
	// TargetProduct is another product whose own recipe is expanded
	TargetProduct TargetKind = "PRODUCT"
)

// IsValid returns true if the kind is known
func (k TargetKind) IsValid() bool {
	return k == TargetInventoryItem || k == TargetProduct
}

// ComponentTarget is either a raw inventory item or a child product, never both
type ComponentTarget struct {
	Kind TargetKind
	ID   uuid.UUID
}

// ItemTarget builds a target pointing at an inventory item
func ItemTarget(itemID uuid.UUID) ComponentTarget {
	return ComponentTarget{Kind: TargetInventoryItem, ID: itemID}
}

// ProductTarget builds a target pointing at a child product
func ProductTarget(productID uuid.UUID) ComponentTarget {
	return ComponentTarget{Kind: TargetProduct, ID: productID}
}

// IsItem reports whether the target is a raw inventory item
func (t ComponentTarget) IsItem() bool {
	return t.Kind == TargetInventoryItem
}

// RecipeComponent is one edge of the bill of materials: Quantity units of the
// target are needed per unit of the parent product.
//
// The target is stored as two nullable columns; exactly one is set.
type RecipeComponent struct {
	ID              uuid.UUID       `gorm:"type:uuid;primaryKey"`
	ParentProductID uuid.UUID       `gorm:"type:uuid;not null;index:idx_product_recipes_parent"`
	InventoryItemID *uuid.UUID      `gorm:"type:uuid;index:idx_product_recipes_item"`
	ChildProductID  *uuid.UUID      `gorm:"type:uuid;index:idx_product_recipes_child"`
	Quantity        decimal.Decimal `gorm:"type:decimal(18,3);not null"`
	Position        int             `gorm:"not null;default:0"`
	CreatedAt       time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (RecipeComponent) TableName() string {
	return "product_recipes"
}

// NewRecipeComponent creates a validated component for parentID
func NewRecipeComponent(parentID uuid.UUID, target ComponentTarget, quantity decimal.Decimal) (*RecipeComponent, error) {
	if !target.Kind.IsValid() || target.ID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_COMPONENT", "Component must reference exactly one inventory item or product")
	}
	if !quantity.IsPositive() {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Component quantity must be greater than zero")
	}
	if target.Kind == TargetProduct && target.ID == parentID {
		return nil, shared.NewDomainError("SELF_REFERENCE", "A product cannot be a component of itself")
	}

	c := &RecipeComponent{
		ID:              uuid.New(),
		ParentProductID: parentID,
		Quantity:        quantity,
		CreatedAt:       time.Now(),
	}
	id := target.ID
	if target.IsItem() {
		c.InventoryItemID = &id
	} else {
		c.ChildProductID = &id
	}
	return c, nil
}

// Target decodes the nullable columns back into a ComponentTarget.
// A row with both or neither column set is corrupt and reported as INVALID_COMPONENT.
func (c *RecipeComponent) Target() (ComponentTarget, error) {
	switch {
	case c.InventoryItemID != nil && c.ChildProductID == nil:
		return ItemTarget(*c.InventoryItemID), nil
	case c.ChildProductID != nil && c.InventoryItemID == nil:
		return ProductTarget(*c.ChildProductID), nil
	}
	return ComponentTarget{}, shared.NewDomainError("INVALID_COMPONENT",
		"Recipe component "+c.ID.String()+" must reference exactly one inventory item or product")
}
