package inventory

import (
	"context"
	"time"

	"github.com/StoneFind22/CineMan/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ItemFilter narrows inventory item listings
type ItemFilter struct {
	shared.Filter
	BelowReorder bool
	Negative     bool
}

// MovementFilter narrows ledger listings. Zero values mean "no constraint".
type MovementFilter struct {
	shared.Filter
	InventoryItemID *uuid.UUID
	From            *time.Time
	To              *time.Time
	MovementType    MovementType
	ReferenceID     string
}

// InventoryItemRepository defines the interface for inventory item persistence
type InventoryItemRepository interface {
	// FindByID finds an inventory item by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*InventoryItem, error)

	// FindByIDForUpdate finds an item and locks its row until the surrounding
	// transaction ends (SELECT ... FOR UPDATE where the dialect supports it)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*InventoryItem, error)

	// FindByName finds an item by exact, case-sensitive name
	FindByName(ctx context.Context, name string) (*InventoryItem, error)

	// FindByNames returns the items whose names are in the list, keyed by name
	FindByNames(ctx context.Context, names []string) (map[string]*InventoryItem, error)

	// FindAll finds items matching the filter
	FindAll(ctx context.Context, filter ItemFilter) ([]InventoryItem, error)

	// Count counts items matching the filter
	Count(ctx context.Context, filter ItemFilter) (int64, error)

	// ExistsByName checks whether an item with the given name exists
	ExistsByName(ctx context.Context, name string) (bool, error)

	// Create inserts a new item
	Create(ctx context.Context, item *InventoryItem) error

	// SaveWithLock saves descriptive fields with optimistic locking (checks version)
	SaveWithLock(ctx context.Context, item *InventoryItem) error

	// ApplyStockDelta atomically adds delta to current_stock and bumps the version
	ApplyStockDelta(ctx context.Context, id uuid.UUID, delta decimal.Decimal) error

	// Delete deletes an item
	Delete(ctx context.Context, id uuid.UUID) error
}

// StockMovementRepository is the append-only ledger. It has no update or delete.
type StockMovementRepository interface {
	// Create appends one movement
	Create(ctx context.Context, m *StockMovement) error

	// CreateBatch appends several movements in one statement
	CreateBatch(ctx context.Context, ms []*StockMovement) error

	// FindByID finds a movement by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*StockMovement, error)

	// Find lists movements matching the filter, newest first
	Find(ctx context.Context, filter MovementFilter) ([]StockMovement, error)

	// Count counts movements matching the filter
	Count(ctx context.Context, filter MovementFilter) (int64, error)

	// FindByReference lists every movement tagged with the reference, oldest first
	FindByReference(ctx context.Context, referenceID string) ([]StockMovement, error)

	// ExistsByReference reports whether any movement of the type carries the reference
	ExistsByReference(ctx context.Context, referenceID string, movementType MovementType) (bool, error)

	// SumByItem sums every delta recorded for the item
	SumByItem(ctx context.Context, itemID uuid.UUID) (decimal.Decimal, error)
}
