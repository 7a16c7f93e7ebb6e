package persistence

import (
	"context"

	"github.com/StoneFind22/CineMan/internal/domain/inventory"
	"github.com/StoneFind22/CineMan/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GormStockMovementRepository implements the append-only ledger using GORM
type GormStockMovementRepository struct {
	db *gorm.DB
}

// NewGormStockMovementRepository creates a new GormStockMovementRepository
func NewGormStockMovementRepository(db *gorm.DB) *GormStockMovementRepository {
	return &GormStockMovementRepository{db: db}
}

// Create appends one movement
func (r *GormStockMovementRepository) Create(ctx context.Context, m *inventory.StockMovement) error {
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return shared.WrapPersistence("insert stock movement", err)
	}
	return nil
}

// CreateBatch appends several movements in one statement
func (r *GormStockMovementRepository) CreateBatch(ctx context.Context, ms []*inventory.StockMovement) error {
	if len(ms) == 0 {
		return nil
	}
	if err := r.db.WithContext(ctx).CreateInBatches(ms, 100).Error; err != nil {
		return shared.WrapPersistence("insert stock movements", err)
	}
	return nil
}

// FindByID finds a movement by its ID
func (r *GormStockMovementRepository) FindByID(ctx context.Context, id uuid.UUID) (*inventory.StockMovement, error) {
	return first[inventory.StockMovement](r.db.WithContext(ctx), "find stock movement", "id = ?", id)
}

// Find lists movements matching the filter, newest first
func (r *GormStockMovementRepository) Find(ctx context.Context, filter inventory.MovementFilter) ([]inventory.StockMovement, error) {
	var movements []inventory.StockMovement
	query := r.applyConditions(r.db.WithContext(ctx).Model(&inventory.StockMovement{}), filter).
		Order("created_at DESC").
		Order("id")

	if filter.Page > 0 && filter.PageSize > 0 {
		query = query.Offset(filter.Offset()).Limit(filter.PageSize)
	}

	if err := query.Find(&movements).Error; err != nil {
		return nil, shared.WrapPersistence("list stock movements", err)
	}
	return movements, nil
}

// Count counts movements matching the filter
func (r *GormStockMovementRepository) Count(ctx context.Context, filter inventory.MovementFilter) (int64, error) {
	var count int64
	query := r.applyConditions(r.db.WithContext(ctx).Model(&inventory.StockMovement{}), filter)
	if err := query.Count(&count).Error; err != nil {
		return 0, shared.WrapPersistence("count stock movements", err)
	}
	return count, nil
}

// FindByReference lists every movement tagged with the reference, oldest first
func (r *GormStockMovementRepository) FindByReference(ctx context.Context, referenceID string) ([]inventory.StockMovement, error) {
	var movements []inventory.StockMovement
	if err := r.db.WithContext(ctx).
		Where("reference_id = ?", referenceID).
		Order("created_at ASC").
		Find(&movements).Error; err != nil {
		return nil, shared.WrapPersistence("list movements by reference", err)
	}
	return movements, nil
}

// ExistsByReference reports whether any movement of the type carries the reference
func (r *GormStockMovementRepository) ExistsByReference(ctx context.Context, referenceID string, movementType inventory.MovementType) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&inventory.StockMovement{}).
		Where("reference_id = ? AND movement_type = ?", referenceID, movementType).
		Limit(1).
		Count(&count).Error; err != nil {
		return false, shared.WrapPersistence("check movement reference", err)
	}
	return count > 0, nil
}

// SumByItem sums every delta recorded for the item. The rows are added in Go
// so the result keeps decimal precision on every dialect.
func (r *GormStockMovementRepository) SumByItem(ctx context.Context, itemID uuid.UUID) (decimal.Decimal, error) {
	var quantities []decimal.Decimal
	if err := r.db.WithContext(ctx).
		Model(&inventory.StockMovement{}).
		Where("inventory_item_id = ?", itemID).
		Pluck("quantity", &quantities).Error; err != nil {
		return decimal.Zero, shared.WrapPersistence("sum stock movements", err)
	}

	total := decimal.Zero
	for _, q := range quantities {
		total = total.Add(q)
	}
	return total, nil
}

// applyConditions applies the WHERE part of the filter
func (r *GormStockMovementRepository) applyConditions(query *gorm.DB, filter inventory.MovementFilter) *gorm.DB {
	if filter.InventoryItemID != nil {
		query = query.Where("inventory_item_id = ?", *filter.InventoryItemID)
	}
	if filter.From != nil {
		query = query.Where("created_at >= ?", *filter.From)
	}
	if filter.To != nil {
		query = query.Where("created_at <= ?", *filter.To)
	}
	if filter.MovementType != "" {
		query = query.Where("movement_type = ?", filter.MovementType)
	}
	if filter.ReferenceID != "" {
		query = query.Where("reference_id = ?", filter.ReferenceID)
	}
	return query
}

// Ensure GormStockMovementRepository implements StockMovementRepository
var _ inventory.StockMovementRepository = (*GormStockMovementRepository)(nil)
