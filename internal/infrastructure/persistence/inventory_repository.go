package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/StoneFind22/CineMan/internal/domain/inventory"
	"github.com/StoneFind22/CineMan/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormInventoryItemRepository implements InventoryItemRepository using GORM
type GormInventoryItemRepository struct {
	db *gorm.DB
}

// NewGormInventoryItemRepository creates a new GormInventoryItemRepository
func NewGormInventoryItemRepository(db *gorm.DB) *GormInventoryItemRepository {
	return &GormInventoryItemRepository{db: db}
}

// FindByID finds an inventory item by its ID
func (r *GormInventoryItemRepository) FindByID(ctx context.Context, id uuid.UUID) (*inventory.InventoryItem, error) {
	return first[inventory.InventoryItem](r.db.WithContext(ctx), "find inventory item", "id = ?", id)
}

// FindByIDForUpdate loads the item with SELECT ... FOR UPDATE. The sqlite
// dialect drops the locking clause.
func (r *GormInventoryItemRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*inventory.InventoryItem, error) {
	query := r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"})
	return first[inventory.InventoryItem](query, "lock inventory item", "id = ?", id)
}

// FindByName finds an item by exact name
func (r *GormInventoryItemRepository) FindByName(ctx context.Context, name string) (*inventory.InventoryItem, error) {
	return first[inventory.InventoryItem](r.db.WithContext(ctx), "find inventory item by name", "name = ?", name)
}

// first loads one row of T, mapping a missing row to shared.ErrNotFound
func first[T any](query *gorm.DB, op string, cond string, args ...any) (*T, error) {
	var row T
	if err := query.Where(cond, args...).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, shared.WrapPersistence(op, err)
	}
	return &row, nil
}

// FindByNames returns the items whose names are in the list, keyed by name
func (r *GormInventoryItemRepository) FindByNames(ctx context.Context, names []string) (map[string]*inventory.InventoryItem, error) {
	found := make(map[string]*inventory.InventoryItem, len(names))
	if len(names) == 0 {
		return found, nil
	}

	var items []inventory.InventoryItem
	if err := r.db.WithContext(ctx).Where("name IN ?", names).Find(&items).Error; err != nil {
		return nil, shared.WrapPersistence("find inventory items by name", err)
	}
	for i := range items {
		found[items[i].Name] = &items[i]
	}
	return found, nil
}

// FindAll finds items matching the filter
func (r *GormInventoryItemRepository) FindAll(ctx context.Context, filter inventory.ItemFilter) ([]inventory.InventoryItem, error) {
	var items []inventory.InventoryItem
	query := r.applyFilter(r.db.WithContext(ctx).Model(&inventory.InventoryItem{}), filter)
	if err := query.Find(&items).Error; err != nil {
		return nil, shared.WrapPersistence("list inventory items", err)
	}
	return items, nil
}

// Count counts items matching the filter
func (r *GormInventoryItemRepository) Count(ctx context.Context, filter inventory.ItemFilter) (int64, error) {
	var count int64
	query := r.applyConditions(r.db.WithContext(ctx).Model(&inventory.InventoryItem{}), filter)
	if err := query.Count(&count).Error; err != nil {
		return 0, shared.WrapPersistence("count inventory items", err)
	}
	return count, nil
}

// ExistsByName checks whether an item with the given name exists
func (r *GormInventoryItemRepository) ExistsByName(ctx context.Context, name string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&inventory.InventoryItem{}).
		Where("name = ?", name).
		Count(&count).Error; err != nil {
		return false, shared.WrapPersistence("check inventory item name", err)
	}
	return count > 0, nil
}

// Create inserts a new item
func (r *GormInventoryItemRepository) Create(ctx context.Context, item *inventory.InventoryItem) error {
	if err := r.db.WithContext(ctx).Create(item).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return shared.NewDomainError(shared.ErrAlreadyExists.Code, "Inventory item '"+item.Name+"' already exists")
		}
		return shared.WrapPersistence("create inventory item", err)
	}
	return nil
}

// SaveWithLock saves the descriptive fields with optimistic locking.
// Stock is never written here; it only moves through ApplyStockDelta.
func (r *GormInventoryItemRepository) SaveWithLock(ctx context.Context, item *inventory.InventoryItem) error {
	result := r.db.WithContext(ctx).
		Model(&inventory.InventoryItem{}).
		Where("id = ? AND version = ?", item.ID, item.Version-1).
		Updates(map[string]any{
			"name":          item.Name,
			"unit":          item.Unit,
			"reorder_point": item.ReorderPoint,
			"cost_per_unit": item.CostPerUnit,
			"version":       item.Version,
			"updated_at":    item.UpdatedAt,
		})

	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			return shared.NewDomainError(shared.ErrAlreadyExists.Code, "Inventory item '"+item.Name+"' already exists")
		}
		return shared.WrapPersistence("update inventory item", result.Error)
	}
	if result.RowsAffected == 0 {
		return shared.NewDomainError("OPTIMISTIC_LOCK_FAILED", "Inventory item was modified by another transaction")
	}
	return nil
}

// ApplyStockDelta moves current_stock with an in-database increment so
// concurrent writers never lose an update. Deltas arrive already rounded to
// inventory.StockScale; the ROUND only strips the floating point noise of
// sqlite's arithmetic and is exact on postgres.
func (r *GormInventoryItemRepository) ApplyStockDelta(ctx context.Context, id uuid.UUID, delta decimal.Decimal) error {
	result := r.db.WithContext(ctx).
		Model(&inventory.InventoryItem{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"current_stock": gorm.Expr("ROUND(current_stock + ?, 3)", delta.Round(inventory.StockScale)),
			"version":       gorm.Expr("version + 1"),
			"updated_at":    time.Now(),
		})
	if result.Error != nil {
		return shared.WrapPersistence("apply stock delta", result.Error)
	}
	if result.RowsAffected == 0 {
		return shared.NotFound("Inventory item %s not found", id)
	}
	return nil
}

// Delete deletes an item
func (r *GormInventoryItemRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&inventory.InventoryItem{}, "id = ?", id)
	if result.Error != nil {
		return shared.WrapPersistence("delete inventory item", result.Error)
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// applyFilter applies conditions, ordering and pagination
func (r *GormInventoryItemRepository) applyFilter(query *gorm.DB, filter inventory.ItemFilter) *gorm.DB {
	query = r.applyConditions(query, filter)

	if filter.Page > 0 && filter.PageSize > 0 {
		query = query.Offset(filter.Offset()).Limit(filter.PageSize)
	}

	orderBy := ValidateSortField(filter.OrderBy, InventoryItemSortFields, "name")
	return query.Order(orderBy + " " + ValidateSortOrder(orderDirOrAsc(filter.OrderBy, filter.OrderDir)))
}

// applyConditions applies the WHERE part of the filter
func (r *GormInventoryItemRepository) applyConditions(query *gorm.DB, filter inventory.ItemFilter) *gorm.DB {
	if filter.Search != "" {
		query = query.Where("LOWER(name) LIKE ?", likePattern(filter.Search))
	}
	if filter.BelowReorder {
		query = query.Where("current_stock <= reorder_point")
	}
	if filter.Negative {
		query = query.Where("current_stock < 0")
	}
	return query
}

// Ensure GormInventoryItemRepository implements InventoryItemRepository
var _ inventory.InventoryItemRepository = (*GormInventoryItemRepository)(nil)
