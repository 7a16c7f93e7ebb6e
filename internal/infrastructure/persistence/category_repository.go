package persistence

import (
	"context"
	"errors"

	"github.com/StoneFind22/CineMan/internal/domain/catalog"
	"github.com/StoneFind22/CineMan/internal/domain/shared"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormCategoryRepository implements CategoryRepository using GORM
type GormCategoryRepository struct {
	db *gorm.DB
}

// NewGormCategoryRepository creates a new GormCategoryRepository
func NewGormCategoryRepository(db *gorm.DB) *GormCategoryRepository {
	return &GormCategoryRepository{db: db}
}

// FindByID finds a category by its ID
func (r *GormCategoryRepository) FindByID(ctx context.Context, id uuid.UUID) (*catalog.Category, error) {
	return first[catalog.Category](r.db.WithContext(ctx), "find category", "id = ?", id)
}

// FindAll finds all categories matching the filter
func (r *GormCategoryRepository) FindAll(ctx context.Context, filter shared.Filter) ([]catalog.Category, error) {
	var categories []catalog.Category
	query := r.applyConditions(r.db.WithContext(ctx).Model(&catalog.Category{}), filter)

	if filter.Page > 0 && filter.PageSize > 0 {
		query = query.Offset(filter.Offset()).Limit(filter.PageSize)
	}
	orderBy := ValidateSortField(filter.OrderBy, CategorySortFields, "name")
	query = query.Order(orderBy + " " + ValidateSortOrder(orderDirOrAsc(filter.OrderBy, filter.OrderDir)))

	if err := query.Find(&categories).Error; err != nil {
		return nil, shared.WrapPersistence("list categories", err)
	}
	return categories, nil
}

// Count counts categories matching the filter
func (r *GormCategoryRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	var count int64
	query := r.applyConditions(r.db.WithContext(ctx).Model(&catalog.Category{}), filter)
	if err := query.Count(&count).Error; err != nil {
		return 0, shared.WrapPersistence("count categories", err)
	}
	return count, nil
}

// ExistsByName checks if a category with the given name exists
func (r *GormCategoryRepository) ExistsByName(ctx context.Context, name string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&catalog.Category{}).
		Where("name = ?", name).
		Count(&count).Error; err != nil {
		return false, shared.WrapPersistence("check category name", err)
	}
	return count > 0, nil
}

// Create inserts a new category
func (r *GormCategoryRepository) Create(ctx context.Context, category *catalog.Category) error {
	if err := r.db.WithContext(ctx).Create(category).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return shared.NewDomainError(shared.ErrAlreadyExists.Code, "Category '"+category.Name+"' already exists")
		}
		return shared.WrapPersistence("create category", err)
	}
	return nil
}

// SaveWithLock saves with optimistic locking (checks version)
func (r *GormCategoryRepository) SaveWithLock(ctx context.Context, category *catalog.Category) error {
	result := r.db.WithContext(ctx).
		Model(&catalog.Category{}).
		Where("id = ? AND version = ?", category.ID, category.Version-1).
		Updates(map[string]any{
			"name":        category.Name,
			"description": category.Description,
			"is_active":   category.IsActive,
			"version":     category.Version,
			"updated_at":  category.UpdatedAt,
		})

	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			return shared.NewDomainError(shared.ErrAlreadyExists.Code, "Category '"+category.Name+"' already exists")
		}
		return shared.WrapPersistence("update category", result.Error)
	}
	if result.RowsAffected == 0 {
		return shared.NewDomainError("OPTIMISTIC_LOCK_FAILED", "Category was modified by another transaction")
	}
	return nil
}

// Delete deletes a category
func (r *GormCategoryRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&catalog.Category{}, "id = ?", id)
	if result.Error != nil {
		return shared.WrapPersistence("delete category", result.Error)
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *GormCategoryRepository) applyConditions(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if filter.Search != "" {
		query = query.Where("LOWER(name) LIKE ?", likePattern(filter.Search))
	}
	if v, ok := filter.Filters["is_active"].(bool); ok {
		query = query.Where("is_active = ?", v)
	}
	return query
}

// Ensure GormCategoryRepository implements CategoryRepository
var _ catalog.CategoryRepository = (*GormCategoryRepository)(nil)
