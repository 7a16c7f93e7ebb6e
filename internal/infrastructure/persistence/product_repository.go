package persistence

import (
	"context"
	"errors"

	"github.com/StoneFind22/CineMan/internal/domain/catalog"
	"github.com/StoneFind22/CineMan/internal/domain/shared"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormProductRepository implements ProductRepository using GORM
type GormProductRepository struct {
	db *gorm.DB
}

// NewGormProductRepository creates a new GormProductRepository
func NewGormProductRepository(db *gorm.DB) *GormProductRepository {
	return &GormProductRepository{db: db}
}

// FindByID finds a product by its ID
func (r *GormProductRepository) FindByID(ctx context.Context, id uuid.UUID) (*catalog.Product, error) {
	return first[catalog.Product](r.db.WithContext(ctx), "find product", "id = ?", id)
}

// FindByIDs finds several products at once
func (r *GormProductRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]catalog.Product, error) {
	if len(ids) == 0 {
		return []catalog.Product{}, nil
	}

	var products []catalog.Product
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&products).Error; err != nil {
		return nil, shared.WrapPersistence("find products", err)
	}
	return products, nil
}

// FindByName finds a product by exact name
func (r *GormProductRepository) FindByName(ctx context.Context, name string) (*catalog.Product, error) {
	return first[catalog.Product](r.db.WithContext(ctx), "find product by name", "name = ?", name)
}

// FindAll finds all products matching the filter
func (r *GormProductRepository) FindAll(ctx context.Context, filter catalog.ProductFilter) ([]catalog.Product, error) {
	var products []catalog.Product
	query := r.applyConditions(r.db.WithContext(ctx).Model(&catalog.Product{}), filter)

	if filter.Page > 0 && filter.PageSize > 0 {
		query = query.Offset(filter.Offset()).Limit(filter.PageSize)
	}
	orderBy := ValidateSortField(filter.OrderBy, ProductSortFields, "name")
	query = query.Order(orderBy + " " + ValidateSortOrder(orderDirOrAsc(filter.OrderBy, filter.OrderDir)))

	if err := query.Find(&products).Error; err != nil {
		return nil, shared.WrapPersistence("list products", err)
	}
	return products, nil
}

// Count counts products matching the filter
func (r *GormProductRepository) Count(ctx context.Context, filter catalog.ProductFilter) (int64, error) {
	var count int64
	query := r.applyConditions(r.db.WithContext(ctx).Model(&catalog.Product{}), filter)
	if err := query.Count(&count).Error; err != nil {
		return 0, shared.WrapPersistence("count products", err)
	}
	return count, nil
}

// ExistsByName checks if a product with the given name exists
func (r *GormProductRepository) ExistsByName(ctx context.Context, name string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&catalog.Product{}).
		Where("name = ?", name).
		Count(&count).Error; err != nil {
		return false, shared.WrapPersistence("check product name", err)
	}
	return count > 0, nil
}

// CountByCategory counts products in a specific category
func (r *GormProductRepository) CountByCategory(ctx context.Context, categoryID uuid.UUID) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&catalog.Product{}).
		Where("category_id = ?", categoryID).
		Count(&count).Error; err != nil {
		return 0, shared.WrapPersistence("count products by category", err)
	}
	return count, nil
}

// Create inserts a new product
func (r *GormProductRepository) Create(ctx context.Context, product *catalog.Product) error {
	if err := r.db.WithContext(ctx).Create(product).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return shared.NewDomainError(shared.ErrAlreadyExists.Code, "Product '"+product.Name+"' already exists")
		}
		return shared.WrapPersistence("create product", err)
	}
	return nil
}

// SaveWithLock saves with optimistic locking (checks version)
func (r *GormProductRepository) SaveWithLock(ctx context.Context, product *catalog.Product) error {
	result := r.db.WithContext(ctx).
		Model(&catalog.Product{}).
		Where("id = ? AND version = ?", product.ID, product.Version-1).
		Updates(map[string]any{
			"name":         product.Name,
			"category_id":  product.CategoryID,
			"description":  product.Description,
			"price":        product.Price,
			"product_type": product.ProductType,
			"track_stock":  product.TrackStock,
			"image_url":    product.ImageURL,
			"is_active":    product.IsActive,
			"version":      product.Version,
			"updated_at":   product.UpdatedAt,
		})

	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			return shared.NewDomainError(shared.ErrAlreadyExists.Code, "Product '"+product.Name+"' already exists")
		}
		return shared.WrapPersistence("update product", result.Error)
	}
	if result.RowsAffected == 0 {
		return shared.NewDomainError("OPTIMISTIC_LOCK_FAILED", "Product was modified by another transaction")
	}
	return nil
}

// Delete deletes a product together with its own recipe rows
func (r *GormProductRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("parent_product_id = ?", id).Delete(&catalog.RecipeComponent{}).Error; err != nil {
			return shared.WrapPersistence("delete product recipe", err)
		}
		result := tx.Delete(&catalog.Product{}, "id = ?", id)
		if result.Error != nil {
			return shared.WrapPersistence("delete product", result.Error)
		}
		if result.RowsAffected == 0 {
			return shared.ErrNotFound
		}
		return nil
	})
}

// applyConditions applies the WHERE part of the filter
func (r *GormProductRepository) applyConditions(query *gorm.DB, filter catalog.ProductFilter) *gorm.DB {
	if filter.Search != "" {
		query = query.Where("LOWER(name) LIKE ?", likePattern(filter.Search))
	}
	if filter.CategoryID != nil {
		query = query.Where("category_id = ?", *filter.CategoryID)
	}
	if filter.ProductType != "" {
		query = query.Where("product_type = ?", filter.ProductType)
	}
	if filter.IsActive != nil {
		query = query.Where("is_active = ?", *filter.IsActive)
	}
	return query
}

// orderDirOrAsc defaults to ascending when no explicit sort field was requested
func orderDirOrAsc(orderBy, orderDir string) string {
	if orderBy == "" {
		return "ASC"
	}
	return orderDir
}

// Ensure GormProductRepository implements ProductRepository
var _ catalog.ProductRepository = (*GormProductRepository)(nil)
