package persistence

import (
	"context"

	"github.com/StoneFind22/CineMan/internal/domain/catalog"
	"github.com/StoneFind22/CineMan/internal/domain/shared"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormRecipeRepository persists product recipe components (table product_recipes)
type GormRecipeRepository struct {
	db *gorm.DB
}

// NewGormRecipeRepository creates a new GormRecipeRepository
func NewGormRecipeRepository(db *gorm.DB) *GormRecipeRepository {
	return &GormRecipeRepository{db: db}
}

// FindByParent loads the direct components of a product in recipe order
func (r *GormRecipeRepository) FindByParent(ctx context.Context, parentID uuid.UUID) ([]catalog.RecipeComponent, error) {
	var components []catalog.RecipeComponent
	if err := r.db.WithContext(ctx).
		Where("parent_product_id = ?", parentID).
		Order("position ASC").
		Order("created_at ASC").
		Find(&components).Error; err != nil {
		return nil, shared.WrapPersistence("load recipe", err)
	}
	return components, nil
}

// ReplaceForParent deletes every component of parentID and inserts the given
// ones. Callers run it inside a transaction.
func (r *GormRecipeRepository) ReplaceForParent(ctx context.Context, parentID uuid.UUID, components []catalog.RecipeComponent) error {
	db := r.db.WithContext(ctx)
	if err := db.Where("parent_product_id = ?", parentID).Delete(&catalog.RecipeComponent{}).Error; err != nil {
		return shared.WrapPersistence("delete recipe", err)
	}
	if len(components) == 0 {
		return nil
	}
	if err := db.Create(&components).Error; err != nil {
		return shared.WrapPersistence("insert recipe", err)
	}
	return nil
}

// CountByInventoryItem counts components that consume the item
func (r *GormRecipeRepository) CountByInventoryItem(ctx context.Context, itemID uuid.UUID) (int64, error) {
	return r.count(ctx, "inventory_item_id = ?", itemID)
}

// CountByChildProduct counts components that use the product inside another recipe
func (r *GormRecipeRepository) CountByChildProduct(ctx context.Context, productID uuid.UUID) (int64, error) {
	return r.count(ctx, "child_product_id = ?", productID)
}

func (r *GormRecipeRepository) count(ctx context.Context, cond string, id uuid.UUID) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&catalog.RecipeComponent{}).
		Where(cond, id).
		Count(&count).Error; err != nil {
		return 0, shared.WrapPersistence("count recipe references", err)
	}
	return count, nil
}

// Ensure GormRecipeRepository implements RecipeRepository
var _ catalog.RecipeRepository = (*GormRecipeRepository)(nil)
