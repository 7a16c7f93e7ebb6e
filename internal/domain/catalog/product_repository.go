package catalog

import (
	"context"

	"github.com/StoneFind22/CineMan/internal/domain/shared"
	"github.com/google/uuid"
)

// ProductFilter narrows product listings
type ProductFilter struct {
	shared.Filter
	CategoryID  *uuid.UUID
	ProductType ProductType
	IsActive    *bool
}

// ProductRepository defines the interface for product persistence
type ProductRepository interface {
	// FindByID finds a product by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*Product, error)

	// FindByIDs finds several products at once
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]Product, error)

	// FindByName finds a product by exact name
	FindByName(ctx context.Context, name string) (*Product, error)

	// FindAll finds all products matching the filter
	FindAll(ctx context.Context, filter ProductFilter) ([]Product, error)

	// Count counts products matching the filter
	Count(ctx context.Context, filter ProductFilter) (int64, error)

	// ExistsByName checks if a product with the given name exists
	ExistsByName(ctx context.Context, name string) (bool, error)

	// CountByCategory counts products in a specific category
	CountByCategory(ctx context.Context, categoryID uuid.UUID) (int64, error)

	// Create inserts a new product
	Create(ctx context.Context, product *Product) error

	// SaveWithLock saves with optimistic locking (checks version)
	SaveWithLock(ctx context.Context, product *Product) error

	// Delete deletes a product and its own recipe rows
	Delete(ctx context.Context, id uuid.UUID) error
}

// RecipeRepository persists recipe components
type RecipeRepository interface {
	RecipeReader

	// ReplaceForParent deletes every component of parentID and inserts the given ones
	ReplaceForParent(ctx context.Context, parentID uuid.UUID, components []RecipeComponent) error

	// CountByInventoryItem counts components that consume the item
	CountByInventoryItem(ctx context.Context, itemID uuid.UUID) (int64, error)

	// CountByChildProduct counts components that use the product inside another recipe
	CountByChildProduct(ctx context.Context, productID uuid.UUID) (int64, error)
}
