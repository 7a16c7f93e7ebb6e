package catalog

import (
	"time"

	"github.com/StoneFind22/CineMan/internal/domain/catalog"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CreateProductRequest represents a request to create a new product
type CreateProductRequest struct {
	Name        string          `json:"name" binding:"required,min=1,max=200"`
	Description string          `json:"description" binding:"max=2000"`
	CategoryID  *uuid.UUID      `json:"category_id"`
	Price       decimal.Decimal `json:"price"`
	ProductType string          `json:"product_type" binding:"omitempty,oneof=SIMPLE COMBO SERVICE simple combo service"`
	TrackStock  *bool           `json:"track_stock"`
	ImageURL    string          `json:"image_url" binding:"max=500"`
}

// UpdateProductRequest represents a request to update a product.
// Nil fields are left unchanged.
type UpdateProductRequest struct {
	Name        *string          `json:"name" binding:"omitempty,min=1,max=200"`
	Description *string          `json:"description" binding:"omitempty,max=2000"`
	CategoryID  *uuid.UUID       `json:"category_id"`
	Price       *decimal.Decimal `json:"price"`
	ProductType *string          `json:"product_type"`
	TrackStock  *bool            `json:"track_stock"`
	ImageURL    *string          `json:"image_url" binding:"omitempty,max=500"`
}

// ProductResponse represents a product in API responses
type ProductResponse struct {
	ID          uuid.UUID       `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	CategoryID  *uuid.UUID      `json:"category_id"`
	Price       decimal.Decimal `json:"price"`
	ProductType string          `json:"product_type"`
	TrackStock  bool            `json:"track_stock"`
	ImageURL    string          `json:"image_url,omitempty"`
	IsActive    bool            `json:"is_active"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
	Version     int             `json:"version"`
}

// ProductListFilter represents filter options for product list
type ProductListFilter struct {
	Search      string     `form:"search"`
	CategoryID  *uuid.UUID `form:"-"` // parsed from category_id by the HTTP layer
	ProductType string     `form:"product_type"`
	IsActive    *bool      `form:"is_active"`
	Page        int        `form:"page" binding:"omitempty,min=1"`
	PageSize    int        `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy     string     `form:"order_by"`
	OrderDir    string     `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// RecipeComponentInput is one line of a recipe rewrite.
// Exactly one of InventoryItemID and ChildProductID must be set.
type RecipeComponentInput struct {
	InventoryItemID *uuid.UUID      `json:"inventory_item_id"`
	ChildProductID  *uuid.UUID      `json:"child_product_id"`
	Quantity        decimal.Decimal `json:"quantity"`
}

// ReplaceRecipeRequest replaces a product's recipe
type ReplaceRecipeRequest struct {
	Components []RecipeComponentInput `json:"components" binding:"dive"`
}

// RecipeComponentResponse represents a recipe line in API responses
type RecipeComponentResponse struct {
	ID              uuid.UUID       `json:"id"`
	ParentProductID uuid.UUID       `json:"parent_product_id"`
	Kind            string          `json:"kind"`
	InventoryItemID *uuid.UUID      `json:"inventory_item_id,omitempty"`
	ChildProductID  *uuid.UUID      `json:"child_product_id,omitempty"`
	Quantity        decimal.Decimal `json:"quantity"`
	Position        int             `json:"position"`
}

// CreateCategoryRequest represents a request to create a category
type CreateCategoryRequest struct {
	Name        string `json:"name" binding:"required,min=1,max=100"`
	Description string `json:"description" binding:"max=2000"`
}

// UpdateCategoryRequest represents a request to update a category
type UpdateCategoryRequest struct {
	Name        string `json:"name" binding:"required,min=1,max=100"`
	Description string `json:"description" binding:"max=2000"`
	IsActive    *bool  `json:"is_active"`
}

// CategoryListFilter represents filter options for category list
type CategoryListFilter struct {
	Search   string `form:"search"`
	IsActive *bool  `form:"is_active"`
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// CategoryResponse represents a category in API responses
type CategoryResponse struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	Version     int       `json:"version"`
}

// ToProductResponse converts a domain Product to ProductResponse
func ToProductResponse(p *catalog.Product) ProductResponse {
	return ProductResponse{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		CategoryID:  p.CategoryID,
		Price:       p.Price,
		ProductType: p.ProductType.String(),
		TrackStock:  p.TrackStock,
		ImageURL:    p.ImageURL,
		IsActive:    p.IsActive,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
		Version:     p.Version,
	}
}

// ToProductResponses converts a slice of domain Products to ProductResponses
func ToProductResponses(products []catalog.Product) []ProductResponse {
	responses := make([]ProductResponse, len(products))
	for i := range products {
		responses[i] = ToProductResponse(&products[i])
	}
	return responses
}

// ToRecipeComponentResponses converts recipe rows to responses
func ToRecipeComponentResponses(components []catalog.RecipeComponent) []RecipeComponentResponse {
	responses := make([]RecipeComponentResponse, len(components))
	for i, c := range components {
		kind := catalog.TargetInventoryItem
		if c.ChildProductID != nil {
			kind = catalog.TargetProduct
		}
		responses[i] = RecipeComponentResponse{
			ID:              c.ID,
			ParentProductID: c.ParentProductID,
			Kind:            string(kind),
			InventoryItemID: c.InventoryItemID,
			ChildProductID:  c.ChildProductID,
			Quantity:        c.Quantity,
			Position:        c.Position,
		}
	}
	return responses
}

// ToCategoryResponse converts a domain Category to CategoryResponse
func ToCategoryResponse(c *catalog.Category) CategoryResponse {
	return CategoryResponse{
		ID:          c.ID,
		Name:        c.Name,
		Description: c.Description,
		IsActive:    c.IsActive,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
		Version:     c.Version,
	}
}
