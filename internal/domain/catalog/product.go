package catalog

import (
	"strings"
	"unicode/utf8"

	"github.com/StoneFind22/CineMan/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProductType distinguishes how a product is built
type ProductType string

const (
	// ProductTypeSimple is a single item, usually with a recipe of raw materials
	ProductTypeSimple ProductType = "SIMPLE"
	// ProductTypeCombo is built from other products and optionally raw materials
	ProductTypeCombo ProductType = "COMBO"
	// ProductTypeService has no physical stock (3D glasses rental, gift wrapping)
	ProductTypeService ProductType = "SERVICE"
)

// String returns the string representation of ProductType
func (t ProductType) String() string {
	return string(t)
}

// IsValid returns true if the product type is known
func (t ProductType) IsValid() bool {
	switch t {
	case ProductTypeSimple, ProductTypeCombo, ProductTypeService:
		return true
	}
	return false
}

// ParseProductType parses a product type case-insensitively
func ParseProductType(s string) (ProductType, error) {
	t := ProductType(strings.ToUpper(strings.TrimSpace(s)))
	if !t.IsValid() {
		return "", shared.NewDomainError("INVALID_PRODUCT_TYPE", "Unknown product type: "+s)
	}
	return t, nil
}

// Product is a sellable catalog entry.
// Its recipe is stored separately as RecipeComponent rows keyed by the product ID.
type Product struct {
	shared.BaseAggregateRoot
	Name        string          `gorm:"type:varchar(200);not null;uniqueIndex:idx_products_name"`
	CategoryID  *uuid.UUID      `gorm:"type:uuid;index"`
	Description string          `gorm:"type:text"`
	Price       decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	ProductType ProductType     `gorm:"type:varchar(20);not null;default:'SIMPLE'"`
	TrackStock  bool            `gorm:"not null"` // false: selling never consumes inventory
	ImageURL    string          `gorm:"type:varchar(500)"`
	IsActive    bool            `gorm:"not null"`
}

// TableName returns the table name for GORM
func (Product) TableName() string {
	return "products"
}

// NewProduct creates a new active product.
// SERVICE products never track stock; the others track it by default.
func NewProduct(name string, productType ProductType, price decimal.Decimal) (*Product, error) {
	name = shared.NormalizeName(name)
	if err := validateProductName(name); err != nil {
		return nil, err
	}
	if !productType.IsValid() {
		return nil, shared.NewDomainError("INVALID_PRODUCT_TYPE", "Unknown product type: "+productType.String())
	}
	if err := validatePrice(price); err != nil {
		return nil, err
	}

	product := &Product{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Name:              name,
		Price:             price,
		ProductType:       productType,
		TrackStock:        productType != ProductTypeService,
		IsActive:          true,
	}
	product.AddDomainEvent(NewProductCreatedEvent(product))
	return product, nil
}

// Update updates the product's descriptive information
func (p *Product) Update(name, description, imageURL string) error {
	name = shared.NormalizeName(name)
	if err := validateProductName(name); err != nil {
		return err
	}
	if utf8.RuneCountInString(imageURL) > 500 {
		return shared.NewDomainError("INVALID_IMAGE_URL", "Image URL cannot exceed 500 characters")
	}

	p.Name = name
	p.Description = description
	p.ImageURL = imageURL
	p.MarkChanged()

	p.AddDomainEvent(NewProductUpdatedEvent(p))
	return nil
}

// SetPrice sets the selling price
func (p *Product) SetPrice(price decimal.Decimal) error {
	if err := validatePrice(price); err != nil {
		return err
	}
	p.Price = price
	p.MarkChanged()
	return nil
}

// SetType changes the product type and stock tracking flag together.
// A SERVICE can never track stock.
func (p *Product) SetType(productType ProductType, trackStock bool) error {
	if !productType.IsValid() {
		return shared.NewDomainError("INVALID_PRODUCT_TYPE", "Unknown product type: "+productType.String())
	}
	if productType == ProductTypeService && trackStock {
		return shared.NewDomainError("INVALID_PRODUCT_TYPE", "Service products cannot track stock")
	}
	p.ProductType = productType
	p.TrackStock = trackStock
	p.MarkChanged()
	return nil
}

// SetCategory sets the product category
func (p *Product) SetCategory(categoryID *uuid.UUID) {
	p.CategoryID = categoryID
	p.MarkChanged()
}

// Activate makes the product sellable
func (p *Product) Activate() error {
	if p.IsActive {
		return shared.NewDomainError("ALREADY_ACTIVE", "Product is already active")
	}
	p.IsActive = true
	p.MarkChanged()
	p.AddDomainEvent(NewProductStatusChangedEvent(p))
	return nil
}

// Deactivate hides the product from the POS
func (p *Product) Deactivate() error {
	if !p.IsActive {
		return shared.NewDomainError("ALREADY_INACTIVE", "Product is already inactive")
	}
	p.IsActive = false
	p.MarkChanged()
	p.AddDomainEvent(NewProductStatusChangedEvent(p))
	return nil
}

// validateProductName validates the product name
func validateProductName(name string) error {
	if name == "" {
		return shared.NewDomainError("INVALID_NAME", "Product name cannot be empty")
	}
	if utf8.RuneCountInString(name) > 200 {
		return shared.NewDomainError("INVALID_NAME", "Product name cannot exceed 200 characters")
	}
	return nil
}

func validatePrice(price decimal.Decimal) error {
	if price.IsNegative() {
		return shared.NewDomainError("INVALID_PRICE", "Price cannot be negative")
	}
	return nil
}
