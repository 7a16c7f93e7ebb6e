package catalog

import (
	"unicode/utf8"

	"github.com/StoneFind22/CineMan/internal/domain/shared"
)

// Category groups products on the POS screen (Popcorn, Drinks, Combos)
type Category struct {
	shared.BaseAggregateRoot
	Name        string `gorm:"type:varchar(100);not null;uniqueIndex:idx_product_categories_name"`
	Description string `gorm:"type:text"`
	IsActive    bool   `gorm:"not null"`
}

// TableName returns the table name for GORM
func (Category) TableName() string {
	return "product_categories"
}

// NewCategory creates a new active category
func NewCategory(name, description string) (*Category, error) {
	name = shared.NormalizeName(name)
	if err := validateCategoryName(name); err != nil {
		return nil, err
	}

	category := &Category{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Name:              name,
		Description:       description,
		IsActive:          true,
	}
	category.AddDomainEvent(NewCategoryCreatedEvent(category))
	return category, nil
}

// Update updates the category's name and description
func (c *Category) Update(name, description string) error {
	name = shared.NormalizeName(name)
	if err := validateCategoryName(name); err != nil {
		return err
	}

	c.Name = name
	c.Description = description
	c.MarkChanged()
	return nil
}

// SetActive activates or deactivates the category
func (c *Category) SetActive(active bool) {
	if c.IsActive == active {
		return
	}
	c.IsActive = active
	c.MarkChanged()
}

func validateCategoryName(name string) error {
	if name == "" {
		return shared.NewDomainError("INVALID_NAME", "Category name cannot be empty")
	}
	if utf8.RuneCountInString(name) > 100 {
		return shared.NewDomainError("INVALID_NAME", "Category name cannot exceed 100 characters")
	}
	return nil
}
