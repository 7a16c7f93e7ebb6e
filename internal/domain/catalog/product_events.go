package catalog

import (
	"github.com/StoneFind22/CineMan/internal/domain/shared"
	"github.com/google/uuid"
)

// Aggregate type constant
const AggregateTypeProduct = "Product"

// Event type constants
const (
	EventTypeProductCreated       = "ProductCreated"
	EventTypeProductUpdated       = "ProductUpdated"
	EventTypeProductStatusChanged = "ProductStatusChanged"
	EventTypeRecipeReplaced       = "RecipeReplaced"
)

// ProductCreatedEvent is published when a new product is created
type ProductCreatedEvent struct {
	shared.BaseDomainEvent
	ProductID   uuid.UUID   `json:"product_id"`
	Name        string      `json:"name"`
	ProductType ProductType `json:"product_type"`
	TrackStock  bool        `json:"track_stock"`
}

// NewProductCreatedEvent creates a new ProductCreatedEvent
func NewProductCreatedEvent(product *Product) *ProductCreatedEvent {
	return &ProductCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeProductCreated, AggregateTypeProduct, product.ID),
		ProductID:       product.ID,
		Name:            product.Name,
		ProductType:     product.ProductType,
		TrackStock:      product.TrackStock,
	}
}

// EventType returns the event type name
func (e *ProductCreatedEvent) EventType() string {
	return EventTypeProductCreated
}

// ProductUpdatedEvent is published when a product is updated
type ProductUpdatedEvent struct {
	shared.BaseDomainEvent
	ProductID  uuid.UUID  `json:"product_id"`
	Name       string     `json:"name"`
	CategoryID *uuid.UUID `json:"category_id,omitempty"`
}

// NewProductUpdatedEvent creates a new ProductUpdatedEvent
func NewProductUpdatedEvent(product *Product) *ProductUpdatedEvent {
	return &ProductUpdatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeProductUpdated, AggregateTypeProduct, product.ID),
		ProductID:       product.ID,
		Name:            product.Name,
		CategoryID:      product.CategoryID,
	}
}

// EventType returns the event type name
func (e *ProductUpdatedEvent) EventType() string {
	return EventTypeProductUpdated
}

// ProductStatusChangedEvent is published when a product is activated or deactivated
type ProductStatusChangedEvent struct {
	shared.BaseDomainEvent
	ProductID uuid.UUID `json:"product_id"`
	Name      string    `json:"name"`
	IsActive  bool      `json:"is_active"`
}

// NewProductStatusChangedEvent creates a new ProductStatusChangedEvent
func NewProductStatusChangedEvent(product *Product) *ProductStatusChangedEvent {
	return &ProductStatusChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeProductStatusChanged, AggregateTypeProduct, product.ID),
		ProductID:       product.ID,
		Name:            product.Name,
		IsActive:        product.IsActive,
	}
}

// EventType returns the event type name
func (e *ProductStatusChangedEvent) EventType() string {
	return EventTypeProductStatusChanged
}

// RecipeReplacedEvent is published after a product's recipe is rewritten
type RecipeReplacedEvent struct {
	shared.BaseDomainEvent
	ProductID      uuid.UUID `json:"product_id"`
	ComponentCount int       `json:"component_count"`
}

// NewRecipeReplacedEvent creates a new RecipeReplacedEvent
func NewRecipeReplacedEvent(productID uuid.UUID, componentCount int) *RecipeReplacedEvent {
	return &RecipeReplacedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeRecipeReplaced, AggregateTypeProduct, productID),
		ProductID:       productID,
		ComponentCount:  componentCount,
	}
}

// EventType returns the event type name
func (e *RecipeReplacedEvent) EventType() string {
	return EventTypeRecipeReplaced
}
