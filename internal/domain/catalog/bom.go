package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/StoneFind22/CineMan/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DefaultMaxRecipeDepth bounds how many product levels a recipe may nest
const DefaultMaxRecipeDepth = 16

// ProductReader loads products for recipe expansion
type ProductReader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Product, error)
}

// RecipeReader loads the direct components of a product
type RecipeReader interface {
	FindByParent(ctx context.Context, parentID uuid.UUID) ([]RecipeComponent, error)
}

// AnomalyKind classifies a data problem found during expansion
type AnomalyKind string

const (
	// AnomalyEmptyRecipe is a stock-tracked product with nothing to deduct
	AnomalyEmptyRecipe AnomalyKind = "EMPTY_RECIPE"
)

// Anomaly is a recipe data problem that does not stop the expansion
type Anomaly struct {
	Kind        AnomalyKind `json:"kind"`
	ProductID   uuid.UUID   `json:"product_id"`
	ProductName string      `json:"product_name"`
	Message     string      `json:"message"`
}

// Consumption is one raw-item delta produced by the expansion.
// Quantity is negative.
type Consumption struct {
	InventoryItemID   uuid.UUID       `json:"inventory_item_id"`
	Quantity          decimal.Decimal `json:"quantity"`
	SourceProductID   uuid.UUID       `json:"source_product_id"`
	SourceProductName string          `json:"source_product_name"`
	Path              []string        `json:"path"`
}

// Resolution is the expansion of one (product, quantity) pair
type Resolution struct {
	ProductID    uuid.UUID       `json:"product_id"`
	Quantity     decimal.Decimal `json:"quantity"`
	Consumptions []Consumption   `json:"consumptions"`
	Anomalies    []Anomaly       `json:"anomalies,omitempty"`
}

// TotalsByItem merges the consumptions per inventory item.
// The consumptions themselves stay separate for the ledger.
func (r *Resolution) TotalsByItem() map[uuid.UUID]decimal.Decimal {
	totals := make(map[uuid.UUID]decimal.Decimal, len(r.Consumptions))
	for _, c := range r.Consumptions {
		totals[c.InventoryItemID] = totals[c.InventoryItemID].Add(c.Quantity)
	}
	return totals
}

// BOMResolver expands sold products into raw inventory consumption by walking
// the recipe graph depth-first.
type BOMResolver struct {
	products ProductReader
	recipes  RecipeReader
	maxDepth int
}

// NewBOMResolver creates a resolver. A maxDepth <= 0 uses DefaultMaxRecipeDepth.
func NewBOMResolver(products ProductReader, recipes RecipeReader, maxDepth int) *BOMResolver {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxRecipeDepth
	}
	return &BOMResolver{products: products, recipes: recipes, maxDepth: maxDepth}
}

// Resolve computes the raw-item deltas needed to sell quantity units of productID.
//
// Products that do not track stock resolve to nothing. A tracked product with
// an empty recipe yields an anomaly and no deltas. Deltas reached through
// different branches are not merged. A product appearing twice on the same
// path is a cycle and fails with BOM_CYCLE_DETECTED; reaching the same child
// through two branches is fine.
func (r *BOMResolver) Resolve(ctx context.Context, productID uuid.UUID, quantity decimal.Decimal) (*Resolution, error) {
	if !quantity.IsPositive() {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Quantity sold must be greater than zero")
	}

	w := &bomWalk{
		resolver:   r,
		products:   make(map[uuid.UUID]*Product),
		components: make(map[uuid.UUID][]RecipeComponent),
		res: &Resolution{
			ProductID:    productID,
			Quantity:     quantity,
			Consumptions: make([]Consumption, 0),
		},
	}
	if err := w.expand(ctx, productID, quantity, nil); err != nil {
		return nil, err
	}
	return w.res, nil
}

// Reaches reports whether target can be reached from start by following
// child-product edges. Used to reject recipe edits that would close a cycle.
func (r *BOMResolver) Reaches(ctx context.Context, start, target uuid.UUID) (bool, error) {
	visited := make(map[uuid.UUID]bool)
	stack := []uuid.UUID{start}
	for len(stack) > 0 {
		current := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if current == target {
			return true, nil
		}
		if visited[current] {
			continue
		}
		visited[current] = true

		components, err := r.recipes.FindByParent(ctx, current)
		if err != nil {
			return false, err
		}
		for i := range components {
			if components[i].ChildProductID != nil {
				stack = append(stack, *components[i].ChildProductID)
			}
		}
	}
	return false, nil
}

type bomWalk struct {
	resolver   *BOMResolver
	products   map[uuid.UUID]*Product
	components map[uuid.UUID][]RecipeComponent
	res        *Resolution
}

type pathNode struct {
	id   uuid.UUID
	name string
}

func (w *bomWalk) expand(ctx context.Context, productID uuid.UUID, quantity decimal.Decimal, path []pathNode) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	product, err := w.product(ctx, productID)
	if err != nil {
		return err
	}

	for _, n := range path {
		if n.id == productID {
			return shared.NewDomainError("BOM_CYCLE_DETECTED",
				fmt.Sprintf("Recipe cycle detected: %s -> %s", pathString(path), product.Name))
		}
	}
	if len(path) >= w.resolver.maxDepth {
		return shared.NewDomainError("BOM_DEPTH_EXCEEDED",
			fmt.Sprintf("Recipe of %s nests deeper than %d levels", path[0].name, w.resolver.maxDepth))
	}

	if !product.TrackStock {
		return nil
	}

	components, err := w.recipe(ctx, productID)
	if err != nil {
		return err
	}
	if len(components) == 0 {
		w.res.Anomalies = append(w.res.Anomalies, Anomaly{
			Kind:        AnomalyEmptyRecipe,
			ProductID:   product.ID,
			ProductName: product.Name,
			Message:     fmt.Sprintf("Product %s tracks stock but has no recipe; nothing was deducted", product.Name),
		})
		return nil
	}

	path = append(path, pathNode{id: product.ID, name: product.Name})
	for i := range components {
		target, err := components[i].Target()
		if err != nil {
			return err
		}
		needed := components[i].Quantity.Mul(quantity)

		if target.IsItem() {
			w.res.Consumptions = append(w.res.Consumptions, Consumption{
				InventoryItemID:   target.ID,
				Quantity:          needed.Neg(),
				SourceProductID:   product.ID,
				SourceProductName: product.Name,
				Path:              pathNames(path),
			})
			continue
		}

		// copy so sibling branches do not share the backing array
		branch := make([]pathNode, len(path), len(path)+1)
		copy(branch, path)
		if err := w.expand(ctx, target.ID, needed, branch); err != nil {
			return err
		}
	}
	return nil
}

func (w *bomWalk) product(ctx context.Context, id uuid.UUID) (*Product, error) {
	if p, ok := w.products[id]; ok {
		return p, nil
	}
	p, err := w.resolver.products.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError("PRODUCT_NOT_FOUND", "Product "+id.String()+" not found")
		}
		return nil, err
	}
	w.products[id] = p
	return p, nil
}

func (w *bomWalk) recipe(ctx context.Context, id uuid.UUID) ([]RecipeComponent, error) {
	if c, ok := w.components[id]; ok {
		return c, nil
	}
	c, err := w.resolver.recipes.FindByParent(ctx, id)
	if err != nil {
		return nil, err
	}
	w.components[id] = c
	return c, nil
}

func pathNames(path []pathNode) []string {
	names := make([]string, len(path))
	for i, n := range path {
		names[i] = n.name
	}
	return names
}

func pathString(path []pathNode) string {
	return strings.Join(pathNames(path), " -> ")
}
