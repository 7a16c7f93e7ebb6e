package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/StoneFind22/CineMan/internal/domain/catalog"
	"github.com/StoneFind22/CineMan/internal/domain/inventory"
	"github.com/StoneFind22/CineMan/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// InventoryItemFinder looks up raw materials referenced by recipes
type InventoryItemFinder interface {
	FindByID(ctx context.Context, id uuid.UUID) (*inventory.InventoryItem, error)
}

// ProductService handles product-related business operations, including the
// recipe that links a product to its raw materials and child products
type ProductService struct {
	productRepo    catalog.ProductRepository
	categoryRepo   catalog.CategoryRepository
	recipeRepo     catalog.RecipeRepository
	itemFinder     InventoryItemFinder
	txScope        RecipeTransactionScope
	maxDepth       int
	eventPublisher shared.EventPublisher
	logger         *zap.Logger
}

// NewProductService creates a new ProductService
func NewProductService(
	productRepo catalog.ProductRepository,
	categoryRepo catalog.CategoryRepository,
	recipeRepo catalog.RecipeRepository,
	itemFinder InventoryItemFinder,
	txScope RecipeTransactionScope,
	maxRecipeDepth int,
) *ProductService {
	return &ProductService{
		productRepo:  productRepo,
		categoryRepo: categoryRepo,
		recipeRepo:   recipeRepo,
		itemFinder:   itemFinder,
		txScope:      txScope,
		maxDepth:     maxRecipeDepth,
		logger:       zap.NewNop(),
	}
}

// SetEventPublisher sets the event publisher for publishing domain events
func (s *ProductService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// SetLogger sets the logger
func (s *ProductService) SetLogger(logger *zap.Logger) {
	if logger != nil {
		s.logger = logger
	}
}

func (s *ProductService) publish(ctx context.Context, events ...shared.DomainEvent) {
	if s.eventPublisher == nil || len(events) == 0 {
		return
	}
	_ = s.eventPublisher.Publish(ctx, events...)
}

// Create creates a new product
func (s *ProductService) Create(ctx context.Context, req CreateProductRequest) (*ProductResponse, error) {
	productType := catalog.ProductTypeSimple
	if req.ProductType != "" {
		t, err := catalog.ParseProductType(req.ProductType)
		if err != nil {
			return nil, err
		}
		productType = t
	}

	product, err := catalog.NewProduct(req.Name, productType, req.Price)
	if err != nil {
		return nil, err
	}

	exists, err := s.productRepo.ExistsByName(ctx, product.Name)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, shared.NewDomainError("ALREADY_EXISTS", fmt.Sprintf("Product %q already exists", product.Name))
	}

	if err := s.checkCategory(ctx, req.CategoryID); err != nil {
		return nil, err
	}
	product.CategoryID = req.CategoryID

	if req.Description != "" || req.ImageURL != "" {
		if err := product.Update(product.Name, req.Description, req.ImageURL); err != nil {
			return nil, err
		}
	}
	if req.TrackStock != nil && *req.TrackStock != product.TrackStock {
		if err := product.SetType(product.ProductType, *req.TrackStock); err != nil {
			return nil, err
		}
	}

	if err := s.productRepo.Create(ctx, product); err != nil {
		return nil, err
	}

	s.publish(ctx, product.PullDomainEvents()...)

	response := ToProductResponse(product)
	return &response, nil
}

// GetByID retrieves a product by ID
func (s *ProductService) GetByID(ctx context.Context, id uuid.UUID) (*ProductResponse, error) {
	product, err := s.findProduct(ctx, s.productRepo, id)
	if err != nil {
		return nil, err
	}
	response := ToProductResponse(product)
	return &response, nil
}

// List retrieves a list of products with filtering and pagination
func (s *ProductService) List(ctx context.Context, filter ProductListFilter) ([]ProductResponse, int64, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}
	if filter.OrderBy == "" {
		filter.OrderBy = "name"
	}
	if filter.OrderDir == "" {
		filter.OrderDir = "asc"
	}

	domainFilter := catalog.ProductFilter{
		Filter: shared.Filter{
			Page:     filter.Page,
			PageSize: filter.PageSize,
			OrderBy:  filter.OrderBy,
			OrderDir: filter.OrderDir,
			Search:   filter.Search,
		},
		CategoryID: filter.CategoryID,
		IsActive:   filter.IsActive,
	}
	if filter.ProductType != "" {
		t, err := catalog.ParseProductType(filter.ProductType)
		if err != nil {
			return nil, 0, err
		}
		domainFilter.ProductType = t
	}

	products, err := s.productRepo.FindAll(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.productRepo.Count(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	return ToProductResponses(products), total, nil
}

// Update updates a product. Nil request fields are left unchanged.
func (s *ProductService) Update(ctx context.Context, id uuid.UUID, req UpdateProductRequest) (*ProductResponse, error) {
	product, err := s.findProduct(ctx, s.productRepo, id)
	if err != nil {
		return nil, err
	}
	loadedVersion := product.Version

	name := product.Name
	if req.Name != nil {
		name = shared.NormalizeName(*req.Name)
		if name != product.Name {
			exists, err := s.productRepo.ExistsByName(ctx, name)
			if err != nil {
				return nil, err
			}
			if exists {
				return nil, shared.NewDomainError("ALREADY_EXISTS", fmt.Sprintf("Product %q already exists", name))
			}
		}
	}
	description := product.Description
	if req.Description != nil {
		description = *req.Description
	}
	imageURL := product.ImageURL
	if req.ImageURL != nil {
		imageURL = *req.ImageURL
	}
	if err := product.Update(name, description, imageURL); err != nil {
		return nil, err
	}

	if req.Price != nil {
		if err := product.SetPrice(*req.Price); err != nil {
			return nil, err
		}
	}

	if req.ProductType != nil || req.TrackStock != nil {
		productType := product.ProductType
		if req.ProductType != nil {
			if productType, err = catalog.ParseProductType(*req.ProductType); err != nil {
				return nil, err
			}
		}
		trackStock := productType != catalog.ProductTypeService
		if req.TrackStock != nil {
			trackStock = *req.TrackStock
		}
		if err := product.SetType(productType, trackStock); err != nil {
			return nil, err
		}
	}

	if req.CategoryID != nil {
		if err := s.checkCategory(ctx, req.CategoryID); err != nil {
			return nil, err
		}
		product.SetCategory(req.CategoryID)
	}

	// one save is one version, however many fields changed
	product.Version = loadedVersion + 1
	if err := s.productRepo.SaveWithLock(ctx, product); err != nil {
		return nil, err
	}

	s.publish(ctx, product.PullDomainEvents()...)

	response := ToProductResponse(product)
	return &response, nil
}

// Delete removes a product and its own recipe. A product still used as a
// component of another product is refused with PRODUCT_IN_USE.
func (s *ProductService) Delete(ctx context.Context, id uuid.UUID) error {
	product, err := s.findProduct(ctx, s.productRepo, id)
	if err != nil {
		return err
	}

	uses, err := s.recipeRepo.CountByChildProduct(ctx, id)
	if err != nil {
		return err
	}
	if uses > 0 {
		return shared.NewDomainError("PRODUCT_IN_USE",
			fmt.Sprintf("Product %q is a component of %d other recipe line(s)", product.Name, uses))
	}

	return s.productRepo.Delete(ctx, id)
}

// Activate makes a product sellable again
func (s *ProductService) Activate(ctx context.Context, id uuid.UUID) (*ProductResponse, error) {
	return s.changeStatus(ctx, id, (*catalog.Product).Activate)
}

// Deactivate hides a product from the POS
func (s *ProductService) Deactivate(ctx context.Context, id uuid.UUID) (*ProductResponse, error) {
	return s.changeStatus(ctx, id, (*catalog.Product).Deactivate)
}

func (s *ProductService) changeStatus(ctx context.Context, id uuid.UUID, change func(*catalog.Product) error) (*ProductResponse, error) {
	product, err := s.findProduct(ctx, s.productRepo, id)
	if err != nil {
		return nil, err
	}
	if err := change(product); err != nil {
		return nil, err
	}
	if err := s.productRepo.SaveWithLock(ctx, product); err != nil {
		return nil, err
	}

	s.publish(ctx, product.PullDomainEvents()...)

	response := ToProductResponse(product)
	return &response, nil
}

// GetRecipe returns the direct components of a product in their stored order
func (s *ProductService) GetRecipe(ctx context.Context, productID uuid.UUID) ([]RecipeComponentResponse, error) {
	if _, err := s.findProduct(ctx, s.productRepo, productID); err != nil {
		return nil, err
	}
	components, err := s.recipeRepo.FindByParent(ctx, productID)
	if err != nil {
		return nil, err
	}
	return ToRecipeComponentResponses(components), nil
}

// ReplaceRecipe rewrites a product's recipe in one transaction.
//
// Every component must reference exactly one existing inventory item or
// product with a positive quantity. A child product that already reaches
// productID would close a cycle and is refused with BOM_CYCLE_DETECTED.
// Replacing a recipe with the same components leaves the same graph.
func (s *ProductService) ReplaceRecipe(ctx context.Context, productID uuid.UUID, req ReplaceRecipeRequest) ([]RecipeComponentResponse, error) {
	for i, input := range req.Components {
		if input.InventoryItemID != nil && input.ChildProductID == nil {
			if err := s.checkItem(ctx, i, *input.InventoryItemID); err != nil {
				return nil, err
			}
		}
	}

	var saved []catalog.RecipeComponent
	err := s.txScope.Execute(ctx, func(repos RecipeRepositories) error {
		product, err := s.findProduct(ctx, repos.ProductRepo(), productID)
		if err != nil {
			return err
		}

		resolver := catalog.NewBOMResolver(repos.ProductRepo(), repos.RecipeRepo(), s.maxDepth)
		components := make([]catalog.RecipeComponent, 0, len(req.Components))
		for i, input := range req.Components {
			target, err := componentTarget(i, input)
			if err != nil {
				return err
			}
			c, err := catalog.NewRecipeComponent(productID, target, input.Quantity)
			if err != nil {
				return err
			}
			c.Position = i

			if !target.IsItem() {
				child, err := repos.ProductRepo().FindByID(ctx, target.ID)
				if err != nil {
					if errors.Is(err, shared.ErrNotFound) {
						return shared.NewDomainError("INVALID_COMPONENT",
							fmt.Sprintf("Component %d references unknown product %s", i+1, target.ID))
					}
					return err
				}
				cycle, err := resolver.Reaches(ctx, child.ID, productID)
				if err != nil {
					return err
				}
				if cycle {
					return shared.NewDomainError("BOM_CYCLE_DETECTED",
						fmt.Sprintf("Adding %s to %s would create a cycle", child.Name, product.Name))
				}
			}
			components = append(components, *c)
		}

		if err := repos.RecipeRepo().ReplaceForParent(ctx, productID, components); err != nil {
			return err
		}
		saved = components
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("recipe replaced",
		zap.String("product_id", productID.String()),
		zap.Int("components", len(saved)))
	s.publish(ctx, catalog.NewRecipeReplacedEvent(productID, len(saved)))
	return ToRecipeComponentResponses(saved), nil
}

func componentTarget(i int, input RecipeComponentInput) (catalog.ComponentTarget, error) {
	switch {
	case input.InventoryItemID != nil && input.ChildProductID == nil:
		return catalog.ItemTarget(*input.InventoryItemID), nil
	case input.ChildProductID != nil && input.InventoryItemID == nil:
		return catalog.ProductTarget(*input.ChildProductID), nil
	}
	return catalog.ComponentTarget{}, shared.NewDomainError("INVALID_COMPONENT",
		fmt.Sprintf("Component %d must reference exactly one inventory item or product", i+1))
}

func (s *ProductService) checkItem(ctx context.Context, i int, itemID uuid.UUID) error {
	if _, err := s.itemFinder.FindByID(ctx, itemID); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return shared.NewDomainError("INVALID_COMPONENT",
				fmt.Sprintf("Component %d references unknown inventory item %s", i+1, itemID))
		}
		return err
	}
	return nil
}

func (s *ProductService) checkCategory(ctx context.Context, categoryID *uuid.UUID) error {
	if categoryID == nil {
		return nil
	}
	if _, err := s.categoryRepo.FindByID(ctx, *categoryID); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return shared.NewDomainError("INVALID_CATEGORY", "Category not found")
		}
		return err
	}
	return nil
}

func (s *ProductService) findProduct(ctx context.Context, repo catalog.ProductRepository, id uuid.UUID) (*catalog.Product, error) {
	product, err := repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError("PRODUCT_NOT_FOUND", fmt.Sprintf("Product %s not found", id))
		}
		return nil, err
	}
	return product, nil
}
