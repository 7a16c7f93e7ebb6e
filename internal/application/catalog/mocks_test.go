package catalog

import (
	"context"

	"github.com/StoneFind22/CineMan/internal/domain/catalog"
	"github.com/StoneFind22/CineMan/internal/domain/inventory"
	"github.com/StoneFind22/CineMan/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockProductRepository is a mock implementation of ProductRepository
type MockProductRepository struct {
	mock.Mock
}

func (m *MockProductRepository) FindByID(ctx context.Context, id uuid.UUID) (*catalog.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.Product), args.Error(1)
}

func (m *MockProductRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]catalog.Product, error) {
	args := m.Called(ctx, ids)
	return args.Get(0).([]catalog.Product), args.Error(1)
}

func (m *MockProductRepository) FindByName(ctx context.Context, name string) (*catalog.Product, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.Product), args.Error(1)
}

func (m *MockProductRepository) FindAll(ctx context.Context, filter catalog.ProductFilter) ([]catalog.Product, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]catalog.Product), args.Error(1)
}

func (m *MockProductRepository) Count(ctx context.Context, filter catalog.ProductFilter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockProductRepository) ExistsByName(ctx context.Context, name string) (bool, error) {
	args := m.Called(ctx, name)
	return args.Bool(0), args.Error(1)
}

func (m *MockProductRepository) CountByCategory(ctx context.Context, categoryID uuid.UUID) (int64, error) {
	args := m.Called(ctx, categoryID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockProductRepository) Create(ctx context.Context, product *catalog.Product) error {
	args := m.Called(ctx, product)
	return args.Error(0)
}

func (m *MockProductRepository) SaveWithLock(ctx context.Context, product *catalog.Product) error {
	args := m.Called(ctx, product)
	return args.Error(0)
}

func (m *MockProductRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockCategoryRepository is a mock implementation of CategoryRepository
type MockCategoryRepository struct {
	mock.Mock
}

func (m *MockCategoryRepository) FindByID(ctx context.Context, id uuid.UUID) (*catalog.Category, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.Category), args.Error(1)
}

func (m *MockCategoryRepository) FindAll(ctx context.Context, filter shared.Filter) ([]catalog.Category, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]catalog.Category), args.Error(1)
}

func (m *MockCategoryRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockCategoryRepository) ExistsByName(ctx context.Context, name string) (bool, error) {
	args := m.Called(ctx, name)
	return args.Bool(0), args.Error(1)
}

func (m *MockCategoryRepository) Create(ctx context.Context, category *catalog.Category) error {
	args := m.Called(ctx, category)
	return args.Error(0)
}

func (m *MockCategoryRepository) SaveWithLock(ctx context.Context, category *catalog.Category) error {
	args := m.Called(ctx, category)
	return args.Error(0)
}

func (m *MockCategoryRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockItemFinder is a mock implementation of InventoryItemFinder
type MockItemFinder struct {
	mock.Mock
}

func (m *MockItemFinder) FindByID(ctx context.Context, id uuid.UUID) (*inventory.InventoryItem, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*inventory.InventoryItem), args.Error(1)
}

// memRecipes is an in-memory RecipeRepository. Graph walks are easier to
// express against real edges than against call expectations.
type memRecipes struct {
	rows     map[uuid.UUID][]catalog.RecipeComponent
	replaces int
}

func newMemRecipes() *memRecipes {
	return &memRecipes{rows: make(map[uuid.UUID][]catalog.RecipeComponent)}
}

func (r *memRecipes) FindByParent(_ context.Context, parentID uuid.UUID) ([]catalog.RecipeComponent, error) {
	return r.rows[parentID], nil
}

func (r *memRecipes) ReplaceForParent(_ context.Context, parentID uuid.UUID, components []catalog.RecipeComponent) error {
	r.replaces++
	r.rows[parentID] = append([]catalog.RecipeComponent(nil), components...)
	return nil
}

func (r *memRecipes) CountByInventoryItem(_ context.Context, itemID uuid.UUID) (int64, error) {
	var n int64
	for _, cs := range r.rows {
		for _, c := range cs {
			if c.InventoryItemID != nil && *c.InventoryItemID == itemID {
				n++
			}
		}
	}
	return n, nil
}

func (r *memRecipes) CountByChildProduct(_ context.Context, productID uuid.UUID) (int64, error) {
	var n int64
	for _, cs := range r.rows {
		for _, c := range cs {
			if c.ChildProductID != nil && *c.ChildProductID == productID {
				n++
			}
		}
	}
	return n, nil
}

func (r *memRecipes) link(t catalog.ComponentTarget, parent uuid.UUID) {
	c, err := catalog.NewRecipeComponent(parent, t, catalogDecimal("1"))
	if err != nil {
		panic(err)
	}
	r.rows[parent] = append(r.rows[parent], *c)
}
