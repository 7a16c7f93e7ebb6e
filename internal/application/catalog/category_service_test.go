package catalog

import (
	"context"
	"testing"

	"github.com/StoneFind22/CineMan/internal/domain/catalog"
	"github.com/StoneFind22/CineMan/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestCategoryService_Create(t *testing.T) {
	ctx := context.Background()
	categories := new(MockCategoryRepository)
	svc := NewCategoryService(categories, new(MockProductRepository))
	categories.On("ExistsByName", ctx, "Drinks").Return(false, nil).Once()
	categories.On("ExistsByName", ctx, "Drinks").Return(true, nil).Once()
	categories.On("Create", ctx, mock.AnythingOfType("*catalog.Category")).Return(nil)

	resp, err := svc.Create(ctx, CreateCategoryRequest{Name: " Drinks "})
	require.NoError(t, err)
	assert.Equal(t, "Drinks", resp.Name)
	assert.True(t, resp.IsActive)

	_, err = svc.Create(ctx, CreateCategoryRequest{Name: "Drinks"})
	assert.ErrorIs(t, err, shared.ErrAlreadyExists)
	categories.AssertNumberOfCalls(t, "Create", 1)
}

func TestCategoryService_Update(t *testing.T) {
	ctx := context.Background()
	categories := new(MockCategoryRepository)
	svc := NewCategoryService(categories, new(MockProductRepository))
	category, err := catalog.NewCategory("Snacks", "")
	require.NoError(t, err)
	categories.On("FindByID", ctx, category.ID).Return(category, nil)
	categories.On("ExistsByName", ctx, "Sweets").Return(false, nil)
	categories.On("SaveWithLock", ctx, category).Return(nil)
	inactive := false

	resp, err := svc.Update(ctx, category.ID, UpdateCategoryRequest{Name: "Sweets", Description: "Candy", IsActive: &inactive})

	require.NoError(t, err)
	assert.Equal(t, "Sweets", resp.Name)
	assert.False(t, resp.IsActive)
	assert.Equal(t, 2, resp.Version)
}

func TestCategoryService_DeleteGuard(t *testing.T) {
	ctx := context.Background()
	categories := new(MockCategoryRepository)
	products := new(MockProductRepository)
	svc := NewCategoryService(categories, products)

	drinks, _ := catalog.NewCategory("Drinks", "")
	empty, _ := catalog.NewCategory("Seasonal", "")
	categories.On("FindByID", ctx, drinks.ID).Return(drinks, nil)
	categories.On("FindByID", ctx, empty.ID).Return(empty, nil)
	products.On("CountByCategory", ctx, drinks.ID).Return(int64(4), nil)
	products.On("CountByCategory", ctx, empty.ID).Return(int64(0), nil)
	categories.On("Delete", ctx, empty.ID).Return(nil)

	err := svc.Delete(ctx, drinks.ID)
	assert.Equal(t, "CATEGORY_IN_USE", errCode(err))

	require.NoError(t, svc.Delete(ctx, empty.ID))
	categories.AssertNotCalled(t, "Delete", ctx, drinks.ID)
}
