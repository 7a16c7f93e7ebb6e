package catalog

import (
	"context"

	"github.com/StoneFind22/CineMan/internal/domain/catalog"
)

// RecipeRepositories gives access to the catalog repositories inside a transaction
type RecipeRepositories interface {
	ProductRepo() catalog.ProductRepository
	RecipeRepo() catalog.RecipeRepository
}

// RecipeTransactionScope runs recipe rewrites atomically, so the cycle check
// and the delete-then-insert see the same graph
type RecipeTransactionScope interface {
	Execute(ctx context.Context, fn func(repos RecipeRepositories) error) error
}

// NoOpRecipeTransactionScope runs the function against plain repositories.
// Used in tests and wherever atomicity is provided elsewhere.
type NoOpRecipeTransactionScope struct {
	productRepo catalog.ProductRepository
	recipeRepo  catalog.RecipeRepository
}

// NewNoOpRecipeTransactionScope creates a NoOpRecipeTransactionScope
func NewNoOpRecipeTransactionScope(productRepo catalog.ProductRepository, recipeRepo catalog.RecipeRepository) *NoOpRecipeTransactionScope {
	return &NoOpRecipeTransactionScope{productRepo: productRepo, recipeRepo: recipeRepo}
}

// Execute runs fn without a transaction
func (s *NoOpRecipeTransactionScope) Execute(_ context.Context, fn func(repos RecipeRepositories) error) error {
	return fn(s)
}

// ProductRepo returns the product repository
func (s *NoOpRecipeTransactionScope) ProductRepo() catalog.ProductRepository {
	return s.productRepo
}

// RecipeRepo returns the recipe repository
func (s *NoOpRecipeTransactionScope) RecipeRepo() catalog.RecipeRepository {
	return s.recipeRepo
}
