package inventory

import (
	"context"

	"github.com/StoneFind22/CineMan/internal/domain/catalog"
	"github.com/StoneFind22/CineMan/internal/domain/inventory"
)

// TransactionScope provides transactional access to the stock and recipe repositories.
// When a function is executed within a transaction scope, all repository operations
// will be part of the same database transaction and will be committed or rolled back atomically.
type TransactionScope interface {
	// Execute runs the given function within a database transaction.
	// If the function returns an error, the transaction is rolled back.
	// If the function succeeds, the transaction is committed.
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories provides access to all repositories within a transaction.
// All repositories returned share the same underlying database transaction, so recipe
// reads made while expanding a sale see the same snapshot the stock writes go to.
type TransactionalRepositories interface {
	// ItemRepo returns the inventory item repository scoped to the current transaction
	ItemRepo() inventory.InventoryItemRepository
	// MovementRepo returns the ledger repository scoped to the current transaction
	MovementRepo() inventory.StockMovementRepository
	// ProductRepo returns the product repository scoped to the current transaction
	ProductRepo() catalog.ProductRepository
	// RecipeRepo returns the recipe repository scoped to the current transaction
	RecipeRepo() catalog.RecipeRepository
}

// NoOpTransactionScope is a transaction scope that doesn't actually use transactions.
// This is useful for testing or when transaction support is not required.
type NoOpTransactionScope struct {
	itemRepo     inventory.InventoryItemRepository
	movementRepo inventory.StockMovementRepository
	productRepo  catalog.ProductRepository
	recipeRepo   catalog.RecipeRepository
}

// NewNoOpTransactionScope creates a NoOpTransactionScope with the given repositories.
func NewNoOpTransactionScope(
	itemRepo inventory.InventoryItemRepository,
	movementRepo inventory.StockMovementRepository,
	productRepo catalog.ProductRepository,
	recipeRepo catalog.RecipeRepository,
) *NoOpTransactionScope {
	return &NoOpTransactionScope{
		itemRepo:     itemRepo,
		movementRepo: movementRepo,
		productRepo:  productRepo,
		recipeRepo:   recipeRepo,
	}
}

// Execute runs the function without a real transaction (for testing/compatibility).
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

// ItemRepo returns the inventory item repository.
func (s *NoOpTransactionScope) ItemRepo() inventory.InventoryItemRepository {
	return s.itemRepo
}

// MovementRepo returns the ledger repository.
func (s *NoOpTransactionScope) MovementRepo() inventory.StockMovementRepository {
	return s.movementRepo
}

// ProductRepo returns the product repository.
func (s *NoOpTransactionScope) ProductRepo() catalog.ProductRepository {
	return s.productRepo
}

// RecipeRepo returns the recipe repository.
func (s *NoOpTransactionScope) RecipeRepo() catalog.RecipeRepository {
	return s.recipeRepo
}

// Ensure NoOpTransactionScope implements both interfaces
var _ TransactionScope = (*NoOpTransactionScope)(nil)
var _ TransactionalRepositories = (*NoOpTransactionScope)(nil)
