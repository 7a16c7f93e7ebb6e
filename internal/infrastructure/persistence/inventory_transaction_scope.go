package persistence

import (
	"context"

	catalogapp "github.com/StoneFind22/CineMan/internal/application/catalog"
	inventoryapp "github.com/StoneFind22/CineMan/internal/application/inventory"
	"github.com/StoneFind22/CineMan/internal/domain/catalog"
	"github.com/StoneFind22/CineMan/internal/domain/inventory"
	"gorm.io/gorm"
)

// GormTransactionScope implements TransactionScope using GORM transactions.
// Every repository handed to the callback shares the same *gorm.DB transaction.
type GormTransactionScope struct {
	db *gorm.DB
}

// NewGormTransactionScope creates a new GormTransactionScope.
func NewGormTransactionScope(db *gorm.DB) *GormTransactionScope {
	return &GormTransactionScope{db: db}
}

// Execute runs fn within a database transaction. A returned error (or a
// cancelled context) rolls everything back; otherwise the transaction commits.
func (s *GormTransactionScope) Execute(ctx context.Context, fn func(repos inventoryapp.TransactionalRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormTransactionalRepositories{tx: tx})
	})
}

// GormRecipeTransactionScope runs recipe rewrites in a GORM transaction for the
// catalog application
type GormRecipeTransactionScope struct {
	db *gorm.DB
}

// NewGormRecipeTransactionScope creates a new GormRecipeTransactionScope.
func NewGormRecipeTransactionScope(db *gorm.DB) *GormRecipeTransactionScope {
	return &GormRecipeTransactionScope{db: db}
}

// Execute runs fn within a database transaction.
func (s *GormRecipeTransactionScope) Execute(ctx context.Context, fn func(repos catalogapp.RecipeRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormTransactionalRepositories{tx: tx})
	})
}

// gormTransactionalRepositories provides access to all repositories within a transaction.
type gormTransactionalRepositories struct {
	tx *gorm.DB
}

// ItemRepo returns the inventory item repository scoped to the current transaction.
func (r *gormTransactionalRepositories) ItemRepo() inventory.InventoryItemRepository {
	return NewGormInventoryItemRepository(r.tx)
}

// MovementRepo returns the ledger repository scoped to the current transaction.
func (r *gormTransactionalRepositories) MovementRepo() inventory.StockMovementRepository {
	return NewGormStockMovementRepository(r.tx)
}

// ProductRepo returns the product repository scoped to the current transaction.
func (r *gormTransactionalRepositories) ProductRepo() catalog.ProductRepository {
	return NewGormProductRepository(r.tx)
}

// RecipeRepo returns the recipe repository scoped to the current transaction.
func (r *gormTransactionalRepositories) RecipeRepo() catalog.RecipeRepository {
	return NewGormRecipeRepository(r.tx)
}

var (
	_ inventoryapp.TransactionScope          = (*GormTransactionScope)(nil)
	_ inventoryapp.TransactionalRepositories = (*gormTransactionalRepositories)(nil)
	_ catalogapp.RecipeTransactionScope      = (*GormRecipeTransactionScope)(nil)
	_ catalogapp.RecipeRepositories          = (*gormTransactionalRepositories)(nil)
)
