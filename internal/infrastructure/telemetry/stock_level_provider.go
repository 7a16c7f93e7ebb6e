package telemetry

import (
	"context"

	"github.com/StoneFind22/CineMan/internal/domain/inventory"
)

// RepositoryStockLevelProvider answers stock health questions through the
// item repository
type RepositoryStockLevelProvider struct {
	repo inventory.InventoryItemRepository
}

// NewRepositoryStockLevelProvider creates a provider backed by repo
func NewRepositoryStockLevelProvider(repo inventory.InventoryItemRepository) *RepositoryStockLevelProvider {
	return &RepositoryStockLevelProvider{repo: repo}
}

// CountBelowReorderPoint counts items whose stock is at or below their reorder point
func (p *RepositoryStockLevelProvider) CountBelowReorderPoint(ctx context.Context) (int64, error) {
	return p.repo.Count(ctx, inventory.ItemFilter{BelowReorder: true})
}

// CountNegative counts items whose stock is below zero
func (p *RepositoryStockLevelProvider) CountNegative(ctx context.Context) (int64, error) {
	return p.repo.Count(ctx, inventory.ItemFilter{Negative: true})
}

var _ StockLevelProvider = (*RepositoryStockLevelProvider)(nil)
