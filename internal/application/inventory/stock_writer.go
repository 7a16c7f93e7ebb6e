package inventory

import (
	"context"
	"errors"

	"github.com/StoneFind22/CineMan/internal/domain/inventory"
	"github.com/StoneFind22/CineMan/internal/domain/shared"
	"github.com/google/uuid"
)

// StockWriter applies ledger-backed movements inside an open transaction.
// The item row is locked, the domain checks the policy, the movement is
// appended and the stock column is moved with an atomic SQL increment.
type StockWriter struct {
	items     inventory.InventoryItemRepository
	movements inventory.StockMovementRepository
	policy    inventory.StockPolicy
	touched   map[uuid.UUID]*inventory.InventoryItem
	order     []uuid.UUID
}

func NewStockWriter(repos TransactionalRepositories, policy inventory.StockPolicy) *StockWriter {
	return &StockWriter{
		items:     repos.ItemRepo(),
		movements: repos.MovementRepo(),
		policy:    policy,
		touched:   make(map[uuid.UUID]*inventory.InventoryItem),
	}
}

// Apply records one movement against itemID
func (w *StockWriter) Apply(ctx context.Context, itemID uuid.UUID, req inventory.MovementRequest) (*inventory.StockMovement, error) {
	item, ok := w.touched[itemID]
	if !ok {
		var err error
		item, err = w.items.FindByIDForUpdate(ctx, itemID)
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				return nil, shared.NotFound("Inventory item %s not found", itemID)
			}
			return nil, err
		}
		w.Track(item)
	}

	movement, err := item.ApplyMovement(req, w.policy)
	if err != nil {
		return nil, err
	}
	if err := w.movements.Create(ctx, movement); err != nil {
		return nil, err
	}
	if err := w.items.ApplyStockDelta(ctx, itemID, movement.Quantity); err != nil {
		return nil, err
	}
	return movement, nil
}

// Track registers an item created inside the same transaction so later
// movements reuse it instead of reloading
func (w *StockWriter) Track(item *inventory.InventoryItem) {
	if _, ok := w.touched[item.ID]; !ok {
		w.order = append(w.order, item.ID)
	}
	w.touched[item.ID] = item
}

// Events drains the domain events of every item touched by the writer
func (w *StockWriter) Events() []shared.DomainEvent {
	var events []shared.DomainEvent
	for _, id := range w.order {
		item := w.touched[id]
		events = append(events, item.PullDomainEvents()...)
	}
	return events
}
