package inventory

import (
	"context"
	"fmt"

	"github.com/StoneFind22/CineMan/internal/domain/inventory"
	"github.com/StoneFind22/CineMan/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// RecipeUsageCounter reports how many recipe components consume an item
type RecipeUsageCounter interface {
	CountByInventoryItem(ctx context.Context, itemID uuid.UUID) (int64, error)
}

// InventoryService handles inventory items, manual movements and ledger queries
type InventoryService struct {
	itemRepo       inventory.InventoryItemRepository
	movementRepo   inventory.StockMovementRepository
	recipeUsage    RecipeUsageCounter
	txScope        TransactionScope
	policy         inventory.StockPolicy
	eventPublisher shared.EventPublisher
	logger         *zap.Logger
}

// NewInventoryService creates a new InventoryService
func NewInventoryService(
	itemRepo inventory.InventoryItemRepository,
	movementRepo inventory.StockMovementRepository,
	recipeUsage RecipeUsageCounter,
	txScope TransactionScope,
	policy inventory.StockPolicy,
) *InventoryService {
	return &InventoryService{
		itemRepo:     itemRepo,
		movementRepo: movementRepo,
		recipeUsage:  recipeUsage,
		txScope:      txScope,
		policy:       policy,
		logger:       zap.NewNop(),
	}
}

// SetEventPublisher sets the event publisher for publishing domain events
func (s *InventoryService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// SetLogger sets the logger used for stock warnings
func (s *InventoryService) SetLogger(logger *zap.Logger) {
	if logger != nil {
		s.logger = logger
	}
}

func (s *InventoryService) publish(ctx context.Context, events []shared.DomainEvent) {
	if s.eventPublisher == nil || len(events) == 0 {
		return
	}
	// Publish errors are logged by the event bus, not propagated
	_ = s.eventPublisher.Publish(ctx, events...)
}

// CreateItem registers a new inventory item. A non-zero initial stock is
// recorded as an INITIAL movement in the same transaction.
func (s *InventoryService) CreateItem(ctx context.Context, req CreateItemRequest) (*InventoryItemResponse, error) {
	reorderPoint := inventory.DefaultReorderPoint
	if req.ReorderPoint != nil {
		reorderPoint = *req.ReorderPoint
	}
	if req.InitialStock.IsNegative() {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Initial stock cannot be negative")
	}

	var created *inventory.InventoryItem
	var events []shared.DomainEvent
	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		item, err := inventory.NewInventoryItem(req.Name, req.Unit, reorderPoint, req.CostPerUnit)
		if err != nil {
			return err
		}
		exists, err := repos.ItemRepo().ExistsByName(ctx, item.Name)
		if err != nil {
			return err
		}
		if exists {
			return shared.NewDomainError(shared.ErrAlreadyExists.Code, fmt.Sprintf("Inventory item %q already exists", item.Name))
		}
		if err := repos.ItemRepo().Create(ctx, item); err != nil {
			return err
		}

		writer := NewStockWriter(repos, s.policy)
		writer.Track(item)
		if !req.InitialStock.IsZero() {
			if _, err := writer.Apply(ctx, item.ID, inventory.MovementRequest{
				Delta:  req.InitialStock,
				Type:   inventory.MovementTypeInitial,
				UserID: req.UserID,
				Notes:  "Initial stock",
			}); err != nil {
				return err
			}
		}
		created = item
		events = writer.Events()
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events)
	response := ToInventoryItemResponse(created)
	return &response, nil
}

// GetItem retrieves an inventory item by ID
func (s *InventoryService) GetItem(ctx context.Context, id uuid.UUID) (*InventoryItemResponse, error) {
	item, err := s.itemRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	response := ToInventoryItemResponse(item)
	return &response, nil
}

// ListItems retrieves the current stock list with filtering and pagination
func (s *InventoryService) ListItems(ctx context.Context, filter ItemListFilter) ([]InventoryItemResponse, int64, error) {
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

	domainFilter := inventory.ItemFilter{
		Filter: shared.Filter{
			Page:     filter.Page,
			PageSize: filter.PageSize,
			OrderBy:  filter.OrderBy,
			OrderDir: filter.OrderDir,
			Search:   filter.Search,
		},
		BelowReorder: filter.BelowReorder,
	}

	items, err := s.itemRepo.FindAll(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.itemRepo.Count(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	return ToInventoryItemResponses(items), total, nil
}

// UpdateItem changes an item's name, unit, reorder point and cost.
// Stock can only change through movements.
func (s *InventoryService) UpdateItem(ctx context.Context, id uuid.UUID, req UpdateItemRequest) (*InventoryItemResponse, error) {
	item, err := s.itemRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Version != 0 && req.Version != item.Version {
		return nil, shared.NewDomainError("OPTIMISTIC_LOCK_FAILED", "Inventory item was modified by another user, reload and try again")
	}

	newName := shared.NormalizeName(req.Name)
	if newName != item.Name {
		exists, err := s.itemRepo.ExistsByName(ctx, newName)
		if err != nil {
			return nil, err
		}
		if exists {
			return nil, shared.NewDomainError(shared.ErrAlreadyExists.Code, fmt.Sprintf("Inventory item %q already exists", newName))
		}
	}

	if err := item.Update(req.Name, req.Unit, req.ReorderPoint, req.CostPerUnit); err != nil {
		return nil, err
	}
	if err := s.itemRepo.SaveWithLock(ctx, item); err != nil {
		return nil, err
	}

	response := ToInventoryItemResponse(item)
	return &response, nil
}

// DeleteItem removes an item that no recipe uses and that has no ledger history
func (s *InventoryService) DeleteItem(ctx context.Context, id uuid.UUID) error {
	item, err := s.itemRepo.FindByID(ctx, id)
	if err != nil {
		return err
	}

	uses, err := s.recipeUsage.CountByInventoryItem(ctx, id)
	if err != nil {
		return err
	}
	if uses > 0 {
		return shared.NewDomainError("ITEM_IN_USE",
			fmt.Sprintf("Inventory item %q is used by %d recipe component(s)", item.Name, uses))
	}

	movements, err := s.movementRepo.Count(ctx, inventory.MovementFilter{InventoryItemID: &id})
	if err != nil {
		return err
	}
	if movements > 0 {
		return shared.NewDomainError("ITEM_HAS_HISTORY",
			fmt.Sprintf("Inventory item %q has %d ledger entries and cannot be deleted", item.Name, movements))
	}

	return s.itemRepo.Delete(ctx, id)
}

// RecordMovement applies one manual stock movement (restock, loss, adjustment
// or initial stock) and its ledger entry atomically.
func (s *InventoryService) RecordMovement(ctx context.Context, req RecordMovementRequest) (*StockMovementResponse, error) {
	movementType, err := inventory.ParseMovementType(req.Type)
	if err != nil {
		return nil, err
	}
	if movementType == inventory.MovementTypeSale {
		return nil, shared.NewDomainError("INVALID_MOVEMENT_TYPE", "SALE movements are recorded through sale consumption")
	}

	var recorded *inventory.StockMovement
	var events []shared.DomainEvent
	err = s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		writer := NewStockWriter(repos, s.policy)
		m, err := writer.Apply(ctx, req.ItemID, inventory.MovementRequest{
			Delta:       req.Delta,
			Type:        movementType,
			ReferenceID: req.ReferenceID,
			UserID:      req.UserID,
			Notes:       req.Notes,
		})
		if err != nil {
			return err
		}
		recorded = m
		events = writer.Events()
		return nil
	})
	if err != nil {
		return nil, err
	}

	if recorded.BalanceAfter.IsNegative() && recorded.IsConsumption() {
		s.logger.Warn("stock movement left a negative balance",
			zap.String("inventory_item_id", req.ItemID.String()),
			zap.String("movement_type", movementType.String()),
			zap.String("balance", recorded.BalanceAfter.String()))
	}
	s.publish(ctx, events)

	response := ToStockMovementResponse(recorded)
	return &response, nil
}

// ListMovements lists ledger entries, newest first
func (s *InventoryService) ListMovements(ctx context.Context, filter MovementListFilter) ([]StockMovementResponse, int64, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 50
	}
	if filter.From != nil && filter.To != nil && filter.To.Before(*filter.From) {
		return nil, 0, shared.NewDomainError("INVALID_DATE_RANGE", "'to' must not be before 'from'")
	}

	domainFilter := inventory.MovementFilter{
		Filter: shared.Filter{
			Page:     filter.Page,
			PageSize: filter.PageSize,
			OrderBy:  "created_at",
			OrderDir: "desc",
		},
		InventoryItemID: filter.ItemID,
		From:            filter.From,
		To:              filter.To,
		ReferenceID:     filter.ReferenceID,
	}
	if filter.Type != "" {
		mt, err := inventory.ParseMovementType(filter.Type)
		if err != nil {
			return nil, 0, err
		}
		domainFilter.MovementType = mt
	}

	movements, err := s.movementRepo.Find(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.movementRepo.Count(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	return ToStockMovementResponses(movements), total, nil
}

// GetMovementsByReference returns every ledger entry tagged with the reference,
// which for a sale is its full consumption tree
func (s *InventoryService) GetMovementsByReference(ctx context.Context, referenceID string) ([]StockMovementResponse, error) {
	if referenceID == "" {
		return nil, shared.NewDomainError("INVALID_REFERENCE", "Reference ID is required")
	}
	movements, err := s.movementRepo.FindByReference(ctx, referenceID)
	if err != nil {
		return nil, err
	}
	return ToStockMovementResponses(movements), nil
}

// ReconcileStock compares an item's cached stock with the sum of its ledger
func (s *InventoryService) ReconcileStock(ctx context.Context, id uuid.UUID) (*StockReconciliationResponse, error) {
	item, err := s.itemRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	sum, err := s.movementRepo.SumByItem(ctx, id)
	if err != nil {
		return nil, err
	}

	drift := item.CurrentStock.Sub(sum)
	if !drift.IsZero() {
		s.logger.Warn("stock drift between item and ledger",
			zap.String("inventory_item_id", id.String()),
			zap.String("current_stock", item.CurrentStock.String()),
			zap.String("ledger_sum", sum.String()))
	}
	return &StockReconciliationResponse{
		InventoryItemID: id,
		CurrentStock:    item.CurrentStock,
		LedgerSum:       sum,
		Drift:           drift,
		Consistent:      drift.IsZero(),
	}, nil
}
