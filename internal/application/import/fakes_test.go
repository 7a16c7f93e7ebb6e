package importapp

import (
	"context"
	"errors"
	"sync"

	inventoryapp "github.com/StoneFind22/CineMan/internal/application/inventory"
	"github.com/StoneFind22/CineMan/internal/domain/catalog"
	"github.com/StoneFind22/CineMan/internal/domain/inventory"
	"github.com/StoneFind22/CineMan/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// stockStore is a minimal in-memory item table and ledger. Its transaction
// scope restores the previous state when the unit of work fails.
type stockStore struct {
	items     map[uuid.UUID]inventory.InventoryItem
	movements []inventory.StockMovement
	failOn    map[uuid.UUID]error
}

func newStockStore() *stockStore {
	return &stockStore{
		items:  make(map[uuid.UUID]inventory.InventoryItem),
		failOn: make(map[uuid.UUID]error),
	}
}

func (s *stockStore) add(name, unit string, stock decimal.Decimal) inventory.InventoryItem {
	item, err := inventory.NewInventoryItem(name, unit, inventory.DefaultReorderPoint, decimal.Zero)
	if err != nil {
		panic(err)
	}
	item.CurrentStock = stock
	item.ClearDomainEvents()
	s.items[item.ID] = *item
	return *item
}

func (s *stockStore) byName(name string) (inventory.InventoryItem, bool) {
	for _, it := range s.items {
		if it.Name == name {
			return it, true
		}
	}
	return inventory.InventoryItem{}, false
}

func (s *stockStore) Execute(_ context.Context, fn func(repos inventoryapp.TransactionalRepositories) error) error {
	items := make(map[uuid.UUID]inventory.InventoryItem, len(s.items))
	for k, v := range s.items {
		items[k] = v
	}
	movements := append([]inventory.StockMovement(nil), s.movements...)
	if err := fn(s); err != nil {
		s.items, s.movements = items, movements
		return err
	}
	return nil
}

func (s *stockStore) ItemRepo() inventory.InventoryItemRepository     { return (*itemRepo)(s) }
func (s *stockStore) MovementRepo() inventory.StockMovementRepository { return (*movementRepo)(s) }
func (s *stockStore) ProductRepo() catalog.ProductRepository          { return nil }
func (s *stockStore) RecipeRepo() catalog.RecipeRepository            { return nil }

type itemRepo stockStore

func (r *itemRepo) FindByID(_ context.Context, id uuid.UUID) (*inventory.InventoryItem, error) {
	it, ok := r.items[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return &it, nil
}

func (r *itemRepo) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*inventory.InventoryItem, error) {
	return r.FindByID(ctx, id)
}

func (r *itemRepo) FindByName(_ context.Context, name string) (*inventory.InventoryItem, error) {
	it, ok := (*stockStore)(r).byName(name)
	if !ok {
		return nil, shared.ErrNotFound
	}
	return &it, nil
}

func (r *itemRepo) FindByNames(_ context.Context, names []string) (map[string]*inventory.InventoryItem, error) {
	out := make(map[string]*inventory.InventoryItem)
	for _, n := range names {
		if it, ok := (*stockStore)(r).byName(n); ok {
			out[n] = &it
		}
	}
	return out, nil
}

func (r *itemRepo) FindAll(context.Context, inventory.ItemFilter) ([]inventory.InventoryItem, error) {
	return nil, errors.New("not used")
}

func (r *itemRepo) Count(context.Context, inventory.ItemFilter) (int64, error) {
	return int64(len(r.items)), nil
}

func (r *itemRepo) ExistsByName(_ context.Context, name string) (bool, error) {
	_, ok := (*stockStore)(r).byName(name)
	return ok, nil
}

func (r *itemRepo) Create(_ context.Context, item *inventory.InventoryItem) error {
	if _, ok := (*stockStore)(r).byName(item.Name); ok {
		return shared.ErrAlreadyExists
	}
	r.items[item.ID] = *item
	return nil
}

func (r *itemRepo) SaveWithLock(_ context.Context, item *inventory.InventoryItem) error {
	r.items[item.ID] = *item
	return nil
}

func (r *itemRepo) ApplyStockDelta(_ context.Context, id uuid.UUID, delta decimal.Decimal) error {
	if err := r.failOn[id]; err != nil {
		return err
	}
	it, ok := r.items[id]
	if !ok {
		return shared.ErrNotFound
	}
	it.CurrentStock = it.CurrentStock.Add(delta)
	it.Version++
	r.items[id] = it
	return nil
}

func (r *itemRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(r.items, id)
	return nil
}

type movementRepo stockStore

func (r *movementRepo) Create(_ context.Context, m *inventory.StockMovement) error {
	r.movements = append(r.movements, *m)
	return nil
}

func (r *movementRepo) CreateBatch(ctx context.Context, ms []*inventory.StockMovement) error {
	for _, m := range ms {
		_ = r.Create(ctx, m)
	}
	return nil
}

func (r *movementRepo) FindByID(context.Context, uuid.UUID) (*inventory.StockMovement, error) {
	return nil, shared.ErrNotFound
}

func (r *movementRepo) Find(context.Context, inventory.MovementFilter) ([]inventory.StockMovement, error) {
	return r.movements, nil
}

func (r *movementRepo) Count(context.Context, inventory.MovementFilter) (int64, error) {
	return int64(len(r.movements)), nil
}

func (r *movementRepo) FindByReference(_ context.Context, ref string) ([]inventory.StockMovement, error) {
	var out []inventory.StockMovement
	for _, m := range r.movements {
		if m.ReferenceID == ref {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *movementRepo) ExistsByReference(ctx context.Context, ref string, _ inventory.MovementType) (bool, error) {
	ms, _ := r.FindByReference(ctx, ref)
	return len(ms) > 0, nil
}

func (r *movementRepo) SumByItem(_ context.Context, id uuid.UUID) (decimal.Decimal, error) {
	sum := decimal.Zero
	for _, m := range r.movements {
		if m.InventoryItemID == id {
			sum = sum.Add(m.Quantity)
		}
	}
	return sum, nil
}

type memPlanStore struct {
	mu    sync.Mutex
	plans map[uuid.UUID]*ReconciliationPlan
}

func newMemPlanStore() *memPlanStore {
	return &memPlanStore{plans: make(map[uuid.UUID]*ReconciliationPlan)}
}

func (s *memPlanStore) Save(_ context.Context, plan *ReconciliationPlan) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.plans[plan.ID] = plan
	return nil
}

func (s *memPlanStore) Get(_ context.Context, id uuid.UUID) (*ReconciliationPlan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.plans[id]
	if !ok {
		return nil, ErrPlanNotFound
	}
	return p, nil
}

func (s *memPlanStore) Take(_ context.Context, id uuid.UUID) (*ReconciliationPlan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.plans[id]
	if !ok {
		return nil, ErrPlanNotFound
	}
	delete(s.plans, id)
	return p, nil
}

func (s *memPlanStore) Delete(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.plans, id)
	return nil
}

type recordingArchive struct {
	keys []string
	err  error
}

func (a *recordingArchive) Put(_ context.Context, planID uuid.UUID, filename string, _ []byte) (string, error) {
	if a.err != nil {
		return "", a.err
	}
	key := "imports/" + planID.String() + "/" + filename
	a.keys = append(a.keys, key)
	return key, nil
}
