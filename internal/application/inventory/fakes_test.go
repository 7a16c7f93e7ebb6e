package inventory

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"github.com/StoneFind22/CineMan/internal/domain/catalog"
	"github.com/StoneFind22/CineMan/internal/domain/inventory"
	"github.com/StoneFind22/CineMan/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// memStore is an in-memory stand-in for the database. memTxScope snapshots
// it before each unit of work and restores the snapshot on error.
type memStore struct {
	mu        sync.Mutex
	items     map[uuid.UUID]inventory.InventoryItem
	movements []inventory.StockMovement
	products  map[uuid.UUID]catalog.Product
	recipes   map[uuid.UUID][]catalog.RecipeComponent

	failDeltaOn map[uuid.UUID]error
}

func newMemStore() *memStore {
	return &memStore{
		items:       make(map[uuid.UUID]inventory.InventoryItem),
		products:    make(map[uuid.UUID]catalog.Product),
		recipes:     make(map[uuid.UUID][]catalog.RecipeComponent),
		failDeltaOn: make(map[uuid.UUID]error),
	}
}

type memSnapshot struct {
	items     map[uuid.UUID]inventory.InventoryItem
	movements []inventory.StockMovement
}

func (s *memStore) snapshot() memSnapshot {
	items := make(map[uuid.UUID]inventory.InventoryItem, len(s.items))
	for k, v := range s.items {
		items[k] = v
	}
	movements := make([]inventory.StockMovement, len(s.movements))
	copy(movements, s.movements)
	return memSnapshot{items: items, movements: movements}
}

func (s *memStore) restore(snap memSnapshot) {
	s.items = snap.items
	s.movements = snap.movements
}

func (s *memStore) scope() *memTxScope {
	return &memTxScope{store: s}
}

type memTxScope struct {
	store *memStore
}

func (t *memTxScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	snap := t.store.snapshot()
	if err := fn(t); err != nil {
		t.store.restore(snap)
		return err
	}
	return nil
}

func (t *memTxScope) ItemRepo() inventory.InventoryItemRepository { return &memItemRepo{t.store} }
func (t *memTxScope) MovementRepo() inventory.StockMovementRepository {
	return &memMovementRepo{t.store}
}
func (t *memTxScope) ProductRepo() catalog.ProductRepository { return &memProductRepo{t.store} }
func (t *memTxScope) RecipeRepo() catalog.RecipeRepository   { return &memRecipeRepo{t.store} }

type memItemRepo struct{ s *memStore }

func (r *memItemRepo) FindByID(_ context.Context, id uuid.UUID) (*inventory.InventoryItem, error) {
	item, ok := r.s.items[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return &item, nil
}

func (r *memItemRepo) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*inventory.InventoryItem, error) {
	return r.FindByID(ctx, id)
}

func (r *memItemRepo) FindByName(_ context.Context, name string) (*inventory.InventoryItem, error) {
	for _, item := range r.s.items {
		if item.Name == name {
			it := item
			return &it, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *memItemRepo) FindByNames(_ context.Context, names []string) (map[string]*inventory.InventoryItem, error) {
	out := make(map[string]*inventory.InventoryItem)
	for _, n := range names {
		for _, item := range r.s.items {
			if item.Name == n {
				it := item
				out[n] = &it
			}
		}
	}
	return out, nil
}

func (r *memItemRepo) FindAll(_ context.Context, filter inventory.ItemFilter) ([]inventory.InventoryItem, error) {
	var out []inventory.InventoryItem
	for _, item := range r.s.items {
		if filter.Search != "" && !strings.Contains(strings.ToLower(item.Name), strings.ToLower(filter.Search)) {
			continue
		}
		if filter.BelowReorder && !item.IsBelowReorderPoint() {
			continue
		}
		if filter.Negative && !item.CurrentStock.IsNegative() {
			continue
		}
		out = append(out, item)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *memItemRepo) Count(ctx context.Context, filter inventory.ItemFilter) (int64, error) {
	items, _ := r.FindAll(ctx, filter)
	return int64(len(items)), nil
}

func (r *memItemRepo) ExistsByName(ctx context.Context, name string) (bool, error) {
	_, err := r.FindByName(ctx, name)
	return err == nil, nil
}

func (r *memItemRepo) Create(_ context.Context, item *inventory.InventoryItem) error {
	r.s.items[item.ID] = *item
	return nil
}

func (r *memItemRepo) SaveWithLock(_ context.Context, item *inventory.InventoryItem) error {
	stored, ok := r.s.items[item.ID]
	if !ok {
		return shared.ErrNotFound
	}
	if stored.Version != item.Version-1 {
		return shared.NewDomainError("OPTIMISTIC_LOCK_FAILED", "version mismatch")
	}
	item.CurrentStock = stored.CurrentStock
	r.s.items[item.ID] = *item
	return nil
}

func (r *memItemRepo) ApplyStockDelta(_ context.Context, id uuid.UUID, delta decimal.Decimal) error {
	if err := r.s.failDeltaOn[id]; err != nil {
		return err
	}
	item, ok := r.s.items[id]
	if !ok {
		return shared.ErrNotFound
	}
	item.CurrentStock = item.CurrentStock.Add(delta)
	item.Version++
	r.s.items[id] = item
	return nil
}

func (r *memItemRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(r.s.items, id)
	return nil
}

type memMovementRepo struct{ s *memStore }

func (r *memMovementRepo) Create(_ context.Context, m *inventory.StockMovement) error {
	r.s.movements = append(r.s.movements, *m)
	return nil
}

func (r *memMovementRepo) CreateBatch(ctx context.Context, ms []*inventory.StockMovement) error {
	for _, m := range ms {
		_ = r.Create(ctx, m)
	}
	return nil
}

func (r *memMovementRepo) FindByID(_ context.Context, id uuid.UUID) (*inventory.StockMovement, error) {
	for _, m := range r.s.movements {
		if m.ID == id {
			mm := m
			return &mm, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *memMovementRepo) Find(_ context.Context, f inventory.MovementFilter) ([]inventory.StockMovement, error) {
	var out []inventory.StockMovement
	for _, m := range r.s.movements {
		if f.InventoryItemID != nil && m.InventoryItemID != *f.InventoryItemID {
			continue
		}
		if f.MovementType != "" && m.MovementType != f.MovementType {
			continue
		}
		if f.ReferenceID != "" && m.ReferenceID != f.ReferenceID {
			continue
		}
		if f.From != nil && m.CreatedAt.Before(*f.From) {
			continue
		}
		if f.To != nil && m.CreatedAt.After(*f.To) {
			continue
		}
		out = append(out, m)
	}
	return out, nil
}

func (r *memMovementRepo) Count(ctx context.Context, f inventory.MovementFilter) (int64, error) {
	ms, _ := r.Find(ctx, f)
	return int64(len(ms)), nil
}

func (r *memMovementRepo) FindByReference(ctx context.Context, ref string) ([]inventory.StockMovement, error) {
	return r.Find(ctx, inventory.MovementFilter{ReferenceID: ref})
}

func (r *memMovementRepo) ExistsByReference(ctx context.Context, ref string, t inventory.MovementType) (bool, error) {
	n, _ := r.Count(ctx, inventory.MovementFilter{ReferenceID: ref, MovementType: t})
	return n > 0, nil
}

func (r *memMovementRepo) SumByItem(_ context.Context, itemID uuid.UUID) (decimal.Decimal, error) {
	sum := decimal.Zero
	for _, m := range r.s.movements {
		if m.InventoryItemID == itemID {
			sum = sum.Add(m.Quantity)
		}
	}
	return sum, nil
}

type memProductRepo struct{ s *memStore }

func (r *memProductRepo) FindByID(_ context.Context, id uuid.UUID) (*catalog.Product, error) {
	p, ok := r.s.products[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return &p, nil
}

func (r *memProductRepo) FindByIDs(_ context.Context, ids []uuid.UUID) ([]catalog.Product, error) {
	var out []catalog.Product
	for _, id := range ids {
		if p, ok := r.s.products[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *memProductRepo) FindByName(_ context.Context, name string) (*catalog.Product, error) {
	for _, p := range r.s.products {
		if p.Name == name {
			pp := p
			return &pp, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *memProductRepo) FindAll(_ context.Context, _ catalog.ProductFilter) ([]catalog.Product, error) {
	var out []catalog.Product
	for _, p := range r.s.products {
		out = append(out, p)
	}
	return out, nil
}

func (r *memProductRepo) Count(_ context.Context, _ catalog.ProductFilter) (int64, error) {
	return int64(len(r.s.products)), nil
}

func (r *memProductRepo) ExistsByName(ctx context.Context, name string) (bool, error) {
	_, err := r.FindByName(ctx, name)
	return err == nil, nil
}

func (r *memProductRepo) CountByCategory(_ context.Context, _ uuid.UUID) (int64, error) {
	return 0, nil
}

func (r *memProductRepo) Create(_ context.Context, p *catalog.Product) error {
	r.s.products[p.ID] = *p
	return nil
}

func (r *memProductRepo) SaveWithLock(_ context.Context, p *catalog.Product) error {
	r.s.products[p.ID] = *p
	return nil
}

func (r *memProductRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(r.s.products, id)
	return nil
}

type memRecipeRepo struct{ s *memStore }

func (r *memRecipeRepo) FindByParent(_ context.Context, parentID uuid.UUID) ([]catalog.RecipeComponent, error) {
	return r.s.recipes[parentID], nil
}

func (r *memRecipeRepo) ReplaceForParent(_ context.Context, parentID uuid.UUID, cs []catalog.RecipeComponent) error {
	r.s.recipes[parentID] = cs
	return nil
}

func (r *memRecipeRepo) CountByInventoryItem(_ context.Context, itemID uuid.UUID) (int64, error) {
	var n int64
	for _, cs := range r.s.recipes {
		for _, c := range cs {
			if c.InventoryItemID != nil && *c.InventoryItemID == itemID {
				n++
			}
		}
	}
	return n, nil
}

func (r *memRecipeRepo) CountByChildProduct(_ context.Context, productID uuid.UUID) (int64, error) {
	var n int64
	for _, cs := range r.s.recipes {
		for _, c := range cs {
			if c.ChildProductID != nil && *c.ChildProductID == productID {
				n++
			}
		}
	}
	return n, nil
}

// recordingPublisher captures published events
type recordingPublisher struct {
	mu     sync.Mutex
	events []shared.DomainEvent
}

func (p *recordingPublisher) Publish(_ context.Context, events ...shared.DomainEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, events...)
	return nil
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.EventType()
	}
	return out
}

var errInjected = errors.New("injected failure")
