package cache

import (
	"context"
	"sync"
	"time"

	importapp "github.com/StoneFind22/CineMan/internal/application/import"
	"github.com/google/uuid"
)

// planEntry is a stored plan with its expiration
type planEntry struct {
	plan      *importapp.ReconciliationPlan
	expiresAt time.Time
}

// MemoryPlanStore keeps import plans in process memory.
// Plans are lost on restart and are not shared between instances.
type MemoryPlanStore struct {
	mu        sync.RWMutex
	plans     map[uuid.UUID]planEntry
	ttl       time.Duration
	now       func() time.Time
	stopChan  chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewMemoryPlanStore creates a store whose plans expire after ttl.
// A background goroutine sweeps expired plans every sweepInterval; Close stops it.
func NewMemoryPlanStore(ttl, sweepInterval time.Duration) *MemoryPlanStore {
	if sweepInterval <= 0 {
		sweepInterval = time.Minute
	}
	s := &MemoryPlanStore{
		plans:    make(map[uuid.UUID]planEntry),
		ttl:      ttl,
		now:      time.Now,
		stopChan: make(chan struct{}),
	}

	s.wg.Add(1)
	go s.sweepLoop(sweepInterval)

	return s
}

// Save stores the plan, replacing any plan with the same ID and restarting its TTL
func (s *MemoryPlanStore) Save(_ context.Context, plan *importapp.ReconciliationPlan) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.plans[plan.ID] = planEntry{plan: plan, expiresAt: s.now().Add(s.ttl)}
	return nil
}

// Get returns the plan or importapp.ErrPlanNotFound when missing or expired
func (s *MemoryPlanStore) Get(_ context.Context, id uuid.UUID) (*importapp.ReconciliationPlan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.plans[id]
	if !ok || !s.now().Before(e.expiresAt) {
		return nil, importapp.ErrPlanNotFound
	}
	return e.plan, nil
}

// Take returns the plan and forgets it under the same lock
func (s *MemoryPlanStore) Take(_ context.Context, id uuid.UUID) (*importapp.ReconciliationPlan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.plans[id]
	delete(s.plans, id)
	if !ok || !s.now().Before(e.expiresAt) {
		return nil, importapp.ErrPlanNotFound
	}
	return e.plan, nil
}

// Delete forgets the plan
func (s *MemoryPlanStore) Delete(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.plans, id)
	return nil
}

// Close stops the sweeper. Safe to call multiple times.
func (s *MemoryPlanStore) Close() error {
	s.closeOnce.Do(func() {
		close(s.stopChan)
		s.wg.Wait()
	})
	return nil
}

// Size returns the number of stored plans, expired ones included until swept
func (s *MemoryPlanStore) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.plans)
}

func (s *MemoryPlanStore) sweepLoop(interval time.Duration) {
	defer s.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopChan:
			return
		case <-ticker.C:
			s.sweep()
		}
	}
}

// sweep removes expired plans
func (s *MemoryPlanStore) sweep() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for id, e := range s.plans {
		if !now.Before(e.expiresAt) {
			delete(s.plans, id)
		}
	}
}

var _ importapp.PlanStore = (*MemoryPlanStore)(nil)
