package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	importapp "github.com/StoneFind22/CineMan/internal/application/import"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const defaultPlanKeyPrefix = "cineman:import:plan:"

// RedisPlanStore keeps import plans in Redis as JSON with a key TTL, so any
// instance behind the load balancer can execute a plan another one analyzed
type RedisPlanStore struct {
	client    redis.UniversalClient
	keyPrefix string
	ttl       time.Duration
}

// NewRedisPlanStore wraps an existing client. An empty keyPrefix uses the default.
func NewRedisPlanStore(client redis.UniversalClient, keyPrefix string, ttl time.Duration) *RedisPlanStore {
	if keyPrefix == "" {
		keyPrefix = defaultPlanKeyPrefix
	}
	return &RedisPlanStore{client: client, keyPrefix: keyPrefix, ttl: ttl}
}

func (s *RedisPlanStore) key(id uuid.UUID) string {
	return s.keyPrefix + id.String()
}

// Save serializes the plan and stores it with the store TTL
func (s *RedisPlanStore) Save(ctx context.Context, plan *importapp.ReconciliationPlan) error {
	payload, err := json.Marshal(plan)
	if err != nil {
		return fmt.Errorf("failed to encode import plan: %w", err)
	}
	if err := s.client.Set(ctx, s.key(plan.ID), payload, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save import plan: %w", err)
	}
	return nil
}

// Get loads a plan, returning importapp.ErrPlanNotFound once the key expired
func (s *RedisPlanStore) Get(ctx context.Context, id uuid.UUID) (*importapp.ReconciliationPlan, error) {
	return decodePlan(s.client.Get(ctx, s.key(id)).Bytes())
}

// Take loads and deletes the plan with GETDEL, so two instances confirming
// the same plan cannot both receive it
func (s *RedisPlanStore) Take(ctx context.Context, id uuid.UUID) (*importapp.ReconciliationPlan, error) {
	return decodePlan(s.client.GetDel(ctx, s.key(id)).Bytes())
}

func decodePlan(payload []byte, err error) (*importapp.ReconciliationPlan, error) {
	if errors.Is(err, redis.Nil) {
		return nil, importapp.ErrPlanNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load import plan: %w", err)
	}

	var plan importapp.ReconciliationPlan
	if err := json.Unmarshal(payload, &plan); err != nil {
		return nil, fmt.Errorf("failed to decode import plan: %w", err)
	}
	return &plan, nil
}

// Delete removes the plan key
func (s *RedisPlanStore) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.client.Del(ctx, s.key(id)).Err(); err != nil {
		return fmt.Errorf("failed to delete import plan: %w", err)
	}
	return nil
}

// PingContext checks that Redis answers
func (s *RedisPlanStore) PingContext(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close closes the underlying client
func (s *RedisPlanStore) Close() error {
	return s.client.Close()
}

var _ importapp.PlanStore = (*RedisPlanStore)(nil)
