package cache

import (
	"context"
	"fmt"
	"io"
	"time"

	importapp "github.com/StoneFind22/CineMan/internal/application/import"
	"github.com/StoneFind22/CineMan/internal/infrastructure/config"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// PlanStore is an import plan store that owns background resources
type PlanStore interface {
	importapp.PlanStore
	io.Closer
}

// PlanStoreFactory builds the plan store selected by import.plan_store
type PlanStoreFactory struct {
	importConfig          config.ImportConfig
	redisConfig           config.RedisConfig
	logger                *zap.Logger
	allowInMemoryFallback bool
	pingTimeout           time.Duration
}

// PlanStoreFactoryOption is a functional option for configuring the factory
type PlanStoreFactoryOption func(*PlanStoreFactory)

// WithLogger sets the logger for the factory
func WithLogger(logger *zap.Logger) PlanStoreFactoryOption {
	return func(f *PlanStoreFactory) {
		f.logger = logger
	}
}

// WithInMemoryFallback controls whether an unreachable Redis falls back to
// the in-memory store. Default is true.
func WithInMemoryFallback(allow bool) PlanStoreFactoryOption {
	return func(f *PlanStoreFactory) {
		f.allowInMemoryFallback = allow
	}
}

// NewPlanStoreFactory creates a new factory
func NewPlanStoreFactory(importCfg config.ImportConfig, redisCfg config.RedisConfig, opts ...PlanStoreFactoryOption) *PlanStoreFactory {
	f := &PlanStoreFactory{
		importConfig:          importCfg,
		redisConfig:           redisCfg,
		logger:                zap.NewNop(),
		allowInMemoryFallback: true,
		pingTimeout:           5 * time.Second,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// CreateMemoryStore creates an in-process store
func (f *PlanStoreFactory) CreateMemoryStore() *MemoryPlanStore {
	return NewMemoryPlanStore(f.importConfig.PlanTTL, f.importConfig.PlanTTL/4)
}

// CreateRedisStore connects to Redis and creates a shared store
func (f *PlanStoreFactory) CreateRedisStore(ctx context.Context) (*RedisPlanStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     f.redisConfig.Addr(),
		Password: f.redisConfig.Password,
		DB:       f.redisConfig.DB,
	})

	ctx, cancel := context.WithTimeout(ctx, f.pingTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", f.redisConfig.Addr(), err)
	}

	return NewRedisPlanStore(client, "", f.importConfig.PlanTTL), nil
}

// CreateStore returns the configured store. With plan_store=redis and Redis
// unreachable it falls back to memory unless the fallback was disabled.
func (f *PlanStoreFactory) CreateStore(ctx context.Context) (PlanStore, error) {
	if f.importConfig.PlanStore != config.PlanStoreRedis {
		f.logger.Info("using in-memory import plan store", zap.Duration("ttl", f.importConfig.PlanTTL))
		return f.CreateMemoryStore(), nil
	}

	store, err := f.CreateRedisStore(ctx)
	if err == nil {
		f.logger.Info("using Redis import plan store", zap.String("addr", f.redisConfig.Addr()))
		return store, nil
	}
	if !f.allowInMemoryFallback {
		return nil, fmt.Errorf("Redis required for import plans but unavailable: %w", err)
	}

	f.logger.Warn("Redis unavailable, falling back to in-memory import plan store. "+
		"Plans analyzed on one instance cannot be executed on another.",
		zap.Error(err),
	)
	return f.CreateMemoryStore(), nil
}
