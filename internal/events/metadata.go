package events

import (
	"context"
	"fmt"
	"sync"

	"github.com/gagliardetto/solana-go"

	"ammcore/internal/model"
	"ammcore/internal/pool"
)

// ConfigSource loads pool configs, usually a ledger snapshot.
type ConfigSource interface {
	LoadConfig(ctx context.Context, key solana.PublicKey) (pool.Config, error)
}

// PoolMetaCache caches pool metadata by config key.
type PoolMetaCache struct {
	mu   sync.RWMutex
	data map[solana.PublicKey]model.PoolMeta
}

func NewPoolMetaCache() *PoolMetaCache {
	return &PoolMetaCache{data: make(map[solana.PublicKey]model.PoolMeta)}
}

func (c *PoolMetaCache) Get(key solana.PublicKey) (model.PoolMeta, bool) {
	c.mu.RLock()
	meta, ok := c.data[key]
	c.mu.RUnlock()
	return meta, ok
}

func (c *PoolMetaCache) Set(key solana.PublicKey, meta model.PoolMeta) {
	c.mu.Lock()
	c.data[key] = meta
	c.mu.Unlock()
}

// MetaFromConfig keeps the immutable part of cfg.
func MetaFromConfig(cfg pool.Config) model.PoolMeta {
	return model.PoolMeta{
		Seed:   cfg.Seed,
		MintX:  cfg.MintX.String(),
		MintY:  cfg.MintY.String(),
		MintLP: cfg.MintLP.String(),
		FeeBps: cfg.FeeBps,
	}
}

// FetchPoolMeta loads pool metadata from source.
func FetchPoolMeta(ctx context.Context, source ConfigSource, key solana.PublicKey) (model.PoolMeta, error) {
	if source == nil {
		return model.PoolMeta{}, fmt.Errorf("no metadata for pool %s", key)
	}
	cfg, err := source.LoadConfig(ctx, key)
	if err != nil {
		return model.PoolMeta{}, fmt.Errorf("load pool %s: %w", key, err)
	}
	return MetaFromConfig(cfg), nil
}
