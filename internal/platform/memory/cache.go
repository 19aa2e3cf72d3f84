package memory

import (
	"context"
	"time"

	"github.com/phrazzld/tasklist-api/internal/cache"
	"github.com/viccon/sturdyc"
)

// entry pairs a payload with its own deadline; sturdyc only knows one TTL
// for the whole client.
type entry struct {
	payload   []byte
	expiresAt time.Time
}

// CacheConfig sizes the in-process cache.
type CacheConfig struct {
	Capacity  int
	NumShards int
	// MaxTTL is the client-wide eviction horizon. A Set with a longer ttl
	// is cut short to MaxTTL.
	MaxTTL time.Duration
	// EvictionPercentage is the share of a full shard evicted at once.
	EvictionPercentage int
}

// Cache implements cache.Cache on a sharded sturdyc client.
type Cache struct {
	client *sturdyc.Client[entry]
	now    func() time.Time
}

var _ cache.Cache = (*Cache)(nil)

// NewCache creates an in-process cache.
func NewCache(cfg CacheConfig) *Cache {
	if cfg.Capacity <= 0 {
		cfg.Capacity = 10000
	}
	if cfg.NumShards <= 0 {
		cfg.NumShards = 16
	}
	if cfg.MaxTTL <= 0 {
		cfg.MaxTTL = 30 * time.Minute
	}
	if cfg.EvictionPercentage <= 0 || cfg.EvictionPercentage > 100 {
		cfg.EvictionPercentage = 10
	}
	return &Cache{
		client: sturdyc.New[entry](cfg.Capacity, cfg.NumShards, cfg.MaxTTL, cfg.EvictionPercentage),
		now:    time.Now,
	}
}

// Get implements cache.Cache.
func (c *Cache) Get(_ context.Context, key string) ([]byte, error) {
	e, ok := c.client.Get(key)
	if !ok {
		return nil, cache.ErrMiss
	}
	if !c.now().Before(e.expiresAt) {
		c.client.Delete(key)
		return nil, cache.ErrMiss
	}
	return e.payload, nil
}

// Set implements cache.Cache. The payload is copied.
func (c *Cache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	payload := make([]byte, len(value))
	copy(payload, value)
	c.client.Set(key, entry{payload: payload, expiresAt: c.now().Add(ttl)})
	return nil
}

// Delete implements cache.Cache.
func (c *Cache) Delete(_ context.Context, key string) error {
	c.client.Delete(key)
	return nil
}

// Len reports the number of stored entries, expired ones included.
func (c *Cache) Len() int {
	return c.client.Size()
}
