package cache

import (
	"context"
	"time"

	"github.com/iwvelando/deal-calculator/internal/deal"
	gocache "github.com/patrickmn/go-cache"
)

// MemoryCache keeps results in process memory until they expire.
type MemoryCache struct {
	store *gocache.Cache
}

// NewMemoryCache creates a cache whose entries live for ttl. Expired entries
// are purged every cleanup interval.
func NewMemoryCache(ttl, cleanup time.Duration) *MemoryCache {
	return &MemoryCache{store: gocache.New(ttl, cleanup)}
}

// Get implements Cache.
func (c *MemoryCache) Get(_ context.Context, key string) (deal.Result, bool) {
	value, found := c.store.Get(key)
	if !found {
		return deal.Result{}, false
	}
	result, ok := value.(deal.Result)
	return result, ok
}

// Set implements Cache.
func (c *MemoryCache) Set(_ context.Context, key string, result deal.Result) error {
	c.store.SetDefault(key, result)
	return nil
}

// Len reports the number of cached entries, including expired ones not yet purged.
func (c *MemoryCache) Len() int {
	return c.store.ItemCount()
}

// Close implements Cache.
func (c *MemoryCache) Close() error {
	c.store.Flush()
	return nil
}
