package cache

import (
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// MemoryCache implements in-process caching on top of go-cache
type MemoryCache[V any] struct {
	cache *gocache.Cache
}

// NewMemoryCache creates a new memory cache. A defaultTTL of NoExpiration
// keeps entries for the life of the process.
func NewMemoryCache[V any](defaultTTL time.Duration, cleanupInterval time.Duration) *MemoryCache[V] {
	return &MemoryCache[V]{
		cache: gocache.New(defaultTTL, cleanupInterval),
	}
}

// Get retrieves a value from the cache
func (c *MemoryCache[V]) Get(key string) (V, bool) {
	if val, found := c.cache.Get(key); found {
		if v, ok := val.(V); ok {
			return v, true
		}
	}
	var zero V
	return zero, false
}

// Set stores a value; a ttl of 0 uses the cache default
func (c *MemoryCache[V]) Set(key string, value V, ttl time.Duration) error {
	if ttl == 0 {
		ttl = gocache.DefaultExpiration
	}
	c.cache.Set(key, value, ttl)
	return nil
}

// Delete removes a value from the cache
func (c *MemoryCache[V]) Delete(key string) error {
	c.cache.Delete(key)
	return nil
}

// Clear removes all values from the cache
func (c *MemoryCache[V]) Clear() error {
	c.cache.Flush()
	return nil
}
