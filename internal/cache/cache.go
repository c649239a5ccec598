package cache

import "time"

// Cache defines a keyed store of already-decoded values
type Cache[V any] interface {
	Get(key string) (V, bool)
	Set(key string, value V, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// NoExpiration keeps an entry until it is deleted or the cache is cleared
const NoExpiration time.Duration = -1
