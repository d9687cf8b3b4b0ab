// Package refcache keeps immutable reference rows (document types, payment
// types and statuses) in process memory.
package refcache

import (
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// Cache is a typed view over go-cache. Only successful loads are stored.
type Cache[T any] struct {
	c *gocache.Cache
}

func New[T any](ttl time.Duration) *Cache[T] {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &Cache[T]{c: gocache.New(ttl, time.Minute)}
}

func (c *Cache[T]) Get(key string) (T, bool) {
	var zero T
	if c == nil {
		return zero, false
	}
	v, ok := c.c.Get(key)
	if !ok {
		return zero, false
	}
	typed, ok := v.(T)
	return typed, ok
}

func (c *Cache[T]) Set(key string, value T) {
	if c == nil {
		return
	}
	c.c.SetDefault(key, value)
}

// GetOrLoad returns the cached value or calls load and caches its result.
func (c *Cache[T]) GetOrLoad(key string, load func() (T, error)) (T, error) {
	if v, ok := c.Get(key); ok {
		return v, nil
	}
	v, err := load()
	if err != nil {
		return v, err
	}
	c.Set(key, v)
	return v, nil
}

func (c *Cache[T]) Flush() {
	if c == nil {
		return
	}
	c.c.Flush()
}
