// Package memo caches derived values keyed by object identity.
//
// Synthetic trees are immutable and every structural change allocates new
// node objects along the changed path, so a value computed from a given set
// of node pointers stays valid for as long as those pointers are alive.
// Keys are built from weak pointers: a cached entry never keeps its inputs
// alive, and ForgetWhenCollected drops an entry once its anchor object has
// been garbage collected. The LRU bound caps retention for entries whose
// values reference their own inputs.
package memo

import (
	"runtime"
	"weak"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultSize is the default number of entries per cache.
const DefaultSize = 4096

// Ref returns the identity key for p. Two refs are equal exactly when they
// were made from the same pointer.
func Ref[T any](p *T) weak.Pointer[T] {
	return weak.Make(p)
}

// Cache is a bounded, concurrency-safe, identity-keyed cache.
type Cache[K comparable, V any] struct {
	entries *lru.Cache[K, V]
}

// New creates a cache holding at most size entries. A non-positive size
// selects DefaultSize.
func New[K comparable, V any](size int) (*Cache[K, V], error) {
	if size <= 0 {
		size = DefaultSize
	}
	entries, err := lru.New[K, V](size)
	if err != nil {
		return nil, err
	}
	return &Cache[K, V]{entries: entries}, nil
}

// Get returns the value cached for key.
func (c *Cache[K, V]) Get(key K) (V, bool) {
	return c.entries.Get(key)
}

// Add caches value under key.
func (c *Cache[K, V]) Add(key K, value V) {
	c.entries.Add(key, value)
}

// Remove drops the entry for key, if any.
func (c *Cache[K, V]) Remove(key K) {
	c.entries.Remove(key)
}

// Len returns the number of cached entries.
func (c *Cache[K, V]) Len() int {
	return c.entries.Len()
}

// Purge drops every entry.
func (c *Cache[K, V]) Purge() {
	c.entries.Purge()
}

// GetOrCompute returns the cached value for key, computing and caching it
// on a miss. The entry is dropped once anchor is collected.
func GetOrCompute[T any, K comparable, V any](c *Cache[K, V], anchor *T, key K, compute func() V) V {
	if value, ok := c.Get(key); ok {
		return value
	}
	value := compute()
	c.Add(key, value)
	ForgetWhenCollected(c, anchor, key)
	return value
}

// ForgetWhenCollected removes key from c after anchor becomes unreachable.
func ForgetWhenCollected[T any, K comparable, V any](c *Cache[K, V], anchor *T, key K) {
	if anchor == nil {
		return
	}
	runtime.AddCleanup(anchor, func(k K) {
		c.Remove(k)
	}, key)
}
