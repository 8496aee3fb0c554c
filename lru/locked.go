package lru

import "sync"

// Locked guards a Cache with a mutex so it can be shared between
// request-handling goroutines. Get mutates recency, so every method takes
// the exclusive lock.
type Locked[K comparable, V any] struct {
	cache *Cache[K, V]
	mu    sync.Mutex
}

// NewLocked creates a concurrency-safe cache holding at most capacity entries.
func NewLocked[K comparable, V any](capacity int) (*Locked[K, V], error) {
	cache, err := New[K, V](capacity)
	if err != nil {
		return nil, err
	}
	return &Locked[K, V]{cache: cache}, nil
}

func (c *Locked[K, V]) Get(key K) (value V, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.cache.Get(key)
}

func (c *Locked[K, V]) Put(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.cache.Put(key, value)
}

// Update runs fn on the current value of key in one critical section.
// ok is false when the key was absent. If fn returns store=true its value is
// written with Put semantics, so it may evict and ends up most recently used;
// otherwise the cache keeps what it had. Update reports the value the cache
// now holds for key and whether there is one.
func (c *Locked[K, V]) Update(key K, fn func(old V, ok bool) (value V, store bool)) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	old, ok := c.cache.Get(key)
	value, store := fn(old, ok)
	if !store {
		return old, ok
	}
	c.cache.Put(key, value)
	return value, true
}

func (c *Locked[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.cache.Len()
}

// Cap is fixed at construction and needs no lock.
func (c *Locked[K, V]) Cap() int {
	return c.cache.Cap()
}

func (c *Locked[K, V]) Remaining() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.cache.Remaining()
}

func (c *Locked[K, V]) Keys() []K {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.cache.Keys()
}
