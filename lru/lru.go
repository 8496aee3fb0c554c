// Package lru implements a fixed-capacity least recently used cache.
//
// Cache is not safe for concurrent use. Hosts that serve requests from
// several goroutines must serialize access, for example through Locked.
package lru

import (
	"errors"
	"fmt"
)

// ErrInvalidConfiguration is returned by New when the capacity is not positive.
var ErrInvalidConfiguration = errors.New("lru: invalid configuration")

// Sentinel slots in the arena. They never hold data and are never reused.
const (
	head = 0 // most recently used side
	tail = 1 // least recently used side
)

// entry is one arena slot. prev and next are arena indices.
type entry[K comparable, V any] struct {
	key        K
	value      V
	prev, next int
}

// Cache implements a Least Recently Used cache
type Cache[K comparable, V any] struct {
	capacity int
	items    map[K]int
	arena    []entry[K, V]
}

// New creates a cache holding at most capacity entries.
func New[K comparable, V any](capacity int) (*Cache[K, V], error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("%w: capacity must be positive, got %d", ErrInvalidConfiguration, capacity)
	}
	lru := &Cache[K, V]{
		capacity: capacity,
		items:    make(map[K]int, min(capacity, 1024)),
		arena:    make([]entry[K, V], 2, min(capacity, 1024)+2),
	}
	lru.arena[head].next = tail
	lru.arena[tail].prev = head
	return lru, nil
}

// Get retrieves a value from the cache and marks it most recently used.
// The boolean reports whether the key was present.
func (lru *Cache[K, V]) Get(key K) (V, bool) {
	if idx, exists := lru.items[key]; exists {
		lru.moveToFront(idx)
		return lru.arena[idx].value, true
	}
	var zero V
	return zero, false
}

// Put adds or updates a key-value pair. Inserting a new key into a full
// cache evicts the least recently used entry first.
func (lru *Cache[K, V]) Put(key K, value V) {
	if idx, exists := lru.items[key]; exists {
		lru.arena[idx].value = value
		lru.moveToFront(idx)
		return
	}

	var idx int
	if len(lru.items) == lru.capacity {
		idx = lru.removeLRU()
	} else {
		idx = len(lru.arena)
		lru.arena = append(lru.arena, entry[K, V]{})
	}
	lru.arena[idx].key = key
	lru.arena[idx].value = value
	lru.items[key] = idx
	lru.addToFront(idx)
}

// Len returns the current number of items in the cache.
func (lru *Cache[K, V]) Len() int {
	return len(lru.items)
}

// Cap returns the capacity fixed at construction.
func (lru *Cache[K, V]) Cap() int {
	return lru.capacity
}

// Remaining returns the number of free slots before eviction starts.
func (lru *Cache[K, V]) Remaining() int {
	return lru.capacity - len(lru.items)
}

// Keys returns the cached keys from most to least recently used.
// It does not change recency.
func (lru *Cache[K, V]) Keys() []K {
	keys := make([]K, 0, len(lru.items))
	for idx := lru.arena[head].next; idx != tail; idx = lru.arena[idx].next {
		keys = append(keys, lru.arena[idx].key)
	}
	return keys
}

// moveToFront moves an existing entry to the front (most recently used).
func (lru *Cache[K, V]) moveToFront(idx int) {
	if lru.arena[head].next == idx {
		return
	}
	lru.unlink(idx)
	lru.addToFront(idx)
}

// addToFront links the slot right after the head sentinel.
func (lru *Cache[K, V]) addToFront(idx int) {
	first := lru.arena[head].next
	lru.arena[idx].prev = head
	lru.arena[idx].next = first
	lru.arena[first].prev = idx
	lru.arena[head].next = idx
}

// unlink removes the slot from the recency sequence.
func (lru *Cache[K, V]) unlink(idx int) {
	e := &lru.arena[idx]
	lru.arena[e.prev].next = e.next
	lru.arena[e.next].prev = e.prev
}

// removeLRU drops the least recently used entry and returns its now free slot.
func (lru *Cache[K, V]) removeLRU() int {
	idx := lru.arena[tail].prev
	lru.unlink(idx)
	delete(lru.items, lru.arena[idx].key)
	lru.arena[idx] = entry[K, V]{}
	return idx
}
