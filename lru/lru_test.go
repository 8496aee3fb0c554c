package lru

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCache[K comparable, V any](t *testing.T, capacity int) *Cache[K, V] {
	t.Helper()
	c, err := New[K, V](capacity)
	require.NoError(t, err)
	return c
}

func TestNewInvalidCapacity(t *testing.T) {
	for _, capacity := range []int{0, -1, -100} {
		c, err := New[string, int](capacity)
		require.ErrorIs(t, err, ErrInvalidConfiguration, "capacity %d", capacity)
		assert.Nil(t, c)
	}
}

func TestMissThenInsert(t *testing.T) {
	c := newCache[string, int](t, 4)

	_, ok := c.Get("k")
	assert.False(t, ok)

	c.Put("k", 7)
	v, ok := c.Get("k")
	require.True(t, ok)
	assert.Equal(t, 7, v)
}

func TestZeroValueIsNotAMiss(t *testing.T) {
	c := newCache[string, *int](t, 2)

	c.Put("nil", nil)
	v, ok := c.Get("nil")
	assert.True(t, ok)
	assert.Nil(t, v)

	_, ok = c.Get("absent")
	assert.False(t, ok)
}

func TestEvictionDeterminism(t *testing.T) {
	c := newCache[string, int](t, 2)
	c.Put("a", 1)
	c.Put("b", 2)
	c.Put("c", 3)

	assert.Equal(t, []string{"c", "b"}, c.Keys())
	_, ok := c.Get("a")
	assert.False(t, ok)
}

func TestUpdateNotDuplicate(t *testing.T) {
	c := newCache[string, string](t, 3)
	c.Put("k", "v1")
	c.Put("other", "x")
	before := c.Len()

	c.Put("k", "v2")
	assert.Equal(t, before, c.Len())
	assert.Equal(t, []string{"k", "other"}, c.Keys())

	v, ok := c.Get("k")
	require.True(t, ok)
	assert.Equal(t, "v2", v)
}

func TestRepeatedPutSameKey(t *testing.T) {
	c := newCache[int, int](t, 2)
	for i := 0; i < 100; i++ {
		c.Put(1, i)
	}
	assert.Equal(t, 1, c.Len())
	v, _ := c.Get(1)
	assert.Equal(t, 99, v)
}

func TestPromotionOnRead(t *testing.T) {
	const n = 5
	c := newCache[string, int](t, n)
	for i := 1; i <= n; i++ {
		c.Put(fmt.Sprintf("k%d", i), i)
	}

	_, ok := c.Get("k1")
	require.True(t, ok)
	c.Put("k6", 6)

	_, ok = c.Get("k2")
	assert.False(t, ok, "k2 should have been evicted")
	_, ok = c.Get("k1")
	assert.True(t, ok, "k1 was promoted and must survive")
}

func TestPromotionOnUpdate(t *testing.T) {
	c := newCache[string, int](t, 2)
	c.Put("a", 1)
	c.Put("b", 2)
	c.Put("a", 10)
	c.Put("c", 3)

	assert.Equal(t, []string{"c", "a"}, c.Keys())
}

func TestEvictedKeyIsForgotten(t *testing.T) {
	c := newCache[string, int](t, 1)
	c.Put("a", 1)
	c.Put("b", 2)

	_, ok := c.Get("a")
	require.False(t, ok)

	c.Put("a", 3)
	v, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, 3, v)
	assert.Equal(t, []string{"a"}, c.Keys())
}

func TestCapacityOne(t *testing.T) {
	c := newCache[int, int](t, 1)
	for i := 0; i < 10; i++ {
		c.Put(i, i)
		assert.Equal(t, 1, c.Len())
		assert.Equal(t, []int{i}, c.Keys())
	}
}

func TestCapacityTracking(t *testing.T) {
	c := newCache[int, int](t, 3)
	assert.Equal(t, 3, c.Cap())
	assert.Equal(t, 3, c.Remaining())

	c.Put(1, 1)
	c.Put(2, 2)
	assert.Equal(t, 2, c.Len())
	assert.Equal(t, 1, c.Remaining())

	c.Put(3, 3)
	c.Put(4, 4)
	assert.Equal(t, 3, c.Len())
	assert.Equal(t, 0, c.Remaining())
}

func TestKeysDoesNotTouchRecency(t *testing.T) {
	c := newCache[int, int](t, 2)
	c.Put(1, 1)
	c.Put(2, 2)
	c.Keys()
	c.Put(3, 3)

	_, ok := c.Get(1)
	assert.False(t, ok)
}

func TestArenaBounded(t *testing.T) {
	c := newCache[int, int](t, 8)
	for i := 0; i < 1000; i++ {
		c.Put(i, i)
	}
	assert.Len(t, c.arena, 8+2)
	assert.Len(t, c.items, 8)
}

// checkConsistency walks the sequence, verifying back links, and cross-checks it
// against the index.
func checkConsistency[K comparable, V any](t *testing.T, c *Cache[K, V]) {
	t.Helper()

	seen := make(map[K]bool)
	prev := head
	for idx := c.arena[head].next; idx != tail; idx = c.arena[idx].next {
		require.NotEqual(t, head, idx)
		require.Equal(t, prev, c.arena[idx].prev, "broken back link at slot %d", idx)
		key := c.arena[idx].key
		require.False(t, seen[key], "duplicate key %v", key)
		seen[key] = true
		require.Equal(t, idx, c.items[key], "index points elsewhere for %v", key)
		prev = idx
	}
	require.Equal(t, prev, c.arena[tail].prev)
	require.Len(t, c.items, len(seen))
	require.LessOrEqual(t, len(c.items), c.capacity)
}

func TestRandomOperationsAgainstModel(t *testing.T) {
	const capacity = 16
	rng := rand.New(rand.NewSource(1))
	c := newCache[int, int](t, capacity)

	// model holds keys from most to least recently used
	model := []int{}
	values := make(map[int]int)
	touch := func(k int) {
		for i, mk := range model {
			if mk == k {
				model = append(model[:i], model[i+1:]...)
				break
			}
		}
		model = append([]int{k}, model...)
	}

	for step := 0; step < 5000; step++ {
		k := rng.Intn(40)
		if rng.Intn(2) == 0 {
			v, ok := c.Get(k)
			_, want := values[k]
			require.Equal(t, want, ok, "step %d get %d", step, k)
			if ok {
				require.Equal(t, values[k], v)
				touch(k)
			}
		} else {
			v := rng.Int()
			c.Put(k, v)
			if _, exists := values[k]; !exists && len(model) == capacity {
				evicted := model[len(model)-1]
				model = model[:len(model)-1]
				delete(values, evicted)
			}
			values[k] = v
			touch(k)
		}
		require.Equal(t, model, c.Keys(), "step %d", step)
		if step%100 == 0 {
			checkConsistency(t, c)
		}
	}
	checkConsistency(t, c)
}

func BenchmarkPutGet(b *testing.B) {
	c, _ := New[int, int](1024)
	for i := 0; i < b.N; i++ {
		c.Put(i%4096, i)
		c.Get((i * 7) % 4096)
	}
}
