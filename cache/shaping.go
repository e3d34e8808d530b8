// Package cache provides a sharded LRU cache for shaped text runs.
//
// Shaping is the most expensive stage of text preparation; texts that
// re-prepare frequently (editors, resized labels) usually re-shape
// identical runs. The cache is keyed by everything that affects a
// run's shaped output: text content, face, scale, embedding level and
// script. It is safe for concurrent use and sharded to reduce lock
// contention.
package cache

import (
	"hash/fnv"
	"math"
	"sync"
	"sync/atomic"
)

// Default configuration constants.
const (
	// ShardCount is the number of shards for reduced lock contention.
	// Must be a power of 2 for fast modulo via bitwise AND.
	ShardCount = 16

	// DefaultCapacity is the default maximum entries per shard.
	DefaultCapacity = 256

	// shardMask is used for fast shard selection (ShardCount - 1).
	shardMask = ShardCount - 1
)

// ShapingKey identifies one shaped run. All shaping parameters that
// affect the result must be included.
type ShapingKey struct {
	// TextHash is the FNV-1a hash of the run's text.
	TextHash uint64

	// Face is the face handle the run was shaped with.
	Face uint32

	// DPEmBits is the IEEE 754 bit pattern of the dpem scale. Using the
	// bit pattern gives exact matching without floating-point issues.
	DPEmBits uint64

	// Level is the run's embedding level (parity selects direction).
	Level uint8

	// Script is the run's script tag.
	Script uint32
}

// NewShapingKey builds the cache key for a run.
func NewShapingKey(text string, face uint32, dpem float64, level uint8, script uint32) ShapingKey {
	return ShapingKey{
		TextHash: hashString(text),
		Face:     face,
		DPEmBits: math.Float64bits(dpem),
		Level:    level,
		Script:   script,
	}
}

// hashString computes the FNV-1a hash of a string.
func hashString(s string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(s)) // fnv.Write never returns an error
	return h.Sum64()
}

// hash mixes all key fields for shard selection.
func (k *ShapingKey) hash() uint64 {
	h := k.TextHash
	h ^= uint64(k.Face) * 0x9E3779B97F4A7C15
	h ^= k.DPEmBits
	h ^= uint64(k.Level) << 32
	h ^= uint64(k.Script)
	return h
}

// Cache is a thread-safe, sharded LRU cache mapping shaping keys to
// values of type V (the engine stores shaped runs).
//
// Features:
//   - 16 shards for reduced lock contention
//   - LRU eviction with configurable capacity per shard
//   - Atomic statistics for monitoring
type Cache[V any] struct {
	shards   [ShardCount]*cacheShard[V]
	capacity int // Per-shard capacity

	// Statistics (atomic for zero-allocation reads)
	hits      atomic.Uint64
	misses    atomic.Uint64
	evictions atomic.Uint64
}

// cacheShard is a single shard of the cache.
// Each shard has its own mutex for reduced contention.
type cacheShard[V any] struct {
	mu      sync.RWMutex
	entries map[ShapingKey]*cacheEntry[V]
	lru     *lruList
}

// cacheEntry holds a cached value with its LRU node.
type cacheEntry[V any] struct {
	value V
	node  *lruNode
}

// New creates a cache with the specified capacity per shard.
// Total capacity is approximately capacity * ShardCount (16).
//
// If capacity <= 0, DefaultCapacity (256) is used.
func New[V any](capacity int) *Cache[V] {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	c := &Cache[V]{capacity: capacity}
	for i := range c.shards {
		c.shards[i] = &cacheShard[V]{
			entries: make(map[ShapingKey]*cacheEntry[V]),
			lru:     newLRUList(),
		}
	}
	return c
}

// getShard returns the shard for a given key.
func (c *Cache[V]) getShard(key *ShapingKey) *cacheShard[V] {
	return c.shards[key.hash()&shardMask]
}

// Get retrieves a cached value by key.
// Returns (value, true) if found, (zero, false) otherwise.
//
// On cache hit, the entry is moved to the front of the LRU list.
func (c *Cache[V]) Get(key ShapingKey) (V, bool) {
	shard := c.getShard(&key)

	// Fast path: read lock to check existence
	shard.mu.RLock()
	_, exists := shard.entries[key]
	shard.mu.RUnlock()

	if !exists {
		c.misses.Add(1)
		var zero V
		return zero, false
	}

	// Slow path: write lock for LRU update
	shard.mu.Lock()
	entry, ok := shard.entries[key]
	if !ok {
		shard.mu.Unlock()
		c.misses.Add(1)
		var zero V
		return zero, false
	}
	shard.lru.MoveToFront(entry.node)
	value := entry.value
	shard.mu.Unlock()

	c.hits.Add(1)
	return value, true
}

// Set stores a value in the cache.
// If the shard exceeds capacity after insertion, oldest entries are evicted.
//
// The value is stored as-is (not copied). Callers should not modify it
// after caching.
func (c *Cache[V]) Set(key ShapingKey, value V) {
	shard := c.getShard(&key)

	shard.mu.Lock()
	defer shard.mu.Unlock()

	if existing, ok := shard.entries[key]; ok {
		existing.value = value
		shard.lru.MoveToFront(existing.node)
		return
	}

	for shard.lru.Len() >= c.capacity {
		oldest, ok := shard.lru.RemoveOldest()
		if !ok {
			break
		}
		delete(shard.entries, oldest)
		c.evictions.Add(1)
	}

	node := shard.lru.PushFront(key)
	shard.entries[key] = &cacheEntry[V]{value: value, node: node}
}

// GetOrCreate returns a cached value or creates it with the provided
// function. This is the preferred access method as it prevents
// duplicate computation.
//
// The create function is called with the shard lock held to prevent a
// thundering herd; keep it fast to minimize lock contention.
func (c *Cache[V]) GetOrCreate(key ShapingKey, create func() V) V {
	shard := c.getShard(&key)

	shard.mu.RLock()
	_, exists := shard.entries[key]
	shard.mu.RUnlock()

	if exists {
		shard.mu.Lock()
		if entry, ok := shard.entries[key]; ok {
			shard.lru.MoveToFront(entry.node)
			value := entry.value
			shard.mu.Unlock()
			c.hits.Add(1)
			return value
		}
		shard.mu.Unlock()
	}

	shard.mu.Lock()
	defer shard.mu.Unlock()

	// Re-check after acquiring the write lock.
	if entry, ok := shard.entries[key]; ok {
		shard.lru.MoveToFront(entry.node)
		c.hits.Add(1)
		return entry.value
	}

	c.misses.Add(1)
	value := create()

	for shard.lru.Len() >= c.capacity {
		oldest, ok := shard.lru.RemoveOldest()
		if !ok {
			break
		}
		delete(shard.entries, oldest)
		c.evictions.Add(1)
	}

	node := shard.lru.PushFront(key)
	shard.entries[key] = &cacheEntry[V]{value: value, node: node}
	return value
}

// Delete removes an entry from the cache.
// Returns true if the entry was found and removed.
func (c *Cache[V]) Delete(key ShapingKey) bool {
	shard := c.getShard(&key)

	shard.mu.Lock()
	defer shard.mu.Unlock()

	entry, ok := shard.entries[key]
	if !ok {
		return false
	}
	shard.lru.Remove(entry.node)
	delete(shard.entries, key)
	return true
}

// Clear removes all entries from the cache.
func (c *Cache[V]) Clear() {
	for _, shard := range c.shards {
		shard.mu.Lock()
		shard.entries = make(map[ShapingKey]*cacheEntry[V])
		shard.lru.Clear()
		shard.mu.Unlock()
	}
}

// Len returns the total number of entries across all shards.
func (c *Cache[V]) Len() int {
	total := 0
	for _, shard := range c.shards {
		shard.mu.RLock()
		total += len(shard.entries)
		shard.mu.RUnlock()
	}
	return total
}

// Capacity returns the per-shard capacity.
func (c *Cache[V]) Capacity() int { return c.capacity }

// TotalCapacity returns the total capacity across all shards.
func (c *Cache[V]) TotalCapacity() int { return c.capacity * ShardCount }

// Stats contains cache statistics for monitoring.
type Stats struct {
	// Len is the current number of entries.
	Len int
	// Capacity is the per-shard capacity.
	Capacity int
	// TotalCapacity is the total capacity across all shards.
	TotalCapacity int
	// Hits is the number of cache hits.
	Hits uint64
	// Misses is the number of cache misses.
	Misses uint64
	// HitRate is the cache hit rate (0.0 to 1.0).
	HitRate float64
	// Evictions is the number of entries evicted.
	Evictions uint64
}

// Stats returns current cache statistics.
// This operation is mostly lock-free (atomic counters).
func (c *Cache[V]) Stats() Stats {
	hits := c.hits.Load()
	misses := c.misses.Load()
	evictions := c.evictions.Load()

	var hitRate float64
	if total := hits + misses; total > 0 {
		hitRate = float64(hits) / float64(total)
	}

	return Stats{
		Len:           c.Len(),
		Capacity:      c.capacity,
		TotalCapacity: c.capacity * ShardCount,
		Hits:          hits,
		Misses:        misses,
		HitRate:       hitRate,
		Evictions:     evictions,
	}
}

// ResetStats resets all statistics counters to zero.
func (c *Cache[V]) ResetStats() {
	c.hits.Store(0)
	c.misses.Store(0)
	c.evictions.Store(0)
}
