// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cache provides TTL caching for server-fetched state such as
// transcripts, so switching back to a recently viewed chat does not
// refetch it.
package cache

import (
	"sync"
	"time"
)

// =============================================================================
// TTL CACHE
// =============================================================================

// Cache is a TTL cache with LRU eviction, keyed by string.
type Cache[V any] struct {
	mu          sync.Mutex
	entries     map[string]*entry[V]
	maxEntries  int
	ttl         time.Duration
	accessOrder []string

	// Statistics
	hits   int
	misses int

	// now is swappable in tests.
	now func() time.Time
}

type entry[V any] struct {
	value     V
	expiresAt time.Time
}

// Stats holds cache statistics.
type Stats struct {
	Hits       int
	Misses     int
	EntryCount int
	HitRate    float64
}

// New creates a cache holding at most maxEntries values for up to ttl.
func New[V any](maxEntries int, ttl time.Duration) *Cache[V] {
	if maxEntries <= 0 {
		maxEntries = 64
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Cache[V]{
		entries:     make(map[string]*entry[V]),
		maxEntries:  maxEntries,
		ttl:         ttl,
		accessOrder: make([]string, 0, maxEntries),
		now:         time.Now,
	}
}

// Get retrieves a cached value. An expired entry counts as a miss and is
// removed.
func (c *Cache[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero V
	e, ok := c.entries[key]
	if !ok {
		c.misses++
		return zero, false
	}
	if c.now().After(e.expiresAt) {
		c.removeLocked(key)
		c.misses++
		return zero, false
	}

	c.touchLocked(key)
	c.hits++
	return e.value, true
}

// Put stores a value, refreshing its TTL. The least recently used entry
// is evicted when the cache is full.
func (c *Cache[V]) Put(key string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.entries[key]; !ok {
		for len(c.entries) >= c.maxEntries && len(c.accessOrder) > 0 {
			c.removeLocked(c.accessOrder[0])
		}
	}

	c.entries[key] = &entry[V]{
		value:     value,
		expiresAt: c.now().Add(c.ttl),
	}
	c.touchLocked(key)
}

// Invalidate removes one entry. Used when a mutation makes the cached
// server state stale.
func (c *Cache[V]) Invalidate(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.removeLocked(key)
}

// Clear removes all entries.
func (c *Cache[V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]*entry[V])
	c.accessOrder = make([]string, 0, c.maxEntries)
}

// Stats returns cache statistics.
func (c *Cache[V]) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	hitRate := 0.0
	if total := c.hits + c.misses; total > 0 {
		hitRate = float64(c.hits) / float64(total)
	}
	return Stats{
		Hits:       c.hits,
		Misses:     c.misses,
		EntryCount: len(c.entries),
		HitRate:    hitRate,
	}
}

// removeLocked removes an entry (must hold lock).
func (c *Cache[V]) removeLocked(key string) {
	if _, ok := c.entries[key]; !ok {
		return
	}
	delete(c.entries, key)
	for i, k := range c.accessOrder {
		if k == key {
			c.accessOrder = append(c.accessOrder[:i], c.accessOrder[i+1:]...)
			break
		}
	}
}

// touchLocked moves a key to the most recently used position (must hold
// lock).
func (c *Cache[V]) touchLocked(key string) {
	for i, k := range c.accessOrder {
		if k == key {
			c.accessOrder = append(c.accessOrder[:i], c.accessOrder[i+1:]...)
			break
		}
	}
	c.accessOrder = append(c.accessOrder, key)
}
