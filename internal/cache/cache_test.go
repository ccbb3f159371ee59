// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cache provides TTL caching for server-fetched state such as
// transcripts, so switching back to a recently viewed chat does not
// refetch it.
package cache

import (
	"testing"
	"time"
)

func testCache(maxEntries int, ttl time.Duration) (*Cache[string], *time.Time) {
	c := New[string](maxEntries, ttl)
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }
	return c, &now
}

func TestCache_PutGet(t *testing.T) {
	c, _ := testCache(4, time.Minute)

	c.Put("a", "alpha")
	if v, ok := c.Get("a"); !ok || v != "alpha" {
		t.Errorf("Get(a) = %q, %v", v, ok)
	}
	if _, ok := c.Get("missing"); ok {
		t.Error("Get(missing) should miss")
	}
}

func TestCache_TTLExpiry(t *testing.T) {
	c, now := testCache(4, time.Minute)

	c.Put("a", "alpha")
	*now = now.Add(59 * time.Second)
	if _, ok := c.Get("a"); !ok {
		t.Error("entry expired too early")
	}

	*now = now.Add(2 * time.Second)
	if _, ok := c.Get("a"); ok {
		t.Error("entry should have expired")
	}

	stats := c.Stats()
	if stats.EntryCount != 0 {
		t.Errorf("expired entry not removed: EntryCount = %d", stats.EntryCount)
	}
}

func TestCache_PutRefreshesTTL(t *testing.T) {
	c, now := testCache(4, time.Minute)

	c.Put("a", "alpha")
	*now = now.Add(45 * time.Second)
	c.Put("a", "alpha2")
	*now = now.Add(45 * time.Second)

	if v, ok := c.Get("a"); !ok || v != "alpha2" {
		t.Errorf("Get(a) = %q, %v; Put should refresh the TTL", v, ok)
	}
}

func TestCache_LRUEviction(t *testing.T) {
	c, _ := testCache(2, time.Minute)

	c.Put("a", "1")
	c.Put("b", "2")
	c.Get("a") // a is now most recently used
	c.Put("c", "3")

	if _, ok := c.Get("b"); ok {
		t.Error("least recently used entry should be evicted")
	}
	if _, ok := c.Get("a"); !ok {
		t.Error("recently used entry should survive")
	}
	if _, ok := c.Get("c"); !ok {
		t.Error("new entry should be present")
	}
}

func TestCache_Invalidate(t *testing.T) {
	c, _ := testCache(4, time.Minute)

	c.Put("a", "alpha")
	c.Invalidate("a")
	if _, ok := c.Get("a"); ok {
		t.Error("invalidated entry should miss")
	}
	// Invalidating an absent key is a no-op.
	c.Invalidate("missing")
}

func TestCache_Stats(t *testing.T) {
	c, _ := testCache(4, time.Minute)

	c.Put("a", "alpha")
	c.Get("a")
	c.Get("a")
	c.Get("missing")

	stats := c.Stats()
	if stats.Hits != 2 || stats.Misses != 1 {
		t.Errorf("hits/misses = %d/%d, want 2/1", stats.Hits, stats.Misses)
	}
	if want := 2.0 / 3.0; stats.HitRate != want {
		t.Errorf("HitRate = %v, want %v", stats.HitRate, want)
	}
}

func TestCache_Clear(t *testing.T) {
	c, _ := testCache(4, time.Minute)

	c.Put("a", "1")
	c.Put("b", "2")
	c.Clear()

	if c.Stats().EntryCount != 0 {
		t.Error("Clear should empty the cache")
	}
}
