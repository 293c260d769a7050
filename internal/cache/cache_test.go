// Loglens - Log Search, Export and Policy Proxy
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/loglens

package cache

import (
	"fmt"
	"reflect"
	"sync"
	"testing"
	"time"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.t
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	f.t = f.t.Add(d)
	f.mu.Unlock()
}

func newTestCache(t *testing.T, ttl time.Duration, maxEntries int) (*Cache, *fakeClock) {
	t.Helper()
	c := New(ttl, maxEntries)
	t.Cleanup(c.Close)
	clock := &fakeClock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	c.now = clock.Now
	return c, clock
}

func TestCacheBasicOperations(t *testing.T) {
	c, _ := newTestCache(t, time.Minute, 10)

	c.Set("key1", "value1")
	value, exists := c.Get("key1")
	if !exists {
		t.Error("Expected key1 to exist")
	}
	if value != "value1" {
		t.Errorf("Expected value1, got %v", value)
	}

	if _, exists = c.Get("key2"); exists {
		t.Error("Expected key2 to not exist")
	}
}

func TestCacheExpiration(t *testing.T) {
	c, clock := newTestCache(t, 30*time.Second, 10)

	c.Set("key1", "value1")
	if _, ok := c.Get("key1"); !ok {
		t.Fatal("Expected key1 to exist immediately after set")
	}

	clock.Advance(30 * time.Second)
	if _, ok := c.Get("key1"); ok {
		t.Error("Expected key1 to be expired")
	}
	if c.Len() != 0 {
		t.Errorf("expired entry should be removed on read, len = %d", c.Len())
	}
}

func TestCacheZeroTTLDisables(t *testing.T) {
	c := New(0, 10)
	defer c.Close()

	c.Set("key", "value")
	if _, ok := c.Get("key"); ok {
		t.Error("disabled cache must always miss")
	}
	if c.Len() != 0 {
		t.Errorf("disabled cache must not store, len = %d", c.Len())
	}
	if c.Enabled() {
		t.Error("Enabled() = true for zero TTL")
	}
}

func TestCacheEvictsOldestInserted(t *testing.T) {
	c, _ := newTestCache(t, time.Minute, 3)

	c.Set("a", 1)
	c.Set("b", 2)
	c.Set("c", 3)

	// Reading "a" must not protect it: eviction is by insertion, not access.
	if _, ok := c.Get("a"); !ok {
		t.Fatal("a should be present")
	}

	c.Set("d", 4)

	if _, ok := c.Get("a"); ok {
		t.Error("oldest inserted entry a should have been evicted")
	}
	if got := c.Keys(); !reflect.DeepEqual(got, []string{"b", "c", "d"}) {
		t.Errorf("Keys() = %v", got)
	}
	if stats := c.GetStats(); stats.Evictions != 1 {
		t.Errorf("Evictions = %d, want 1", stats.Evictions)
	}
}

func TestCacheOverwriteKeepsPosition(t *testing.T) {
	c, _ := newTestCache(t, time.Minute, 2)

	c.Set("a", 1)
	c.Set("b", 2)
	c.Set("a", 10)
	c.Set("c", 3)

	if _, ok := c.Get("a"); ok {
		t.Error("overwritten key keeps its insertion slot and is evicted first")
	}
	if v, _ := c.Get("b"); v != 2 {
		t.Errorf("b = %v, want 2", v)
	}
}

func TestCacheDeleteAndClear(t *testing.T) {
	c, _ := newTestCache(t, time.Minute, 0)

	c.Set("key1", "value1")
	c.Set("key2", "value2")
	c.Set("key3", "value3")

	c.Delete("key1")
	if _, ok := c.Get("key1"); ok {
		t.Error("Expected key1 to be deleted")
	}

	c.Clear()
	for _, key := range []string{"key2", "key3"} {
		if _, ok := c.Get(key); ok {
			t.Errorf("Expected %s to be cleared", key)
		}
	}
	if stats := c.GetStats(); stats.TotalKeys != 0 || stats.Evictions != 3 {
		t.Errorf("stats = %+v", stats)
	}
}

func TestCacheSetWithTTL(t *testing.T) {
	c, clock := newTestCache(t, time.Minute, 0)

	c.SetWithTTL("short", "v", 5*time.Second)
	c.Set("long", "v")

	clock.Advance(10 * time.Second)

	if _, ok := c.Get("short"); ok {
		t.Error("custom TTL not applied")
	}
	if _, ok := c.Get("long"); !ok {
		t.Error("default TTL entry expired early")
	}
}

func TestCacheSweep(t *testing.T) {
	c, clock := newTestCache(t, time.Minute, 0)

	c.Set("old", 1)
	clock.Advance(45 * time.Second)
	c.Set("new", 2)
	clock.Advance(30 * time.Second)

	c.sweep()

	if got := c.Keys(); !reflect.DeepEqual(got, []string{"new"}) {
		t.Errorf("Keys() after sweep = %v", got)
	}
	if !c.GetStats().LastCleanup.Equal(clock.Now()) {
		t.Error("LastCleanup not updated")
	}
}

func TestCacheHitRate(t *testing.T) {
	c, _ := newTestCache(t, time.Minute, 0)
	if c.HitRate() != 0 {
		t.Error("HitRate with no operations should be 0")
	}

	c.Set("k", "v")
	c.Get("k")
	c.Get("k")
	c.Get("k")
	c.Get("missing")

	if got := c.HitRate(); got != 75 {
		t.Errorf("HitRate = %v, want 75", got)
	}
}

func TestCacheConcurrency(t *testing.T) {
	c, _ := newTestCache(t, time.Minute, 50)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				key := fmt.Sprintf("key-%d-%d", id, j)
				c.Set(key, j)
				c.Get(key)
				if j%10 == 0 {
					c.Delete(key)
				}
			}
		}(i)
	}
	wg.Wait()

	if c.Len() > 50 {
		t.Errorf("cache exceeded its bound: %d", c.Len())
	}
}

func TestCacheCloseIdempotent(t *testing.T) {
	c := New(time.Minute, 1)
	c.Close()
	c.Close()
}

func BenchmarkCacheSet(b *testing.B) {
	c := New(time.Minute, 1000)
	defer c.Close()
	for i := 0; i < b.N; i++ {
		c.Set(fmt.Sprintf("key-%d", i), i)
	}
}

func BenchmarkCacheGet(b *testing.B) {
	c := New(time.Minute, 1000)
	defer c.Close()
	c.Set("key", "value")
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		c.Get("key")
	}
}
