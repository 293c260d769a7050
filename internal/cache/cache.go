// Loglens - Log Search, Export and Policy Proxy
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/loglens

package cache

import (
	"container/list"
	"sync"
	"sync/atomic"
	"time"

	"github.com/tomtom215/loglens/internal/metrics"
)

// metricsType is the cache_type label used for the response cache collectors.
const metricsType = "response"

type entry struct {
	key       string
	value     interface{}
	expiresAt time.Time
}

// Cache is a TTL cache bounded by entry count. When full it evicts the
// oldest insertion; reads do not change eviction order.
type Cache struct {
	mu         sync.Mutex
	entries    map[string]*list.Element
	order      *list.List // front is the oldest insertion
	ttl        time.Duration
	maxEntries int
	now        func() time.Time

	hits, misses, evictions, size atomic.Int64
	lastSweep                     atomic.Int64 // unix nanos

	stopOnce sync.Once
	stopCh   chan struct{}
}

// Stats is a point-in-time copy of the cache counters.
type Stats struct {
	Hits        int64     `json:"hits"`
	Misses      int64     `json:"misses"`
	Evictions   int64     `json:"evictions"`
	TotalKeys   int64     `json:"total_keys"`
	LastCleanup time.Time `json:"last_cleanup"`
}

// New creates a cache whose entries live for ttl. A ttl of zero or less
// disables caching entirely: every Get misses and every Set is a no-op.
// maxEntries <= 0 means unbounded.
//
// Expired entries are swept in the background until Close.
func New(ttl time.Duration, maxEntries int) *Cache {
	c := &Cache{
		entries:    make(map[string]*list.Element),
		order:      list.New(),
		ttl:        ttl,
		maxEntries: maxEntries,
		now:        time.Now,
		stopCh:     make(chan struct{}),
	}
	c.lastSweep.Store(c.now().UnixNano())
	if c.Enabled() {
		go c.sweepLoop(cleanupInterval(ttl))
	}
	return c
}

// cleanupInterval sweeps at the TTL, but no more often than once a second
// and no less often than every five minutes.
func cleanupInterval(ttl time.Duration) time.Duration {
	switch {
	case ttl < time.Second:
		return time.Second
	case ttl > 5*time.Minute:
		return 5 * time.Minute
	default:
		return ttl
	}
}

// Enabled reports whether the cache stores anything.
func (c *Cache) Enabled() bool {
	return c != nil && c.ttl > 0
}

// TTL returns the configured entry lifetime.
func (c *Cache) TTL() time.Duration {
	return c.ttl
}

// Get returns the live value for key. An expired entry is dropped and
// counts as a miss.
func (c *Cache) Get(key string) (interface{}, bool) {
	if !c.Enabled() {
		return nil, false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.entries[key]
	if !ok {
		c.miss()
		return nil, false
	}
	e := el.Value.(*entry)
	if c.now().Before(e.expiresAt) {
		c.hit()
		return e.value, true
	}
	c.remove(el)
	c.miss()
	c.evicted("expired", 1)
	return nil, false
}

// Set stores a value with the default TTL.
func (c *Cache) Set(key string, value interface{}) {
	c.SetWithTTL(key, value, c.ttl)
}

// SetWithTTL stores value for ttl. Overwriting a key keeps its insertion
// position. Crossing maxEntries evicts the single oldest entry.
func (c *Cache) SetWithTTL(key string, value interface{}, ttl time.Duration) {
	if !c.Enabled() || ttl <= 0 {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	exp := c.now().Add(ttl)
	if el, ok := c.entries[key]; ok {
		e := el.Value.(*entry)
		e.value, e.expiresAt = value, exp
		return
	}
	c.entries[key] = c.order.PushBack(&entry{key: key, value: value, expiresAt: exp})
	if c.maxEntries > 0 && len(c.entries) > c.maxEntries {
		c.remove(c.order.Front())
		c.evicted("capacity", 1)
	}
	c.resize()
}

// Delete drops key if present.
func (c *Cache) Delete(key string) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.entries[key]; ok {
		c.remove(el)
		c.evicted("manual", 1)
	}
}

// Clear drops everything. Policy replacement calls it so that no response
// shaped by the previous policy is served again.
func (c *Cache) Clear() {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	n := len(c.entries)
	clear(c.entries)
	c.order.Init()
	c.evicted("manual", n)
}

// Len counts stored entries, including expired ones not yet swept.
func (c *Cache) Len() int {
	if c == nil {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Keys lists stored keys from oldest to newest insertion.
func (c *Cache) Keys() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	keys := make([]string, 0, len(c.entries))
	for el := c.order.Front(); el != nil; el = el.Next() {
		keys = append(keys, el.Value.(*entry).key)
	}
	return keys
}

// Close stops the sweeper. Calling it twice is fine.
func (c *Cache) Close() {
	if c == nil {
		return
	}
	c.stopOnce.Do(func() { close(c.stopCh) })
}

// GetStats returns the counters accumulated since New. Clear resets the
// entries but not the counters.
func (c *Cache) GetStats() Stats {
	return Stats{
		Hits:        c.hits.Load(),
		Misses:      c.misses.Load(),
		Evictions:   c.evictions.Load(),
		TotalKeys:   c.size.Load(),
		LastCleanup: time.Unix(0, c.lastSweep.Load()),
	}
}

// HitRate is hits as a percentage of lookups, or 0 before any lookup.
func (c *Cache) HitRate() float64 {
	hits, misses := c.hits.Load(), c.misses.Load()
	if hits+misses == 0 {
		return 0
	}
	return float64(hits) / float64(hits+misses) * 100
}

func (c *Cache) sweepLoop(every time.Duration) {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-t.C:
			c.sweep()
		case <-c.stopCh:
			return
		}
	}
}

func (c *Cache) sweep() {
	now := c.now()
	c.mu.Lock()
	defer c.mu.Unlock()

	n := 0
	for el := c.order.Front(); el != nil; {
		next := el.Next()
		if !now.Before(el.Value.(*entry).expiresAt) {
			c.remove(el)
			n++
		}
		el = next
	}
	c.lastSweep.Store(now.UnixNano())
	c.evicted("expired", n)
}

// The helpers below run with c.mu held.

func (c *Cache) remove(el *list.Element) {
	delete(c.entries, c.order.Remove(el).(*entry).key)
}

func (c *Cache) hit() {
	c.hits.Add(1)
	metrics.CacheHits.WithLabelValues(metricsType).Inc()
}

func (c *Cache) miss() {
	c.misses.Add(1)
	metrics.CacheMisses.WithLabelValues(metricsType).Inc()
}

func (c *Cache) evicted(reason string, n int) {
	if n > 0 {
		c.evictions.Add(int64(n))
		metrics.CacheEvictions.WithLabelValues(metricsType, reason).Add(float64(n))
	}
	c.resize()
}

func (c *Cache) resize() {
	c.size.Store(int64(len(c.entries)))
	metrics.CacheSize.WithLabelValues(metricsType).Set(float64(len(c.entries)))
}
