// Package cache holds fetched listings per category for a fixed TTL.
//
// Freshness is evaluated lazily on read: a stale entry stays in the map until
// the next successful fetch for its category overwrites it, or until ClearAll
// wipes everything. There is no per-key invalidation and no background sweep.
package cache

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/pfrederiksen/concert-server/internal/listing"
	"github.com/pfrederiksen/concert-server/internal/metrics"
	"golang.org/x/sync/singleflight"
)

// DefaultTTL is how long a category's listings are served from memory.
const DefaultTTL = 5 * time.Minute

// Entry is one cached category.
type Entry struct {
	Records   []listing.Listing `json:"records"`
	FetchedAt time.Time         `json:"fetched_at"`
}

// FetchFunc loads a category from upstream.
type FetchFunc func(ctx context.Context) ([]listing.Listing, error)

// Cache manages cached listings keyed by category with a TTL
type Cache struct {
	mu      sync.RWMutex
	entries map[string]Entry
	ttl     time.Duration
	now     func() time.Time
	group   singleflight.Group
	metrics *metrics.Metrics
}

// New creates a cache. A non-positive ttl uses DefaultTTL; m may be nil.
func New(ttl time.Duration, m *metrics.Metrics) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{
		entries: make(map[string]Entry),
		ttl:     ttl,
		now:     time.Now,
		metrics: m,
	}
}

// TTL returns the freshness window.
func (c *Cache) TTL() time.Duration {
	return c.ttl
}

// Get returns the records for category if an entry exists and is fresh.
func (c *Cache) Get(category string) ([]listing.Listing, bool) {
	c.mu.RLock()
	entry, ok := c.entries[category]
	c.mu.RUnlock()

	if !ok || !c.fresh(entry) {
		c.metrics.CacheMiss(category)
		return nil, false
	}
	c.metrics.CacheHit(category)
	return entry.Records, true
}

// Put stores records for category, replacing any previous entry.
func (c *Cache) Put(category string, records []listing.Listing) {
	c.mu.Lock()
	c.entries[category] = Entry{Records: records, FetchedAt: c.now()}
	size := len(c.entries)
	c.mu.Unlock()

	c.metrics.SetCacheEntries(size)
}

// GetOrFetch serves a fresh entry or calls fetch and stores its result.
// Concurrent misses for the same category share one fetch, which runs
// detached from the cancellation of whichever caller started it; each caller
// still stops waiting when its own ctx ends. Failed fetches are not cached.
// The bool result reports whether the records came from the cache.
func (c *Cache) GetOrFetch(ctx context.Context, category string, fetch FetchFunc) ([]listing.Listing, bool, error) {
	if records, ok := c.Get(category); ok {
		return records, true, nil
	}

	fetchCtx := context.WithoutCancel(ctx)
	ch := c.group.DoChan(category, func() (interface{}, error) {
		records, err := fetch(fetchCtx)
		if err != nil {
			return nil, err
		}
		c.Put(category, records)
		return records, nil
	})

	select {
	case <-ctx.Done():
		return nil, false, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, false, res.Err
		}
		return res.Val.([]listing.Listing), false, nil
	}
}

// ClearAll removes every entry and returns the cleared categories, sorted.
func (c *Cache) ClearAll() []string {
	c.mu.Lock()
	cleared := make([]string, 0, len(c.entries))
	for category := range c.entries {
		cleared = append(cleared, category)
	}
	c.entries = make(map[string]Entry)
	c.mu.Unlock()

	c.metrics.SetCacheEntries(0)
	sort.Strings(cleared)
	return cleared
}

// Size returns the number of cached entries, fresh or stale.
func (c *Cache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// EntryStatus describes one entry for observability.
type EntryStatus struct {
	Category  string        `json:"category"`
	Count     int           `json:"count"`
	FetchedAt time.Time     `json:"fetchedAt"`
	Age       time.Duration `json:"-"`
	AgeMillis int64         `json:"ageMs"`
	Fresh     bool          `json:"fresh"`
}

// Status reports every entry, sorted by category.
func (c *Cache) Status() []EntryStatus {
	c.mu.RLock()
	defer c.mu.RUnlock()

	now := c.now()
	statuses := make([]EntryStatus, 0, len(c.entries))
	for category, entry := range c.entries {
		age := now.Sub(entry.FetchedAt)
		statuses = append(statuses, EntryStatus{
			Category:  category,
			Count:     len(entry.Records),
			FetchedAt: entry.FetchedAt,
			Age:       age,
			AgeMillis: age.Milliseconds(),
			Fresh:     age < c.ttl,
		})
	}
	sort.Slice(statuses, func(i, j int) bool {
		return statuses[i].Category < statuses[j].Category
	})
	return statuses
}

// Snapshot copies every entry, fresh or stale.
func (c *Cache) Snapshot() map[string]Entry {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make(map[string]Entry, len(c.entries))
	for k, v := range c.entries {
		out[k] = v
	}
	return out
}

// Restore loads entries with their original fetch times, replacing existing
// entries for the same categories.
func (c *Cache) Restore(entries map[string]Entry) {
	c.mu.Lock()
	for k, v := range entries {
		c.entries[k] = v
	}
	size := len(c.entries)
	c.mu.Unlock()

	c.metrics.SetCacheEntries(size)
}

func (c *Cache) fresh(e Entry) bool {
	return c.now().Sub(e.FetchedAt) < c.ttl
}
