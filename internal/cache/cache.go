// Package cache holds fetched API results in memory for a fixed time-to-live.
package cache

import (
	"sync"
	"time"

	"github.com/dhocker/iex-localc/internal/fetcher"
)

// DefaultTTL is how long a fetched result stays valid.
const DefaultTTL = 5 * time.Minute

// Clock supplies the current time. Tests inject a fake to drive expiry.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock.
type SystemClock struct{}

// Now implements Clock.
func (SystemClock) Now() time.Time { return time.Now() }

// Entry is a cached result and the moment it stops being valid.
type Entry struct {
	Key       string
	Result    fetcher.Result
	ExpiresAt time.Time
}

// ResultCache maps cache keys to fetched results. Entries are replaced on
// every Put and never removed; an expired entry is simply treated as absent.
type ResultCache struct {
	mu      sync.RWMutex
	entries map[string]Entry
	ttl     time.Duration
	clock   Clock
}

// New creates an empty cache. A nil clock means SystemClock and a
// non-positive ttl means DefaultTTL.
func New(ttl time.Duration, clock Clock) *ResultCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if clock == nil {
		clock = SystemClock{}
	}
	return &ResultCache{
		entries: make(map[string]Entry),
		ttl:     ttl,
		clock:   clock,
	}
}

// Get returns the result cached under key if it has not expired.
func (c *ResultCache) Get(key string) (fetcher.Result, bool) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok || !entry.ExpiresAt.After(c.clock.Now()) {
		return fetcher.Result{}, false
	}
	return entry.Result, true
}

// Put stores res under key, replacing any previous entry.
func (c *ResultCache) Put(key string, res fetcher.Result) {
	entry := Entry{
		Key:       key,
		Result:    res,
		ExpiresAt: c.clock.Now().Add(c.ttl),
	}

	c.mu.Lock()
	c.entries[key] = entry
	c.mu.Unlock()
}

// Len returns the number of stored entries, expired ones included.
func (c *ResultCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// TTL returns the validity window applied by Put.
func (c *ResultCache) TTL() time.Duration { return c.ttl }
