package ratesource

import (
	"fmt"
	"sync"
	"time"

	"github.com/warp/charge-rate-engine/generic"
)

// DefaultCacheTTL is how long a remote answer is served without re-asking.
const DefaultCacheTTL = 24 * time.Hour

// CacheKey identifies one remote answer.
type CacheKey struct {
	Endpoint string
	Year     generic.FinancialYear
}

func (k CacheKey) String() string { return fmt.Sprintf("%s@%d", k.Endpoint, k.Year) }

type cacheEntry[V any] struct {
	value     V
	storedAt  time.Time
	expiresAt time.Time
}

// Cache is a TTL map. Expired entries are kept, not evicted: the resolver
// serves them as a last resort when the remote source is down.
type Cache[V any] struct {
	mu      sync.RWMutex
	ttl     time.Duration
	clock   generic.Clock
	entries map[CacheKey]cacheEntry[V]
}

// NewCache builds a cache. A nil clock means the system clock.
func NewCache[V any](ttl time.Duration, clock generic.Clock) *Cache[V] {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	if clock == nil {
		clock = generic.SystemClock{}
	}
	return &Cache[V]{
		ttl:     ttl,
		clock:   clock,
		entries: make(map[CacheKey]cacheEntry[V]),
	}
}

// Get returns the entry for key whether or not it has expired.
func (c *Cache[V]) Get(key CacheKey) (V, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[key]
	return e.value, ok
}

// IsExpired is true for missing entries and entries past their TTL.
func (c *Cache[V]) IsExpired(key CacheKey) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[key]
	if !ok {
		return true
	}
	return !c.clock.Now().Before(e.expiresAt)
}

// Set stores value and restarts its TTL.
func (c *Cache[V]) Set(key CacheKey, value V) {
	now := c.clock.Now()
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = cacheEntry[V]{value: value, storedAt: now, expiresAt: now.Add(c.ttl)}
}

// StoredAt returns when key was last written.
func (c *Cache[V]) StoredAt(key CacheKey) (time.Time, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[key]
	return e.storedAt, ok
}
