package repricing

import (
	"sync"
	"sync/atomic"
	"time"
)

// CacheStats reports lookup traffic against the active-rule cache.
type CacheStats struct {
	Hits   uint64
	Misses uint64
}

// InMemoryRulesCache caches the active rule set inside the server process.
// Safe for concurrent use; lookup counters are tracked atomically so reads
// stay on the shared lock.
type InMemoryRulesCache struct {
	rules    []*Rule
	cachedAt time.Time
	config   CacheConfig
	mu       sync.RWMutex
	valid    bool

	hits   atomic.Uint64
	misses atomic.Uint64
}

// NewInMemoryRulesCache creates an empty in-memory rules cache.
func NewInMemoryRulesCache(config CacheConfig) *InMemoryRulesCache {
	return &InMemoryRulesCache{config: config}
}

// Get retrieves the cached active rules. Returns nil when the cache is
// empty, invalidated, or past its TTL.
func (c *InMemoryRulesCache) Get() []*Rule {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if !c.valid || c.expired() {
		c.misses.Add(1)
		return nil
	}
	c.hits.Add(1)

	// Callers get their own slice so mutations cannot reach the cache.
	out := make([]*Rule, len(c.rules))
	copy(out, c.rules)
	return out
}

// Set replaces the cached rule set and restarts the TTL window.
func (c *InMemoryRulesCache) Set(rules []*Rule) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.rules = make([]*Rule, len(rules))
	copy(c.rules, rules)
	c.cachedAt = time.Now()
	c.valid = true
}

// Invalidate drops the cached rules; the next Get misses and the engine
// reloads from the store.
func (c *InMemoryRulesCache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.valid = false
	c.rules = nil
}

// IsValid reports whether a Get would currently hit.
func (c *InMemoryRulesCache) IsValid() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.valid && !c.expired()
}

// Stats returns the hit/miss counters accumulated since startup.
func (c *InMemoryRulesCache) Stats() CacheStats {
	return CacheStats{
		Hits:   c.hits.Load(),
		Misses: c.misses.Load(),
	}
}

func (c *InMemoryRulesCache) expired() bool {
	return c.config.TTL > 0 && time.Since(c.cachedAt) > c.config.TTL
}
