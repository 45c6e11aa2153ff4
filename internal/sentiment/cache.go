package sentiment

import (
	"sync"
	"time"
)

// cacheTTL bounds how long a fetched source result stays valid.
const cacheTTL = 5 * time.Minute

type cacheEntry struct {
	result  SourceResult
	fetched time.Time
}

// resultCache is a TTL cache keyed by source+symbol so a slow or
// rate-limited source is not hit on every tick.
type resultCache struct {
	mu      sync.RWMutex
	entries map[string]cacheEntry
	ttl     time.Duration
}

func newResultCache(ttl time.Duration) *resultCache {
	if ttl <= 0 {
		ttl = cacheTTL
	}
	return &resultCache{
		entries: make(map[string]cacheEntry),
		ttl:     ttl,
	}
}

func (c *resultCache) get(key string) (SourceResult, bool) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok || time.Since(entry.fetched) > c.ttl {
		return SourceResult{}, false
	}
	return entry.result, true
}

func (c *resultCache) set(key string, result SourceResult) {
	c.mu.Lock()
	c.entries[key] = cacheEntry{result: result, fetched: time.Now()}
	c.mu.Unlock()
}

// cleanup drops expired entries. Called opportunistically from set
// paths by the aggregator's janitor.
func (c *resultCache) cleanup() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	for key, entry := range c.entries {
		if now.Sub(entry.fetched) > c.ttl {
			delete(c.entries, key)
		}
	}
}
