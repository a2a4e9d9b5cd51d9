package backend

import (
	"strings"
	"sync"
	"time"
)

// ttlCache holds raw response bodies keyed by endpoint, each with its own
// expiry. Windows differ per resource type, so expiry is set by the caller
// per entry rather than by the cache.
type ttlCache struct {
	mu      sync.RWMutex
	entries map[string]cacheEntry
	now     func() time.Time
}

type cacheEntry struct {
	body    []byte
	expires time.Time
}

func newTTLCache() *ttlCache {
	return &ttlCache{entries: make(map[string]cacheEntry), now: time.Now}
}

func (c *ttlCache) get(key string) ([]byte, bool) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok || c.now().After(entry.expires) {
		return nil, false
	}
	return entry.body, true
}

func (c *ttlCache) put(key string, body []byte, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	c.mu.Lock()
	c.entries[key] = cacheEntry{body: body, expires: c.now().Add(ttl)}
	c.mu.Unlock()
}

// invalidatePrefix drops every entry whose key starts with prefix. Endpoint
// keys carry query strings for FetchOptions variants, so invalidating a
// business must match by prefix, not exact key.
func (c *ttlCache) invalidatePrefix(prefix string) {
	c.mu.Lock()
	for key := range c.entries {
		if strings.HasPrefix(key, prefix) {
			delete(c.entries, key)
		}
	}
	c.mu.Unlock()
}
