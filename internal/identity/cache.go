package identity

import (
	"strconv"
	"sync"
	"time"
)

// DefaultTTL is how long a resolved identity stays cached before the
// next access falls through to the store.
const DefaultTTL = 24 * time.Hour

// Cache is a process-local TTL cache for resolved identifiers.
//
// One instance exists per identity class (application, metric) so the
// key namespaces never collide. Expiry is lazy: an expired entry is
// treated as absent on access and removed then, there is no background
// sweep. Capacity is unbounded; it is limited in practice by key
// cardinality within one TTL window.
//
// All methods are safe for concurrent use. Concurrent writers for the
// same key are last-writer-wins, which is harmless because racing
// writers converge on the same durable value once the store's
// uniqueness constraint settles first-sight creation.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]cacheEntry
	ttl     time.Duration
	now     func() time.Time
}

type cacheEntry struct {
	id        int64
	expiresAt time.Time
}

// NewCache creates a cache with the given TTL.
func NewCache(ttl time.Duration) *Cache {
	return NewCacheWithClock(ttl, time.Now)
}

// NewCacheWithClock creates a cache with an injectable clock.
// Tests use this to simulate TTL expiry without sleeping.
func NewCacheWithClock(ttl time.Duration, now func() time.Time) *Cache {
	return &Cache{
		entries: make(map[string]cacheEntry),
		ttl:     ttl,
		now:     now,
	}
}

// Get returns the cached id for a key. Never-seen and expired keys
// both report absent; expired entries are removed on the way out.
func (c *Cache) Get(key string) (int64, bool) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok {
		return 0, false
	}

	if c.now().After(entry.expiresAt) {
		c.mu.Lock()
		// Re-check under the write lock; a concurrent Put may have
		// refreshed the entry.
		if current, ok := c.entries[key]; ok && c.now().After(current.expiresAt) {
			delete(c.entries, key)
		}
		c.mu.Unlock()
		return 0, false
	}

	return entry.id, true
}

// Put stores an id under a key with the cache's TTL.
func (c *Cache) Put(key string, id int64) {
	expiresAt := c.now().Add(c.ttl)

	c.mu.Lock()
	c.entries[key] = cacheEntry{id: id, expiresAt: expiresAt}
	c.mu.Unlock()
}

// Len returns the number of entries, including any not yet lazily
// expired. Used for stats reporting.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// AppKey derives the application-scope cache key.
func AppKey(username, appName string) string {
	return username + "." + appName
}

// MetricKey derives the metric-scope cache key. The same derivation
// produces the fully qualified name sent to the time-series registry.
func MetricKey(appID int64, metric string) string {
	return strconv.FormatInt(appID, 10) + "." + metric
}
