package cache

import (
	"sync"
	"time"
)

// entry is a stored value with the instant it was written.
type entry[V any] struct {
	data      V
	timestamp time.Time
}

// TTLCache is a generic expiring key/value store. An entry is valid while
// now - timestamp <= ttl; once past that it is logically absent and is
// evicted by the next Get that touches it.
type TTLCache[V any] struct {
	mu      sync.Mutex
	name    string
	ttl     time.Duration
	entries map[string]entry[V]

	// now is swappable for expiry tests.
	now func() time.Time
}

// New creates a cache with the given name (used as a metrics label) and TTL.
func New[V any](name string, ttl time.Duration) *TTLCache[V] {
	return &TTLCache[V]{
		name:    name,
		ttl:     ttl,
		entries: make(map[string]entry[V]),
		now:     time.Now,
	}
}

// Get returns the stored value if present and unexpired. An expired entry
// is removed and reported as absent.
func (c *TTLCache[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		CacheMisses.WithLabelValues(c.name).Inc()
		var zero V
		return zero, false
	}

	if c.now().Sub(e.timestamp) > c.ttl {
		delete(c.entries, key)
		CacheEvictions.WithLabelValues(c.name).Inc()
		CacheMisses.WithLabelValues(c.name).Inc()
		CacheEntries.WithLabelValues(c.name).Set(float64(len(c.entries)))
		var zero V
		return zero, false
	}

	CacheHits.WithLabelValues(c.name).Inc()
	return e.data, true
}

// Set stores a value with a fresh timestamp, overwriting any prior entry.
func (c *TTLCache[V]) Set(key string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = entry[V]{data: value, timestamp: c.now()}
	CacheEntries.WithLabelValues(c.name).Set(float64(len(c.entries)))
}

// Invalidate removes one entry.
func (c *TTLCache[V]) Invalidate(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.entries, key)
	CacheEntries.WithLabelValues(c.name).Set(float64(len(c.entries)))
}

// Clear removes all entries.
func (c *TTLCache[V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]entry[V])
	CacheEntries.WithLabelValues(c.name).Set(0)
}

// Len returns the number of stored entries, expired ones included.
func (c *TTLCache[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
