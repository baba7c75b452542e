// Package cache provides a generic in-memory TTL cache.
//
// The cache is process-local and process-lifetime: entries live in a
// mutex-guarded map, expire a fixed duration after they are written, and
// are evicted lazily on the read that finds them expired. There is no
// background sweeper and no persistence.
//
// # Basic Usage
//
//	// One cache per repository, typed to what it stores.
//	users := cache.New[domain.WikiUser]("users", 10*time.Minute)
//
//	users.Set("Alice", user)
//
//	if u, ok := users.Get("Alice"); ok {
//		// fresh hit
//	}
//
//	users.Invalidate("Alice")
//	users.Clear()
//
// # Metrics
//
// Each cache instance is labeled by name in the exported Prometheus metrics:
//
//   - wikidash_cache_hits_total{cache} - fresh hits
//   - wikidash_cache_misses_total{cache} - absent or expired reads
//   - wikidash_cache_evictions_total{cache} - lazy evictions of expired entries
//   - wikidash_cache_entries{cache} - current entry count
package cache
