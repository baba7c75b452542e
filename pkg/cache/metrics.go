package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CacheHits tracks fresh cache hits by cache name.
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wikidash_cache_hits_total",
			Help: "Total number of cache hits",
		},
		[]string{"cache"},
	)

	// CacheMisses tracks absent or expired reads by cache name.
	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wikidash_cache_misses_total",
			Help: "Total number of cache misses",
		},
		[]string{"cache"},
	)

	// CacheEvictions tracks lazy evictions of expired entries.
	CacheEvictions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wikidash_cache_evictions_total",
			Help: "Total number of expired entries evicted on read",
		},
		[]string{"cache"},
	)

	// CacheEntries tracks the current number of stored entries.
	CacheEntries = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "wikidash_cache_entries",
			Help: "Current number of entries held by the cache",
		},
		[]string{"cache"},
	)
)
