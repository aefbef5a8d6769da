package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CacheHits tracks cache hits.
	CacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "seo_cache_hits_total",
			Help: "Total number of SEO cache hits",
		},
	)

	// CacheMisses tracks cache misses, including expired-on-access entries.
	CacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "seo_cache_misses_total",
			Help: "Total number of SEO cache misses",
		},
	)

	// CacheSets tracks entry writes.
	CacheSets = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "seo_cache_sets_total",
			Help: "Total number of SEO cache writes",
		},
	)

	// CacheEvictions tracks LRU evictions caused by capacity pressure.
	CacheEvictions = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "seo_cache_evictions_total",
			Help: "Total number of LRU evictions",
		},
	)

	// CacheInvalidations tracks removed entries by reason.
	CacheInvalidations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "seo_cache_invalidations_total",
			Help: "Total number of cache entries invalidated",
		},
		[]string{"reason"}, // "tag", "queued", "sweep"
	)

	// CacheEntries tracks the current number of cached entries.
	CacheEntries = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "seo_cache_entries",
			Help: "Current number of SEO cache entries",
		},
	)

	// CacheMemoryBytes tracks the estimated memory held by cached values.
	CacheMemoryBytes = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "seo_cache_memory_bytes",
			Help: "Estimated memory held by SEO cache values in bytes",
		},
	)
)
