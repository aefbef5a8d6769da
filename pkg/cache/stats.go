package cache

// Thresholds for the advisory health policy.
const (
	// HealthUtilizationCritical marks the cache critical when the entry
	// count exceeds this fraction of MaxSize.
	HealthUtilizationCritical = 0.9

	// HealthMemoryWarningBytes marks the cache warning when the estimated
	// memory footprint exceeds this many bytes.
	HealthMemoryWarningBytes = 100 * 1024 * 1024

	// HealthHitRateWarning marks the cache warning when the hit rate falls
	// below this fraction after HealthMinLookups lookups.
	HealthHitRateWarning = 0.5

	// HealthMinLookups is the minimum number of lookups before the hit
	// rate is considered meaningful.
	HealthMinLookups = 100
)

// Stats is a point-in-time snapshot of cache counters.
type Stats struct {
	Entries        int     `json:"entries"`
	MaxSize        int     `json:"max_size"`
	Hits           uint64  `json:"hits"`
	Misses         uint64  `json:"misses"`
	Sets           uint64  `json:"sets"`
	Evictions      uint64  `json:"evictions"`
	HitRate        float64 `json:"hit_rate"`
	MissRate       float64 `json:"miss_rate"`
	MemoryEstimate int64   `json:"memory_estimate"`
}

// Stats returns a snapshot of the cache counters.
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := Stats{
		Entries:        len(c.entries),
		MaxSize:        c.cfg.MaxSize,
		Hits:           c.hits,
		Misses:         c.misses,
		Sets:           c.setsCount,
		Evictions:      c.evictions,
		MemoryEstimate: c.memory,
	}
	if total := c.hits + c.misses; total > 0 {
		s.HitRate = float64(c.hits) / float64(total)
		s.MissRate = float64(c.misses) / float64(total)
	}
	return s
}

// HealthStatus classifies the cache state for operators.
type HealthStatus string

const (
	// HealthHealthy indicates normal operation.
	HealthHealthy HealthStatus = "healthy"

	// HealthWarning indicates degraded effectiveness: high memory use or a
	// low hit rate once enough lookups have been observed.
	HealthWarning HealthStatus = "warning"

	// HealthCritical indicates the cache is nearly full and evicting.
	HealthCritical HealthStatus = "critical"
)

// Health describes the advisory health of the cache. It is computed from
// Stats and never enforced; a critical cache keeps serving requests.
type Health struct {
	Status  HealthStatus `json:"status"`
	Reasons []string     `json:"reasons,omitempty"`
	Stats   Stats        `json:"stats"`
}

// Health evaluates the advisory health policy against current stats.
func (c *Cache) Health() Health {
	s := c.Stats()
	h := Health{Status: HealthHealthy, Stats: s}

	if s.MaxSize > 0 && float64(s.Entries)/float64(s.MaxSize) > HealthUtilizationCritical {
		h.Status = HealthCritical
		h.Reasons = append(h.Reasons, "cache utilization above 90%")
		return h
	}

	if s.MemoryEstimate > HealthMemoryWarningBytes {
		h.Status = HealthWarning
		h.Reasons = append(h.Reasons, "estimated memory above 100MB")
	}
	if s.Hits+s.Misses >= HealthMinLookups && s.HitRate < HealthHitRateWarning {
		h.Status = HealthWarning
		h.Reasons = append(h.Reasons, "hit rate below 50%")
	}
	return h
}
