package cache

import (
	"strconv"
	"testing"
)

func TestStats(t *testing.T) {
	c := newTestCache(t, Config{MaxSize: 10})

	c.Set("a", "value")
	c.Set("b", "other")
	c.Get("a")
	c.Get("a")
	c.Get("missing")
	c.Get("missing")

	s := c.Stats()
	if s.Entries != 2 {
		t.Errorf("Entries = %d, want 2", s.Entries)
	}
	if s.Hits != 2 || s.Misses != 2 {
		t.Errorf("Hits/Misses = %d/%d, want 2/2", s.Hits, s.Misses)
	}
	if s.HitRate != 0.5 || s.MissRate != 0.5 {
		t.Errorf("HitRate/MissRate = %v/%v, want 0.5/0.5", s.HitRate, s.MissRate)
	}
	if s.Sets != 2 {
		t.Errorf("Sets = %d, want 2", s.Sets)
	}
	if s.MemoryEstimate != int64(len("value")+len("other")) {
		t.Errorf("MemoryEstimate = %d, want %d", s.MemoryEstimate, len("value")+len("other"))
	}
}

func TestHealth_Healthy(t *testing.T) {
	c := newTestCache(t, Config{MaxSize: 10})
	c.Set("a", 1)

	if h := c.Health(); h.Status != HealthHealthy {
		t.Errorf("status = %s, want healthy: %v", h.Status, h.Reasons)
	}
}

func TestHealth_CriticalUtilization(t *testing.T) {
	c := newTestCache(t, Config{MaxSize: 10})
	for i := 0; i < 10; i++ {
		c.Set("k"+strconv.Itoa(i), i)
	}

	if h := c.Health(); h.Status != HealthCritical {
		t.Errorf("status = %s, want critical at full utilization", h.Status)
	}
}

func TestHealth_LowHitRateWarning(t *testing.T) {
	c := newTestCache(t, Config{MaxSize: 10})

	// 100 misses, no hits.
	for i := 0; i < 100; i++ {
		c.Get("absent")
	}

	if h := c.Health(); h.Status != HealthWarning {
		t.Errorf("status = %s, want warning for low hit rate", h.Status)
	}
}

func TestHealth_HitRateIgnoredBelowMinLookups(t *testing.T) {
	c := newTestCache(t, Config{MaxSize: 10})

	// Too few lookups for the hit rate to matter.
	for i := 0; i < 10; i++ {
		c.Get("absent")
	}

	if h := c.Health(); h.Status != HealthHealthy {
		t.Errorf("status = %s, want healthy before %d lookups", h.Status, HealthMinLookups)
	}
}
