package cache

import (
	"context"
	"time"
)

// Priority orders warmup strategies. High-priority strategies populate the
// cache first so the most valuable entries survive capacity pressure.
type Priority int

const (
	// PriorityHigh strategies run first.
	PriorityHigh Priority = iota

	// PriorityMedium strategies run after high.
	PriorityMedium

	// PriorityLow strategies run last.
	PriorityLow
)

// WarmupEntry is a single entry produced by a warmup strategy.
type WarmupEntry struct {
	Key   string
	Value any

	// TTL of 0 uses the cache default.
	TTL time.Duration

	Tags []string
}

// Strategy produces entries to preload into the cache. Entries is called
// without the cache lock held, so a strategy may do slow work (database
// reads, upstream fetches) safely.
type Strategy interface {
	// Name identifies the strategy in logs.
	Name() string

	// Priority determines the execution bucket.
	Priority() Priority

	// Entries returns the entries to preload.
	Entries(ctx context.Context) ([]WarmupEntry, error)
}

// Warmup runs the given strategies sequentially in priority order
// (high, then medium, then low). A failing strategy is logged and skipped;
// it never aborts the remaining strategies. Returns the number of entries
// loaded.
func (c *Cache) Warmup(ctx context.Context, strategies []Strategy) int {
	loaded := 0
	for _, bucket := range []Priority{PriorityHigh, PriorityMedium, PriorityLow} {
		for _, s := range strategies {
			if s.Priority() != bucket {
				continue
			}

			entries, err := s.Entries(ctx)
			if err != nil {
				c.logger.Warn().
					Str("strategy", s.Name()).
					Err(err).
					Msg("warmup strategy failed")
				continue
			}

			for _, e := range entries {
				opts := []SetOption{WithTags(e.Tags...)}
				if e.TTL > 0 {
					opts = append(opts, WithTTL(e.TTL))
				}
				c.Set(e.Key, e.Value, opts...)
				loaded++
			}

			c.logger.Info().
				Str("strategy", s.Name()).
				Int("entries", len(entries)).
				Msg("warmup strategy completed")
		}
	}
	return loaded
}
