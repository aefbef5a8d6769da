package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// SnapshotEntry is the exportable form of a cache entry. Values are always
// exported in their plain form regardless of in-memory compression.
type SnapshotEntry struct {
	Key       string        `json:"key"`
	Value     any           `json:"value"`
	TTL       time.Duration `json:"ttl"`
	Tags      []string      `json:"tags,omitempty"`
	CreatedAt time.Time     `json:"created_at"`
}

// Export returns a snapshot of every live entry. Entries that expired but
// have not been swept yet are skipped.
func (c *Cache) Export() []SnapshotEntry {
	now := time.Now()

	c.mu.Lock()
	out := make([]SnapshotEntry, 0, len(c.entries))
	for key, e := range c.entries {
		if e.expired(now) {
			continue
		}
		val, err := e.value.load()
		if err != nil {
			continue
		}
		tags := make([]string, 0, len(e.tags))
		for t := range e.tags {
			tags = append(tags, t)
		}
		out = append(out, SnapshotEntry{
			Key:       key,
			Value:     val,
			TTL:       e.ttl,
			Tags:      tags,
			CreatedAt: e.createdAt,
		})
	}
	c.mu.Unlock()

	return out
}

// Import loads a previously exported snapshot. The remaining TTL is
// recomputed as ttl - (now - createdAt); entries with no time left are
// skipped. Returns the number of entries imported.
func (c *Cache) Import(entries []SnapshotEntry) int {
	now := time.Now()
	imported := 0
	for _, e := range entries {
		remaining := e.TTL - now.Sub(e.CreatedAt)
		if remaining <= 0 {
			continue
		}
		c.Set(e.Key, e.Value, WithTTL(remaining), WithTags(e.Tags...))
		imported++
	}

	c.logger.Info().
		Int("imported", imported).
		Int("skipped", len(entries)-imported).
		Msg("cache snapshot imported")
	return imported
}

// SnapshotStore persists cache snapshots to Redis so a restarting instance
// can warm itself from its previous state. This is best-effort: the cache
// itself stays per-process and the snapshot carries no durability
// guarantee.
type SnapshotStore struct {
	redis *redis.Client
	key   string
}

// NewSnapshotStore creates a snapshot store writing to the given Redis key.
func NewSnapshotStore(redisClient *redis.Client, key string) *SnapshotStore {
	if redisClient == nil {
		panic("redis client cannot be nil")
	}
	if key == "" {
		key = "seo:cache:snapshot"
	}
	return &SnapshotStore{redis: redisClient, key: key}
}

// Save serializes the entries and writes them under the snapshot key.
// The snapshot itself expires after the longest remaining entry TTL would
// have elapsed, capped at 24h, so stale snapshots cannot linger forever.
func (s *SnapshotStore) Save(ctx context.Context, entries []SnapshotEntry) error {
	data, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	if err := s.redis.Set(ctx, s.key, data, 24*time.Hour).Err(); err != nil {
		return fmt.Errorf("redis set snapshot: %w", err)
	}
	return nil
}

// Load reads the stored snapshot. A missing snapshot returns an empty
// slice, not an error.
func (s *SnapshotStore) Load(ctx context.Context) ([]SnapshotEntry, error) {
	data, err := s.redis.Get(ctx, s.key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("redis get snapshot: %w", err)
	}

	var entries []SnapshotEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("unmarshal snapshot: %w", err)
	}
	return entries, nil
}
