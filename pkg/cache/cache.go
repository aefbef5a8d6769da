package cache

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	// DefaultMaxSize is the entry capacity used when Config.MaxSize is unset.
	DefaultMaxSize = 1000

	// DefaultTTL is the entry TTL used when neither Config.DefaultTTL nor a
	// per-entry TTL is given.
	DefaultTTL = time.Hour

	// DefaultSweepInterval is how often the background sweep removes
	// expired entries.
	DefaultSweepInterval = 5 * time.Minute

	// DefaultCompressionThreshold is the minimum string length, in bytes,
	// for a value to be considered for compression.
	DefaultCompressionThreshold = 4096
)

// Config holds cache construction options.
type Config struct {
	// MaxSize is the maximum number of entries. Inserting a new key at
	// capacity evicts the least-recently-used entry first.
	MaxSize int

	// DefaultTTL applies to entries set without an explicit TTL.
	DefaultTTL time.Duration

	// SweepInterval is the period of the background expiry sweep.
	// <= 0 uses DefaultSweepInterval.
	SweepInterval time.Duration

	// DetailedLogging enables debug logs for individual cache operations.
	DetailedLogging bool

	// MetricsEnabled controls whether Prometheus metrics are updated.
	MetricsEnabled bool

	// CompressionEnabled gzips large string values at Set time.
	CompressionEnabled bool

	// CompressionThreshold is the minimum string length for compression.
	// <= 0 uses DefaultCompressionThreshold.
	CompressionThreshold int

	// Hooks are optional observer callbacks. They run on their own
	// goroutines and must never be relied on for ordering.
	Hooks Hooks
}

// DefaultConfig returns a safe default configuration.
func DefaultConfig() Config {
	return Config{
		MaxSize:        DefaultMaxSize,
		DefaultTTL:     DefaultTTL,
		SweepInterval:  DefaultSweepInterval,
		MetricsEnabled: true,
	}
}

// Cache is a bounded in-memory key/value store with per-entry TTL, tag
// indexing and LRU eviction. All methods are safe for concurrent use.
//
// Locking is whole-structure: operations are O(1) to O(tag size) and
// short-lived, so a single mutex beats fine-grained locking here.
type Cache struct {
	mu       sync.Mutex
	entries  map[string]*entry
	tagIndex map[string]map[string]struct{}
	access   map[string]uint64
	counter  uint64
	memory   int64

	hits      uint64
	misses    uint64
	setsCount uint64
	evictions uint64

	queuedTags []string

	cfg    Config
	logger zerolog.Logger

	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	shutdown bool
}

// New constructs a cache and starts the background sweep.
func New(cfg Config) *Cache {
	if cfg.MaxSize <= 0 {
		cfg.MaxSize = DefaultMaxSize
	}
	if cfg.DefaultTTL <= 0 {
		cfg.DefaultTTL = DefaultTTL
	}
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = DefaultSweepInterval
	}
	if cfg.CompressionThreshold <= 0 {
		cfg.CompressionThreshold = DefaultCompressionThreshold
	}

	ctx, cancel := context.WithCancel(context.Background())
	c := &Cache{
		entries:  make(map[string]*entry),
		tagIndex: make(map[string]map[string]struct{}),
		access:   make(map[string]uint64),
		cfg:      cfg,
		logger:   log.With().Str("component", "cache").Logger(),
		ctx:      ctx,
		cancel:   cancel,
	}

	c.wg.Add(1)
	go c.sweepLoop()

	return c
}

// SetOption customizes a single Set call.
type SetOption func(*setOptions)

type setOptions struct {
	ttl  time.Duration
	tags []string
}

// WithTTL overrides the default TTL for one entry.
func WithTTL(ttl time.Duration) SetOption {
	return func(o *setOptions) { o.ttl = ttl }
}

// WithTags attaches tags to the entry for group invalidation.
func WithTags(tags ...string) SetOption {
	return func(o *setOptions) { o.tags = tags }
}

// Get returns the value for key. Expired entries are deleted on access and
// reported as misses. A hit bumps the key's LRU position.
func (c *Cache) Get(key string) (any, bool) {
	now := time.Now()

	c.mu.Lock()
	e, ok := c.entries[key]
	if !ok || e.expired(now) {
		if ok {
			c.removeLocked(key)
		}
		c.misses++
		c.mu.Unlock()

		c.recordMiss(key)
		return nil, false
	}

	c.counter++
	c.access[key] = c.counter
	c.hits++
	val := e.value
	c.mu.Unlock()

	out, err := val.load()
	if err != nil {
		// Corrupt compressed payload. Drop the entry and turn the
		// optimistic hit into a miss so the stats stay consistent.
		c.logger.Warn().Str("key", key).Err(err).Msg("dropping unreadable cache entry")
		c.mu.Lock()
		c.hits--
		c.misses++
		c.mu.Unlock()
		c.Delete(key)
		c.recordMiss(key)
		return nil, false
	}

	if c.cfg.MetricsEnabled {
		CacheHits.Inc()
	}
	if c.cfg.DetailedLogging {
		c.logger.Debug().Str("key", key).Msg("cache hit")
	}
	if c.cfg.Hooks.OnHit != nil {
		go c.cfg.Hooks.OnHit(key)
	}
	return out, true
}

func (c *Cache) recordMiss(key string) {
	if c.cfg.MetricsEnabled {
		CacheMisses.Inc()
	}
	if c.cfg.DetailedLogging {
		c.logger.Debug().Str("key", key).Msg("cache miss")
	}
	if c.cfg.Hooks.OnMiss != nil {
		go c.cfg.Hooks.OnMiss(key)
	}
}

// Set stores value under key. Replacing an existing key rewrites its tag
// memberships and does not count against capacity; inserting a new key at
// capacity evicts exactly one LRU entry first.
func (c *Cache) Set(key string, value any, opts ...SetOption) {
	o := setOptions{ttl: c.cfg.DefaultTTL}
	for _, opt := range opts {
		opt(&o)
	}
	if o.ttl <= 0 {
		o.ttl = c.cfg.DefaultTTL
	}

	// Encode (and possibly compress) outside the lock.
	val, size := encode(value, c.cfg.CompressionEnabled, c.cfg.CompressionThreshold)

	tags := make(map[string]struct{}, len(o.tags))
	for _, t := range o.tags {
		tags[t] = struct{}{}
	}

	c.mu.Lock()
	if old, ok := c.entries[key]; ok {
		c.detachTagsLocked(key, old)
		c.memory -= int64(old.size)
	} else if len(c.entries) >= c.cfg.MaxSize {
		c.evictOneLocked()
	}

	c.entries[key] = &entry{
		value:     val,
		createdAt: time.Now(),
		ttl:       o.ttl,
		tags:      tags,
		size:      size,
	}
	for t := range tags {
		bucket, ok := c.tagIndex[t]
		if !ok {
			bucket = make(map[string]struct{})
			c.tagIndex[t] = bucket
		}
		bucket[key] = struct{}{}
	}
	c.counter++
	c.access[key] = c.counter
	c.memory += int64(size)
	c.setsCount++
	entries := len(c.entries)
	memory := c.memory
	c.mu.Unlock()

	if c.cfg.MetricsEnabled {
		CacheSets.Inc()
		CacheEntries.Set(float64(entries))
		CacheMemoryBytes.Set(float64(memory))
	}
	if c.cfg.DetailedLogging {
		c.logger.Debug().Str("key", key).Dur("ttl", o.ttl).Strs("tags", o.tags).Msg("cache set")
	}
	if c.cfg.Hooks.OnSet != nil {
		go c.cfg.Hooks.OnSet(key)
	}
}

// Delete removes key and all of its bookkeeping. Returns whether anything
// was removed.
func (c *Cache) Delete(key string) bool {
	c.mu.Lock()
	_, ok := c.entries[key]
	if ok {
		c.removeLocked(key)
	}
	c.mu.Unlock()
	return ok
}

// Has reports whether key is present and fresh. An expired entry is
// deleted, like Get, but Has never bumps the LRU position.
func (c *Cache) Has(key string) bool {
	now := time.Now()

	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return false
	}
	if e.expired(now) {
		c.removeLocked(key)
		return false
	}
	return true
}

// InvalidateByTag deletes every entry currently carrying tag and returns
// how many entries were removed.
func (c *Cache) InvalidateByTag(tag string) int {
	c.mu.Lock()
	n := c.invalidateTagLocked(tag)
	c.mu.Unlock()

	if n > 0 {
		if c.cfg.MetricsEnabled {
			CacheInvalidations.WithLabelValues("tag").Add(float64(n))
		}
		c.logger.Debug().Str("tag", tag).Int("removed", n).Msg("tag invalidated")
	}
	return n
}

// InvalidateByTags invalidates each tag in turn and returns the sum of the
// per-tag counts. An entry carrying several of the requested tags is only
// removed once; the total is the sum of what each individual pass removed.
func (c *Cache) InvalidateByTags(tags []string) int {
	total := 0
	for _, t := range tags {
		total += c.InvalidateByTag(t)
	}
	return total
}

// QueueInvalidation records tags to be invalidated later in a single batch.
// Use this when one logical operation touches several tags.
func (c *Cache) QueueInvalidation(tags ...string) {
	c.mu.Lock()
	c.queuedTags = append(c.queuedTags, tags...)
	c.mu.Unlock()
}

// ProcessInvalidationQueue drains the queued tags and invalidates each of
// them once. Returns the number of entries removed.
func (c *Cache) ProcessInvalidationQueue() int {
	c.mu.Lock()
	queued := c.queuedTags
	c.queuedTags = nil

	seen := make(map[string]struct{}, len(queued))
	removed := 0
	for _, t := range queued {
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		removed += c.invalidateTagLocked(t)
	}
	c.mu.Unlock()

	if removed > 0 && c.cfg.MetricsEnabled {
		CacheInvalidations.WithLabelValues("queued").Add(float64(removed))
	}
	return removed
}

// Clear drops all entries, the tag index and the access order.
func (c *Cache) Clear() {
	c.mu.Lock()
	c.entries = make(map[string]*entry)
	c.tagIndex = make(map[string]map[string]struct{})
	c.access = make(map[string]uint64)
	c.memory = 0
	c.mu.Unlock()

	if c.cfg.MetricsEnabled {
		CacheEntries.Set(0)
		CacheMemoryBytes.Set(0)
	}
	c.logger.Info().Msg("cache cleared")
}

// Keys returns the cached keys, optionally filtered by a pattern where '*'
// matches any run of characters. An empty pattern returns every key.
func (c *Cache) Keys(pattern string) []string {
	c.mu.Lock()
	keys := make([]string, 0, len(c.entries))
	for k := range c.entries {
		keys = append(keys, k)
	}
	c.mu.Unlock()

	if pattern == "" {
		return keys
	}

	re, err := compilePattern(pattern)
	if err != nil {
		return nil
	}
	out := keys[:0]
	for _, k := range keys {
		if re.MatchString(k) {
			out = append(out, k)
		}
	}
	return out
}

// Size returns the current number of entries, including any that expired
// but have not been swept yet.
func (c *Cache) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Shutdown stops the background sweep and drains the invalidation queue.
// No background work survives a completed Shutdown. Safe to call twice.
func (c *Cache) Shutdown() {
	c.mu.Lock()
	if c.shutdown {
		c.mu.Unlock()
		return
	}
	c.shutdown = true
	c.mu.Unlock()

	c.cancel()
	c.wg.Wait()
	c.ProcessInvalidationQueue()
	c.logger.Info().Msg("cache shut down")
}

// sweepLoop periodically removes expired entries regardless of access
// pattern, bounding memory growth from write-once keys.
func (c *Cache) sweepLoop() {
	defer c.wg.Done()

	ticker := time.NewTicker(c.cfg.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.ctx.Done():
			return
		case <-ticker.C:
			removed := c.sweep()
			if removed > 0 {
				c.logger.Debug().Int("removed", removed).Msg("expired entries swept")
				if c.cfg.MetricsEnabled {
					CacheInvalidations.WithLabelValues("sweep").Add(float64(removed))
				}
			}
		}
	}
}

// sweep removes every expired entry and returns the count.
func (c *Cache) sweep() int {
	now := time.Now()

	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for key, e := range c.entries {
		if e.expired(now) {
			c.removeLocked(key)
			removed++
		}
	}
	return removed
}

// invalidateTagLocked removes every key under tag, including their
// memberships in other tag buckets.
func (c *Cache) invalidateTagLocked(tag string) int {
	bucket, ok := c.tagIndex[tag]
	if !ok {
		return 0
	}
	n := 0
	for key := range bucket {
		c.removeLocked(key)
		n++
	}
	delete(c.tagIndex, tag)
	return n
}

// removeLocked deletes an entry and keeps the tag index and access order
// consistent. Caller holds the lock.
func (c *Cache) removeLocked(key string) {
	e, ok := c.entries[key]
	if !ok {
		return
	}
	c.detachTagsLocked(key, e)
	c.memory -= int64(e.size)
	delete(c.entries, key)
	delete(c.access, key)
}

func (c *Cache) detachTagsLocked(key string, e *entry) {
	for t := range e.tags {
		bucket, ok := c.tagIndex[t]
		if !ok {
			continue
		}
		delete(bucket, key)
		if len(bucket) == 0 {
			delete(c.tagIndex, t)
		}
	}
}

// evictOneLocked removes the entry with the smallest access counter.
// Counters are unique per access, so there are no real ties.
func (c *Cache) evictOneLocked() {
	var (
		victim string
		oldest uint64
		found  bool
	)
	for key, ord := range c.access {
		if !found || ord < oldest {
			victim = key
			oldest = ord
			found = true
		}
	}
	if !found {
		return
	}

	c.removeLocked(victim)
	c.evictions++

	if c.cfg.MetricsEnabled {
		CacheEvictions.Inc()
	}
	if c.cfg.DetailedLogging {
		c.logger.Debug().Str("key", victim).Msg("LRU entry evicted")
	}
	if c.cfg.Hooks.OnEvict != nil {
		go c.cfg.Hooks.OnEvict(victim)
	}
}

// compilePattern turns a '*' wildcard pattern into an anchored regexp.
func compilePattern(pattern string) (*regexp.Regexp, error) {
	parts := strings.Split(pattern, "*")
	for i, p := range parts {
		parts[i] = regexp.QuoteMeta(p)
	}
	re, err := regexp.Compile("^" + strings.Join(parts, ".*") + "$")
	if err != nil {
		return nil, fmt.Errorf("compile key pattern: %w", err)
	}
	return re, nil
}
