// Package cache implements the tag-indexed in-memory cache used by the
// SEO edge engines.
//
// The cache is a bounded key/value store with per-entry TTL, LRU eviction
// and tag-based group invalidation. Tags let callers expire related entries
// in one call (for example every memoized redirect decision for a URL when
// a rule changes, or every hreflang set when the locale configuration
// changes).
//
// Expiration is enforced twice: lazily on Get/Has (stale entries are
// deleted on access) and eagerly by a periodic sweep goroutine, so
// write-once/never-read keys cannot grow memory without bound.
//
// Each process owns its cache. There is no cross-process coordination;
// the optional Redis snapshot store only persists Export output so a
// restarting instance can warm itself, it is never read on the hot path.
package cache
