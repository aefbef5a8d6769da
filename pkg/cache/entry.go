package cache

import (
	"bytes"
	"compress/gzip"
	"encoding/json"
	"fmt"
	"io"
	"time"
)

// entry is a single cached value together with its expiry and tag metadata.
// Entries are owned exclusively by the Cache; callers never see them.
type entry struct {
	value     storedValue
	createdAt time.Time
	ttl       time.Duration
	tags      map[string]struct{}
	size      int
}

// expired reports whether the entry is past its TTL at the given time.
func (e *entry) expired(now time.Time) bool {
	return now.Sub(e.createdAt) > e.ttl
}

// remaining returns the TTL left at the given time. Returns 0 if expired.
func (e *entry) remaining(now time.Time) time.Duration {
	left := e.ttl - now.Sub(e.createdAt)
	if left < 0 {
		return 0
	}
	return left
}

// storedValue is the tagged union stored per entry: either the value as
// given, or a gzip-compressed string. The representation is decided once
// at Set time and matched explicitly at Get time.
type storedValue struct {
	plain      any
	compressed []byte
}

// load returns the original value, decompressing if needed.
func (v storedValue) load() (any, error) {
	if v.compressed == nil {
		return v.plain, nil
	}

	zr, err := gzip.NewReader(bytes.NewReader(v.compressed))
	if err != nil {
		return nil, fmt.Errorf("open compressed value: %w", err)
	}
	defer zr.Close()

	raw, err := io.ReadAll(zr)
	if err != nil {
		return nil, fmt.Errorf("decompress value: %w", err)
	}
	return string(raw), nil
}

// encode converts a caller value into its stored representation. Only
// string values at or above threshold are compressed; everything else is
// stored as-is. The returned size is the approximate in-memory footprint
// in bytes.
func encode(value any, compress bool, threshold int) (storedValue, int) {
	if s, ok := value.(string); ok && compress && len(s) >= threshold {
		var buf bytes.Buffer
		zw := gzip.NewWriter(&buf)
		if _, err := zw.Write([]byte(s)); err == nil && zw.Close() == nil {
			if buf.Len() < len(s) {
				return storedValue{compressed: buf.Bytes()}, buf.Len()
			}
		} else {
			_ = zw.Close()
		}
		// Compression failed or did not help; fall through to plain.
	}
	return storedValue{plain: value}, approxSize(value)
}

// approxSize estimates the in-memory footprint of a value in bytes.
// The estimate only feeds the memory gauge and the health policy, so a
// rough number is fine.
func approxSize(value any) int {
	switch v := value.(type) {
	case string:
		return len(v)
	case []byte:
		return len(v)
	case nil:
		return 0
	default:
		if raw, err := json.Marshal(v); err == nil {
			return len(raw)
		}
		return 64
	}
}
