package cache

import (
	"testing"
	"time"
)

func TestExportImport_RoundTrip(t *testing.T) {
	src := newTestCache(t, DefaultConfig())
	src.Set("k1", "v1", WithTags("a"))
	src.Set("k2", "v2", WithTTL(time.Minute), WithTags("a", "b"))

	entries := src.Export()
	if len(entries) != 2 {
		t.Fatalf("exported %d entries, want 2", len(entries))
	}

	dst := newTestCache(t, DefaultConfig())
	if n := dst.Import(entries); n != 2 {
		t.Errorf("imported %d entries, want 2", n)
	}

	if v, ok := dst.Get("k1"); !ok || v != "v1" {
		t.Errorf("k1 = %v (%v), want v1", v, ok)
	}

	// Tags must survive the round trip.
	if n := dst.InvalidateByTag("a"); n != 2 {
		t.Errorf("invalidated %d entries under imported tag, want 2", n)
	}
}

func TestImport_SkipsSpentTTL(t *testing.T) {
	dst := newTestCache(t, DefaultConfig())

	entries := []SnapshotEntry{
		{Key: "dead", Value: "v", TTL: time.Minute, CreatedAt: time.Now().Add(-2 * time.Minute)},
		{Key: "alive", Value: "v", TTL: time.Hour, CreatedAt: time.Now().Add(-time.Minute)},
	}

	if n := dst.Import(entries); n != 1 {
		t.Errorf("imported %d entries, want 1", n)
	}
	if dst.Has("dead") {
		t.Error("entry with spent TTL must be skipped")
	}
	if !dst.Has("alive") {
		t.Error("entry with remaining TTL must be imported")
	}
}

func TestImport_RecomputesRemainingTTL(t *testing.T) {
	dst := newTestCache(t, DefaultConfig())

	// 30ms TTL of which 20ms is already spent.
	entries := []SnapshotEntry{
		{Key: "k", Value: "v", TTL: 30 * time.Millisecond, CreatedAt: time.Now().Add(-20 * time.Millisecond)},
	}
	dst.Import(entries)

	if !dst.Has("k") {
		t.Fatal("entry should be fresh right after import")
	}
	time.Sleep(20 * time.Millisecond)
	if dst.Has("k") {
		t.Error("imported entry should expire after its remaining TTL, not the full TTL")
	}
}

func TestExport_SkipsExpired(t *testing.T) {
	src := newTestCache(t, DefaultConfig())
	src.Set("dead", "v", WithTTL(5*time.Millisecond))
	src.Set("alive", "v", WithTTL(time.Hour))

	time.Sleep(10 * time.Millisecond)

	entries := src.Export()
	if len(entries) != 1 || entries[0].Key != "alive" {
		t.Errorf("export = %+v, want only the live entry", entries)
	}
}
