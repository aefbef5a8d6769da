package integration

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/commercekit/seo-edge/pkg/cache"
)

// setupRedis creates a Redis container for integration testing.
func setupRedis(t *testing.T) (*redis.Client, func()) {
	t.Helper()

	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForLog("Ready to accept connections"),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Fatalf("Failed to start Redis container: %v", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("Failed to get container host: %v", err)
	}
	port, err := container.MappedPort(ctx, "6379")
	if err != nil {
		t.Fatalf("Failed to get container port: %v", err)
	}

	client := redis.NewClient(&redis.Options{
		Addr: host + ":" + port.Port(),
	})

	cleanup := func() {
		client.Close()
		container.Terminate(ctx)
	}
	return client, cleanup
}

func TestSnapshotStore_SaveLoadRoundTrip(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	redisClient, cleanup := setupRedis(t)
	defer cleanup()

	ctx := context.Background()
	store := cache.NewSnapshotStore(redisClient, "")

	src := cache.New(cache.Config{MaxSize: 100, SweepInterval: time.Hour})
	defer src.Shutdown()

	src.Set("page:/shoes", "<html>shoes</html>",
		cache.WithTTL(time.Hour), cache.WithTags("pages", "category:shoes"))
	src.Set("redirect:https://example.com/old", "decision",
		cache.WithTTL(30*time.Minute), cache.WithTags("redirects"))

	if err := store.Save(ctx, src.Export()); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	// A fresh process restores the snapshot into an empty cache.
	dst := cache.New(cache.Config{MaxSize: 100, SweepInterval: time.Hour})
	defer dst.Shutdown()

	entries, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if n := dst.Import(entries); n != 2 {
		t.Fatalf("imported %d entries, want 2", n)
	}

	if v, ok := dst.Get("page:/shoes"); !ok || v != "<html>shoes</html>" {
		t.Errorf("page entry = %v (%v), want restored value", v, ok)
	}

	// Tag memberships survive the round trip.
	if removed := dst.InvalidateByTag("category:shoes"); removed != 1 {
		t.Errorf("invalidated %d entries by tag, want 1", removed)
	}
	if !dst.Has("redirect:https://example.com/old") {
		t.Error("untagged entry must survive the invalidation")
	}
}

func TestSnapshotStore_LoadMissingKey(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	redisClient, cleanup := setupRedis(t)
	defer cleanup()

	store := cache.NewSnapshotStore(redisClient, "seo:cache:absent")
	entries, err := store.Load(context.Background())
	if err != nil {
		t.Fatalf("Load of missing key must not error: %v", err)
	}
	if entries != nil {
		t.Errorf("entries = %v, want nil for a missing snapshot", entries)
	}
}
