package main

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/commercekit/seo-edge/internal/origin"
	"github.com/commercekit/seo-edge/internal/server"
	"github.com/commercekit/seo-edge/internal/testutil"
	"github.com/commercekit/seo-edge/pkg/cache"
	"github.com/commercekit/seo-edge/pkg/locale"
	"github.com/commercekit/seo-edge/pkg/redirect"
)

// TestWiring builds the full stack the way main does and exercises one
// request through each surface.
func TestWiring(t *testing.T) {
	mock := testutil.NewMockOrigin()
	defer mock.Close()
	mock.SetPage("/", "Home", "welcome")

	c := cache.New(cache.Config{MaxSize: 100, SweepInterval: time.Hour})
	defer c.Shutdown()

	resolver := redirect.NewResolver(redirect.NewNormalizer(redirect.DefaultPolicy()), c)
	registry, err := locale.NewRegistry(locale.Config{
		BaseURL:        "https://example.com",
		DefaultLocale:  "en",
		EnabledLocales: []string{"en"},
		Cache:          c,
	})
	if err != nil {
		t.Fatalf("NewRegistry failed: %v", err)
	}

	srv := server.New(server.Deps{
		Cache:    c,
		Resolver: resolver,
		Registry: registry,
		Fetcher:  origin.New(mock.URL()),
		BaseURL:  "https://example.com",
	})

	rec := httptest.NewRecorder()
	srv.EdgeHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("edge status = %d: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "welcome") {
		t.Error("edge should proxy the origin body")
	}

	rec = httptest.NewRecorder()
	srv.AdminHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/admin/cache/health", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("admin health status = %d", rec.Code)
	}
}
