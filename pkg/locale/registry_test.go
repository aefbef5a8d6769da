package locale

import (
	"errors"
	"testing"
	"time"

	"github.com/commercekit/seo-edge/pkg/cache"
)

func newTestRegistry(t *testing.T, defaultCode string, enabled ...string) (*Registry, *cache.Cache) {
	t.Helper()
	memo := cache.New(cache.Config{MaxSize: 100, SweepInterval: time.Hour})
	t.Cleanup(memo.Shutdown)

	r, err := NewRegistry(Config{
		BaseURL:        "https://example.com",
		DefaultLocale:  defaultCode,
		EnabledLocales: enabled,
		Cache:          memo,
	})
	if err != nil {
		t.Fatalf("NewRegistry failed: %v", err)
	}
	return r, memo
}

func TestNewRegistry(t *testing.T) {
	r, _ := newTestRegistry(t, "en", "en", "fr", "ar")

	if r.DefaultCode() != "en" {
		t.Errorf("default = %q, want en", r.DefaultCode())
	}
	if got := r.Enabled(); len(got) != 3 {
		t.Errorf("enabled = %v, want 3 locales", got)
	}

	ar, ok := r.Get("ar")
	if !ok {
		t.Fatal("ar should be registered")
	}
	if ar.Direction != DirectionRTL {
		t.Errorf("ar direction = %s, want rtl", ar.Direction)
	}
}

func TestNewRegistry_DefaultMustBeEnabled(t *testing.T) {
	_, err := NewRegistry(Config{DefaultLocale: "de", EnabledLocales: []string{"en", "fr"}})
	if err == nil {
		t.Error("expected error when default is not in the enabled set")
	}
}

func TestNewRegistry_UnknownCodeGetsMinimalMetadata(t *testing.T) {
	r, _ := newTestRegistry(t, "xx", "xx")

	loc, ok := r.Get("xx")
	if !ok {
		t.Fatal("unknown code should still register")
	}
	if loc.Name != "xx" || loc.Direction != DirectionLTR {
		t.Errorf("loc = %+v, want minimal ltr metadata", loc)
	}
}

func TestUpsert_RejectsInvalidAtomically(t *testing.T) {
	r, _ := newTestRegistry(t, "en", "en", "fr")

	err := r.Upsert(Locale{Code: "", Name: "", Direction: "sideways", Enabled: true})
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("err = %v, want ValidationError", err)
	}
	if len(verr.Issues) != 3 {
		t.Errorf("issues = %v, want all three reasons reported", verr.Issues)
	}
	if len(r.Enabled()) != 2 {
		t.Error("failed mutation must not change the registry")
	}
}

func TestUpsert_CannotUnsetOrDisableDefault(t *testing.T) {
	r, _ := newTestRegistry(t, "en", "en", "fr")

	if err := r.Upsert(Locale{Code: "en", Name: "English", Direction: DirectionLTR, Enabled: true, Default: false}); err == nil {
		t.Error("unsetting the sole default must be rejected")
	}
	if err := r.Upsert(Locale{Code: "en", Name: "English", Direction: DirectionLTR, Enabled: false, Default: true}); err == nil {
		t.Error("disabling the default must be rejected")
	}
	if r.DefaultCode() != "en" {
		t.Error("default must be unchanged after rejected mutations")
	}
}

func TestUpsert_RejectsDisabledDefault(t *testing.T) {
	r, _ := newTestRegistry(t, "en", "en", "fr")

	// A new locale cannot become the default while disabled; the default
	// must always be enabled.
	err := r.Upsert(Locale{Code: "de", Name: "German", Direction: DirectionLTR, Enabled: false, Default: true})
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("err = %v, want ValidationError", err)
	}

	if r.DefaultCode() != "en" {
		t.Errorf("default = %q, want en unchanged", r.DefaultCode())
	}
	if _, ok := r.Get("de"); ok {
		t.Error("rejected locale must not be stored")
	}

	d := r.Detect("", "", "")
	if d.Code != "en" {
		t.Errorf("fallback detection = %q, want the enabled default en", d.Code)
	}
}

func TestUpsert_MovesDefault(t *testing.T) {
	r, _ := newTestRegistry(t, "en", "en", "fr")

	err := r.Upsert(Locale{Code: "fr", Name: "French", Direction: DirectionLTR, Enabled: true, Default: true})
	if err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	if r.DefaultCode() != "fr" {
		t.Errorf("default = %q, want fr", r.DefaultCode())
	}
	en, _ := r.Get("en")
	if en.Default {
		t.Error("previous default flag must be cleared; exactly one default at all times")
	}
}

func TestRemove_DefaultRejected(t *testing.T) {
	r, _ := newTestRegistry(t, "en", "en", "fr")

	if err := r.Remove("en"); err == nil {
		t.Error("removing the default must be rejected")
	}
	if err := r.Remove("fr"); err != nil {
		t.Errorf("removing a non-default locale failed: %v", err)
	}
	if err := r.Remove("fr"); err == nil {
		t.Error("removing an unknown locale must report an error")
	}
}

func TestSetEnabled_DefaultRejected(t *testing.T) {
	r, _ := newTestRegistry(t, "en", "en", "fr")

	if err := r.SetEnabled("en", false); err == nil {
		t.Error("disabling the default must be rejected")
	}
	if err := r.SetEnabled("fr", false); err != nil {
		t.Errorf("disabling fr failed: %v", err)
	}
	if got := r.Enabled(); len(got) != 1 || got[0] != "en" {
		t.Errorf("enabled = %v, want [en]", got)
	}
}

func TestSetDefault(t *testing.T) {
	r, _ := newTestRegistry(t, "en", "en", "fr")

	if err := r.SetDefault("fr"); err != nil {
		t.Fatalf("SetDefault failed: %v", err)
	}
	if r.DefaultCode() != "fr" {
		t.Errorf("default = %q, want fr", r.DefaultCode())
	}

	if err := r.SetDefault("zz"); err == nil {
		t.Error("unknown locale must be rejected")
	}

	r.SetEnabled("en", false)
	if err := r.SetDefault("en"); err == nil {
		t.Error("disabled locale must be rejected as default")
	}
}

func TestMutation_InvalidatesHreflangMemo(t *testing.T) {
	r, memo := newTestRegistry(t, "en", "en", "fr")

	r.Hreflang("/shoes", "en")
	if len(memo.Keys("hreflang:*")) == 0 {
		t.Fatal("hreflang result should be memoized")
	}

	if err := r.Upsert(Locale{Code: "de", Name: "German", Direction: DirectionLTR, Enabled: true}); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}
	if len(memo.Keys("hreflang:*")) != 0 {
		t.Error("locale mutation must drop memoized hreflang sets")
	}
}
