package locale

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/commercekit/seo-edge/pkg/cache"
)

// Direction is the writing direction of a locale.
type Direction string

const (
	// DirectionLTR is left-to-right.
	DirectionLTR Direction = "ltr"

	// DirectionRTL is right-to-left.
	DirectionRTL Direction = "rtl"
)

// Locale describes one language/region variant served by the storefront.
type Locale struct {
	Code       string    `json:"code"`
	Name       string    `json:"name"`
	NativeName string    `json:"native_name"`
	Direction  Direction `json:"direction"`
	Currency   string    `json:"currency"`
	DateFormat string    `json:"date_format"`
	Enabled    bool      `json:"enabled"`
	Default    bool      `json:"default"`
}

// builtinLocales seeds metadata for common locale codes. Entries can be
// overridden through Upsert.
var builtinLocales = map[string]Locale{
	"en": {Code: "en", Name: "English", NativeName: "English", Direction: DirectionLTR, Currency: "USD", DateFormat: "MM/DD/YYYY"},
	"fr": {Code: "fr", Name: "French", NativeName: "Français", Direction: DirectionLTR, Currency: "EUR", DateFormat: "DD/MM/YYYY"},
	"de": {Code: "de", Name: "German", NativeName: "Deutsch", Direction: DirectionLTR, Currency: "EUR", DateFormat: "DD.MM.YYYY"},
	"es": {Code: "es", Name: "Spanish", NativeName: "Español", Direction: DirectionLTR, Currency: "EUR", DateFormat: "DD/MM/YYYY"},
	"it": {Code: "it", Name: "Italian", NativeName: "Italiano", Direction: DirectionLTR, Currency: "EUR", DateFormat: "DD/MM/YYYY"},
	"pt": {Code: "pt", Name: "Portuguese", NativeName: "Português", Direction: DirectionLTR, Currency: "EUR", DateFormat: "DD/MM/YYYY"},
	"nl": {Code: "nl", Name: "Dutch", NativeName: "Nederlands", Direction: DirectionLTR, Currency: "EUR", DateFormat: "DD-MM-YYYY"},
	"ar": {Code: "ar", Name: "Arabic", NativeName: "العربية", Direction: DirectionRTL, Currency: "AED", DateFormat: "DD/MM/YYYY"},
	"he": {Code: "he", Name: "Hebrew", NativeName: "עברית", Direction: DirectionRTL, Currency: "ILS", DateFormat: "DD/MM/YYYY"},
	"ja": {Code: "ja", Name: "Japanese", NativeName: "日本語", Direction: DirectionLTR, Currency: "JPY", DateFormat: "YYYY/MM/DD"},
	"zh": {Code: "zh", Name: "Chinese", NativeName: "中文", Direction: DirectionLTR, Currency: "CNY", DateFormat: "YYYY-MM-DD"},
	"ru": {Code: "ru", Name: "Russian", NativeName: "Русский", Direction: DirectionLTR, Currency: "RUB", DateFormat: "DD.MM.YYYY"},
}

// ValidationError carries every reason a registry mutation was rejected.
// The registry state is untouched when one is returned.
type ValidationError struct {
	Issues []string
}

func (e *ValidationError) Error() string {
	return "invalid locale configuration: " + strings.Join(e.Issues, "; ")
}

// Config holds registry construction options.
type Config struct {
	// BaseURL is the canonical site origin used to build hreflang hrefs,
	// without a trailing slash.
	BaseURL string

	// DefaultLocale is the code served at unprefixed paths.
	DefaultLocale string

	// EnabledLocales lists the codes to enable. Must include DefaultLocale.
	EnabledLocales []string

	// Cache memoizes hreflang generation. Optional.
	Cache *cache.Cache
}

// Registry holds the locale set. All methods are safe for concurrent use.
type Registry struct {
	mu          sync.RWMutex
	locales     map[string]Locale
	defaultCode string

	baseURL string
	cache   *cache.Cache
	logger  zerolog.Logger
}

// NewRegistry builds a registry from the built-in metadata table and the
// configured enabled set.
func NewRegistry(cfg Config) (*Registry, error) {
	cfg.DefaultLocale = strings.ToLower(strings.TrimSpace(cfg.DefaultLocale))
	if cfg.DefaultLocale == "" {
		return nil, fmt.Errorf("default locale is required")
	}
	if len(cfg.EnabledLocales) == 0 {
		cfg.EnabledLocales = []string{cfg.DefaultLocale}
	}

	locales := make(map[string]Locale, len(cfg.EnabledLocales))
	haveDefault := false
	for _, code := range cfg.EnabledLocales {
		code = strings.ToLower(strings.TrimSpace(code))
		if code == "" {
			continue
		}
		loc, ok := builtinLocales[code]
		if !ok {
			// Unknown code: minimal metadata, still usable.
			loc = Locale{Code: code, Name: code, NativeName: code, Direction: DirectionLTR}
		}
		loc.Enabled = true
		loc.Default = code == cfg.DefaultLocale
		if loc.Default {
			haveDefault = true
		}
		locales[code] = loc
	}
	if !haveDefault {
		return nil, fmt.Errorf("default locale %q is not in the enabled set", cfg.DefaultLocale)
	}

	return &Registry{
		locales:     locales,
		defaultCode: cfg.DefaultLocale,
		baseURL:     strings.TrimSuffix(cfg.BaseURL, "/"),
		cache:       cfg.Cache,
		logger:      log.With().Str("component", "locale").Logger(),
	}, nil
}

// DefaultCode returns the current default locale code.
func (r *Registry) DefaultCode() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.defaultCode
}

// Get returns a locale by code.
func (r *Registry) Get(code string) (Locale, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	loc, ok := r.locales[strings.ToLower(code)]
	return loc, ok
}

// Enabled returns the enabled locale codes in sorted order.
func (r *Registry) Enabled() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.enabledLocked()
}

func (r *Registry) enabledLocked() []string {
	codes := make([]string, 0, len(r.locales))
	for code, loc := range r.locales {
		if loc.Enabled {
			codes = append(codes, code)
		}
	}
	sort.Strings(codes)
	return codes
}

// Locales returns every registered locale, sorted by code.
func (r *Registry) Locales() []Locale {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Locale, 0, len(r.locales))
	for _, loc := range r.locales {
		out = append(out, loc)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}

// isEnabled reports whether code names an enabled locale.
func (r *Registry) isEnabled(code string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	loc, ok := r.locales[code]
	return ok && loc.Enabled
}

// Upsert adds or replaces a locale. The mutation is validated as a whole:
// on any failure the registry is unchanged and every issue is reported.
// Upserting with Default set moves the default; upserting the current
// default with Default cleared is rejected.
func (r *Registry) Upsert(loc Locale) error {
	loc.Code = strings.ToLower(strings.TrimSpace(loc.Code))

	var issues []string
	if loc.Code == "" {
		issues = append(issues, "code is required")
	}
	if loc.Name == "" {
		issues = append(issues, "name is required")
	}
	if loc.Direction != DirectionLTR && loc.Direction != DirectionRTL {
		issues = append(issues, "direction must be ltr or rtl")
	}
	if loc.Default && !loc.Enabled {
		issues = append(issues, "the default locale must be enabled")
	}

	r.mu.Lock()
	if loc.Code == r.defaultCode {
		if !loc.Default {
			issues = append(issues, "cannot unset the default locale; set another default first")
		}
		if !loc.Enabled {
			issues = append(issues, "cannot disable the default locale")
		}
	}
	if len(issues) > 0 {
		r.mu.Unlock()
		return &ValidationError{Issues: issues}
	}

	if loc.Default {
		if prev, ok := r.locales[r.defaultCode]; ok && r.defaultCode != loc.Code {
			prev.Default = false
			r.locales[r.defaultCode] = prev
		}
		r.defaultCode = loc.Code
	}
	r.locales[loc.Code] = loc
	r.mu.Unlock()

	r.invalidateHreflang()
	r.logger.Info().Str("locale", loc.Code).Bool("default", loc.Default).Msg("locale upserted")
	return nil
}

// Remove deletes a locale. Removing the default is rejected.
func (r *Registry) Remove(code string) error {
	code = strings.ToLower(code)

	r.mu.Lock()
	if _, ok := r.locales[code]; !ok {
		r.mu.Unlock()
		return &ValidationError{Issues: []string{fmt.Sprintf("unknown locale %q", code)}}
	}
	if code == r.defaultCode {
		r.mu.Unlock()
		return &ValidationError{Issues: []string{"cannot remove the default locale"}}
	}
	delete(r.locales, code)
	r.mu.Unlock()

	r.invalidateHreflang()
	r.logger.Info().Str("locale", code).Msg("locale removed")
	return nil
}

// SetEnabled toggles a locale. Disabling the default is rejected.
func (r *Registry) SetEnabled(code string, enabled bool) error {
	code = strings.ToLower(code)

	r.mu.Lock()
	loc, ok := r.locales[code]
	if !ok {
		r.mu.Unlock()
		return &ValidationError{Issues: []string{fmt.Sprintf("unknown locale %q", code)}}
	}
	if code == r.defaultCode && !enabled {
		r.mu.Unlock()
		return &ValidationError{Issues: []string{"cannot disable the default locale"}}
	}
	loc.Enabled = enabled
	r.locales[code] = loc
	r.mu.Unlock()

	r.invalidateHreflang()
	return nil
}

// SetDefault moves the default to an existing enabled locale.
func (r *Registry) SetDefault(code string) error {
	code = strings.ToLower(code)

	r.mu.Lock()
	loc, ok := r.locales[code]
	if !ok {
		r.mu.Unlock()
		return &ValidationError{Issues: []string{fmt.Sprintf("unknown locale %q", code)}}
	}
	if !loc.Enabled {
		r.mu.Unlock()
		return &ValidationError{Issues: []string{"default locale must be enabled"}}
	}
	if prev, ok := r.locales[r.defaultCode]; ok {
		prev.Default = false
		r.locales[r.defaultCode] = prev
	}
	loc.Default = true
	r.locales[code] = loc
	r.defaultCode = code
	r.mu.Unlock()

	r.invalidateHreflang()
	r.logger.Info().Str("locale", code).Msg("default locale changed")
	return nil
}

// invalidateHreflang drops memoized hreflang sets after any configuration
// change.
func (r *Registry) invalidateHreflang() {
	if r.cache != nil {
		r.cache.InvalidateByTag(hreflangTag)
	}
}
