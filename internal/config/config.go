// Package config loads service configuration from the environment.
package config

import (
	"fmt"
	"net/url"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds the full service configuration. Every field is bound to a
// SEO_-prefixed environment variable with a sensible default; only the
// origin URL is required.
type Config struct {
	ListenAddr string `env:"SEO_LISTEN_ADDR" envDefault:":8080"`
	AdminAddr  string `env:"SEO_ADMIN_ADDR" envDefault:":9090"`
	OriginURL  string `env:"SEO_ORIGIN_URL"`
	BaseURL    string `env:"SEO_BASE_URL" envDefault:"https://example.com"`

	Cache     CacheConfig
	Normalize NormalizeConfig
	Security  SecurityConfig
	Locale    LocaleConfig
	Log       LogConfig
}

// CacheConfig configures the in-process cache.
type CacheConfig struct {
	MaxSize            int           `env:"SEO_CACHE_MAX_SIZE" envDefault:"1000"`
	DefaultTTL         time.Duration `env:"SEO_CACHE_DEFAULT_TTL" envDefault:"1h"`
	SweepInterval      time.Duration `env:"SEO_CACHE_SWEEP_INTERVAL" envDefault:"5m"`
	DetailedLogging    bool          `env:"SEO_CACHE_DETAILED_LOGGING" envDefault:"false"`
	MetricsEnabled     bool          `env:"SEO_CACHE_METRICS_ENABLED" envDefault:"true"`
	CompressionEnabled bool          `env:"SEO_CACHE_COMPRESSION_ENABLED" envDefault:"false"`
	SnapshotRedisURL   string        `env:"SEO_SNAPSHOT_REDIS_URL"`
}

// NormalizeConfig configures URL normalization policy.
type NormalizeConfig struct {
	EnforceHTTPS         bool     `env:"SEO_ENFORCE_HTTPS" envDefault:"true"`
	RemoveWWW            bool     `env:"SEO_REMOVE_WWW" envDefault:"true"`
	EnforceLowercase     bool     `env:"SEO_ENFORCE_LOWERCASE" envDefault:"true"`
	RemoveIndexFiles     bool     `env:"SEO_REMOVE_INDEX_FILES" envDefault:"true"`
	RemoveTrailingSlash  bool     `env:"SEO_REMOVE_TRAILING_SLASH" envDefault:"true"`
	EnforceTrailingSlash bool     `env:"SEO_ENFORCE_TRAILING_SLASH" envDefault:"false"`
	RemoveQueryParams    []string `env:"SEO_REMOVE_QUERY_PARAMS" envDefault:"utm_source,utm_medium,utm_campaign,utm_term,utm_content,fbclid,gclid"`
	SortQueryParams      bool     `env:"SEO_SORT_QUERY_PARAMS" envDefault:"true"`
}

// SecurityConfig configures URL validation and sanitization.
type SecurityConfig struct {
	AllowedProtocols          []string `env:"SEO_ALLOWED_PROTOCOLS" envDefault:"http,https"`
	BlockedPaths              []string `env:"SEO_BLOCKED_PATHS"`
	MaxURLLength              int      `env:"SEO_MAX_URL_LENGTH" envDefault:"2048"`
	AllowedFileExtensions     []string `env:"SEO_ALLOWED_FILE_EXTENSIONS" envDefault:"html,htm,php,asp,aspx,jsp,pdf,jpg,jpeg,png,gif,webp,svg,css,js,xml,txt"`
	SanitizeSpecialChars      bool     `env:"SEO_SANITIZE_SPECIAL_CHARS" envDefault:"true"`
	PreventDirectoryTraversal bool     `env:"SEO_PREVENT_DIRECTORY_TRAVERSAL" envDefault:"true"`
}

// LocaleConfig configures the locale registry.
type LocaleConfig struct {
	DefaultLocale  string   `env:"SEO_DEFAULT_LOCALE" envDefault:"en"`
	EnabledLocales []string `env:"SEO_ENABLED_LOCALES" envDefault:"en"`
}

// LogConfig configures structured logging.
type LogConfig struct {
	Level  string `env:"SEO_LOG_LEVEL" envDefault:"info"`
	Pretty bool   `env:"SEO_LOG_PRETTY" envDefault:"false"`
}

// Load parses the configuration from the environment and validates it.
func Load() (Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return Config{}, fmt.Errorf("parse environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks cross-field constraints that tag defaults cannot express.
func (c Config) Validate() error {
	if c.OriginURL == "" {
		return fmt.Errorf("SEO_ORIGIN_URL is required")
	}
	if _, err := url.ParseRequestURI(c.OriginURL); err != nil {
		return fmt.Errorf("SEO_ORIGIN_URL is not a valid URL: %w", err)
	}
	if c.Normalize.RemoveTrailingSlash && c.Normalize.EnforceTrailingSlash {
		// Removal wins at runtime, but asking for both is a config mistake.
		return fmt.Errorf("SEO_REMOVE_TRAILING_SLASH and SEO_ENFORCE_TRAILING_SLASH are mutually exclusive")
	}
	if c.Cache.MaxSize <= 0 {
		return fmt.Errorf("SEO_CACHE_MAX_SIZE must be positive")
	}
	return nil
}
