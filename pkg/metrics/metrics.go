// Package metrics provides the centralized Prometheus metrics registry for
// the SEO edge service. All metrics are defined in their respective packages
// (cache, redirect, locale, origin) to maintain modularity and avoid circular
// dependencies.
//
// This package provides documentation and reference for all available metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Registry is the default Prometheus registry used by the SEO edge service.
// All metrics are automatically registered via promauto in their respective packages.
var Registry = prometheus.DefaultRegisterer

// Metrics Documentation
//
// Cache Metrics (pkg/cache):
//   - seo_cache_hits_total (Counter): Cache hits
//   - seo_cache_misses_total (Counter): Cache misses
//   - seo_cache_sets_total (Counter): Entries stored
//   - seo_cache_evictions_total (Counter): Entries evicted at capacity
//   - seo_cache_invalidations_total{reason} (Counter): Entries removed by tag, queue, or sweep
//   - seo_cache_entries (Gauge): Current entry count
//   - seo_cache_memory_bytes (Gauge): Estimated memory footprint
//
// Redirect Metrics (pkg/redirect):
//   - seo_redirects_total{kind} (Counter): Redirect decisions by kind (normalization, exact, prefix, regex)
//   - seo_redirect_rule_errors_total (Counter): Malformed rules skipped during evaluation
//   - seo_url_validation_failures_total (Counter): URLs rejected by validation
//
// Locale Metrics (pkg/locale):
//   - seo_locale_detections_total{source} (Counter): Detections by winning signal (url, header, cookie, default)
//   - seo_hreflang_generations_total (Counter): Hreflang tag sets generated (memo misses)
//
// Origin Metrics (internal/origin):
//   - seo_origin_requests_total{status} (Counter): Origin fetches by HTTP status
//   - seo_origin_request_duration_seconds (Histogram): Origin fetch duration
//   - seo_origin_retries_total{error_class} (Counter): Retry attempts by error class
//   - seo_origin_retry_exhausted_total{error_class} (Counter): Fetches that exhausted max retries
//
// Example Prometheus Queries:
//
//   # Cache Hit Rate
//   sum(rate(seo_cache_hits_total[5m])) /
//   (sum(rate(seo_cache_hits_total[5m])) + sum(rate(seo_cache_misses_total[5m])))
//
//   # Redirect Rate by Kind
//   rate(seo_redirects_total[5m])
//
//   # P95 Origin Latency
//   histogram_quantile(0.95, rate(seo_origin_request_duration_seconds_bucket[5m]))
//
//   # Locale Detection Fallback Rate
//   rate(seo_locale_detections_total{source="default"}[5m]) /
//   sum(rate(seo_locale_detections_total[5m]))
