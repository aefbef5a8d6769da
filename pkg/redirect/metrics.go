package redirect

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RedirectsTotal tracks redirect decisions by match kind.
	RedirectsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "seo_redirects_total",
			Help: "Total number of redirect decisions by match kind",
		},
		[]string{"kind"}, // "normalization", "exact", "prefix", "regex"
	)

	// RuleErrorsTotal tracks redirect rules that failed to compile.
	RuleErrorsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "seo_redirect_rule_errors_total",
			Help: "Total number of redirect rules with malformed patterns",
		},
	)

	// ValidationFailuresTotal tracks URLs rejected by the security validator.
	ValidationFailuresTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "seo_url_validation_failures_total",
			Help: "Total number of URLs rejected by validation",
		},
	)
)
