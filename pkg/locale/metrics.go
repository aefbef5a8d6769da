package locale

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// DetectionsTotal tracks locale detections by winning signal.
	DetectionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "seo_locale_detections_total",
			Help: "Total number of locale detections by source",
		},
		[]string{"source"}, // "url", "header", "cookie", "default"
	)

	// HreflangGenerationsTotal tracks hreflang tag set computations that
	// were not served from the memo.
	HreflangGenerationsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "seo_hreflang_generations_total",
			Help: "Total number of hreflang tag sets generated",
		},
	)
)
