// Package origin fetches pages from the upstream site with retry and error
// classification.
package origin

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"

	"github.com/commercekit/seo-edge/pkg/logging"
)

// Prometheus metrics for origin fetches.
var (
	originRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "seo_origin_requests_total",
		Help: "Total number of origin fetches by HTTP status",
	}, []string{"status"})

	originRequestDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "seo_origin_request_duration_seconds",
		Help:    "Origin fetch duration in seconds",
		Buckets: prometheus.DefBuckets,
	})

	originRetriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "seo_origin_retries_total",
		Help: "Total number of retry attempts by error class",
	}, []string{"error_class"})

	originRetryExhaustedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "seo_origin_retry_exhausted_total",
		Help: "Total number of fetches that exhausted max retries by error class",
	}, []string{"error_class"})
)

// ErrorClass represents a classification of fetch errors.
type ErrorClass string

const (
	// ErrorClassClient represents 4xx client errors.
	ErrorClassClient ErrorClass = "client"

	// ErrorClassServer represents 5xx server errors.
	ErrorClassServer ErrorClass = "server"

	// ErrorClassNetwork represents network/timeout errors.
	ErrorClassNetwork ErrorClass = "network"
)

// Common errors returned by the fetcher.
var (
	// ErrRetryExhausted is returned when all retry attempts are exhausted.
	ErrRetryExhausted = errors.New("retry attempts exhausted")

	// ErrContextCancelled is returned when the context is cancelled during retry.
	ErrContextCancelled = errors.New("context cancelled")
)

// FetchError carries the classification of a failed origin fetch.
type FetchError struct {
	StatusCode int
	ErrorClass ErrorClass
	Err        error
}

func (e *FetchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("origin %s error (status %d): %v", e.ErrorClass, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("origin %s error (status %d)", e.ErrorClass, e.StatusCode)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *FetchError) Unwrap() error {
	return e.Err
}

// RetryConfig holds the configuration for retry logic.
type RetryConfig struct {
	// MaxAttempts is the maximum number of attempts (including the initial request).
	MaxAttempts int

	// InitialBackoff is the initial backoff duration.
	InitialBackoff time.Duration

	// MaxBackoff is the maximum backoff duration.
	MaxBackoff time.Duration

	// BackoffMultiplier is the multiplier for exponential backoff.
	BackoffMultiplier float64
}

// DefaultRetryConfig returns the default retry configuration.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:       3,
		InitialBackoff:    500 * time.Millisecond,
		MaxBackoff:        10 * time.Second,
		BackoffMultiplier: 2.0,
	}
}

// Fetcher fetches pages from the origin server.
type Fetcher struct {
	baseURL    string
	httpClient *http.Client
	retry      RetryConfig
	logger     zerolog.Logger
}

// New creates a Fetcher for the given origin base URL.
// Panics if baseURL is empty; that is a programmer error.
func New(baseURL string, opts ...Option) *Fetcher {
	if baseURL == "" {
		panic("origin: baseURL must not be empty")
	}
	f := &Fetcher{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		retry:      DefaultRetryConfig(),
		logger:     logging.NewLogger("origin"),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(f *Fetcher) { f.httpClient = c }
}

// WithRetryConfig replaces the retry configuration.
func WithRetryConfig(rc RetryConfig) Option {
	return func(f *Fetcher) { f.retry = rc }
}

// Fetch requests path from the origin, forwarding the given headers. Server
// and network errors are retried with exponential backoff and jitter; 4xx
// responses are returned to the caller without retry. The response body is
// open on success; the caller owns closing it.
func (f *Fetcher) Fetch(ctx context.Context, path string, header http.Header) (*http.Response, error) {
	start := time.Now()
	defer func() {
		originRequestDuration.Observe(time.Since(start).Seconds())
	}()

	var resp *http.Response
	var lastErr error
	backoff := f.retry.InitialBackoff

	for attempt := 1; attempt <= f.retry.MaxAttempts; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.baseURL+path, nil)
		if err != nil {
			return nil, fmt.Errorf("build origin request: %w", err)
		}
		for k, vs := range header {
			for _, v := range vs {
				req.Header.Add(k, v)
			}
		}

		resp, err = f.httpClient.Do(req)
		if err != nil {
			lastErr = &FetchError{ErrorClass: ErrorClassNetwork, Err: err}
			originRequestsTotal.WithLabelValues("network_error").Inc()
		} else if resp.StatusCode >= 500 {
			lastErr = &FetchError{StatusCode: resp.StatusCode, ErrorClass: ErrorClassServer}
			originRequestsTotal.WithLabelValues(fmt.Sprintf("%d", resp.StatusCode)).Inc()
			resp.Body.Close()
		} else {
			// 2xx, 3xx, and 4xx all go back to the caller unmodified.
			originRequestsTotal.WithLabelValues(fmt.Sprintf("%d", resp.StatusCode)).Inc()
			if attempt > 1 {
				f.logger.Info().
					Str("path", path).
					Int("attempt", attempt).
					Msg("Origin fetch succeeded after retry")
			}
			return resp, nil
		}

		if attempt >= f.retry.MaxAttempts {
			break
		}

		errClass := classOf(lastErr)
		originRetriesTotal.WithLabelValues(string(errClass)).Inc()

		// ±20% jitter to avoid thundering herd against a recovering origin.
		jitter := time.Duration(float64(backoff) * (0.8 + rand.Float64()*0.4))
		f.logger.Debug().
			Str("path", path).
			Str("error_class", string(errClass)).
			Int("attempt", attempt).
			Dur("backoff", jitter).
			Msg("Retrying origin fetch after backoff")

		select {
		case <-ctx.Done():
			f.logger.Warn().
				Str("path", path).
				Int("attempt", attempt).
				Msg("Context cancelled during retry backoff")
			return nil, fmt.Errorf("%w: %v", ErrContextCancelled, ctx.Err())
		case <-time.After(jitter):
		}

		backoff = time.Duration(float64(backoff) * f.retry.BackoffMultiplier)
		if backoff > f.retry.MaxBackoff {
			backoff = f.retry.MaxBackoff
		}
	}

	errClass := classOf(lastErr)
	originRetryExhaustedTotal.WithLabelValues(string(errClass)).Inc()
	f.logger.Error().
		Str("path", path).
		Str("error_class", string(errClass)).
		Int("max_attempts", f.retry.MaxAttempts).
		Msg("Origin fetch retries exhausted")

	return nil, fmt.Errorf("%w after %d attempts: %v", ErrRetryExhausted, f.retry.MaxAttempts, lastErr)
}

func classOf(err error) ErrorClass {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe.ErrorClass
	}
	return ErrorClassNetwork
}
