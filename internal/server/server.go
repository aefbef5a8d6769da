// Package server wires the edge and admin HTTP surfaces.
package server

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/commercekit/seo-edge/internal/origin"
	"github.com/commercekit/seo-edge/pkg/cache"
	"github.com/commercekit/seo-edge/pkg/locale"
	"github.com/commercekit/seo-edge/pkg/logging"
	"github.com/commercekit/seo-edge/pkg/redirect"
)

// Deps are the collaborators a Server needs. All fields are required
// except Validator, which disables request validation when nil.
type Deps struct {
	Cache     *cache.Cache
	Resolver  *redirect.Resolver
	Registry  *locale.Registry
	Fetcher   *origin.Fetcher
	Validator *redirect.Validator

	// BaseURL is the canonical public base of the site, used to build the
	// absolute URL the redirect resolver evaluates.
	BaseURL string
}

// Server serves the edge traffic and the admin API.
type Server struct {
	cache     *cache.Cache
	resolver  *redirect.Resolver
	registry  *locale.Registry
	fetcher   *origin.Fetcher
	validator *redirect.Validator
	baseURL   string
	logger    zerolog.Logger
}

// New creates a Server. Panics on missing required collaborators; that is
// a programmer error, not a runtime condition.
func New(deps Deps) *Server {
	if deps.Cache == nil || deps.Resolver == nil || deps.Registry == nil || deps.Fetcher == nil {
		panic("server: cache, resolver, registry and fetcher are required")
	}
	return &Server{
		cache:     deps.Cache,
		resolver:  deps.Resolver,
		registry:  deps.Registry,
		fetcher:   deps.Fetcher,
		validator: deps.Validator,
		baseURL:   deps.BaseURL,
		logger:    logging.NewLogger("server"),
	}
}

// EdgeHandler returns the router for public traffic.
func (s *Server) EdgeHandler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.NotFound(s.handleEdge)
	r.Get("/*", s.handleEdge)
	return r
}

// AdminHandler returns the router for the operations API, including the
// Prometheus metrics endpoint.
func (s *Server) AdminHandler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Route("/admin", func(r chi.Router) {
		r.Get("/cache/stats", s.handleCacheStats)
		r.Get("/cache/health", s.handleCacheHealth)
		r.Post("/cache/clear", s.handleCacheClear)
		r.Post("/cache/invalidate", s.handleCacheInvalidate)

		r.Get("/rules", s.handleRulesList)
		r.Post("/rules", s.handleRuleAdd)
		r.Delete("/rules/{id}", s.handleRuleRemove)
		r.Get("/rules/export", s.handleRulesExport)
		r.Put("/rules/import", s.handleRulesImport)

		r.Get("/locales", s.handleLocalesList)
		r.Put("/locales/{code}", s.handleLocaleUpsert)
		r.Delete("/locales/{code}", s.handleLocaleRemove)
	})

	r.Handle("/metrics", promhttp.Handler())
	return r
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
