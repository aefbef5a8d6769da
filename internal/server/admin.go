package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/commercekit/seo-edge/pkg/cache"
	"github.com/commercekit/seo-edge/pkg/locale"
	"github.com/commercekit/seo-edge/pkg/redirect"
)

func (s *Server) handleCacheStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.cache.Stats())
}

func (s *Server) handleCacheHealth(w http.ResponseWriter, r *http.Request) {
	h := s.cache.Health()
	status := http.StatusOK
	if h.Status == cache.HealthCritical {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, h)
}

func (s *Server) handleCacheClear(w http.ResponseWriter, r *http.Request) {
	s.cache.Clear()
	s.logger.Info().Msg("cache cleared via admin API")
	writeJSON(w, http.StatusOK, map[string]string{"status": "cleared"})
}

func (s *Server) handleCacheInvalidate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Tags []string `json:"tags"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.Tags) == 0 {
		writeError(w, http.StatusBadRequest, "body must be {\"tags\": [...]}")
		return
	}
	removed := s.cache.InvalidateByTags(req.Tags)
	writeJSON(w, http.StatusOK, map[string]int{"removed": removed})
}

func (s *Server) handleRulesList(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.resolver.Rules())
}

func (s *Server) handleRuleAdd(w http.ResponseWriter, r *http.Request) {
	var rule redirect.Rule
	if err := json.NewDecoder(r.Body).Decode(&rule); err != nil {
		writeError(w, http.StatusBadRequest, "invalid rule body")
		return
	}
	added, err := s.resolver.AddRule(rule)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, added)
}

func (s *Server) handleRuleRemove(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !s.resolver.RemoveRule(id) {
		writeError(w, http.StatusNotFound, "rule not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"removed": id})
}

func (s *Server) handleRulesExport(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.resolver.ExportRules())
}

func (s *Server) handleRulesImport(w http.ResponseWriter, r *http.Request) {
	var rules []redirect.Rule
	if err := json.NewDecoder(r.Body).Decode(&rules); err != nil {
		writeError(w, http.StatusBadRequest, "body must be a rule array")
		return
	}
	n, err := s.resolver.ImportRules(rules)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"imported": n})
}

func (s *Server) handleLocalesList(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.registry.Locales())
}

func (s *Server) handleLocaleUpsert(w http.ResponseWriter, r *http.Request) {
	code := strings.ToLower(chi.URLParam(r, "code"))
	var loc locale.Locale
	if err := json.NewDecoder(r.Body).Decode(&loc); err != nil {
		writeError(w, http.StatusBadRequest, "invalid locale body")
		return
	}
	loc.Code = code
	if err := s.registry.Upsert(loc); err != nil {
		var verr *locale.ValidationError
		if errors.As(err, &verr) {
			writeJSON(w, http.StatusUnprocessableEntity, map[string]any{"issues": verr.Issues})
			return
		}
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	stored, _ := s.registry.Get(code)
	writeJSON(w, http.StatusOK, stored)
}

func (s *Server) handleLocaleRemove(w http.ResponseWriter, r *http.Request) {
	code := strings.ToLower(chi.URLParam(r, "code"))
	if err := s.registry.Remove(code); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"removed": code})
}
