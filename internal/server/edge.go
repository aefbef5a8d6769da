package server

import (
	"io"
	"net/http"
	"strings"

	"github.com/commercekit/seo-edge/pkg/locale"
)

const localeCookieName = "locale"

// handleEdge runs the full request pipeline: validation, redirect check,
// locale detection, origin proxy, hreflang injection.
func (s *Server) handleEdge(w http.ResponseWriter, r *http.Request) {
	fullURL := s.baseURL + r.URL.RequestURI()

	if s.validator != nil {
		if result := s.validator.Validate(fullURL); !result.Valid {
			s.logger.Warn().
				Str("url", fullURL).
				Strs("issues", result.Issues).
				Msg("request rejected by validation")
			writeError(w, http.StatusBadRequest, "invalid request URL")
			return
		}
	}

	// Redirects short-circuit before any origin work.
	if decision := s.resolver.Check(fullURL); decision.Redirect {
		http.Redirect(w, r, decision.To, decision.StatusCode)
		return
	}

	urlLocale, cleanPath := s.registry.ExtractLocaleFromPath(r.URL.Path)

	var cookieLocale string
	if c, err := r.Cookie(localeCookieName); err == nil {
		cookieLocale = c.Value
	}
	detection := s.registry.Detect(r.Header.Get("Accept-Language"), cookieLocale, urlLocale)

	originPath := cleanPath
	if r.URL.RawQuery != "" {
		originPath += "?" + r.URL.RawQuery
	}

	resp, err := s.fetcher.Fetch(r.Context(), originPath, forwardHeaders(r.Header))
	if err != nil {
		s.logger.Error().Err(err).Str("path", originPath).Msg("origin fetch failed")
		writeError(w, http.StatusBadGateway, "origin unavailable")
		return
	}
	defer resp.Body.Close()

	w.Header().Set("X-Detected-Locale", detection.Code)
	if cookieLocale != detection.Code {
		http.SetCookie(w, &http.Cookie{
			Name:     localeCookieName,
			Value:    detection.Code,
			Path:     "/",
			SameSite: http.SameSiteLaxMode,
		})
	}

	for k, vs := range resp.Header {
		for _, v := range vs {
			w.Header().Add(k, v)
		}
	}

	if strings.HasPrefix(resp.Header.Get("Content-Type"), "text/html") {
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			s.logger.Error().Err(err).Str("path", originPath).Msg("reading origin body failed")
			writeError(w, http.StatusBadGateway, "origin unavailable")
			return
		}
		tags := s.registry.Hreflang(cleanPath, detection.Code)
		out := locale.InjectHeadTags(string(body), tags)

		// The body changed length, the origin's header no longer applies.
		w.Header().Del("Content-Length")
		w.WriteHeader(resp.StatusCode)
		io.WriteString(w, out)
		return
	}

	w.WriteHeader(resp.StatusCode)
	io.Copy(w, resp.Body)
}

// forwardHeaders picks the request headers worth passing to the origin.
func forwardHeaders(h http.Header) http.Header {
	out := http.Header{}
	for _, k := range []string{"Accept", "Accept-Language", "User-Agent", "Cookie", "Referer"} {
		if v := h.Get(k); v != "" {
			out.Set(k, v)
		}
	}
	return out
}
