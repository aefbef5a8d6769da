package locale

import (
	"sort"
	"strconv"
	"strings"
)

// Source names the signal that won a locale detection.
type Source string

const (
	// SourceURL means the path carried a locale prefix.
	SourceURL Source = "url"

	// SourceHeader means Accept-Language named an enabled locale.
	SourceHeader Source = "header"

	// SourceCookie means the locale cookie named an enabled locale.
	SourceCookie Source = "cookie"

	// SourceDefault means no signal matched and the default was used.
	SourceDefault Source = "default"
)

// Detection is the result of locale detection for one request.
type Detection struct {
	Code         string   `json:"detected"`
	Confidence   float64  `json:"confidence"`
	Source       Source   `json:"source"`
	Alternatives []string `json:"alternatives"`
}

// langQuality is one parsed Accept-Language entry.
type langQuality struct {
	code    string
	quality float64
}

// Detect resolves the request locale from its signals, strongest first:
// URL prefix (confidence 1.0), Accept-Language (confidence = quality),
// cookie (0.8), registry default (0.5). Alternatives always lists the
// other enabled locales for locale-switcher UIs.
func (r *Registry) Detect(acceptLanguage, cookie, urlLocale string) Detection {
	d := r.detect(acceptLanguage, cookie, urlLocale)
	DetectionsTotal.WithLabelValues(string(d.Source)).Inc()
	return d
}

func (r *Registry) detect(acceptLanguage, cookie, urlLocale string) Detection {
	if urlLocale != "" && r.isEnabled(strings.ToLower(urlLocale)) {
		return r.detection(strings.ToLower(urlLocale), 1.0, SourceURL)
	}

	for _, lq := range parseAcceptLanguage(acceptLanguage) {
		if r.isEnabled(lq.code) {
			return r.detection(lq.code, lq.quality, SourceHeader)
		}
	}

	if cookie != "" && r.isEnabled(strings.ToLower(cookie)) {
		return r.detection(strings.ToLower(cookie), 0.8, SourceCookie)
	}

	return r.detection(r.DefaultCode(), 0.5, SourceDefault)
}

func (r *Registry) detection(code string, confidence float64, source Source) Detection {
	alternatives := make([]string, 0)
	for _, c := range r.Enabled() {
		if c != code {
			alternatives = append(alternatives, c)
		}
	}
	return Detection{
		Code:         code,
		Confidence:   confidence,
		Source:       source,
		Alternatives: alternatives,
	}
}

// parseAcceptLanguage parses an Accept-Language header into (code, quality)
// pairs sorted by quality descending. Language codes are lowercased and
// regions stripped; a missing q defaults to 1.0. Malformed entries are
// skipped.
func parseAcceptLanguage(header string) []langQuality {
	if header == "" {
		return nil
	}

	var out []langQuality
	for _, part := range strings.Split(header, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		tag := part
		quality := 1.0
		if tag2, params, ok := strings.Cut(part, ";"); ok {
			tag = strings.TrimSpace(tag2)
			for _, p := range strings.Split(params, ";") {
				p = strings.TrimSpace(p)
				if v, ok := strings.CutPrefix(p, "q="); ok {
					if q, err := strconv.ParseFloat(v, 64); err == nil && q >= 0 && q <= 1 {
						quality = q
					}
				}
			}
		}

		code := strings.ToLower(tag)
		if idx := strings.IndexAny(code, "-_"); idx > 0 {
			code = code[:idx]
		}
		if code == "" || code == "*" {
			continue
		}
		out = append(out, langQuality{code: code, quality: quality})
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].quality > out[j].quality
	})
	return out
}
