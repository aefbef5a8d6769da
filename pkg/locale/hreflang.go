package locale

import (
	"fmt"
	"strings"

	"github.com/commercekit/seo-edge/pkg/cache"
)

const hreflangTag = "hreflang"

// Tag is one hreflang annotation for a page.
type Tag struct {
	Hreflang string `json:"hreflang"`
	Href     string `json:"href"`
}

// Hreflang returns the hreflang tag set for a path: one entry per enabled
// locale plus the x-default entry pointing at the default-locale URL.
// Results are memoized per (path, currentLocale) until the locale
// configuration changes.
func (r *Registry) Hreflang(path, currentLocale string) []Tag {
	memoKey := "hreflang:" + path + ":" + currentLocale
	if r.cache != nil {
		if v, ok := r.cache.Get(memoKey); ok {
			if tags, ok := v.([]Tag); ok {
				return tags
			}
		}
	}

	tags := r.generateHreflang(path)

	if r.cache != nil {
		r.cache.Set(memoKey, tags, cache.WithTags(hreflangTag))
	}
	return tags
}

func (r *Registry) generateHreflang(path string) []Tag {
	defaultCode := r.DefaultCode()

	enabled := r.Enabled()
	tags := make([]Tag, 0, len(enabled)+1)
	for _, code := range enabled {
		href := r.baseURL + path
		if code != defaultCode {
			href = r.baseURL + "/" + code + path
		}
		tags = append(tags, Tag{Hreflang: code, Href: href})
	}
	tags = append(tags, Tag{Hreflang: "x-default", Href: r.baseURL + path})

	HreflangGenerationsTotal.Inc()
	return tags
}

// ExtractLocaleFromPath splits a locale prefix off a request path. When the
// first segment names an enabled locale the code and the remaining path are
// returned; otherwise the code is empty and the path is unchanged.
func (r *Registry) ExtractLocaleFromPath(path string) (string, string) {
	trimmed := strings.TrimPrefix(path, "/")
	first, rest, _ := strings.Cut(trimmed, "/")
	code := strings.ToLower(first)
	if code == "" || !r.isEnabled(code) {
		return "", path
	}

	clean := "/" + rest
	return code, clean
}

// BuildLocalizedPath prefixes a path with a locale code. The default locale
// and unknown codes map to the path unchanged, mirroring how hreflang hrefs
// are built. BuildLocalizedPath is the inverse of ExtractLocaleFromPath for
// any enabled non-default locale.
func (r *Registry) BuildLocalizedPath(path, code string) string {
	code = strings.ToLower(code)
	if code == "" || code == r.DefaultCode() || !r.isEnabled(code) {
		return path
	}
	if path == "/" {
		return "/" + code
	}
	return "/" + code + path
}

// InjectHeadTags inserts hreflang link elements before the closing </head>
// of an HTML document. This is substring search only, no HTML parsing; a
// document without a head section is returned unchanged.
func InjectHeadTags(html string, tags []Tag) string {
	idx := strings.Index(html, "</head>")
	if idx < 0 {
		idx = strings.Index(html, "</HEAD>")
	}
	if idx < 0 {
		return html
	}

	var b strings.Builder
	b.Grow(len(html) + len(tags)*64)
	b.WriteString(html[:idx])
	for _, tag := range tags {
		fmt.Fprintf(&b, "<link rel=\"alternate\" hreflang=%q href=%q />\n", tag.Hreflang, tag.Href)
	}
	b.WriteString(html[idx:])
	return b.String()
}
