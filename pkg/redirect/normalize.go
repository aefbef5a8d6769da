package redirect

import (
	"net/url"
	"regexp"
	"sort"
	"strings"
)

// indexFilePattern matches index documents that collapse to the directory.
var indexFilePattern = regexp.MustCompile(`(?i)/index\.(html|php|htm|asp|aspx|jsp)$`)

// Policy controls which normalization steps run. The steps always apply in
// the same fixed order regardless of which are enabled, so normalization
// stays idempotent.
type Policy struct {
	// EnforceHTTPS upgrades http URLs to https.
	EnforceHTTPS bool

	// RemoveWWW strips a leading "www." from the host.
	RemoveWWW bool

	// EnforceLowercase lowercases the path component only. Hosts and query
	// values are never touched.
	EnforceLowercase bool

	// RemoveIndexFiles collapses /index.(html|php|htm|asp|aspx|jsp) to /.
	RemoveIndexFiles bool

	// RemoveTrailingSlash strips a trailing / unless the path is exactly /.
	// Mutually exclusive with EnforceTrailingSlash; when both are set,
	// RemoveTrailingSlash wins.
	RemoveTrailingSlash bool

	// EnforceTrailingSlash appends / unless the last segment contains a dot.
	EnforceTrailingSlash bool

	// RemoveQueryParams names query parameters to drop, typically tracking
	// parameters.
	RemoveQueryParams []string

	// SortQueryParams sorts remaining parameters by key, preserving
	// multi-value order within a key.
	SortQueryParams bool
}

// DefaultPolicy returns the normalization policy most storefronts want.
func DefaultPolicy() Policy {
	return Policy{
		EnforceHTTPS:        true,
		RemoveWWW:           true,
		EnforceLowercase:    true,
		RemoveIndexFiles:    true,
		RemoveTrailingSlash: true,
		RemoveQueryParams: []string{
			"utm_source", "utm_medium", "utm_campaign", "utm_term", "utm_content",
			"fbclid", "gclid",
		},
		SortQueryParams: true,
	}
}

// Normalizer rewrites URLs into their canonical form.
type Normalizer struct {
	policy Policy
	strip  map[string]struct{}
}

// NewNormalizer creates a normalizer for the given policy.
func NewNormalizer(policy Policy) *Normalizer {
	strip := make(map[string]struct{}, len(policy.RemoveQueryParams))
	for _, p := range policy.RemoveQueryParams {
		strip[p] = struct{}{}
	}
	return &Normalizer{policy: policy, strip: strip}
}

// Normalize applies the policy's steps in fixed order and returns the
// canonical URL. Normalize is idempotent: applying it to its own output
// returns the same string. Unparsable input is returned unchanged.
func (n *Normalizer) Normalize(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return raw
	}

	if n.policy.EnforceHTTPS && u.Scheme == "http" {
		u.Scheme = "https"
	}

	if n.policy.RemoveWWW {
		if host := strings.TrimPrefix(u.Host, "www."); host != "" {
			u.Host = host
		}
	}

	path := u.Path
	if n.policy.EnforceLowercase {
		path = strings.ToLower(path)
	}

	if n.policy.RemoveIndexFiles {
		path = indexFilePattern.ReplaceAllString(path, "/")
	}

	switch {
	case n.policy.RemoveTrailingSlash:
		if path != "/" && strings.HasSuffix(path, "/") {
			path = strings.TrimSuffix(path, "/")
		}
	case n.policy.EnforceTrailingSlash:
		if !strings.HasSuffix(path, "/") && !lastSegmentHasExtension(path) {
			path += "/"
		}
	}
	u.Path = path
	u.RawPath = ""

	u.RawQuery = n.normalizeQuery(u.RawQuery)

	return u.String()
}

// lastSegmentHasExtension reports whether the final path segment contains
// a dot, i.e. looks like a file rather than a directory.
func lastSegmentHasExtension(path string) bool {
	idx := strings.LastIndex(path, "/")
	return strings.Contains(path[idx+1:], ".")
}

type queryParam struct {
	key      string
	value    string
	hasValue bool
}

// normalizeQuery drops denylisted parameters and optionally sorts the rest
// by key. Order of multiple values under one key is preserved; parameters
// without a value keep their bare form.
func (n *Normalizer) normalizeQuery(rawQuery string) string {
	if rawQuery == "" {
		return ""
	}

	var params []queryParam
	for _, pair := range strings.Split(rawQuery, "&") {
		if pair == "" {
			continue
		}
		key, value, hasValue := strings.Cut(pair, "=")
		decoded, err := url.QueryUnescape(key)
		if err != nil {
			decoded = key
		}
		if _, drop := n.strip[decoded]; drop {
			continue
		}
		params = append(params, queryParam{key: key, value: value, hasValue: hasValue})
	}

	if n.policy.SortQueryParams {
		sort.SliceStable(params, func(i, j int) bool {
			return params[i].key < params[j].key
		})
	}

	var b strings.Builder
	for i, p := range params {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(p.key)
		if p.hasValue {
			b.WriteByte('=')
			b.WriteString(p.value)
		}
	}
	return b.String()
}
