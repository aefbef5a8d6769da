package redirect

import (
	"net/url"
	"strings"
)

// SecurityPolicy configures URL validation and sanitization.
type SecurityPolicy struct {
	// AllowedProtocols is the scheme allow-list.
	AllowedProtocols []string

	// BlockedPaths rejects URLs whose path starts with any of these
	// prefixes, case-insensitively.
	BlockedPaths []string

	// MaxURLLength rejects longer URLs.
	MaxURLLength int

	// AllowedFileExtensions restricts paths that look like files. Paths
	// without an extension are always allowed.
	AllowedFileExtensions []string

	// SanitizeSpecialChars enables Sanitize's character encoding.
	SanitizeSpecialChars bool

	// PreventDirectoryTraversal rejects ../ sequences, including
	// percent-encoded forms.
	PreventDirectoryTraversal bool
}

// DefaultSecurityPolicy returns the validation defaults.
func DefaultSecurityPolicy() SecurityPolicy {
	return SecurityPolicy{
		AllowedProtocols: []string{"http", "https"},
		MaxURLLength:     2048,
		AllowedFileExtensions: []string{
			"html", "htm", "php", "asp", "aspx", "jsp", "pdf",
			"jpg", "jpeg", "png", "gif", "webp", "svg",
			"css", "js", "xml", "txt",
		},
		SanitizeSpecialChars:      true,
		PreventDirectoryTraversal: true,
	}
}

// Result is the outcome of URL validation. Issues lists every reason a URL
// was rejected; a valid URL has none.
type Result struct {
	Valid  bool     `json:"valid"`
	Issues []string `json:"issues,omitempty"`
}

// dangerousSubstrings are rejected anywhere in a URL.
var dangerousSubstrings = []string{`<`, `>`, `"`, `'`, "javascript:", "data:", "vbscript:"}

// traversalSequences cover literal and percent-encoded directory traversal.
var traversalSequences = []string{"../", `..\`, "..%2f", "..%5c", "%2e%2e%2f", "%2e%2e/", "%2e%2e%5c"}

// Validator checks URLs against the security policy. Validate never
// panics; any input produces a Result.
type Validator struct {
	policy  SecurityPolicy
	schemes map[string]struct{}
	exts    map[string]struct{}
}

// NewValidator creates a validator for the given policy.
func NewValidator(policy SecurityPolicy) *Validator {
	schemes := make(map[string]struct{}, len(policy.AllowedProtocols))
	for _, s := range policy.AllowedProtocols {
		schemes[strings.ToLower(s)] = struct{}{}
	}
	exts := make(map[string]struct{}, len(policy.AllowedFileExtensions))
	for _, e := range policy.AllowedFileExtensions {
		exts[strings.ToLower(strings.TrimPrefix(e, "."))] = struct{}{}
	}
	return &Validator{policy: policy, schemes: schemes, exts: exts}
}

// Validate checks a URL and returns every issue found.
func (v *Validator) Validate(raw string) Result {
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		ValidationFailuresTotal.Inc()
		return Result{Valid: false, Issues: []string{"Invalid URL format"}}
	}

	var issues []string

	if v.policy.MaxURLLength > 0 && len(raw) > v.policy.MaxURLLength {
		issues = append(issues, "URL exceeds maximum length")
	}

	if _, ok := v.schemes[strings.ToLower(u.Scheme)]; !ok {
		issues = append(issues, "Protocol not allowed")
	}

	lowerPath := strings.ToLower(u.Path)
	for _, blocked := range v.policy.BlockedPaths {
		if blocked != "" && strings.HasPrefix(lowerPath, strings.ToLower(blocked)) {
			issues = append(issues, "Path is blocked")
			break
		}
	}

	if v.policy.PreventDirectoryTraversal {
		lowerRaw := strings.ToLower(raw)
		for _, seq := range traversalSequences {
			if strings.Contains(lowerRaw, seq) {
				issues = append(issues, "Directory traversal detected")
				break
			}
		}
	}

	if ext := fileExtension(u.Path); ext != "" && len(v.exts) > 0 {
		if _, ok := v.exts[ext]; !ok {
			issues = append(issues, "File extension not allowed")
		}
	}

	lowerRaw := strings.ToLower(raw)
	for _, bad := range dangerousSubstrings {
		if strings.Contains(lowerRaw, bad) {
			issues = append(issues, "Dangerous characters detected")
			break
		}
	}

	if len(issues) > 0 {
		ValidationFailuresTotal.Inc()
		return Result{Valid: false, Issues: issues}
	}
	return Result{Valid: true}
}

// fileExtension returns the lowercased extension of the last path segment,
// or "" when the segment has no dot.
func fileExtension(path string) string {
	idx := strings.LastIndex(path, "/")
	segment := path[idx+1:]
	dot := strings.LastIndex(segment, ".")
	if dot < 0 || dot == len(segment)-1 {
		return ""
	}
	return strings.ToLower(segment[dot+1:])
}

// dangerousSchemes are stripped by Sanitize wherever they prefix the URL.
var dangerousSchemes = []string{"javascript:", "data:", "vbscript:"}

// Sanitize strips dangerous scheme prefixes, percent-encodes <>"' and
// removes control characters. This is a best-effort mitigation, not a full
// sanitizer.
func (v *Validator) Sanitize(raw string) string {
	s := raw

	// Scheme prefixes can be stacked ("javascript:javascript:..."), so
	// strip until none remains.
	for {
		stripped := s
		for _, scheme := range dangerousSchemes {
			if len(stripped) >= len(scheme) && strings.EqualFold(stripped[:len(scheme)], scheme) {
				stripped = stripped[len(scheme):]
			}
		}
		if stripped == s {
			break
		}
		s = stripped
	}

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r <= 0x1F || r == 0x7F:
			// Control characters are dropped.
		case v.policy.SanitizeSpecialChars && (r == '<' || r == '>' || r == '"' || r == '\''):
			b.WriteString(url.QueryEscape(string(r)))
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
