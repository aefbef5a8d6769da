package redirect

import (
	"strings"
	"testing"
)

func TestValidate_Valid(t *testing.T) {
	v := NewValidator(DefaultSecurityPolicy())

	for _, u := range []string{
		"https://example.com/products",
		"https://example.com/docs/guide.html",
		"http://example.com/",
		"https://example.com/a?b=1&c=2",
	} {
		if res := v.Validate(u); !res.Valid {
			t.Errorf("Validate(%q) = %v, want valid", u, res.Issues)
		}
	}
}

func TestValidate_InvalidFormat(t *testing.T) {
	v := NewValidator(DefaultSecurityPolicy())

	for _, u := range []string{"", "not a url", "/relative/only", "http://exa mple.com/"} {
		res := v.Validate(u)
		if res.Valid {
			t.Errorf("Validate(%q) should be invalid", u)
			continue
		}
		if len(res.Issues) != 1 || res.Issues[0] != "Invalid URL format" {
			t.Errorf("Validate(%q) issues = %v, want [Invalid URL format]", u, res.Issues)
		}
	}
}

func TestValidate_Issues(t *testing.T) {
	policy := DefaultSecurityPolicy()
	policy.BlockedPaths = []string{"/admin", "/internal"}
	policy.MaxURLLength = 64
	v := NewValidator(policy)

	tests := []struct {
		name string
		url  string
		want string
	}{
		{"too long", "https://example.com/" + strings.Repeat("a", 80), "URL exceeds maximum length"},
		{"bad scheme", "ftp://example.com/file", "Protocol not allowed"},
		{"blocked path", "https://example.com/Admin/users", "Path is blocked"},
		{"traversal literal", "https://example.com/../etc/passwd", "Directory traversal detected"},
		{"traversal encoded", "https://example.com/%2e%2e%2fetc", "Directory traversal detected"},
		{"bad extension", "https://example.com/app.exe", "File extension not allowed"},
		{"script scheme", "https://example.com/a?next=javascript:alert(1)", "Dangerous characters detected"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := v.Validate(tt.url)
			if res.Valid {
				t.Fatalf("Validate(%q) should be invalid", tt.url)
			}
			found := false
			for _, issue := range res.Issues {
				if issue == tt.want {
					found = true
				}
			}
			if !found {
				t.Errorf("issues = %v, want to contain %q", res.Issues, tt.want)
			}
		})
	}
}

func TestValidate_NeverPanics(t *testing.T) {
	v := NewValidator(DefaultSecurityPolicy())

	for _, u := range []string{"", ":", "%", "https://", string([]byte{0x00, 0x01})} {
		_ = v.Validate(u) // must not panic
	}
}

func TestSanitize(t *testing.T) {
	v := NewValidator(DefaultSecurityPolicy())

	tests := []struct {
		in   string
		want string
	}{
		{"javascript:alert(1)", "alert(1)"},
		{"JAVASCRIPT:data:alert(1)", "alert(1)"},
		{`/a?q=<script>`, "/a?q=%3Cscript%3E"},
		{"/a\x00\x1fb\x7f", "/ab"},
		{`it's "quoted"`, "it%27s %22quoted%22"},
		{"/plain/path", "/plain/path"},
	}
	for _, tt := range tests {
		if got := v.Sanitize(tt.in); got != tt.want {
			t.Errorf("Sanitize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
