package redirect

import (
	"fmt"
	"regexp"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/commercekit/seo-edge/pkg/cache"
)

// MatchKind selects how a rule's From pattern is compared to a URL.
type MatchKind string

const (
	// MatchExact requires string equality.
	MatchExact MatchKind = "exact"

	// MatchPrefix requires the URL to start with From.
	MatchPrefix MatchKind = "prefix"

	// MatchRegex compiles From as a regular expression. A malformed
	// pattern is logged and treated as a non-match, never surfaced to the
	// request path.
	MatchRegex MatchKind = "regex"
)

// Rule is one entry in the redirect rule table. Rules are immutable once
// matched against; adding or removing rules takes effect on the next
// lookup. Higher Priority wins; insertion order breaks ties.
type Rule struct {
	ID         string    `json:"id"`
	From       string    `json:"from"`
	To         string    `json:"to"`
	StatusCode int       `json:"status_code"`
	Match      MatchKind `json:"match"`
	Enabled    bool      `json:"enabled"`
	Priority   int       `json:"priority"`
	Reason     string    `json:"reason,omitempty"`
}

// Decision is the outcome of a redirect check.
type Decision struct {
	Redirect   bool   `json:"redirect"`
	To         string `json:"to,omitempty"`
	StatusCode int    `json:"status_code,omitempty"`
	Rule       *Rule  `json:"rule,omitempty"`
}

// validStatusCodes are the redirect status codes a rule may carry.
var validStatusCodes = map[int]struct{}{301: {}, 302: {}, 307: {}, 308: {}}

// Resolver decides whether a URL should be redirected, first by
// normalization and then by the explicit rule table. Decisions are
// memoized in the tag-indexed cache.
type Resolver struct {
	mu    sync.RWMutex
	rules []Rule // insertion order; sorted views are built per lookup

	// Compiled regex patterns by rule ID. A nil value marks a pattern that
	// failed to compile so it is only logged once.
	patterns map[string]*regexp.Regexp

	normalizer *Normalizer
	cache      *cache.Cache
	logger     zerolog.Logger
}

// NewResolver creates a resolver. The cache is optional; without it every
// check is computed from scratch.
func NewResolver(normalizer *Normalizer, memo *cache.Cache) *Resolver {
	if normalizer == nil {
		panic("normalizer cannot be nil")
	}
	return &Resolver{
		patterns:   make(map[string]*regexp.Regexp),
		normalizer: normalizer,
		cache:      memo,
		logger:     log.With().Str("component", "redirect").Logger(),
	}
}

// Normalizer returns the normalizer the resolver checks against.
func (r *Resolver) Normalizer() *Normalizer {
	return r.normalizer
}

// AddRule validates and inserts a rule, assigning an ID when absent.
// Memoized decisions affected by the rule are invalidated.
func (r *Resolver) AddRule(rule Rule) (Rule, error) {
	if err := validateRule(rule); err != nil {
		return Rule{}, err
	}
	if rule.ID == "" {
		rule.ID = uuid.NewString()
	}
	if rule.StatusCode == 0 {
		rule.StatusCode = 301
	}

	r.mu.Lock()
	r.rules = append(r.rules, rule)
	r.mu.Unlock()

	r.invalidateMemo(rule)
	r.logger.Info().
		Str("rule_id", rule.ID).
		Str("from", rule.From).
		Str("to", rule.To).
		Int("priority", rule.Priority).
		Msg("redirect rule added")
	return rule, nil
}

// RemoveRule deletes a rule by ID and invalidates affected memoized
// decisions. Returns whether a rule was removed.
func (r *Resolver) RemoveRule(id string) bool {
	r.mu.Lock()
	idx := -1
	for i := range r.rules {
		if r.rules[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		r.mu.Unlock()
		return false
	}
	removed := r.rules[idx]
	r.rules = append(r.rules[:idx], r.rules[idx+1:]...)
	delete(r.patterns, id)
	r.mu.Unlock()

	r.invalidateMemo(removed)
	r.logger.Info().Str("rule_id", id).Msg("redirect rule removed")
	return true
}

// Rules returns a copy of the rule table in insertion order.
func (r *Resolver) Rules() []Rule {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Rule, len(r.rules))
	copy(out, r.rules)
	return out
}

// ImportRules replaces the entire rule table. Every rule must validate;
// on any failure nothing is replaced. Returns the number of rules loaded.
func (r *Resolver) ImportRules(rules []Rule) (int, error) {
	for i := range rules {
		if err := validateRule(rules[i]); err != nil {
			return 0, fmt.Errorf("rule %d: %w", i, err)
		}
		if rules[i].ID == "" {
			rules[i].ID = uuid.NewString()
		}
		if rules[i].StatusCode == 0 {
			rules[i].StatusCode = 301
		}
	}

	r.mu.Lock()
	r.rules = rules
	r.patterns = make(map[string]*regexp.Regexp)
	r.mu.Unlock()

	if r.cache != nil {
		r.cache.InvalidateByTag(memoTag)
	}
	r.logger.Info().Int("rules", len(rules)).Msg("redirect rule table imported")
	return len(rules), nil
}

// ExportRules is Rules under the name the admin surface expects.
func (r *Resolver) ExportRules() []Rule {
	return r.Rules()
}

const memoTag = "redirects"

// Check decides whether url should be redirected. Normalization takes
// precedence over explicit rules; the first matching enabled rule in
// priority order wins.
func (r *Resolver) Check(url string) Decision {
	memoKey := "redirect:" + url
	if r.cache != nil {
		if v, ok := r.cache.Get(memoKey); ok {
			if d, ok := v.(Decision); ok {
				return d
			}
		}
	}

	d := r.check(url)

	if r.cache != nil {
		r.cache.Set(memoKey, d, cache.WithTags(memoTag, "url:"+url))
	}
	return d
}

func (r *Resolver) check(url string) Decision {
	// Canonical-form redirect wins over every explicit rule.
	if normalized := r.normalizer.Normalize(url); normalized != url {
		RedirectsTotal.WithLabelValues("normalization").Inc()
		return Decision{
			Redirect:   true,
			To:         normalized,
			StatusCode: 301,
			Rule: &Rule{
				From:       url,
				To:         normalized,
				StatusCode: 301,
				Match:      MatchExact,
				Enabled:    true,
				Reason:     "normalization",
			},
		}
	}

	r.mu.Lock()
	ordered := make([]Rule, len(r.rules))
	copy(ordered, r.rules)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Priority > ordered[j].Priority
	})

	for i := range ordered {
		rule := &ordered[i]
		if !rule.Enabled {
			continue
		}
		if r.matchesLocked(rule, url) {
			r.mu.Unlock()
			RedirectsTotal.WithLabelValues(string(rule.Match)).Inc()
			return Decision{
				Redirect:   true,
				To:         rule.To,
				StatusCode: rule.StatusCode,
				Rule:       rule,
			}
		}
	}
	r.mu.Unlock()

	return Decision{}
}

// matchesLocked tests one rule against a URL. Caller holds the lock so the
// compiled-pattern cache can be updated.
func (r *Resolver) matchesLocked(rule *Rule, url string) bool {
	switch rule.Match {
	case MatchExact:
		return url == rule.From
	case MatchPrefix:
		return len(url) >= len(rule.From) && url[:len(rule.From)] == rule.From
	case MatchRegex:
		re, seen := r.patterns[rule.ID]
		if !seen {
			compiled, err := regexp.Compile(rule.From)
			if err != nil {
				r.logger.Warn().
					Str("rule_id", rule.ID).
					Str("pattern", rule.From).
					Err(err).
					Msg("malformed redirect rule pattern, rule disabled for matching")
				RuleErrorsTotal.Inc()
				compiled = nil
			}
			r.patterns[rule.ID] = compiled
			re = compiled
		}
		return re != nil && re.MatchString(url)
	default:
		return false
	}
}

// invalidateMemo drops memoized decisions affected by a rule change. Exact
// rules only touch their own URL; prefix and regex rules can affect any
// URL, so the whole memo tag is dropped.
func (r *Resolver) invalidateMemo(rule Rule) {
	if r.cache == nil {
		return
	}
	r.cache.InvalidateByTag("url:" + rule.From)
	if rule.Match != MatchExact {
		r.cache.InvalidateByTag(memoTag)
	}
}

func validateRule(rule Rule) error {
	if rule.From == "" {
		return fmt.Errorf("rule from cannot be empty")
	}
	if rule.To == "" {
		return fmt.Errorf("rule to cannot be empty")
	}
	switch rule.Match {
	case MatchExact, MatchPrefix, MatchRegex:
	default:
		return fmt.Errorf("invalid match kind %q", rule.Match)
	}
	if rule.StatusCode != 0 {
		if _, ok := validStatusCodes[rule.StatusCode]; !ok {
			return fmt.Errorf("invalid redirect status code %d", rule.StatusCode)
		}
	}
	return nil
}
