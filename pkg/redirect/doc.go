// Package redirect implements URL normalization and redirect resolution
// for the SEO edge.
//
// Every inbound URL is first normalized according to the configured policy
// (scheme upgrade, www stripping, path lowercasing, index-file collapsing,
// trailing-slash policy, query cleanup). A URL that changes under
// normalization is redirected to its canonical form before any explicit
// rule is consulted. Explicit rules are matched in priority order, highest
// first, with insertion order breaking ties.
//
// Resolution results are memoized in the tag-indexed cache and invalidated
// when the rule table changes.
package redirect
