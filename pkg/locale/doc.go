// Package locale implements locale detection and hreflang generation for
// the SEO edge.
//
// A Registry holds the enabled locale set. Exactly one locale is the
// default at all times; mutations that would break that invariant are
// rejected atomically. Detection combines URL, Accept-Language and cookie
// signals in fixed priority order. Hreflang tag sets are memoized in the
// tag-indexed cache and dropped whenever the locale configuration changes.
package locale
