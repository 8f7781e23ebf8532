package pattern

import (
	"regexp"
	"strings"
)

// Matcher tests step text against one declared pattern.
type Matcher struct {
	pattern    string
	regexStyle bool
	exact      *regexp.Regexp
	resolve    *regexp.Regexp
	fallback   string
	err        error
}

// Compile prepares a matcher for p. It never fails: a pattern that does not
// compile degrades to case-insensitive substring containment and the compile
// error is kept for diagnostics.
func Compile(p string) *Matcher {
	p = strings.TrimSpace(p)
	m := &Matcher{pattern: p, regexStyle: IsRegex(p)}

	exact, err := ToRegexp(p)
	if err != nil {
		m.err = err
		m.fallback = strings.ToLower(strings.TrimSuffix(strings.TrimPrefix(p, "^"), "$"))
		return m
	}
	m.exact = exact
	if m.regexStyle {
		m.resolve = exact
		return m
	}

	// Without a pre-filter every step goes straight to the exact expression.
	if resolve, err := compileExpression(NormalizePattern(p), resolveFragments); err == nil {
		m.resolve = resolve
	}
	return m
}

// Pattern returns the declared pattern.
func (m *Matcher) Pattern() string { return m.pattern }

// Regexp returns the exact expression used to bind the pattern for
// execution, or nil when the pattern failed to compile.
func (m *Matcher) Regexp() *regexp.Regexp { return m.exact }

// Err returns the compile error, if the matcher fell back to containment.
func (m *Matcher) Err() error { return m.err }

// Match reports whether a required step matches. normalized is the step's
// Normalize form and raw its original text. The normalized form only narrows
// the candidates: a literal such as "5" or "Save" normalizes like an argument
// value, so every candidate is confirmed against the exact expression on raw.
func (m *Matcher) Match(normalized, raw string) bool {
	if m.regexStyle || m.exact == nil {
		return m.MatchText(raw)
	}
	if m.resolve != nil && !m.resolve.MatchString(normalized) {
		return false
	}
	return m.MatchText(raw)
}

// MatchText tests concrete step text against the exact expression.
func (m *Matcher) MatchText(text string) bool {
	text = strings.TrimSpace(text)
	if m.exact == nil {
		return strings.Contains(strings.ToLower(text), m.fallback)
	}
	return m.exact.MatchString(text)
}
