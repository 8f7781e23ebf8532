package pattern

import (
	"regexp"
	"strings"
)

var (
	quotedLiteralRE = regexp.MustCompile(`"[^"]*"`)
	floatRE         = regexp.MustCompile(`(^|[^\w.])(-?\d+\.\d+)\b`)
	intRE           = regexp.MustCompile(`(^|[^\w.])(-?\d+)\b`)
	placeholderRE   = regexp.MustCompile(`\{(string|int|float|word|)\}`)
)

// Normalize maps concrete step text to its canonical form. Whitespace is
// collapsed, double-quoted literals become "{string}", decimals become
// {float} and integers become {int}, so steps that differ only in argument
// values share one entry.
func Normalize(text string) string {
	text = collapseSpace(text)
	text = quotedLiteralRE.ReplaceAllString(text, `"{string}"`)
	return normalizeNumbers(text)
}

// NormalizePattern applies the Normalize policy to the literal parts of a
// declared pattern. Quoted literals become {string}; placeholder tokens are
// kept. Regular-expression patterns are returned trimmed but otherwise
// untouched.
func NormalizePattern(p string) string {
	p = collapseSpace(p)
	if IsRegex(p) {
		return p
	}
	var b strings.Builder
	last := 0
	for _, loc := range placeholderRE.FindAllStringIndex(p, -1) {
		b.WriteString(normalizeLiteral(p[last:loc[0]]))
		b.WriteString(p[loc[0]:loc[1]])
		last = loc[1]
	}
	b.WriteString(normalizeLiteral(p[last:]))
	return b.String()
}

// IsRegex reports whether a pattern is written as a regular expression
// rather than a placeholder expression.
func IsRegex(p string) bool {
	return strings.HasPrefix(p, "^") || strings.HasSuffix(p, "$")
}

func normalizeLiteral(segment string) string {
	segment = quotedLiteralRE.ReplaceAllString(segment, `{string}`)
	return normalizeNumbers(segment)
}

func normalizeNumbers(text string) string {
	text = floatRE.ReplaceAllString(text, "${1}{float}")
	return intRE.ReplaceAllString(text, "${1}{int}")
}

func collapseSpace(text string) string {
	return strings.Join(strings.Fields(text), " ")
}
