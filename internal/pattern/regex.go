package pattern

import (
	"fmt"
	"regexp"
	"strings"
)

// exactFragments are the capture groups used when a pattern is bound for
// execution against concrete step text.
var exactFragments = map[string]string{
	"string": `"([^"]*)"`,
	"int":    `(-?\d+)`,
	"float":  `(-?\d*\.?\d+)`,
	"word":   `(\S+)`,
	"":       `(.*)`,
}

// resolveFragments match normalized step text, where argument values have
// already been replaced by placeholder tokens.
var resolveFragments = map[string]string{
	"string": `"[^"]*"`,
	"int":    `(?:-?\d+|\{int\})`,
	"float":  `(?:-?\d*\.?\d+|\{float\}|\{int\})`,
	"word":   `\S+`,
	"":       `.*`,
}

// ToRegexp converts a declared pattern into an anchored, case-insensitive
// regular expression. Placeholders become capture groups and every other
// character matches literally. Patterns already written as regular
// expressions compile as they are.
func ToRegexp(p string) (*regexp.Regexp, error) {
	p = strings.TrimSpace(p)
	if IsRegex(p) {
		re, err := regexp.Compile("(?i)" + p)
		if err != nil {
			return nil, fmt.Errorf("compile pattern %q: %w", p, err)
		}
		return re, nil
	}
	return compileExpression(p, exactFragments)
}

func compileExpression(p string, fragments map[string]string) (*regexp.Regexp, error) {
	var b strings.Builder
	b.WriteString("(?i)^")
	last := 0
	for _, loc := range placeholderRE.FindAllStringSubmatchIndex(p, -1) {
		b.WriteString(regexp.QuoteMeta(p[last:loc[0]]))
		b.WriteString(fragments[p[loc[2]:loc[3]]])
		last = loc[1]
	}
	b.WriteString(regexp.QuoteMeta(p[last:]))
	b.WriteString("$")
	re, err := regexp.Compile(b.String())
	if err != nil {
		return nil, fmt.Errorf("compile pattern %q: %w", p, err)
	}
	return re, nil
}

// Specificity counts the placeholders (or capture groups, for regular
// expression patterns) in a pattern. Lower is more specific.
func Specificity(p string) int {
	p = strings.TrimSpace(p)
	if IsRegex(p) {
		re, err := regexp.Compile(p)
		if err != nil {
			return 1 << 16
		}
		return re.NumSubexp()
	}
	return len(placeholderRE.FindAllStringIndex(p, -1))
}
