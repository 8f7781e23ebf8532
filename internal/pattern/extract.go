// Package pattern harvests step patterns from step-definition sources and
// turns them into matchers for step text.
package pattern

import (
	"regexp"
	"sort"
	"strings"
)

// Declared is one step pattern found in a source file.
type Declared struct {
	Keyword string
	Pattern string
}

// Extractor produces the step patterns declared in a file's raw content.
// Implementations must not execute the content.
type Extractor interface {
	Extract(content []byte) []Declared
}

// quoted matches a double, single or backtick quoted literal. Exactly one of
// the three capture groups is set per match.
const quoted = `(?:"((?:[^"\\]|\\.)*)"|'((?:[^'\\]|\\.)*)'|` + "`([^`]*)`" + `)`

var (
	decoratorRE  = regexp.MustCompile(`@(Given|When|Then|And|But|Step|CSBDDStepDef)\s*\(\s*` + quoted)
	positionalRE = regexp.MustCompile(`(@?)\b(?:defineStep|step|Step)\s*\(\s*["'](Given|When|Then|And|But)["']\s*,\s*` + quoted)
	godogRE      = regexp.MustCompile(`\.\s*(Step|Given|When|Then)\s*\(\s*` + quoted)
)

var unescaper = strings.NewReplacer(`\\`, `\`, `\"`, `"`, `\'`, `'`)

// RegexExtractor scans source text with regular expressions. It recognises
// decorator declarations (@Given("...")), positional declarations
// (defineStep("Given", "...")) and godog registrations (ctx.Step(`...`, fn)).
type RegexExtractor struct{}

type hit struct {
	offset int
	decl   Declared
}

// Extract returns declarations in source order. Duplicates are kept.
func (RegexExtractor) Extract(content []byte) []Declared {
	text := string(content)
	hits := make([]hit, 0)

	for _, m := range decoratorRE.FindAllStringSubmatchIndex(text, -1) {
		keyword := text[m[2]:m[3]]
		if keyword == "CSBDDStepDef" {
			keyword = "Step"
		}
		hits = append(hits, hit{offset: m[0], decl: Declared{Keyword: keyword, Pattern: quotedValue(text, m, 2)}})
	}
	for _, m := range positionalRE.FindAllStringSubmatchIndex(text, -1) {
		if m[3] > m[2] {
			// "@Step('Given', ...)" is a decorator, not a positional call.
			continue
		}
		hits = append(hits, hit{offset: m[0], decl: Declared{Keyword: text[m[4]:m[5]], Pattern: quotedValue(text, m, 3)}})
	}
	for _, m := range godogRE.FindAllStringSubmatchIndex(text, -1) {
		hits = append(hits, hit{offset: m[0], decl: Declared{Keyword: text[m[2]:m[3]], Pattern: quotedValue(text, m, 2)}})
	}

	sort.SliceStable(hits, func(i, j int) bool { return hits[i].offset < hits[j].offset })
	out := make([]Declared, 0, len(hits))
	for _, h := range hits {
		if strings.TrimSpace(h.decl.Pattern) == "" {
			continue
		}
		out = append(out, h.decl)
	}
	return out
}

// quotedValue returns the literal captured by the three quoted groups that
// start at capture group number group.
func quotedValue(text string, m []int, group int) string {
	for g := group; g < group+3; g++ {
		start, end := m[2*g], m[2*g+1]
		if start < 0 {
			continue
		}
		value := text[start:end]
		if g == group+2 {
			return value
		}
		return unescaper.Replace(value)
	}
	return ""
}
