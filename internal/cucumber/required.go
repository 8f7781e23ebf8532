package cucumber

import (
	"slices"
	"sort"
	"strings"

	"stepload/internal/pattern"
)

// TagFilter selects scenarios by tag. Every Include tag must be present and
// no Exclude tag may be.
type TagFilter struct {
	Include []string
	Exclude []string
}

// ParseTagFilter builds a filter from CLI-style tags: "smoke" or "@smoke"
// requires a tag, "~@wip" or "~wip" excludes one.
func ParseTagFilter(tags []string) TagFilter {
	var filter TagFilter
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		if strings.HasPrefix(tag, "~") {
			filter.Exclude = append(filter.Exclude, canonicalTag(strings.TrimPrefix(tag, "~")))
			continue
		}
		filter.Include = append(filter.Include, canonicalTag(tag))
	}
	return filter
}

// Empty reports whether the filter selects everything.
func (f TagFilter) Empty() bool {
	return len(f.Include) == 0 && len(f.Exclude) == 0
}

// Matches reports whether a scenario with the given tags is selected.
func (f TagFilter) Matches(tags []string) bool {
	have := make(map[string]struct{}, len(tags))
	for _, tag := range tags {
		have[canonicalTag(tag)] = struct{}{}
	}
	for _, tag := range f.Exclude {
		if _, ok := have[tag]; ok {
			return false
		}
	}
	for _, tag := range f.Include {
		if _, ok := have[tag]; !ok {
			return false
		}
	}
	return true
}

func canonicalTag(tag string) string {
	tag = strings.ToLower(strings.TrimSpace(tag))
	if !strings.HasPrefix(tag, "@") {
		tag = "@" + tag
	}
	return tag
}

// RequiredStepSet holds the distinct normalized step texts used by the
// selected scenarios. Each key keeps every distinct raw text seen for it, in
// first-seen order, since steps that normalize alike can still need
// different definitions.
type RequiredStepSet struct {
	steps map[string][]string
}

// NewRequiredStepSet returns an empty set.
func NewRequiredStepSet() *RequiredStepSet {
	return &RequiredStepSet{steps: make(map[string][]string)}
}

// Add records a raw step text. Blank text is ignored.
func (s *RequiredStepSet) Add(raw string) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return
	}
	key := pattern.Normalize(raw)
	if slices.Contains(s.steps[key], raw) {
		return
	}
	s.steps[key] = append(s.steps[key], raw)
}

// Len returns the number of distinct normalized steps.
func (s *RequiredStepSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.steps)
}

// Keys returns the normalized step texts in sorted order.
func (s *RequiredStepSet) Keys() []string {
	if s == nil {
		return nil
	}
	keys := make([]string, 0, len(s.steps))
	for key := range s.steps {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// Variants returns every distinct raw text recorded for a normalized key.
func (s *RequiredStepSet) Variants(key string) []string {
	if s == nil {
		return nil
	}
	return slices.Clone(s.steps[key])
}

// RequiredSteps collects the steps of every scenario the filter selects.
func RequiredSteps(features []Feature, filter TagFilter) *RequiredStepSet {
	set := NewRequiredStepSet()
	for _, feature := range features {
		for _, scenario := range feature.Scenarios {
			if !filter.Matches(scenario.Tags) {
				continue
			}
			for _, step := range scenario.Steps {
				set.Add(step.Text)
			}
		}
	}
	return set
}

// ParseFeatureFiles parses every path. Files that fail are reported in the
// returned map and left out of the result.
func ParseFeatureFiles(paths []string) ([]Feature, map[string]error) {
	features := make([]Feature, 0, len(paths))
	failures := make(map[string]error)
	for _, path := range paths {
		feature, err := ParseFeatureFile(path)
		if err != nil {
			failures[path] = err
			continue
		}
		features = append(features, feature)
	}
	return features, failures
}
