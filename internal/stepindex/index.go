// Package stepindex maps declared step patterns to the step-definition files
// that declare them, and caches that mapping on disk between runs.
package stepindex

import (
	"sort"

	"stepload/internal/pattern"
)

// Entry is one pattern with the files declaring it.
type Entry struct {
	Pattern string
	Files   []string
	Matcher *pattern.Matcher
}

// Index maps step patterns to the files declaring them. It is immutable once
// built.
type Index struct {
	entries []Entry
	byKey   map[string]int
	files   []string
}

// NewIndex builds an index from pattern -> files. File lists are de-duplicated
// and sorted; entries are ordered most specific first (fewest placeholders,
// then longest pattern, then lexical) so first-match lookups are stable.
func NewIndex(patterns map[string][]string) *Index {
	idx := &Index{
		entries: make([]Entry, 0, len(patterns)),
		byKey:   make(map[string]int, len(patterns)),
	}
	allFiles := make(map[string]struct{})
	for p, files := range patterns {
		if p == "" {
			continue
		}
		unique := uniqueSorted(files)
		for _, f := range unique {
			allFiles[f] = struct{}{}
		}
		idx.entries = append(idx.entries, Entry{Pattern: p, Files: unique, Matcher: pattern.Compile(p)})
	}
	sort.Slice(idx.entries, func(i, j int) bool {
		a, b := idx.entries[i].Pattern, idx.entries[j].Pattern
		sa, sb := pattern.Specificity(a), pattern.Specificity(b)
		if sa != sb {
			return sa < sb
		}
		if len(a) != len(b) {
			return len(a) > len(b)
		}
		return a < b
	})
	for i, entry := range idx.entries {
		idx.byKey[entry.Pattern] = i
	}
	idx.files = make([]string, 0, len(allFiles))
	for f := range allFiles {
		idx.files = append(idx.files, f)
	}
	sort.Strings(idx.files)
	return idx
}

// Len returns the number of distinct patterns.
func (idx *Index) Len() int {
	if idx == nil {
		return 0
	}
	return len(idx.entries)
}

// Entries returns the entries in lookup order.
func (idx *Index) Entries() []Entry {
	if idx == nil {
		return nil
	}
	out := make([]Entry, len(idx.entries))
	copy(out, idx.entries)
	return out
}

// Lookup returns the files declaring a pattern.
func (idx *Index) Lookup(p string) ([]string, bool) {
	if idx == nil {
		return nil, false
	}
	i, ok := idx.byKey[p]
	if !ok {
		return nil, false
	}
	return append([]string(nil), idx.entries[i].Files...), true
}

// Files returns every indexed file, sorted.
func (idx *Index) Files() []string {
	if idx == nil {
		return nil
	}
	return append([]string(nil), idx.files...)
}

// Patterns returns the raw pattern -> files mapping.
func (idx *Index) Patterns() map[string][]string {
	out := make(map[string][]string, idx.Len())
	if idx == nil {
		return out
	}
	for _, entry := range idx.entries {
		out[entry.Pattern] = append([]string(nil), entry.Files...)
	}
	return out
}

func uniqueSorted(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
