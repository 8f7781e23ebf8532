// Package resolve decides which step-definition files a run needs.
package resolve

import (
	"context"
	"log/slog"
	"path/filepath"
	"sort"

	"stepload/internal/logging"
	"stepload/internal/stepindex"
)

// SampleSize bounds the unmatched steps included in the warning.
const SampleSize = 5

// Steps is a set of required steps keyed by normalized text. Variants
// returns the distinct raw texts behind one key.
type Steps interface {
	Len() int
	Keys() []string
	Variants(key string) []string
}

// Resolution is the outcome of resolving a step set.
type Resolution struct {
	// Files to load, sorted.
	Files []string
	// Unmatched holds the raw step texts no pattern recognised, sorted.
	Unmatched []string
	// Matched maps each matched raw step text to the pattern that claimed it.
	Matched map[string]string
}

// Resolver matches required steps against a pattern index.
type Resolver struct {
	Root string
	// CommonFiles are added to every non-empty resolution. Relative paths
	// resolve against Root.
	CommonFiles []string
	Logger      *slog.Logger
	// Debug adds a sample of unmatched steps to the warning.
	Debug bool
}

// Resolve returns the files declaring patterns that match the required
// steps. Every raw text of a step is resolved on its own and takes the first
// matching entry in index order, so a key whose texts need different
// definitions contributes each of their files. It never fails: unmatched
// texts are reported, not raised.
func (r Resolver) Resolve(steps Steps, idx *stepindex.Index) Resolution {
	logger := logging.For(r.Logger, "resolve")
	res := Resolution{Matched: make(map[string]string)}
	if steps == nil || steps.Len() == 0 {
		return res
	}

	files := make(map[string]struct{})
	for _, common := range r.CommonFiles {
		files[r.abs(common)] = struct{}{}
	}

	entries := idx.Entries()
	for _, key := range steps.Keys() {
		for _, raw := range steps.Variants(key) {
			entry, ok := firstMatch(entries, key, raw)
			if !ok {
				res.Unmatched = append(res.Unmatched, raw)
				continue
			}
			for _, f := range entry.Files {
				files[f] = struct{}{}
			}
			res.Matched[raw] = entry.Pattern
		}
	}

	res.Files = make([]string, 0, len(files))
	for f := range files {
		res.Files = append(res.Files, f)
	}
	sort.Strings(res.Files)
	sort.Strings(res.Unmatched)

	if n := len(res.Unmatched); n > 0 {
		attrs := []any{"count", n}
		if r.Debug || logger.Enabled(context.Background(), slog.LevelDebug) {
			attrs = append(attrs, "sample", Sample(res.Unmatched))
		}
		logger.Warn("steps without a matching definition", attrs...)
	}
	logger.Debug("resolved step files", "steps", steps.Len(), "files", len(res.Files))
	return res
}

func firstMatch(entries []stepindex.Entry, key, raw string) (stepindex.Entry, bool) {
	for _, entry := range entries {
		if entry.Matcher.Match(key, raw) {
			return entry, true
		}
	}
	return stepindex.Entry{}, false
}

// Sample returns at most SampleSize leading entries.
func Sample(values []string) []string {
	if len(values) > SampleSize {
		return values[:SampleSize]
	}
	return values
}

func (r Resolver) abs(path string) string {
	if filepath.IsAbs(path) || r.Root == "" {
		return filepath.Clean(path)
	}
	return filepath.Join(r.Root, path)
}
