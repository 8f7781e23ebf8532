package stepindex

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"stepload/internal/fsutil"
)

// Cache location defaults.
const (
	DefaultCacheDir = ".cs-framework-cache"
	CacheFileName   = "step-file-index.json"
	DefaultMaxAge   = 24 * time.Hour
)

// ErrCacheStale reports a cache file older than the allowed age.
var ErrCacheStale = errors.New("step index cache is stale")

// cacheEntry serializes as a [pattern, [files...]] tuple.
type cacheEntry struct {
	Pattern string
	Files   []string
}

func (e cacheEntry) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{e.Pattern, e.Files})
}

func (e *cacheEntry) UnmarshalJSON(data []byte) error {
	var tuple []json.RawMessage
	if err := json.Unmarshal(data, &tuple); err != nil {
		return err
	}
	if len(tuple) != 2 {
		return fmt.Errorf("cache entry has %d elements, want 2", len(tuple))
	}
	if err := json.Unmarshal(tuple[0], &e.Pattern); err != nil {
		return fmt.Errorf("cache entry pattern: %w", err)
	}
	if err := json.Unmarshal(tuple[1], &e.Files); err != nil {
		return fmt.Errorf("cache entry files: %w", err)
	}
	return nil
}

// readCache loads an index from path when it is younger than maxAge.
func readCache(path string, now time.Time, maxAge time.Duration) (*Index, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if age := now.Sub(info.ModTime()); age >= maxAge {
		return nil, fmt.Errorf("%w: age %s", ErrCacheStale, age.Round(time.Second))
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read cache: %w", err)
	}
	var entries []cacheEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("decode cache: %w", err)
	}
	patterns := make(map[string][]string, len(entries))
	for _, entry := range entries {
		patterns[entry.Pattern] = append(patterns[entry.Pattern], entry.Files...)
	}
	return NewIndex(patterns), nil
}

// writeCache replaces the cache file atomically.
func writeCache(path string, idx *Index) error {
	entries := make([]cacheEntry, 0, idx.Len())
	for _, entry := range idx.Entries() {
		entries = append(entries, cacheEntry{Pattern: entry.Pattern, Files: entry.Files})
	}
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("encode cache: %w", err)
	}
	if err := fsutil.WriteFileAtomic(path, data, 0o644); err != nil {
		return fmt.Errorf("write cache: %w", err)
	}
	return nil
}

// ClearCache removes a cache file. A missing file is not an error.
func ClearCache(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove cache: %w", err)
	}
	return nil
}
