package cucumber

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// ExpandFeaturePaths expands directories/globs into feature file paths.
func ExpandFeaturePaths(repoRoot string, entries []string) ([]string, error) {
	paths := make([]string, 0)
	seen := make(map[string]struct{})
	for _, entry := range entries {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		if hasGlob(entry) {
			resolved := resolvePath(repoRoot, entry)
			matches, err := doublestar.FilepathGlob(resolved)
			if err != nil {
				return nil, fmt.Errorf("expand glob %q: %w", entry, err)
			}
			for _, match := range matches {
				if !strings.HasSuffix(match, ".feature") {
					continue
				}
				paths = appendUnique(paths, seen, match)
			}
			continue
		}
		resolved := resolvePath(repoRoot, entry)
		info, err := os.Stat(resolved)
		if err != nil {
			return nil, fmt.Errorf("stat feature path %q: %w", entry, err)
		}
		if info.IsDir() {
			dirPaths, err := collectFeatureFiles(resolved)
			if err != nil {
				return nil, err
			}
			for _, path := range dirPaths {
				paths = appendUnique(paths, seen, path)
			}
			continue
		}
		paths = appendUnique(paths, seen, resolved)
	}
	sort.Strings(paths)
	return paths, nil
}

// resolvePath resolves a repo-relative path.
func resolvePath(repoRoot, path string) string {
	if filepath.IsAbs(path) || repoRoot == "" {
		return filepath.Clean(path)
	}
	return filepath.Clean(filepath.Join(repoRoot, path))
}

// collectFeatureFiles walks a directory to find .feature files.
func collectFeatureFiles(root string) ([]string, error) {
	paths := make([]string, 0)
	err := filepath.WalkDir(root, func(path string, entry os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() {
			if path != root && strings.HasPrefix(entry.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasSuffix(entry.Name(), ".feature") {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk feature root %q: %w", root, err)
	}
	return paths, nil
}

// appendUnique appends a path if it has not been seen.
func appendUnique(paths []string, seen map[string]struct{}, path string) []string {
	normalized := filepath.Clean(path)
	if _, ok := seen[normalized]; ok {
		return paths
	}
	seen[normalized] = struct{}{}
	return append(paths, normalized)
}

// hasGlob reports whether a path includes glob characters.
func hasGlob(value string) bool {
	return strings.ContainsAny(value, "*?[]{")
}
