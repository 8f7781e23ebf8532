package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// addGitignoreEntry appends dir to repoRoot/.gitignore unless an equal line
// is already present. It reports whether the file changed.
func addGitignoreEntry(repoRoot, dir string) (bool, error) {
	entry, err := gitignoreEntry(repoRoot, dir)
	if err != nil {
		return false, err
	}

	path := filepath.Join(repoRoot, ".gitignore")
	existing, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return false, fmt.Errorf("read .gitignore: %w", err)
	}
	for _, line := range strings.Split(string(existing), "\n") {
		line = strings.TrimSpace(line)
		if line == entry || line == entry+"/" || line == "/"+entry+"/" {
			return false, nil
		}
	}

	updated := string(existing)
	if updated != "" && !strings.HasSuffix(updated, "\n") {
		updated += "\n"
	}
	updated += entry + "/\n"
	if err := os.WriteFile(path, []byte(updated), 0o644); err != nil {
		return false, fmt.Errorf("write .gitignore: %w", err)
	}
	return true, nil
}

// gitignoreEntry turns dir into a slash-separated path relative to repoRoot.
func gitignoreEntry(repoRoot, dir string) (string, error) {
	if strings.TrimSpace(dir) == "" {
		return "", fmt.Errorf("directory is required")
	}
	clean := filepath.Clean(dir)
	if filepath.IsAbs(clean) {
		rel, err := filepath.Rel(repoRoot, clean)
		if err != nil {
			return "", fmt.Errorf("resolve %s: %w", dir, err)
		}
		clean = rel
	}
	if clean == "." || strings.HasPrefix(clean, "..") {
		return "", fmt.Errorf("%q is outside the repo root", dir)
	}
	return filepath.ToSlash(clean), nil
}
