package registry

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"stepload/internal/pattern"
)

// ErrNoProvider reports a file with no registered provider.
var ErrNoProvider = errors.New("no step provider registered")

// Source discovers the declarations a step-definition file provides.
type Source interface {
	Discover(ctx context.Context, file string) ([]Declaration, error)
}

// Provider returns the declarations of one step-definition file.
type Provider func() ([]Declaration, error)

// Catalog is a Source backed by providers compiled into the binary, keyed by
// the step file they stand for.
type Catalog struct {
	root      string
	mu        sync.RWMutex
	providers map[string]Provider
}

// NewCatalog returns an empty catalog. Relative file keys resolve against
// root.
func NewCatalog(root string) *Catalog {
	return &Catalog{root: root, providers: make(map[string]Provider)}
}

// Add registers the provider for file, replacing any previous one.
func (c *Catalog) Add(file string, provider Provider) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.providers[c.key(file)] = provider
}

// Files lists the files with providers, sorted.
func (c *Catalog) Files() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	files := make([]string, 0, len(c.providers))
	for f := range c.providers {
		files = append(files, f)
	}
	sort.Strings(files)
	return files
}

// Discover runs the provider registered for file.
func (c *Catalog) Discover(ctx context.Context, file string) ([]Declaration, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c.mu.RLock()
	provider, ok := c.providers[c.key(file)]
	c.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w for %s", ErrNoProvider, file)
	}
	decls, err := provider()
	if err != nil {
		return nil, fmt.Errorf("provider for %s: %w", file, err)
	}
	for i := range decls {
		if decls[i].File == "" {
			decls[i].File = c.key(file)
		}
	}
	return decls, nil
}

func (c *Catalog) key(file string) string {
	if !filepath.IsAbs(file) && c.root != "" {
		file = filepath.Join(c.root, file)
	}
	return filepath.Clean(file)
}

// ScanSource discovers declarations by scanning the file's text. Handlers
// are left nil, so the steps bind as pending.
type ScanSource struct {
	Extractor pattern.Extractor
}

// Discover reads and scans file.
func (s ScanSource) Discover(ctx context.Context, file string) ([]Declaration, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	content, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("read step file: %w", err)
	}
	extractor := s.Extractor
	if extractor == nil {
		extractor = pattern.RegexExtractor{}
	}
	declared := extractor.Extract(content)
	decls := make([]Declaration, 0, len(declared))
	for _, d := range declared {
		decls = append(decls, Declaration{Keyword: d.Keyword, Pattern: d.Pattern, File: file})
	}
	return decls, nil
}
