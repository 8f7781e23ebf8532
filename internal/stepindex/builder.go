package stepindex

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"golang.org/x/sync/errgroup"

	"stepload/internal/logging"
	"stepload/internal/pattern"
)

// DefaultGlobs locate step-definition files relative to the project root.
var DefaultGlobs = []string{
	"test/**/steps/**/*.{ts,js}",
	"src/steps/**/*.{ts,js}",
	"**/steps/**/*_steps.go",
}

// DefaultExcludeDirs are never scanned.
var DefaultExcludeDirs = []string{"node_modules", "dist", "build", "vendor", ".git"}

// Clock reports the current time.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// Builder produces the pattern index for a project, reusing the on-disk cache
// while it is fresh.
type Builder struct {
	Root         string
	Globs        []string
	ExcludeDirs  []string
	Extractor    pattern.Extractor
	CacheDir     string
	DisableCache bool
	MaxAge       time.Duration
	Clock        Clock
	Concurrency  int
	Logger       *slog.Logger
}

// BuildInfo describes how an index was obtained.
type BuildInfo struct {
	FromCache    bool
	FilesScanned int
	Patterns     int
	CachePath    string
	Duration     time.Duration
}

// CachePath returns the location of the cache file.
func (b *Builder) CachePath() string {
	dir := b.CacheDir
	if dir == "" {
		dir = DefaultCacheDir
	}
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(b.Root, dir)
	}
	return filepath.Join(dir, CacheFileName)
}

// Build returns the index, from cache when the cache file is younger than
// MaxAge, otherwise by scanning every step file and rewriting the cache.
func (b *Builder) Build(ctx context.Context) (*Index, BuildInfo, error) {
	logger := logging.For(b.Logger, "stepindex")
	start := b.clock().Now()
	info := BuildInfo{CachePath: b.CachePath()}

	if !b.DisableCache {
		idx, err := readCache(info.CachePath, start, b.maxAge())
		switch {
		case err == nil:
			info.FromCache = true
			info.Patterns = idx.Len()
			info.Duration = b.clock().Now().Sub(start)
			logger.Debug("loaded step index from cache", "path", info.CachePath, "patterns", idx.Len())
			return idx, info, nil
		case errors.Is(err, os.ErrNotExist):
			logger.Debug("no step index cache", "path", info.CachePath)
		case errors.Is(err, ErrCacheStale):
			logger.Debug("step index cache expired", "path", info.CachePath, logging.Err(err))
		default:
			logger.Warn("step index cache unreadable, rebuilding", "path", info.CachePath, logging.Err(err))
		}
	}

	files, err := b.Discover()
	if err != nil {
		return nil, info, err
	}
	patterns, err := b.scan(ctx, files)
	if err != nil {
		return nil, info, err
	}
	idx := NewIndex(patterns)
	info.FilesScanned = len(files)
	info.Patterns = idx.Len()

	if !b.DisableCache {
		if err := writeCache(info.CachePath, idx); err != nil {
			logger.Warn("failed to save step index cache", "path", info.CachePath, logging.Err(err))
		}
	}
	info.Duration = b.clock().Now().Sub(start)
	logger.Info("built step index", "files", len(files), "patterns", idx.Len(), "duration", info.Duration)
	return idx, info, nil
}

// Discover lists step-definition files matching the globs, as sorted
// absolute paths.
func (b *Builder) Discover() ([]string, error) {
	root, err := filepath.Abs(b.Root)
	if err != nil {
		return nil, fmt.Errorf("resolve root %q: %w", b.Root, err)
	}
	fsys := os.DirFS(root)
	seen := make(map[string]struct{})
	files := make([]string, 0)
	for _, glob := range b.globs() {
		matches, err := doublestar.Glob(fsys, filepath.ToSlash(glob), doublestar.WithFilesOnly())
		if err != nil {
			return nil, fmt.Errorf("expand step glob %q: %w", glob, err)
		}
		for _, rel := range matches {
			if b.excluded(rel) {
				continue
			}
			abs := filepath.Join(root, filepath.FromSlash(rel))
			if _, ok := seen[abs]; ok {
				continue
			}
			seen[abs] = struct{}{}
			files = append(files, abs)
		}
	}
	sort.Strings(files)
	return files, nil
}

// Matches reports whether a root-relative, slash-separated path is a step
// file this builder would index.
func (b *Builder) Matches(rel string) bool {
	if b.excluded(rel) {
		return false
	}
	for _, glob := range b.globs() {
		if ok, _ := doublestar.Match(filepath.ToSlash(glob), rel); ok {
			return true
		}
	}
	return false
}

// scan reads and extracts every file concurrently. Unreadable files
// contribute nothing. Patterns keep discovery order per key.
func (b *Builder) scan(ctx context.Context, files []string) (map[string][]string, error) {
	logger := logging.For(b.Logger, "stepindex")
	extractor := b.Extractor
	if extractor == nil {
		extractor = pattern.RegexExtractor{}
	}
	results := make([][]pattern.Declared, len(files))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(b.concurrency())
	for i, file := range files {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			content, err := os.ReadFile(file)
			if err != nil {
				logger.Debug("skipping unreadable step file", "file", file, logging.Err(err))
				return nil
			}
			results[i] = extractor.Extract(content)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("scan step files: %w", err)
	}

	patterns := make(map[string][]string)
	for i, declared := range results {
		for _, d := range declared {
			patterns[d.Pattern] = append(patterns[d.Pattern], files[i])
		}
	}
	return patterns, nil
}

func (b *Builder) excluded(rel string) bool {
	if strings.HasSuffix(rel, ".d.ts") {
		return true
	}
	exclude := b.ExcludeDirs
	if exclude == nil {
		exclude = DefaultExcludeDirs
	}
	segments := strings.Split(rel, "/")
	for _, segment := range segments[:len(segments)-1] {
		for _, dir := range exclude {
			if segment == dir {
				return true
			}
		}
	}
	return false
}

func (b *Builder) globs() []string {
	if len(b.Globs) == 0 {
		return DefaultGlobs
	}
	return b.Globs
}

func (b *Builder) maxAge() time.Duration {
	if b.MaxAge <= 0 {
		return DefaultMaxAge
	}
	return b.MaxAge
}

func (b *Builder) clock() Clock {
	if b.Clock == nil {
		return systemClock{}
	}
	return b.Clock
}

func (b *Builder) concurrency() int {
	if b.Concurrency > 0 {
		return b.Concurrency
	}
	return runtime.GOMAXPROCS(0) * 4
}

