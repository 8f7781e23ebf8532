// Package loader loads step-definition files into the registry, skipping
// files already loaded by this process.
package loader

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"runtime"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"stepload/internal/logging"
	"stepload/internal/registry"
)

// Report summarises one Load call.
type Report struct {
	Loaded   []string
	Skipped  []string
	Failed   map[string]error
	Steps    int
	Duration time.Duration
}

// Loader discovers declarations for each pending file and registers them.
type Loader struct {
	source      registry.Source
	registry    *registry.Registry
	concurrency int
	logger      *slog.Logger

	mu     sync.Mutex
	loaded map[string]struct{}
	group  singleflight.Group
}

// Option configures a Loader.
type Option func(*Loader)

// WithConcurrency bounds the number of files discovered at once.
func WithConcurrency(n int) Option {
	return func(l *Loader) { l.concurrency = n }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Loader) { l.logger = logger }
}

// New creates a loader feeding reg from source.
func New(source registry.Source, reg *registry.Registry, opts ...Option) *Loader {
	l := &Loader{
		source:   source,
		registry: reg,
		loaded:   make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.concurrency <= 0 {
		l.concurrency = runtime.GOMAXPROCS(0) * 2
	}
	l.logger = logging.For(l.logger, "loader")
	return l
}

// Load loads every file not already loaded. Files are discovered
// concurrently; a failing file is logged and reported but never stops the
// others, and Load itself does not fail.
func (l *Loader) Load(ctx context.Context, files []string) Report {
	start := time.Now()
	report := Report{Failed: make(map[string]error)}

	pending := make([]string, 0, len(files))
	seen := make(map[string]struct{}, len(files))
	for _, file := range files {
		file = filepath.Clean(file)
		if _, ok := seen[file]; ok {
			continue
		}
		seen[file] = struct{}{}
		if l.IsLoaded(file) {
			report.Skipped = append(report.Skipped, file)
			continue
		}
		pending = append(pending, file)
	}

	type outcome struct {
		steps int
		err   error
	}
	outcomes := make([]outcome, len(pending))

	var g errgroup.Group
	g.SetLimit(l.concurrency)
	for i, file := range pending {
		g.Go(func() error {
			v, err, _ := l.group.Do(file, func() (any, error) {
				return l.loadFile(ctx, file)
			})
			if err != nil {
				outcomes[i] = outcome{err: err}
				return nil
			}
			outcomes[i] = outcome{steps: v.(int)}
			return nil
		})
	}
	_ = g.Wait()

	for i, file := range pending {
		if err := outcomes[i].err; err != nil {
			report.Failed[file] = err
			l.logger.Error("failed to load step file", "file", file, logging.Err(err))
			continue
		}
		report.Loaded = append(report.Loaded, file)
		report.Steps += outcomes[i].steps
	}
	sort.Strings(report.Loaded)
	sort.Strings(report.Skipped)
	report.Duration = time.Since(start)
	l.logger.Debug("loaded step files",
		"loaded", len(report.Loaded),
		"skipped", len(report.Skipped),
		"failed", len(report.Failed),
		"steps", report.Steps)
	return report
}

// loadFile runs discovery then registration for one file.
func (l *Loader) loadFile(ctx context.Context, file string) (int, error) {
	if l.IsLoaded(file) {
		return 0, nil
	}
	decls, err := l.discover(ctx, file)
	if err != nil {
		return 0, err
	}
	if err := l.registry.Register(file, decls); err != nil {
		return 0, err
	}
	l.registry.MarkFileLoaded(file)
	l.mu.Lock()
	l.loaded[file] = struct{}{}
	l.mu.Unlock()
	return len(decls), nil
}

// discover calls the source, turning a panicking provider into an error.
func (l *Loader) discover(ctx context.Context, file string) (decls []registry.Declaration, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("discover %s: panic: %v", file, r)
		}
	}()
	return l.source.Discover(ctx, file)
}

// IsLoaded reports whether file has been loaded.
func (l *Loader) IsLoaded(file string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.loaded[filepath.Clean(file)]
	return ok
}

// Loaded returns the loaded files, sorted.
func (l *Loader) Loaded() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	files := make([]string, 0, len(l.loaded))
	for f := range l.loaded {
		files = append(files, f)
	}
	sort.Strings(files)
	return files
}

// Reset forgets every loaded file. Intended for test isolation.
func (l *Loader) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.loaded = make(map[string]struct{})
}
