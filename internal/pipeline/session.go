// Package pipeline runs the three loading stages for a test run: build the
// required step set from feature files, resolve it against the step index,
// then load the resolved files into the registry.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"stepload/internal/config"
	"stepload/internal/cucumber"
	"stepload/internal/loader"
	"stepload/internal/logging"
	"stepload/internal/pattern"
	"stepload/internal/registry"
	"stepload/internal/resolve"
	"stepload/internal/stepindex"
)

// ErrNoFeatures reports that none of the requested feature files could be
// parsed.
var ErrNoFeatures = errors.New("no parseable feature files")

// Timings holds per-stage durations.
type Timings struct {
	Parse   time.Duration
	Index   time.Duration
	Resolve time.Duration
	Load    time.Duration
	Total   time.Duration
}

// Result describes one Initialize or Resolve call.
type Result struct {
	RunID         string
	Mode          string
	FeatureFiles  []string
	FeatureErrors map[string]error
	Features      int
	RequiredSteps int
	Index         stepindex.BuildInfo
	Resolution    resolve.Resolution
	// Files are the step files handed to the loader, sorted.
	Files []string
	Load          loader.Report
	Stats         registry.Stats
	Timings       Timings
}

// Session owns the collaborators of one loading pipeline. Sessions are
// independent: two sessions never share loaded files or registrations.
type Session struct {
	id       string
	cfg      config.Config
	builder  *stepindex.Builder
	resolver resolve.Resolver
	loader   *loader.Loader
	registry *registry.Registry
	logger   *slog.Logger

	mu    sync.Mutex
	index *stepindex.Index
}

// Option configures a Session.
type Option func(*sessionOptions)

type sessionOptions struct {
	logger    *slog.Logger
	clock     stepindex.Clock
	extractor pattern.Extractor
	registry  *registry.Registry
	debug     bool
}

// WithLogger sets the logger shared by every stage.
func WithLogger(logger *slog.Logger) Option {
	return func(o *sessionOptions) { o.logger = logger }
}

// WithClock sets the clock used for cache expiry.
func WithClock(clock stepindex.Clock) Option {
	return func(o *sessionOptions) { o.clock = clock }
}

// WithExtractor replaces the default pattern extractor.
func WithExtractor(extractor pattern.Extractor) Option {
	return func(o *sessionOptions) { o.extractor = extractor }
}

// WithRegistry loads into an existing registry.
func WithRegistry(reg *registry.Registry) Option {
	return func(o *sessionOptions) { o.registry = reg }
}

// WithDebug includes unmatched step samples in resolver warnings.
func WithDebug(debug bool) Option {
	return func(o *sessionOptions) { o.debug = debug }
}

// New builds a session for a normalized config. Step files are discovered
// through source.
func New(cfg config.Config, source registry.Source, opts ...Option) *Session {
	var o sessionOptions
	for _, opt := range opts {
		opt(&o)
	}
	if o.registry == nil {
		o.registry = registry.New()
	}
	id := uuid.NewString()
	logger := logging.For(o.logger, "pipeline").With("run_id", id)

	return &Session{
		id:  id,
		cfg: cfg,
		builder: &stepindex.Builder{
			Root:         cfg.Root,
			Globs:        cfg.StepGlobs,
			ExcludeDirs:  cfg.ExcludeDirs,
			Extractor:    o.extractor,
			CacheDir:     cfg.Cache.Dir,
			DisableCache: cfg.Cache.Disabled,
			MaxAge:       cfg.Cache.MaxAge,
			Clock:        o.clock,
			Concurrency:  cfg.Concurrency,
			Logger:       o.logger,
		},
		resolver: resolve.Resolver{
			Root:        cfg.Root,
			CommonFiles: cfg.CommonFiles,
			Logger:      o.logger,
			Debug:       o.debug,
		},
		loader: loader.New(source, o.registry,
			loader.WithConcurrency(cfg.Concurrency),
			loader.WithLogger(o.logger)),
		registry: o.registry,
		logger:   logger,
	}
}

// ID returns the session run id.
func (s *Session) ID() string { return s.id }

// Registry returns the registry the session loads into.
func (s *Session) Registry() *registry.Registry { return s.registry }

// Builder returns the index builder.
func (s *Session) Builder() *stepindex.Builder { return s.builder }

// Bind registers every loaded step with a godog scenario context.
func (s *Session) Bind(sc registry.StepContext) error {
	return s.registry.Bind(sc)
}

// Initialize loads the step files needed by featurePaths. Entries may be
// files, directories or globs relative to the project root. With no entries,
// or in "all" mode, every indexed step file is loaded instead.
//
// Stages run strictly in order. Feature files that fail to parse are logged
// and skipped; ErrNoFeatures is returned only when every file fails. Step
// files that fail to load are reported in Result.Load and do not fail the
// call.
func (s *Session) Initialize(ctx context.Context, featurePaths []string) (Result, error) {
	start := time.Now()
	res, err := s.plan(ctx, featurePaths)
	if err != nil {
		return res, err
	}

	stage := time.Now()
	res.Load = s.loader.Load(ctx, res.Files)
	res.Timings.Load = time.Since(stage)
	if err := ctx.Err(); err != nil {
		return res, err
	}

	res.Stats = s.registry.Stats()
	res.Timings.Total = time.Since(start)
	s.logger.Info("step loading complete",
		"mode", res.Mode,
		"features", res.Features,
		"required_steps", res.RequiredSteps,
		"files", len(res.Files),
		"loaded", len(res.Load.Loaded),
		"failed", len(res.Load.Failed),
		"unmatched", len(res.Resolution.Unmatched),
		"steps", res.Stats.TotalSteps,
		"duration", res.Timings.Total)
	return res, nil
}

// Resolve runs the stages of Initialize up to resolution and reports the
// files it would load. Nothing is loaded into the registry.
func (s *Session) Resolve(ctx context.Context, featurePaths []string) (Result, error) {
	start := time.Now()
	res, err := s.plan(ctx, featurePaths)
	if err != nil {
		return res, err
	}
	res.Timings.Total = time.Since(start)
	s.logger.Debug("step resolution complete",
		"mode", res.Mode,
		"features", res.Features,
		"required_steps", res.RequiredSteps,
		"files", len(res.Files),
		"unmatched", len(res.Resolution.Unmatched))
	return res, nil
}

// plan parses the features, obtains the index and picks the files to load.
func (s *Session) plan(ctx context.Context, featurePaths []string) (Result, error) {
	res := Result{RunID: s.id, Mode: s.cfg.Mode, FeatureErrors: map[string]error{}}
	selective := s.cfg.Mode != config.ModeAll && len(featurePaths) > 0
	if !selective {
		res.Mode = config.ModeAll
	}

	var required *cucumber.RequiredStepSet
	if selective {
		stage := time.Now()
		files, failures := s.expandFeatures(featurePaths)
		res.FeatureFiles = files
		if len(files) == 0 && len(failures) == 0 {
			return res, fmt.Errorf("%w: nothing matched %v", ErrNoFeatures, featurePaths)
		}
		features, parseFailures := cucumber.ParseFeatureFiles(files)
		for path, err := range parseFailures {
			failures[path] = err
		}
		for _, path := range sortedKeys(failures) {
			s.logger.Warn("skipping unparseable feature file", "file", path, logging.Err(failures[path]))
			res.FeatureErrors[path] = failures[path]
		}
		if len(features) == 0 {
			errs := make([]error, 0, len(failures))
			for _, path := range sortedKeys(failures) {
				errs = append(errs, fmt.Errorf("%s: %w", path, failures[path]))
			}
			return res, fmt.Errorf("%w: %w", ErrNoFeatures, errors.Join(errs...))
		}
		res.Features = len(features)
		required = cucumber.RequiredSteps(features, cucumber.ParseTagFilter(s.cfg.Tags))
		res.RequiredSteps = required.Len()
		res.Timings.Parse = time.Since(stage)
	}

	stage := time.Now()
	idx, info, err := s.loadIndex(ctx)
	if err != nil {
		return res, err
	}
	res.Index = info
	res.Timings.Index = time.Since(stage)

	stage = time.Now()
	if selective {
		res.Resolution = s.resolver.Resolve(required, idx)
		res.Files = res.Resolution.Files
	} else {
		res.Files = idx.Files()
	}
	res.Timings.Resolve = time.Since(stage)
	return res, nil
}

// expandFeatures expands each entry on its own so that one missing path
// does not hide the others.
func (s *Session) expandFeatures(entries []string) ([]string, map[string]error) {
	failures := make(map[string]error)
	seen := make(map[string]struct{})
	files := make([]string, 0, len(entries))
	for _, entry := range entries {
		expanded, err := cucumber.ExpandFeaturePaths(s.cfg.Root, []string{entry})
		if err != nil {
			failures[entry] = err
			continue
		}
		for _, f := range expanded {
			if _, ok := seen[f]; ok {
				continue
			}
			seen[f] = struct{}{}
			files = append(files, f)
		}
	}
	sort.Strings(files)
	return files, failures
}

// Index returns the step index, building it on first use.
func (s *Session) Index(ctx context.Context) (*stepindex.Index, error) {
	idx, _, err := s.loadIndex(ctx)
	return idx, err
}

func (s *Session) loadIndex(ctx context.Context) (*stepindex.Index, stepindex.BuildInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.index != nil {
		return s.index, stepindex.BuildInfo{FromCache: true, Patterns: s.index.Len(), CachePath: s.builder.CachePath()}, nil
	}
	idx, info, err := s.builder.Build(ctx)
	if err != nil {
		return nil, info, fmt.Errorf("build step index: %w", err)
	}
	s.index = idx
	return idx, info, nil
}

// Reset clears the loaded file set, the registry and the in-memory index.
// The on-disk cache is left alone.
func (s *Session) Reset() {
	s.loader.Reset()
	s.registry.Reset()
	s.mu.Lock()
	s.index = nil
	s.mu.Unlock()
}

func sortedKeys(m map[string]error) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
