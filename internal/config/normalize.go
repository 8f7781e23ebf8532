package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"stepload/internal/stepindex"
)

// Normalize fills defaults and resolves Root. A relative Root is taken
// relative to baseDir (the directory holding .stepload), falling back to the
// working directory.
func Normalize(cfg *Config, baseDir string) error {
	if cfg.Version == 0 {
		cfg.Version = 1
	}
	if baseDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("get working directory: %w", err)
		}
		baseDir = wd
	}
	root := strings.TrimSpace(cfg.Root)
	switch {
	case root == "":
		root = baseDir
	case !filepath.IsAbs(root):
		root = filepath.Join(baseDir, root)
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return fmt.Errorf("resolve root %q: %w", root, err)
	}
	cfg.Root = abs

	cfg.StepGlobs = trimAll(cfg.StepGlobs)
	if len(cfg.StepGlobs) == 0 {
		cfg.StepGlobs = append([]string(nil), stepindex.DefaultGlobs...)
	}
	cfg.ExcludeDirs = trimAll(cfg.ExcludeDirs)
	cfg.CommonFiles = trimAll(cfg.CommonFiles)
	cfg.Features = trimAll(cfg.Features)
	cfg.Tags = trimAll(cfg.Tags)

	cfg.Mode = strings.ToLower(strings.TrimSpace(cfg.Mode))
	if cfg.Mode == "" {
		cfg.Mode = ModeSelective
	}
	if strings.TrimSpace(cfg.Cache.Dir) == "" {
		cfg.Cache.Dir = stepindex.DefaultCacheDir
	}
	if cfg.Cache.MaxAge == 0 {
		cfg.Cache.MaxAge = stepindex.DefaultMaxAge
	}
	cfg.Log.Level = strings.ToLower(strings.TrimSpace(cfg.Log.Level))
	cfg.Log.Format = strings.ToLower(strings.TrimSpace(cfg.Log.Format))
	return nil
}

// CachePath returns the absolute cache file location.
func (cfg Config) CachePath() string {
	dir := cfg.Cache.Dir
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(cfg.Root, dir)
	}
	return filepath.Join(dir, stepindex.CacheFileName)
}

func trimAll(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
