//go:build cucumber

package cucumber

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"stepload/internal/cli"
)

// iInitializeFor runs the loading pipeline for one feature entry.
func (s *featureState) iInitializeFor(path string) error {
	return s.initialize([]string{path})
}

// iInitializeWithoutFeatures runs the pipeline with no feature selection.
func (s *featureState) iInitializeWithoutFeatures() error {
	return s.initialize(nil)
}

func (s *featureState) initialize(paths []string) error {
	if err := s.ensureSession(); err != nil {
		return err
	}
	res, err := s.session.Initialize(context.Background(), paths)
	if err != nil {
		return fmt.Errorf("initialize: %w", err)
	}
	s.results = append(s.results, res)
	return nil
}

// iBuildTheIndex builds the pattern index, bypassing the session's
// in-memory copy so the disk cache is consulted every time.
func (s *featureState) iBuildTheIndex() error {
	if err := s.ensureSession(); err != nil {
		return err
	}
	_, info, err := s.session.Builder().Build(context.Background())
	if err != nil {
		return fmt.Errorf("build index: %w", err)
	}
	s.builds = append(s.builds, info)
	return nil
}

// hoursPass moves the scenario clock and the cache file's mtime apart.
func (s *featureState) hoursPass(hours int) error {
	s.clock.Advance(time.Duration(hours) * time.Hour)
	return nil
}

// theCacheFileIsCorrupted overwrites the cache with invalid JSON.
func (s *featureState) theCacheFileIsCorrupted() error {
	if err := s.ensureSession(); err != nil {
		return err
	}
	path := s.session.Builder().CachePath()
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		return fmt.Errorf("corrupt cache: %w", err)
	}
	return nil
}

// iRunCommand runs the CLI against the scenario project.
func (s *featureState) iRunCommand(command string) error {
	configPath := filepath.Join(s.projectDir, ".stepload", "config.yml")
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		if err := s.writeProjectFile(".stepload/config.yml", "version: 1\ncommon_files: []\n"); err != nil {
			return err
		}
	}
	args := append(strings.Fields(command), "--config", configPath, "--no-color")
	s.stdout.Reset()
	s.stderr.Reset()
	s.exitCode = cli.Run(args, &s.stdout, &s.stderr)
	return nil
}
