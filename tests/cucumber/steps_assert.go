//go:build cucumber

package cucumber

import (
	"fmt"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/cucumber/godog"

	"stepload/internal/pipeline"
)

func (s *featureState) lastResult() (pipeline.Result, error) {
	if len(s.results) == 0 {
		return pipeline.Result{}, fmt.Errorf("the step loader has not run")
	}
	return s.results[len(s.results)-1], nil
}

func (s *featureState) abs(rel string) string {
	return filepath.Join(s.projectDir, filepath.FromSlash(strings.TrimSpace(rel)))
}

// theseStepFilesAreLoaded compares the full set of loaded files.
func (s *featureState) theseStepFilesAreLoaded(table *godog.Table) error {
	want := make([]string, 0, len(table.Rows))
	for _, row := range table.Rows {
		want = append(want, s.abs(row.Cells[0].Value))
	}
	got := s.session.Registry().LoadedFiles()
	if !reflect.DeepEqual(got, want) {
		return fmt.Errorf("loaded files = %v, want %v", got, want)
	}
	return nil
}

func (s *featureState) fileIsNotLoaded(rel string) error {
	for _, f := range s.session.Registry().LoadedFiles() {
		if f == s.abs(rel) {
			return fmt.Errorf("%s should not be loaded", rel)
		}
	}
	return nil
}

func (s *featureState) stepsAreRegistered(n int) error {
	if got := s.session.Registry().Stats().TotalSteps; got != n {
		return fmt.Errorf("registered steps = %d, want %d", got, n)
	}
	return nil
}

func (s *featureState) stepFilesAreLoaded(n int) error {
	if got := len(s.session.Registry().LoadedFiles()); got != n {
		return fmt.Errorf("loaded files = %d, want %d", got, n)
	}
	return nil
}

func (s *featureState) theLastRunLoadedNoFiles() error {
	res, err := s.lastResult()
	if err != nil {
		return err
	}
	if len(res.Load.Loaded) != 0 {
		return fmt.Errorf("expected no new files, loaded %v", res.Load.Loaded)
	}
	return nil
}

func (s *featureState) theUnmatchedStepsAre(table *godog.Table) error {
	res, err := s.lastResult()
	if err != nil {
		return err
	}
	want := make([]string, 0, len(table.Rows))
	for _, row := range table.Rows {
		want = append(want, strings.TrimSpace(row.Cells[0].Value))
	}
	if !reflect.DeepEqual(res.Resolution.Unmatched, want) {
		return fmt.Errorf("unmatched = %v, want %v", res.Resolution.Unmatched, want)
	}
	return nil
}

func (s *featureState) lastBuild() (bool, error) {
	if len(s.builds) == 0 {
		return false, fmt.Errorf("the index has not been built")
	}
	return s.builds[len(s.builds)-1].FromCache, nil
}

func (s *featureState) theIndexCameFromTheCache() error {
	fromCache, err := s.lastBuild()
	if err != nil {
		return err
	}
	if !fromCache {
		return fmt.Errorf("expected the index to come from the cache")
	}
	return nil
}

func (s *featureState) theIndexWasRebuilt() error {
	fromCache, err := s.lastBuild()
	if err != nil {
		return err
	}
	if fromCache {
		return fmt.Errorf("expected the index to be rebuilt")
	}
	return nil
}

func (s *featureState) theIndexHasPatterns(n int) error {
	if len(s.builds) == 0 {
		return fmt.Errorf("the index has not been built")
	}
	if got := s.builds[len(s.builds)-1].Patterns; got != n {
		return fmt.Errorf("patterns = %d, want %d", got, n)
	}
	return nil
}

func (s *featureState) theExitCodeIs(code int) error {
	if s.exitCode != code {
		return fmt.Errorf("exit code = %d, want %d (stderr: %s)", s.exitCode, code, s.stderr.String())
	}
	return nil
}

func (s *featureState) theOutputContains(text string) error {
	if !strings.Contains(s.stdout.String(), text) {
		return fmt.Errorf("expected %q in output:\n%s", text, s.stdout.String())
	}
	return nil
}
