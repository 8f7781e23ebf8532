//go:build cucumber

package cucumber

import (
	"bytes"
	"context"
	"os"
	"time"

	"github.com/cucumber/godog"

	"stepload/internal/config"
	"stepload/internal/pipeline"
	"stepload/internal/registry"
	"stepload/internal/stepindex"
	"stepload/internal/testutil"
)

// featureState holds scenario state for the loader features.
type featureState struct {
	projectDir  string
	commonFiles []string
	clock       *testutil.FakeClock
	session     *pipeline.Session
	results     []pipeline.Result
	lastErr     error
	builds      []stepindex.BuildInfo
	stdout      bytes.Buffer
	stderr      bytes.Buffer
	exitCode    int
}

// InitializeScenario wires cucumber steps to the feature state.
func InitializeScenario(ctx *godog.ScenarioContext) {
	state := &featureState{}

	ctx.Before(func(ctx context.Context, sc *godog.Scenario) (context.Context, error) {
		return ctx, state.reset()
	})

	ctx.After(func(ctx context.Context, sc *godog.Scenario, err error) (context.Context, error) {
		state.cleanup()
		return ctx, nil
	})

	ctx.Step(`^a project with these step files:$`, state.aProjectWithStepFiles)
	ctx.Step(`^the common step file "([^"]+)"$`, state.theCommonStepFile)
	ctx.Step(`^a feature file "([^"]+)" with steps:$`, state.aFeatureFileWithSteps)
	ctx.Step(`^a feature file "([^"]+)" containing:$`, state.aFeatureFileContaining)

	ctx.Step(`^I initialize the step loader for "([^"]+)"(?: again)?$`, state.iInitializeFor)
	ctx.Step(`^I initialize the step loader without features$`, state.iInitializeWithoutFeatures)
	ctx.Step(`^I build the step index(?: again)?$`, state.iBuildTheIndex)
	ctx.Step(`^(\d+) hours pass$`, state.hoursPass)
	ctx.Step(`^the cache file is corrupted$`, state.theCacheFileIsCorrupted)
	ctx.Step(`^I run "([^"]+)"$`, state.iRunCommand)

	ctx.Step(`^these step files are loaded:$`, state.theseStepFilesAreLoaded)
	ctx.Step(`^"([^"]+)" is not loaded$`, state.fileIsNotLoaded)
	ctx.Step(`^(\d+) steps are registered$`, state.stepsAreRegistered)
	ctx.Step(`^(\d+) step files are loaded$`, state.stepFilesAreLoaded)
	ctx.Step(`^the last run loaded no files$`, state.theLastRunLoadedNoFiles)
	ctx.Step(`^the unmatched steps are:$`, state.theUnmatchedStepsAre)
	ctx.Step(`^the index came from the cache$`, state.theIndexCameFromTheCache)
	ctx.Step(`^the index was rebuilt$`, state.theIndexWasRebuilt)
	ctx.Step(`^the index has (\d+) patterns$`, state.theIndexHasPatterns)
	ctx.Step(`^the exit code is (\d+)$`, state.theExitCodeIs)
	ctx.Step(`^the output contains "([^"]+)"$`, state.theOutputContains)
}

// reset creates a fresh project directory before each scenario.
func (s *featureState) reset() error {
	dir, err := os.MkdirTemp("", "stepload-feature-*")
	if err != nil {
		return err
	}
	*s = featureState{
		projectDir: dir,
		clock:      testutil.NewFakeClock(time.Now()),
	}
	return nil
}

// cleanup removes temporary files.
func (s *featureState) cleanup() {
	if s.projectDir != "" {
		_ = os.RemoveAll(s.projectDir)
	}
}

// config returns the normalized config for the scenario project.
func (s *featureState) config() (config.Config, error) {
	cfg := config.Default()
	cfg.Root = s.projectDir
	cfg.CommonFiles = append([]string(nil), s.commonFiles...)
	cfg.Concurrency = 4
	err := config.Normalize(&cfg, s.projectDir)
	return cfg, err
}

// ensureSession builds the scenario session on first use.
func (s *featureState) ensureSession() error {
	if s.session != nil {
		return nil
	}
	cfg, err := s.config()
	if err != nil {
		return err
	}
	s.session = pipeline.New(cfg, registry.ScanSource{}, pipeline.WithClock(s.clock))
	return nil
}
