package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, root, body string) string {
	t.Helper()
	path := ConfigPath(root)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadDefaultsWithoutFile(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	wd, err := os.Getwd()
	require.NoError(t, err)
	assert.Equal(t, wd, cfg.Root)
	assert.Equal(t, ModeSelective, cfg.Mode)
	assert.Equal(t, 24*time.Hour, cfg.Cache.MaxAge)
	assert.Equal(t, DefaultCommonFiles, cfg.CommonFiles)
	assert.Len(t, cfg.StepGlobs, 3)
	assert.Equal(t, filepath.Join(wd, ".cs-framework-cache", "step-file-index.json"), cfg.CachePath())
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	root := t.TempDir()
	path := writeConfig(t, root, `version: 1
step_globs:
  - "steps/**/*.go"
common_files: []
mode: all
cache:
  max_age: 90m
log:
  level: DEBUG
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, root, cfg.Root)
	assert.Equal(t, []string{"steps/**/*.go"}, cfg.StepGlobs)
	assert.Empty(t, cfg.CommonFiles)
	assert.Equal(t, ModeAll, cfg.Mode)
	assert.Equal(t, 90*time.Minute, cfg.Cache.MaxAge)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoadEnvironmentOverrides(t *testing.T) {
	root := t.TempDir()
	path := writeConfig(t, root, "version: 1\n")
	t.Setenv("STEPLOAD_CONCURRENCY", "8")
	t.Setenv("STEPLOAD_CACHE__DISABLED", "true")
	t.Setenv("STEPLOAD_TAGS", "smoke, ~@wip")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 8, cfg.Concurrency)
	assert.True(t, cfg.Cache.Disabled)
	assert.Equal(t, []string{"smoke", "~@wip"}, cfg.Tags)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	root := t.TempDir()
	path := writeConfig(t, root, `version: 1
mode: sometimes
concurrency: 1000
exclude_dirs: ["a/b"]
step_globs: ["src/[steps/*.ts"]
`)

	_, err := Load(path)
	require.Error(t, err)
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	fields := make([]string, 0, len(verr.Issues))
	for _, issue := range verr.Issues {
		fields = append(fields, issue.Field)
	}
	joined := strings.Join(fields, ",")
	assert.Contains(t, joined, "mode")
	assert.Contains(t, joined, "concurrency")
	assert.Contains(t, joined, "exclude_dirs[0]")
	assert.Contains(t, joined, "step_globs[0]")
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yml"))
	require.Error(t, err)
}

func TestValidateRootMustExist(t *testing.T) {
	cfg := Default()
	cfg.Root = filepath.Join(t.TempDir(), "gone")
	err := Validate(&cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "root:")
}

func TestNormalizeRelativeRoot(t *testing.T) {
	base := t.TempDir()
	cfg := Config{Root: "app"}
	require.NoError(t, Normalize(&cfg, base))
	assert.Equal(t, filepath.Join(base, "app"), cfg.Root)
	assert.Equal(t, ModeSelective, cfg.Mode)
	assert.Equal(t, 1, cfg.Version)
	assert.NotEmpty(t, cfg.StepGlobs)
}

func TestScaffoldRoundTrip(t *testing.T) {
	root := t.TempDir()
	path := ConfigPath(root)
	require.NoError(t, Scaffold(path))
	require.Error(t, Scaffold(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "max_age: 24h0m0s")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 24*time.Hour, cfg.Cache.MaxAge)
	assert.Equal(t, Default().StepGlobs, cfg.StepGlobs)
}

func TestFindConfigPathWalksUp(t *testing.T) {
	root := t.TempDir()
	path := writeConfig(t, root, "version: 1\n")
	nested := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0o755))

	found, err := FindConfigPath(nested)
	require.NoError(t, err)
	assert.Equal(t, path, found)
	assert.Equal(t, root, RepoRootFromConfigPath(found))
}
