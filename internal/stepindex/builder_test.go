package stepindex

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stepload/internal/pattern"
	"stepload/internal/testutil"
)

type countingExtractor struct {
	calls atomic.Int32
}

func (c *countingExtractor) Extract(content []byte) []pattern.Declared {
	c.calls.Add(1)
	return pattern.RegexExtractor{}.Extract(content)
}

func writeFile(t *testing.T, root, rel, body string) string {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func seedProject(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	writeFile(t, root, "test/app/steps/login.steps.ts", `
@Given("I navigate to the login page")
@When("I enter {string} into {word} field")
`)
	writeFile(t, root, "src/steps/common/interaction.steps.ts", `
@When("I click {string} button")
@When("I enter {string} into {word} field")
`)
	writeFile(t, root, "test/node_modules/steps/vendor.steps.js", `@Given("ignored vendored step")`)
	writeFile(t, root, "src/steps/types.d.ts", `@Given("ignored declaration step")`)
	writeFile(t, root, "src/steps/dist/old.js", `@Given("ignored build output")`)
	writeFile(t, root, "features/steps/cart_steps.go", "ctx.Step(`^I add (\\d+) items$`, addItems)")
	return root
}

func newBuilder(root string, clock Clock, extractor pattern.Extractor) *Builder {
	return &Builder{Root: root, Clock: clock, Extractor: extractor, Concurrency: 2}
}

func TestDiscoverAppliesGlobsAndExclusions(t *testing.T) {
	root := seedProject(t)
	b := newBuilder(root, nil, nil)

	files, err := b.Discover()
	require.NoError(t, err)

	want := []string{
		filepath.Join(root, "features", "steps", "cart_steps.go"),
		filepath.Join(root, "src", "steps", "common", "interaction.steps.ts"),
		filepath.Join(root, "test", "app", "steps", "login.steps.ts"),
	}
	assert.Equal(t, want, files)
}

func TestBuildScansAndWritesCache(t *testing.T) {
	root := seedProject(t)
	clock := testutil.NewFakeClock(time.Now())
	extractor := &countingExtractor{}
	b := newBuilder(root, clock, extractor)

	idx, info, err := b.Build(testutil.Context(t, 0))
	require.NoError(t, err)
	assert.False(t, info.FromCache)
	assert.Equal(t, 3, info.FilesScanned)
	assert.Equal(t, int32(3), extractor.calls.Load())
	assert.Equal(t, 4, idx.Len())

	files, ok := idx.Lookup("I enter {string} into {word} field")
	require.True(t, ok)
	assert.Len(t, files, 2)

	data, err := os.ReadFile(b.CachePath())
	require.NoError(t, err)
	var tuples [][]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &tuples))
	require.Len(t, tuples, 4)
	for _, tuple := range tuples {
		assert.Len(t, tuple, 2)
	}
	assert.Equal(t, filepath.Join(root, DefaultCacheDir, CacheFileName), b.CachePath())
}

func TestBuildUsesFreshCacheWithoutScanning(t *testing.T) {
	root := seedProject(t)
	now := time.Now()
	clock := testutil.NewFakeClock(now)

	cachePath := filepath.Join(root, DefaultCacheDir, CacheFileName)
	require.NoError(t, os.MkdirAll(filepath.Dir(cachePath), 0o755))
	require.NoError(t, os.WriteFile(cachePath, []byte(`[["cached only pattern",["/cached.ts"]]]`), 0o644))
	require.NoError(t, os.Chtimes(cachePath, now.Add(-time.Hour), now.Add(-time.Hour)))

	extractor := &countingExtractor{}
	idx, info, err := newBuilder(root, clock, extractor).Build(context.Background())
	require.NoError(t, err)
	assert.True(t, info.FromCache)
	assert.Equal(t, int32(0), extractor.calls.Load())
	assert.Equal(t, map[string][]string{"cached only pattern": {"/cached.ts"}}, idx.Patterns())
}

func TestBuildIgnoresStaleCache(t *testing.T) {
	root := seedProject(t)
	now := time.Now()
	clock := testutil.NewFakeClock(now)

	cachePath := filepath.Join(root, DefaultCacheDir, CacheFileName)
	require.NoError(t, os.MkdirAll(filepath.Dir(cachePath), 0o755))
	require.NoError(t, os.WriteFile(cachePath, []byte(`[["cached only pattern",["/cached.ts"]]]`), 0o644))
	require.NoError(t, os.Chtimes(cachePath, now.Add(-25*time.Hour), now.Add(-25*time.Hour)))

	extractor := &countingExtractor{}
	idx, info, err := newBuilder(root, clock, extractor).Build(context.Background())
	require.NoError(t, err)
	assert.False(t, info.FromCache)
	assert.Equal(t, int32(3), extractor.calls.Load())
	_, ok := idx.Lookup("cached only pattern")
	assert.False(t, ok)

	// The rebuild overwrote the stale cache, so a second build reuses it.
	extractor2 := &countingExtractor{}
	_, info, err = newBuilder(root, clock, extractor2).Build(context.Background())
	require.NoError(t, err)
	assert.True(t, info.FromCache)
	assert.Equal(t, int32(0), extractor2.calls.Load())
}

func TestBuildRebuildsCorruptCache(t *testing.T) {
	root := seedProject(t)
	cachePath := filepath.Join(root, DefaultCacheDir, CacheFileName)
	require.NoError(t, os.MkdirAll(filepath.Dir(cachePath), 0o755))
	require.NoError(t, os.WriteFile(cachePath, []byte(`{not json`), 0o644))

	idx, info, err := newBuilder(root, nil, nil).Build(context.Background())
	require.NoError(t, err)
	assert.False(t, info.FromCache)
	assert.Equal(t, 4, idx.Len())
}

func TestBuildSurvivesUnwritableCache(t *testing.T) {
	root := seedProject(t)
	// A regular file where the cache directory should be makes saving fail.
	writeFile(t, root, "blocker", "x")
	b := newBuilder(root, nil, nil)
	b.CacheDir = filepath.Join(root, "blocker")

	idx, _, err := b.Build(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, idx.Len())
}

func TestBuildDisabledCache(t *testing.T) {
	root := seedProject(t)
	b := newBuilder(root, nil, nil)
	b.DisableCache = true

	_, _, err := b.Build(context.Background())
	require.NoError(t, err)
	_, err = os.Stat(b.CachePath())
	assert.True(t, os.IsNotExist(err))
}

func TestBuildHonoursCancellation(t *testing.T) {
	root := seedProject(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	b := newBuilder(root, nil, nil)
	b.DisableCache = true

	_, _, err := b.Build(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestClearCache(t *testing.T) {
	root := t.TempDir()
	path := writeFile(t, root, "cache.json", "[]")
	require.NoError(t, ClearCache(path))
	require.NoError(t, ClearCache(path))
	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestMatches(t *testing.T) {
	b := &Builder{}
	assert.True(t, b.Matches("test/e2e/steps/a/b.steps.ts"))
	assert.True(t, b.Matches("src/steps/login.js"))
	assert.False(t, b.Matches("src/steps/login.d.ts"))
	assert.False(t, b.Matches("test/node_modules/steps/x.js"))
	assert.False(t, b.Matches("docs/readme.md"))
}
