package vcs

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stepload/internal/testutil"
)

func TestRepoRootAndRevision(t *testing.T) {
	ctx := testutil.Context(t, 0)
	root := filepath.Join(t.TempDir(), "repo")
	subdir := filepath.Join(root, "test", "steps")

	fake := &fakeGitRunner{responses: map[string]string{
		"rev-parse --show-toplevel":   root,
		"rev-parse HEAD":              "commit-3",
		"rev-parse --abbrev-ref HEAD": "main",
		"status --porcelain":          "",
	}}
	client := NewClient(fake)

	actualRoot, err := client.RepoRoot(ctx, subdir)
	require.NoError(t, err)
	assert.Equal(t, root, actualRoot)

	rev, err := client.Revision(ctx, subdir)
	require.NoError(t, err)
	assert.Equal(t, Revision{Root: root, Commit: "commit-3", Branch: "main"}, rev)

	fake.responses["status --porcelain"] = " M test/steps/login.steps.ts"
	rev, err = client.Revision(ctx, subdir)
	require.NoError(t, err)
	assert.True(t, rev.Dirty)
}

func TestRevisionOutsideRepository(t *testing.T) {
	client := NewClient(&fakeGitRunner{err: errors.New("not a git repository")})
	_, err := client.Revision(context.Background(), t.TempDir())
	assert.Error(t, err)
}

// fakeGitRunner returns canned outputs for git commands in tests.
type fakeGitRunner struct {
	responses map[string]string
	err       error
}

// Run satisfies gitRunner for test doubles.
func (f *fakeGitRunner) Run(_ context.Context, _ string, args ...string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	key := strings.Join(args, " ")
	if value, ok := f.responses[key]; ok {
		return value, nil
	}
	return "", fmt.Errorf("unexpected git args: %s", key)
}
