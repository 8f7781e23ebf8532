// Package vcs reads git state for the project a run belongs to.
package vcs

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// Revision identifies the checked-out state of a repository.
type Revision struct {
	Root   string
	Commit string
	Branch string
	Dirty  bool
}

// gitRunner executes git commands.
type gitRunner interface {
	Run(ctx context.Context, dir string, args ...string) (string, error)
}

// execGitRunner invokes git via the system binary.
type execGitRunner struct{}

// Run executes a git command and returns trimmed stdout.
func (execGitRunner) Run(ctx context.Context, dir string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = dir
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = "no stderr"
		}
		return "", fmt.Errorf("git %s: %w (%s)", strings.Join(args, " "), err, msg)
	}
	return strings.TrimSpace(stdout.String()), nil
}

// Client runs git queries. The zero value shells out to git.
type Client struct {
	runner gitRunner
}

// NewClient constructs a client with an optional runner override.
func NewClient(runner gitRunner) Client {
	return Client{runner: runner}
}

func (c Client) git() gitRunner {
	if c.runner == nil {
		return execGitRunner{}
	}
	return c.runner
}

// RepoRoot returns the top-level directory of the repository containing
// startDir, or the working directory when startDir is empty.
func (c Client) RepoRoot(ctx context.Context, startDir string) (string, error) {
	dir := strings.TrimSpace(startDir)
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("get working directory: %w", err)
		}
		dir = wd
	}
	root, err := c.git().Run(ctx, dir, "rev-parse", "--show-toplevel")
	if err != nil {
		return "", fmt.Errorf("discover git root: %w", err)
	}
	return root, nil
}

// Revision reads the commit, branch and dirty flag of the repository
// containing dir.
func (c Client) Revision(ctx context.Context, dir string) (Revision, error) {
	root, err := c.RepoRoot(ctx, dir)
	if err != nil {
		return Revision{}, err
	}
	git := c.git()
	commit, err := git.Run(ctx, root, "rev-parse", "HEAD")
	if err != nil {
		return Revision{}, fmt.Errorf("resolve HEAD: %w", err)
	}
	branch, err := git.Run(ctx, root, "rev-parse", "--abbrev-ref", "HEAD")
	if err != nil {
		return Revision{}, fmt.Errorf("resolve branch: %w", err)
	}
	status, err := git.Run(ctx, root, "status", "--porcelain")
	if err != nil {
		return Revision{}, fmt.Errorf("check dirty state: %w", err)
	}
	return Revision{
		Root:   root,
		Commit: commit,
		Branch: branch,
		Dirty:  strings.TrimSpace(status) != "",
	}, nil
}
