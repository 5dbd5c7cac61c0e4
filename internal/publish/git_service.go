package publish

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// Runner executes an external command in dir and returns its combined output
type Runner interface {
	Run(ctx context.Context, dir, name string, args ...string) ([]byte, error)
}

// ExecRunner runs commands with os/exec
type ExecRunner struct{}

func (ExecRunner) Run(ctx context.Context, dir, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	return cmd.CombinedOutput()
}

// GitService handles the git operations a publish needs
type GitService interface {
	StageAll(ctx context.Context) error
	Commit(ctx context.Context, message string) error
	Push(ctx context.Context, remote, branch string) error
	HeadCommit(ctx context.Context) (string, error)
	RemoteURL(ctx context.Context, remote string) (string, error)
}

type gitService struct {
	runner Runner
	binary string
	dir    string
}

// NewGitService creates a git service operating on the repository at dir
func NewGitService(runner Runner, binary, dir string) GitService {
	if runner == nil {
		runner = ExecRunner{}
	}
	if binary == "" {
		binary = "git"
	}
	return &gitService{runner: runner, binary: binary, dir: dir}
}

// StageAll stages every working-tree change
func (g *gitService) StageAll(ctx context.Context) error {
	if output, err := g.run(ctx, "add", "."); err != nil {
		return GitError("stage", g.dir, output, err)
	}
	return nil
}

// Commit records the staged changes. The message is passed as a single argument, never through a shell.
func (g *gitService) Commit(ctx context.Context, message string) error {
	if message == "" {
		return GitError("commit", g.dir, nil, ErrEmptyCommitMessage)
	}
	if output, err := g.run(ctx, "commit", "-m", message); err != nil {
		return GitError("commit", g.dir, output, err)
	}
	return nil
}

// Push sends the local branch to remote
func (g *gitService) Push(ctx context.Context, remote, branch string) error {
	if output, err := g.run(ctx, "push", remote, branch); err != nil {
		return GitError("push", g.dir, output, err)
	}
	return nil
}

// HeadCommit returns the hash HEAD points at
func (g *gitService) HeadCommit(ctx context.Context) (string, error) {
	output, err := g.run(ctx, "rev-parse", "HEAD")
	if err != nil {
		return "", GitError("rev_parse", g.dir, output, err)
	}
	return strings.TrimSpace(string(output)), nil
}

// RemoteURL returns the fetch URL configured for remote
func (g *gitService) RemoteURL(ctx context.Context, remote string) (string, error) {
	output, err := g.run(ctx, "remote", "get-url", remote)
	if err != nil {
		return "", GitError("get_remote_url", g.dir, output, err)
	}
	url := strings.TrimSpace(string(output))
	if url == "" {
		return "", GitError("get_remote_url", g.dir, nil, fmt.Errorf("%w: %s", ErrRemoteURLNotFound, remote))
	}
	return url, nil
}

func (g *gitService) run(ctx context.Context, args ...string) ([]byte, error) {
	return g.runner.Run(ctx, g.dir, g.binary, args...)
}
