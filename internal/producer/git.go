package producer

import (
	"context"
	"errors"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

var ErrNotRepository = errors.New("not a git repository")

type GitInfo struct {
	Repo   string
	Branch string
}

// Git resolves repository details for a directory.
type Git interface {
	Info(ctx context.Context, dir string) (GitInfo, error)
}

// ExecGit shells out to the git binary.
type ExecGit struct{}

func (ExecGit) Info(ctx context.Context, dir string) (GitInfo, error) {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	top, err := gitOutput(ctx, dir, "rev-parse", "--show-toplevel")
	if err != nil || top == "" {
		return GitInfo{}, ErrNotRepository
	}
	info := GitInfo{Repo: filepath.Base(top)}
	// A detached HEAD reports "HEAD"; leave the branch empty then.
	if b, err := gitOutput(ctx, dir, "rev-parse", "--abbrev-ref", "HEAD"); err == nil && b != "HEAD" {
		info.Branch = b
	}
	return info, nil
}

func gitOutput(ctx context.Context, dir string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = dir
	out, err := cmd.Output()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}
