package terminal

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"strings"
)

var ErrTmuxNotFound = errors.New("tmux not found")

// tmuxCandidates are checked after PATH; launchd-started daemons often run
// with a minimal PATH.
var tmuxCandidates = []string{
	"/opt/homebrew/bin/tmux",
	"/usr/local/bin/tmux",
	"/usr/bin/tmux",
}

// Runner runs an external command and returns its stdout.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

type execRunner struct{}

// Run drops TMPDIR from the environment: tmux derives its socket path from it,
// and a daemon's TMPDIR can differ from the user's shell.
func (execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	env := os.Environ()
	out := env[:0]
	for _, kv := range env {
		if !strings.HasPrefix(kv, "TMPDIR=") {
			out = append(out, kv)
		}
	}
	cmd.Env = out
	return cmd.Output()
}

// ExecRunner runs real processes.
var ExecRunner Runner = execRunner{}

// FindTmux locates the tmux binary.
func FindTmux() (string, error) {
	if p, err := exec.LookPath("tmux"); err == nil {
		return p, nil
	}
	for _, p := range tmuxCandidates {
		if fi, err := os.Stat(p); err == nil && !fi.IsDir() {
			return p, nil
		}
	}
	return "", ErrTmuxNotFound
}

type Tmux struct {
	path string
	run  Runner
}

func NewTmux(path string, run Runner) *Tmux {
	if run == nil {
		run = ExecRunner
	}
	return &Tmux{path: path, run: run}
}

// SwitchPane makes pane the visible pane of the attached client.
func (t *Tmux) SwitchPane(ctx context.Context, pane string) error {
	if t == nil || t.path == "" {
		return ErrTmuxNotFound
	}
	for _, args := range [][]string{
		{"switch-client", "-t", pane},
		{"select-window", "-t", pane},
		{"select-pane", "-t", pane},
	} {
		if _, err := t.run.Run(ctx, t.path, args...); err != nil {
			return &CommandError{Cmd: "tmux " + args[0], Err: err}
		}
	}
	return nil
}

// PaneActive reports whether pane is the active pane of the active window of
// an attached session.
func (t *Tmux) PaneActive(ctx context.Context, pane string) bool {
	if t == nil || t.path == "" || pane == "" {
		return false
	}
	out, err := t.run.Run(ctx, t.path, "display-message", "-t", pane, "-p",
		"#{pane_active} #{window_active} #{session_attached}")
	if err != nil {
		return false
	}
	return strings.TrimSpace(string(out)) == "1 1 1"
}
