// Package producer is the insert side used by hook scripts and the send
// command. A producer never fails its caller's process: every outcome is
// reported as a Result.
package producer

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/caarlos0/env/v11"

	"agentoast/internal/notification"
)

// Env is the terminal context a producer inherits from the agent's shell.
type Env struct {
	TmuxPane   string `env:"TMUX_PANE"`
	TerminalID string `env:"__CFBundleIdentifier"`
}

func LoadEnv() (Env, error) {
	var e Env
	if err := env.Parse(&e); err != nil {
		return Env{}, fmt.Errorf("parsing producer environment: %w", err)
	}
	return e, nil
}

// Options are the raw producer arguments.
type Options struct {
	Badge      string
	Body       string
	BadgeColor string
	Icon       string
	Group      string
	Channel    string
	TerminalID string
	Focus      bool
	// Meta holds KEY=VALUE entries.
	Meta []string
	// Dir is where the repository is detected when Group is empty.
	Dir string
}

// Result is printed as JSON for hook scripts.
type Result struct {
	Success  bool     `json:"success"`
	ID       int64    `json:"id,omitempty"`
	Error    string   `json:"error,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
}

func (r Result) JSON() string {
	b, err := json.Marshal(r)
	if err != nil {
		return `{"success":false,"error":"encoding result"}`
	}
	return string(b)
}

// Inserter is the store's insert contract.
type Inserter interface {
	Insert(ctx context.Context, in notification.Input) (int64, error)
}

// Prepare validates opts and fills channel, terminal, group and branch from
// the environment and the git checkout. Invalid metadata entries become
// warnings; only an invalid enum is an error.
func Prepare(ctx context.Context, opts Options, e Env, git Git) (notification.Input, []string, error) {
	color, err := notification.ParseBadgeColor(opts.BadgeColor)
	if err != nil {
		return notification.Input{}, nil, err
	}
	icon, err := notification.ParseIcon(opts.Icon)
	if err != nil {
		return notification.Input{}, nil, err
	}

	var warns []string
	meta, mw := notification.ParseMetadata(opts.Meta)
	for _, w := range mw {
		warns = append(warns, w.String())
	}

	in := notification.Input{
		Badge:      opts.Badge,
		Body:       opts.Body,
		BadgeColor: color,
		Icon:       icon,
		Metadata:   meta,
		GroupKey:   strings.TrimSpace(opts.Group),
		Channel:    firstNonEmpty(opts.Channel, e.TmuxPane),
		TerminalID: firstNonEmpty(opts.TerminalID, e.TerminalID),
		ForceFocus: opts.Focus,
	}

	if git != nil {
		info, err := git.Info(ctx, opts.Dir)
		switch {
		case err != nil && in.GroupKey == "":
			warns = append(warns, fmt.Sprintf("could not detect repository (%v); group left empty", err))
		case err == nil:
			if in.GroupKey == "" {
				in.GroupKey = info.Repo
			}
			if _, set := in.Metadata["branch"]; !set && info.Branch != "" {
				in.Metadata["branch"] = info.Branch
			}
		}
	}
	return in, warns, nil
}

// Send inserts in and reports the outcome.
func Send(ctx context.Context, ins Inserter, in notification.Input) Result {
	id, err := ins.Insert(ctx, in)
	if err != nil {
		return Result{Error: err.Error()}
	}
	return Result{Success: true, ID: id}
}

func firstNonEmpty(vs ...string) string {
	for _, v := range vs {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
