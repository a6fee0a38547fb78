// Package terminal performs the best-effort terminal side effects: switching
// tmux panes, raising the terminal application and checking whether a
// notification's surface is already in front of the user.
package terminal

import (
	"context"
	"errors"
	"fmt"
	"time"

	logx "agentoast/pkg/logx"
)

// ErrUnsupported is returned by application control on platforms without it.
var ErrUnsupported = errors.New("application control not supported on this platform")

// knownTerminals are tried in order when a notification names no terminal.
var knownTerminals = []string{
	"com.github.wez.wezterm",
	"com.mitchellh.ghostty",
	"com.googlecode.iterm2",
	"com.apple.Terminal",
	"org.alacritty",
	"net.kovidgoyal.kitty",
}

const defaultTimeout = 2 * time.Second

type CommandError struct {
	Cmd string
	Err error
}

func (e *CommandError) Error() string { return fmt.Sprintf("%s: %v", e.Cmd, e.Err) }
func (e *CommandError) Unwrap() error { return e.Err }

// Apps raises and inspects desktop applications by identifier.
type Apps interface {
	Activate(ctx context.Context, id string) error
	Frontmost(ctx context.Context) (string, error)
}

// Terminal implements both the focus side effect and the surface visibility check.
type Terminal struct {
	tmux    *Tmux
	apps    Apps
	log     logx.Logger
	timeout time.Duration
}

type Option func(*Terminal)

func WithTmux(t *Tmux) Option            { return func(x *Terminal) { x.tmux = t } }
func WithApps(a Apps) Option             { return func(x *Terminal) { x.apps = a } }
func WithTimeout(d time.Duration) Option { return func(x *Terminal) { x.timeout = d } }

// New locates tmux and the platform application controller.
func New(log logx.Logger, opts ...Option) *Terminal {
	if log.IsZero() {
		log = logx.Nop()
	}
	t := &Terminal{log: log.With(logx.String("comp", "terminal")), timeout: defaultTimeout}
	for _, o := range opts {
		o(t)
	}
	if t.tmux == nil {
		path, err := FindTmux()
		if err != nil {
			t.log.Debug("tmux unavailable; pane switching disabled", logx.Err(err))
		}
		t.tmux = NewTmux(path, nil)
	}
	if t.apps == nil {
		t.apps = platformApps(ExecRunner)
	}
	return t
}

// Focus switches to channel (a tmux pane) and raises terminalID, or the
// first known terminal when terminalID is empty. A failed pane switch is
// logged and does not stop the application raise.
func (t *Terminal) Focus(ctx context.Context, channel, terminalID string) error {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	if channel != "" {
		if err := t.tmux.SwitchPane(ctx, channel); err != nil {
			t.log.Debug("pane switch failed", logx.String("pane", channel), logx.Err(err))
		}
	}

	if terminalID != "" {
		return t.activate(ctx, terminalID)
	}
	var last error
	for _, id := range knownTerminals {
		if last = t.activate(ctx, id); last == nil {
			return nil
		}
		if errors.Is(last, ErrUnsupported) {
			return nil
		}
	}
	return fmt.Errorf("no known terminal application found: %w", last)
}

func (t *Terminal) activate(ctx context.Context, id string) error {
	err := t.apps.Activate(ctx, id)
	if errors.Is(err, ErrUnsupported) {
		// The pane switch is the whole focus action here.
		return nil
	}
	return err
}

// IsVisible reports whether the user is looking at channel inside terminalID.
// The application check runs first and short-circuits the tmux query. Where
// the platform cannot report the frontmost application, the terminal is
// assumed frontmost.
func (t *Terminal) IsVisible(ctx context.Context, terminalID, channel string) bool {
	if terminalID == "" || channel == "" {
		return false
	}
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	front, err := t.apps.Frontmost(ctx)
	switch {
	case errors.Is(err, ErrUnsupported):
	case err != nil:
		t.log.Debug("frontmost application check failed", logx.Err(err))
		return false
	case front != terminalID:
		return false
	}
	return t.tmux.PaneActive(ctx, channel)
}
