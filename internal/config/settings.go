package config

import (
	"context"
	"fmt"
	"net"
	"path/filepath"
	"strings"
	"time"

	logx "agentoast/pkg/logx"
)

const (
	DefaultBusyTimeout  = 5 * time.Second
	DefaultDebounce     = 200 * time.Millisecond
	DefaultPollInterval = 5 * time.Second
	DefaultToast        = 4 * time.Second
	DefaultGroupLimit   = 3
	DefaultLogMaxBytes  = 5 << 20
	DefaultDebugAddr    = "127.0.0.1:7391"
	DefaultEditor       = "vim"

	// The poll is scheduled with cron, which has one-second resolution.
	minPollInterval = time.Second
)

// Settings is a Config with defaults applied, durations parsed and the
// environment overrides folded in.
type Settings struct {
	DBPath       string
	BusyTimeout  time.Duration
	ResetOnStart bool

	Debounce     time.Duration
	PollInterval time.Duration

	ToastDuration time.Duration
	Persistent    bool

	Muted       bool
	MutedGroups []string
	GroupLimit  int

	Log logx.Config

	// DebugAddr is empty when the debug server is disabled.
	DebugAddr string

	Editor string
}

// Resolve validates cfg and produces Settings. A nil cfg means all defaults.
func Resolve(cfg *Config, e Env) (Settings, error) {
	if cfg == nil {
		cfg = &Config{}
	}
	var (
		s   Settings
		err error
	)
	s.DBPath = e.DBFile(cfg.Store.Path)
	if s.BusyTimeout, err = ParseDurationOrDefault("store.busy_timeout", cfg.Store.BusyTimeout, DefaultBusyTimeout); err != nil {
		return Settings{}, err
	}
	s.ResetOnStart = true
	if cfg.Store.ResetOnStart != nil {
		s.ResetOnStart = *cfg.Store.ResetOnStart
	}

	if s.Debounce, err = ParseDurationOrDefault("watcher.debounce", cfg.Watcher.Debounce, DefaultDebounce); err != nil {
		return Settings{}, err
	}
	if s.PollInterval, err = ParseDurationOrDefault("watcher.poll_interval", cfg.Watcher.PollInterval, DefaultPollInterval); err != nil {
		return Settings{}, err
	}
	if s.PollInterval < minPollInterval {
		return Settings{}, fmt.Errorf("watcher.poll_interval: must be at least %s", minPollInterval)
	}

	if s.ToastDuration, err = ParseDurationOrDefault("toast.duration", cfg.Toast.Duration, DefaultToast); err != nil {
		return Settings{}, err
	}
	s.Persistent = cfg.Toast.Persistent

	s.Muted = cfg.Panel.Muted
	for _, g := range cfg.Panel.MutedGroups {
		if g = strings.TrimSpace(g); g != "" {
			s.MutedGroups = append(s.MutedGroups, g)
		}
	}
	s.GroupLimit = cfg.Panel.GroupLimit
	if s.GroupLimit < 0 {
		return Settings{}, fmt.Errorf("panel.group_limit: must be >= 0")
	}
	if s.GroupLimit == 0 {
		s.GroupLimit = DefaultGroupLimit
	}

	s.Log, err = resolveLogging(cfg.Logging, e)
	if err != nil {
		return Settings{}, err
	}
	if cfg.Debug.Enabled {
		if s.DebugAddr, err = resolveDebugAddr(cfg.Debug.Addr); err != nil {
			return Settings{}, err
		}
	}
	s.Editor = resolveEditor(cfg.Editor, e)
	return s, nil
}

func resolveEditor(configured string, e Env) string {
	if v := strings.TrimSpace(configured); v != "" {
		return v
	}
	if v := strings.TrimSpace(e.Editor); v != "" {
		return v
	}
	return DefaultEditor
}

func resolveLogging(lc LoggingConfig, e Env) (logx.Config, error) {
	level := strings.ToLower(strings.TrimSpace(lc.Level))
	if v := strings.TrimSpace(e.LogLevel); v != "" {
		level = strings.ToLower(v)
	}
	switch level {
	case "":
		level = "info"
	case "trace", "debug", "info", "warn", "warning", "error":
	default:
		return logx.Config{}, fmt.Errorf("logging.level: unknown level %q", level)
	}

	out := logx.Config{Level: level, Console: true}
	if lc.Console != nil {
		out.Console = *lc.Console
	}
	if lc.File.Enabled {
		path := strings.TrimSpace(lc.File.Path)
		if path == "" {
			path = filepath.Join(e.DataDir(), "agentoast.log")
		}
		if lc.File.MaxBytes < 0 {
			return logx.Config{}, fmt.Errorf("logging.file.max_bytes: must be >= 0")
		}
		max := lc.File.MaxBytes
		if max == 0 {
			max = DefaultLogMaxBytes
		}
		out.File = logx.FileConfig{Enabled: true, Path: e.expand(path), MaxBytes: max}
	}
	return out, nil
}

// resolveDebugAddr only accepts loopback hosts; the debug server has no auth.
func resolveDebugAddr(addr string) (string, error) {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return DefaultDebugAddr, nil
	}
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return "", fmt.Errorf("debug.addr: %w", err)
	}
	if host == "localhost" {
		return addr, nil
	}
	ip := net.ParseIP(host)
	if ip == nil || !ip.IsLoopback() {
		return "", fmt.Errorf("debug.addr: host %q is not a loopback address", host)
	}
	return addr, nil
}

// Validator returns a ConfigManager validation hook that rejects any config
// Resolve would reject.
func Validator(e Env) func(ctx context.Context, cfg *Config) error {
	return func(_ context.Context, cfg *Config) error {
		_, err := Resolve(cfg, e)
		return err
	}
}
