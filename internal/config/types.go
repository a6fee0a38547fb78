package config

// Config is the daemon configuration file.
//
// All durations are Go duration strings (e.g. "200ms", "5s").
// Omitted fields take the defaults listed on each section.
type Config struct {
	Store   StoreConfig   `json:"store"`
	Watcher WatcherConfig `json:"watcher"`
	Toast   ToastConfig   `json:"toast"`
	Panel   PanelConfig   `json:"panel"`
	Logging LoggingConfig `json:"logging"`
	Debug   DebugConfig   `json:"debug"`

	// Editor opens the file for `agentoast config`. Falls back to $EDITOR,
	// then vim.
	Editor string `json:"editor,omitempty"`
}

// StoreConfig controls the notification database.
//
// Defaults:
//   - path: $XDG_DATA_HOME/agentoast/notifications.db
//   - busy_timeout: "5s"
//   - reset_on_start: true (every daemon start begins an empty session)
//
// Path and ResetOnStart are read once at startup; changing them requires a restart.
type StoreConfig struct {
	Path         string `json:"path,omitempty"`
	BusyTimeout  string `json:"busy_timeout,omitempty"`
	ResetOnStart *bool  `json:"reset_on_start,omitempty"`
}

// WatcherConfig controls change detection.
//
// Defaults: debounce "200ms", poll_interval "5s".
type WatcherConfig struct {
	Debounce     string `json:"debounce,omitempty"`
	PollInterval string `json:"poll_interval,omitempty"`
}

// ToastConfig is applied live on reload.
//
// Defaults: duration "4s", persistent false.
type ToastConfig struct {
	Duration   string `json:"duration,omitempty"`
	Persistent bool   `json:"persistent,omitempty"`
}

// PanelConfig seeds presentation state.
//
// Muted and MutedGroups set the initial mute flags; toggles made at runtime
// are not written back. GroupLimit caps rows per group in grouped list views
// (default 3).
type PanelConfig struct {
	Muted       bool     `json:"muted,omitempty"`
	MutedGroups []string `json:"muted_groups,omitempty"`
	GroupLimit  int      `json:"group_limit,omitempty"`
}

type LoggingConfig struct {
	Level   string      `json:"level,omitempty"`
	Console *bool       `json:"console,omitempty"`
	File    LoggingFile `json:"file"`
}

// LoggingFile enables a file sink. A file larger than max_bytes (default 5MB)
// is moved aside to <path>.old when the sink opens.
type LoggingFile struct {
	Enabled  bool   `json:"enabled"`
	Path     string `json:"path,omitempty"`
	MaxBytes int64  `json:"max_bytes,omitempty"`
}

// DebugConfig enables a loopback-only HTTP server exposing pprof and a
// /status JSON view of the daemon. Read once at startup.
//
// Default addr: "127.0.0.1:7391".
type DebugConfig struct {
	Enabled bool   `json:"enabled"`
	Addr    string `json:"addr,omitempty"`
}
