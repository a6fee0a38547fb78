package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	logx "agentoast/pkg/logx"
)

func writeFile(t *testing.T, path, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
}

func TestParseYAMLStrict(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	writeFile(t, path, `
toast:
  duration: 6s
  persistent: true
panel:
  muted_groups: [agentoast]
`)
	cfg, err := NewConfigManager(path).Parse()
	require.NoError(t, err)
	assert.Equal(t, "6s", cfg.Toast.Duration)
	assert.True(t, cfg.Toast.Persistent)
	assert.Equal(t, []string{"agentoast"}, cfg.Panel.MutedGroups)

	writeFile(t, path, "toast:\n  colour: red\n")
	_, err = NewConfigManager(path).Parse()
	require.Error(t, err, "unknown fields are rejected")
}

func TestParseJSONRejectsTrailingData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	writeFile(t, path, `{"toast":{"duration":"1s"}} {}`)
	_, err := NewConfigManager(path).Parse()
	require.Error(t, err)
}

func TestDefaultTemplateDecodesToDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "agentoast", "config.yaml")
	created, err := EnsureFile(path)
	require.NoError(t, err)
	assert.True(t, created)

	created, err = EnsureFile(path)
	require.NoError(t, err)
	assert.False(t, created)

	m := NewConfigManager(path)
	cfg, err := m.Load()
	require.NoError(t, err)
	assert.Equal(t, &Config{}, cfg)
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	m := NewConfigManager(filepath.Join(t.TempDir(), "nope.yaml"))
	cfg, err := m.Load()
	require.NoError(t, err)
	assert.NotNil(t, m.Get())
	assert.Equal(t, &Config{}, cfg)
}

func TestResolveDefaults(t *testing.T) {
	e, err := LoadEnvFrom(map[string]string{"HOME": "/home/u"})
	require.NoError(t, err)

	s, err := Resolve(nil, e)
	require.NoError(t, err)
	assert.Equal(t, "/home/u/.local/share/agentoast/notifications.db", s.DBPath)
	assert.Equal(t, DefaultBusyTimeout, s.BusyTimeout)
	assert.True(t, s.ResetOnStart)
	assert.Equal(t, 200*time.Millisecond, s.Debounce)
	assert.Equal(t, 5*time.Second, s.PollInterval)
	assert.Equal(t, 4*time.Second, s.ToastDuration)
	assert.Equal(t, DefaultGroupLimit, s.GroupLimit)
	assert.Equal(t, "info", s.Log.Level)
	assert.True(t, s.Log.Console)
	assert.Equal(t, "/home/u/.config/agentoast/config.yaml", e.ConfigFile())
}

func TestResolveEnvOverrides(t *testing.T) {
	e, err := LoadEnvFrom(map[string]string{
		"HOME":                "/home/u",
		"XDG_DATA_HOME":       "/data",
		"AGENTOAST_DB":        "~/x.db",
		"AGENTOAST_LOG_LEVEL": "DEBUG",
	})
	require.NoError(t, err)

	reset := false
	cfg := &Config{
		Store:   StoreConfig{Path: "/ignored.db", ResetOnStart: &reset},
		Logging: LoggingConfig{Level: "warn", File: LoggingFile{Enabled: true}},
	}
	s, err := Resolve(cfg, e)
	require.NoError(t, err)
	assert.Equal(t, "/home/u/x.db", s.DBPath)
	assert.False(t, s.ResetOnStart)
	assert.Equal(t, "debug", s.Log.Level)
	assert.Equal(t, "/data/agentoast/agentoast.log", s.Log.File.Path)
	assert.EqualValues(t, DefaultLogMaxBytes, s.Log.File.MaxBytes)
}

func TestResolveRejectsInvalid(t *testing.T) {
	e := Env{Home: "/h"}
	tests := []struct {
		name string
		cfg  Config
	}{
		{name: "bad duration", cfg: Config{Toast: ToastConfig{Duration: "soon"}}},
		{name: "negative duration", cfg: Config{Watcher: WatcherConfig{Debounce: "-1s"}}},
		{name: "poll below cron resolution", cfg: Config{Watcher: WatcherConfig{PollInterval: "500ms"}}},
		{name: "negative group limit", cfg: Config{Panel: PanelConfig{GroupLimit: -1}}},
		{name: "unknown level", cfg: Config{Logging: LoggingConfig{Level: "loud"}}},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			_, err := Resolve(&tt.cfg, e)
			require.Error(t, err)
			assert.Error(t, Validator(e)(context.Background(), &tt.cfg))
		})
	}
}

func TestSummarizeConfigChange(t *testing.T) {
	old := &Config{Toast: ToastConfig{Duration: "4s"}}
	next := &Config{Toast: ToastConfig{Duration: "8s"}, Panel: PanelConfig{Muted: true}}
	sections, fields := SummarizeConfigChange(old, next)
	assert.Equal(t, []string{"toast", "panel"}, sections)
	assert.NotEmpty(t, fields)

	sections, _ = SummarizeConfigChange(next, next)
	assert.Empty(t, sections)
}

func TestWatchPublishesValidChanges(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeFile(t, path, "toast:\n  duration: 4s\n")

	m := NewConfigManager(path)
	m.SetLogger(logx.Nop())
	m.SetValidator(Validator(Env{Home: t.TempDir()}))
	_, err := m.Load()
	require.NoError(t, err)

	ch := m.Subscribe(1)
	defer m.Unsubscribe(ch)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = m.Watch(ctx)
	}()
	time.Sleep(100 * time.Millisecond)

	writeFile(t, path, "toast:\n  duration: soon\n")
	time.Sleep(600 * time.Millisecond)
	assert.Len(t, ch, 0, "invalid config is not published")
	assert.Equal(t, "4s", m.Get().Toast.Duration)

	writeFile(t, path, "toast:\n  duration: 9s\n")
	select {
	case cfg := <-ch:
		assert.Equal(t, "9s", cfg.Toast.Duration)
	case <-time.After(5 * time.Second):
		t.Fatal("config change was not published")
	}
	assert.Equal(t, "9s", m.Get().Toast.Duration)

	cancel()
	<-done
}

func TestResolveDebugAddr(t *testing.T) {
	e := Env{Home: "/h"}

	s, err := Resolve(&Config{}, e)
	require.NoError(t, err)
	assert.Empty(t, s.DebugAddr, "disabled by default")

	s, err = Resolve(&Config{Debug: DebugConfig{Enabled: true}}, e)
	require.NoError(t, err)
	assert.Equal(t, DefaultDebugAddr, s.DebugAddr)

	s, err = Resolve(&Config{Debug: DebugConfig{Enabled: true, Addr: "localhost:9000"}}, e)
	require.NoError(t, err)
	assert.Equal(t, "localhost:9000", s.DebugAddr)

	_, err = Resolve(&Config{Debug: DebugConfig{Enabled: true, Addr: "0.0.0.0:9000"}}, e)
	assert.Error(t, err)
}

func TestResolveEditor(t *testing.T) {
	tests := []struct {
		name string
		cfg  string
		env  map[string]string
		want string
	}{
		{name: "config wins", cfg: "code -w", env: map[string]string{"EDITOR": "nano"}, want: "code -w"},
		{name: "falls back to EDITOR", cfg: "  ", env: map[string]string{"EDITOR": "nano"}, want: "nano"},
		{name: "default", env: map[string]string{}, want: DefaultEditor},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			e, err := LoadEnvFrom(tt.env)
			require.NoError(t, err)
			s, err := Resolve(&Config{Editor: tt.cfg}, e)
			require.NoError(t, err)
			assert.Equal(t, tt.want, s.Editor)
		})
	}
}
