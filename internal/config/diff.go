package config

import (
	"reflect"
	"strings"

	logx "agentoast/pkg/logx"
)

// SummarizeConfigChange returns the changed top-level sections and log fields
// describing their new values.
func SummarizeConfigChange(oldCfg, newCfg *Config) ([]string, []logx.Field) {
	if oldCfg == nil {
		oldCfg = &Config{}
	}
	if newCfg == nil {
		newCfg = &Config{}
	}

	changed := make([]string, 0, 5)
	attrs := make([]logx.Field, 0, 12)

	if !reflect.DeepEqual(oldCfg.Store, newCfg.Store) {
		changed = append(changed, "store")
		attrs = append(attrs,
			logx.String("store.path", strings.TrimSpace(newCfg.Store.Path)),
			logx.String("store.busy_timeout", strings.TrimSpace(newCfg.Store.BusyTimeout)),
			logx.Bool("store.restart_required", true),
		)
	}

	if oldCfg.Watcher != newCfg.Watcher {
		changed = append(changed, "watcher")
		attrs = append(attrs,
			logx.String("watcher.debounce", strings.TrimSpace(newCfg.Watcher.Debounce)),
			logx.String("watcher.poll_interval", strings.TrimSpace(newCfg.Watcher.PollInterval)),
			logx.Bool("watcher.restart_required", true),
		)
	}

	if oldCfg.Toast != newCfg.Toast {
		changed = append(changed, "toast")
		attrs = append(attrs,
			logx.String("toast.duration", strings.TrimSpace(newCfg.Toast.Duration)),
			logx.Bool("toast.persistent", newCfg.Toast.Persistent),
		)
	}

	if !reflect.DeepEqual(oldCfg.Panel, newCfg.Panel) {
		changed = append(changed, "panel")
		attrs = append(attrs,
			logx.Bool("panel.muted", newCfg.Panel.Muted),
			logx.Int("panel.muted_groups", len(newCfg.Panel.MutedGroups)),
			logx.Int("panel.group_limit", newCfg.Panel.GroupLimit),
		)
	}

	if !reflect.DeepEqual(oldCfg.Logging, newCfg.Logging) {
		changed = append(changed, "logging")
		attrs = append(attrs,
			logx.String("logging.level", newCfg.Logging.Level),
			logx.Bool("logging.file_enabled", newCfg.Logging.File.Enabled),
		)
	}

	if oldCfg.Debug != newCfg.Debug {
		changed = append(changed, "debug")
		attrs = append(attrs,
			logx.Bool("debug.enabled", newCfg.Debug.Enabled),
			logx.String("debug.addr", strings.TrimSpace(newCfg.Debug.Addr)),
			logx.Bool("debug.restart_required", true),
		)
	}

	if strings.TrimSpace(oldCfg.Editor) != strings.TrimSpace(newCfg.Editor) {
		changed = append(changed, "editor")
		attrs = append(attrs, logx.String("editor", strings.TrimSpace(newCfg.Editor)))
	}

	return changed, attrs
}
