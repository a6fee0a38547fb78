package app

import (
	"agentoast/internal/storage"
	"agentoast/internal/toast"
	"agentoast/internal/watcher"
)

func mapStorageConfig(s Settings) storage.Config {
	return storage.Config{
		Path:         s.DBPath,
		BusyTimeout:  s.BusyTimeout,
		ResetOnStart: s.ResetOnStart,
	}
}

func mapWatcherConfig(s Settings) watcher.Config {
	return watcher.Config{
		DBPath:       s.DBPath,
		Debounce:     s.Debounce,
		PollInterval: s.PollInterval,
	}
}

func mapToastSettings(s Settings) toast.Settings {
	return toast.Settings{Duration: s.ToastDuration, Persistent: s.Persistent}
}
