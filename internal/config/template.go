package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// DefaultTemplate is written by EnsureFile. Every setting is commented out so
// the defaults apply until the user edits it.
const DefaultTemplate = `# agentoast configuration
# Changes to toast, panel and logging apply without a restart.

# store:
#   path: ~/.local/share/agentoast/notifications.db
#   busy_timeout: 5s
#   # Start every daemon session with an empty store.
#   reset_on_start: true

# watcher:
#   debounce: 200ms
#   poll_interval: 5s

# toast:
#   duration: 4s
#   # Keep each toast until it is dismissed.
#   persistent: false

# panel:
#   muted: false
#   muted_groups: []
#   # Maximum notifications per group in grouped list views.
#   group_limit: 3

# logging:
#   level: info
#   console: true
#   file:
#     enabled: false
#     path: ~/.local/share/agentoast/agentoast.log

# Editor for ` + "`agentoast config`" + `. Falls back to $EDITOR, then vim.
# editor: vim

# debug:
#   # Serve pprof and /status on a loopback address.
#   enabled: false
#   addr: 127.0.0.1:7391
`

// EnsureFile writes DefaultTemplate to path when nothing exists there.
// It reports whether the file was created.
func EnsureFile(path string) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		return false, nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return false, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return false, fmt.Errorf("creating config dir: %w", err)
	}
	if err := os.WriteFile(path, []byte(DefaultTemplate), 0o644); err != nil {
		return false, fmt.Errorf("writing default config: %w", err)
	}
	return true, nil
}
