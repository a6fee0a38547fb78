// Package systemd reports daemon lifecycle to the service manager. Outside
// systemd (no NOTIFY_SOCKET) every call is a no-op.
package systemd

import (
	"github.com/coreos/go-systemd/v22/daemon"
)

// Ready reports startup completion. sent is false when no service manager
// is listening.
func Ready() (sent bool, err error) {
	return daemon.SdNotify(false, daemon.SdNotifyReady)
}

func Stopping() (sent bool, err error) {
	return daemon.SdNotify(false, daemon.SdNotifyStopping)
}

// Status publishes a free-form status line shown by `systemctl status`.
func Status(msg string) (sent bool, err error) {
	return daemon.SdNotify(false, "STATUS="+msg)
}
