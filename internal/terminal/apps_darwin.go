//go:build darwin

package terminal

import (
	"context"
	"fmt"
	"strings"
)

type osascriptApps struct{ run Runner }

func platformApps(run Runner) Apps { return osascriptApps{run: run} }

func (a osascriptApps) Activate(ctx context.Context, id string) error {
	script := fmt.Sprintf(`tell application id %q to activate`, id)
	if _, err := a.run.Run(ctx, "osascript", "-e", script); err != nil {
		return &CommandError{Cmd: "osascript activate " + id, Err: err}
	}
	return nil
}

func (a osascriptApps) Frontmost(ctx context.Context) (string, error) {
	const script = `tell application "System Events" to get bundle identifier of first application process whose frontmost is true`
	out, err := a.run.Run(ctx, "osascript", "-e", script)
	if err != nil {
		return "", &CommandError{Cmd: "osascript frontmost", Err: err}
	}
	return strings.TrimSpace(string(out)), nil
}
