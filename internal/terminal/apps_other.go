//go:build !darwin

package terminal

import "context"

type noApps struct{}

func platformApps(Runner) Apps { return noApps{} }

func (noApps) Activate(context.Context, string) error    { return ErrUnsupported }
func (noApps) Frontmost(context.Context) (string, error) { return "", ErrUnsupported }
