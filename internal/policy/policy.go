// Package policy decides how each newly detected notification is delivered.
//
// Evaluation happens at dispatch time, so a mute toggled after insert but
// before dispatch still applies. Rules in priority order:
//
//  1. the originating surface is visible and focused: delete, never deliver
//  2. muted (globally or by group): record only; force-focus is demoted to a record
//  3. otherwise toast; force-focus items are focused (last one only) and deleted
package policy

import (
	"context"

	"github.com/google/uuid"

	"agentoast/internal/notification"
	logx "agentoast/pkg/logx"
)

// SurfaceChecker reports whether the terminal surface identified by
// terminalID and channel is the one the user is currently looking at.
// Implementations return false when either is empty or the check fails.
type SurfaceChecker interface {
	IsVisible(ctx context.Context, terminalID, channel string) bool
}

// Decision is the delivery plan for one batch. Every slice keeps the batch's
// ascending id order.
type Decision struct {
	BatchID string

	// Suppressed rows are deleted and never delivered.
	Suppressed []notification.Notification
	// Records go to passive list views and stay in the store.
	Records []notification.Notification
	// Toast rows are queued for display.
	Toast []notification.Notification
	// Focus holds the unmuted force-focus rows.
	Focus []notification.Notification
	// FocusTarget is the last of Focus, or nil.
	FocusTarget *notification.Notification
	// DeleteIDs are removed after the focus side effect runs.
	DeleteIDs []int64
}

// Empty reports whether the decision delivers or deletes nothing.
func (d Decision) Empty() bool {
	return len(d.Suppressed) == 0 && len(d.Records) == 0 && len(d.Toast) == 0 && len(d.DeleteIDs) == 0
}

type Policy struct {
	mute    *MuteState
	surface SurfaceChecker
	log     logx.Logger
}

// New returns a policy. surface may be nil, which disables suppression.
func New(mute *MuteState, surface SurfaceChecker, log logx.Logger) *Policy {
	if mute == nil {
		mute = NewMuteState(false)
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Policy{mute: mute, surface: surface, log: log.With(logx.String("comp", "policy"))}
}

func (p *Policy) Mute() *MuteState { return p.mute }

func (p *Policy) Evaluate(ctx context.Context, batch []notification.Notification) Decision {
	d := Decision{BatchID: uuid.NewString()}
	if len(batch) == 0 {
		return d
	}
	// Read the flags once so the whole batch sees one consistent state.
	mute := p.mute.Snapshot()

	for _, n := range batch {
		if p.visible(ctx, n) {
			d.Suppressed = append(d.Suppressed, n)
			continue
		}
		if mute.Muted(n.GroupKey) {
			d.Records = append(d.Records, n)
			continue
		}
		d.Toast = append(d.Toast, n)
		if n.ForceFocus {
			d.Focus = append(d.Focus, n)
			d.DeleteIDs = append(d.DeleteIDs, n.ID)
			continue
		}
		d.Records = append(d.Records, n)
	}
	if k := len(d.Focus); k > 0 {
		target := d.Focus[k-1]
		d.FocusTarget = &target
	}

	p.log.Debug("batch evaluated",
		logx.String("batch_id", d.BatchID),
		logx.Int("size", len(batch)),
		logx.Int("suppressed", len(d.Suppressed)),
		logx.Int("records", len(d.Records)),
		logx.Int("toast", len(d.Toast)),
		logx.Int("focus", len(d.Focus)),
		logx.Bool("global_muted", mute.GlobalMuted),
	)
	return d
}

func (p *Policy) visible(ctx context.Context, n notification.Notification) bool {
	if p.surface == nil || n.Channel == "" || n.TerminalID == "" {
		return false
	}
	return p.surface.IsVisible(ctx, n.TerminalID, n.Channel)
}
