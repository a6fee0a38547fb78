package app

import (
	"context"

	"agentoast/internal/eventbus"
	"agentoast/internal/notification"
	logx "agentoast/pkg/logx"
)

// dispatch runs one watcher batch through the policy and applies the
// resulting decision. Side effects run in a fixed order: suppressed rows are
// deleted, list views refreshed, the toast queue fed, the focus target
// raised, force-focus rows deleted, and finally the unread count republished.
func (a *App) dispatch(ctx context.Context, batch []notification.Notification) {
	d := a.policy.Evaluate(ctx, batch)
	if d.Empty() {
		return
	}
	log := a.log.With(logx.String("batch", d.BatchID))

	if len(d.Suppressed) > 0 {
		if _, err := a.store.DeleteIDs(ctx, notification.IDs(d.Suppressed)); err != nil {
			a.failures.Warn("deleting suppressed notifications failed", logx.String("batch", d.BatchID), logx.Err(err))
		}
	}
	if len(d.Records) > 0 {
		eventbus.Emit(a.bus, eventbus.ListRefresh, d.Records)
	}
	if len(d.Toast) > 0 {
		a.toast.Submit(d.Toast)
	}
	if t := d.FocusTarget; t != nil {
		if err := a.surface.Focus(ctx, t.Channel, t.TerminalID); err != nil {
			log.Debug("focus failed", logx.Int64("id", t.ID), logx.String("channel", t.Channel), logx.Err(err))
		}
	}
	if len(d.DeleteIDs) > 0 {
		if _, err := a.store.DeleteIDs(ctx, d.DeleteIDs); err != nil {
			a.failures.Warn("deleting force-focus notifications failed", logx.String("batch", d.BatchID), logx.Err(err))
		}
	}
	a.emitUnread(ctx)

	log.Debug("batch dispatched",
		logx.Int("size", len(batch)),
		logx.Int("suppressed", len(d.Suppressed)),
		logx.Int("records", len(d.Records)),
		logx.Int("toast", len(d.Toast)),
		logx.Int("focus", len(d.Focus)),
	)
}

func (a *App) emitUnread(ctx context.Context) {
	n, err := a.store.CountUnread(ctx)
	if err != nil {
		a.failures.Warn("counting unread notifications failed", logx.Err(err))
		return
	}
	eventbus.Emit(a.bus, eventbus.UnreadCountChanged, n)
}
