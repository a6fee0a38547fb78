package app

import (
	"context"

	"agentoast/internal/eventbus"
	"agentoast/internal/notification"
	"agentoast/internal/policy"
)

// The methods below are the presentation contract. Every mutation of the
// store republishes the unread count; every mute toggle publishes the new
// mute state.

func (a *App) List(ctx context.Context, limit int) ([]notification.Notification, error) {
	return a.store.List(ctx, limit)
}

// Groups lists notifications grouped by group key, each group capped at the
// configured panel group limit.
func (a *App) Groups(ctx context.Context, limit int) ([]notification.Group, error) {
	ns, err := a.store.List(ctx, limit)
	if err != nil {
		return nil, err
	}
	return notification.GroupByKey(ns, a.Settings().GroupLimit), nil
}

func (a *App) CountUnread(ctx context.Context) (int64, error) {
	return a.store.CountUnread(ctx)
}

func (a *App) Delete(ctx context.Context, id int64) error {
	if err := a.store.Delete(ctx, id); err != nil {
		return err
	}
	a.emitUnread(ctx)
	return nil
}

func (a *App) DeleteByChannel(ctx context.Context, channel string) (int64, error) {
	n, err := a.store.DeleteByChannel(ctx, channel)
	if err != nil {
		return 0, err
	}
	a.emitUnread(ctx)
	return n, nil
}

// DeleteByChannels clears a whole group's panes at once.
func (a *App) DeleteByChannels(ctx context.Context, channels []string) (int64, error) {
	n, err := a.store.DeleteByChannels(ctx, channels)
	if err != nil {
		return 0, err
	}
	a.emitUnread(ctx)
	return n, nil
}

func (a *App) DeleteAll(ctx context.Context) error {
	if err := a.store.DeleteAll(ctx); err != nil {
		return err
	}
	a.emitUnread(ctx)
	return nil
}

func (a *App) MuteState() policy.MuteSnapshot { return a.mute.Snapshot() }

func (a *App) ToggleGlobalMute() policy.MuteSnapshot {
	s := a.mute.ToggleGlobal()
	eventbus.Emit(a.bus, eventbus.MuteChanged, s)
	return s
}

func (a *App) ToggleGroupMute(group string) policy.MuteSnapshot {
	s := a.mute.ToggleGroup(group)
	eventbus.Emit(a.bus, eventbus.MuteChanged, s)
	return s
}
