package app

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agentoast/internal/config"
	"agentoast/internal/eventbus"
	"agentoast/internal/notification"
	"agentoast/internal/storage"
	logx "agentoast/pkg/logx"
)

type fakeSurface struct {
	mu      sync.Mutex
	visible map[string]bool
	focused []string
}

func (f *fakeSurface) IsVisible(_ context.Context, terminalID, channel string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return terminalID != "" && f.visible[channel]
}

func (f *fakeSurface) Focus(_ context.Context, channel, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.focused = append(f.focused, channel)
	return nil
}

func (f *fakeSurface) Focused() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.focused...)
}

func newTestApp(t *testing.T, cfgBody string) (*App, *fakeSurface) {
	t.Helper()
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")
	if cfgBody != "" {
		require.NoError(t, os.WriteFile(cfgPath, []byte(cfgBody), 0o644))
	}
	env := config.Env{Home: dir, LogLevel: "error"}
	surface := &fakeSurface{visible: map[string]bool{}}

	a, err := New(context.Background(), cfgPath, env, WithSurface(surface))
	require.NoError(t, err)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = a.Stop(ctx)
	})
	return a, surface
}

func insert(t *testing.T, a *App, in notification.Input) int64 {
	t.Helper()
	id, err := a.store.Insert(context.Background(), in)
	require.NoError(t, err)
	return id
}

// drain collects the events already buffered on ch.
func drain(ch <-chan eventbus.Event) []eventbus.Event {
	var out []eventbus.Event
	for {
		select {
		case e := <-ch:
			out = append(out, e)
		default:
			return out
		}
	}
}

func ofType(events []eventbus.Event, t eventbus.Type) []eventbus.Event {
	var out []eventbus.Event
	for _, e := range events {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

func TestDispatchAppliesDecision(t *testing.T) {
	ctx := context.Background()
	a, surface := newTestApp(t, "")
	a.ToggleGroupMute("quiet")
	surface.visible["%1"] = true

	seen := insert(t, a, notification.Input{Badge: "Stop", Channel: "%1", TerminalID: "com.apple.Terminal"})
	normal := insert(t, a, notification.Input{Badge: "Stop", GroupKey: "api", Channel: "%2"})
	focus := insert(t, a, notification.Input{Badge: "Ask", GroupKey: "api", Channel: "%3", ForceFocus: true})
	muted := insert(t, a, notification.Input{Badge: "Ask", GroupKey: "quiet", Channel: "%4", ForceFocus: true})

	events, unsub := a.bus.Subscribe(16)
	defer unsub()

	batch, err := a.store.ListAfter(ctx, 0)
	require.NoError(t, err)
	a.dispatch(ctx, batch)

	left, err := a.store.List(ctx, 0)
	require.NoError(t, err)
	assert.ElementsMatch(t, []int64{normal, muted}, notification.IDs(left))
	assert.NotContains(t, notification.IDs(left), seen)
	assert.NotContains(t, notification.IDs(left), focus)
	assert.Equal(t, []string{"%3"}, surface.Focused())

	got := drain(events)
	refresh := ofType(got, eventbus.ListRefresh)
	require.Len(t, refresh, 1)
	assert.Equal(t, []int64{normal, muted}, notification.IDs(refresh[0].Data.([]notification.Notification)))

	unread := ofType(got, eventbus.UnreadCountChanged)
	require.Len(t, unread, 1)
	assert.EqualValues(t, 2, unread[0].Data)
}

func TestInsertReachesToast(t *testing.T) {
	a, _ := newTestApp(t, "")
	events, unsub := a.bus.Subscribe(32)
	defer unsub()

	ctx := context.Background()
	require.NoError(t, a.Start(ctx))

	p, err := storage.OpenProducer(ctx, storage.Config{Path: a.Settings().DBPath}, logx.Nop())
	require.NoError(t, err)
	defer p.Close()
	id, err := p.Insert(ctx, notification.Input{Badge: "Stop", Body: "done", Channel: "%9"})
	require.NoError(t, err)

	deadline := time.After(15 * time.Second)
	for {
		select {
		case e := <-events:
			if e.Type != eventbus.ToastShow {
				continue
			}
			d := e.Data.(eventbus.ToastShowData)
			assert.Equal(t, id, d.Current.ID)
			assert.Equal(t, 1, d.Total)
			assert.Equal(t, id, a.Status().Cursor)
			return
		case <-deadline:
			t.Fatal("inserted notification was never shown")
		}
	}
}

func TestControlOperationsPublish(t *testing.T) {
	ctx := context.Background()
	a, _ := newTestApp(t, "panel:\n  group_limit: 1\n")
	events, unsub := a.bus.Subscribe(16)
	defer unsub()

	first := insert(t, a, notification.Input{GroupKey: "api", Channel: "%1"})
	insert(t, a, notification.Input{GroupKey: "api", Channel: "%2"})
	insert(t, a, notification.Input{GroupKey: "web", Channel: "%3"})

	groups, err := a.Groups(ctx, 0)
	require.NoError(t, err)
	require.Len(t, groups, 2)
	// Newest first: web (id 3) leads, then api capped at one item.
	assert.Equal(t, "web", groups[0].Key)
	assert.Equal(t, "api", groups[1].Key)
	assert.Len(t, groups[1].Items, 1)
	assert.Equal(t, 1, groups[1].Hidden)

	require.NoError(t, a.Delete(ctx, first))
	n, err := a.DeleteByChannels(ctx, []string{"%2", "%3"})
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)
	count, err := a.CountUnread(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)

	s := a.ToggleGlobalMute()
	assert.True(t, s.GlobalMuted)
	assert.True(t, a.MuteState().GlobalMuted)

	got := drain(events)
	assert.Len(t, ofType(got, eventbus.UnreadCountChanged), 2)
	assert.Len(t, ofType(got, eventbus.MuteChanged), 1)
}

func TestApplyConfigUpdatesMuteAndToast(t *testing.T) {
	a, _ := newTestApp(t, "")
	events, unsub := a.bus.Subscribe(4)
	defer unsub()

	a.applyConfig(&Config{
		Panel: config.PanelConfig{Muted: true},
		Toast: config.ToastConfig{Duration: "9s", Persistent: true},
	})
	assert.True(t, a.MuteState().GlobalMuted)
	assert.True(t, a.Settings().Persistent)
	assert.Equal(t, 9*time.Second, a.Settings().ToastDuration)
	assert.Len(t, ofType(drain(events), eventbus.MuteChanged), 1)

	// Invalid configs leave the previous settings in place.
	a.applyConfig(&Config{Toast: config.ToastConfig{Duration: "soon"}})
	assert.Equal(t, 9*time.Second, a.Settings().ToastDuration)
}
