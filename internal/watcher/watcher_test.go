package watcher

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agentoast/internal/notification"
	"agentoast/internal/storage"
	logx "agentoast/pkg/logx"
)

type memSource struct {
	mu   sync.Mutex
	rows []notification.Notification
	fail error
}

func (m *memSource) add(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := 0; i < n; i++ {
		id := int64(len(m.rows) + 1)
		m.rows = append(m.rows, notification.Notification{ID: id})
	}
}

func (m *memSource) MaxID(context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.rows)), nil
}

func (m *memSource) ListAfter(_ context.Context, cursor int64) ([]notification.Notification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return nil, m.fail
	}
	var out []notification.Notification
	for _, r := range m.rows {
		if r.ID > cursor {
			out = append(out, r)
		}
	}
	return out, nil
}

type recorder struct {
	mu      sync.Mutex
	batches [][]notification.Notification
}

func (r *recorder) Dispatch(_ context.Context, b []notification.Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.batches = append(r.batches, b)
}

func (r *recorder) ids() []int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []int64
	for _, b := range r.batches {
		out = append(out, notification.IDs(b)...)
	}
	return out
}

func TestPrimeSkipsExistingRows(t *testing.T) {
	src := &memSource{}
	src.add(3)
	w := New(Config{}, src, nil, logx.Nop())
	require.NoError(t, w.Prime(context.Background()))
	assert.EqualValues(t, 3, w.Cursor())

	_, ok := w.CheckNew(context.Background())
	assert.False(t, ok)

	src.add(2)
	batch, ok := w.CheckNew(context.Background())
	require.True(t, ok)
	assert.Equal(t, []int64{4, 5}, notification.IDs(batch))
	assert.EqualValues(t, 5, w.Cursor())
}

func TestCheckNewFailureKeepsCursor(t *testing.T) {
	src := &memSource{}
	w := New(Config{}, src, nil, logx.Nop())
	require.NoError(t, w.Prime(context.Background()))

	src.add(1)
	src.fail = errors.New("database is locked")
	_, ok := w.CheckNew(context.Background())
	assert.False(t, ok)
	assert.EqualValues(t, 0, w.Cursor())

	src.fail = nil
	batch, ok := w.CheckNew(context.Background())
	require.True(t, ok, "retried on the next trigger")
	assert.Equal(t, []int64{1}, notification.IDs(batch))
}

func TestConcurrentCheckNewNeverDuplicatesOrSkips(t *testing.T) {
	src := &memSource{}
	w := New(Config{}, src, nil, logx.Nop())
	require.NoError(t, w.Prime(context.Background()))

	const total = 500
	var (
		mu   sync.Mutex
		seen []int64
		wg   sync.WaitGroup
	)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < total; i++ {
			src.add(1)
		}
	}()
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				batch, ok := w.CheckNew(context.Background())
				if ok {
					mu.Lock()
					seen = append(seen, notification.IDs(batch)...)
					mu.Unlock()
				}
				select {
				case <-done:
					if !ok {
						return
					}
				default:
				}
			}
		}()
	}
	wg.Wait()
	// Drain anything added after the last goroutine looked.
	if batch, ok := w.CheckNew(context.Background()); ok {
		seen = append(seen, notification.IDs(batch)...)
	}

	require.Len(t, seen, total)
	set := make(map[int64]struct{}, total)
	for _, id := range seen {
		set[id] = struct{}{}
	}
	assert.Len(t, set, total, "no id dispatched twice")
	for id := int64(1); id <= total; id++ {
		_, ok := set[id]
		assert.True(t, ok, "id %d skipped", id)
	}
}

func TestTriggerCoalesces(t *testing.T) {
	w := New(Config{}, &memSource{}, nil, logx.Nop())
	for i := 0; i < 10; i++ {
		w.Trigger()
	}
	assert.Len(t, w.trigger, 1)
}

func TestRelevant(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"/d/notifications.db", true},
		{"/d/notifications.db-wal", true},
		{"/d/notifications.db-shm", true},
		{"/d/notifications.db-journal", true},
		{"/d/other.db", false},
		{"/d/notifications.dbx", false},
		{"/d/config.yaml", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, relevant(tt.name, "notifications.db"), tt.name)
	}
}

func TestRunDispatchesOnFileChange(t *testing.T) {
	dir := t.TempDir()
	db := filepath.Join(dir, "notifications.db")
	src := &memSource{}
	rec := &recorder{}
	w := New(Config{DBPath: db, Debounce: 20 * time.Millisecond, PollInterval: time.Hour}, src, rec, logx.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = w.Run(ctx) }()

	// Give the fsnotify watcher a moment to register the directory.
	time.Sleep(100 * time.Millisecond)

	src.add(2)
	for i := 0; i < 5; i++ {
		require.NoError(t, os.WriteFile(db+"-wal", []byte{byte(i)}, 0o600))
	}

	require.Eventually(t, func() bool { return len(rec.ids()) == 2 }, 3*time.Second, 10*time.Millisecond)
	assert.Equal(t, []int64{1, 2}, rec.ids())
}

func TestRunPollBackstop(t *testing.T) {
	src := &memSource{}
	rec := &recorder{}
	w := New(Config{DBPath: filepath.Join(t.TempDir(), "n.db"), PollInterval: time.Second, DisableFS: true}, src, rec, logx.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, w.Prime(ctx))
	go func() { _ = w.Run(ctx) }()

	src.add(1)
	require.Eventually(t, func() bool { return len(rec.ids()) == 1 }, 5*time.Second, 20*time.Millisecond)
	assert.Equal(t, []int64{1}, rec.ids())
}

func TestRunChecksOnceWatchIsRegistered(t *testing.T) {
	src := &memSource{}
	rec := &recorder{}
	w := New(Config{DBPath: filepath.Join(t.TempDir(), "n.db"), Debounce: 20 * time.Millisecond, PollInterval: time.Hour}, src, rec, logx.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, w.Prime(ctx))

	// Committed after Prime but before the directory watch exists: no file
	// event will ever report it and the poll is an hour away.
	src.add(1)
	go func() { _ = w.Run(ctx) }()

	require.Eventually(t, func() bool { return len(rec.ids()) == 1 }, 3*time.Second, 10*time.Millisecond)
}

func TestRunWithStore(t *testing.T) {
	cfg := storage.Config{Path: filepath.Join(t.TempDir(), "notifications.db"), ResetOnStart: true}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s, err := storage.Open(ctx, cfg, logx.Nop())
	require.NoError(t, err)
	defer s.Close()
	_, err = s.Insert(ctx, notification.Input{Badge: "before start"})
	require.NoError(t, err)

	rec := &recorder{}
	w := New(Config{DBPath: cfg.Path, Debounce: 20 * time.Millisecond, PollInterval: time.Second}, s, rec, logx.Nop())
	require.NoError(t, w.Prime(ctx))
	go func() { _ = w.Run(ctx) }()

	p, err := storage.OpenProducer(ctx, cfg, logx.Nop())
	require.NoError(t, err)
	defer p.Close()
	id, err := p.Insert(ctx, notification.Input{Badge: "Stop", Channel: "%1"})
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		ids := rec.ids()
		return len(ids) == 1 && ids[0] == id
	}, 5*time.Second, 20*time.Millisecond)
}
