// Package watcher turns committed store writes into ordered dispatch batches.
//
// Two independent mechanisms wake one consumer goroutine: filesystem events on
// the store files (debounced until quiet) and a fixed-interval poll. Either may
// miss or duplicate wakeups; the cursor makes every row dispatch at most once.
package watcher

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"agentoast/internal/notification"
	logx "agentoast/pkg/logx"
)

const (
	DefaultDebounce     = 200 * time.Millisecond
	DefaultPollInterval = 5 * time.Second
)

// Source is the read side of the notification store.
type Source interface {
	MaxID(ctx context.Context) (int64, error)
	ListAfter(ctx context.Context, cursor int64) ([]notification.Notification, error)
}

// Dispatcher receives each new batch in ascending id order.
type Dispatcher interface {
	Dispatch(ctx context.Context, batch []notification.Notification)
}

// DispatchFunc adapts a function to Dispatcher.
type DispatchFunc func(ctx context.Context, batch []notification.Notification)

func (f DispatchFunc) Dispatch(ctx context.Context, batch []notification.Notification) { f(ctx, batch) }

type Config struct {
	// DBPath is the store data file. Its directory is watched.
	DBPath       string
	Debounce     time.Duration
	PollInterval time.Duration
	// DisableFS turns off the filesystem mechanism and leaves only polling.
	DisableFS bool
}

func (c Config) withDefaults() Config {
	if c.Debounce <= 0 {
		c.Debounce = DefaultDebounce
	}
	if c.PollInterval <= 0 {
		c.PollInterval = DefaultPollInterval
	}
	return c
}

type Watcher struct {
	cfg      Config
	src      Source
	dispatch Dispatcher
	log      logx.Logger
	failures *logx.Limited

	// mu serializes the read-query-advance step of CheckNew.
	mu     sync.Mutex
	cursor atomic.Int64
	primed atomic.Bool

	trigger chan struct{}

	checks     atomic.Uint64
	dispatched atomic.Uint64
}

func New(cfg Config, src Source, d Dispatcher, log logx.Logger) *Watcher {
	if log.IsZero() {
		log = logx.Nop()
	}
	log = log.With(logx.String("comp", "watcher"))
	return &Watcher{
		cfg:      cfg.withDefaults(),
		src:      src,
		dispatch: d,
		log:      log,
		failures: logx.NewLimited(log, 1),
		trigger:  make(chan struct{}, 1),
	}
}

// Prime sets the cursor to the highest id currently stored so rows that
// predate the watcher are never dispatched.
func (w *Watcher) Prime(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	max, err := w.src.MaxID(ctx)
	if err != nil {
		return err
	}
	w.cursor.Store(max)
	w.primed.Store(true)
	w.log.Debug("cursor primed", logx.Int64("cursor", max))
	return nil
}

// Cursor returns the highest id already handed out.
func (w *Watcher) Cursor() int64 { return w.cursor.Load() }

// Stats reports how many checks ran and how many batches were dispatched.
func (w *Watcher) Stats() (checks, dispatched uint64) {
	return w.checks.Load(), w.dispatched.Load()
}

// CheckNew returns every row with id above the cursor and advances the cursor
// to the last one. Concurrent callers never receive the same row twice.
// A failed query is logged and reported as no data; the cursor is unchanged.
func (w *Watcher) CheckNew(ctx context.Context) ([]notification.Notification, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.checks.Add(1)
	cur := w.cursor.Load()
	batch, err := w.src.ListAfter(ctx, cur)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			w.failures.Warn("check for new notifications failed", logx.Int64("cursor", cur), logx.Err(err))
		}
		return nil, false
	}
	if len(batch) == 0 {
		return nil, false
	}
	w.cursor.Store(batch[len(batch)-1].ID)
	return batch, true
}

// Trigger requests a check. Requests made while one is pending coalesce.
func (w *Watcher) Trigger() {
	select {
	case w.trigger <- struct{}{}:
	default:
	}
}

// Run primes the cursor if needed, starts both wakeup mechanisms and the
// consumer, and blocks until ctx is canceled.
func (w *Watcher) Run(ctx context.Context) error {
	if !w.primed.Load() {
		if err := w.Prime(ctx); err != nil {
			return err
		}
	}

	stopPoll := w.startPoller()
	defer stopPoll()

	var wg sync.WaitGroup
	if !w.cfg.DisableFS {
		wg.Add(1)
		go func() {
			defer wg.Done()
			w.watchFiles(ctx)
		}()
	}

	w.log.Info("watcher started",
		logx.String("db", w.cfg.DBPath),
		logx.Duration("debounce", w.cfg.Debounce),
		logx.Duration("poll", w.cfg.PollInterval),
		logx.Int64("cursor", w.Cursor()),
	)
	w.consume(ctx)
	wg.Wait()
	w.log.Info("watcher stopped", logx.Int64("cursor", w.Cursor()))
	return nil
}

func (w *Watcher) consume(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.trigger:
		}
		batch, ok := w.CheckNew(ctx)
		if !ok {
			continue
		}
		w.dispatched.Add(1)
		w.log.Debug("dispatching batch",
			logx.Int("size", len(batch)),
			logx.Int64("first_id", batch[0].ID),
			logx.Int64("last_id", batch[len(batch)-1].ID),
		)
		if w.dispatch != nil {
			w.dispatch.Dispatch(ctx, batch)
		}
	}
}
