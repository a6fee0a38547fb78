package app

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"agentoast/internal/config"
	"agentoast/internal/eventbus"
	"agentoast/internal/observability/pprof"
	"agentoast/internal/policy"
	"agentoast/internal/storage"
	"agentoast/internal/terminal"
	"agentoast/internal/toast"
	"agentoast/internal/watcher"
	logx "agentoast/pkg/logx"
)

// Surface is the terminal side of the pipeline: suppression checks and focus.
type Surface interface {
	policy.SurfaceChecker
	toast.Focuser
}

type Option func(*options)

type options struct {
	surface Surface
	clock   toast.Clock
	logs    *logx.Service
}

// WithSurface replaces the tmux/terminal integration.
func WithSurface(s Surface) Option { return func(o *options) { o.surface = s } }

// WithClock sets the clock driving toast timers.
func WithClock(c toast.Clock) Option { return func(o *options) { o.clock = c } }

// WithLogService reuses an existing logging service instead of building one
// from the config.
func WithLogService(s *logx.Service) Option { return func(o *options) { o.logs = s } }

// App is the presentation process: it owns the store, the watcher and the
// toast queue, and exposes the control operations a UI calls.
type App struct {
	env  config.Env
	cfgm *ConfigManager
	sup  *Supervisor

	log      logx.Logger
	logs     *logx.Service
	failures *logx.Limited
	bus      eventbus.Bus
	store    *storage.Store

	surface Surface
	mute    *policy.MuteState
	policy  *policy.Policy
	toast   *toast.Controller
	watcher *watcher.Watcher

	mu       sync.RWMutex
	settings Settings
}

func New(ctx context.Context, cfgPath string, env config.Env, opts ...Option) (*App, error) {
	var o options
	for _, fn := range opts {
		fn(&o)
	}

	cfgm := NewConfigManager(cfgPath)
	cfg, err := cfgm.Load()
	if err != nil {
		return nil, err
	}
	settings, err := config.Resolve(cfg, env)
	if err != nil {
		return nil, err
	}

	logSvc := o.logs
	var log logx.Logger
	if logSvc == nil {
		logSvc, log = logx.New(settings.Log)
	} else {
		logSvc.Apply(settings.Log)
		log = logSvc.Logger()
	}

	store, err := storage.Open(ctx, mapStorageConfig(settings), log.With(logx.String("comp", "storage")))
	if err != nil {
		_ = logSvc.Close()
		return nil, err
	}
	log.Info("store opened", logx.String("path", store.Path()), logx.Bool("reset", settings.ResetOnStart))

	surface := o.surface
	if surface == nil {
		surface = terminal.New(log)
	}

	bus := eventbus.New()
	mute := policy.NewMuteState(settings.Muted, settings.MutedGroups...)
	ctrl := toast.NewController(toast.Options{
		Settings: mapToastSettings(settings),
		Clock:    o.clock,
		Store:    store,
		Focuser:  surface,
		Bus:      bus,
		Log:      log,
	})

	a := &App{
		env:      env,
		cfgm:     cfgm,
		log:      log.With(logx.String("comp", "app")),
		logs:     logSvc,
		bus:      bus,
		store:    store,
		surface:  surface,
		mute:     mute,
		policy:   policy.New(mute, surface, log),
		toast:    ctrl,
		settings: settings,
	}
	a.failures = logx.NewLimited(a.log, 1)
	a.watcher = watcher.New(mapWatcherConfig(settings), store, watcher.DispatchFunc(a.dispatch), log)
	return a, nil
}

func (a *App) Bus() eventbus.Bus { return a.bus }

func (a *App) Toast() *toast.Controller { return a.toast }

func (a *App) Settings() Settings {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.settings
}

// Done is closed when the app supervisor context is canceled (fatal error or Stop()).
func (a *App) Done() <-chan struct{} {
	if a.sup == nil {
		ch := make(chan struct{})
		close(ch)
		return ch
	}
	return a.sup.Context().Done()
}

// Err returns the first fatal error observed by the supervisor (if any).
func (a *App) Err() error {
	if a.sup == nil {
		return nil
	}
	return a.sup.Err()
}

// Start primes the watcher cursor and launches every loop. Rows inserted
// before Start are never dispatched.
func (a *App) Start(ctx context.Context) error {
	a.sup = NewSupervisor(ctx, WithLogger(a.log), WithCancelOnError(true))
	a.cfgm.SetLogger(a.log)
	a.cfgm.SetValidator(config.Validator(a.env))

	if err := a.watcher.Prime(a.sup.Context()); err != nil {
		return fmt.Errorf("priming watcher: %w", err)
	}

	a.sup.Go("toast", a.toast.Run)
	a.sup.Go("watcher", a.watcher.Run)
	a.sup.GoRestart("config.watch", a.cfgm.Watch)

	events, unsub := a.bus.Subscribe(128)
	a.sup.Go("shell", func(c context.Context) error {
		defer unsub()
		a.shell(c, events)
		return nil
	})

	sub := a.cfgm.Subscribe(8)
	a.sup.Go("config.reload", func(c context.Context) error {
		defer a.cfgm.Unsubscribe(sub)
		a.reloadLoop(c, sub)
		return nil
	})

	if addr := a.Settings().DebugAddr; addr != "" {
		dbg := pprof.New(pprof.Config{Addr: addr}, func() any { return a.Status() }, a.log)
		// The debug server is optional; a busy port only costs a warning.
		if ln, err := dbg.Listen(); err != nil {
			a.log.Warn("debug server disabled", logx.Err(err))
		} else {
			a.sup.Go("debug.http", func(c context.Context) error { return dbg.Serve(c, ln) })
		}
	}

	a.emitUnread(a.sup.Context())
	return nil
}

func (a *App) reloadLoop(c context.Context, sub chan *Config) {
	for {
		select {
		case <-c.Done():
			return
		case newCfg, ok := <-sub:
			if !ok {
				return
			}
			// Coalesce bursts: keep only the latest config in the channel.
			for {
				select {
				case newer := <-sub:
					if newer != nil {
						newCfg = newer
					}
				default:
					goto APPLY
				}
			}
		APPLY:
			a.applyConfig(newCfg)
		}
	}
}

// applyConfig applies the hot-reloadable parts of cfg. Store and watcher
// changes need a restart.
func (a *App) applyConfig(cfg *Config) {
	next, err := config.Resolve(cfg, a.env)
	if err != nil {
		a.log.Warn("invalid config; keeping previous", logx.Err(err))
		return
	}

	a.mu.Lock()
	prev := a.settings
	a.settings = next
	a.mu.Unlock()

	if prev.DBPath != next.DBPath || prev.ResetOnStart != next.ResetOnStart || prev.BusyTimeout != next.BusyTimeout {
		a.log.Warn("store config changed; restart required for changes to take effect")
	}
	if prev.Debounce != next.Debounce || prev.PollInterval != next.PollInterval {
		a.log.Warn("watcher config changed; restart required for changes to take effect")
	}
	if prev.DebugAddr != next.DebugAddr {
		a.log.Warn("debug config changed; restart required for changes to take effect")
	}

	a.logs.Apply(next.Log)
	a.toast.Configure(mapToastSettings(next))

	if prev.Muted != next.Muted && a.mute.SetGlobal(next.Muted) {
		eventbus.Emit(a.bus, eventbus.MuteChanged, a.mute.Snapshot())
	}
	a.log.Debug("config applied",
		logx.Duration("toast.duration", next.ToastDuration),
		logx.Bool("toast.persistent", next.Persistent),
		logx.Bool("panel.muted", next.Muted),
		logx.String("log.level", strings.ToLower(next.Log.Level)),
	)
}

// Stop cancels every loop, then closes the store and the log sinks.
func (a *App) Stop(ctx context.Context) error {
	var err error
	if a.sup != nil {
		err = a.sup.Stop(ctx)
	}
	if cerr := a.store.Close(); cerr != nil && err == nil {
		err = cerr
	}
	a.log.Info("stopped")
	_ = a.logs.Close()
	return err
}
