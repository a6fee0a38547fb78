package toast

import (
	"context"
	"errors"
	"sync"
	"time"

	"agentoast/internal/eventbus"
	"agentoast/internal/notification"
	logx "agentoast/pkg/logx"
)

const (
	DefaultDuration = 4 * time.Second
	// FadeDuration covers the fade-out animation plus a small margin.
	FadeDuration = 300*time.Millisecond + 50*time.Millisecond
)

var ErrStopped = errors.New("toast controller stopped")

// Settings are runtime-configurable.
type Settings struct {
	Duration time.Duration `json:"duration"`
	// Persistent disables auto-advance; items stay until the user acts.
	Persistent bool `json:"persistent"`
}

func (s Settings) withDefaults() Settings {
	if s.Duration <= 0 {
		s.Duration = DefaultDuration
	}
	return s
}

// Store is the subset of the notification store the queue mutates.
type Store interface {
	Delete(ctx context.Context, id int64) error
	CountUnread(ctx context.Context) (int64, error)
}

// Focuser brings a notification's originating surface to the front.
type Focuser interface {
	Focus(ctx context.Context, channel, terminalID string) error
}

type Options struct {
	Settings Settings
	Clock    Clock
	Store    Store
	Focuser  Focuser
	Bus      eventbus.Bus
	Log      logx.Logger
}

// Snapshot is a copy of the controller state taken on its loop.
type Snapshot struct {
	State        State
	Items        []notification.Notification
	Index        int
	Settings     Settings
	AdvanceArmed bool
	FadeArmed    bool
}

type cmdKind int

const (
	cmdShow cmdKind = iota
	cmdTimeout
	cmdFadeDone
	cmdDismissKeep
	cmdDismissDelete
	cmdClick
	cmdConfigure
	cmdSnapshot
)

type command struct {
	kind     cmdKind
	batch    []notification.Notification
	gen      uint64
	settings Settings
	reply    chan Snapshot
}

// Controller owns a Queue on one goroutine. Every method other than Run only
// sends a command to that goroutine.
type Controller struct {
	clock Clock
	store Store
	focus Focuser
	bus   eventbus.Bus
	log   logx.Logger

	cmds     chan command
	done     chan struct{}
	doneOnce sync.Once

	// Owned by the loop.
	q        Queue
	settings Settings
	gen      uint64
	advanceT Timer
	fadeT    Timer
}

func NewController(opts Options) *Controller {
	if opts.Clock == nil {
		opts.Clock = RealClock
	}
	if opts.Bus == nil {
		opts.Bus = eventbus.Nop{}
	}
	if opts.Log.IsZero() {
		opts.Log = logx.Nop()
	}
	return &Controller{
		clock:    opts.Clock,
		store:    opts.Store,
		focus:    opts.Focuser,
		bus:      opts.Bus,
		log:      opts.Log.With(logx.String("comp", "toast")),
		cmds:     make(chan command, 64),
		done:     make(chan struct{}),
		settings: opts.Settings.withDefaults(),
	}
}

// Run processes commands until ctx is canceled.
func (c *Controller) Run(ctx context.Context) error {
	defer c.doneOnce.Do(func() { close(c.done) })
	defer c.cancelTimers()
	for {
		select {
		case <-ctx.Done():
			return nil
		case cmd := <-c.cmds:
			c.handle(ctx, cmd)
		}
	}
}

func (c *Controller) send(cmd command) bool {
	select {
	case c.cmds <- cmd:
		return true
	case <-c.done:
		return false
	}
}

// Submit shows a batch given in ascending id order.
func (c *Controller) Submit(batch []notification.Notification) {
	if len(batch) == 0 {
		return
	}
	cp := make([]notification.Notification, len(batch))
	copy(cp, batch)
	c.send(command{kind: cmdShow, batch: cp})
}

func (c *Controller) DismissKeep()   { c.send(command{kind: cmdDismissKeep}) }
func (c *Controller) DismissDelete() { c.send(command{kind: cmdDismissDelete}) }
func (c *Controller) Click()         { c.send(command{kind: cmdClick}) }

func (c *Controller) Configure(s Settings) {
	c.send(command{kind: cmdConfigure, settings: s})
}

// Snapshot returns the state after every command sent before it was applied.
func (c *Controller) Snapshot(ctx context.Context) (Snapshot, error) {
	reply := make(chan Snapshot, 1)
	select {
	case c.cmds <- command{kind: cmdSnapshot, reply: reply}:
	case <-c.done:
		return Snapshot{}, ErrStopped
	case <-ctx.Done():
		return Snapshot{}, ctx.Err()
	}
	select {
	case s := <-reply:
		return s, nil
	case <-c.done:
		return Snapshot{}, ErrStopped
	case <-ctx.Done():
		return Snapshot{}, ctx.Err()
	}
}

func (c *Controller) handle(ctx context.Context, cmd command) {
	switch cmd.kind {
	case cmdShow:
		c.cancelTimers()
		c.q.Show(cmd.batch)
		c.log.Debug("toast batch queued", logx.Int("batch", len(cmd.batch)), logx.Int("queue", c.q.Len()))
		c.render()

	case cmdTimeout:
		if cmd.gen != c.gen || c.advanceT == nil {
			c.log.Trace("stale advance timer ignored", logx.Int64("gen", int64(cmd.gen)))
			return
		}
		c.cancelTimers()
		c.after(c.q.Timeout())

	case cmdFadeDone:
		if cmd.gen != c.gen || c.fadeT == nil {
			c.log.Trace("stale fade timer ignored", logx.Int64("gen", int64(cmd.gen)))
			return
		}
		c.cancelTimers()
		c.q.FadeComplete()
		eventbus.Emit(c.bus, eventbus.ToastHidden, nil)

	case cmdDismissKeep:
		if c.q.State() != Showing {
			return
		}
		c.cancelTimers()
		c.after(c.q.DismissKeep())

	case cmdDismissDelete:
		if c.q.State() != Showing {
			return
		}
		c.cancelTimers()
		a, showing := c.q.DismissDelete()
		c.apply(ctx, a)
		c.after(showing)

	case cmdClick:
		if c.q.State() != Showing {
			return
		}
		c.cancelTimers()
		a, showing := c.q.Click()
		c.apply(ctx, a)
		c.after(showing)

	case cmdConfigure:
		c.settings = cmd.settings.withDefaults()
		c.log.Info("toast settings applied",
			logx.Duration("duration", c.settings.Duration),
			logx.Bool("persistent", c.settings.Persistent),
		)
		if c.q.State() == Showing {
			c.cancelTimers()
			c.armAdvance()
		}

	case cmdSnapshot:
		cmd.reply <- Snapshot{
			State:        c.q.State(),
			Items:        c.q.Items(),
			Index:        c.q.Index(),
			Settings:     c.settings,
			AdvanceArmed: c.advanceT != nil,
			FadeArmed:    c.fadeT != nil,
		}
	}
}

// after renders the next item, or arms the fade timer once the queue is exhausted.
func (c *Controller) after(showing bool) {
	if showing {
		c.render()
		return
	}
	if c.q.State() == FadingOut {
		c.armFade()
	}
}

func (c *Controller) render() {
	cur, ok := c.q.Current()
	if !ok {
		return
	}
	eventbus.Emit(c.bus, eventbus.ToastShow, eventbus.ToastShowData{
		Current: cur,
		Index:   c.q.Index(),
		Total:   c.q.Len(),
	})
	c.armAdvance()
}

func (c *Controller) armAdvance() {
	if c.settings.Persistent {
		return
	}
	c.gen++
	g := c.gen
	c.advanceT = c.clock.AfterFunc(c.settings.Duration, func() {
		c.send(command{kind: cmdTimeout, gen: g})
	})
}

func (c *Controller) armFade() {
	c.gen++
	g := c.gen
	c.fadeT = c.clock.AfterFunc(FadeDuration, func() {
		c.send(command{kind: cmdFadeDone, gen: g})
	})
}

// cancelTimers stops both timers and invalidates any fire already in flight.
func (c *Controller) cancelTimers() {
	if c.advanceT != nil {
		c.advanceT.Stop()
		c.advanceT = nil
	}
	if c.fadeT != nil {
		c.fadeT.Stop()
		c.fadeT = nil
	}
	c.gen++
}

func (c *Controller) apply(ctx context.Context, a Action) {
	if a.DeleteID != 0 && c.store != nil {
		if err := c.store.Delete(ctx, a.DeleteID); err != nil {
			c.log.Warn("delete from toast failed", logx.Int64("id", a.DeleteID), logx.Err(err))
		} else if n, err := c.store.CountUnread(ctx); err == nil {
			eventbus.Emit(c.bus, eventbus.UnreadCountChanged, n)
		}
	}
	if a.Focus && c.focus != nil {
		if err := c.focus.Focus(ctx, a.Target.Channel, a.Target.TerminalID); err != nil {
			c.log.Debug("focus from toast failed", logx.String("channel", a.Target.Channel), logx.Err(err))
		}
	}
}
