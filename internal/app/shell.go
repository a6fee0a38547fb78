package app

import (
	"context"
	"time"

	"agentoast/internal/eventbus"
	"agentoast/internal/notification"
	"agentoast/internal/policy"
	logx "agentoast/pkg/logx"
)

// shell is the console presentation: it renders bus events as log lines.
// Graphical shells subscribe to the same bus.
func (a *App) shell(ctx context.Context, events <-chan eventbus.Event) {
	log := a.log.With(logx.String("comp", "shell"))
	for {
		select {
		case <-ctx.Done():
			return
		case e, ok := <-events:
			if !ok {
				return
			}
			switch d := e.Data.(type) {
			case eventbus.ToastShowData:
				log.Info("toast",
					logx.String("line", notification.Line(d.Current, time.Now())),
					logx.Int("index", d.Index+1),
					logx.Int("total", d.Total),
				)
			case []notification.Notification:
				if log.Enabled(logx.LevelDebug) {
					log.Debug("list refresh", logx.Int("count", len(d)), logx.Any("ids", notification.IDs(d)))
				}
			case int64:
				log.Debug("unread count", logx.Int64("count", d))
			case policy.MuteSnapshot:
				log.Info("mute changed", logx.Bool("global", d.GlobalMuted), logx.Any("groups", d.MutedGroups))
			default:
				log.Debug("event", logx.String("type", string(e.Type)), logx.Time("time", e.Time))
			}
		}
	}
}

// Status is a point-in-time view of the running loops for diagnostics.
type Status struct {
	Cursor     int64               `json:"cursor"`
	Checks     uint64              `json:"checks"`
	Dispatched uint64              `json:"dispatched"`
	EventsLost uint64              `json:"eventsLost"`
	Mute       policy.MuteSnapshot `json:"mute"`
	Loops      []LoopStats         `json:"loops"`
}

func (a *App) Status() Status {
	checks, dispatched := a.watcher.Stats()
	s := Status{
		Cursor:     a.watcher.Cursor(),
		Checks:     checks,
		Dispatched: dispatched,
		EventsLost: a.bus.Dropped(),
		Mute:       a.mute.Snapshot(),
	}
	if a.sup != nil {
		s.Loops = a.sup.Snapshot()
	}
	return s
}
