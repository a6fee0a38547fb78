package watcher

import (
	"github.com/robfig/cron/v3"

	logx "agentoast/pkg/logx"
)

// startPoller schedules an unconditional check every PollInterval. It is the
// backstop for filesystem events that never arrive.
func (w *Watcher) startPoller() (stop func()) {
	clog := cronLogger{log: w.log}
	c := cron.New(
		cron.WithLogger(clog),
		cron.WithChain(cron.Recover(clog), cron.SkipIfStillRunning(clog)),
	)
	c.Schedule(cron.Every(w.cfg.PollInterval), cron.FuncJob(w.Trigger))
	c.Start()
	return func() { <-c.Stop().Done() }
}

// cronLogger routes cron's internal logging into logx. Info is demoted to
// trace since cron reports every wakeup.
type cronLogger struct{ log logx.Logger }

func (l cronLogger) Info(msg string, kv ...any) {
	l.log.Trace("cron: "+msg, kvFields(kv)...)
}

func (l cronLogger) Error(err error, msg string, kv ...any) {
	l.log.Warn("cron: "+msg, append(kvFields(kv), logx.Err(err))...)
}

func kvFields(kv []any) []logx.Field {
	out := make([]logx.Field, 0, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		k, ok := kv[i].(string)
		if !ok {
			continue
		}
		out = append(out, logx.Any(k, kv[i+1]))
	}
	return out
}
