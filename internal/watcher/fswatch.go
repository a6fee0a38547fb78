package watcher

import (
	"context"
	"math/rand"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	logx "agentoast/pkg/logx"
)

const (
	restartBackoffBase = 250 * time.Millisecond
	restartBackoffMax  = 5 * time.Second
)

// relevant reports whether name is the data file or one of the engine's
// sidecar files (write-ahead log, shared memory, journal).
func relevant(name, dbBase string) bool {
	base := filepath.Base(name)
	return base == dbBase || strings.HasPrefix(base, dbBase+"-")
}

// watchFiles watches the store directory until ctx is done. A burst of
// relevant events fires a single check once no event has arrived for the
// debounce window. The fsnotify watcher is recreated with jittered backoff
// whenever it breaks.
func (w *Watcher) watchFiles(ctx context.Context) {
	dir := filepath.Dir(w.cfg.DBPath)
	dbBase := filepath.Base(w.cfg.DBPath)

	backoff := restartBackoffBase
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	sleep := func() bool {
		wait := backoff + time.Duration(rng.Int63n(int64(backoff/2)+1))
		if backoff < restartBackoffMax {
			backoff *= 2
			if backoff > restartBackoffMax {
				backoff = restartBackoffMax
			}
		}
		select {
		case <-ctx.Done():
			return false
		case <-time.After(wait):
			return true
		}
	}

	quiet := time.NewTimer(time.Hour)
	quiet.Stop()
	defer quiet.Stop()

	for {
		if ctx.Err() != nil {
			return
		}

		fw, err := fsnotify.NewWatcher()
		if err != nil {
			w.failures.Warn("store watch init failed", logx.Err(err), logx.String("dir", dir))
			if !sleep() {
				return
			}
			continue
		}
		if err := fw.Add(dir); err != nil {
			_ = fw.Close()
			w.failures.Warn("store watch add failed", logx.Err(err), logx.String("dir", dir))
			if !sleep() {
				return
			}
			continue
		}

		backoff = restartBackoffBase
		w.log.Debug("store watcher started", logx.String("dir", dir), logx.String("file", dbBase))
		// Rows committed before the watch was registered produced no event.
		w.Trigger()

		broken := false
		for !broken {
			select {
			case <-ctx.Done():
				_ = fw.Close()
				return
			case ev, ok := <-fw.Events:
				if !ok {
					broken = true
					break
				}
				if ev.Op&(fsnotify.Create|fsnotify.Write) == 0 || !relevant(ev.Name, dbBase) {
					continue
				}
				quiet.Reset(w.cfg.Debounce)
			case <-quiet.C:
				w.Trigger()
			case err, ok := <-fw.Errors:
				if !ok {
					broken = true
					break
				}
				if err == nil {
					continue
				}
				msg := strings.ToLower(err.Error())
				if strings.Contains(msg, "overflow") {
					w.failures.Warn("store watch overflow; forcing check", logx.Err(err))
					w.Trigger()
					continue
				}
				w.failures.Warn("store watch error", logx.Err(err), logx.String("dir", dir))
				if strings.Contains(msg, "closed") {
					broken = true
				}
			}
		}

		_ = fw.Close()
		if ctx.Err() != nil {
			return
		}
		w.log.Warn("store watcher stopped; restarting", logx.String("dir", dir), logx.Duration("backoff", backoff))
		// Anything written while the watcher was down is picked up here or by the poll.
		w.Trigger()
		if !sleep() {
			return
		}
	}
}
