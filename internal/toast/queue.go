// Package toast implements the toast display queue.
//
// Queue holds the pure state machine. Controller owns a Queue on a single
// goroutine, arms its timers and applies store and focus side effects.
package toast

import (
	"agentoast/internal/notification"
)

type State int

const (
	Hidden State = iota
	Showing
	FadingOut
)

func (s State) String() string {
	switch s {
	case Hidden:
		return "hidden"
	case Showing:
		return "showing"
	case FadingOut:
		return "fading_out"
	default:
		return "unknown"
	}
}

// Action is a side effect requested by a user transition.
type Action struct {
	// DeleteID is the row to delete, or 0.
	DeleteID int64
	// Focus is set when the item's originating surface should be focused.
	Focus  bool
	Target notification.Notification
}

// Queue is the toast state machine. It is not safe for concurrent use.
//
// Items are in display order: index 0 is the most recent notification of the
// last batch shown.
type Queue struct {
	state State
	items []notification.Notification
	index int
}

func (q *Queue) State() State { return q.state }
func (q *Queue) Index() int   { return q.index }
func (q *Queue) Len() int     { return len(q.items) }

// Items returns a copy of the queue in display order.
func (q *Queue) Items() []notification.Notification {
	out := make([]notification.Notification, len(q.items))
	copy(out, q.items)
	return out
}

// Current returns the item on screen.
func (q *Queue) Current() (notification.Notification, bool) {
	if q.state == Hidden || q.index < 0 || q.index >= len(q.items) {
		return notification.Notification{}, false
	}
	return q.items[q.index], true
}

func (q *Queue) hasNext() bool { return q.index+1 < len(q.items) }

// Show displays batch, given in ascending id order.
//
// From Hidden the queue is replaced by the batch, newest first. Otherwise the
// not-yet-displayed remainder (current item included) is kept behind the new
// batch, minus any item whose channel the batch supersedes.
func (q *Queue) Show(batch []notification.Notification) {
	if len(batch) == 0 {
		return
	}
	fresh := reversed(batch)
	if q.state == Hidden || len(q.items) == 0 {
		q.items = fresh
		q.index = 0
		q.state = Showing
		return
	}

	channels := make(map[string]struct{}, len(batch))
	for _, n := range batch {
		if n.Channel != "" {
			channels[n.Channel] = struct{}{}
		}
	}
	start := q.index
	if start > len(q.items) {
		start = len(q.items)
	}
	for _, it := range q.items[start:] {
		if it.Channel != "" {
			if _, stale := channels[it.Channel]; stale {
				continue
			}
		}
		fresh = append(fresh, it)
	}
	q.items = fresh
	q.index = 0
	q.state = Showing
}

// advance moves to the next item, or starts fading out when there is none.
// It reports whether an item is now showing.
func (q *Queue) advance() bool {
	if q.hasNext() {
		q.index++
		return true
	}
	q.state = FadingOut
	return false
}

// Timeout is the auto-advance timer firing.
func (q *Queue) Timeout() bool {
	if q.state != Showing {
		return false
	}
	return q.advance()
}

// DismissKeep closes the current item without touching the store.
func (q *Queue) DismissKeep() bool {
	if q.state != Showing {
		return false
	}
	return q.advance()
}

// DismissDelete closes the current item and asks for its row to be deleted.
// Force-focus items are never deleted here; the dispatcher already removed them.
func (q *Queue) DismissDelete() (Action, bool) {
	cur, ok := q.Current()
	if !ok || q.state != Showing {
		return Action{}, false
	}
	var a Action
	if !cur.ForceFocus {
		a.DeleteID = cur.ID
	}
	return a, q.advance()
}

// Click activates the current item: delete it unless force-focus, and focus
// its surface when it has a channel.
func (q *Queue) Click() (Action, bool) {
	cur, ok := q.Current()
	if !ok || q.state != Showing {
		return Action{}, false
	}
	a := Action{Target: cur}
	if !cur.ForceFocus {
		a.DeleteID = cur.ID
	}
	if cur.Channel != "" {
		a.Focus = true
	}
	return a, q.advance()
}

// FadeComplete hides the toast and clears the queue.
func (q *Queue) FadeComplete() {
	q.state = Hidden
	q.items = nil
	q.index = 0
}

func reversed(in []notification.Notification) []notification.Notification {
	out := make([]notification.Notification, len(in))
	for i, n := range in {
		out[len(in)-1-i] = n
	}
	return out
}
