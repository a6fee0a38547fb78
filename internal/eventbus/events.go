package eventbus

import (
	"agentoast/internal/notification"
)

type Type string

const (
	// ToastShow carries ToastShowData on every toast render.
	ToastShow Type = "toast_show"
	// ToastHidden is published when the toast finishes fading out.
	ToastHidden Type = "toast_hidden"
	// ListRefresh carries the []notification.Notification a list view should add.
	ListRefresh Type = "list_refresh"
	// UnreadCountChanged carries the new unread count as int64.
	UnreadCountChanged Type = "unread_count_changed"
	// MuteChanged carries the policy.MuteSnapshot after a toggle.
	MuteChanged Type = "mute_changed"
)

type ToastShowData struct {
	Current notification.Notification `json:"current"`
	Index   int                       `json:"index"`
	Total   int                       `json:"total"`
}

// Emit publishes an event of type t. A nil bus is a no-op.
func Emit(b Bus, t Type, data any) {
	if b == nil {
		return
	}
	b.Publish(Event{Type: t, Data: data})
}
