// Package notification defines the notification record shared by producers,
// the store, and the presentation pipeline.
package notification

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrInvalidBadgeColor = errors.New("invalid badge color")
	ErrInvalidIcon       = errors.New("invalid icon")
)

// BadgeColor is the accent used for the badge pill.
type BadgeColor string

const (
	BadgeGreen BadgeColor = "green"
	BadgeBlue  BadgeColor = "blue"
	BadgeRed   BadgeColor = "red"
	BadgeGray  BadgeColor = "gray"
)

func ParseBadgeColor(s string) (BadgeColor, error) {
	switch c := BadgeColor(strings.ToLower(strings.TrimSpace(s))); c {
	case BadgeGreen, BadgeBlue, BadgeRed, BadgeGray:
		return c, nil
	case "":
		return BadgeGray, nil
	default:
		return "", fmt.Errorf("%w: %q (use green, blue, red, or gray)", ErrInvalidBadgeColor, s)
	}
}

// Icon selects the agent artwork shown next to the badge.
type Icon string

const (
	IconAgentoast  Icon = "agentoast"
	IconClaudeCode Icon = "claude-code"
	IconCodex      Icon = "codex"
	IconOpenCode   Icon = "opencode"
)

func ParseIcon(s string) (Icon, error) {
	switch i := Icon(strings.ToLower(strings.TrimSpace(s))); i {
	case IconAgentoast, IconClaudeCode, IconCodex, IconOpenCode:
		return i, nil
	case "":
		return IconAgentoast, nil
	default:
		return "", fmt.Errorf("%w: %q (use agentoast, claude-code, codex, or opencode)", ErrInvalidIcon, s)
	}
}

// Notification is one stored event.
//
// ID is assigned by the store and strictly increasing; it is the only safe
// ordering key. Channel (a multiplexer pane) is exclusive: at most one live
// row exists per non-empty channel.
type Notification struct {
	ID         int64             `json:"id"`
	Badge      string            `json:"badge"`
	Body       string            `json:"body"`
	BadgeColor BadgeColor        `json:"badgeColor"`
	Icon       Icon              `json:"icon"`
	Metadata   map[string]string `json:"metadata"`
	GroupKey   string            `json:"groupKey"`
	Channel    string            `json:"channel"`
	TerminalID string            `json:"terminalId"`
	ForceFocus bool              `json:"forceFocus"`
	IsRead     bool              `json:"isRead"`
	CreatedAt  time.Time         `json:"createdAt"`
}

// HasChannel reports whether n originated from an identifiable terminal surface.
func (n Notification) HasChannel() bool { return n.Channel != "" }

// Input is the producer insert contract.
type Input struct {
	Badge      string
	Body       string
	BadgeColor BadgeColor
	Icon       Icon
	Metadata   map[string]string
	GroupKey   string
	Channel    string
	TerminalID string
	ForceFocus bool
}

// Normalize fills defaults and validates enums.
func (in Input) Normalize() (Input, error) {
	c, err := ParseBadgeColor(string(in.BadgeColor))
	if err != nil {
		return in, err
	}
	ic, err := ParseIcon(string(in.Icon))
	if err != nil {
		return in, err
	}
	in.BadgeColor = c
	in.Icon = ic
	if in.Metadata == nil {
		in.Metadata = map[string]string{}
	}
	return in, nil
}

// Channels returns the distinct non-empty channels of ns in first-seen order.
func Channels(ns []Notification) []string {
	seen := make(map[string]struct{}, len(ns))
	out := make([]string, 0, len(ns))
	for _, n := range ns {
		if n.Channel == "" {
			continue
		}
		if _, ok := seen[n.Channel]; ok {
			continue
		}
		seen[n.Channel] = struct{}{}
		out = append(out, n.Channel)
	}
	return out
}

// IDs returns the ids of ns in order.
func IDs(ns []Notification) []int64 {
	out := make([]int64, len(ns))
	for i, n := range ns {
		out[i] = n.ID
	}
	return out
}
