package notification

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// MetadataWarning describes a KEY=VALUE argument that was skipped.
type MetadataWarning struct {
	Entry  string
	Reason string
}

func (w MetadataWarning) String() string {
	return fmt.Sprintf("ignoring invalid metadata entry %q (%s)", w.Entry, w.Reason)
}

// ParseMetadata parses KEY=VALUE pairs. Invalid entries are skipped individually
// and reported as warnings; they never fail the whole insert. Later keys win.
func ParseMetadata(entries []string) (map[string]string, []MetadataWarning) {
	out := make(map[string]string, len(entries))
	var warns []MetadataWarning
	for _, e := range entries {
		k, v, ok := strings.Cut(e, "=")
		if !ok {
			warns = append(warns, MetadataWarning{Entry: e, Reason: "expected KEY=VALUE"})
			continue
		}
		k = strings.TrimSpace(k)
		if k == "" {
			warns = append(warns, MetadataWarning{Entry: e, Reason: "empty key"})
			continue
		}
		out[k] = v
	}
	return out, warns
}

// RelativeTime renders created relative to now the way the toast card does.
func RelativeTime(created, now time.Time) string {
	diff := now.Sub(created)
	switch {
	case diff < time.Minute:
		return "just now"
	case diff < time.Hour:
		return fmt.Sprintf("%dm ago", int(diff/time.Minute))
	case diff < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(diff/time.Hour))
	default:
		return fmt.Sprintf("%dd ago", int(diff/(24*time.Hour)))
	}
}

// Line renders a one-line summary used by the CLI list command and the console shell.
func Line(n Notification, now time.Time) string {
	var b strings.Builder
	if n.IsRead {
		b.WriteString("  ")
	} else {
		b.WriteString("* ")
	}
	fmt.Fprintf(&b, "[%d] %s [%s]", n.ID, n.Badge, n.Icon)
	if n.GroupKey != "" {
		fmt.Fprintf(&b, " %s", n.GroupKey)
	}
	if n.Channel != "" {
		fmt.Fprintf(&b, " (pane:%s)", n.Channel)
	}
	if n.Body != "" {
		b.WriteString(" ")
		b.WriteString(n.Body)
	}
	if len(n.Metadata) > 0 {
		keys := make([]string, 0, len(n.Metadata))
		for k := range n.Metadata {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		pairs := make([]string, 0, len(keys))
		for _, k := range keys {
			pairs = append(pairs, k+"="+n.Metadata[k])
		}
		fmt.Fprintf(&b, " [%s]", strings.Join(pairs, ", "))
	}
	if !n.CreatedAt.IsZero() {
		fmt.Fprintf(&b, " %s", RelativeTime(n.CreatedAt, now))
	}
	return b.String()
}
