package notification

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEnums(t *testing.T) {
	t.Parallel()

	c, err := ParseBadgeColor("")
	require.NoError(t, err)
	assert.Equal(t, BadgeGray, c)

	c, err = ParseBadgeColor("Green")
	require.NoError(t, err)
	assert.Equal(t, BadgeGreen, c)

	_, err = ParseBadgeColor("purple")
	assert.True(t, errors.Is(err, ErrInvalidBadgeColor))

	i, err := ParseIcon("claude-code")
	require.NoError(t, err)
	assert.Equal(t, IconClaudeCode, i)

	_, err = ParseIcon("vim")
	assert.True(t, errors.Is(err, ErrInvalidIcon))
}

func TestInputNormalizeDefaults(t *testing.T) {
	t.Parallel()
	in, err := Input{Badge: "Stop"}.Normalize()
	require.NoError(t, err)
	assert.Equal(t, BadgeGray, in.BadgeColor)
	assert.Equal(t, IconAgentoast, in.Icon)
	assert.NotNil(t, in.Metadata)
}

func TestParseMetadataSkipsInvalidEntries(t *testing.T) {
	t.Parallel()
	m, warns := ParseMetadata([]string{"branch=main", "broken", "=x", "url=a=b", "branch=dev"})
	assert.Equal(t, map[string]string{"branch": "dev", "url": "a=b"}, m)
	require.Len(t, warns, 2)
	assert.Equal(t, "broken", warns[0].Entry)
	assert.Equal(t, "=x", warns[1].Entry)
}

func TestRelativeTime(t *testing.T) {
	t.Parallel()
	now := time.Date(2025, 1, 2, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		name string
		at   time.Time
		want string
	}{
		{name: "future", at: now.Add(time.Minute), want: "just now"},
		{name: "seconds", at: now.Add(-30 * time.Second), want: "just now"},
		{name: "minutes", at: now.Add(-5 * time.Minute), want: "5m ago"},
		{name: "hours", at: now.Add(-3 * time.Hour), want: "3h ago"},
		{name: "days", at: now.Add(-49 * time.Hour), want: "2d ago"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, RelativeTime(tt.at, now))
		})
	}
}

func TestChannelsDedupSkipsEmpty(t *testing.T) {
	t.Parallel()
	ns := []Notification{{Channel: "%1"}, {Channel: ""}, {Channel: "%2"}, {Channel: "%1"}}
	assert.Equal(t, []string{"%1", "%2"}, Channels(ns))
}

func TestLine(t *testing.T) {
	t.Parallel()
	now := time.Now()
	n := Notification{
		ID: 7, Badge: "Stop", Icon: IconCodex, GroupKey: "repo", Channel: "%3", Body: "done",
		Metadata: map[string]string{"branch": "main"}, CreatedAt: now,
	}
	assert.Equal(t, "* [7] Stop [codex] repo (pane:%3) done [branch=main] just now", Line(n, now))
}

func TestGroupByKey(t *testing.T) {
	t.Parallel()

	ns := []Notification{
		{ID: 5, GroupKey: "api"},
		{ID: 4, GroupKey: "web"},
		{ID: 3, GroupKey: "api"},
		{ID: 2, GroupKey: "api"},
		{ID: 1},
	}
	groups := GroupByKey(ns, 2)
	require.Len(t, groups, 3)

	assert.Equal(t, "api", groups[0].Key)
	assert.Equal(t, []int64{5, 3}, IDs(groups[0].Items))
	assert.Equal(t, 1, groups[0].Hidden)
	assert.Equal(t, "web", groups[1].Key)
	assert.Equal(t, "", groups[2].Key)

	all := GroupByKey(ns, 0)
	assert.Len(t, all[0].Items, 3)
	assert.Zero(t, all[0].Hidden)
}
