package producer

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agentoast/internal/notification"
	"agentoast/internal/storage"
	logx "agentoast/pkg/logx"
)

type stubGit struct {
	info GitInfo
	err  error
}

func (g stubGit) Info(context.Context, string) (GitInfo, error) { return g.info, g.err }

func TestPrepareFillsFromEnvironmentAndGit(t *testing.T) {
	in, warns, err := Prepare(context.Background(), Options{
		Badge: "Stop",
		Icon:  "claude-code",
		Meta:  []string{"model=opus", "oops"},
	}, Env{TmuxPane: "%7", TerminalID: "com.mitchellh.ghostty"}, stubGit{info: GitInfo{Repo: "agentoast", Branch: "main"}})
	require.NoError(t, err)

	assert.Equal(t, "%7", in.Channel)
	assert.Equal(t, "com.mitchellh.ghostty", in.TerminalID)
	assert.Equal(t, "agentoast", in.GroupKey)
	assert.Equal(t, notification.BadgeGray, in.BadgeColor)
	assert.Equal(t, notification.IconClaudeCode, in.Icon)
	assert.Equal(t, map[string]string{"model": "opus", "branch": "main"}, in.Metadata)
	require.Len(t, warns, 1)
	assert.Contains(t, warns[0], "oops")
}

func TestPrepareExplicitValuesWin(t *testing.T) {
	in, _, err := Prepare(context.Background(), Options{
		Group:   "mine",
		Channel: "%1",
		Meta:    []string{"branch=feature"},
	}, Env{TmuxPane: "%7"}, stubGit{info: GitInfo{Repo: "agentoast", Branch: "main"}})
	require.NoError(t, err)
	assert.Equal(t, "mine", in.GroupKey)
	assert.Equal(t, "%1", in.Channel)
	assert.Equal(t, "feature", in.Metadata["branch"])
}

func TestPrepareOutsideRepository(t *testing.T) {
	in, warns, err := Prepare(context.Background(), Options{}, Env{}, stubGit{err: ErrNotRepository})
	require.NoError(t, err)
	assert.Empty(t, in.GroupKey)
	assert.Len(t, warns, 1)
}

func TestPrepareRejectsInvalidEnums(t *testing.T) {
	_, _, err := Prepare(context.Background(), Options{Icon: "vim"}, Env{}, nil)
	assert.True(t, errors.Is(err, notification.ErrInvalidIcon))
}

func TestLoadEnv(t *testing.T) {
	t.Setenv("TMUX_PANE", "%3")
	t.Setenv("__CFBundleIdentifier", "com.apple.Terminal")
	e, err := LoadEnv()
	require.NoError(t, err)
	assert.Equal(t, Env{TmuxPane: "%3", TerminalID: "com.apple.Terminal"}, e)
}

func TestSendReportsResult(t *testing.T) {
	ctx := context.Background()
	cfg := storage.Config{Path: filepath.Join(t.TempDir(), "notifications.db")}
	s, err := storage.OpenProducer(ctx, cfg, logx.Nop())
	require.NoError(t, err)
	defer s.Close()

	r := Send(ctx, s, notification.Input{Badge: "Stop"})
	assert.True(t, r.Success)
	assert.Positive(t, r.ID)
	assert.JSONEq(t, `{"success":true,"id":1}`, r.JSON())

	r = Send(ctx, s, notification.Input{BadgeColor: "purple"})
	assert.False(t, r.Success)
	assert.NotEmpty(t, r.Error)
}
