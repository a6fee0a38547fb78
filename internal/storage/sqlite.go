package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"agentoast/internal/notification"
	logx "agentoast/pkg/logx"
)

const createdAtLayout = "2006-01-02T15:04:05.000Z"

const selectColumns = `SELECT id, badge, body, badge_color, icon, metadata, group_key, channel,
	terminal_id, force_focus, is_read, created_at FROM notifications`

// Store is the notification store. It is safe for concurrent use.
type Store struct {
	db   *sqlx.DB
	path string
	log  logx.Logger
}

type row struct {
	ID         int64  `db:"id"`
	Badge      string `db:"badge"`
	Body       string `db:"body"`
	BadgeColor string `db:"badge_color"`
	Icon       string `db:"icon"`
	Metadata   string `db:"metadata"`
	GroupKey   string `db:"group_key"`
	Channel    string `db:"channel"`
	TerminalID string `db:"terminal_id"`
	ForceFocus bool   `db:"force_focus"`
	IsRead     bool   `db:"is_read"`
	CreatedAt  string `db:"created_at"`
}

func (r row) notification() notification.Notification {
	meta := map[string]string{}
	if r.Metadata != "" {
		// Unreadable metadata degrades to empty rather than failing the read.
		_ = json.Unmarshal([]byte(r.Metadata), &meta)
	}
	created, _ := time.Parse(createdAtLayout, r.CreatedAt)
	return notification.Notification{
		ID:         r.ID,
		Badge:      r.Badge,
		Body:       r.Body,
		BadgeColor: notification.BadgeColor(r.BadgeColor),
		Icon:       notification.Icon(r.Icon),
		Metadata:   meta,
		GroupKey:   r.GroupKey,
		Channel:    r.Channel,
		TerminalID: r.TerminalID,
		ForceFocus: r.ForceFocus,
		IsRead:     r.IsRead,
		CreatedAt:  created.UTC(),
	}
}

func toNotifications(rows []row) []notification.Notification {
	out := make([]notification.Notification, len(rows))
	for i, r := range rows {
		out[i] = r.notification()
	}
	return out
}

// Insert stores a notification and returns its id.
//
// A non-empty channel is exclusive: any existing row for it is deleted in the
// same transaction, so readers observe the replacement as one commit.
func (s *Store) Insert(ctx context.Context, in notification.Input) (int64, error) {
	if s == nil || s.db == nil {
		return 0, ErrClosed
	}
	in, err := in.Normalize()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	meta, err := json.Marshal(in.Metadata)
	if err != nil {
		return 0, opErr("insert", fmt.Errorf("marshaling metadata: %w", err))
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, opErr("insert", fmt.Errorf("beginning transaction: %w", err))
	}
	defer tx.Rollback()

	if in.Channel != "" {
		if _, err := tx.ExecContext(ctx, `DELETE FROM notifications WHERE channel = ?`, in.Channel); err != nil {
			return 0, opErr("insert", fmt.Errorf("replacing channel %s: %w", in.Channel, err))
		}
	}

	res, err := tx.ExecContext(ctx,
		`INSERT INTO notifications (badge, body, badge_color, icon, metadata, group_key, channel, terminal_id, force_focus)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		in.Badge, in.Body, string(in.BadgeColor), string(in.Icon), string(meta),
		in.GroupKey, in.Channel, in.TerminalID, in.ForceFocus,
	)
	if err != nil {
		return 0, opErr("insert", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, opErr("insert", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, opErr("insert", fmt.Errorf("commit: %w", err))
	}
	return id, nil
}

// List returns up to limit notifications, newest first.
func (s *Store) List(ctx context.Context, limit int) ([]notification.Notification, error) {
	if s == nil || s.db == nil {
		return nil, ErrClosed
	}
	if limit <= 0 {
		limit = DefaultListLimit
	}
	var rows []row
	if err := s.db.SelectContext(ctx, &rows,
		selectColumns+` ORDER BY created_at DESC, id DESC LIMIT ?`, limit); err != nil {
		return nil, opErr("list", err)
	}
	return toNotifications(rows), nil
}

// ListAfter returns every notification with id > cursor in ascending id order.
func (s *Store) ListAfter(ctx context.Context, cursor int64) ([]notification.Notification, error) {
	if s == nil || s.db == nil {
		return nil, ErrClosed
	}
	var rows []row
	if err := s.db.SelectContext(ctx, &rows,
		selectColumns+` WHERE id > ? ORDER BY id ASC`, cursor); err != nil {
		return nil, opErr("list_after", err)
	}
	return toNotifications(rows), nil
}

// LatestByChannel returns the live row for channel, or nil when there is none.
func (s *Store) LatestByChannel(ctx context.Context, channel string) (*notification.Notification, error) {
	if s == nil || s.db == nil {
		return nil, ErrClosed
	}
	var r row
	err := s.db.GetContext(ctx, &r,
		selectColumns+` WHERE channel = ? ORDER BY id DESC LIMIT 1`, channel)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, opErr("latest_by_channel", err)
	}
	n := r.notification()
	return &n, nil
}

func (s *Store) CountUnread(ctx context.Context) (int64, error) {
	if s == nil || s.db == nil {
		return 0, ErrClosed
	}
	var n int64
	if err := s.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM notifications WHERE is_read = 0`); err != nil {
		return 0, opErr("count_unread", err)
	}
	return n, nil
}

// MaxID returns the highest assigned id still present, or 0.
func (s *Store) MaxID(ctx context.Context) (int64, error) {
	if s == nil || s.db == nil {
		return 0, ErrClosed
	}
	var n int64
	if err := s.db.GetContext(ctx, &n, `SELECT COALESCE(MAX(id), 0) FROM notifications`); err != nil {
		return 0, opErr("max_id", err)
	}
	return n, nil
}

func (s *Store) Delete(ctx context.Context, id int64) error {
	if s == nil || s.db == nil {
		return ErrClosed
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM notifications WHERE id = ?`, id); err != nil {
		return opErr("delete", err)
	}
	return nil
}

// DeleteIDs deletes every listed id in one statement.
func (s *Store) DeleteIDs(ctx context.Context, ids []int64) (int64, error) {
	if s == nil || s.db == nil {
		return 0, ErrClosed
	}
	if len(ids) == 0 {
		return 0, nil
	}
	q, args, err := sqlx.In(`DELETE FROM notifications WHERE id IN (?)`, ids)
	if err != nil {
		return 0, opErr("delete_ids", err)
	}
	return s.exec(ctx, "delete_ids", s.db.Rebind(q), args...)
}

func (s *Store) DeleteByChannel(ctx context.Context, channel string) (int64, error) {
	if s == nil || s.db == nil {
		return 0, ErrClosed
	}
	return s.exec(ctx, "delete_by_channel", `DELETE FROM notifications WHERE channel = ?`, channel)
}

// DeleteByChannels deletes every row whose channel is in channels.
// Empty channel names are ignored; an empty set is a no-op.
func (s *Store) DeleteByChannels(ctx context.Context, channels []string) (int64, error) {
	if s == nil || s.db == nil {
		return 0, ErrClosed
	}
	set := make([]string, 0, len(channels))
	for _, c := range channels {
		if strings.TrimSpace(c) != "" {
			set = append(set, c)
		}
	}
	if len(set) == 0 {
		return 0, nil
	}
	q, args, err := sqlx.In(`DELETE FROM notifications WHERE channel IN (?)`, set)
	if err != nil {
		return 0, opErr("delete_by_channels", err)
	}
	return s.exec(ctx, "delete_by_channels", s.db.Rebind(q), args...)
}

func (s *Store) DeleteAll(ctx context.Context) error {
	if s == nil || s.db == nil {
		return ErrClosed
	}
	_, err := s.exec(ctx, "delete_all", `DELETE FROM notifications`)
	return err
}

func (s *Store) exec(ctx context.Context, op, q string, args ...any) (int64, error) {
	res, err := s.db.ExecContext(ctx, q, args...)
	if err != nil {
		return 0, opErr(op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, opErr(op, err)
	}
	return n, nil
}
