package storage

import (
	"context"
	_ "embed"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	logx "agentoast/pkg/logx"
)

//go:embed schema.sql
var schemaSQL string

const dropSQL = `DROP TABLE IF EXISTS notifications;`

// Open opens the store for write and initializes the schema.
//
// With cfg.ResetOnStart the table is dropped first, discarding anything a
// producer wrote while no presentation process was running. Only the
// presentation process may call Open.
func Open(ctx context.Context, cfg Config, log logx.Logger) (*Store, error) {
	s, err := attach(ctx, cfg, log)
	if err != nil {
		return nil, err
	}
	if cfg.ResetOnStart {
		s.log.Info("resetting notification store", logx.String("path", s.path))
		if _, err := s.db.ExecContext(ctx, dropSQL); err != nil {
			_ = s.db.Close()
			return nil, fmt.Errorf("dropping notifications table: %w", err)
		}
	}
	if err := s.migrate(ctx); err != nil {
		_ = s.db.Close()
		return nil, err
	}
	return s, nil
}

// OpenReader attaches to an initialized store. It never touches the schema,
// so it is safe for long-lived watcher connections and concurrent producers.
func OpenReader(ctx context.Context, cfg Config, log logx.Logger) (*Store, error) {
	s, err := attach(ctx, cfg, log)
	if err != nil {
		return nil, err
	}
	ok, err := s.initialized(ctx)
	if err != nil {
		_ = s.db.Close()
		return nil, err
	}
	if !ok {
		_ = s.db.Close()
		return nil, fmt.Errorf("%w: %s", ErrNotInitialized, s.path)
	}
	return s, nil
}

// OpenProducer attaches for a single insert. If no presentation process has
// ever initialized the store, the table is created; an existing table is
// never dropped.
func OpenProducer(ctx context.Context, cfg Config, log logx.Logger) (*Store, error) {
	s, err := attach(ctx, cfg, log)
	if err != nil {
		return nil, err
	}
	ok, err := s.initialized(ctx)
	if err != nil {
		_ = s.db.Close()
		return nil, err
	}
	if !ok {
		if err := s.migrate(ctx); err != nil {
			_ = s.db.Close()
			return nil, err
		}
	}
	return s, nil
}

func attach(ctx context.Context, cfg Config, log logx.Logger) (*Store, error) {
	path := strings.TrimSpace(cfg.Path)
	if path == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating store dir: %w", err)
	}

	db, err := sqlx.Open("sqlite", dsn(path, cfg))
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	return &Store{db: db, path: path, log: log}, nil
}

// dsn sets pragmas per connection so every pooled reader gets WAL + busy timeout.
// _txlock=immediate takes the write lock at BEGIN, so the busy timeout applies
// instead of failing a read-to-write upgrade.
func dsn(path string, cfg Config) string {
	busy := cfg.BusyTimeout
	if busy <= 0 {
		busy = DefaultBusyTimeout
	}
	q := url.Values{}
	q.Add("_pragma", fmt.Sprintf("busy_timeout(%d)", busy.Milliseconds()))
	q.Add("_pragma", "journal_mode(WAL)")
	q.Add("_pragma", "synchronous(NORMAL)")
	q.Set("_txlock", "immediate")
	return "file:" + path + "?" + q.Encode()
}

func (s *Store) initialized(ctx context.Context) (bool, error) {
	var n int
	err := s.db.GetContext(ctx, &n,
		"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='notifications'")
	if err != nil {
		return false, fmt.Errorf("checking notifications table: %w", err)
	}
	return n > 0, nil
}

func (s *Store) migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("applying schema: %w", err)
	}
	return nil
}

// Path returns the database file path.
func (s *Store) Path() string { return s.path }

// Files returns the basenames whose changes indicate a commit: the data file
// plus the engine's write-ahead log and shared-memory files.
func Files(path string) []string {
	base := filepath.Base(path)
	return []string{base, base + "-wal", base + "-shm"}
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}
