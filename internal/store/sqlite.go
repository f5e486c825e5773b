package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	_ "modernc.org/sqlite" // Pure-Go SQLite driver.

	"trading-bot-backend/internal/interfaces"
)

var (
	// ErrNotInitialized is returned when the database was never opened or is closed.
	ErrNotInitialized = errors.New("database not initialized")
	ErrNotFound       = errors.New("not found")
)

const schema = `
CREATE TABLE IF NOT EXISTS trades (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	symbol     TEXT    NOT NULL,
	side       TEXT    NOT NULL CHECK (side IN ('BUY','SELL')),
	qty        INTEGER NOT NULL CHECK (qty >= 1),
	price      REAL,
	status     TEXT    NOT NULL,
	reason     TEXT,
	pnl        REAL,
	created_at INTEGER NOT NULL,
	updated_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_trades_created_at ON trades(created_at);

CREATE TABLE IF NOT EXISTS config_items (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	key        TEXT    NOT NULL UNIQUE,
	value      TEXT    NOT NULL,
	updated_at INTEGER NOT NULL,
	active     INTEGER NOT NULL DEFAULT 1
);
`

var _ interfaces.SessionProvider = (*DB)(nil)

// DB is the relational store holding trades and config items.
type DB struct {
	db     *sql.DB
	closed atomic.Bool
	now    func() time.Time
}

// Open opens (or creates) the SQLite database at path and ensures the schema.
func Open(ctx context.Context, path string) (*DB, error) {
	db, err := sql.Open("sqlite", dsn(path))
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return &DB{db: db, now: time.Now}, nil
}

func dsn(path string) string {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + "_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
}

// Close closes the database. Further use returns ErrNotInitialized.
func (d *DB) Close() error {
	if d == nil || d.db == nil || d.closed.Swap(true) {
		return nil
	}
	return d.db.Close()
}

// Acquire checks out a dedicated connection. The caller must Close the session.
func (d *DB) Acquire(ctx context.Context) (interfaces.Session, error) {
	if d == nil || d.db == nil || d.closed.Load() {
		return nil, ErrNotInitialized
	}
	conn, err := d.db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	return &Session{conn: conn, now: d.now}, nil
}

// querier is the subset of *sql.Conn used by the repositories.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Session is one scoped connection serving both trade and config access.
type Session struct {
	conn *sql.Conn
	now  func() time.Time
}

var _ interfaces.Session = (*Session)(nil)

func (s *Session) q() (querier, error) {
	if s == nil || s.conn == nil {
		return nil, ErrNotInitialized
	}
	return s.conn, nil
}

// Close returns the connection to the pool. Safe to call twice.
func (s *Session) Close() error {
	if s == nil || s.conn == nil {
		return nil
	}
	err := s.conn.Close()
	s.conn = nil
	if errors.Is(err, sql.ErrConnDone) {
		return nil
	}
	return err
}

func toMicros(t time.Time) int64 { return t.UTC().UnixMicro() }

func fromMicros(v int64) time.Time { return time.UnixMicro(v).UTC() }
