// Package sqlite provides a durable core.MemoryBackend backed by a single
// SQLite file using the pure-Go modernc.org/sqlite driver.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/hupe1980/insighthub/core"
)

const schema = `
CREATE TABLE IF NOT EXISTS memory_entries (
	session_id TEXT NOT NULL,
	key        TEXT NOT NULL,
	value      BLOB NOT NULL,
	written_at INTEGER NOT NULL,
	expires_at INTEGER NOT NULL,
	PRIMARY KEY (session_id, key)
);
CREATE INDEX IF NOT EXISTS idx_memory_entries_expires ON memory_entries(expires_at);
`

// noExpiry marks rows written with a non-positive TTL.
const noExpiry = int64(1<<63 - 1)

// Backend implements core.MemoryBackend on SQLite.
type Backend struct {
	conn *sql.DB
	path string
	now  func() time.Time
}

// Open opens (and migrates) the database at path. It creates parent
// directories if they don't exist. WAL mode is enabled for concurrent reads.
func Open(path string) (*Backend, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// SQLite allows a single writer at a time.
	conn.SetMaxOpenConns(1)

	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}

	if _, err := conn.Exec("PRAGMA busy_timeout=5000"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}

	if _, err := conn.Exec(schema); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate memory_entries: %w", err)
	}

	return &Backend{conn: conn, path: path, now: time.Now}, nil
}

// Path returns the database file path.
func (b *Backend) Path() string { return b.path }

// Name implements core.MemoryBackend.
func (b *Backend) Name() string { return "sqlite" }

// Ping implements core.MemoryBackend.
func (b *Backend) Ping(ctx context.Context) error { return b.conn.PingContext(ctx) }

// Set implements core.MemoryBackend.
func (b *Backend) Set(ctx context.Context, sessionID, key string, value []byte, ttl time.Duration) error {
	now := b.now()

	expires := noExpiry
	if ttl > 0 {
		expires = now.Add(ttl).UnixNano()
	}

	_, err := b.conn.ExecContext(ctx, `
		INSERT INTO memory_entries (session_id, key, value, written_at, expires_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(session_id, key) DO UPDATE SET
			value = excluded.value,
			written_at = excluded.written_at,
			expires_at = excluded.expires_at
	`, sessionID, key, value, now.UnixNano(), expires)
	if err != nil {
		return fmt.Errorf("upsert entry: %w", err)
	}

	return nil
}

// Get implements core.MemoryBackend.
func (b *Backend) Get(ctx context.Context, sessionID, key string) ([]byte, bool, error) {
	var value []byte

	err := b.conn.QueryRowContext(ctx, `
		SELECT value FROM memory_entries
		WHERE session_id = ? AND key = ? AND expires_at > ?
	`, sessionID, key, b.now().UnixNano()).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}

	if err != nil {
		return nil, false, fmt.Errorf("query entry: %w", err)
	}

	return value, true, nil
}

// List implements core.MemoryBackend.
func (b *Backend) List(ctx context.Context, sessionID string) ([]core.MemoryEntry, error) {
	rows, err := b.conn.QueryContext(ctx, `
		SELECT key, value, written_at FROM memory_entries
		WHERE session_id = ? AND expires_at > ?
		ORDER BY written_at, key
	`, sessionID, b.now().UnixNano())
	if err != nil {
		return nil, fmt.Errorf("query entries: %w", err)
	}
	defer rows.Close()

	entries := []core.MemoryEntry{}

	for rows.Next() {
		var (
			e         core.MemoryEntry
			value     []byte
			writtenAt int64
		)

		if err := rows.Scan(&e.Key, &value, &writtenAt); err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}

		e.SessionID = sessionID
		e.Value = value
		e.WrittenAt = time.Unix(0, writtenAt)
		entries = append(entries, e)
	}

	return entries, rows.Err()
}

// Delete implements core.MemoryBackend. Expired rows of every session are
// purged at the same time.
func (b *Backend) Delete(ctx context.Context, sessionID string) error {
	_, err := b.conn.ExecContext(ctx,
		`DELETE FROM memory_entries WHERE session_id = ? OR expires_at <= ?`,
		sessionID, b.now().UnixNano())
	if err != nil {
		return fmt.Errorf("delete entries: %w", err)
	}
	return nil
}

// Close implements core.MemoryBackend.
func (b *Backend) Close() error { return b.conn.Close() }
