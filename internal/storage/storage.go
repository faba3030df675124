// Package storage provides the durable client-side store backing sage.
// A single sqlite database holds the credential and small config values
// plus a cache of the server's session list and per-session history, so
// the UI can paint instantly and degrade gracefully when offline.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

// Storage wraps the local sqlite database.
type Storage struct {
	db   *sql.DB
	path string
}

// Session is a cached chat session row.
type Session struct {
	ID       string
	Title    string
	Position int
}

// Message is a cached history row.
type Message struct {
	Sender   string
	Text     string
	Type     string
	Position int
}

// New opens (creating if needed) the sage database under dataDir.
func New(dataDir string) (*Storage, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	dbPath := filepath.Join(dataDir, "sage.db")
	db, err := sql.Open("sqlite3", dbPath+"?_journal=WAL&_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	s := &Storage{db: db, path: dbPath}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return s, nil
}

func (s *Storage) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS config (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS sessions (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		position INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_sessions_position ON sessions(position);

	CREATE TABLE IF NOT EXISTS messages (
		session_id TEXT NOT NULL,
		position INTEGER NOT NULL,
		sender TEXT NOT NULL,
		text TEXT NOT NULL,
		type TEXT,
		PRIMARY KEY (session_id, position)
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Path returns the database file location.
func (s *Storage) Path() string {
	return s.path
}

// Ping verifies the database is reachable.
func (s *Storage) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close releases the database handle.
func (s *Storage) Close() error {
	return s.db.Close()
}

// Config operations

// GetConfig returns the value for key, or "" if unset.
func (s *Storage) GetConfig(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM config WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return value, err
}

// SetConfig stores a config value under key.
func (s *Storage) SetConfig(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO config (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	return err
}

// DeleteConfig removes a config value.
func (s *Storage) DeleteConfig(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM config WHERE key = ?`, key)
	return err
}

// Session cache operations

// ReplaceSessions swaps the cached session list wholesale, preserving
// the server's ordering.
func (s *Storage) ReplaceSessions(ctx context.Context, sessions []Session) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM sessions`); err != nil {
		return err
	}
	for i, sess := range sessions {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO sessions (id, title, position) VALUES (?, ?, ?)
		`, sess.ID, sess.Title, i); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// ListSessions returns the cached session list in server order.
func (s *Storage) ListSessions(ctx context.Context) ([]Session, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title, position FROM sessions ORDER BY position ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []Session
	for rows.Next() {
		var sess Session
		if err := rows.Scan(&sess.ID, &sess.Title, &sess.Position); err != nil {
			return nil, err
		}
		sessions = append(sessions, sess)
	}
	return sessions, rows.Err()
}

// RenameSession updates a cached session title in place.
func (s *Storage) RenameSession(ctx context.Context, id, title string) error {
	_, err := s.db.ExecContext(ctx, `UPDATE sessions SET title = ? WHERE id = ?`, title, id)
	return err
}

// DeleteSession removes a cached session and its history.
func (s *Storage) DeleteSession(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM messages WHERE session_id = ?`, id); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id)
	return err
}

// History cache operations

// ReplaceHistory swaps the cached history for a session wholesale.
func (s *Storage) ReplaceHistory(ctx context.Context, sessionID string, msgs []Message) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM messages WHERE session_id = ?`, sessionID); err != nil {
		return err
	}
	for i, m := range msgs {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO messages (session_id, position, sender, text, type)
			VALUES (?, ?, ?, ?, ?)
		`, sessionID, i, m.Sender, m.Text, m.Type); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// GetHistory returns the cached history for a session in order.
func (s *Storage) GetHistory(ctx context.Context, sessionID string) ([]Message, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT position, sender, text, COALESCE(type, '')
		FROM messages WHERE session_id = ? ORDER BY position ASC
	`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var msgs []Message
	for rows.Next() {
		var m Message
		if err := rows.Scan(&m.Position, &m.Sender, &m.Text, &m.Type); err != nil {
			return nil, err
		}
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}

// AppendMessages appends to a session's cached history after the
// current tail. Used for optimistic local echoes.
func (s *Storage) AppendMessages(ctx context.Context, sessionID string, msgs []Message) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var next sql.NullInt64
	if err := tx.QueryRowContext(ctx, `
		SELECT MAX(position) + 1 FROM messages WHERE session_id = ?
	`, sessionID).Scan(&next); err != nil {
		return err
	}
	start := int64(0)
	if next.Valid {
		start = next.Int64
	}

	for i, m := range msgs {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO messages (session_id, position, sender, text, type)
			VALUES (?, ?, ?, ?, ?)
		`, sessionID, start+int64(i), m.Sender, m.Text, m.Type); err != nil {
			return err
		}
	}
	return tx.Commit()
}
