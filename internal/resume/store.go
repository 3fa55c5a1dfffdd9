// Package resume persists the last active multiplayer session so the next
// launch can offer to rejoin it. The stored pair is an offer only; the
// room server decides whether the session still exists.
package resume

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"
)

// ErrNoSession marks an empty store.
var ErrNoSession = errors.New("no stored session")

// Session is the resumable pair: which room, playing which content.
type Session struct {
	RoomID    string
	ContentID string
	SavedAt   time.Time
}

// Store is a single-row sqlite store.
type Store struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS last_session (
    id         INTEGER PRIMARY KEY CHECK (id = 1),
    room_id    TEXT NOT NULL,
    content_id TEXT NOT NULL,
    saved_at   TIMESTAMP NOT NULL
);`

// Open opens the store at path, creating the schema if needed.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("resume store path is required")
	}

	dsn := filepath.Clean(path) + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close releases the underlying connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Save replaces the stored session.
func (s *Store) Save(ctx context.Context, roomID, contentID string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO last_session (id, room_id, content_id, saved_at)
		 VALUES (1, ?, ?, ?)
		 ON CONFLICT (id) DO UPDATE SET
		     room_id = excluded.room_id,
		     content_id = excluded.content_id,
		     saved_at = excluded.saved_at`,
		roomID, contentID, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	log.Debug().Str("room_id", roomID).Str("content_id", contentID).Msg("session saved")
	return nil
}

// Load returns the stored session, or ErrNoSession.
func (s *Store) Load(ctx context.Context) (Session, error) {
	var session Session
	err := s.db.QueryRowContext(ctx,
		`SELECT room_id, content_id, saved_at FROM last_session WHERE id = 1`).
		Scan(&session.RoomID, &session.ContentID, &session.SavedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Session{}, ErrNoSession
	}
	if err != nil {
		return Session{}, fmt.Errorf("load session: %w", err)
	}
	return session, nil
}

// Clear drops the stored session. Clearing an empty store is fine.
func (s *Store) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM last_session WHERE id = 1`); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}
