// Package sqlite is the default durable backend for the session store: one
// row per session, events and state as JSON blobs, single-row upserts.
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

	"github.com/marcovillca/tanda-agent/internal/domain"
	"github.com/marcovillca/tanda-agent/internal/session"
)

type Store struct {
	db *sql.DB
}

// NewStore opens or creates a SQLite database at the given path.
func NewStore(dbPath string) (*Store, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS sessions (
		session_id       TEXT PRIMARY KEY,
		app_name         TEXT NOT NULL,
		user_id          TEXT NOT NULL,
		events           TEXT NOT NULL DEFAULT '[]',
		state            TEXT NOT NULL DEFAULT '{}',
		last_update_time TEXT NOT NULL,
		created_at       TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_sessions_app_user ON sessions(app_name, user_id);
	`
	_, err := s.db.Exec(schema)
	return err
}

func (s *Store) Close() error {
	return s.db.Close()
}

// PutSession upserts the whole session row.
func (s *Store) PutSession(ctx context.Context, sess *domain.Session) error {
	rec, err := session.EncodeRecord(sess)
	if err != nil {
		return fmt.Errorf("sqlite PutSession: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO sessions (session_id, app_name, user_id, events, state, last_update_time, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(session_id) DO UPDATE SET
			events = excluded.events,
			state = excluded.state,
			last_update_time = excluded.last_update_time`,
		rec.SessionID,
		rec.AppName,
		rec.UserID,
		string(rec.Events),
		string(rec.State),
		rec.LastUpdateTime.Format(time.RFC3339Nano),
		rec.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("sqlite PutSession: %w", err)
	}
	return nil
}

func (s *Store) GetSession(ctx context.Context, id domain.SessionID) (*domain.Session, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT session_id, app_name, user_id, events, state, last_update_time, created_at
		FROM sessions WHERE session_id = ?`, string(id))

	rec, err := scanRecord(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrSessionNotFound
		}
		return nil, fmt.Errorf("sqlite GetSession: %w", err)
	}
	return session.DecodeRecord(rec)
}

func (s *Store) ListSessions(ctx context.Context, appName string, userID domain.UserID) ([]*domain.Session, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT session_id, app_name, user_id, events, state, last_update_time, created_at
		FROM sessions WHERE app_name = ? AND user_id = ?
		ORDER BY created_at DESC`, appName, string(userID))
	if err != nil {
		return nil, fmt.Errorf("sqlite ListSessions: %w", err)
	}
	defer rows.Close()

	var out []*domain.Session
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite ListSessions scan: %w", err)
		}
		sess, err := session.DecodeRecord(rec)
		if err != nil {
			return nil, fmt.Errorf("sqlite ListSessions decode: %w", err)
		}
		out = append(out, sess)
	}
	return out, rows.Err()
}

func (s *Store) DeleteSession(ctx context.Context, id domain.SessionID) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE session_id = ?`, string(id)); err != nil {
		return fmt.Errorf("sqlite DeleteSession: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*session.Record, error) {
	var (
		rec              session.Record
		events, state    string
		updated, created string
	)
	if err := row.Scan(&rec.SessionID, &rec.AppName, &rec.UserID, &events, &state, &updated, &created); err != nil {
		return nil, err
	}
	rec.Events = []byte(events)
	rec.State = []byte(state)

	var err error
	if rec.LastUpdateTime, err = time.Parse(time.RFC3339Nano, updated); err != nil {
		return nil, fmt.Errorf("parse last_update_time: %w", err)
	}
	if rec.CreatedAt, err = time.Parse(time.RFC3339Nano, created); err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	return &rec, nil
}
