// Package history keeps finished CLI sessions in a local SQLite file.
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/cx-tal-miterani/flight-assistant/shared/models"
)

var (
	ErrNotFound    = errors.New("session not found")
	ErrStoreClosed = errors.New("history store closed")
)

const schema = `
CREATE TABLE IF NOT EXISTS sessions (
	session_id  TEXT PRIMARY KEY,
	outcome     TEXT NOT NULL,
	rounds      INTEGER NOT NULL,
	finished_at TEXT NOT NULL,
	data        BLOB NOT NULL
)`

// Entry is one stored session
type Entry struct {
	SessionID  string
	Outcome    models.Outcome
	Rounds     int
	FinishedAt time.Time
	State      *models.PipelineState
}

// Store persists session snapshots
type Store struct {
	db     *sql.DB
	mu     sync.RWMutex
	closed bool
}

// Open opens (and if needed creates) the history database at path.
// Use ":memory:" for a throwaway store.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}
	s, err := NewStore(db)
	if err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// NewStore wraps an open database and makes sure the table exists
func NewStore(db *sql.DB) (*Store, error) {
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("create table: %w", err)
	}
	return &Store{db: db}, nil
}

// Save stores the final state of a session, replacing an earlier copy
func (s *Store) Save(ctx context.Context, state *models.PipelineState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrStoreClosed
	}

	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	finished := state.UpdatedAt
	if finished.IsZero() {
		finished = time.Now()
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO sessions (session_id, outcome, rounds, finished_at, data)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(session_id) DO UPDATE SET
			outcome = excluded.outcome,
			rounds = excluded.rounds,
			finished_at = excluded.finished_at,
			data = excluded.data`,
		state.SessionID, string(state.Outcome), state.Round, finished.UTC().Format(time.RFC3339Nano), data)
	if err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// Get loads one session
func (s *Store) Get(ctx context.Context, sessionID string) (*Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrStoreClosed
	}

	row := s.db.QueryRowContext(ctx, `
		SELECT session_id, outcome, rounds, finished_at, data
		FROM sessions WHERE session_id = ?`, sessionID)
	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	return e, nil
}

// List returns the most recent sessions first
func (s *Store) List(ctx context.Context, limit int) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrStoreClosed
	}
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT session_id, outcome, rounds, finished_at, data
		FROM sessions ORDER BY finished_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		entries = append(entries, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}
	return entries, nil
}

// Close releases the database
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(row scanner) (*Entry, error) {
	var (
		e        Entry
		outcome  string
		finished string
		data     []byte
	)
	if err := row.Scan(&e.SessionID, &outcome, &e.Rounds, &finished, &data); err != nil {
		return nil, err
	}
	e.Outcome = models.Outcome(outcome)

	t, err := time.Parse(time.RFC3339Nano, finished)
	if err != nil {
		return nil, fmt.Errorf("bad timestamp %q: %w", finished, err)
	}
	e.FinishedAt = t

	var state models.PipelineState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("decode session %s: %w", e.SessionID, err)
	}
	e.State = &state
	return &e, nil
}
