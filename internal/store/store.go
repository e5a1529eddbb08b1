// Package store persists the turn log and the world state of each
// conversation in SQLite.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	apperrors "github.com/tatianab/grave-master/internal/errors"
	"github.com/tatianab/grave-master/internal/models"
)

// ErrNotFound is returned when a conversation has no stored state.
var ErrNotFound = apperrors.New(apperrors.CodeNotFound, "conversation not found")

// Store is a SQLite-backed turn log. A turn's log entry and the resulting
// world state are written in one transaction.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes the database at path. ":memory:" opens a private
// in-memory database.
func Open(path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One connection serialises writers and keeps :memory: a single database.
	db.SetMaxOpenConns(1)

	s := &Store{db: db, path: path}
	if err := s.initialize(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS turn_log (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		conversation_id TEXT NOT NULL,
		sequence_index INTEGER NOT NULL,
		prompt TEXT NOT NULL,
		response TEXT NOT NULL,
		state_snapshot TEXT NOT NULL,
		created_at TEXT NOT NULL,
		UNIQUE(conversation_id, sequence_index)
	);
	CREATE INDEX IF NOT EXISTS idx_turn_log_conversation ON turn_log(conversation_id);

	CREATE TABLE IF NOT EXISTS sessions (
		conversation_id TEXT PRIMARY KEY,
		state TEXT NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create tables: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func storageErr(op string, err error) error {
	return apperrors.Wrap(apperrors.CodeStorage, op, err)
}

// Commit appends entry at the next sequence index of its conversation and,
// when state is non-nil, replaces the stored world state. Both writes succeed
// or neither does. The returned entry carries the assigned index and time.
func (s *Store) Commit(ctx context.Context, entry models.TurnLogEntry, state []byte) (models.TurnLogEntry, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return entry, storageErr("begin turn", err)
	}
	defer tx.Rollback()

	var next int
	err = tx.QueryRowContext(ctx,
		"SELECT COALESCE(MAX(sequence_index) + 1, 0) FROM turn_log WHERE conversation_id = ?",
		entry.ConversationID,
	).Scan(&next)
	if err != nil {
		return entry, storageErr("read sequence index", err)
	}

	entry.SequenceIndex = next
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO turn_log (conversation_id, sequence_index, prompt, response, state_snapshot, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		entry.ConversationID, entry.SequenceIndex, entry.Prompt, entry.Response, entry.StateSnapshot,
		entry.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return entry, storageErr("append turn", err)
	}

	if state != nil {
		if err := saveState(ctx, tx, entry.ConversationID, state, entry.CreatedAt); err != nil {
			return entry, err
		}
	}

	if err := tx.Commit(); err != nil {
		return entry, storageErr("commit turn", err)
	}
	return entry, nil
}

// Append adds a log entry without touching the stored state.
func (s *Store) Append(ctx context.Context, entry models.TurnLogEntry) (models.TurnLogEntry, error) {
	return s.Commit(ctx, entry, nil)
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func saveState(ctx context.Context, db execer, id string, state []byte, at time.Time) error {
	ts := at.Format(time.RFC3339Nano)
	_, err := db.ExecContext(ctx,
		`INSERT INTO sessions (conversation_id, state, created_at, updated_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(conversation_id) DO UPDATE SET state = excluded.state, updated_at = excluded.updated_at`,
		id, string(state), ts, ts,
	)
	if err != nil {
		return storageErr("save state", err)
	}
	return nil
}

// SaveState stores the world state of a conversation outside of a turn.
func (s *Store) SaveState(ctx context.Context, id string, state []byte) error {
	return saveState(ctx, s.db, id, state, time.Now().UTC())
}

// LoadState returns the stored world state, or ErrNotFound.
func (s *Store) LoadState(ctx context.Context, id string) ([]byte, error) {
	var state string
	err := s.db.QueryRowContext(ctx,
		"SELECT state FROM sessions WHERE conversation_id = ?", id,
	).Scan(&state)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, storageErr("load state", err)
	}
	return []byte(state), nil
}

// QueryAll returns every entry of a conversation in sequence order.
func (s *Store) QueryAll(ctx context.Context, id string) ([]models.TurnLogEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT sequence_index, prompt, response, state_snapshot, created_at
		 FROM turn_log WHERE conversation_id = ? ORDER BY sequence_index ASC`,
		id,
	)
	if err != nil {
		return nil, storageErr("query turns", err)
	}
	defer rows.Close()

	var entries []models.TurnLogEntry
	for rows.Next() {
		e := models.TurnLogEntry{ConversationID: id}
		var created string
		if err := rows.Scan(&e.SequenceIndex, &e.Prompt, &e.Response, &e.StateSnapshot, &created); err != nil {
			return nil, storageErr("scan turn", err)
		}
		e.CreatedAt, _ = time.Parse(time.RFC3339Nano, created)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("query turns", err)
	}
	return entries, nil
}

// Conversation summarises one stored conversation.
type Conversation struct {
	ID        string
	Turns     int
	UpdatedAt time.Time
}

// Conversations lists stored conversations, most recently updated first.
func (s *Store) Conversations(ctx context.Context) ([]Conversation, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT s.conversation_id, s.updated_at,
		        (SELECT COUNT(*) FROM turn_log t WHERE t.conversation_id = s.conversation_id)
		 FROM sessions s ORDER BY s.updated_at DESC`,
	)
	if err != nil {
		return nil, storageErr("list conversations", err)
	}
	defer rows.Close()

	var out []Conversation
	for rows.Next() {
		var c Conversation
		var updated string
		if err := rows.Scan(&c.ID, &updated, &c.Turns); err != nil {
			return nil, storageErr("scan conversation", err)
		}
		c.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updated)
		out = append(out, c)
	}
	return out, rows.Err()
}
