// Package sqlite implements a durable core.SessionStore on SQLite. Session
// state (including the corpus session cache keys) and message history
// survive process restarts, so an agent resumed in a later process still
// knows its current corpus and confirmed existence flags.
package sqlite

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	// Registers the sqlite3 driver.
	_ "github.com/mattn/go-sqlite3"

	"github.com/hupe1980/ragmesh/core"
)

const schema = `
CREATE TABLE IF NOT EXISTS sessions (
	id       TEXT PRIMARY KEY,
	state    TEXT NOT NULL DEFAULT '{}',
	metadata TEXT NOT NULL DEFAULT '{}',
	created  TIMESTAMP NOT NULL,
	updated  TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS history (
	seq        INTEGER PRIMARY KEY AUTOINCREMENT,
	session_id TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
	message    TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_history_session ON history(session_id);
`

// Store is a SessionStore backed by a SQLite database. State and messages
// are stored as JSON columns; ApplyDelta performs its read-merge-write in a
// transaction so concurrent writers cannot lose updates.
type Store struct {
	db *sql.DB
}

// New opens (or creates) the database at path and prepares the schema.
// Use ":memory:" for an ephemeral store in tests.
func New(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000&_journal_mode=WAL&_fk=1")
	if err != nil {
		return nil, fmt.Errorf("opening sqlite database: %w", err)
	}
	// A single connection keeps :memory: databases coherent and sidesteps
	// SQLITE_BUSY under write contention.
	db.SetMaxOpenConns(1)

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) migrate() error {
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("migrating schema: %w", err)
	}
	return nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error { return s.db.Close() }

// Create inserts a fresh session with the given id, replacing any previous
// session and history stored under it.
func (s *Store) Create(sessionID string) (*core.Session, error) {
	sess := core.NewSession(sessionID)

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM history WHERE session_id = ?`, sessionID); err != nil {
		return nil, fmt.Errorf("clearing history: %w", err)
	}
	if _, err := tx.Exec(
		`INSERT INTO sessions (id, state, metadata, created, updated) VALUES (?, '{}', '{}', ?, ?)
		 ON CONFLICT(id) DO UPDATE SET state = '{}', metadata = '{}', created = excluded.created, updated = excluded.updated`,
		sessionID, sess.Created, sess.Updated,
	); err != nil {
		return nil, fmt.Errorf("inserting session: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing session: %w", err)
	}
	return sess, nil
}

// Get loads a session by id, creating it lazily when absent.
func (s *Store) Get(sessionID string) (*core.Session, error) {
	var (
		stateJSON, metaJSON string
		created, updated    time.Time
	)
	err := s.db.QueryRow(
		`SELECT state, metadata, created, updated FROM sessions WHERE id = ?`, sessionID,
	).Scan(&stateJSON, &metaJSON, &created, &updated)
	if err == sql.ErrNoRows {
		return s.Create(sessionID)
	}
	if err != nil {
		return nil, fmt.Errorf("loading session: %w", err)
	}

	sess := core.NewSession(sessionID)
	sess.Created = created
	sess.Updated = updated
	if err := json.Unmarshal([]byte(stateJSON), &sess.State); err != nil {
		return nil, fmt.Errorf("decoding session state: %w", err)
	}
	if err := json.Unmarshal([]byte(metaJSON), &sess.Metadata); err != nil {
		return nil, fmt.Errorf("decoding session metadata: %w", err)
	}

	history, err := s.loadHistory(sessionID)
	if err != nil {
		return nil, err
	}
	sess.History = history
	return sess, nil
}

func (s *Store) loadHistory(sessionID string) ([]core.Message, error) {
	rows, err := s.db.Query(
		`SELECT message FROM history WHERE session_id = ? ORDER BY seq`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("loading history: %w", err)
	}
	defer rows.Close()

	history := []core.Message{}
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scanning history row: %w", err)
		}
		var msg core.Message
		if err := json.Unmarshal([]byte(raw), &msg); err != nil {
			return nil, fmt.Errorf("decoding history message: %w", err)
		}
		history = append(history, msg)
	}
	return history, rows.Err()
}

// AppendHistory stores messages in order, creating the session when absent.
func (s *Store) AppendHistory(sessionID string, msgs ...core.Message) error {
	if len(msgs) == 0 {
		return nil
	}
	if err := s.ensureSession(sessionID); err != nil {
		return err
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	for _, msg := range msgs {
		raw, err := json.Marshal(msg)
		if err != nil {
			return fmt.Errorf("encoding history message: %w", err)
		}
		if _, err := tx.Exec(
			`INSERT INTO history (session_id, message) VALUES (?, ?)`, sessionID, string(raw)); err != nil {
			return fmt.Errorf("inserting history message: %w", err)
		}
	}
	if _, err := tx.Exec(
		`UPDATE sessions SET updated = ? WHERE id = ?`, time.Now(), sessionID); err != nil {
		return fmt.Errorf("touching session: %w", err)
	}
	return tx.Commit()
}

// ApplyDelta merges a key/value delta into the stored session state.
func (s *Store) ApplyDelta(sessionID string, delta map[string]interface{}) error {
	if len(delta) == 0 {
		return nil
	}
	if err := s.ensureSession(sessionID); err != nil {
		return err
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var stateJSON string
	if err := tx.QueryRow(
		`SELECT state FROM sessions WHERE id = ?`, sessionID).Scan(&stateJSON); err != nil {
		return fmt.Errorf("loading session state: %w", err)
	}

	state := map[string]interface{}{}
	if err := json.Unmarshal([]byte(stateJSON), &state); err != nil {
		return fmt.Errorf("decoding session state: %w", err)
	}
	for k, v := range delta {
		state[k] = v
	}

	merged, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encoding session state: %w", err)
	}
	if _, err := tx.Exec(
		`UPDATE sessions SET state = ?, updated = ? WHERE id = ?`,
		string(merged), time.Now(), sessionID); err != nil {
		return fmt.Errorf("updating session state: %w", err)
	}
	return tx.Commit()
}

func (s *Store) ensureSession(sessionID string) error {
	now := time.Now()
	if _, err := s.db.Exec(
		`INSERT INTO sessions (id, state, metadata, created, updated) VALUES (?, '{}', '{}', ?, ?)
		 ON CONFLICT(id) DO NOTHING`, sessionID, now, now); err != nil {
		return fmt.Errorf("ensuring session: %w", err)
	}
	return nil
}
