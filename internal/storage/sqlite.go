package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"github.com/alienxp03/debatecast/internal/core"
)

// SQLiteStorage implements Storage using SQLite.
type SQLiteStorage struct {
	db   *sql.DB
	path string
}

// NewSQLiteStorage creates a new SQLite storage instance.
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	// Ensure directory exists
	dir := filepath.Dir(dbPath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return &SQLiteStorage{
		db:   db,
		path: dbPath,
	}, nil
}

// Initialize creates the database schema.
func (s *SQLiteStorage) Initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS sessions (
		id TEXT PRIMARY KEY,
		topic TEXT NOT NULL,
		server TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL DEFAULT 'in_progress',
		agents_json TEXT NOT NULL,
		started_at DATETIME NOT NULL,
		finished_at DATETIME
	);

	CREATE TABLE IF NOT EXISTS entries (
		session_id TEXT NOT NULL,
		seq INTEGER NOT NULL,
		kind TEXT NOT NULL,
		agent TEXT NOT NULL DEFAULT '',
		content TEXT NOT NULL,
		created_at DATETIME NOT NULL,
		PRIMARY KEY (session_id, seq),
		FOREIGN KEY (session_id) REFERENCES sessions(id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_sessions_started_at ON sessions(started_at DESC);
	`

	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// SaveSession inserts or replaces a session and its transcript.
func (s *SQLiteStorage) SaveSession(rec *core.Record) error {
	agentsJSON, err := json.Marshal(rec.Agents)
	if err != nil {
		return fmt.Errorf("failed to marshal agents: %w", err)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
	INSERT INTO sessions (id, topic, server, status, agents_json, started_at, finished_at)
	VALUES (?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		topic = excluded.topic,
		server = excluded.server,
		status = excluded.status,
		agents_json = excluded.agents_json,
		finished_at = excluded.finished_at
	`
	if _, err := tx.Exec(query,
		rec.ID,
		rec.Topic,
		rec.Server,
		rec.Status,
		string(agentsJSON),
		rec.StartedAt,
		rec.FinishedAt,
	); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}

	if _, err := tx.Exec("DELETE FROM entries WHERE session_id = ?", rec.ID); err != nil {
		return fmt.Errorf("failed to clear entries: %w", err)
	}

	stmt, err := tx.Prepare(`
	INSERT INTO entries (session_id, seq, kind, agent, content, created_at)
	VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare entry insert: %w", err)
	}
	defer stmt.Close()

	for i, e := range rec.Entries {
		if _, err := stmt.Exec(rec.ID, i, e.Kind, e.Agent, e.Content, e.CreatedAt); err != nil {
			return fmt.Errorf("failed to insert entry: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit session: %w", err)
	}
	return nil
}

// GetSession retrieves a session by ID. It returns nil, nil when not found.
func (s *SQLiteStorage) GetSession(id string) (*core.Record, error) {
	query := `
	SELECT id, topic, server, status, agents_json, started_at, finished_at
	FROM sessions
	WHERE id = ?
	`

	var rec core.Record
	var agentsJSON string
	var finishedAt sql.NullTime

	err := s.db.QueryRow(query, id).Scan(
		&rec.ID,
		&rec.Topic,
		&rec.Server,
		&rec.Status,
		&agentsJSON,
		&rec.StartedAt,
		&finishedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	if err := json.Unmarshal([]byte(agentsJSON), &rec.Agents); err != nil {
		return nil, fmt.Errorf("failed to unmarshal agents: %w", err)
	}
	if finishedAt.Valid {
		rec.FinishedAt = &finishedAt.Time
	}

	entries, err := s.getEntries(id)
	if err != nil {
		return nil, err
	}
	rec.Entries = entries

	return &rec, nil
}

func (s *SQLiteStorage) getEntries(sessionID string) ([]core.Entry, error) {
	query := `
	SELECT seq, kind, agent, content, created_at
	FROM entries
	WHERE session_id = ?
	ORDER BY seq ASC
	`

	rows, err := s.db.Query(query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to get entries: %w", err)
	}
	defer rows.Close()

	var entries []core.Entry
	for rows.Next() {
		var e core.Entry
		if err := rows.Scan(&e.ID, &e.Kind, &e.Agent, &e.Content, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan entry: %w", err)
		}
		e.Revealed = e.Content
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read entries: %w", err)
	}

	return entries, nil
}

// DeleteSession deletes a session and its entries.
func (s *SQLiteStorage) DeleteSession(id string) error {
	if _, err := s.db.Exec("DELETE FROM sessions WHERE id = ?", id); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// ListSessions returns session summaries, newest first.
func (s *SQLiteStorage) ListSessions(limit, offset int) ([]*core.RecordSummary, error) {
	query := `
	SELECT s.id, s.topic, s.status, s.agents_json, s.started_at,
		   (SELECT COUNT(*) FROM entries WHERE session_id = s.id AND kind = 'message') as message_count
	FROM sessions s
	ORDER BY s.started_at DESC
	LIMIT ? OFFSET ?
	`

	rows, err := s.db.Query(query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()

	var summaries []*core.RecordSummary
	for rows.Next() {
		var summary core.RecordSummary
		var agentsJSON string

		if err := rows.Scan(
			&summary.ID,
			&summary.Topic,
			&summary.Status,
			&agentsJSON,
			&summary.StartedAt,
			&summary.MessageCount,
		); err != nil {
			return nil, fmt.Errorf("failed to scan session summary: %w", err)
		}

		var agents []core.Agent
		if err := json.Unmarshal([]byte(agentsJSON), &agents); err == nil {
			summary.AgentCount = len(agents)
		}

		summaries = append(summaries, &summary)
	}

	return summaries, rows.Err()
}

// FindByPrefix resolves a session ID from a unique prefix.
func (s *SQLiteStorage) FindByPrefix(prefix string) (string, error) {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		return "", fmt.Errorf("empty session id")
	}

	rows, err := s.db.Query("SELECT id FROM sessions WHERE id LIKE ? || '%' LIMIT 2", prefix)
	if err != nil {
		return "", fmt.Errorf("failed to look up session: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return "", fmt.Errorf("failed to scan session id: %w", err)
		}
		ids = append(ids, id)
	}

	switch len(ids) {
	case 0:
		return "", fmt.Errorf("session not found: %s", prefix)
	case 1:
		return ids[0], nil
	default:
		return "", fmt.Errorf("ambiguous session id: %s", prefix)
	}
}

// DefaultDBPath returns the default database path.
func DefaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "debatecast.db"
	}
	return filepath.Join(home, ".debatecast", "debatecast.db")
}
