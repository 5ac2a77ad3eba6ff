// Package memory persists session history in SQLite: every gated intent
// is logged to task_log, and document summaries are cached so repeated
// SUMMARIZE requests do not recompute.
package memory

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"superterm/internal/logging"
)

const schema = `
CREATE TABLE IF NOT EXISTS task_log (
	id         TEXT PRIMARY KEY,
	created_at TIMESTAMP NOT NULL,
	input      TEXT NOT NULL,
	action     TEXT NOT NULL,
	confidence REAL NOT NULL,
	target     TEXT NOT NULL DEFAULT '',
	decision   TEXT NOT NULL,
	outcome    TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_task_log_created ON task_log(created_at);

CREATE TABLE IF NOT EXISTS documents (
	path       TEXT PRIMARY KEY,
	summary    TEXT NOT NULL,
	updated_at TIMESTAMP NOT NULL
);
`

// TaskRecord is one gated intent and what became of it.
type TaskRecord struct {
	ID         string
	CreatedAt  time.Time
	Input      string
	Action     string
	Confidence float64
	Target     string
	Decision   string
	Outcome    string
}

// Document is a cached summary for a workspace file.
type Document struct {
	Path      string
	Summary   string
	UpdatedAt time.Time
}

// Store is the SQLite session store. Safe for concurrent use.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the store at path.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("memory: create %s: %w", dir, err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("memory: open %s: %w", path, err)
	}
	// The driver is in-process; a single connection avoids table locks.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("memory: migrate: %w", err)
	}
	logging.Store("opened session store at %s", path)
	return &Store{db: db}, nil
}

// Close releases the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// LogTask appends a task record and returns its generated id.
func (s *Store) LogTask(ctx context.Context, rec TaskRecord) (string, error) {
	id := uuid.NewString()
	created := rec.CreatedAt
	if created.IsZero() {
		created = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO task_log (id, created_at, input, action, confidence, target, decision, outcome)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		id, created, rec.Input, rec.Action, rec.Confidence, rec.Target, rec.Decision, rec.Outcome)
	if err != nil {
		return "", fmt.Errorf("memory: log task: %w", err)
	}
	return id, nil
}

// SetOutcome records what happened after a task executed.
func (s *Store) SetOutcome(ctx context.Context, id, outcome string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE task_log SET outcome = ? WHERE id = ?`, outcome, id)
	if err != nil {
		return fmt.Errorf("memory: set outcome: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("memory: no task %s", id)
	}
	return nil
}

// RecentTasks returns up to limit records, newest first.
func (s *Store) RecentTasks(ctx context.Context, limit int) ([]TaskRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, created_at, input, action, confidence, target, decision, outcome
		 FROM task_log ORDER BY created_at DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("memory: recent tasks: %w", err)
	}
	defer rows.Close()

	var out []TaskRecord
	for rows.Next() {
		var r TaskRecord
		if err := rows.Scan(&r.ID, &r.CreatedAt, &r.Input, &r.Action,
			&r.Confidence, &r.Target, &r.Decision, &r.Outcome); err != nil {
			return nil, fmt.Errorf("memory: scan task: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Prune deletes task records older than the retention window and
// returns how many were removed.
func (s *Store) Prune(ctx context.Context, retention time.Duration) (int64, error) {
	cutoff := time.Now().UTC().Add(-retention)
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM task_log WHERE created_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("memory: prune: %w", err)
	}
	n, _ := res.RowsAffected()
	if n > 0 {
		logging.Store("pruned %d task records older than %s", n, retention)
	}
	return n, nil
}

// SaveSummary upserts the cached summary for a file path.
func (s *Store) SaveSummary(ctx context.Context, path, summary string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO documents (path, summary, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(path) DO UPDATE SET summary = excluded.summary, updated_at = excluded.updated_at`,
		path, summary, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("memory: save summary: %w", err)
	}
	return nil
}

// Summary returns the cached summary for a path, if any.
func (s *Store) Summary(ctx context.Context, path string) (*Document, error) {
	var d Document
	err := s.db.QueryRowContext(ctx,
		`SELECT path, summary, updated_at FROM documents WHERE path = ?`, path).
		Scan(&d.Path, &d.Summary, &d.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("memory: summary: %w", err)
	}
	return &d, nil
}
