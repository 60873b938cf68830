// Package journal keeps a local SQLite record of submitted captchas so that
// feedback can be sent later from another invocation.
package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	ninekw "github.com/anatolykoptev/go-9kw"
)

// ErrNotFound is returned when no entry exists for an id.
var ErrNotFound = errors.New("journal: entry not found")

const schemaSQL = `
CREATE TABLE IF NOT EXISTS requests (
	id TEXT PRIMARY KEY,
	priority INTEGER NOT NULL,
	max_timeout INTEGER NOT NULL,
	status TEXT NOT NULL,
	answer TEXT,
	error TEXT,
	feedback INTEGER NOT NULL DEFAULT 0,
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_requests_created_at ON requests(created_at);
`

// Entry is one journaled request.
type Entry struct {
	ID         string
	Priority   int
	MaxTimeout int
	Status     string
	Answer     string
	Error      string
	Feedback   int // 0 = none sent, otherwise ninekw.Feedback*
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Journal stores entries in a SQLite database.
type Journal struct {
	db *sql.DB
}

// DefaultPath returns ~/.go-9kw/journal.db.
func DefaultPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".go-9kw", "journal.db")
}

// Open opens (and creates if needed) the journal at path. ":memory:" is allowed.
func Open(path string) (*Journal, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
			return nil, fmt.Errorf("failed to create journal directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open journal: %w", err)
	}
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize journal schema: %w", err)
	}
	return &Journal{db: db}, nil
}

// Close closes the database.
func (j *Journal) Close() error {
	return j.db.Close()
}

// Record inserts or updates the entry for req.
func (j *Journal) Record(ctx context.Context, req *ninekw.SolveRequest) error {
	if req.ID == "" {
		return ninekw.ErrNotSubmitted
	}
	var answer, errMsg sql.NullString
	if req.Answer != "" {
		answer = sql.NullString{String: req.Answer, Valid: true}
	}
	if req.LastError != nil {
		errMsg = sql.NullString{String: req.LastError.Error(), Valid: true}
	}
	created := req.SubmittedAt
	if created.IsZero() {
		created = time.Now()
	}

	_, err := j.db.ExecContext(ctx, `
		INSERT INTO requests (id, priority, max_timeout, status, answer, error, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			status = excluded.status,
			answer = excluded.answer,
			error = excluded.error,
			updated_at = excluded.updated_at`,
		req.ID, req.Priority, req.MaxTimeout, req.Status.String(), answer, errMsg, created.UTC(), time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to record request %s: %w", req.ID, err)
	}
	return nil
}

// RecordFeedback stores which feedback code was sent for id.
func (j *Journal) RecordFeedback(ctx context.Context, id string, code int) error {
	res, err := j.db.ExecContext(ctx,
		"UPDATE requests SET feedback = ?, updated_at = ? WHERE id = ?",
		code, time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("failed to record feedback: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("request %s: %w", id, ErrNotFound)
	}
	return nil
}

const selectCols = "id, priority, max_timeout, status, answer, error, feedback, created_at, updated_at"

func scanEntry(scanner interface {
	Scan(dest ...any) error
}) (*Entry, error) {
	var (
		e      Entry
		answer sql.NullString
		errMsg sql.NullString
	)
	err := scanner.Scan(&e.ID, &e.Priority, &e.MaxTimeout, &e.Status, &answer, &errMsg, &e.Feedback, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return nil, err
	}
	e.Answer = answer.String
	e.Error = errMsg.String
	return &e, nil
}

// Get returns the entry for id.
func (j *Journal) Get(ctx context.Context, id string) (*Entry, error) {
	row := j.db.QueryRowContext(ctx, "SELECT "+selectCols+" FROM requests WHERE id = ?", id)
	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("request %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get request: %w", err)
	}
	return e, nil
}

// List returns the newest entries first. limit <= 0 means no limit.
func (j *Journal) List(ctx context.Context, limit int) ([]*Entry, error) {
	query := "SELECT " + selectCols + " FROM requests ORDER BY created_at DESC, id DESC"
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := j.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list requests: %w", err)
	}
	defer rows.Close()

	var entries []*Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan request: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
