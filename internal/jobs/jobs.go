// Package jobs keeps a local ledger of parse invocations for batch runs.
package jobs

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/docparse/docparse/constants"
)

const schema = `
CREATE TABLE IF NOT EXISTS parse_job (
	id             TEXT PRIMARY KEY,
	source         TEXT NOT NULL,
	status         TEXT NOT NULL,
	output_uri     TEXT,
	content_chars  INTEGER NOT NULL DEFAULT 0,
	embedded_count INTEGER NOT NULL DEFAULT 0,
	error          TEXT,
	created_at     TIMESTAMP NOT NULL,
	finished_at    TIMESTAMP
);`

// Job is one recorded invocation.
type Job struct {
	ID            uuid.UUID
	Source        string
	Status        constants.JobStatus
	OutputURI     string
	ContentChars  int
	EmbeddedCount int
	Error         string
	CreatedAt     time.Time
	FinishedAt    *time.Time
}

// Ledger wraps the SQLite store.
type Ledger struct {
	db     *sql.DB
	logger *slog.Logger
}

func Open(path string, logger *slog.Logger) (*Ledger, error) {
	if logger == nil {
		logger = slog.Default()
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open job ledger: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init job ledger schema: %w", err)
	}
	return &Ledger{db: db, logger: logger}, nil
}

func (l *Ledger) Close() error {
	return l.db.Close()
}

// Start records a new running job and returns its id.
func (l *Ledger) Start(ctx context.Context, source string) (uuid.UUID, error) {
	id := uuid.New()
	_, err := l.db.ExecContext(ctx,
		`INSERT INTO parse_job (id, source, status, created_at) VALUES (?, ?, ?, ?)`,
		id.String(), source, string(constants.JobStatusRunning), time.Now().UTC(),
	)
	if err != nil {
		return uuid.Nil, fmt.Errorf("record job start: %w", err)
	}
	return id, nil
}

// Finish marks a job succeeded.
func (l *Ledger) Finish(ctx context.Context, id uuid.UUID, outputURI string, contentChars, embeddedCount int) error {
	_, err := l.db.ExecContext(ctx,
		`UPDATE parse_job SET status = ?, output_uri = ?, content_chars = ?, embedded_count = ?, finished_at = ? WHERE id = ?`,
		string(constants.JobStatusSucceeded), outputURI, contentChars, embeddedCount, time.Now().UTC(), id.String(),
	)
	if err != nil {
		return fmt.Errorf("record job finish: %w", err)
	}
	return nil
}

// Fail marks a job failed with its terminal error.
func (l *Ledger) Fail(ctx context.Context, id uuid.UUID, cause error) error {
	msg := ""
	if cause != nil {
		msg = cause.Error()
	}
	_, err := l.db.ExecContext(ctx,
		`UPDATE parse_job SET status = ?, error = ?, finished_at = ? WHERE id = ?`,
		string(constants.JobStatusFailed), msg, time.Now().UTC(), id.String(),
	)
	if err != nil {
		return fmt.Errorf("record job failure: %w", err)
	}
	return nil
}

// List returns jobs newest first.
func (l *Ledger) List(ctx context.Context, limit int) ([]Job, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := l.db.QueryContext(ctx,
		`SELECT id, source, status, COALESCE(output_uri, ''), content_chars, embedded_count, COALESCE(error, ''), created_at, finished_at
		 FROM parse_job ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	defer rows.Close()

	var jobs []Job
	for rows.Next() {
		var j Job
		var id, status string
		var finished sql.NullTime
		if err := rows.Scan(&id, &j.Source, &status, &j.OutputURI, &j.ContentChars, &j.EmbeddedCount, &j.Error, &j.CreatedAt, &finished); err != nil {
			return nil, fmt.Errorf("scan job row: %w", err)
		}
		j.ID, err = uuid.Parse(id)
		if err != nil {
			return nil, fmt.Errorf("parse job id %q: %w", id, err)
		}
		j.Status = constants.JobStatus(status)
		if finished.Valid {
			t := finished.Time
			j.FinishedAt = &t
		}
		jobs = append(jobs, j)
	}
	return jobs, rows.Err()
}
