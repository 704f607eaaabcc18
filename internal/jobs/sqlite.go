package jobs

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/xushun007/agentcore/internal/model"
)

// SQLiteStore persists jobs to a local SQLite database, grounded on the
// teacher's CockroachStore shape (create/update/get/list/prune/cancel over a
// jobs table) adapted to a single-file embedded database via
// modernc.org/sqlite, the Task Store's backing store per this engine's scope.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLiteStore opens (creating if necessary) a SQLite-backed job store at path.
func OpenSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("jobs: open sqlite store: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schemaDDL); err != nil {
		db.Close()
		return nil, fmt.Errorf("jobs: create schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

const schemaDDL = `
CREATE TABLE IF NOT EXISTS jobs (
	id           TEXT PRIMARY KEY,
	tool_name    TEXT NOT NULL,
	tool_call_id TEXT NOT NULL,
	status       TEXT NOT NULL,
	created_at   DATETIME NOT NULL,
	started_at   DATETIME,
	finished_at  DATETIME,
	result_json  TEXT,
	error        TEXT
);
`

// Close closes the underlying database handle.
func (s *SQLiteStore) Close() error { return s.db.Close() }

// Create inserts a new job row.
func (s *SQLiteStore) Create(ctx context.Context, job *Job) error {
	resultJSON, err := marshalResult(job.Result)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO jobs (id, tool_name, tool_call_id, status, created_at, started_at, finished_at, result_json, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		job.ID, job.ToolName, job.ToolCallID, string(job.Status),
		job.CreatedAt, nullableTime(job.StartedAt), nullableTime(job.FinishedAt), resultJSON, job.Error,
	)
	if err != nil {
		return fmt.Errorf("jobs: create %s: %w", job.ID, err)
	}
	return nil
}

// Update overwrites an existing job row.
func (s *SQLiteStore) Update(ctx context.Context, job *Job) error {
	resultJSON, err := marshalResult(job.Result)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		UPDATE jobs SET tool_name = ?, tool_call_id = ?, status = ?, started_at = ?, finished_at = ?, result_json = ?, error = ?
		WHERE id = ?`,
		job.ToolName, job.ToolCallID, string(job.Status),
		nullableTime(job.StartedAt), nullableTime(job.FinishedAt), resultJSON, job.Error, job.ID,
	)
	if err != nil {
		return fmt.Errorf("jobs: update %s: %w", job.ID, err)
	}
	return nil
}

// Get fetches a job by id, returning (nil, nil) if it doesn't exist.
func (s *SQLiteStore) Get(ctx context.Context, id string) (*Job, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, tool_name, tool_call_id, status, created_at, started_at, finished_at, result_json, error
		FROM jobs WHERE id = ?`, id)
	job, err := scanJob(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return job, err
}

// List returns jobs ordered by creation time, newest first.
func (s *SQLiteStore) List(ctx context.Context, limit, offset int) ([]*Job, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, tool_name, tool_call_id, status, created_at, started_at, finished_at, result_json, error
		FROM jobs ORDER BY created_at DESC LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("jobs: list: %w", err)
	}
	defer rows.Close()

	var out []*Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, job)
	}
	return out, rows.Err()
}

// Prune deletes jobs created before the cutoff, returning the count removed.
func (s *SQLiteStore) Prune(ctx context.Context, olderThan time.Duration) (int64, error) {
	cutoff := time.Now().Add(-olderThan)
	res, err := s.db.ExecContext(ctx, `DELETE FROM jobs WHERE created_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("jobs: prune: %w", err)
	}
	return res.RowsAffected()
}

// Cancel marks a queued or running job as failed.
func (s *SQLiteStore) Cancel(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE jobs SET status = ?, error = ?, finished_at = ?
		WHERE id = ? AND status IN (?, ?)`,
		string(StatusFailed), "job cancelled", time.Now(), id, string(StatusQueued), string(StatusRunning),
	)
	if err != nil {
		return fmt.Errorf("jobs: cancel %s: %w", id, err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanJob(row rowScanner) (*Job, error) {
	var j Job
	var status string
	var startedAt, finishedAt sql.NullTime
	var resultJSON, jobErr sql.NullString

	if err := row.Scan(&j.ID, &j.ToolName, &j.ToolCallID, &status, &j.CreatedAt, &startedAt, &finishedAt, &resultJSON, &jobErr); err != nil {
		return nil, err
	}
	j.Status = Status(status)
	if startedAt.Valid {
		j.StartedAt = startedAt.Time
	}
	if finishedAt.Valid {
		j.FinishedAt = finishedAt.Time
	}
	if jobErr.Valid {
		j.Error = jobErr.String
	}
	if resultJSON.Valid && resultJSON.String != "" {
		var result model.ToolResult
		if err := json.Unmarshal([]byte(resultJSON.String), &result); err != nil {
			return nil, fmt.Errorf("jobs: decode result for %s: %w", j.ID, err)
		}
		j.Result = &result
	}
	return &j, nil
}

func marshalResult(result *model.ToolResult) (sql.NullString, error) {
	if result == nil {
		return sql.NullString{}, nil
	}
	raw, err := json.Marshal(result)
	if err != nil {
		return sql.NullString{}, fmt.Errorf("jobs: encode result: %w", err)
	}
	return sql.NullString{String: string(raw), Valid: true}, nil
}

func nullableTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t
}
