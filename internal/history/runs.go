package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Status is the lifecycle state of an indexed run.
type Status string

const (
	StatusRunning     Status = "running"
	StatusDone        Status = "done"
	StatusFailed      Status = "failed"
	StatusInterrupted Status = "interrupted"
)

// Record is one row of the run index.
type Record struct {
	RunID        string
	SourcePath   string
	Status       Status
	StartedAt    time.Time
	FinishedAt   *time.Time
	Elapsed      time.Duration
	LineCount    int
	Failures     int
	FinalVideo   string
	ErrorMessage string
}

// Outcome is what a finished run reports back to the index.
type Outcome struct {
	Status     Status
	Elapsed    time.Duration
	LineCount  int
	Failures   int
	FinalVideo string
	Err        error
}

// timestampLayout is fixed width so that text ordering matches time ordering.
const timestampLayout = "2006-01-02T15:04:05.000000000Z07:00"

const runColumns = "run_id, source_path, status, started_at, finished_at, elapsed_ms, line_count, failures, final_video, error_message"

// Start marks runID as running. Re-running an existing run resets its outcome.
func (s *Store) Start(ctx context.Context, runID, sourcePath string, startedAt time.Time) error {
	if runID == "" {
		return errors.New("run id required")
	}
	err := s.exec(ctx,
		`INSERT INTO runs (run_id, source_path, status, started_at)
         VALUES (?, ?, ?, ?)
         ON CONFLICT(run_id) DO UPDATE SET
             source_path = excluded.source_path,
             status = excluded.status,
             started_at = excluded.started_at,
             finished_at = NULL,
             elapsed_ms = 0,
             failures = 0,
             error_message = NULL`,
		runID, sourcePath, StatusRunning, startedAt.UTC().Format(timestampLayout),
	)
	if err != nil {
		return fmt.Errorf("start run: %w", err)
	}
	return nil
}

// Finish records the outcome of runID.
func (s *Store) Finish(ctx context.Context, runID string, finishedAt time.Time, out Outcome) error {
	var message string
	if out.Err != nil {
		message = out.Err.Error()
	}
	err := s.exec(ctx,
		`UPDATE runs
         SET status = ?, finished_at = ?, elapsed_ms = ?, line_count = ?, failures = ?,
             final_video = ?, error_message = ?
         WHERE run_id = ?`,
		out.Status,
		finishedAt.UTC().Format(timestampLayout),
		out.Elapsed.Milliseconds(),
		out.LineCount,
		out.Failures,
		nullableString(out.FinalVideo),
		nullableString(message),
		runID,
	)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	return nil
}

// Get returns the record for runID, or nil when it is not indexed.
func (s *Store) Get(ctx context.Context, runID string) (*Record, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE run_id = ?`, runID)
	record, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}
	return record, nil
}

// LatestForSource returns the most recently started run for sourcePath, or nil.
func (s *Store) LatestForSource(ctx context.Context, sourcePath string) (*Record, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+runColumns+` FROM runs WHERE source_path = ? ORDER BY started_at DESC LIMIT 1`,
		sourcePath)
	record, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("latest run: %w", err)
	}
	return record, nil
}

// List returns up to limit runs, newest first. A non-positive limit lists all.
func (s *Store) List(ctx context.Context, limit int) ([]Record, error) {
	query := `SELECT ` + runColumns + ` FROM runs ORDER BY started_at DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		records = append(records, *record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return records, nil
}

// Remove deletes runID from the index.
func (s *Store) Remove(ctx context.Context, runID string) error {
	if err := s.exec(ctx, `DELETE FROM runs WHERE run_id = ?`, runID); err != nil {
		return fmt.Errorf("remove run: %w", err)
	}
	return nil
}

func scanRecord(scanner interface{ Scan(dest ...any) error }) (*Record, error) {
	var (
		record      Record
		status      string
		startedRaw  string
		finishedRaw sql.NullString
		elapsedMS   int64
		finalVideo  sql.NullString
		message     sql.NullString
	)
	if err := scanner.Scan(
		&record.RunID,
		&record.SourcePath,
		&status,
		&startedRaw,
		&finishedRaw,
		&elapsedMS,
		&record.LineCount,
		&record.Failures,
		&finalVideo,
		&message,
	); err != nil {
		return nil, err
	}
	record.Status = Status(status)
	record.Elapsed = time.Duration(elapsedMS) * time.Millisecond
	record.FinalVideo = finalVideo.String
	record.ErrorMessage = message.String
	if started, err := time.Parse(time.RFC3339Nano, startedRaw); err == nil {
		record.StartedAt = started
	}
	if finishedRaw.Valid {
		if finished, err := time.Parse(time.RFC3339Nano, finishedRaw.String); err == nil {
			record.FinishedAt = &finished
		}
	}
	return &record, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}
