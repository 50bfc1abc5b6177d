package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Run summarizes one download run.
type Run struct {
	ID           string
	StartedAt    time.Time
	FinishedAt   time.Time
	TaskCount    int
	Completed    int
	Failed       int
	ManifestPath string
}

// Finished reports whether the run recorded its totals.
func (r Run) Finished() bool {
	return !r.FinishedAt.IsZero()
}

// Failure is a dead-lettered task.
type Failure struct {
	RunID     string
	TaskKey   string
	Kind      string
	URL       string
	Error     string
	CreatedAt time.Time
}

// BeginRun records the start of a run.
func (s *Store) BeginRun(ctx context.Context, runID string, taskCount int, manifestPath string) error {
	_, err := s.exec(ctx,
		`INSERT INTO runs (id, started_at, task_count, manifest_path) VALUES (?, ?, ?, ?)`,
		runID,
		time.Now().UTC().Format(time.RFC3339Nano),
		taskCount,
		nullableString(manifestPath),
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// FinishRun stores the final totals of a run.
func (s *Store) FinishRun(ctx context.Context, runID string, completed, failed int) error {
	res, err := s.exec(ctx,
		`UPDATE runs SET finished_at = ?, completed = ?, failed = ? WHERE id = ?`,
		time.Now().UTC().Format(time.RFC3339Nano),
		completed,
		failed,
		runID,
	)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("finish run: unknown run %s", runID)
	}
	return nil
}

// RecordFailure appends a dead-letter entry for the run.
func (s *Store) RecordFailure(ctx context.Context, f Failure) error {
	created := f.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	_, err := s.exec(ctx,
		`INSERT INTO failures (run_id, task_key, kind, url, error, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		f.RunID,
		f.TaskKey,
		f.Kind,
		nullableString(f.URL),
		f.Error,
		created.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert failure: %w", err)
	}
	return nil
}

// ListRuns returns the most recent runs, newest first. A non-positive limit
// returns every run.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	query := `SELECT id, started_at, finished_at, task_count, completed, failed, manifest_path
        FROM runs ORDER BY started_at DESC, id`
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

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// GetRun fetches one run. It returns nil when the run is unknown.
func (s *Store) GetRun(ctx context.Context, runID string) (*Run, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, started_at, finished_at, task_count, completed, failed, manifest_path
        FROM runs WHERE id = ?`, runID)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}
	return &run, nil
}

// Failures lists the dead-lettered tasks of a run in insertion order.
func (s *Store) Failures(ctx context.Context, runID string) ([]Failure, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT run_id, task_key, kind, url, error, created_at
        FROM failures WHERE run_id = ? ORDER BY id`, runID)
	if err != nil {
		return nil, fmt.Errorf("list failures: %w", err)
	}
	defer rows.Close()

	var out []Failure
	for rows.Next() {
		var (
			f          Failure
			url        sql.NullString
			createdRaw string
		)
		if err := rows.Scan(&f.RunID, &f.TaskKey, &f.Kind, &url, &f.Error, &createdRaw); err != nil {
			return nil, fmt.Errorf("scan failure: %w", err)
		}
		f.URL = url.String
		f.CreatedAt = parseTime(createdRaw)
		out = append(out, f)
	}
	return out, rows.Err()
}

func scanRun(scanner interface{ Scan(dest ...any) error }) (Run, error) {
	var (
		run          Run
		startedRaw   string
		finishedRaw  sql.NullString
		manifestPath sql.NullString
	)
	if err := scanner.Scan(
		&run.ID,
		&startedRaw,
		&finishedRaw,
		&run.TaskCount,
		&run.Completed,
		&run.Failed,
		&manifestPath,
	); err != nil {
		return Run{}, err
	}
	run.StartedAt = parseTime(startedRaw)
	if finishedRaw.Valid {
		run.FinishedAt = parseTime(finishedRaw.String)
	}
	run.ManifestPath = manifestPath.String
	return run, nil
}

func parseTime(raw string) time.Time {
	if raw == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}
	}
	return t
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}
