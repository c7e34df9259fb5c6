package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/trogers1052/ticker-watch/internal/models"
)

// ErrJobNotFound is returned when a job lookup matches no row.
var ErrJobNotFound = errors.New("job not found")

// CreateJob inserts a new pending job
func (db *DB) CreateJob(ctx context.Context, j *models.Job) error {
	query := `
		INSERT INTO jobs (id, name, stock_id, status, retries, max_retries, run_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	now := time.Now()
	if j.RunAt.IsZero() {
		j.RunAt = now
	}
	_, err := db.conn.ExecContext(ctx, query,
		j.ID, j.Name, j.StockID, string(j.Status), j.Retries, j.MaxRetries, j.RunAt, now, now,
	)
	if err != nil {
		return fmt.Errorf("failed to create job: %w", err)
	}
	j.CreatedAt = now
	j.UpdatedAt = now
	return nil
}

// GetJob retrieves a job by id
func (db *DB) GetJob(ctx context.Context, id string) (*models.Job, error) {
	query := `
		SELECT id, name, stock_id, status, retries, max_retries, run_at, result, error, created_at, updated_at
		FROM jobs
		WHERE id = $1
	`
	return db.scanJob(db.conn.QueryRowContext(ctx, query, id))
}

// ListJobs retrieves the most recent jobs, newest first
func (db *DB) ListJobs(ctx context.Context, limit int) ([]*models.Job, error) {
	if limit <= 0 {
		limit = 100
	}
	query := `
		SELECT id, name, stock_id, status, retries, max_retries, run_at, result, error, created_at, updated_at
		FROM jobs
		ORDER BY created_at DESC
		LIMIT $1
	`
	rows, err := db.conn.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}
	defer rows.Close()

	var jobs []*models.Job
	for rows.Next() {
		j, err := db.scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, j)
	}
	return jobs, rows.Err()
}

// ClaimDueJob atomically claims the oldest due job (pending, or retrying
// with its backoff elapsed) and marks it started. Returns nil when no job
// is due. SKIP LOCKED keeps concurrent workers from claiming the same row.
func (db *DB) ClaimDueJob(ctx context.Context) (*models.Job, error) {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var id string
	err = tx.QueryRowContext(ctx, `
		SELECT id FROM jobs
		WHERE status IN ('pending', 'retrying') AND run_at <= $1
		ORDER BY run_at ASC
		LIMIT 1
		FOR UPDATE SKIP LOCKED
	`, time.Now()).Scan(&id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to select due job: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE jobs SET status = 'started', updated_at = $2 WHERE id = $1`,
		id, time.Now(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to claim job: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit claim: %w", err)
	}

	return db.GetJob(ctx, id)
}

// ScheduleRetry moves a started job back to retrying with an incremented
// retry counter and a deferred run_at.
func (db *DB) ScheduleRetry(ctx context.Context, id string, runAt time.Time, lastErr string) error {
	query := `
		UPDATE jobs
		SET status = 'retrying', retries = retries + 1, run_at = $2, error = $3, updated_at = $4
		WHERE id = $1
	`
	res, err := db.conn.ExecContext(ctx, query, id, runAt, lastErr, time.Now())
	if err != nil {
		return fmt.Errorf("failed to schedule retry: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrJobNotFound
	}
	return nil
}

// MarkJobSucceeded records the final result payload for a finished job
func (db *DB) MarkJobSucceeded(ctx context.Context, id string, result json.RawMessage) error {
	query := `
		UPDATE jobs
		SET status = 'succeeded', result = $2, error = NULL, updated_at = $3
		WHERE id = $1
	`
	res, err := db.conn.ExecContext(ctx, query, id, []byte(result), time.Now())
	if err != nil {
		return fmt.Errorf("failed to mark job succeeded: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrJobNotFound
	}
	return nil
}

// MarkJobFailed records the final error for a job
func (db *DB) MarkJobFailed(ctx context.Context, id string, lastErr string) error {
	query := `
		UPDATE jobs
		SET status = 'failed', error = $2, updated_at = $3
		WHERE id = $1
	`
	res, err := db.conn.ExecContext(ctx, query, id, lastErr, time.Now())
	if err != nil {
		return fmt.Errorf("failed to mark job failed: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrJobNotFound
	}
	return nil
}

// RecoverStaleJobs re-queues jobs left in started state by a previous
// process so workers pick them up again.
func (db *DB) RecoverStaleJobs(ctx context.Context) (int64, error) {
	query := `
		UPDATE jobs
		SET status = 'pending', run_at = $1, updated_at = $1
		WHERE status = 'started'
	`
	res, err := db.conn.ExecContext(ctx, query, time.Now())
	if err != nil {
		return 0, fmt.Errorf("failed to recover stale jobs: %w", err)
	}
	return res.RowsAffected()
}

func (db *DB) scanJob(row rowScanner) (*models.Job, error) {
	var j models.Job
	var status string
	var result []byte
	var jobErr sql.NullString

	err := row.Scan(
		&j.ID, &j.Name, &j.StockID, &status, &j.Retries, &j.MaxRetries,
		&j.RunAt, &result, &jobErr, &j.CreatedAt, &j.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrJobNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan job: %w", err)
	}

	j.Status = models.JobStatus(status)
	if len(result) > 0 {
		j.Result = json.RawMessage(result)
	}
	if jobErr.Valid {
		j.Error = jobErr.String
	}
	return &j, nil
}
