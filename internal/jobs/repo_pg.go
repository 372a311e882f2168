package jobs

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// PGRepo implements Repo using Postgres. Claim and Reset use conditional
// updates so that concurrent workers cannot double-claim or double-reset.
type PGRepo struct {
	DB *sql.DB
}

// Create inserts a new job.
func (r *PGRepo) Create(ctx context.Context, job Job) error {
	const query = `
INSERT INTO jobs (
	id, source_ref, status, retry_count, max_retries, error_message, report_id,
	created_at, started_at, completed_at, updated_at
)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	_, err := r.DB.ExecContext(ctx, query,
		job.ID,
		job.SourceRef,
		job.Status,
		job.RetryCount,
		job.MaxRetries,
		job.ErrorMessage,
		job.ReportID,
		job.CreatedAt,
		job.StartedAt,
		job.CompletedAt,
		job.UpdatedAt,
	)
	return err
}

// GetByID returns a job by its id.
func (r *PGRepo) GetByID(ctx context.Context, jobID string) (Job, error) {
	const query = selectColumns + ` WHERE id = $1 LIMIT 1`
	return scanJob(r.DB.QueryRowContext(ctx, query, jobID))
}

// List returns jobs newest-first with limit/offset.
func (r *PGRepo) List(ctx context.Context, limit, offset int) ([]Job, error) {
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	const query = selectColumns + ` ORDER BY created_at DESC, id LIMIT $1 OFFSET $2`
	rows, err := r.DB.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Job
	for rows.Next() {
		job, err := scanJobRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, job)
	}
	return out, rows.Err()
}

// Claim transitions a pending job to processing with a status guard, so at
// most one worker can hold processing for a given job.
func (r *PGRepo) Claim(ctx context.Context, jobID string, startedAt time.Time) (Job, error) {
	const query = `
UPDATE jobs
SET status = $2, started_at = $3, updated_at = NOW()
WHERE id = $1 AND status = $4`
	res, err := r.DB.ExecContext(ctx, query, jobID, StatusProcessing, startedAt, StatusPending)
	if err != nil {
		return Job{}, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return Job{}, err
	}
	job, getErr := r.GetByID(ctx, jobID)
	if getErr != nil {
		return Job{}, getErr
	}
	if affected == 0 {
		return job, ErrNotClaimable
	}
	return job, nil
}

// UpdateRetry records a failed attempt that will be retried.
func (r *PGRepo) UpdateRetry(ctx context.Context, jobID string, retryCount int, errorMessage string) error {
	const query = `
UPDATE jobs
SET retry_count = $2, error_message = $3, updated_at = NOW()
WHERE id = $1 AND status = $4`
	return r.execExpectingRow(ctx, query, jobID, retryCount, errorMessage, StatusProcessing)
}

// MarkCompleted transitions a processing job to completed.
func (r *PGRepo) MarkCompleted(ctx context.Context, jobID, reportID string, completedAt time.Time) error {
	const query = `
UPDATE jobs
SET status = $2, report_id = $3, error_message = NULL, completed_at = $4, updated_at = NOW()
WHERE id = $1 AND status = $5`
	return r.execExpectingRow(ctx, query, jobID, StatusCompleted, reportID, completedAt, StatusProcessing)
}

// MarkFailed transitions a processing job to terminal failed.
func (r *PGRepo) MarkFailed(ctx context.Context, jobID string, retryCount int, errorMessage string, completedAt time.Time) error {
	const query = `
UPDATE jobs
SET status = $2, retry_count = $3, error_message = $4, completed_at = $5, updated_at = NOW()
WHERE id = $1 AND status = $6`
	return r.execExpectingRow(ctx, query, jobID, StatusFailed, retryCount, errorMessage, completedAt, StatusProcessing)
}

// Reset returns a terminally failed job to pending with fresh counters.
func (r *PGRepo) Reset(ctx context.Context, jobID string) (Job, error) {
	const query = `
UPDATE jobs
SET status = $2, retry_count = 0, error_message = NULL, started_at = NULL,
    completed_at = NULL, updated_at = NOW()
WHERE id = $1 AND status = $3`
	res, err := r.DB.ExecContext(ctx, query, jobID, StatusPending, StatusFailed)
	if err != nil {
		return Job{}, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return Job{}, err
	}
	job, getErr := r.GetByID(ctx, jobID)
	if getErr != nil {
		return Job{}, getErr
	}
	if affected == 0 {
		return job, ErrNotResettable
	}
	return job, nil
}

func (r *PGRepo) execExpectingRow(ctx context.Context, query string, args ...any) error {
	res, err := r.DB.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

const selectColumns = `
SELECT id, source_ref, status, retry_count, max_retries, error_message, report_id,
       created_at, started_at, completed_at, updated_at
FROM jobs`

func scanJob(row *sql.Row) (Job, error) {
	job, err := scanJobRow(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Job{}, ErrNotFound
	}
	return job, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanJobRow(row rowScanner) (Job, error) {
	var (
		job          Job
		errorMessage sql.NullString
		reportID     sql.NullString
		startedAt    sql.NullTime
		completedAt  sql.NullTime
	)
	if err := row.Scan(
		&job.ID,
		&job.SourceRef,
		&job.Status,
		&job.RetryCount,
		&job.MaxRetries,
		&errorMessage,
		&reportID,
		&job.CreatedAt,
		&startedAt,
		&completedAt,
		&job.UpdatedAt,
	); err != nil {
		return Job{}, err
	}
	if errorMessage.Valid {
		job.ErrorMessage = &errorMessage.String
	}
	if reportID.Valid {
		job.ReportID = &reportID.String
	}
	if startedAt.Valid {
		t := startedAt.Time
		job.StartedAt = &t
	}
	if completedAt.Valid {
		t := completedAt.Time
		job.CompletedAt = &t
	}
	return job, nil
}

var _ Repo = (*PGRepo)(nil)
