package reports

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

// Create inserts a new report.
func (r *PGRepo) Create(ctx context.Context, report Report) error {
	const query = `
INSERT INTO reports (id, job_id, source_ref, result, artifact_key, created_at)
VALUES ($1, $2, $3, $4, $5, $6)`
	var result any
	if report.Result != nil {
		payload, err := json.Marshal(report.Result)
		if err != nil {
			return fmt.Errorf("marshal report result: %w", err)
		}
		result = string(payload)
	}
	_, err := r.DB.ExecContext(ctx, query,
		report.ID,
		report.JobID,
		report.SourceRef,
		result,
		report.ArtifactKey,
		report.CreatedAt,
	)
	return err
}

// GetByID returns a report by its id.
func (r *PGRepo) GetByID(ctx context.Context, reportID string) (Report, error) {
	const query = selectColumns + ` WHERE id = $1 LIMIT 1`
	return scanReport(r.DB.QueryRowContext(ctx, query, reportID))
}

// GetByJobID returns the report attached to a job.
func (r *PGRepo) GetByJobID(ctx context.Context, jobID string) (Report, error) {
	const query = selectColumns + ` WHERE job_id = $1 LIMIT 1`
	return scanReport(r.DB.QueryRowContext(ctx, query, jobID))
}

const selectColumns = `
SELECT id, job_id, source_ref, result, artifact_key, created_at
FROM reports`

func scanReport(row *sql.Row) (Report, error) {
	var (
		report Report
		result sql.NullString
	)
	err := row.Scan(
		&report.ID,
		&report.JobID,
		&report.SourceRef,
		&result,
		&report.ArtifactKey,
		&report.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return Report{}, ErrNotFound
	}
	if err != nil {
		return Report{}, err
	}
	if result.Valid && result.String != "" {
		var parsed CommitmentReport
		if err := json.Unmarshal([]byte(result.String), &parsed); err != nil {
			return Report{}, fmt.Errorf("unmarshal report result: %w", err)
		}
		report.Result = &parsed
	}
	return report, nil
}

var _ Repo = (*PGRepo)(nil)
