package jobs

import (
	"context"
	"time"
)

// Repo defines persistence operations for jobs. The orchestrator service is
// the only caller that mutates status or retry counters.
type Repo interface {
	Create(ctx context.Context, job Job) error
	GetByID(ctx context.Context, jobID string) (Job, error)
	List(ctx context.Context, limit, offset int) ([]Job, error)

	// Claim transitions a pending job to processing. It returns
	// ErrNotClaimable when the job is not pending, which guarantees at most
	// one concurrent processing attempt per job.
	Claim(ctx context.Context, jobID string, startedAt time.Time) (Job, error)

	// UpdateRetry records a failed attempt that will be retried; the job
	// stays in processing.
	UpdateRetry(ctx context.Context, jobID string, retryCount int, errorMessage string) error

	MarkCompleted(ctx context.Context, jobID, reportID string, completedAt time.Time) error
	MarkFailed(ctx context.Context, jobID string, retryCount int, errorMessage string, completedAt time.Time) error

	// Reset returns a terminally failed job to pending with fresh counters.
	// Any other status returns ErrNotResettable.
	Reset(ctx context.Context, jobID string) (Job, error)
}
