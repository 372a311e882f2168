package jobs

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryRepo stores jobs in memory and is safe for concurrent use.
type MemoryRepo struct {
	mu   sync.Mutex
	byID map[string]Job
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{byID: make(map[string]Job)}
}

// Create stores the job.
func (r *MemoryRepo) Create(ctx context.Context, job Job) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[job.ID] = job
	return nil
}

// GetByID returns a job by its id.
func (r *MemoryRepo) GetByID(ctx context.Context, jobID string) (Job, error) {
	if err := ctx.Err(); err != nil {
		return Job{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.byID[jobID]
	if !ok {
		return Job{}, ErrNotFound
	}
	return job, nil
}

// List returns jobs newest-first with limit/offset.
func (r *MemoryRepo) List(ctx context.Context, limit, offset int) ([]Job, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if offset < 0 {
		offset = 0
	}
	if limit < 0 {
		limit = 0
	}

	r.mu.Lock()
	jobs := make([]Job, 0, len(r.byID))
	for _, job := range r.byID {
		jobs = append(jobs, job)
	}
	r.mu.Unlock()

	sort.Slice(jobs, func(i, j int) bool {
		if jobs[i].CreatedAt.Equal(jobs[j].CreatedAt) {
			return jobs[i].ID < jobs[j].ID
		}
		return jobs[i].CreatedAt.After(jobs[j].CreatedAt)
	})

	if offset >= len(jobs) {
		return []Job{}, nil
	}
	end := len(jobs)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return jobs[offset:end], nil
}

// Claim transitions a pending job to processing.
func (r *MemoryRepo) Claim(ctx context.Context, jobID string, startedAt time.Time) (Job, error) {
	if err := ctx.Err(); err != nil {
		return Job{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.byID[jobID]
	if !ok {
		return Job{}, ErrNotFound
	}
	if job.Status != StatusPending {
		return job, ErrNotClaimable
	}
	job.Status = StatusProcessing
	job.StartedAt = &startedAt
	job.UpdatedAt = time.Now().UTC()
	r.byID[jobID] = job
	return job, nil
}

// UpdateRetry records a failed attempt that will be retried.
func (r *MemoryRepo) UpdateRetry(ctx context.Context, jobID string, retryCount int, errorMessage string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.byID[jobID]
	if !ok {
		return ErrNotFound
	}
	job.RetryCount = retryCount
	job.ErrorMessage = &errorMessage
	job.UpdatedAt = time.Now().UTC()
	r.byID[jobID] = job
	return nil
}

// MarkCompleted transitions a processing job to completed.
func (r *MemoryRepo) MarkCompleted(ctx context.Context, jobID, reportID string, completedAt time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.byID[jobID]
	if !ok {
		return ErrNotFound
	}
	job.Status = StatusCompleted
	job.ReportID = &reportID
	job.ErrorMessage = nil
	job.CompletedAt = &completedAt
	job.UpdatedAt = time.Now().UTC()
	r.byID[jobID] = job
	return nil
}

// MarkFailed transitions a processing job to terminal failed.
func (r *MemoryRepo) MarkFailed(ctx context.Context, jobID string, retryCount int, errorMessage string, completedAt time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.byID[jobID]
	if !ok {
		return ErrNotFound
	}
	job.Status = StatusFailed
	job.RetryCount = retryCount
	job.ErrorMessage = &errorMessage
	job.CompletedAt = &completedAt
	job.UpdatedAt = time.Now().UTC()
	r.byID[jobID] = job
	return nil
}

// Reset returns a terminally failed job to pending with fresh counters.
func (r *MemoryRepo) Reset(ctx context.Context, jobID string) (Job, error) {
	if err := ctx.Err(); err != nil {
		return Job{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.byID[jobID]
	if !ok {
		return Job{}, ErrNotFound
	}
	if job.Status != StatusFailed {
		return job, ErrNotResettable
	}
	job.Status = StatusPending
	job.RetryCount = 0
	job.ErrorMessage = nil
	job.StartedAt = nil
	job.CompletedAt = nil
	job.UpdatedAt = time.Now().UTC()
	r.byID[jobID] = job
	return job, nil
}

var _ Repo = (*MemoryRepo)(nil)
