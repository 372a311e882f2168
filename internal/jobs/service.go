package jobs

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"finops-backend/internal/queue"
	"finops-backend/internal/recommendations"
	"finops-backend/internal/recommendations/classifier"
	"finops-backend/internal/reports"
	"finops-backend/internal/shared/metrics"
	"finops-backend/internal/shared/telemetry"
)

const (
	defaultMaxRetries          = 3
	defaultAttemptTimeout      = 5 * time.Minute
	defaultBackoffBase         = 500 * time.Millisecond
	defaultClassifyConcurrency = 8
)

// ReportAssembler receives the aggregated result of a completed job.
type ReportAssembler interface {
	Assemble(ctx context.Context, jobID string, result reports.CommitmentReport) (reports.Report, error)
}

// Service owns the job state machine. It is the only component that mutates
// job status or retry counters.
type Service struct {
	Repo       Repo
	Records    recommendations.Repo
	Classifier *classifier.Classifier
	Assembler  ReportAssembler
	Queue      queue.Client

	MaxRetries          int
	AttemptTimeout      time.Duration
	BackoffBase         time.Duration
	ClassifyConcurrency int

	// Sleep is overridable in tests; nil means context-aware time.Sleep.
	Sleep func(ctx context.Context, d time.Duration) error
}

// Create persists a new pending job for a record source and schedules its
// processing, either via the queue or inline when no queue is configured.
func (s *Service) Create(ctx context.Context, sourceRef string) (Job, error) {
	if strings.TrimSpace(sourceRef) == "" {
		return Job{}, errors.New("sourceRef is required")
	}

	now := time.Now().UTC()
	job := Job{
		ID:         uuid.NewString(),
		SourceRef:  sourceRef,
		Status:     StatusPending,
		MaxRetries: s.maxRetries(),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.Repo.Create(ctx, job); err != nil {
		return Job{}, err
	}

	telemetry.Info("job.created", map[string]any{
		"request_id": requestIDFromContext(ctx),
		"job_id":     job.ID,
		"source_ref": job.SourceRef,
	})

	if err := s.schedule(ctx, job.ID); err != nil {
		return job, err
	}
	return job, nil
}

// Get returns a job by ID. Polling has no side effects.
func (s *Service) Get(ctx context.Context, jobID string) (Job, error) {
	if jobID == "" {
		return Job{}, errors.New("jobID is required")
	}
	return s.Repo.GetByID(ctx, jobID)
}

// List returns jobs newest-first.
func (s *Service) List(ctx context.Context, limit, offset int) ([]Job, error) {
	return s.Repo.List(ctx, limit, offset)
}

// Reset returns a terminally failed job to pending and schedules a fresh
// retry cycle. Jobs in any other status are rejected with ErrNotResettable.
func (s *Service) Reset(ctx context.Context, jobID string) (Job, error) {
	if jobID == "" {
		return Job{}, errors.New("jobID is required")
	}
	job, err := s.Repo.Reset(ctx, jobID)
	if err != nil {
		return job, err
	}
	telemetry.Info("job.status", map[string]any{
		"request_id":        requestIDFromContext(ctx),
		"job_id":            job.ID,
		"source_ref":        job.SourceRef,
		"status":            StatusPending,
		"status_transition": "failed->pending",
	})
	if err := s.schedule(ctx, job.ID); err != nil {
		return job, err
	}
	return job, nil
}

func (s *Service) schedule(ctx context.Context, jobID string) error {
	if s.Queue != nil {
		msg := queue.Message{
			JobID:      jobID,
			RequestID:  requestIDFromContext(ctx),
			EnqueuedAt: time.Now().UTC().Format(time.RFC3339),
			Version:    1,
		}
		if err := s.Queue.Send(ctx, msg); err != nil {
			telemetry.Error("job.enqueue_failed", map[string]any{
				"request_id": requestIDFromContext(ctx),
				"job_id":     jobID,
				"error":      sanitizeError(err),
			})
			return fmt.Errorf("enqueue job %s: %w", jobID, err)
		}
		return nil
	}
	go func(ctx context.Context) {
		if err := s.Process(ctx, jobID); err != nil {
			telemetry.Error("job.process_failed", map[string]any{
				"request_id": requestIDFromContext(ctx),
				"job_id":     jobID,
				"error":      sanitizeError(err),
			})
		}
	}(backgroundWithRequestID(ctx))
	return nil
}

// Process claims a pending job and drives it to a terminal state. Each
// attempt runs under a hard wall-clock timeout; a failed attempt increments
// retry_count and retries after exponential backoff while the job stays in
// processing. Once retry_count reaches max_retries the job fails terminally.
//
// A job that is not pending (already claimed by another worker, or terminal)
// is skipped without error, so queue redelivery is harmless.
func (s *Service) Process(ctx context.Context, jobID string) error {
	if jobID == "" {
		return errors.New("jobID is required")
	}

	startedAt := time.Now().UTC()
	job, err := s.Repo.Claim(ctx, jobID, startedAt)
	if err != nil {
		if errors.Is(err, ErrNotClaimable) {
			telemetry.Info("job.claim_skipped", map[string]any{
				"request_id": requestIDFromContext(ctx),
				"job_id":     jobID,
				"status":     job.Status,
			})
			return nil
		}
		return fmt.Errorf("claim job %s: %w", jobID, err)
	}

	metrics.IncJobStarted()
	telemetry.Info("job.status", map[string]any{
		"request_id":        requestIDFromContext(ctx),
		"job_id":            job.ID,
		"source_ref":        job.SourceRef,
		"status":            StatusProcessing,
		"status_transition": "pending->processing",
	})

	for {
		attemptCtx, cancel := context.WithTimeout(ctx, s.attemptTimeout())
		reportID, attemptErr := s.runAttempt(attemptCtx, job)
		cancel()

		if attemptErr == nil {
			completedAt := time.Now().UTC()
			if err := s.Repo.MarkCompleted(ctx, job.ID, reportID, completedAt); err != nil {
				return fmt.Errorf("mark job %s completed: %w", job.ID, err)
			}
			metrics.IncJobCompleted()
			metrics.ObserveJobDurationMs(metrics.DurationMs(completedAt.Sub(startedAt)))
			telemetry.Info("job.status", map[string]any{
				"request_id":        requestIDFromContext(ctx),
				"job_id":            job.ID,
				"source_ref":        job.SourceRef,
				"report_id":         reportID,
				"retry_count":       job.RetryCount,
				"status":            StatusCompleted,
				"status_transition": "processing->completed",
				"duration_ms":       metrics.DurationMs(completedAt.Sub(startedAt)),
			})
			return nil
		}

		code := classifyFailure(attemptErr)
		msg := sanitizeError(attemptErr)
		job.RetryCount++

		if job.RetryCount < job.MaxRetries {
			if err := s.Repo.UpdateRetry(ctx, job.ID, job.RetryCount, msg); err != nil {
				return fmt.Errorf("record retry for job %s: %w", job.ID, err)
			}
			delay := s.backoffDelay(job.RetryCount)
			metrics.IncJobRetried()
			telemetry.Info("job.retry", map[string]any{
				"request_id":  requestIDFromContext(ctx),
				"job_id":      job.ID,
				"source_ref":  job.SourceRef,
				"retry_count": job.RetryCount,
				"max_retries": job.MaxRetries,
				"error_code":  code,
				"error":       msg,
				"backoff_ms":  delay.Milliseconds(),
			})
			if err := s.sleep(ctx, delay); err != nil {
				s.failJob(ctx, job, startedAt, code, msg)
				return err
			}
			continue
		}

		s.failJob(ctx, job, startedAt, code, msg)
		return nil
	}
}

// runAttempt executes one full classify-aggregate-handoff pass and returns
// the assembled report ID. Aggregation reads the complete classified set
// built in this attempt, never a partial snapshot.
func (s *Service) runAttempt(ctx context.Context, job Job) (string, error) {
	if s.Records == nil || s.Assembler == nil {
		return "", errors.New("missing record store or report assembler")
	}
	cls := s.Classifier
	if cls == nil {
		cls = classifier.NewDefault()
	}

	records, err := s.Records.ListBySource(ctx, job.SourceRef)
	if err != nil {
		return "", fmt.Errorf("load records for source %s: %w", job.SourceRef, err)
	}
	for _, record := range records {
		if record.ID == "" {
			return "", fmt.Errorf("record without id in source %s", job.SourceRef)
		}
	}

	classifiedAt := time.Now().UTC()
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.classifyConcurrency())
	for i := range records {
		i := i
		g.Go(func() error {
			result := cls.ClassifyRecord(records[i])
			records[i].IsCommitment = result.IsCommitment
			records[i].Category = result.Category
			records[i].ClassifiedAt = &classifiedAt
			if err := s.Records.UpdateClassification(gctx, records[i].ID, result.IsCommitment, result.Category, classifiedAt); err != nil {
				return fmt.Errorf("store classification for record %s: %w", records[i].ID, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return "", err
	}
	metrics.AddRecordsClassified(len(records))

	result := reports.BuildReport(job.SourceRef, records, time.Now().UTC())
	report, err := s.Assembler.Assemble(ctx, job.ID, result)
	if err != nil {
		return "", fmt.Errorf("assemble report: %w", err)
	}
	return report.ID, nil
}

func (s *Service) failJob(ctx context.Context, job Job, startedAt time.Time, code, msg string) {
	completedAt := time.Now().UTC()
	// Terminal write must land even when the processing context is gone.
	if err := s.Repo.MarkFailed(context.Background(), job.ID, job.RetryCount, fmt.Sprintf("%s: %s", code, msg), completedAt); err != nil {
		telemetry.Error("job.mark_failed_error", map[string]any{
			"request_id": requestIDFromContext(ctx),
			"job_id":     job.ID,
			"error":      sanitizeError(err),
		})
	}
	metrics.IncJobFailed()
	metrics.ObserveJobDurationMs(metrics.DurationMs(completedAt.Sub(startedAt)))
	telemetry.Info("job.status", map[string]any{
		"request_id":        requestIDFromContext(ctx),
		"job_id":            job.ID,
		"source_ref":        job.SourceRef,
		"retry_count":       job.RetryCount,
		"error_code":        code,
		"error":             msg,
		"status":            StatusFailed,
		"status_transition": "processing->failed",
		"duration_ms":       metrics.DurationMs(completedAt.Sub(startedAt)),
	})
}

func (s *Service) maxRetries() int {
	if s.MaxRetries > 0 {
		return s.MaxRetries
	}
	return defaultMaxRetries
}

func (s *Service) attemptTimeout() time.Duration {
	if s.AttemptTimeout > 0 {
		return s.AttemptTimeout
	}
	return defaultAttemptTimeout
}

func (s *Service) backoffDelay(retryCount int) time.Duration {
	base := s.BackoffBase
	if base <= 0 {
		base = defaultBackoffBase
	}
	return base * time.Duration(1<<uint(retryCount))
}

func (s *Service) classifyConcurrency() int {
	if s.ClassifyConcurrency > 0 {
		return s.ClassifyConcurrency
	}
	return defaultClassifyConcurrency
}

func (s *Service) sleep(ctx context.Context, d time.Duration) error {
	if s.Sleep != nil {
		return s.Sleep(ctx, d)
	}
	select {
	case <-time.After(d):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func classifyFailure(err error) string {
	if err == nil {
		return ErrorCodeInternal
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrorCodeTimeout
	}
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "without id") {
		return ErrorCodeContract
	}
	if strings.Contains(msg, "assemble") || strings.Contains(msg, "report") {
		return ErrorCodeAssembler
	}
	if strings.Contains(msg, "record") || strings.Contains(msg, "classification") || strings.Contains(msg, "storage") {
		return ErrorCodeStorage
	}
	return ErrorCodeInternal
}

func sanitizeError(err error) string {
	if err == nil {
		return ""
	}
	msg := strings.ReplaceAll(err.Error(), "\n", " ")
	msg = strings.ReplaceAll(msg, "\r", " ")
	msg = strings.TrimSpace(msg)
	const maxLen = 500
	if len(msg) > maxLen {
		msg = msg[:maxLen]
	}
	return msg
}
