package jobs

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestMemoryRepoLifecycle(t *testing.T) {
	repo := NewMemoryRepo()
	ctx := context.Background()
	now := time.Now().UTC()

	job := Job{ID: "job-1", SourceRef: "src-1", Status: StatusPending, MaxRetries: 3, CreatedAt: now, UpdatedAt: now}
	if err := repo.Create(ctx, job); err != nil {
		t.Fatalf("Create: %v", err)
	}

	claimed, err := repo.Claim(ctx, job.ID, now)
	if err != nil {
		t.Fatalf("Claim: %v", err)
	}
	if claimed.Status != StatusProcessing || claimed.StartedAt == nil {
		t.Fatalf("claimed = (%s, %v)", claimed.Status, claimed.StartedAt)
	}

	if err := repo.UpdateRetry(ctx, job.ID, 1, "transient"); err != nil {
		t.Fatalf("UpdateRetry: %v", err)
	}
	got, err := repo.GetByID(ctx, job.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.RetryCount != 1 || got.Status != StatusProcessing {
		t.Fatalf("after retry = (%s, %d)", got.Status, got.RetryCount)
	}
	if got.ErrorMessage == nil || *got.ErrorMessage != "transient" {
		t.Fatalf("errorMessage = %v", got.ErrorMessage)
	}

	if err := repo.MarkCompleted(ctx, job.ID, "report-1", now); err != nil {
		t.Fatalf("MarkCompleted: %v", err)
	}
	got, _ = repo.GetByID(ctx, job.ID)
	if got.Status != StatusCompleted || got.ReportID == nil || *got.ReportID != "report-1" {
		t.Fatalf("completed = (%s, %v)", got.Status, got.ReportID)
	}
	if got.ErrorMessage != nil {
		t.Fatalf("errorMessage = %v after completion", got.ErrorMessage)
	}
}

func TestMemoryRepoClaimAtMostOnce(t *testing.T) {
	repo := NewMemoryRepo()
	ctx := context.Background()
	now := time.Now().UTC()
	if err := repo.Create(ctx, Job{ID: "job-1", SourceRef: "src-1", Status: StatusPending, MaxRetries: 3, CreatedAt: now, UpdatedAt: now}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	const workers = 8
	var wg sync.WaitGroup
	results := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repo.Claim(ctx, "job-1", time.Now().UTC())
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var claims int
	for err := range results {
		if err == nil {
			claims++
		} else if !errors.Is(err, ErrNotClaimable) {
			t.Fatalf("unexpected claim error: %v", err)
		}
	}
	if claims != 1 {
		t.Fatalf("claims = %d, want exactly 1", claims)
	}
}

func TestMemoryRepoResetRestoresPending(t *testing.T) {
	repo := NewMemoryRepo()
	ctx := context.Background()
	now := time.Now().UTC()
	if err := repo.Create(ctx, Job{ID: "job-1", SourceRef: "src-1", Status: StatusPending, MaxRetries: 3, CreatedAt: now, UpdatedAt: now}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := repo.Claim(ctx, "job-1", now); err != nil {
		t.Fatalf("Claim: %v", err)
	}

	if _, err := repo.Reset(ctx, "job-1"); !errors.Is(err, ErrNotResettable) {
		t.Fatalf("Reset processing err = %v, want ErrNotResettable", err)
	}

	if err := repo.MarkFailed(ctx, "job-1", 3, "STORAGE_ERROR: down", now); err != nil {
		t.Fatalf("MarkFailed: %v", err)
	}
	job, err := repo.Reset(ctx, "job-1")
	if err != nil {
		t.Fatalf("Reset: %v", err)
	}
	if job.Status != StatusPending || job.RetryCount != 0 || job.ErrorMessage != nil {
		t.Fatalf("reset = (%s, %d, %v)", job.Status, job.RetryCount, job.ErrorMessage)
	}
	if job.StartedAt != nil || job.CompletedAt != nil {
		t.Fatal("timestamps not cleared on reset")
	}
}

func TestMemoryRepoListNewestFirst(t *testing.T) {
	repo := NewMemoryRepo()
	ctx := context.Background()
	base := time.Now().UTC()
	for i := 0; i < 3; i++ {
		job := Job{
			ID:        []string{"job-a", "job-b", "job-c"}[i],
			SourceRef: "src-1",
			Status:    StatusPending,
			CreatedAt: base.Add(time.Duration(i) * time.Second),
			UpdatedAt: base,
		}
		if err := repo.Create(ctx, job); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	jobs, err := repo.List(ctx, 2, 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(jobs) != 2 {
		t.Fatalf("len = %d, want 2", len(jobs))
	}
	if jobs[0].ID != "job-c" || jobs[1].ID != "job-b" {
		t.Fatalf("order = [%s, %s]", jobs[0].ID, jobs[1].ID)
	}
}
