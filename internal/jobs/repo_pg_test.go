package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

func jobColumns() []string {
	return []string{
		"id", "source_ref", "status", "retry_count", "max_retries",
		"error_message", "report_id", "created_at", "started_at",
		"completed_at", "updated_at",
	}
}

func TestPGRepoCreateInsertsAllFields(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	repo := &PGRepo{DB: db}
	now := time.Now().UTC()
	job := Job{
		ID:         "job-1",
		SourceRef:  "src-1",
		Status:     StatusPending,
		MaxRetries: 3,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	mock.ExpectExec("INSERT INTO jobs").
		WithArgs(
			job.ID,
			job.SourceRef,
			job.Status,
			job.RetryCount,
			job.MaxRetries,
			nil, // error_message
			nil, // report_id
			job.CreatedAt,
			nil, // started_at
			nil, // completed_at
			job.UpdatedAt,
		).
		WillReturnResult(sqlmock.NewResult(1, 1))

	if err := repo.Create(context.Background(), job); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoClaimGuardsOnPendingStatus(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	repo := &PGRepo{DB: db}
	now := time.Now().UTC()

	mock.ExpectExec("UPDATE jobs").
		WithArgs("job-1", StatusProcessing, now, StatusPending).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("SELECT (.+) FROM jobs").
		WithArgs("job-1").
		WillReturnRows(sqlmock.NewRows(jobColumns()).
			AddRow("job-1", "src-1", StatusProcessing, 0, 3, nil, nil, now, now, nil, now))

	job, err := repo.Claim(context.Background(), "job-1", now)
	if err != nil {
		t.Fatalf("Claim: %v", err)
	}
	if job.Status != StatusProcessing {
		t.Fatalf("status = %s, want %s", job.Status, StatusProcessing)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoClaimRejectsNonPendingJob(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	repo := &PGRepo{DB: db}
	now := time.Now().UTC()

	mock.ExpectExec("UPDATE jobs").
		WithArgs("job-1", StatusProcessing, now, StatusPending).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT (.+) FROM jobs").
		WithArgs("job-1").
		WillReturnRows(sqlmock.NewRows(jobColumns()).
			AddRow("job-1", "src-1", StatusCompleted, 0, 3, nil, "report-1", now, now, now, now))

	job, err := repo.Claim(context.Background(), "job-1", now)
	if !errors.Is(err, ErrNotClaimable) {
		t.Fatalf("Claim err = %v, want ErrNotClaimable", err)
	}
	if job.Status != StatusCompleted {
		t.Fatalf("status = %s, want %s", job.Status, StatusCompleted)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoResetOnlyFromFailed(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	repo := &PGRepo{DB: db}
	now := time.Now().UTC()

	mock.ExpectExec("UPDATE jobs").
		WithArgs("job-1", StatusPending, StatusFailed).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT (.+) FROM jobs").
		WithArgs("job-1").
		WillReturnRows(sqlmock.NewRows(jobColumns()).
			AddRow("job-1", "src-1", StatusProcessing, 1, 3, "boom", nil, now, now, nil, now))

	if _, err := repo.Reset(context.Background(), "job-1"); !errors.Is(err, ErrNotResettable) {
		t.Fatalf("Reset err = %v, want ErrNotResettable", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoGetByIDNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	repo := &PGRepo{DB: db}
	mock.ExpectQuery("SELECT (.+) FROM jobs").
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows(jobColumns()))

	if _, err := repo.GetByID(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("GetByID err = %v, want ErrNotFound", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoMarkCompletedRequiresProcessingRow(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	repo := &PGRepo{DB: db}
	now := time.Now().UTC()

	mock.ExpectExec("UPDATE jobs").
		WithArgs("job-1", StatusCompleted, "report-1", now, StatusProcessing).
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := repo.MarkCompleted(context.Background(), "job-1", "report-1", now); !errors.Is(err, ErrNotFound) {
		t.Fatalf("MarkCompleted err = %v, want ErrNotFound", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}
