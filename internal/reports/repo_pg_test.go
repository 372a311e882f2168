package reports

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestPGRepoCreateMarshalsResult(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	repo := &PGRepo{DB: db}
	now := time.Now().UTC()
	report := Report{
		ID:          "report-1",
		JobID:       "job-1",
		SourceRef:   "src-1",
		Result:      &CommitmentReport{SourceRef: "src-1", RecordCount: 2},
		ArtifactKey: "reports/report-1.json",
		CreatedAt:   now,
	}

	mock.ExpectExec("INSERT INTO reports").
		WithArgs(report.ID, report.JobID, report.SourceRef, sqlmock.AnyArg(), report.ArtifactKey, now).
		WillReturnResult(sqlmock.NewResult(1, 1))

	if err := repo.Create(context.Background(), report); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoGetByJobIDUnmarshalsResult(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	repo := &PGRepo{DB: db}
	now := time.Now().UTC()
	payload := `{"sourceRef":"src-1","recordCount":2,"uncategorized":1}`

	mock.ExpectQuery("SELECT (.+) FROM reports").
		WithArgs("job-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "job_id", "source_ref", "result", "artifact_key", "created_at"}).
			AddRow("report-1", "job-1", "src-1", payload, "reports/report-1.json", now))

	report, err := repo.GetByJobID(context.Background(), "job-1")
	if err != nil {
		t.Fatalf("GetByJobID: %v", err)
	}
	if report.Result == nil {
		t.Fatal("result not unmarshaled")
	}
	if report.Result.RecordCount != 2 || report.Result.Uncategorized != 1 {
		t.Fatalf("result = %+v", report.Result)
	}
}

func TestPGRepoGetByIDNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	repo := &PGRepo{DB: db}
	mock.ExpectQuery("SELECT (.+) FROM reports").
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"id", "job_id", "source_ref", "result", "artifact_key", "created_at"}))

	if _, err := repo.GetByID(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}
