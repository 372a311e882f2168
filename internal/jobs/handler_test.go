package jobs

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"finops-backend/internal/queue"
	"finops-backend/internal/recommendations"
)

func newHandlerRouter(t *testing.T) (*gin.Engine, *Service, *MemoryRepo) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	jobRepo := NewMemoryRepo()
	svc := &Service{
		Repo:      jobRepo,
		Records:   recommendations.NewMemoryRepo(),
		Assembler: &stubAssembler{},
		Queue:     queue.NewMemoryClient(),
		Sleep:     noSleep,
	}
	r := gin.New()
	NewHandler(svc).RegisterRoutes(r.Group("/api/v1"))
	return r, svc, jobRepo
}

func TestCreateJobReturnsAccepted(t *testing.T) {
	r, _, _ := newHandlerRouter(t)

	body, _ := json.Marshal(map[string]string{"sourceRef": "src-1"})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/reports", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want 202: %s", resp.Code, resp.Body.String())
	}
	var payload struct {
		JobID  string `json:"jobId"`
		Status string `json:"status"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if payload.JobID == "" || payload.Status != StatusPending {
		t.Fatalf("payload = %+v", payload)
	}
}

func TestCreateJobRequiresSourceRef(t *testing.T) {
	r, _, _ := newHandlerRouter(t)

	body, _ := json.Marshal(map[string]string{"sourceRef": "  "})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/reports", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.Code)
	}
}

func TestGetJobReturnsStatusFields(t *testing.T) {
	r, _, jobRepo := newHandlerRouter(t)

	now := time.Now().UTC()
	errMsg := "STORAGE_ERROR: record store unreachable"
	job := Job{
		ID:           "job-1",
		SourceRef:    "src-1",
		Status:       StatusFailed,
		RetryCount:   3,
		MaxRetries:   3,
		ErrorMessage: &errMsg,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := jobRepo.Create(context.Background(), job); err != nil {
		t.Fatalf("create job: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/jobs/job-1", nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.Code)
	}
	var payload map[string]any
	if err := json.Unmarshal(resp.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if payload["status"] != StatusFailed {
		t.Fatalf("status field = %v", payload["status"])
	}
	if payload["retryCount"] != float64(3) {
		t.Fatalf("retryCount = %v", payload["retryCount"])
	}
	if payload["errorMessage"] != errMsg {
		t.Fatalf("errorMessage = %v", payload["errorMessage"])
	}
}

func TestGetJobNotFound(t *testing.T) {
	r, _, _ := newHandlerRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/jobs/missing", nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", resp.Code)
	}
}

func TestResetJobConflictWhenNotFailed(t *testing.T) {
	r, svc, _ := newHandlerRouter(t)

	job, err := svc.Create(context.Background(), "src-1")
	if err != nil {
		t.Fatalf("create job: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/jobs/"+job.ID+"/reset", nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", resp.Code)
	}
}

func TestListJobsReturnsItems(t *testing.T) {
	r, svc, _ := newHandlerRouter(t)

	for _, src := range []string{"src-1", "src-2"} {
		if _, err := svc.Create(context.Background(), src); err != nil {
			t.Fatalf("create job: %v", err)
		}
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/jobs", nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.Code)
	}
	var payload struct {
		Items []map[string]any `json:"items"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(payload.Items) != 2 {
		t.Fatalf("items = %d, want 2", len(payload.Items))
	}
}
