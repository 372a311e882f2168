package workerproc

import (
	"context"
	"errors"
	"testing"

	"finops-backend/internal/bootstrap"
	"finops-backend/internal/queue"
)

type stubProcessor struct {
	jobIDs []string
	err    error
}

func (s *stubProcessor) Process(ctx context.Context, jobID string) error {
	s.jobIDs = append(s.jobIDs, jobID)
	return s.err
}

func TestParseMessageValidPayload(t *testing.T) {
	body := `{"jobId":"job-1","requestId":"req-1","version":1}`
	msg, meta, err := ParseMessage(body)
	if err != nil {
		t.Fatalf("ParseMessage: %v", err)
	}
	if msg.JobID != "job-1" || msg.RequestID != "req-1" {
		t.Fatalf("msg = %+v", msg)
	}
	if meta.BodyLen != len(body) || meta.BodySHA == "" {
		t.Fatalf("meta = %+v", meta)
	}
}

func TestParseMessageEmptyBody(t *testing.T) {
	var emptyErr ErrEmptyBody
	if _, _, err := ParseMessage("   "); !errors.As(err, &emptyErr) {
		t.Fatalf("err = %v, want ErrEmptyBody", err)
	}
}

func TestParseMessageInvalidJSON(t *testing.T) {
	var decodeErr ErrDecode
	if _, _, err := ParseMessage("{not json"); !errors.As(err, &decodeErr) {
		t.Fatalf("err = %v, want ErrDecode", err)
	}
}

func TestParseMessageMissingJobID(t *testing.T) {
	var missingErr ErrMissingJobID
	_, _, err := ParseMessage(`{"requestId":"req-1"}`)
	if !errors.As(err, &missingErr) {
		t.Fatalf("err = %v, want ErrMissingJobID", err)
	}
	if missingErr.RequestID != "req-1" {
		t.Fatalf("requestID = %q", missingErr.RequestID)
	}
}

func TestHandleMessageDispatchesToProcessor(t *testing.T) {
	processor := &stubProcessor{}
	app := &bootstrap.App{JobProcessor: processor}

	body := `{"jobId":"job-1","requestId":"req-1","version":1}`
	if err := HandleMessage(context.Background(), app, body); err != nil {
		t.Fatalf("HandleMessage: %v", err)
	}
	if len(processor.jobIDs) != 1 || processor.jobIDs[0] != "job-1" {
		t.Fatalf("processed = %v", processor.jobIDs)
	}
}

func TestHandleMessageWrapsProcessError(t *testing.T) {
	processor := &stubProcessor{err: errors.New("boom")}
	app := &bootstrap.App{JobProcessor: processor}

	var processErr ErrProcess
	err := HandleMessage(context.Background(), app, `{"jobId":"job-1"}`)
	if !errors.As(err, &processErr) {
		t.Fatalf("err = %v, want ErrProcess", err)
	}
	if processErr.JobID != "job-1" {
		t.Fatalf("jobID = %q", processErr.JobID)
	}
}

func TestHandleMessageUsesParsedMessageFromContext(t *testing.T) {
	processor := &stubProcessor{}
	app := &bootstrap.App{JobProcessor: processor}

	ctx := WithParsedMessage(context.Background(), queue.Message{JobID: "job-ctx"})
	if err := HandleMessage(ctx, app, "ignored"); err != nil {
		t.Fatalf("HandleMessage: %v", err)
	}
	if len(processor.jobIDs) != 1 || processor.jobIDs[0] != "job-ctx" {
		t.Fatalf("processed = %v", processor.jobIDs)
	}
}
