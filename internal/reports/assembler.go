package reports

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"finops-backend/internal/shared/storage/object"
	"finops-backend/internal/shared/telemetry"
)

// Assembler persists an aggregated report and writes its JSON artifact to the
// object store. It is the downstream handoff target for a completed job; any
// error here fails the job's processing attempt.
type Assembler struct {
	Repo  Repo
	Store object.ObjectStore
}

// Assemble stores the report and returns the persisted row.
func (a *Assembler) Assemble(ctx context.Context, jobID string, result CommitmentReport) (Report, error) {
	if a.Repo == nil {
		return Report{}, fmt.Errorf("report repo not configured")
	}

	report := Report{
		ID:        uuid.NewString(),
		JobID:     jobID,
		SourceRef: result.SourceRef,
		Result:    &result,
		CreatedAt: time.Now().UTC(),
	}

	if a.Store != nil {
		payload, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return Report{}, fmt.Errorf("marshal report artifact: %w", err)
		}
		key := fmt.Sprintf("reports/%s.json", report.ID)
		if _, err := a.Store.Put(ctx, key, "application/json", bytes.NewReader(payload)); err != nil {
			return Report{}, fmt.Errorf("write report artifact: %w", err)
		}
		report.ArtifactKey = key
	}

	if err := a.Repo.Create(ctx, report); err != nil {
		return Report{}, fmt.Errorf("store report: %w", err)
	}

	telemetry.Info("report.assembled", map[string]any{
		"job_id":       jobID,
		"report_id":    report.ID,
		"source_ref":   report.SourceRef,
		"record_count": result.RecordCount,
		"artifact_key": report.ArtifactKey,
	})
	return report, nil
}
