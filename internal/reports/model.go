package reports

import (
	"errors"
	"time"
)

var ErrNotFound = errors.New("not found")

// Report is a persisted aggregation result for one completed job.
type Report struct {
	ID          string            `json:"id"`
	JobID       string            `json:"jobId"`
	SourceRef   string            `json:"sourceRef"`
	Result      *CommitmentReport `json:"result,omitempty"`
	ArtifactKey string            `json:"artifactKey,omitempty"`
	CreatedAt   time.Time         `json:"createdAt"`
}
