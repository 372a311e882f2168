package jobs

import "time"

const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)

// Job is one unit of classify-and-aggregate work over a record source.
//
// Status moves pending -> processing -> {completed, failed}. A retrying job
// stays in processing between attempts; terminal states are final until an
// explicit Reset.
type Job struct {
	ID           string     `json:"id"`
	SourceRef    string     `json:"sourceRef"`
	Status       string     `json:"status"`
	RetryCount   int        `json:"retryCount"`
	MaxRetries   int        `json:"maxRetries"`
	ErrorMessage *string    `json:"errorMessage,omitempty"`
	ReportID     *string    `json:"reportId,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
	StartedAt    *time.Time `json:"startedAt,omitempty"`
	CompletedAt  *time.Time `json:"completedAt,omitempty"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

// Terminal reports whether the job has reached a terminal status.
func (j Job) Terminal() bool {
	return j.Status == StatusCompleted || j.Status == StatusFailed
}
