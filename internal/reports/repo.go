package reports

import "context"

// Repo defines persistence operations for reports.
type Repo interface {
	Create(ctx context.Context, report Report) error
	GetByID(ctx context.Context, reportID string) (Report, error)
	GetByJobID(ctx context.Context, jobID string) (Report, error)
}
