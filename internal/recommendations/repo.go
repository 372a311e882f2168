package recommendations

import (
	"context"
	"time"
)

// Repo defines persistence operations for recommendation records.
type Repo interface {
	CreateBatch(ctx context.Context, records []Record) error
	GetByID(ctx context.Context, id string) (Record, error)
	ListBySource(ctx context.Context, sourceRef string) ([]Record, error)
	UpdateClassification(ctx context.Context, id string, isCommitment bool, category Category, classifiedAt time.Time) error
}
