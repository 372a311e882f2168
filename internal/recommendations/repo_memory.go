package recommendations

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryRepo stores records in memory and is safe for concurrent use.
type MemoryRepo struct {
	mu       sync.RWMutex
	byID     map[string]Record
	bySource map[string][]string
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		byID:     make(map[string]Record),
		bySource: make(map[string][]string),
	}
}

// CreateBatch stores the records. The whole batch is rejected on a duplicate id.
func (r *MemoryRepo) CreateBatch(ctx context.Context, records []Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, record := range records {
		if _, ok := r.byID[record.ID]; ok {
			return ErrDuplicate
		}
	}
	for _, record := range records {
		r.byID[record.ID] = record
		r.bySource[record.SourceRef] = append(r.bySource[record.SourceRef], record.ID)
	}
	return nil
}

// GetByID returns a record by its id.
func (r *MemoryRepo) GetByID(ctx context.Context, id string) (Record, error) {
	if err := ctx.Err(); err != nil {
		return Record{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	record, ok := r.byID[id]
	if !ok {
		return Record{}, ErrNotFound
	}
	return record, nil
}

// ListBySource returns all records for a source ref, ordered by id for determinism.
func (r *MemoryRepo) ListBySource(ctx context.Context, sourceRef string) ([]Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := r.bySource[sourceRef]
	out := make([]Record, 0, len(ids))
	for _, id := range ids {
		out = append(out, r.byID[id])
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// UpdateClassification writes the classification result for a record.
func (r *MemoryRepo) UpdateClassification(ctx context.Context, id string, isCommitment bool, category Category, classifiedAt time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	record, ok := r.byID[id]
	if !ok {
		return ErrNotFound
	}
	record.IsCommitment = isCommitment
	record.Category = category
	record.ClassifiedAt = &classifiedAt
	r.byID[id] = record
	return nil
}

var _ Repo = (*MemoryRepo)(nil)
