package memory

import (
	"context"
	"sync"

	equipment "chemequip-cloud/internal/equipment/domain"
)

const defaultRetentionLimit = 5

// DatasetRepository is an in-memory dataset store with the same atomic
// insert-with-eviction contract as the Postgres repository.
type DatasetRepository struct {
	mu        sync.RWMutex
	retention int
	datasets  []*equipment.Dataset // newest first
}

// Option configures the repository.
type Option func(*DatasetRepository)

// WithRetentionLimit overrides the number of datasets retained.
func WithRetentionLimit(limit int) Option {
	return func(repo *DatasetRepository) {
		if limit > 0 {
			repo.retention = limit
		}
	}
}

// NewDatasetRepository constructs a repository.
func NewDatasetRepository(opts ...Option) *DatasetRepository {
	repo := &DatasetRepository{retention: defaultRetentionLimit}
	for _, opt := range opts {
		opt(repo)
	}
	return repo
}

// Insert stores a dataset and evicts the oldest beyond the retention cap.
func (r *DatasetRepository) Insert(ctx context.Context, dataset *equipment.Dataset) error {
	_ = ctx
	if dataset == nil {
		return equipment.ErrNilDataset
	}
	if dataset.ID == "" {
		return equipment.ErrEmptyDatasetID
	}

	stored := dataset.Clone()
	r.mu.Lock()
	defer r.mu.Unlock()
	r.datasets = append([]*equipment.Dataset{stored}, r.datasets...)
	if len(r.datasets) > r.retention {
		r.datasets = r.datasets[:r.retention]
	}
	return nil
}

// List returns retained datasets, newest first, without records.
func (r *DatasetRepository) List(ctx context.Context) ([]*equipment.Dataset, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*equipment.Dataset, 0, len(r.datasets))
	for _, ds := range r.datasets {
		clone := ds.Clone()
		clone.Records = nil
		out = append(out, clone)
	}
	return out, nil
}

// Get loads one dataset with records.
func (r *DatasetRepository) Get(ctx context.Context, id string) (*equipment.Dataset, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, ds := range r.datasets {
		if ds.ID == id {
			return ds.Clone(), nil
		}
	}
	return nil, equipment.ErrDatasetNotFound
}

// Delete removes one dataset.
func (r *DatasetRepository) Delete(ctx context.Context, id string) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, ds := range r.datasets {
		if ds.ID == id {
			r.datasets = append(r.datasets[:i], r.datasets[i+1:]...)
			return nil
		}
	}
	return equipment.ErrDatasetNotFound
}
