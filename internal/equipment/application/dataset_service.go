package application

import (
	"context"
	"errors"
	"time"

	equipment "chemequip-cloud/internal/equipment/domain"
	"chemequip-cloud/internal/equipment/ingest"
)

// Clock provides time.
type Clock interface {
	Now() time.Time
}

// DatasetIDFactory builds dataset ids.
type DatasetIDFactory func() string

// DatasetService handles the upload-and-summarize use case and dataset reads.
//
// Upload is synchronous and atomic: parse, aggregate and persist either all
// succeed or the store is left unchanged. Eviction of datasets beyond the
// retention cap happens inside the repository's atomic insert.
type DatasetService struct {
	repo      equipment.DatasetRepository
	clock     Clock
	idFactory DatasetIDFactory
}

// NewDatasetService builds a DatasetService.
func NewDatasetService(repo equipment.DatasetRepository, clock Clock, idFactory DatasetIDFactory) (*DatasetService, error) {
	if repo == nil {
		return nil, errors.New("dataset service: nil repository")
	}
	if clock == nil {
		return nil, errors.New("dataset service: nil clock")
	}
	if idFactory == nil {
		idFactory = equipment.NewDatasetID
	}
	return &DatasetService{repo: repo, clock: clock, idFactory: idFactory}, nil
}

// Upload ingests raw CSV bytes, computes the summary and persists the
// dataset. Ingest errors pass through typed so callers can classify them.
func (s *DatasetService) Upload(ctx context.Context, raw []byte, filename string) (*equipment.Dataset, error) {
	parsed, err := ingest.Parse(raw, filename)
	if err != nil {
		return nil, err
	}

	dataset := &equipment.Dataset{
		ID:           s.idFactory(),
		Filename:     filename,
		UploadedAt:   s.clock.Now().UTC(),
		TotalRecords: len(parsed.Records),
		SkippedRows:  parsed.Skipped,
		Summary:      equipment.Summarize(parsed.Records),
		Records:      parsed.Records,
	}
	if err := s.repo.Insert(ctx, dataset); err != nil {
		return nil, err
	}
	return dataset, nil
}

// List returns the retained datasets, newest first, without records.
func (s *DatasetService) List(ctx context.Context) ([]*equipment.Dataset, error) {
	return s.repo.List(ctx)
}

// Get loads one dataset with its records.
func (s *DatasetService) Get(ctx context.Context, id string) (*equipment.Dataset, error) {
	if id == "" {
		return nil, equipment.ErrDatasetNotFound
	}
	return s.repo.Get(ctx, id)
}

// Delete removes one dataset.
func (s *DatasetService) Delete(ctx context.Context, id string) error {
	if id == "" {
		return equipment.ErrDatasetNotFound
	}
	return s.repo.Delete(ctx, id)
}
