package equipment

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"time"
)

// Record is one equipment reading row from an uploaded file.
type Record struct {
	Name        string  `json:"equipment_name"`
	Type        string  `json:"equipment_type"`
	Flowrate    float64 `json:"flowrate"`
	Pressure    float64 `json:"pressure"`
	Temperature float64 `json:"temperature"`
}

// Dataset is one upload: the validated records plus their derived summary.
// Datasets are immutable after creation; records keep source-file order.
type Dataset struct {
	ID           string    `json:"id"`
	Filename     string    `json:"filename"`
	UploadedAt   time.Time `json:"uploaded_at"`
	TotalRecords int       `json:"total_records"`
	SkippedRows  int       `json:"skipped_rows"`
	Summary      Summary   `json:"summary"`
	Records      []Record  `json:"equipment_records,omitempty"`
}

// DatasetRepository persists datasets and enforces the retention cap.
type DatasetRepository interface {
	// Insert persists a dataset and evicts the oldest datasets beyond the
	// retention cap in the same atomic operation.
	Insert(ctx context.Context, dataset *Dataset) error
	// List returns the most recent datasets, newest first, without records.
	List(ctx context.Context) ([]*Dataset, error)
	// Get loads a dataset with its records. Returns ErrDatasetNotFound.
	Get(ctx context.Context, id string) (*Dataset, error)
	// Delete removes a dataset. Returns ErrDatasetNotFound.
	Delete(ctx context.Context, id string) error
}

// NewDatasetID generates a random dataset id.
func NewDatasetID() string {
	buf := make([]byte, 16)
	_, _ = rand.Read(buf)
	return "ds-" + hex.EncodeToString(buf)
}

// Clone returns a deep copy of the dataset.
func (d *Dataset) Clone() *Dataset {
	if d == nil {
		return nil
	}
	out := *d
	out.Summary = d.Summary.Clone()
	if d.Records != nil {
		out.Records = make([]Record, len(d.Records))
		copy(out.Records, d.Records)
	}
	return &out
}
