package equipment

import "errors"

var (
	// ErrDatasetNotFound is returned when a dataset id does not exist.
	ErrDatasetNotFound = errors.New("equipment: dataset not found")
	// ErrNilDataset is returned when a nil dataset is persisted.
	ErrNilDataset = errors.New("equipment: nil dataset")
	// ErrEmptyDatasetID is returned when a dataset is persisted without an id.
	ErrEmptyDatasetID = errors.New("equipment: empty dataset id")
)
