package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	equipment "chemequip-cloud/internal/equipment/domain"
)

const defaultRetention = 5

// retentionLockKey serializes insert-and-evict transactions. At read
// committed, two concurrent evictions can both target the same victim
// row and the recheck lets the loser delete nothing, leaving the table
// over the cap until the next upload.
const retentionLockKey int64 = 0x6368656d65717570 // "chemequp"

// DatasetRepository is a Postgres implementation of the dataset store.
type DatasetRepository struct {
	db        *sql.DB
	retention int
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

// NewDatasetRepository constructs a repository with the default retention cap.
func NewDatasetRepository(db *sql.DB, opts ...Option) *DatasetRepository {
	repo := &DatasetRepository{db: db, retention: defaultRetention}
	for _, opt := range opts {
		opt(repo)
	}
	return repo
}

// Insert persists a dataset with its records and evicts datasets beyond the
// retention cap. Insert and eviction run in one transaction so concurrent
// uploads cannot leave more than the cap behind.
func (r *DatasetRepository) Insert(ctx context.Context, dataset *equipment.Dataset) error {
	if r == nil || r.db == nil {
		return errors.New("dataset repo: nil db")
	}
	if dataset == nil {
		return equipment.ErrNilDataset
	}
	if dataset.ID == "" {
		return equipment.ErrEmptyDatasetID
	}

	summaryJSON, err := json.Marshal(dataset.Summary)
	if err != nil {
		return fmt.Errorf("dataset repo: marshal summary: %w", err)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	// Held until commit or rollback; only one insert-and-evict runs at a time.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, retentionLockKey); err != nil {
		_ = tx.Rollback()
		return err
	}

	_, err = tx.ExecContext(ctx, `
INSERT INTO datasets (
	id, filename, uploaded_at, total_records, skipped_rows, summary
) VALUES ($1,$2,$3,$4,$5,$6)`,
		dataset.ID, dataset.Filename, dataset.UploadedAt, dataset.TotalRecords, dataset.SkippedRows, summaryJSON)
	if err != nil {
		_ = tx.Rollback()
		return err
	}

	stmt, err := tx.PrepareContext(ctx, `
INSERT INTO equipment_records (
	dataset_id, position, equipment_name, equipment_type, flowrate, pressure, temperature
) VALUES ($1,$2,$3,$4,$5,$6,$7)`)
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	defer stmt.Close()

	for i, rec := range dataset.Records {
		if _, err := stmt.ExecContext(ctx, dataset.ID, i, rec.Name, rec.Type, rec.Flowrate, rec.Pressure, rec.Temperature); err != nil {
			_ = tx.Rollback()
			return err
		}
	}

	// Evict everything older than the newest N. ON DELETE CASCADE removes
	// the evicted datasets' records.
	_, err = tx.ExecContext(ctx, `
DELETE FROM datasets
WHERE seq IN (
	SELECT seq FROM datasets ORDER BY seq DESC OFFSET $1
)`, r.retention)
	if err != nil {
		_ = tx.Rollback()
		return err
	}

	return tx.Commit()
}

// List returns retained datasets, newest first, without records.
func (r *DatasetRepository) List(ctx context.Context) ([]*equipment.Dataset, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("dataset repo: nil db")
	}
	rows, err := r.db.QueryContext(ctx, `
SELECT id, filename, uploaded_at, total_records, skipped_rows, summary
FROM datasets
ORDER BY seq DESC
LIMIT $1`, r.retention)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*equipment.Dataset
	for rows.Next() {
		ds, err := scanDataset(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, ds)
	}
	return out, rows.Err()
}

// Get loads one dataset with its records in source-file order.
func (r *DatasetRepository) Get(ctx context.Context, id string) (*equipment.Dataset, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("dataset repo: nil db")
	}
	row := r.db.QueryRowContext(ctx, `
SELECT id, filename, uploaded_at, total_records, skipped_rows, summary
FROM datasets
WHERE id = $1`, id)
	ds, err := scanDataset(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, equipment.ErrDatasetNotFound
	}
	if err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, `
SELECT equipment_name, equipment_type, flowrate, pressure, temperature
FROM equipment_records
WHERE dataset_id = $1
ORDER BY position`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var rec equipment.Record
		if err := rows.Scan(&rec.Name, &rec.Type, &rec.Flowrate, &rec.Pressure, &rec.Temperature); err != nil {
			return nil, err
		}
		ds.Records = append(ds.Records, rec)
	}
	return ds, rows.Err()
}

// Delete removes one dataset and its records.
func (r *DatasetRepository) Delete(ctx context.Context, id string) error {
	if r == nil || r.db == nil {
		return errors.New("dataset repo: nil db")
	}
	result, err := r.db.ExecContext(ctx, `DELETE FROM datasets WHERE id = $1`, id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return equipment.ErrDatasetNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDataset(row rowScanner) (*equipment.Dataset, error) {
	ds := &equipment.Dataset{}
	var summaryJSON []byte
	if err := row.Scan(&ds.ID, &ds.Filename, &ds.UploadedAt, &ds.TotalRecords, &ds.SkippedRows, &summaryJSON); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(summaryJSON, &ds.Summary); err != nil {
		return nil, fmt.Errorf("dataset repo: unmarshal summary: %w", err)
	}
	return ds, nil
}
