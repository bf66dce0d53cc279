package postgres

import (
	"context"
	"database/sql"
	"errors"
)

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS datasets (
	seq BIGINT GENERATED ALWAYS AS IDENTITY,
	id TEXT PRIMARY KEY,
	filename TEXT NOT NULL,
	uploaded_at TIMESTAMPTZ NOT NULL,
	total_records INTEGER NOT NULL,
	skipped_rows INTEGER NOT NULL DEFAULT 0,
	summary JSONB NOT NULL
)`,
	`CREATE TABLE IF NOT EXISTS equipment_records (
	dataset_id TEXT NOT NULL REFERENCES datasets(id) ON DELETE CASCADE,
	position INTEGER NOT NULL,
	equipment_name TEXT NOT NULL,
	equipment_type TEXT NOT NULL,
	flowrate DOUBLE PRECISION NOT NULL,
	pressure DOUBLE PRECISION NOT NULL,
	temperature DOUBLE PRECISION NOT NULL,
	PRIMARY KEY (dataset_id, position)
)`,
	`CREATE INDEX IF NOT EXISTS idx_datasets_seq ON datasets (seq DESC)`,
	`CREATE TABLE IF NOT EXISTS audit_logs (
	id TEXT PRIMARY KEY,
	actor TEXT NOT NULL DEFAULT '',
	role TEXT NOT NULL DEFAULT '',
	action TEXT NOT NULL,
	resource_type TEXT NOT NULL DEFAULT '',
	resource_id TEXT NOT NULL DEFAULT '',
	metadata JSONB,
	payload_digest TEXT NOT NULL DEFAULT '',
	ip TEXT NOT NULL DEFAULT '',
	user_agent TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL
)`,
}

// EnsureSchema creates the service tables when they do not exist yet.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	if db == nil {
		return errors.New("schema: nil db")
	}
	for _, stmt := range schemaStatements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
