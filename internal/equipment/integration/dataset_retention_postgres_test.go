package integration_test

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	equipment "chemequip-cloud/internal/equipment/domain"
	equipmentrepo "chemequip-cloud/internal/equipment/infrastructure/postgres"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// Concurrent uploads must never leave more than the retention cap behind.
// Each insert-and-evict transaction takes an advisory lock, so two uploads
// racing on the same eviction victim cannot both commit with the delete
// applying only once.
func TestConcurrentInsertsKeepCap_Postgres(t *testing.T) {
	dsn := os.Getenv("PG_DSN")
	if dsn == "" {
		t.Skip("PG_DSN not set")
	}

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	defer db.Close()

	ctx := context.Background()
	if err := equipmentrepo.EnsureSchema(ctx, db); err != nil {
		t.Fatalf("ensure schema: %v", err)
	}

	_, _ = db.ExecContext(ctx, "DELETE FROM datasets")

	const retain = 5
	repo := equipmentrepo.NewDatasetRepository(db, equipmentrepo.WithRetentionLimit(retain))

	const uploads = 20
	var wg sync.WaitGroup
	errs := make(chan error, uploads)
	for i := 0; i < uploads; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			records := []equipment.Record{
				{Name: fmt.Sprintf("Pump %d", n), Type: "Pump", Flowrate: 120.5, Pressure: 4.2, Temperature: 88},
			}
			summary := equipment.Summarize(records)
			ds := &equipment.Dataset{
				ID:           equipment.NewDatasetID(),
				Filename:     fmt.Sprintf("plant-%d.csv", n),
				UploadedAt:   time.Now().UTC(),
				TotalRecords: len(records),
				Summary:      summary,
				Records:      records,
			}
			if err := repo.Insert(ctx, ds); err != nil {
				errs <- err
			}
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("insert: %v", err)
	}

	var retained int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM datasets").Scan(&retained); err != nil {
		t.Fatalf("count datasets: %v", err)
	}
	if retained != retain {
		t.Fatalf("retained = %d, want %d", retained, retain)
	}

	var orphans int
	if err := db.QueryRowContext(ctx, `
SELECT COUNT(*)
FROM equipment_records er
LEFT JOIN datasets d ON d.id = er.dataset_id
WHERE d.id IS NULL`).Scan(&orphans); err != nil {
		t.Fatalf("count orphans: %v", err)
	}
	if orphans != 0 {
		t.Fatalf("orphan records = %d, want 0", orphans)
	}

	listed, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(listed) != retain {
		t.Fatalf("list returned %d datasets, want %d", len(listed), retain)
	}
}
