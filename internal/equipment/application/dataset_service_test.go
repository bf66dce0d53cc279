package application

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	equipment "chemequip-cloud/internal/equipment/domain"
	"chemequip-cloud/internal/equipment/infrastructure/memory"
	"chemequip-cloud/internal/equipment/ingest"
)

type fixedClock struct {
	now time.Time
}

func (c *fixedClock) Now() time.Time {
	c.now = c.now.Add(time.Second)
	return c.now
}

func newTestService(t *testing.T, repo equipment.DatasetRepository) *DatasetService {
	t.Helper()
	counter := 0
	service, err := NewDatasetService(repo, &fixedClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}, func() string {
		counter++
		return fmt.Sprintf("ds-%04d", counter)
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return service
}

func csvFor(rows int) []byte {
	raw := "Equipment Name,Type,Flowrate,Pressure,Temperature\n"
	for i := 0; i < rows; i++ {
		raw += fmt.Sprintf("E%d,Pump,%d.5,%d.25,%d\n", i, i+1, i+2, i+3)
	}
	return []byte(raw)
}

func TestUploadPersistsDatasetWithSummary(t *testing.T) {
	repo := memory.NewDatasetRepository()
	service := newTestService(t, repo)

	ds, err := service.Upload(context.Background(), csvFor(3), "plant.csv")
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if ds.ID == "" || ds.Filename != "plant.csv" {
		t.Fatalf("unexpected dataset: %+v", ds)
	}
	if ds.TotalRecords != 3 || ds.Summary.TotalCount != 3 {
		t.Fatalf("expected 3 records summarized, got %d/%d", ds.TotalRecords, ds.Summary.TotalCount)
	}
	if ds.UploadedAt.IsZero() || ds.UploadedAt.Location() != time.UTC {
		t.Fatalf("uploadedAt must be set in UTC, got %v", ds.UploadedAt)
	}

	stored, err := service.Get(context.Background(), ds.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(stored.Records) != 3 {
		t.Fatalf("expected records persisted, got %d", len(stored.Records))
	}
	if stored.Records[0].Name != "E0" || stored.Records[2].Name != "E2" {
		t.Fatalf("record order not preserved: %+v", stored.Records)
	}
}

func TestUploadIngestErrorLeavesStoreUnchanged(t *testing.T) {
	repo := memory.NewDatasetRepository()
	service := newTestService(t, repo)

	_, err := service.Upload(context.Background(), []byte("Equipment Name,Type,Flowrate,Pressure,Temperature\n"), "empty.csv")
	if !errors.Is(err, ingest.ErrEmptyFile) {
		t.Fatalf("expected ErrEmptyFile, got %v", err)
	}

	list, err := service.List(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 0 {
		t.Fatalf("failed upload must not persist anything, got %d datasets", len(list))
	}
}

func TestRetentionKeepsFiveMostRecent(t *testing.T) {
	repo := memory.NewDatasetRepository()
	service := newTestService(t, repo)

	var ids []string
	for i := 0; i < 6; i++ {
		ds, err := service.Upload(context.Background(), csvFor(1), fmt.Sprintf("upload-%d.csv", i))
		if err != nil {
			t.Fatalf("upload %d: %v", i, err)
		}
		ids = append(ids, ds.ID)
	}

	list, err := service.List(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 5 {
		t.Fatalf("expected 5 retained datasets, got %d", len(list))
	}
	// Newest first; the very first upload is evicted.
	for i, ds := range list {
		want := ids[len(ids)-1-i]
		if ds.ID != want {
			t.Fatalf("position %d: expected %s, got %s", i, want, ds.ID)
		}
	}
	if _, err := service.Get(context.Background(), ids[0]); !errors.Is(err, equipment.ErrDatasetNotFound) {
		t.Fatalf("oldest dataset should be evicted, got %v", err)
	}
}

func TestListOmitsRecords(t *testing.T) {
	repo := memory.NewDatasetRepository()
	service := newTestService(t, repo)
	if _, err := service.Upload(context.Background(), csvFor(2), "plant.csv"); err != nil {
		t.Fatalf("upload: %v", err)
	}

	list, err := service.List(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 1 || list[0].Records != nil {
		t.Fatalf("list must not include records: %+v", list)
	}
	if list[0].Summary.TotalCount != 2 {
		t.Fatalf("list must include summary, got %+v", list[0].Summary)
	}
}

func TestDelete(t *testing.T) {
	repo := memory.NewDatasetRepository()
	service := newTestService(t, repo)
	ds, err := service.Upload(context.Background(), csvFor(1), "plant.csv")
	if err != nil {
		t.Fatalf("upload: %v", err)
	}

	if err := service.Delete(context.Background(), ds.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := service.Delete(context.Background(), ds.ID); !errors.Is(err, equipment.ErrDatasetNotFound) {
		t.Fatalf("expected not found on second delete, got %v", err)
	}
}
