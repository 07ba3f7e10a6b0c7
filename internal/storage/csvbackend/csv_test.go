package csvbackend

import (
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/quarrylabs/quarry/internal/record"
	"github.com/quarrylabs/quarry/internal/storage"
)

func TestCSVBackend(t *testing.T) {
	path := filepath.Join(t.TempDir(), "records.csv")
	b, err := New(path)
	if err != nil {
		t.Fatalf("Failed to create CSV backend: %v", err)
	}
	defer b.Close()

	ctx := context.Background()
	page := "http://example.com/csv"

	rec := record.Social("https://twitter.com/acme", "twitter", page)
	if err := b.Save(ctx, &rec); err != nil {
		t.Fatalf("Failed to save record: %v", err)
	}

	results, err := b.Query(ctx, storage.Filter{PageURL: page})
	if err != nil {
		t.Fatalf("Failed to query records: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("Expected 1 record, got %d", len(results))
	}
	if results[0].Platform != "twitter" {
		t.Errorf("Expected twitter platform, got %q", results[0].Platform)
	}
	if !results[0].CreatedAt.Equal(rec.CreatedAt) {
		t.Errorf("Expected created_at round trip, got %v want %v", results[0].CreatedAt, rec.CreatedAt)
	}
}

func TestCSVBackend_HeaderWrittenOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "records.csv")

	for i := 0; i < 2; i++ {
		b, err := New(path)
		if err != nil {
			t.Fatalf("Failed to create CSV backend: %v", err)
		}
		rec := record.Headline("Row", "http://example.com")
		if err := b.Save(context.Background(), &rec); err != nil {
			t.Fatalf("Failed to save record: %v", err)
		}
		if err := b.Close(); err != nil {
			t.Fatalf("Failed to close backend: %v", err)
		}
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("Failed to open file: %v", err)
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("Failed to read csv: %v", err)
	}
	// One header plus two data rows.
	if len(rows) != 3 {
		t.Errorf("Expected 3 rows, got %d", len(rows))
	}
	if rows[0][0] != "id" {
		t.Errorf("Expected header row first, got %v", rows[0])
	}
}

func TestCSVBackend_KindFilter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "records.csv")
	b, err := New(path)
	if err != nil {
		t.Fatalf("Failed to create CSV backend: %v", err)
	}
	defer b.Close()

	ctx := context.Background()
	page := "http://example.com/kinds"

	records := []record.Record{
		record.Headline("H", page),
		record.Price("$1", page),
	}
	if err := storage.SaveAll(ctx, b, records); err != nil {
		t.Fatalf("Failed to save records: %v", err)
	}

	results, err := b.Query(ctx, storage.Filter{Kind: record.KindPrice})
	if err != nil {
		t.Fatalf("Failed to query records: %v", err)
	}
	if len(results) != 1 || results[0].Value != "$1" {
		t.Errorf("Expected the price record only, got %v", results)
	}
}
