package storage

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/quarrylabs/quarry/internal/record"
)

type memBackend struct {
	mu      sync.Mutex
	records []*record.Record
	saveErr error
}

func (m *memBackend) Save(ctx context.Context, rec *record.Record) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, rec)
	return nil
}

func (m *memBackend) Query(ctx context.Context, filter Filter) ([]*record.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*record.Record(nil), m.records...), nil
}

func (m *memBackend) Close() error { return nil }

func TestMultiBackend_FansOutSaves(t *testing.T) {
	a, b := &memBackend{}, &memBackend{}
	multi, err := NewMulti(a, b)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	rec := record.Headline("Fanned out", "http://example.com")
	if err := multi.Save(context.Background(), &rec); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(a.records) != 1 || len(b.records) != 1 {
		t.Errorf("expected record in both backends, got %d and %d", len(a.records), len(b.records))
	}
}

func TestMultiBackend_SaveErrorPropagates(t *testing.T) {
	boom := errors.New("disk full")
	multi, err := NewMulti(&memBackend{}, &memBackend{saveErr: boom})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	rec := record.Headline("Doomed", "http://example.com")
	if err := multi.Save(context.Background(), &rec); !errors.Is(err, boom) {
		t.Errorf("expected save error to propagate, got %v", err)
	}
}

func TestMultiBackend_QueryUsesFirst(t *testing.T) {
	a, b := &memBackend{}, &memBackend{}
	rec := record.Headline("Only in a", "http://example.com")
	a.records = append(a.records, &rec)

	multi, err := NewMulti(a, b)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	results, err := multi.Query(context.Background(), Filter{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 1 {
		t.Errorf("expected query served by first backend, got %d records", len(results))
	}
}

func TestNewMulti_RequiresBackend(t *testing.T) {
	if _, err := NewMulti(); err == nil {
		t.Errorf("expected error for empty backend list")
	}
}

func TestSaveAll_StopsOnError(t *testing.T) {
	boom := errors.New("nope")
	b := &memBackend{saveErr: boom}

	records := []record.Record{
		record.Headline("a", "http://example.com"),
		record.Headline("b", "http://example.com"),
	}
	if err := SaveAll(context.Background(), b, records); !errors.Is(err, boom) {
		t.Errorf("expected first error returned, got %v", err)
	}
}
