// Package storage persists extracted records. Backends share one interface
// so the CLI and API can export to SQLite, Postgres, NDJSON or CSV without
// caring which is wired in.
package storage

import (
	"context"
	"time"

	"github.com/quarrylabs/quarry/internal/record"
)

// Filter allows querying for specific stored records.
type Filter struct {
	PageURL string
	Kind    record.Kind
	Since   *time.Time
	Limit   int
	Offset  int
}

// Backend defines the interface for storing and querying extracted records.
type Backend interface {
	Save(ctx context.Context, rec *record.Record) error
	Query(ctx context.Context, filter Filter) ([]*record.Record, error)
	Close() error
}

// SaveAll stores every record, stopping at the first failure.
func SaveAll(ctx context.Context, b Backend, records []record.Record) error {
	for i := range records {
		if err := b.Save(ctx, &records[i]); err != nil {
			return err
		}
	}
	return nil
}
