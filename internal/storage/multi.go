package storage

import (
	"context"
	"errors"

	"golang.org/x/sync/errgroup"

	"github.com/quarrylabs/quarry/internal/record"
)

// ensure multiBackend implements Backend
var _ Backend = (*multiBackend)(nil)

type multiBackend struct {
	backends []Backend
}

// NewMulti fans writes out to every backend. Saves run concurrently and all
// must succeed. Queries are served by the first backend.
func NewMulti(backends ...Backend) (Backend, error) {
	if len(backends) == 0 {
		return nil, errors.New("storage: multi backend needs at least one backend")
	}
	return &multiBackend{backends: backends}, nil
}

func (m *multiBackend) Save(ctx context.Context, rec *record.Record) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, b := range m.backends {
		g.Go(func() error {
			return b.Save(ctx, rec)
		})
	}
	return g.Wait()
}

func (m *multiBackend) Query(ctx context.Context, filter Filter) ([]*record.Record, error) {
	return m.backends[0].Query(ctx, filter)
}

func (m *multiBackend) Close() error {
	var errs []error
	for _, b := range m.backends {
		if err := b.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
