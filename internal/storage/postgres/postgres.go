// Package postgres stores records in a PostgreSQL database via pgx.
package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/quarrylabs/quarry/internal/record"
	"github.com/quarrylabs/quarry/internal/storage"
)

// ensure postgresBackend implements storage.Backend
var _ storage.Backend = (*postgresBackend)(nil)

type postgresBackend struct {
	pool *pgxpool.Pool
}

const schema = `
CREATE TABLE IF NOT EXISTS records (
	id TEXT PRIMARY KEY,
	kind TEXT NOT NULL,
	text TEXT,
	value TEXT,
	platform TEXT,
	selector TEXT,
	page_url TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL
);
`

// New creates a new Postgres-backed storage.Backend.
func New(ctx context.Context, dsn string) (storage.Backend, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: connect: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: ping: %w", err)
	}

	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: create schema: %w", err)
	}

	return &postgresBackend{pool: pool}, nil
}

func (b *postgresBackend) Save(ctx context.Context, rec *record.Record) error {
	query := `
	INSERT INTO records (id, kind, text, value, platform, selector, page_url, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := b.pool.Exec(ctx, query,
		rec.ID,
		string(rec.Kind),
		rec.Text,
		rec.Value,
		rec.Platform,
		rec.Selector,
		rec.PageURL,
		rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres: save record: %w", err)
	}
	return nil
}

func (b *postgresBackend) Query(ctx context.Context, filter storage.Filter) ([]*record.Record, error) {
	query := `SELECT id, kind, text, value, platform, selector, page_url, created_at FROM records WHERE 1=1`
	args := []any{}
	paramCount := 1

	if filter.PageURL != "" {
		query += fmt.Sprintf(` AND page_url = $%d`, paramCount)
		args = append(args, filter.PageURL)
		paramCount++
	}
	if filter.Kind != "" {
		query += fmt.Sprintf(` AND kind = $%d`, paramCount)
		args = append(args, string(filter.Kind))
		paramCount++
	}
	if filter.Since != nil {
		query += fmt.Sprintf(` AND created_at >= $%d`, paramCount)
		args = append(args, *filter.Since)
		paramCount++
	}

	query += ` ORDER BY created_at DESC`

	if filter.Limit > 0 {
		query += fmt.Sprintf(` LIMIT $%d`, paramCount)
		args = append(args, filter.Limit)
		paramCount++
	}
	if filter.Offset > 0 {
		query += fmt.Sprintf(` OFFSET $%d`, paramCount)
		args = append(args, filter.Offset)
	}

	rows, err := b.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: query records: %w", err)
	}
	defer rows.Close()

	var results []*record.Record
	for rows.Next() {
		var r record.Record
		var kind string

		err := rows.Scan(&r.ID, &kind, &r.Text, &r.Value, &r.Platform, &r.Selector, &r.PageURL, &r.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("postgres: scan record: %w", err)
		}
		r.Kind = record.Kind(kind)

		results = append(results, &r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: iterate records: %w", err)
	}

	return results, nil
}

func (b *postgresBackend) Close() error {
	b.pool.Close()
	return nil
}
