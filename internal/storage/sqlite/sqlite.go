// Package sqlite stores records in a SQLite database file.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/quarrylabs/quarry/internal/record"
	"github.com/quarrylabs/quarry/internal/storage"
)

// ensure sqliteBackend implements storage.Backend
var _ storage.Backend = (*sqliteBackend)(nil)

type sqliteBackend struct {
	db *sql.DB
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
	created_at DATETIME NOT NULL
);
`

// New creates a new SQLite-backed storage.Backend.
func New(dsn string) (storage.Backend, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite: create schema: %w", err)
	}

	return &sqliteBackend{db: db}, nil
}

func (b *sqliteBackend) Save(ctx context.Context, rec *record.Record) error {
	query := `
	INSERT INTO records (id, kind, text, value, platform, selector, page_url, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := b.db.ExecContext(ctx, query,
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
		return fmt.Errorf("sqlite: save record: %w", err)
	}
	return nil
}

func (b *sqliteBackend) Query(ctx context.Context, filter storage.Filter) ([]*record.Record, error) {
	query := `SELECT id, kind, text, value, platform, selector, page_url, created_at FROM records WHERE 1=1`
	args := []any{}

	if filter.PageURL != "" {
		query += ` AND page_url = ?`
		args = append(args, filter.PageURL)
	}
	if filter.Kind != "" {
		query += ` AND kind = ?`
		args = append(args, string(filter.Kind))
	}
	if filter.Since != nil {
		query += ` AND created_at >= ?`
		args = append(args, *filter.Since)
	}

	query += ` ORDER BY created_at DESC`

	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
	}
	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := b.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: query records: %w", err)
	}
	defer rows.Close()

	var results []*record.Record
	for rows.Next() {
		var r record.Record
		var kind string

		err := rows.Scan(&r.ID, &kind, &r.Text, &r.Value, &r.Platform, &r.Selector, &r.PageURL, &r.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scan record: %w", err)
		}
		r.Kind = record.Kind(kind)

		results = append(results, &r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterate records: %w", err)
	}

	return results, nil
}

func (b *sqliteBackend) Close() error {
	return b.db.Close()
}
