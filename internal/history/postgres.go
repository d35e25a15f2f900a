package history

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DBTX is the subset of pgx used by Store.
// Satisfied by both *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

const createTableSQL = `
CREATE TABLE IF NOT EXISTS conversion_history (
	id                UUID PRIMARY KEY,
	source_name       TEXT NOT NULL,
	output_name       TEXT NOT NULL,
	format            TEXT NOT NULL,
	rows_in           INTEGER NOT NULL,
	rows_out          INTEGER NOT NULL,
	columns           INTEGER NOT NULL,
	remove_duplicates BOOLEAN NOT NULL DEFAULT FALSE,
	fill_missing      BOOLEAN NOT NULL DEFAULT FALSE,
	client_ip         TEXT NOT NULL DEFAULT '',
	created_at        TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS conversion_history_created_at_idx
	ON conversion_history (created_at DESC);
`

const insertSQL = `
INSERT INTO conversion_history (
	id, source_name, output_name, format, rows_in, rows_out, columns,
	remove_duplicates, fill_missing, client_ip, created_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

const recentSQL = `
SELECT id, source_name, output_name, format, rows_in, rows_out, columns,
	remove_duplicates, fill_missing, client_ip, created_at
FROM conversion_history
ORDER BY created_at DESC
LIMIT $1`

// Store is a Postgres-backed Recorder.
type Store struct {
	db DBTX
}

// NewStore returns a Store and creates its table if needed.
func NewStore(ctx context.Context, db DBTX) (*Store, error) {
	if _, err := db.Exec(ctx, createTableSQL); err != nil {
		return nil, fmt.Errorf("create conversion_history: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Record(ctx context.Context, e Entry) error {
	if err := prepare(&e); err != nil {
		return err
	}

	_, err := s.db.Exec(ctx, insertSQL,
		e.ID, e.SourceName, e.OutputName, e.Format, e.RowsIn, e.RowsOut, e.Columns,
		e.RemoveDuplicates, e.FillMissing, e.ClientIP, e.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert history entry: %w", err)
	}
	return nil
}

// Recent returns up to limit entries, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = DefaultRecentLimit
	}

	rows, err := s.db.Query(ctx, recentSQL, limit)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}

	entries, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Entry, error) {
		var e Entry
		err := row.Scan(
			&e.ID, &e.SourceName, &e.OutputName, &e.Format, &e.RowsIn, &e.RowsOut, &e.Columns,
			&e.RemoveDuplicates, &e.FillMissing, &e.ClientIP, &e.CreatedAt,
		)
		return e, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan history: %w", err)
	}
	return entries, nil
}
