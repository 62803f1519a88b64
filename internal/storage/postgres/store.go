package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"superfest/internal/storage"
)

const createSnapshotsTable = `
	CREATE TABLE IF NOT EXISTS snapshots (
		name         TEXT PRIMARY KEY,
		content_type TEXT NOT NULL,
		data         BYTEA NOT NULL,
		updated_at   TIMESTAMPTZ NOT NULL DEFAULT now()
	)
`

// Store keeps snapshot blobs in a Postgres table.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	if _, err := pool.Exec(ctx, createSnapshotsTable); err != nil {
		pool.Close()
		return nil, fmt.Errorf("create snapshots table: %w", err)
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// Get returns the blob stored under name.
func (s *Store) Get(ctx context.Context, name string) ([]byte, error) {
	var data []byte
	row := s.pool.QueryRow(ctx, `SELECT data FROM snapshots WHERE name=$1`, name)
	if err := row.Scan(&data); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", name, storage.ErrNotFound)
		}
		return nil, err
	}
	return data, nil
}

// Put upserts the blob under name.
func (s *Store) Put(ctx context.Context, name string, data []byte, contentType string) error {
	if name == "" {
		return fmt.Errorf("snapshot name required")
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO snapshots (name, content_type, data, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (name) DO UPDATE
		SET content_type = EXCLUDED.content_type, data = EXCLUDED.data, updated_at = now()
	`, name, contentType, data)
	return err
}
