// Package postgres provides a PostgreSQL-backed preset store.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xtding233/dicestats/internal/preset"
)

const schema = `CREATE TABLE IF NOT EXISTS preset_lists (
	key        TEXT PRIMARY KEY,
	value      JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// Store persists preset lists in PostgreSQL, one JSONB document per key.
type Store struct {
	pool *pgxpool.Pool
}

// New connects to dsn and creates the preset table if needed.
func New(ctx context.Context, dsn string) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("creating pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}
	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return &Store{pool: pool}, nil
}

// Close closes the pool.
func (s *Store) Close() {
	s.pool.Close()
}

func (s *Store) Read(ctx context.Context, key string) ([]preset.Preset, error) {
	var value []byte
	err := s.pool.QueryRow(ctx, `SELECT value FROM preset_lists WHERE key = $1`, key).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return []preset.Preset{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading presets: %w", err)
	}
	return preset.DecodeList(value)
}

func (s *Store) Write(ctx context.Context, key string, presets []preset.Preset) error {
	value, err := preset.EncodeList(presets)
	if err != nil {
		return fmt.Errorf("encoding presets: %w", err)
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO preset_lists (key, value, updated_at) VALUES ($1, $2, now())
		 ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at`,
		key, value,
	)
	if err != nil {
		return fmt.Errorf("writing presets: %w", err)
	}
	return nil
}
