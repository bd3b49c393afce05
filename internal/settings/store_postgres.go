// Copyright (c) 2026 LumenPress. All rights reserved.
// Author: dev@lumenpress.dev

package settings

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lumenpress/lumen/internal/platform/dberr"
)

// PostgresStore implements Repository backed by the settings table.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a PostgreSQL-backed settings store.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Load returns all stored rows.
func (s *PostgresStore) Load(ctx context.Context) (map[string]string, error) {
	rows, err := s.pool.Query(ctx, `SELECT key, value FROM settings`)
	if err != nil {
		return nil, dberr.Wrap(err, "settings")
	}
	defer rows.Close()

	values := map[string]string{}
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, dberr.Wrap(err, "settings")
		}
		values[key] = value
	}
	if err := rows.Err(); err != nil {
		return nil, dberr.Wrap(err, "settings")
	}

	return values, nil
}

// Save upserts every given row inside one transaction.
func (s *PostgresStore) Save(ctx context.Context, values map[string]string) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return dberr.Wrap(err, "settings")
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO settings (key, value, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()`

	for key, value := range values {
		if _, err := tx.Exec(ctx, query, key, value); err != nil {
			return dberr.Wrap(err, "settings")
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return dberr.Wrap(err, "settings")
	}
	return nil
}
