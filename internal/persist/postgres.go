package persist

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/clinicdesk/schedcal/libs/db"
)

// PostgresSlot stores the payload in a single-row table keyed by slot name.
type PostgresSlot struct {
	pool *db.Pool
	key  string
}

func NewPostgresSlot(ctx context.Context, pool *db.Pool, key string) (*PostgresSlot, error) {
	_, err := pool.Exec(ctx, `CREATE TABLE IF NOT EXISTS durable_slots (
		key TEXT PRIMARY KEY,
		payload BYTEA NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`)
	if err != nil {
		return nil, fmt.Errorf("create durable_slots table: %w", err)
	}
	return &PostgresSlot{pool: pool, key: key}, nil
}

func (s *PostgresSlot) Load(ctx context.Context) ([]byte, bool, error) {
	var payload []byte
	err := s.pool.QueryRow(ctx, `SELECT payload FROM durable_slots WHERE key = $1`, s.key).Scan(&payload)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return payload, true, nil
}

func (s *PostgresSlot) Save(ctx context.Context, payload []byte) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO durable_slots (key, payload) VALUES ($1, $2)
		ON CONFLICT (key) DO UPDATE SET payload = excluded.payload, updated_at = now()
	`, s.key, payload)
	return err
}
