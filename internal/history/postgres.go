package history

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore keeps one JSONB row per key, for a shared server deployment.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// OpenPostgres connects to dsn and ensures the schema exists.
func OpenPostgres(ctx context.Context, dsn string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres pool: %w", err)
	}
	s := NewPostgresStore(pool)
	if err := s.EnsureSchema(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres schema: %w", err)
	}
	return s, nil
}

// NewPostgresStore wraps an existing pool.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore { return &PostgresStore{pool: pool} }

func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
CREATE TABLE IF NOT EXISTS monsend_tx_history (
  key        TEXT PRIMARY KEY,
  records    JSONB NOT NULL,
  updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);`)
	return err
}

func (s *PostgresStore) Load(ctx context.Context, key string) ([]Record, error) {
	cctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var data []byte
	err := s.pool.QueryRow(cctx, `SELECT records FROM monsend_tx_history WHERE key = $1`, key).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return unmarshalRecords(data)
}

func (s *PostgresStore) Save(ctx context.Context, key string, records []Record) error {
	data, err := marshalRecords(records)
	if err != nil {
		return err
	}
	cctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	_, err = s.pool.Exec(cctx, `
INSERT INTO monsend_tx_history(key, records) VALUES ($1, $2::jsonb)
ON CONFLICT(key) DO UPDATE SET
  records    = EXCLUDED.records,
  updated_at = now()
`, key, string(data))
	return err
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
