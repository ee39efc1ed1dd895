package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore keeps one row per key holding the JSON-encoded list.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (creating if needed) the database at path.
func OpenSQLite(path string) (*SQLiteStore, error) {
	if path == "" {
		return nil, errors.New("database path is required")
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
			return nil, fmt.Errorf("failed to create db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite db: %w", err)
	}
	// A single connection keeps :memory: databases shared and writes serialised.
	db.SetMaxOpenConns(1)

	s := &SQLiteStore{db: db}
	if err := s.init(); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) init() error {
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS tx_history (
        key TEXT PRIMARY KEY,
        records TEXT NOT NULL,
        updated_at TEXT NOT NULL
    )`)
	return err
}

func (s *SQLiteStore) Load(ctx context.Context, key string) ([]Record, error) {
	var data string
	err := s.db.QueryRowContext(ctx, `SELECT records FROM tx_history WHERE key = ?`, key).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return unmarshalRecords([]byte(data))
}

func (s *SQLiteStore) Save(ctx context.Context, key string, records []Record) error {
	data, err := marshalRecords(records)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO tx_history(key, records, updated_at)
    VALUES(?, ?, ?)
    ON CONFLICT(key) DO UPDATE SET records = excluded.records, updated_at = excluded.updated_at`,
		key, string(data), time.Now().UTC().Format(time.RFC3339))
	return err
}

func (s *SQLiteStore) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}
