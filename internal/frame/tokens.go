package frame

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// NotificationDetails is where and with which token a user can be notified.
type NotificationDetails struct {
	URL   string `json:"url"`
	Token string `json:"token"`
}

// TokenStore keeps one set of notification details per Farcaster user.
type TokenStore interface {
	Get(ctx context.Context, fid int64) (NotificationDetails, bool, error)
	Set(ctx context.Context, fid int64, d NotificationDetails) error
	Delete(ctx context.Context, fid int64) error
	FIDs(ctx context.Context) ([]int64, error)
	Close() error
}

// MemTokenStore is an in-process TokenStore.
type MemTokenStore struct {
	mu   sync.Mutex
	byID map[int64]NotificationDetails
}

// NewMemTokenStore creates an empty MemTokenStore.
func NewMemTokenStore() *MemTokenStore {
	return &MemTokenStore{byID: map[int64]NotificationDetails{}}
}

func (s *MemTokenStore) Get(_ context.Context, fid int64) (NotificationDetails, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.byID[fid]
	return d, ok, nil
}

func (s *MemTokenStore) Set(_ context.Context, fid int64, d NotificationDetails) error {
	s.mu.Lock()
	s.byID[fid] = d
	s.mu.Unlock()
	return nil
}

func (s *MemTokenStore) Delete(_ context.Context, fid int64) error {
	s.mu.Lock()
	delete(s.byID, fid)
	s.mu.Unlock()
	return nil
}

func (s *MemTokenStore) FIDs(context.Context) ([]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]int64, 0, len(s.byID))
	for fid := range s.byID {
		out = append(out, fid)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}

func (s *MemTokenStore) Close() error { return nil }

// SQLiteTokenStore keeps notification details in a SQLite table.
type SQLiteTokenStore struct {
	db *sql.DB
}

// OpenSQLiteTokens opens (creating if needed) the token table in the
// database at path.
func OpenSQLiteTokens(path string) (*SQLiteTokenStore, error) {
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
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS notification_tokens (
        fid INTEGER PRIMARY KEY,
        url TEXT NOT NULL,
        token TEXT NOT NULL,
        updated_at TEXT NOT NULL
    )`); err != nil {
		db.Close()
		return nil, err
	}
	return &SQLiteTokenStore{db: db}, nil
}

func (s *SQLiteTokenStore) Get(ctx context.Context, fid int64) (NotificationDetails, bool, error) {
	var d NotificationDetails
	err := s.db.QueryRowContext(ctx, `SELECT url, token FROM notification_tokens WHERE fid = ?`, fid).Scan(&d.URL, &d.Token)
	if errors.Is(err, sql.ErrNoRows) {
		return NotificationDetails{}, false, nil
	}
	if err != nil {
		return NotificationDetails{}, false, err
	}
	return d, true, nil
}

func (s *SQLiteTokenStore) Set(ctx context.Context, fid int64, d NotificationDetails) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO notification_tokens(fid, url, token, updated_at)
    VALUES(?, ?, ?, ?)
    ON CONFLICT(fid) DO UPDATE SET url = excluded.url, token = excluded.token, updated_at = excluded.updated_at`,
		fid, d.URL, d.Token, time.Now().UTC().Format(time.RFC3339))
	return err
}

func (s *SQLiteTokenStore) Delete(ctx context.Context, fid int64) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM notification_tokens WHERE fid = ?`, fid)
	return err
}

func (s *SQLiteTokenStore) FIDs(ctx context.Context) ([]int64, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT fid FROM notification_tokens ORDER BY fid`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []int64
	for rows.Next() {
		var fid int64
		if err := rows.Scan(&fid); err != nil {
			return nil, err
		}
		out = append(out, fid)
	}
	return out, rows.Err()
}

func (s *SQLiteTokenStore) Close() error { return s.db.Close() }
