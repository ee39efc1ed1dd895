package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// KeyPrefix namespaces every persisted list.
const KeyPrefix = "monsend_transactions_"

// Key returns the storage key for owner's list.
func Key(owner string) string { return KeyPrefix + strings.ToLower(strings.TrimSpace(owner)) }

// Store persists one record list per key, read and written as a unit.
type Store interface {
	Load(ctx context.Context, key string) ([]Record, error)
	Save(ctx context.Context, key string, records []Record) error
	Close() error
}

// Backend names accepted by Open.
const (
	BackendJSON     = "json"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
	BackendMemory   = "memory"
)

// OpenOptions selects and configures a Store.
type OpenOptions struct {
	Backend string // json (default), sqlite, postgres or memory
	DSN     string // sqlite file path or postgres connection string
	Dir     string // base directory for json files and the default sqlite file
}

// Open builds the configured store.
func Open(ctx context.Context, o OpenOptions) (Store, error) {
	switch strings.ToLower(o.Backend) {
	case "", BackendJSON:
		return NewJSONStore(filepath.Join(o.Dir, "history")), nil
	case BackendSQLite:
		path := o.DSN
		if path == "" {
			path = filepath.Join(o.Dir, "monsend.db")
		}
		return OpenSQLite(path)
	case BackendPostgres:
		if o.DSN == "" {
			return nil, errors.New("postgres store needs a DSN (set MONSEND_DSN)")
		}
		return OpenPostgres(ctx, o.DSN)
	case BackendMemory:
		return NewMemStore(), nil
	default:
		return nil, fmt.Errorf("unknown store backend %q (want json, sqlite or postgres)", o.Backend)
	}
}

func marshalRecords(records []Record) ([]byte, error) {
	if records == nil {
		records = []Record{}
	}
	return json.Marshal(records)
}

func unmarshalRecords(data []byte) ([]Record, error) {
	var out []Record
	if len(data) == 0 {
		return out, nil
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("decoding history: %w", err)
	}
	return out, nil
}

// --- in-memory store ---

// MemStore keeps lists in memory. Lists are copied in and out.
type MemStore struct {
	mu    sync.Mutex
	lists map[string][]Record
	saves int
}

// NewMemStore creates an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{lists: make(map[string][]Record)}
}

func (s *MemStore) Load(_ context.Context, key string) ([]Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Record(nil), s.lists[key]...), nil
}

func (s *MemStore) Save(_ context.Context, key string, records []Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lists[key] = append([]Record(nil), records...)
	s.saves++
	return nil
}

// Saves returns how many writes the store has seen.
func (s *MemStore) Saves() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves
}

func (s *MemStore) Close() error { return nil }

// --- JSON file store ---

// JSONStore writes each list to <dir>/<key>.json.
type JSONStore struct {
	dir string
}

// NewJSONStore creates a file-per-key store under dir.
func NewJSONStore(dir string) *JSONStore { return &JSONStore{dir: dir} }

// ErrInvalidKey is returned for keys that would escape the store directory.
var ErrInvalidKey = errors.New("invalid history key")

func (s *JSONStore) path(key string) (string, error) {
	if key == "" || strings.ContainsAny(key, `/\`) || strings.Contains(key, "..") || key != filepath.Base(key) {
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return filepath.Join(s.dir, key+".json"), nil
}

func (s *JSONStore) Load(_ context.Context, key string) ([]Record, error) {
	path, err := s.path(key)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return unmarshalRecords(data)
}

func (s *JSONStore) Save(_ context.Context, key string, records []Record) error {
	path, err := s.path(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(s.dir, 0o700); err != nil {
		return err
	}
	data, err := marshalRecords(records)
	if err != nil {
		return err
	}
	// Write then rename so a crash never leaves a half-written list.
	tmp, err := os.CreateTemp(s.dir, key+".*.tmp")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	if err := os.Chmod(tmp.Name(), 0o600); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), path)
}

func (s *JSONStore) Close() error { return nil }
