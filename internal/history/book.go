package history

import (
	"context"
	"sync"
)

// Book is the mutex-guarded read-modify-write layer over a Store. All
// writers in the process go through one Book so per-owner updates do not
// interleave.
type Book struct {
	store Store
	mu    sync.Mutex
}

// NewBook wraps store.
func NewBook(store Store) *Book { return &Book{store: store} }

// List returns owner's persisted records in display order.
func (b *Book) List(ctx context.Context, owner string) ([]Record, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	records, err := b.store.Load(ctx, Key(owner))
	if err != nil {
		return nil, err
	}
	Sort(records)
	return records, nil
}

// Get returns owner's record for hash.
func (b *Book) Get(ctx context.Context, owner, hash string) (Record, bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	records, err := b.store.Load(ctx, Key(owner))
	if err != nil {
		return Record{}, false, err
	}
	r, ok := Find(records, hash)
	return r, ok, nil
}

// Put upserts r into owner's list and writes the list back.
func (b *Book) Put(ctx context.Context, owner string, r Record) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	key := Key(owner)
	records, err := b.store.Load(ctx, key)
	if err != nil {
		return err
	}
	return b.store.Save(ctx, key, Upsert(records, r))
}

// Load merges owner's persisted records with freshly observed ones. The
// returned list replaces whatever was displayed before.
func (b *Book) Load(ctx context.Context, owner string, observed []Record) ([]Record, error) {
	local, err := b.List(ctx, owner)
	if err != nil {
		return nil, err
	}
	return Merge(local, observed), nil
}
