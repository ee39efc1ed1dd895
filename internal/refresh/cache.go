package refresh

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// DefaultTTL is how long a cached value is served without reloading.
const DefaultTTL = 10 * time.Second

type entry struct {
	value   any
	expires time.Time
}

// Cache holds the latest value per key. Concurrent loads of one key share a
// single call, and an invalidation discards the result of any load that was
// already in flight.
type Cache struct {
	ttl   time.Duration
	now   func() time.Time
	group singleflight.Group

	mu      sync.Mutex
	entries map[Key]entry
	gen     map[Key]uint64
}

// NewCache creates a cache whose entries live for ttl; zero means DefaultTTL.
func NewCache(ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{ttl: ttl, now: time.Now, entries: map[Key]entry{}, gen: map[Key]uint64{}}
}

// Get returns the cached value for key, calling load when it is missing or
// expired.
func (c *Cache) Get(ctx context.Context, key Key, load func(context.Context) (any, error)) (any, error) {
	c.mu.Lock()
	if e, ok := c.entries[key]; ok && c.now().Before(e.expires) {
		c.mu.Unlock()
		return e.value, nil
	}
	gen := c.gen[key]
	c.mu.Unlock()

	v, err, _ := c.group.Do(fmt.Sprintf("%s#%d", key, gen), func() (any, error) {
		v, err := load(ctx)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		if c.gen[key] == gen {
			c.entries[key] = entry{value: v, expires: c.now().Add(c.ttl)}
		}
		c.mu.Unlock()
		return v, nil
	})
	return v, err
}

// Set stores v for key, as a scheduled job does after a refresh.
func (c *Cache) Set(key Key, v any) {
	c.mu.Lock()
	c.entries[key] = entry{value: v, expires: c.now().Add(c.ttl)}
	c.mu.Unlock()
}

// Peek returns the cached value for key even if it has expired.
func (c *Cache) Peek(key Key) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	return e.value, ok
}

// Invalidate drops key.
func (c *Cache) Invalidate(addr string, kind Kind) {
	key := NewKey(addr, kind)
	c.mu.Lock()
	delete(c.entries, key)
	c.gen[key]++
	c.mu.Unlock()
}

// InvalidateAddress drops every kind cached for addr.
func (c *Cache) InvalidateAddress(addr string) {
	for _, k := range Kinds() {
		c.Invalidate(addr, k)
	}
}

// Fetch is Get with a typed result.
func Fetch[V any](ctx context.Context, c *Cache, key Key, load func(context.Context) (V, error)) (V, error) {
	v, err := c.Get(ctx, key, func(ctx context.Context) (any, error) { return load(ctx) })
	if err != nil {
		var zero V
		return zero, err
	}
	typed, ok := v.(V)
	if !ok {
		var zero V
		return zero, fmt.Errorf("refresh %s: cached %T, want %T", key, v, zero)
	}
	return typed, nil
}

// Invalidator returns a callback for transaction status changes: it drops
// the cached data of both parties and re-runs their scheduled jobs. Either
// argument may be nil.
func Invalidator(c *Cache, s *Scheduler) func(from, to string) {
	return func(from, to string) {
		for _, addr := range []string{from, to} {
			if addr == "" {
				continue
			}
			if c != nil {
				c.InvalidateAddress(addr)
			}
			if s != nil {
				s.TriggerAddress(addr)
			}
		}
	}
}
