// Package cache provides a typed keyed cache with time-based expiry on top of
// the hypercache in-memory backend.
package cache

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/hyp3rd/hypercache"
	"github.com/hyp3rd/hypercache/pkg/backend"

	"spcdash/internal/errors"
)

const (
	// DefaultTTL is how long a fetched measurement set stays fresh
	DefaultTTL = 5 * time.Minute
	// DefaultCapacity bounds the number of resident filter results
	DefaultCapacity = 64
)

// Clock returns the current time. Tests substitute a fake.
type Clock func() time.Time

// Options configure a TTL cache
type Options struct {
	TTL      time.Duration
	Capacity int
	Clock    Clock
}

// Stats counts cache traffic
type Stats struct {
	Entries int   `json:"entries"`
	Hits    int64 `json:"hits"`
	Misses  int64 `json:"misses"`
	Evicted int64 `json:"evicted"`
}

// entry is what the backend stores. StoredAt is checked against the clock on
// every read so a value is never served past its age, whatever the backend's
// own expiration sweep has done so far.
type entry[V any] struct {
	Value    V
	StoredAt time.Time
}

// TTL is a concurrency-safe cache whose entries expire after a fixed age
type TTL[V any] struct {
	backend *hypercache.HyperCache[backend.InMemory]
	ttl     time.Duration
	now     Clock

	hits    atomic.Int64
	misses  atomic.Int64
	evicted atomic.Int64
}

// New creates a cache. A non-positive TTL uses DefaultTTL, a non-positive
// capacity uses DefaultCapacity and a nil clock uses time.Now.
func New[V any](ctx context.Context, opts Options) (*TTL[V], error) {
	if opts.TTL <= 0 {
		opts.TTL = DefaultTTL
	}
	if opts.Capacity <= 0 {
		opts.Capacity = DefaultCapacity
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}

	hc, err := hypercache.NewInMemoryWithDefaults(ctx, opts.Capacity)
	if err != nil {
		return nil, errors.Wrap(err, "creating in-memory cache")
	}
	return &TTL[V]{backend: hc, ttl: opts.TTL, now: opts.Clock}, nil
}

// TTL returns the configured entry age limit
func (c *TTL[V]) TTL() time.Duration {
	return c.ttl
}

// Get returns the fresh value for key
func (c *TTL[V]) Get(ctx context.Context, key string) (V, bool) {
	var zero V

	raw, ok := c.backend.Get(ctx, key)
	if !ok {
		c.misses.Add(1)
		return zero, false
	}
	e, ok := raw.(entry[V])
	if !ok {
		c.misses.Add(1)
		return zero, false
	}
	if c.now().Sub(e.StoredAt) >= c.ttl {
		_ = c.backend.Remove(ctx, key)
		c.evicted.Add(1)
		c.misses.Add(1)
		return zero, false
	}
	c.hits.Add(1)
	return e.Value, true
}

// Set stores value under key, stamping it with the current time
func (c *TTL[V]) Set(ctx context.Context, key string, value V) error {
	if err := c.backend.Set(ctx, key, entry[V]{Value: value, StoredAt: c.now()}, c.ttl); err != nil {
		return errors.Wrapf(err, "caching %s", key)
	}
	return nil
}

// Invalidate removes key
func (c *TTL[V]) Invalidate(ctx context.Context, key string) {
	_ = c.backend.Remove(ctx, key)
}

// Clear removes every entry
func (c *TTL[V]) Clear(ctx context.Context) error {
	return c.backend.Clear(ctx)
}

// Len returns the number of stored entries, fresh or not
func (c *TTL[V]) Len(ctx context.Context) int {
	return c.backend.Count(ctx)
}

// Stats returns a copy of the traffic counters
func (c *TTL[V]) Stats(ctx context.Context) Stats {
	return Stats{
		Entries: c.Len(ctx),
		Hits:    c.hits.Load(),
		Misses:  c.misses.Load(),
		Evicted: c.evicted.Load(),
	}
}

// Close stops the backend's background expiration and eviction loops
func (c *TTL[V]) Close(ctx context.Context) {
	c.backend.Stop(ctx)
}
