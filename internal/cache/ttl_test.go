package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct{ t time.Time }

func (f *fakeClock) Now() time.Time { return f.t }
func (f *fakeClock) Advance(d time.Duration) { f.t = f.t.Add(d) }

func newTestCache[V any](t *testing.T, opts Options) *TTL[V] {
	t.Helper()
	c, err := New[V](context.Background(), opts)
	require.NoError(t, err)
	t.Cleanup(func() { c.Close(context.Background()) })
	return c
}

func TestTTLExpiry(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{t: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
	c := newTestCache[int](t, Options{TTL: 5 * time.Minute, Clock: clock.Now})

	require.NoError(t, c.Set(ctx, "a", 1))
	clock.Advance(4*time.Minute + 59*time.Second)
	v, ok := c.Get(ctx, "a")
	assert.True(t, ok)
	assert.Equal(t, 1, v)

	clock.Advance(time.Second)
	_, ok = c.Get(ctx, "a")
	assert.False(t, ok)
	assert.Equal(t, 0, c.Len(ctx))

	s := c.Stats(ctx)
	assert.Equal(t, int64(1), s.Hits)
	assert.Equal(t, int64(1), s.Misses)
	assert.Equal(t, int64(1), s.Evicted)
}

func TestTTLBackendExpiry(t *testing.T) {
	ctx := context.Background()
	c := newTestCache[string](t, Options{TTL: 50 * time.Millisecond})

	require.NoError(t, c.Set(ctx, "a", "x"))
	_, ok := c.Get(ctx, "a")
	assert.True(t, ok)

	time.Sleep(80 * time.Millisecond)
	_, ok = c.Get(ctx, "a")
	assert.False(t, ok)
}

func TestTTLInvalidateAndClear(t *testing.T) {
	ctx := context.Background()
	c := newTestCache[string](t, Options{})
	assert.Equal(t, DefaultTTL, c.TTL())

	require.NoError(t, c.Set(ctx, "a", "x"))
	require.NoError(t, c.Set(ctx, "b", "y"))
	assert.Equal(t, 2, c.Len(ctx))

	c.Invalidate(ctx, "a")
	_, ok := c.Get(ctx, "a")
	assert.False(t, ok)
	v, ok := c.Get(ctx, "b")
	assert.True(t, ok)
	assert.Equal(t, "y", v)

	require.NoError(t, c.Clear(ctx))
	assert.Equal(t, 0, c.Len(ctx))
}

func TestTTLStoresStructValues(t *testing.T) {
	type result struct {
		Records []float64
		Source  string
	}
	ctx := context.Background()
	c := newTestCache[result](t, Options{TTL: time.Hour})

	require.NoError(t, c.Set(ctx, "k", result{Records: []float64{1, 2}, Source: "mem"}))
	v, ok := c.Get(ctx, "k")
	require.True(t, ok)
	assert.Equal(t, []float64{1, 2}, v.Records)
	assert.Equal(t, "mem", v.Source)
}
