package cache

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

// fakeClock is a manually advanced clock for deterministic expiry tests.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	f.now = f.now.Add(d)
	f.mu.Unlock()
}

func newTestCache(t *testing.T, clock *fakeClock) *Cache {
	t.Helper()
	c := New(Config{Shards: 4, Clock: clock.Now})
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestSetGet_RoundTrip(t *testing.T) {
	c := newTestCache(t, newFakeClock())

	values := map[string][]byte{
		"plain":  []byte("hello"),
		"empty":  {},
		"binary": {0x00, 0xff, 0x10, 0x00, 0x7f},
		"":       []byte("empty key"),
		"\x00k":  []byte("nul in key"),
	}

	for k, v := range values {
		require.NoError(t, c.Set(k, v, time.Hour))
	}
	for k, v := range values {
		got, ok := c.Get(k)
		require.True(t, ok, "key %q", k)
		assert.Equal(t, v, got, "key %q", k)
	}
}

func TestGet_AbsentKey(t *testing.T) {
	c := newTestCache(t, newFakeClock())

	got, ok := c.Get("never-set")
	assert.False(t, ok)
	assert.Nil(t, got)
}

func TestSet_OverwriteReplacesValueAndExpiry(t *testing.T) {
	clock := newFakeClock()
	c := newTestCache(t, clock)

	require.NoError(t, c.Set("k", []byte("v1"), time.Second))
	require.NoError(t, c.Set("k", []byte("v2"), time.Hour))

	got, ok := c.Get("k")
	require.True(t, ok)
	assert.Equal(t, []byte("v2"), got)

	// The first expiry must no longer apply.
	clock.Advance(2 * time.Second)
	got, ok = c.Get("k")
	require.True(t, ok)
	assert.Equal(t, []byte("v2"), got)

	// Overwriting with a short TTL shortens it too.
	require.NoError(t, c.Set("k", []byte("v3"), time.Second))
	clock.Advance(2 * time.Second)
	_, ok = c.Get("k")
	assert.False(t, ok)
}

func TestSet_NonPositiveTTLNeverExpires(t *testing.T) {
	clock := newFakeClock()
	c := newTestCache(t, clock)

	require.NoError(t, c.Set("zero", []byte("z"), 0))
	require.NoError(t, c.Set("negative", []byte("n"), -time.Second))

	clock.Advance(100 * 365 * 24 * time.Hour)
	assert.Equal(t, 0, c.Sweep())

	for _, k := range []string{"zero", "negative"} {
		_, ok := c.Get(k)
		assert.True(t, ok, "key %q", k)
	}
}

func TestTTL_ExpiresAtBoundary(t *testing.T) {
	clock := newFakeClock()
	c := newTestCache(t, clock)

	require.NoError(t, c.Set("k", []byte("v"), time.Second))

	clock.Advance(999 * time.Millisecond)
	_, ok := c.Get("k")
	require.True(t, ok, "expected k to exist before expiry")

	clock.Advance(time.Millisecond)
	_, ok = c.Get("k")
	assert.False(t, ok, "expected k to be expired at its deadline")
}

func TestTTL_LazyExpirationOnGet(t *testing.T) {
	clock := newFakeClock()
	c := newTestCache(t, clock)

	require.NoError(t, c.Set("k", []byte("v"), 30*time.Millisecond))
	require.Equal(t, 1, c.Len())

	clock.Advance(80 * time.Millisecond)

	_, ok := c.Get("k")
	assert.False(t, ok)
	assert.Equal(t, 0, c.Len(), "expected k to be removed on get")
}

func TestTTL_RealClock(t *testing.T) {
	c := New(Config{})
	defer c.Close()

	require.NoError(t, c.Set("k", []byte("v"), 30*time.Millisecond))
	_, ok := c.Get("k")
	require.True(t, ok)

	time.Sleep(80 * time.Millisecond)

	_, ok = c.Get("k")
	assert.False(t, ok)
}

func TestDelete_Idempotent(t *testing.T) {
	c := newTestCache(t, newFakeClock())

	assert.NoError(t, c.Delete("never-set"))
	assert.NoError(t, c.Delete("never-set"))
	_, ok := c.Get("never-set")
	assert.False(t, ok)

	require.NoError(t, c.Set("k", []byte("v"), 0))
	assert.NoError(t, c.Delete("k"))
	assert.NoError(t, c.Delete("k"))
	_, ok = c.Get("k")
	assert.False(t, ok)
}

func TestValuesAreCopies(t *testing.T) {
	c := newTestCache(t, newFakeClock())

	in := []byte("original")
	require.NoError(t, c.Set("k", in, 0))
	in[0] = 'X'

	out, ok := c.Get("k")
	require.True(t, ok)
	assert.Equal(t, []byte("original"), out)

	out[0] = 'Y'
	again, ok := c.Get("k")
	require.True(t, ok)
	assert.Equal(t, []byte("original"), again)
}

func TestSet_MaxValueBytes(t *testing.T) {
	c := New(Config{MaxValueBytes: 4})
	defer c.Close()

	require.NoError(t, c.Set("ok", []byte("1234"), 0))

	err := c.Set("big", []byte("12345"), 0)
	require.ErrorIs(t, err, ErrValueTooLarge)
	_, ok := c.Get("big")
	assert.False(t, ok)

	// A failed overwrite leaves the previous value in place.
	require.ErrorIs(t, c.Set("ok", []byte("12345"), 0), ErrValueTooLarge)
	got, ok := c.Get("ok")
	require.True(t, ok)
	assert.Equal(t, []byte("1234"), got)
}

func TestClose_IdempotentAndPreventsMutation(t *testing.T) {
	c := New(Config{CleanupInterval: 10 * time.Millisecond})
	require.NoError(t, c.Set("k", []byte("v"), 0))

	require.NoError(t, c.Close())
	require.NoError(t, c.Close())

	assert.ErrorIs(t, c.Set("k2", []byte("v"), 0), ErrClosed)
	assert.ErrorIs(t, c.Delete("k"), ErrClosed)

	got, ok := c.Get("k")
	assert.True(t, ok, "reads keep working after close")
	assert.Equal(t, []byte("v"), got)
}

func TestConcurrent_DistinctKeysIsolated(t *testing.T) {
	c := New(Config{Shards: 8})
	defer c.Close()

	const n = 256
	key := func(i int) string { return fmt.Sprintf("key-%d", i) }
	val := func(i int) []byte { return []byte(fmt.Sprintf("value-%d", i)) }

	var g errgroup.Group
	for i := 0; i < n; i++ {
		g.Go(func() error { return c.Set(key(i), val(i), time.Hour) })
	}
	require.NoError(t, g.Wait())

	got := make([][]byte, n)
	for i := 0; i < n; i++ {
		g.Go(func() error {
			v, ok := c.Get(key(i))
			if !ok {
				return fmt.Errorf("%s missing", key(i))
			}
			got[i] = v
			return nil
		})
	}
	require.NoError(t, g.Wait())

	for i := 0; i < n; i++ {
		assert.Equal(t, val(i), got[i])
	}
	assert.Equal(t, n, c.Len())
}

func TestConcurrent_SameKeyNeverTorn(t *testing.T) {
	c := New(Config{Shards: 1, CleanupInterval: time.Millisecond})
	defer c.Close()

	// Each writer stores a value made of one repeated byte. A torn read would mix bytes.
	const writers = 8
	const rounds = 500

	var g errgroup.Group
	for w := 0; w < writers; w++ {
		g.Go(func() error {
			v := make([]byte, 64)
			for i := range v {
				v[i] = byte('a' + w)
			}
			for r := 0; r < rounds; r++ {
				if err := c.Set("shared", v, time.Duration(r%3)*time.Millisecond); err != nil {
					return err
				}
			}
			return nil
		})
		g.Go(func() error {
			for r := 0; r < rounds; r++ {
				v, ok := c.Get("shared")
				if !ok {
					continue
				}
				for _, b := range v {
					if b != v[0] {
						return fmt.Errorf("torn value %q", v)
					}
				}
			}
			return nil
		})
		g.Go(func() error {
			for r := 0; r < rounds/10; r++ {
				if err := c.Delete("shared"); err != nil {
					return err
				}
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())
}

func TestSameCallerSetThenGet(t *testing.T) {
	c := New(Config{})
	defer c.Close()

	for i := 0; i < 1000; i++ {
		v := []byte(fmt.Sprintf("v%d", i))
		require.NoError(t, c.Set("k", v, time.Hour))
		got, ok := c.Get("k")
		require.True(t, ok)
		require.Equal(t, v, got)
	}
}

func TestShardFor_Stable(t *testing.T) {
	c := newTestCache(t, newFakeClock())

	for _, k := range []string{"", "a", "b", "some/longer/key"} {
		assert.Same(t, c.shardFor(k), c.shardFor(k))
	}
}
