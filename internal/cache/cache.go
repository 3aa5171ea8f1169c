package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"gocache/internal/logger"
)

const (
	// DefaultShards is used when Config.Shards <= 0.
	DefaultShards = 16

	// DefaultSweepWorkers bounds how many shards one sweep visits in parallel.
	DefaultSweepWorkers = 4
)

// Config controls sharding and maintenance behavior.
//
// Defaults:
//   - Shards <= 0 means DefaultShards
//   - CleanupInterval <= 0 disables background cleanup (lazy expiration still works)
//   - SweepWorkers <= 0 means DefaultSweepWorkers
//   - MaxValueBytes <= 0 means values of any size are accepted
//   - nil Observer means events are dropped
//   - nil Clock means time.Now
//   - nil Logger means a "cache" component child of the global logger
//
// Background cleanup exists to prevent memory growth when keys are written once and never read again.
// Lazy expiration alone can leave dead entries in memory indefinitely.
type Config struct {
	Shards          int
	CleanupInterval time.Duration
	SweepWorkers    int
	MaxValueBytes   int
	Observer        Observer
	Clock           func() time.Time
	Logger          *zerolog.Logger
}

// Cache is a concurrency-safe in-memory key–value cache with TTL expiry.
//
// Keys are spread over a fixed set of shards. Every operation on a key takes only that
// key's shard lock, so operations on one key are linearizable and operations on
// different keys proceed independently.
//
// Ownership model:
// Cache owns its internal goroutines. Call Close to stop them.
type Cache struct {
	shards []*shard

	maxValueBytes int
	sweepWorkers  int
	observer      Observer
	now           func() time.Time
	log           zerolog.Logger

	// loads collapses concurrent Remember misses on one key into a single load.
	loads singleflight.Group

	// Goroutine ownership.
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	cleanupEvery time.Duration

	closeMu sync.RWMutex
	closed  bool
}

var (
	ErrClosed        = errors.New("cache is closed")
	ErrValueTooLarge = errors.New("value exceeds size limit")
)

// New constructs a cache and starts background maintenance (if enabled).
//
// New never returns a nil Cache.
func New(cfg Config) *Cache {
	ctx, cancel := context.WithCancel(context.Background())

	n := cfg.Shards
	if n <= 0 {
		n = DefaultShards
	}
	workers := cfg.SweepWorkers
	if workers <= 0 {
		workers = DefaultSweepWorkers
	}
	obs := cfg.Observer
	if obs == nil {
		obs = NoopObserver{}
	}
	now := cfg.Clock
	if now == nil {
		now = time.Now
	}
	log := logger.WithComponent("cache")
	if cfg.Logger != nil {
		log = *cfg.Logger
	}

	c := &Cache{
		shards:        make([]*shard, n),
		maxValueBytes: cfg.MaxValueBytes,
		sweepWorkers:  workers,
		observer:      obs,
		now:           now,
		log:           log,
		ctx:           ctx,
		cancel:        cancel,
		cleanupEvery:  cfg.CleanupInterval,
	}
	for i := range c.shards {
		c.shards[i] = newShard()
	}

	if c.cleanupEvery > 0 {
		c.wg.Add(1)
		go c.expiryLoop()
	}

	return c
}

// Close stops background goroutines and prevents further mutation.
// Reads keep working against whatever is still stored.
//
// Close is safe to call multiple times.
func (c *Cache) Close() error {
	c.closeMu.Lock()
	if c.closed {
		c.closeMu.Unlock()
		return nil
	}
	c.closed = true
	c.closeMu.Unlock()

	// Cancel outside the lock so shutdown doesn't block readers/writers.
	c.cancel()
	c.wg.Wait()
	return nil
}

func (c *Cache) isClosed() bool {
	c.closeMu.RLock()
	defer c.closeMu.RUnlock()
	return c.closed
}

// Set writes/overwrites a key.
//
// ttl semantics:
//   - ttl > 0 expires the entry at now+ttl
//   - ttl <= 0 means "no expiration"
//
// Value and expiry are replaced together; no reader sees one without the other.
func (c *Cache) Set(key string, value []byte, ttl time.Duration) error {
	if c.isClosed() {
		return ErrClosed
	}
	if c.maxValueBytes > 0 && len(value) > c.maxValueBytes {
		return fmt.Errorf("set %d bytes (limit %d): %w", len(value), c.maxValueBytes, ErrValueTooLarge)
	}

	// Copy before taking the lock; callers may reuse their buffer right after we return.
	e := entry{value: cloneBytes(value)}
	if ttl > 0 {
		e.hasExpiry = true
		e.expiresAt = c.now().Add(ttl)
	}

	s := c.shardFor(key)
	s.mu.Lock()
	s.items[key] = e
	s.mu.Unlock()

	c.observer.Stored()
	return nil
}

// Get reads a key.
//
// It performs lazy TTL expiration: expired keys are removed on access.
// The returned slice is a copy and may be modified freely.
func (c *Cache) Get(key string) ([]byte, bool) {
	now := c.now()
	s := c.shardFor(key)

	s.mu.RLock()
	e, ok := s.items[key]
	if !ok {
		s.mu.RUnlock()
		c.observer.Miss()
		return nil, false
	}
	if e.expired(now) {
		// Expired: must upgrade to write lock to delete.
		s.mu.RUnlock()
		s.mu.Lock()
		// Re-check because a concurrent Set may have replaced it between locks.
		removed := s.deleteIfExpiredLocked(key, now)
		s.mu.Unlock()

		if removed {
			c.observer.Expired(ExpiredOnRead, 1)
		}
		c.observer.Miss()
		return nil, false
	}
	out := cloneBytes(e.value)
	s.mu.RUnlock()

	c.observer.Hit()
	return out, true
}

// Delete removes a key if present.
func (c *Cache) Delete(key string) error {
	if c.isClosed() {
		return ErrClosed
	}

	s := c.shardFor(key)
	s.mu.Lock()
	delete(s.items, key)
	s.mu.Unlock()

	c.observer.Forgotten()
	return nil
}

// Len returns the number of currently stored entries.
//
// Note: Len includes entries that have expired but haven't been cleaned up yet.
// Lazy expiration removes them when accessed; the cleanup loop removes them over time.
func (c *Cache) Len() int {
	n := 0
	for _, s := range c.shards {
		s.mu.RLock()
		n += len(s.items)
		s.mu.RUnlock()
	}
	return n
}

func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
