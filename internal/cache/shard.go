package cache

import (
	"hash/fnv"
	"sync"
	"time"
)

// shard is one independently locked slice of the key space.
type shard struct {
	mu    sync.RWMutex
	items map[string]entry
}

// entry is stored by value so a replacement swaps value and expiry in one assignment.
//
// hasExpiry=false means "never expires".
type entry struct {
	value     []byte
	expiresAt time.Time
	hasExpiry bool
}

func newShard() *shard {
	return &shard{items: make(map[string]entry)}
}

func (e entry) expired(now time.Time) bool {
	return e.hasExpiry && !e.expiresAt.After(now)
}

// shardFor maps a key to its shard with FNV-1a. The mapping never changes for a Cache.
func (c *Cache) shardFor(key string) *shard {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return c.shards[h.Sum32()%uint32(len(c.shards))]
}

func (s *shard) deleteIfExpiredLocked(key string, now time.Time) bool {
	e, ok := s.items[key]
	if !ok || !e.expired(now) {
		return false
	}
	delete(s.items, key)
	return true
}

// deleteExpired removes all expired keys in the shard and reports how many were removed.
//
// This is O(n) in the shard size and intentionally simple. A min-heap or timing wheel
// would avoid the scan at the cost of bookkeeping on every Set.
func (s *shard) deleteExpired(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for key, e := range s.items {
		if e.expired(now) {
			delete(s.items, key)
			removed++
		}
	}
	return removed
}
