// Package cache implements a single-process, in-memory key–value cache with TTL expiry.
//
// Goals for this package:
//   - Keys and values are opaque byte sequences; values are copied in and copied out
//   - Concurrency-safe through per-shard RWMutexes, so unrelated keys rarely contend
//   - Per-entry TTL with both lazy (on read) and active (sweeper) expiration
//   - Own and cleanly stop long-lived goroutines (no leaks on shutdown)
//
// There is no size-bounded eviction. Memory is bounded only by what callers keep alive
// with their TTLs; the sweeper reclaims expired entries nobody reads again.
package cache
