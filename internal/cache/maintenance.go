package cache

import (
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
)

// expiryLoop periodically scans and removes expired entries.
//
// A ticker-driven full scan avoids per-entry goroutines or timers, which are expensive and
// hard to own. The cost is an O(n) pass per tick, spread over the shards.
func (c *Cache) expiryLoop() {
	defer c.wg.Done()

	ticker := time.NewTicker(c.cleanupEvery)
	defer ticker.Stop()

	c.log.Info().Dur("interval", c.cleanupEvery).Msg("expiry sweeper started")

	for {
		select {
		case <-c.ctx.Done():
			c.log.Info().Msg("expiry sweeper stopped")
			return
		case <-ticker.C:
			c.Sweep()
		}
	}
}

// Sweep removes every expired entry now and returns how many were removed.
//
// Shards are visited in parallel, at most SweepWorkers at a time. Each shard is
// scanned under its own write lock, the same lock Get/Set/Delete use.
func (c *Cache) Sweep() int {
	start := c.now()

	var removed atomic.Int64
	var g errgroup.Group
	g.SetLimit(c.sweepWorkers)
	for _, s := range c.shards {
		g.Go(func() error {
			removed.Add(int64(s.deleteExpired(start)))
			return nil
		})
	}
	_ = g.Wait()

	n := int(removed.Load())
	remaining := c.Len()
	elapsed := c.now().Sub(start)

	c.observer.Swept(n, remaining, elapsed)
	if n == 0 {
		return 0
	}

	c.observer.Expired(ExpiredBySweep, n)
	c.log.Debug().
		Int("removed", n).
		Int("remaining", remaining).
		Dur("elapsed", elapsed).
		Msg("expiry sweep completed")

	return n
}
