// Package gocache is the embedding surface of the cache: the three calls a host
// binding makes (Get, Set, Forget) over a process-wide store, plus Remember for
// get-or-compute reads.
//
// Keys and values are plain bytes. TTLs are whole seconds; a TTL of zero or less
// stores the value without expiry. Get reports absence with ok == false, never an
// error, and Set reports failure with false. None of the three panics or blocks.
package gocache

import (
	"fmt"
	"math"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"gocache/internal/cache"
	"gocache/internal/config"
	"gocache/internal/logger"
	"gocache/internal/metrics"
)

// Engine adapts a cache.Cache to the binding contract.
type Engine struct {
	cache     *cache.Cache
	collector *metrics.Collector
	log       zerolog.Logger
}

// NewEngine builds an engine from cfg and starts its expiry sweeper.
// It logs through the global zerolog logger, which stays under the caller's control.
func NewEngine(cfg config.Config) (*Engine, error) {
	return newEngine(cfg, logger.Logger())
}

func newEngine(cfg config.Config, base zerolog.Logger) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("gocache: %w", err)
	}

	e := &Engine{log: logger.Component(base, "engine")}

	var obs cache.Observer
	var m *metrics.CacheMetrics
	if cfg.Metrics.Enabled {
		e.collector = metrics.NewCollector()
		m = metrics.NewCacheMetrics(e.collector)
		obs = m
	}

	cacheLog := logger.Component(base, "cache")
	e.cache = cache.New(cache.Config{
		Shards:          cfg.Cache.Shards,
		CleanupInterval: cfg.Cache.SweepInterval,
		SweepWorkers:    cfg.Cache.SweepWorkers,
		MaxValueBytes:   cfg.Cache.MaxValueBytes,
		Observer:        obs,
		Logger:          &cacheLog,
	})
	m.TrackEntries(e.cache.Len)

	e.log.Debug().
		Int("shards", cfg.Cache.Shards).
		Dur("sweep_interval", cfg.Cache.SweepInterval).
		Bool("metrics", cfg.Metrics.Enabled).
		Msg("engine created")

	return e, nil
}

// Get returns a copy of the live value stored under key.
func (e *Engine) Get(key []byte) ([]byte, bool) {
	return e.cache.Get(string(key))
}

// Set stores value under key for ttl seconds and reports whether it was stored.
func (e *Engine) Set(key, value []byte, ttl int64) bool {
	if err := e.cache.Set(string(key), value, SecondsToTTL(ttl)); err != nil {
		e.log.Warn().Err(err).
			Int("key_len", len(key)).
			Int("value_len", len(value)).
			Msg("set failed")
		return false
	}
	return true
}

// Forget removes key. It always reports true, whether or not the key existed.
func (e *Engine) Forget(key []byte) bool {
	if err := e.cache.Delete(string(key)); err != nil {
		e.log.Debug().Err(err).Int("key_len", len(key)).Msg("forget ignored")
	}
	return true
}

// Remember returns the live value under key, or the result of load, which is then
// stored for ttl seconds. Concurrent misses on one key share a single load. A load
// error is returned and nothing is stored.
func (e *Engine) Remember(key []byte, ttl int64, load func() ([]byte, error)) ([]byte, error) {
	return e.cache.Remember(string(key), SecondsToTTL(ttl), load)
}

// Len returns the number of stored entries, including expired ones not yet swept.
func (e *Engine) Len() int {
	return e.cache.Len()
}

// Close stops the sweeper. Later Set calls fail; Get keeps serving stored values.
func (e *Engine) Close() error {
	return e.cache.Close()
}

// MetricsHandler serves the engine's Prometheus metrics, or 404 when metrics are disabled.
func (e *Engine) MetricsHandler() http.Handler {
	if e.collector == nil {
		return http.NotFoundHandler()
	}
	return e.collector.Handler()
}

// SecondsToTTL converts a binding TTL in seconds to a duration.
// Non-positive values map to 0 (no expiry); values too large for a Duration saturate.
func SecondsToTTL(ttl int64) time.Duration {
	if ttl <= 0 {
		return 0
	}
	if ttl > int64(math.MaxInt64/time.Second) {
		return time.Duration(math.MaxInt64)
	}
	return time.Duration(ttl) * time.Second
}

var (
	defaultOnce   sync.Once
	defaultEngine *Engine
)

// Default returns the process-wide engine, creating it on first use from
// GOCACHE_* environment variables. A bad environment falls back to defaults.
//
// The engine logs through its own logger built from GOCACHE_LOG_*; zerolog's global
// logger, level and time format belong to the host and are left alone.
func Default() *Engine {
	defaultOnce.Do(func() {
		cfg, err := config.Load()
		if err != nil {
			d := config.Default()
			cfg = &d
		}
		base, lerr := logger.New(cfg.LoggerConfig())
		if lerr != nil {
			base, _ = logger.New(&logger.Config{Level: cfg.Logging.Level})
			base.Warn().Err(lerr).Msg("log output unavailable, using stderr")
		}
		if err != nil {
			base.Warn().Err(err).Msg("falling back to default configuration")
		}

		e, err := newEngine(*cfg, base)
		if err != nil {
			// Defaults always validate.
			panic(err)
		}
		defaultEngine = e
	})
	return defaultEngine
}

// Get reads key from the process-wide engine.
func Get(key []byte) ([]byte, bool) {
	return Default().Get(key)
}

// Set writes key to the process-wide engine with a TTL in seconds.
func Set(key, value []byte, ttl int64) bool {
	return Default().Set(key, value, ttl)
}

// Forget removes key from the process-wide engine. It always returns true.
func Forget(key []byte) bool {
	return Default().Forget(key)
}

// Remember reads key from the process-wide engine, loading and storing it on a miss.
func Remember(key []byte, ttl int64, load func() ([]byte, error)) ([]byte, error) {
	return Default().Remember(key, ttl, load)
}
