package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gocache"
	"gocache/internal/config"
	"gocache/internal/logger"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "gocache: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Signal-aware context is the root of ownership for long-lived background work.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	cfg.BindFlags(flag.CommandLine)
	ttl := flag.Int64("ttl", 1, "TTL in seconds for the expiry demo")
	flag.Parse()

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if err := logger.Init(cfg.LoggerConfig()); err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	log := logger.WithComponent("demo")

	engine, err := gocache.NewEngine(*cfg)
	if err != nil {
		return err
	}
	defer func() {
		// Close is idempotent; safe to call in defer.
		if err := engine.Close(); err != nil {
			log.Error().Err(err).Msg("engine close")
		}
	}()

	log.Info().
		Int("shards", cfg.Cache.Shards).
		Dur("sweep_interval", cfg.Cache.SweepInterval).
		Msg("GoCache demo starting")

	// 1) Round-trip and overwrite
	engine.Set([]byte("a"), []byte("A"), 0)
	engine.Set([]byte("a"), []byte("A2"), 0)
	if v, ok := engine.Get([]byte("a")); ok {
		log.Info().Str("key", "a").Str("value", string(v)).Msg("GET after overwrite")
	}

	// 2) Forget is idempotent
	log.Info().
		Bool("first", engine.Forget([]byte("a"))).
		Bool("second", engine.Forget([]byte("a"))).
		Msg("FORGET a twice")
	if _, ok := engine.Get([]byte("a")); !ok {
		log.Info().Str("key", "a").Msg("GET: missing (forgotten)")
	}

	// 3) Read-through: the second call is served from the cache.
	loads := 0
	profile := func() ([]byte, error) {
		loads++
		return []byte(`{"id":1,"name":"Alice"}`), nil
	}
	for i := 0; i < 2; i++ {
		if _, err := engine.Remember([]byte("user_profile:1"), 3600, profile); err != nil {
			return fmt.Errorf("remember: %w", err)
		}
	}
	log.Info().Int("loads", loads).Msg("REMEMBER user_profile:1 twice")

	// 4) TTL expiry. "unread" is never read again; only the sweeper can remove it.
	engine.Set([]byte("ttl"), []byte("short"), *ttl)
	engine.Set([]byte("unread"), []byte("short"), *ttl)
	log.Info().Int64("ttl_seconds", *ttl).Int("entries", engine.Len()).Msg("short-lived keys set")

	wait := time.NewTimer(time.Duration(*ttl)*time.Second + 100*time.Millisecond)
	defer wait.Stop()

	select {
	case <-ctx.Done():
		log.Info().Msg("received shutdown signal")
		return nil
	case <-wait.C:
	}

	if _, ok := engine.Get([]byte("ttl")); !ok {
		log.Info().Str("key", "ttl").Msg("GET: missing (expired and removed)")
	}
	log.Info().
		Int("entries", engine.Len()).
		Msg("entries after expiry; unread keys remain until the next sweep")

	fmt.Println("Done.")
	return nil
}
