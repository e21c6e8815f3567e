package tasks

import (
	"fmt"
	"log/slog"

	"github.com/sloonz/cfeedparser/app/cfg"
	"github.com/sloonz/cfeedparser/app/fallback"
	"github.com/sloonz/cfeedparser/app/feed"
	"github.com/sloonz/cfeedparser/app/store"
)

// BuildParser assembles the parse strategy described by the configuration:
// the engine, optionally backed by the gofeed fallback, optionally behind a
// result cache. The returned store is nil when caching is off; the caller
// closes it.
func BuildParser(c *cfg.Cfg) (Parser, store.Store, error) {
	var parser Parser = feed.NewParser(feed.Options{Limits: c.Limits})

	if c.Fallback {
		parser = fallback.NewChain(parser, fallback.NewGofeed())
		slog.Debug("Fallback parser enabled")
	}

	cache, err := store.Open(c.CacheBackend, c.CacheDB, c.CacheTTL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open cache: %w", err)
	}
	if cache != nil {
		parser = store.NewCachingParser(parser, cache)
		slog.Debug("Parse cache enabled", "backend", c.CacheBackend, "ttl", c.CacheTTL.String())
	}

	return parser, cache, nil
}

func NewPoolFromConfig(c *cfg.Cfg) *Pool {
	return NewPool(PoolConfig{
		WorkerCount: c.WorkerCount,
		Timeout:     c.ParseTimeout,
		MaxRetries:  c.MaxRetries,
	})
}
