package store

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/sloonz/cfeedparser/app/feed"
)

// Store keeps parse results by content key. Implementations return copies:
// a Feed handed out by Get is never shared with another caller.
type Store interface {
	Get(key string) (*feed.Feed, bool, error)
	Put(key string, f *feed.Feed) error
	Count() (int, error)
	Close() error
}

// Open returns the store for a backend name: "memory", "sqlite" or "none".
// "none" yields a nil Store.
func Open(backend, path string, ttl time.Duration) (Store, error) {
	switch backend {
	case "", "none":
		return nil, nil
	case "memory":
		return NewMemory(ttl), nil
	case "sqlite":
		return OpenSQLite(path, ttl)
	default:
		return nil, fmt.Errorf("unknown cache backend %q", backend)
	}
}

// Key identifies a parse input. The charset hint takes part in the key since
// it can change the decoded text.
func Key(data []byte, hint string) string {
	h := sha256.New()
	h.Write([]byte(hint))
	h.Write([]byte{0})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

func encode(f *feed.Feed) ([]byte, error) {
	payload, err := json.Marshal(f)
	if err != nil {
		return nil, fmt.Errorf("failed to encode feed: %w", err)
	}
	return payload, nil
}

func decode(payload []byte) (*feed.Feed, error) {
	var f feed.Feed
	if err := json.Unmarshal(payload, &f); err != nil {
		return nil, fmt.Errorf("failed to decode feed: %w", err)
	}
	return &f, nil
}

type Parser interface {
	Parse(data []byte, hint string) (*feed.Feed, error)
}

// CachingParser serves repeated inputs from a Store. Only successful parses
// are cached; store failures are logged and never fail the parse.
type CachingParser struct {
	parser Parser
	store  Store
}

func NewCachingParser(parser Parser, store Store) *CachingParser {
	return &CachingParser{parser: parser, store: store}
}

func (c *CachingParser) Parse(data []byte, hint string) (*feed.Feed, error) {
	key := Key(data, hint)

	cached, found, err := c.store.Get(key)
	if err != nil {
		slog.Warn("Failed to read parse cache", "key", key, "error", err)
	} else if found {
		slog.Debug("Parse cache hit", "key", key, "dialect", cached.Dialect.String())
		return cached, nil
	}

	f, err := c.parser.Parse(data, hint)
	if err != nil {
		return nil, err
	}

	if err := c.store.Put(key, f); err != nil {
		slog.Warn("Failed to write parse cache", "key", key, "error", err)
	}

	return f, nil
}
