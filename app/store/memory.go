package store

import (
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/sloonz/cfeedparser/app/feed"
)

var _ Store = (*Memory)(nil)

// Memory is an in-process store. Entries are kept as JSON so that callers
// mutating a returned Feed never touch the cached copy.
type Memory struct {
	cache *cache.Cache
}

// NewMemory creates a store whose entries expire after ttl. A zero ttl keeps
// entries until the process exits.
func NewMemory(ttl time.Duration) *Memory {
	if ttl <= 0 {
		return &Memory{cache: cache.New(cache.NoExpiration, 0)}
	}
	return &Memory{cache: cache.New(ttl, 2*ttl)}
}

func (m *Memory) Get(key string) (*feed.Feed, bool, error) {
	val, found := m.cache.Get(key)
	if !found {
		return nil, false, nil
	}

	payload, ok := val.([]byte)
	if !ok {
		m.cache.Delete(key)
		return nil, false, nil
	}

	f, err := decode(payload)
	if err != nil {
		return nil, false, err
	}
	return f, true, nil
}

func (m *Memory) Put(key string, f *feed.Feed) error {
	payload, err := encode(f)
	if err != nil {
		return err
	}
	m.cache.Set(key, payload, cache.DefaultExpiration)
	return nil
}

func (m *Memory) Count() (int, error) {
	return m.cache.ItemCount(), nil
}

func (m *Memory) Close() error {
	m.cache.Flush()
	return nil
}
