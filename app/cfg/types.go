package cfg

import (
	"time"

	"github.com/sloonz/cfeedparser/app/markup"
)

type Cfg struct {
	// Server configuration
	Port         string
	APIAccessKey string
	MaxBodyBytes int64

	// Parsing pipeline
	WorkerCount  int
	ParseTimeout time.Duration
	MaxRetries   int
	Fallback     bool
	Limits       markup.Limits

	// Result cache
	CacheBackend string
	CacheDB      string
	CacheTTL     time.Duration

	// Command line output
	Charset string
	Format  string
	Files   []string

	// Application metadata
	Timezone string
	Debug    bool
	Version  string
}

const (
	CacheNone   = "none"
	CacheMemory = "memory"
	CacheSQLite = "sqlite"
)
