package cfg

import (
	"cmp"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/jessevdk/go-flags"
)

// Version is set at build time via -ldflags
var Version = "dev"

// ErrHelp is returned when help was requested and printed.
var ErrHelp = errors.New("help requested")

func GetVersion() string {
	return cmp.Or(Version, "unknown")
}

type rawCfg struct {
	// Server configuration
	Port         string `long:"port" env:"PORT" default:"8080" description:"HTTP server port"`
	APIAccessKey string `long:"api-key" env:"API_ACCESS_KEY" description:"API access key for authentication (optional)"`
	MaxBodyBytes int64  `long:"max-body" env:"MAX_BODY_BYTES" default:"10485760" description:"Largest accepted request body in bytes"`

	// Parsing pipeline
	WorkerCount  int    `long:"workers" env:"WORKER_COUNT" default:"4" description:"Number of parse workers"`
	ParseTimeout int    `long:"parse-timeout" env:"PARSE_TIMEOUT" default:"10" description:"Per-document parse timeout in seconds"`
	MaxRetries   int    `long:"max-retries" env:"MAX_RETRIES" default:"2" description:"Retries for documents that could not be read"`
	Fallback     bool   `long:"fallback" env:"FALLBACK" description:"Retry unparseable documents with the lenient secondary parser"`
	LimitsFile   string `long:"limits" env:"LIMITS_FILE" description:"YAML file overriding parser resource limits"`

	// Result cache
	CacheBackend string `long:"cache" env:"CACHE_BACKEND" default:"none" choice:"none" choice:"memory" choice:"sqlite" description:"Parsed feed cache backend"`
	CacheDB      string `long:"cache-db" env:"CACHE_DB" default:"./cfeedparser.db" description:"SQLite cache database path"`
	CacheTTL     int    `long:"cache-ttl" env:"CACHE_TTL" default:"3600" description:"Cache entry lifetime in seconds (memory backend)"`

	// Command line output
	Charset string `long:"charset" description:"Charset of the input files, overriding their declaration"`
	Format  string `long:"format" env:"FORMAT" default:"text" choice:"text" choice:"json" choice:"yaml" choice:"rss" description:"Output format"`

	// Application metadata
	Timezone string `long:"timezone" env:"TZ" default:"UTC" description:"Timezone for printed timestamps (e.g., UTC, Europe/Paris)"`
	Debug    bool   `long:"debug" env:"DEBUG" description:"Enable debug logging"`

	Args struct {
		Files []string `positional-arg-name:"FILE" description:"Feed files to parse ('-' for standard input)"`
	} `positional-args:"yes"`
}

var globalCfg *Cfg

// Load reads configuration from the command line and environment.
func Load() (*Cfg, error) {
	return LoadArgs(os.Args[1:])
}

func LoadArgs(args []string) (*Cfg, error) {
	var raw rawCfg

	parser := flags.NewParser(&raw, flags.Default)

	if _, err := parser.ParseArgs(args); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				return nil, ErrHelp
			}
		}
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	limits, err := LoadLimits(raw.LimitsFile)
	if err != nil {
		return nil, err
	}

	cfg := &Cfg{
		Port:         raw.Port,
		APIAccessKey: raw.APIAccessKey,
		MaxBodyBytes: raw.MaxBodyBytes,
		WorkerCount:  max(raw.WorkerCount, 1),
		ParseTimeout: time.Duration(raw.ParseTimeout) * time.Second,
		MaxRetries:   max(raw.MaxRetries, 0),
		Fallback:     raw.Fallback,
		Limits:       limits,
		CacheBackend: raw.CacheBackend,
		CacheDB:      raw.CacheDB,
		CacheTTL:     time.Duration(raw.CacheTTL) * time.Second,
		Charset:      raw.Charset,
		Format:       raw.Format,
		Files:        raw.Args.Files,
		Timezone:     raw.Timezone,
		Debug:        raw.Debug,
		Version:      GetVersion(),
	}

	if err := applyTimezone(cfg.Timezone); err != nil {
		slog.Warn("Invalid timezone, using system default", "timezone", cfg.Timezone, "error", err)
	}

	globalCfg = cfg

	return cfg, nil
}

func Get() *Cfg {
	if globalCfg == nil {
		panic("configuration not loaded - call cfg.Load() first")
	}
	return globalCfg
}

func applyTimezone(timezone string) error {
	if timezone != "" {
		loc, err := time.LoadLocation(timezone)
		if err != nil {
			return err
		}
		time.Local = loc
	}
	return nil
}

// SetupLogging installs the default slog handler on stderr.
func SetupLogging(debug bool) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}
