package store

import (
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "modernc.org/sqlite"

	"github.com/sloonz/cfeedparser/app/feed"
)

var _ Store = (*SQLite)(nil)

// SQLite is a durable store backed by a single database file.
type SQLite struct {
	db  *sql.DB
	ttl time.Duration
	now func() time.Time
}

// OpenSQLite opens (creating if needed) the database at path and migrates
// it. Entries older than ttl are treated as missing; a zero ttl keeps them
// forever.
func OpenSQLite(path string, ttl time.Duration) (*SQLite, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// SQLite serialises writers anyway; one connection also keeps
	// ":memory:" databases consistent.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	version, dirty, err := RunMigrations(db)
	if err != nil {
		db.Close()
		return nil, err
	}
	slog.Debug("Parse cache database ready", "path", path, "schema_version", version, "dirty", dirty)

	return &SQLite{db: db, ttl: ttl, now: time.Now}, nil
}

func (s *SQLite) cutoff() int64 {
	if s.ttl <= 0 {
		return 0
	}
	return s.now().Add(-s.ttl).Unix()
}

func (s *SQLite) Get(key string) (*feed.Feed, bool, error) {
	var payload []byte
	err := s.db.QueryRow(`
		SELECT payload FROM parsed_feeds
		WHERE key = ? AND created_at >= ?
	`, key, s.cutoff()).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to get cached feed: %w", err)
	}

	f, err := decode(payload)
	if err != nil {
		return nil, false, err
	}
	return f, true, nil
}

func (s *SQLite) Put(key string, f *feed.Feed) error {
	payload, err := encode(f)
	if err != nil {
		return err
	}

	_, err = s.db.Exec(`
		INSERT INTO parsed_feeds (key, dialect, payload, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			dialect = excluded.dialect,
			payload = excluded.payload,
			created_at = excluded.created_at
	`, key, f.Dialect.String(), payload, s.now().Unix())
	if err != nil {
		return fmt.Errorf("failed to store feed: %w", err)
	}
	return nil
}

func (s *SQLite) Count() (int, error) {
	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM parsed_feeds WHERE created_at >= ?`, s.cutoff()).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count cached feeds: %w", err)
	}
	return count, nil
}

// Prune deletes expired entries and reports how many were removed.
func (s *SQLite) Prune() (int64, error) {
	if s.ttl <= 0 {
		return 0, nil
	}
	res, err := s.db.Exec(`DELETE FROM parsed_feeds WHERE created_at < ?`, s.cutoff())
	if err != nil {
		return 0, fmt.Errorf("failed to prune cached feeds: %w", err)
	}
	return res.RowsAffected()
}

func (s *SQLite) Close() error {
	return s.db.Close()
}
