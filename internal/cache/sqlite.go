package cache

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver
)

const schema = `
CREATE TABLE IF NOT EXISTS items (
	key        TEXT PRIMARY KEY,
	data       BLOB NOT NULL,
	fetched_at INTEGER NOT NULL
)`

// SQLite is a Store persisted in a SQLite database.
type SQLite struct {
	db  *sql.DB
	ttl time.Duration
	now func() time.Time
}

// OpenSQLite opens (creating if needed) the cache database at path.
// A ttl <= 0 keeps entries until Clear.
func OpenSQLite(path string, ttl time.Duration) (*SQLite, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create cache directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open cache db: %w", err)
	}
	// modernc sqlite serializes writers; one connection avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init cache schema: %w", err)
	}

	return &SQLite{db: db, ttl: ttl, now: time.Now}, nil
}

func (s *SQLite) isExpired(fetchedAt int64) bool {
	if s.ttl <= 0 {
		return false
	}
	return fetchedAt < s.now().Add(-s.ttl).Unix()
}

func (s *SQLite) Get(key string) ([]byte, bool) {
	var data []byte
	var fetchedAt int64
	err := s.db.QueryRow(`SELECT data, fetched_at FROM items WHERE key = ?`, key).Scan(&data, &fetchedAt)
	if err != nil {
		return nil, false
	}
	if s.isExpired(fetchedAt) {
		_, _ = s.db.Exec(`DELETE FROM items WHERE key = ?`, key)
		return nil, false
	}
	return data, true
}

func (s *SQLite) Set(key string, data []byte) error {
	_, err := s.db.Exec(`
		INSERT INTO items (key, data, fetched_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET data = excluded.data, fetched_at = excluded.fetched_at
	`, key, data, s.now().Unix())
	if err != nil {
		return fmt.Errorf("cache item %s: %w", key, err)
	}
	return nil
}

func (s *SQLite) Clear() error {
	if _, err := s.db.Exec(`DELETE FROM items`); err != nil {
		return fmt.Errorf("clear cache: %w", err)
	}
	return nil
}

func (s *SQLite) Close() error {
	return s.db.Close()
}
