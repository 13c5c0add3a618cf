package cache

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
	"unicode/utf8"

	_ "modernc.org/sqlite"
)

// SQLiteStore is the persistent tier backed by a SQLite database file.
type SQLiteStore struct {
	db   *sql.DB
	mu   sync.RWMutex
	path string
}

// Compile-time check that SQLiteStore implements Persistent.
var _ Persistent = (*SQLiteStore)(nil)

// NewSQLiteStore opens (or creates) the cache database at dbPath and ensures the schema exists.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache database: %w", err)
	}

	// Set connection pool settings
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)

	if err := db.Ping(); err != nil {
		closeErr := db.Close()
		return nil, errors.Join(fmt.Errorf("failed to connect to cache database: %w", err), closeErr)
	}

	if _, err := db.Exec(ResponseCacheSchema); err != nil {
		closeErr := db.Close()
		return nil, errors.Join(fmt.Errorf("failed to create cache table: %w", err), closeErr)
	}

	return &SQLiteStore{
		db:   db,
		path: dbPath,
	}, nil
}

// Path returns the database file the store was opened with.
func (s *SQLiteStore) Path() string {
	return s.path
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Get retrieves a stored entry. Expiry is the caller's concern.
func (s *SQLiteStore) Get(key string) (Entry, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var data []byte
	var storedAtMillis int64
	err := s.db.QueryRow(`
		SELECT data, stored_at
		FROM response_cache
		WHERE cache_key = ?
	`, key).Scan(&data, &storedAtMillis)
	if err == sql.ErrNoRows {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, fmt.Errorf("failed to query cache: %w", err)
	}

	return Entry{
		Key:      key,
		Payload:  data,
		StoredAt: time.UnixMilli(storedAtMillis),
	}, true, nil
}

// Set stores an entry, replacing any previous value for the key.
func (s *SQLiteStore) Set(e Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`
		INSERT OR REPLACE INTO response_cache (cache_key, data, stored_at)
		VALUES (?, ?, ?)
	`, e.Key, e.Payload, e.StoredAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("failed to set cache: %w", err)
	}
	return nil
}

// Delete removes a single entry.
func (s *SQLiteStore) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.Exec(`DELETE FROM response_cache WHERE cache_key = ?`, key); err != nil {
		return fmt.Errorf("failed to delete cache entry: %w", err)
	}
	return nil
}

// DeletePrefix removes every entry whose key starts with prefix and returns the count removed.
func (s *SQLiteStore) DeletePrefix(prefix string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// substr avoids LIKE wildcard escaping; SQLite counts characters, not bytes.
	result, err := s.db.Exec(`
		DELETE FROM response_cache
		WHERE substr(cache_key, 1, ?) = ?
	`, utf8.RuneCountInString(prefix), prefix)
	if err != nil {
		return 0, fmt.Errorf("failed to delete cache entries: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	slog.Debug("Cache entries cleared", "prefix", prefix, "rows_deleted", rowsAffected)
	return rowsAffected, nil
}

// DeleteStoredAtOrBefore removes entries stored at or before cutoff.
func (s *SQLiteStore) DeleteStoredAtOrBefore(cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	result, err := s.db.Exec(`
		DELETE FROM response_cache
		WHERE stored_at <= ?
	`, cutoff.UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("failed to clear expired cache: %w", err)
	}

	rows, _ := result.RowsAffected()
	return rows, nil
}

// Count returns the number of stored entries.
func (s *SQLiteStore) Count() (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM response_cache`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count cache entries: %w", err)
	}
	return n, nil
}
