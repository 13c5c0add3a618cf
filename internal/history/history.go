// Package history keeps a local SQLite log of searches so they can be
// reviewed and repeated.
package history

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// Kind is the type of search that was run.
type Kind string

// Search kinds recorded by the CLI.
const (
	KindISBN     Kind = "isbn"
	KindTitle    Kind = "title"
	KindKeyword  Kind = "keyword"
	KindHoldings Kind = "holdings"
	KindOCR      Kind = "ocr"
)

const schema = `
CREATE TABLE IF NOT EXISTS search_history (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	query TEXT NOT NULL,
	kind TEXT NOT NULL,
	result_count INTEGER NOT NULL,
	searched_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_search_history_searched_at ON search_history(searched_at);
`

// Entry is one recorded search.
type Entry struct {
	Query       string    `json:"query"`
	Kind        Kind      `json:"kind"`
	ResultCount int       `json:"result_count"`
	SearchedAt  time.Time `json:"searched_at"`
}

// Store is the SQLite-backed search history.
type Store struct {
	db     *sql.DB
	dbPath string
	now    func() time.Time
}

// Open opens (or creates) the history database at dbPath.
func Open(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		closeErr := db.Close()
		return nil, errors.Join(fmt.Errorf("failed to create table: %w", err), closeErr)
	}
	return &Store{db: db, dbPath: dbPath, now: time.Now}, nil
}

// Record appends a search to the history.
func (s *Store) Record(query string, kind Kind, resultCount int) error {
	_, err := s.db.Exec(
		`INSERT INTO search_history (query, kind, result_count, searched_at) VALUES (?, ?, ?, ?)`,
		query, string(kind), resultCount, s.now().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("failed to record search: %w", err)
	}
	return nil
}

// Recent returns up to limit entries, newest first.
func (s *Store) Recent(limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.Query(`
		SELECT query, kind, result_count, searched_at
		FROM search_history
		ORDER BY searched_at DESC, id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var kind string
		var millis int64
		if err := rows.Scan(&e.Query, &kind, &e.ResultCount, &millis); err != nil {
			return nil, fmt.Errorf("failed to scan history row: %w", err)
		}
		e.Kind = Kind(kind)
		e.SearchedAt = time.UnixMilli(millis)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Clear deletes all history and returns how many entries were removed.
func (s *Store) Clear() (int64, error) {
	result, err := s.db.Exec(`DELETE FROM search_history`)
	if err != nil {
		return 0, fmt.Errorf("failed to clear history: %w", err)
	}
	n, _ := result.RowsAffected()
	return n, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
