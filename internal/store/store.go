// Package store reads a local Apple Messages database (chat.db
// schema) and turns it into an ordered stream of message records
// plus the small side tables the report builder needs. The store is
// only ever opened read-only; all schema variance (optional columns,
// timestamp scale) is probed from the data itself.
package store

import (
	"context"
	"database/sql"
	"net/url"
	"os"

	_ "github.com/mattn/go-sqlite3"

	"chatmetrics/internal/appletime"
)

// Store wraps a read-only connection pool over a message database.
type Store struct {
	db    *sql.DB
	path  string
	scale appletime.Scale
}

// makeDSN builds a read-only SQLite connection string with shared
// pragmas. immutable is not set so WAL-side reads still work on a
// live database copy.
func makeDSN(path string) string {
	params := url.Values{}
	params.Set("mode", "ro")
	params.Set("_busy_timeout", "5000")
	params.Set("_mmap_size", "268435456")
	params.Set("_cache_size", "-64000")
	return "file:" + path + "?" + params.Encode()
}

// Open opens the database at path read-only and probes the
// timestamp scale from the largest raw date in the message table.
// The file must already exist; Open never creates a store.
func Open(path string) (*Store, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, &OpenError{Path: path, Err: err}
	}

	db, err := sql.Open("sqlite3", makeDSN(path))
	if err != nil {
		return nil, &OpenError{Path: path, Err: err}
	}
	db.SetMaxOpenConns(4)

	s := &Store{db: db, path: path}

	maxRaw, err := s.maxRawDate(context.Background())
	if err != nil {
		db.Close()
		return nil, err
	}
	s.scale = appletime.DetectScale(maxRaw)
	return s, nil
}

// Scale returns the detected timestamp scale.
func (s *Store) Scale() appletime.Scale { return s.scale }

// Path returns the store file path.
func (s *Store) Path() string { return s.path }

// Close closes the connection pool.
func (s *Store) Close() error { return s.db.Close() }

// maxRawDate returns MAX(date) over the message table, 0 when the
// table is empty.
func (s *Store) maxRawDate(ctx context.Context) (int64, error) {
	var raw sql.NullInt64
	err := s.db.QueryRowContext(
		ctx, "SELECT MAX(date) FROM message",
	).Scan(&raw)
	if err != nil {
		return 0, &QueryError{Op: "max message date", Err: err}
	}
	return raw.Int64, nil
}

// MaxMessageID returns the largest message rowid in the store, 0
// when empty.
func (s *Store) MaxMessageID(ctx context.Context) (int64, error) {
	var id sql.NullInt64
	err := s.db.QueryRowContext(
		ctx, "SELECT MAX(ROWID) FROM message",
	).Scan(&id)
	if err != nil {
		return 0, &QueryError{Op: "max message id", Err: err}
	}
	return id.Int64, nil
}
