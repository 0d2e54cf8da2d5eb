package db

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// ErrUnavailable is returned once a statement has exhausted its retries
// against a connection that keeps failing. Callers should surface it as an
// explicit outage rather than an empty result.
var ErrUnavailable = errors.New("store unavailable")

const (
	retryAttempts = 3
	retryBackoff  = 100 * time.Millisecond
)

// Store holds the pooled database handle together with the schema capability
// snapshot, so request-path code branches on cached flags instead of probing
// table metadata per call.
type Store struct {
	DB *sql.DB

	mu   sync.RWMutex
	caps Capabilities
}

func Open(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// SQLite pragmas for performance
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA cache_size=-20000", // 20MB
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("exec pragma %q: %w", p, err)
		}
	}

	db.SetMaxOpenConns(1) // SQLite handles one writer at a time
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("validate connection: %w", err)
	}

	return db, nil
}

// NewStore snapshots the schema capabilities for the given handle.
func NewStore(db *sql.DB) (*Store, error) {
	s := &Store{DB: db}
	if err := s.Refresh(); err != nil {
		return nil, err
	}
	return s, nil
}

// OpenStore opens the database, runs schema evolution and returns a ready
// store. Commands and tests use this; cmd/server wires the steps explicitly
// so it can log the migration result.
func OpenStore(path string) (*Store, error) {
	db, err := Open(path)
	if err != nil {
		return nil, err
	}
	if _, err := Migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	s, err := NewStore(db)
	if err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.DB.Close()
}

// Exec runs a write statement, retrying on transient connection errors with
// linear backoff. The connection is revalidated with a ping before each
// retry; non-transient errors pass through untouched.
func (s *Store) Exec(query string, args ...any) (sql.Result, error) {
	var res sql.Result
	err := s.withRetry(func() error {
		var err error
		res, err = s.DB.Exec(query, args...)
		return err
	})
	return res, err
}

// Query runs a read statement with the same retry policy as Exec.
func (s *Store) Query(query string, args ...any) (*sql.Rows, error) {
	var rows *sql.Rows
	err := s.withRetry(func() error {
		var err error
		rows, err = s.DB.Query(query, args...)
		return err
	})
	return rows, err
}

// QueryRow mirrors sql.DB.QueryRow; point reads are covered by the
// busy_timeout pragma.
func (s *Store) QueryRow(query string, args ...any) *sql.Row {
	return s.DB.QueryRow(query, args...)
}

func (s *Store) withRetry(fn func() error) error {
	var err error
	for attempt := 0; attempt < retryAttempts; attempt++ {
		if attempt > 0 {
			time.Sleep(time.Duration(attempt) * retryBackoff)
			if pingErr := s.DB.Ping(); pingErr != nil {
				err = pingErr
				continue
			}
		}
		err = fn()
		if err == nil || !isTransient(err) {
			return err
		}
	}
	return fmt.Errorf("%w: %v", ErrUnavailable, err)
}

func isTransient(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "database is locked") ||
		strings.Contains(msg, "database table is locked") ||
		strings.Contains(msg, "bad connection")
}
