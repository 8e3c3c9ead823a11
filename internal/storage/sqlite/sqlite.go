// Package sqlite provides a SQLite-backed implementation of the storage.Store interface.
//
// Documents of every kind live in one table keyed by (kind, id) with a
// monotonically increasing seq column that records creation order. Write
// transactions are serialized by a process-wide mutex; the database runs in
// WAL mode so reads proceed against a snapshot while a write is in flight.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)

	"github.com/mmynk/wageledger/internal/storage"
)

// Ensure SQLiteStore implements storage.Store
var _ storage.Store = (*SQLiteStore)(nil)

// SQLiteStore implements storage.Store using SQLite.
type SQLiteStore struct {
	db      *sql.DB
	writeMu sync.Mutex
	closed  atomic.Bool
}

// New creates a new SQLiteStore with the given database path.
// It creates the parent directories and applies the physical schema.
func New(dbPath string) (*SQLiteStore, error) {
	// Create parent directory if it doesn't exist
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", dbPath)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: failed to ping database: %v", storage.ErrUnavailable, err)
	}

	if err := runMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the database connection. Later calls fail with storage.ErrUnavailable.
func (s *SQLiteStore) Close() error {
	s.closed.Store(true)
	return s.db.Close()
}

// Transact runs fn inside a write transaction.
// Commit hooks run after COMMIT while the write lock is still held, so hooks of
// successive transactions run in commit order.
func (s *SQLiteStore) Transact(ctx context.Context, fn func(tx storage.Tx) error) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if s.closed.Load() {
		return fmt.Errorf("%w: store is closed", storage.ErrUnavailable)
	}

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: failed to begin transaction: %v", storage.ErrUnavailable, err)
	}
	defer sqlTx.Rollback()

	t := &txn{tx: sqlTx}
	if err := fn(t); err != nil {
		return err
	}

	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("%w: failed to commit transaction: %v", storage.ErrUnavailable, err)
	}

	for _, hook := range t.hooks {
		hook()
	}
	return nil
}

// View runs fn inside a read transaction. The transaction is always rolled back.
func (s *SQLiteStore) View(ctx context.Context, fn func(tx storage.Tx) error) error {
	if s.closed.Load() {
		return fmt.Errorf("%w: store is closed", storage.ErrUnavailable)
	}

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: failed to begin transaction: %v", storage.ErrUnavailable, err)
	}
	defer sqlTx.Rollback()

	return fn(&txn{tx: sqlTx, readOnly: true})
}
