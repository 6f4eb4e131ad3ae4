// Package ledger persists workflow results and delegation records in
// SQLite. With no data directory configured the store runs fully in memory,
// which matches the single-process bookkeeping role it plays.
package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	_ "embed"

	_ "modernc.org/sqlite"

	"serfdom/internal/config"
)

//go:embed schema.sql
var schemaSQL string

// ErrNotFound is returned when a lookup matches nothing.
var ErrNotFound = errors.New("ledger: not found")

// memorySeq distinguishes concurrently open in-memory stores. The
// shared-cache DSN keeps one database across pool connections, where a bare
// ":memory:" would give every pooled connection its own database.
var memorySeq atomic.Int64

func memoryDSN() string {
	return fmt.Sprintf("file:serfdom-ledger-%d?mode=memory&cache=shared", memorySeq.Add(1))
}

// Store persists results and delegations backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

const (
	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond
)

// Open initializes the ledger database. When cfg.Paths.DataDir is empty the
// store is in-memory and vanishes on Close.
func Open(cfg *config.Config) (*Store, error) {
	dsn := memoryDSN()
	path := ""
	if cfg != nil && cfg.Paths.DataDir != "" {
		if err := cfg.EnsureDirectories(); err != nil {
			return nil, fmt.Errorf("ensure directories: %w", err)
		}
		path = filepath.Join(cfg.Paths.DataDir, "ledger.db")
		dsn = path
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if path == "" {
		// Shared-cache memory DBs still need a single connection or the
		// schema can disappear under the pool.
		db.SetMaxOpenConns(1)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: path}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Path returns the database file path, empty for in-memory stores.
func (s *Store) Path() string {
	return s.path
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) initSchema(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema: %w", err)
	}
	return nil
}

func ensureContext(ctx context.Context) context.Context {
	if ctx != nil {
		return ctx
	}
	return context.Background()
}

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code() == sqliteBusyCode {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

func retryOnBusy(ctx context.Context, op func() error) error {
	delay := busyRetryInitialBackoff
	var lastErr error
	for attempt := 0; attempt < busyRetryAttempts; attempt++ {
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if !isSQLiteBusy(lastErr) || attempt == busyRetryAttempts-1 {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		if next := delay * 2; next <= busyRetryMaxBackoff {
			delay = next
		}
	}
	return lastErr
}

func (s *Store) execWithRetry(ctx context.Context, query string, args ...any) error {
	ctx = ensureContext(ctx)
	return retryOnBusy(ctx, func() error {
		_, err := s.db.ExecContext(ctx, query, args...)
		return err
	})
}
