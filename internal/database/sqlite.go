package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	"ms-wallet/internal/config"
	"ms-wallet/internal/database/migrations"
	"ms-wallet/internal/logger"
)

// Store owns the single writer connection to the SQLite ledger file and the
// process-wide mutex that serializes every balance-affecting operation.
type Store struct {
	Bun    *bun.DB
	logger *logger.Logger
	path   string

	mu     sync.Mutex
	closed bool
}

// Open opens the store, enables foreign keys and brings the schema forward
// before returning. Connection establishment is bounded by the configured
// timeout; a timed-out open returns ConnectTimeoutError and no handle. A
// failed migration run closes the raw connection and returns SchemaInitError.
func Open(ctx context.Context, cfg config.DatabaseConfig, log *logger.Logger) (*Store, error) {
	// Ensure parent directory exists
	dir := filepath.Dir(cfg.Path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	sqldb, err := sql.Open(sqliteshim.ShimName, cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("opening store %s: %w", cfg.Path, err)
	}

	if err := ping(ctx, sqldb, cfg); err != nil {
		sqldb.Close()
		return nil, err
	}

	bunDB := bun.NewDB(sqldb, sqlitedialect.New())

	if _, err := bunDB.ExecContext(ctx, "PRAGMA foreign_keys=ON"); err != nil {
		bunDB.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	runner := migrations.NewRunner(bunDB, log)
	if err := runner.Run(ctx); err != nil {
		bunDB.Close()
		return nil, &SchemaInitError{Err: err}
	}

	log.LogDatabase("OPEN", "sqlite", fmt.Sprintf("store ready at %s", cfg.Path))

	return &Store{
		Bun:    bunDB,
		logger: log,
		path:   cfg.Path,
	}, nil
}

// ping verifies the store is reachable within the configured budget. On a
// low-level failure that is not a timeout, one retry is attempted before the
// error surfaces.
func ping(ctx context.Context, sqldb *sql.DB, cfg config.DatabaseConfig) error {
	attempt := func() error {
		pingCtx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
		defer cancel()
		return sqldb.PingContext(pingCtx)
	}

	err := attempt()
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &ConnectTimeoutError{Path: cfg.Path, Timeout: cfg.ConnectTimeout}
	}

	// One retry for transient open failures
	err = attempt()
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &ConnectTimeoutError{Path: cfg.Path, Timeout: cfg.ConnectTimeout}
	}
	return fmt.Errorf("pinging store %s: %w", cfg.Path, err)
}

// RunInWriteTx serializes the callback behind the store-wide write mutex and
// runs it in one transaction. A returned error rolls the transaction back;
// callbacks must not commit or roll back themselves.
func (s *Store) RunInWriteTx(ctx context.Context, fn func(ctx context.Context, tx bun.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Bun.RunInTx(ctx, &sql.TxOptions{}, fn)
}

// Path returns the store file location.
func (s *Store) Path() string {
	return s.path
}

// Close closes the store connection. Safe to call more than once.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	s.logger.LogDatabase("CLOSE", "sqlite", "closing store")
	return s.Bun.Close()
}
