// Package db provides the pensieve learning ledger: a SQLite store whose
// full-text index is maintained transactionally with the concept table.
package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3" // SQLite driver with FTS5 support
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Store represents an open ledger handle. Handles are cheap: callers open
// one per unit of work and close it when done.
type Store struct {
	DB    *gorm.DB
	sqlDB *sql.DB // For FTS5 MATCH queries that GORM cannot express
}

// Config holds store configuration.
type Config struct {
	Path          string          // Path to the SQLite database file
	MaxConns      int             // Maximum open connections (default: 4)
	BusyTimeoutMS int             // Write-lock wait bound in ms (default: 5000)
	LogLevel      logger.LogLevel // GORM log level (logger.Silent for production)
}

// NewStore opens or creates the ledger at cfg.Path. Parent directories are
// created, migrations run idempotently, and WAL journaling is enabled so
// concurrent processes can read while one writes. Safe to call from multiple
// processes racing on the same file.
func NewStore(cfg Config) (*Store, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("store path is required")
	}
	if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o750); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}

	busyTimeout := cfg.BusyTimeoutMS
	if busyTimeout <= 0 {
		busyTimeout = 5000
	}

	// Foreign keys and the busy timeout go in the DSN so they apply to every
	// connection in the pool, including the one migrations run on. The busy
	// timeout bounds how long a writer waits for the lock before the call
	// fails with ErrBusy instead of hanging an editor hook. Transactions
	// begin in immediate mode: taking the write lock at BEGIN lets the busy
	// handler serialize concurrent upserts, where a deferred read-then-write
	// transaction would fail with an unretryable busy-snapshot error.
	dsn := fmt.Sprintf("%s?_foreign_keys=ON&_busy_timeout=%d&_txlock=immediate",
		cfg.Path, busyTimeout)

	sqlDB, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db, err := gorm.Open(sqlite.Dialector{
		Conn: sqlDB,
	}, &gorm.Config{
		Logger:      logger.Default.LogMode(cfg.LogLevel),
		PrepareStmt: true,
	})
	if err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("open gorm: %w", err)
	}

	maxConns := cfg.MaxConns
	if maxConns <= 0 {
		maxConns = 4
	}
	sqlDB.SetMaxOpenConns(maxConns)
	sqlDB.SetMaxIdleConns(maxConns)
	sqlDB.SetConnMaxLifetime(0)

	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := runMigrations(db); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	// WAL keeps readers unblocked while a writer holds the lock.
	if _, err := sqlDB.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}
	if _, err := sqlDB.Exec("PRAGMA synchronous=NORMAL"); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("set synchronous mode: %w", err)
	}

	return &Store{DB: db, sqlDB: sqlDB}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.sqlDB.Close()
}

// Ping verifies the database connection is alive.
func (s *Store) Ping() error {
	return s.sqlDB.Ping()
}

// GetRawDB returns the underlying *sql.DB for queries GORM can't handle,
// such as FTS5 MATCH.
func (s *Store) GetRawDB() *sql.DB {
	return s.sqlDB
}
