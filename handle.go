package graylite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// Connection handling constants.
const (
	// dirPermissions is the permission mode for the database directory.
	dirPermissions = 0750

	// filePermissions is the permission mode for the database file.
	filePermissions = 0600

	// msPerSecond converts seconds to milliseconds.
	msPerSecond = 1000

	// connectionTimeout is the timeout for verifying database connectivity.
	connectionTimeout = 5 * time.Second

	// connMaxIdleTime is how long idle connections are kept open.
	connMaxIdleTime = 30 * time.Minute
)

// dsn builds the driver connection string for the store's file.
// writable selects the exclusive-writer pragmas; the read pool is opened
// with query_only so stray writes through it fail loudly.
func (s *Store) dsn(writable bool) string {
	connStr := fmt.Sprintf("file:%s?_busy_timeout=%d&_foreign_keys=on",
		s.path,
		s.cfg.BusyTimeout*msPerSecond,
	)

	if s.cfg.WALMode {
		connStr += "&_journal_mode=WAL&_synchronous=NORMAL"
	}

	if writable {
		// IMMEDIATE transactions take the write lock up front, so two
		// writers never deadlock mid-transaction.
		connStr += "&_txlock=immediate"
	} else {
		connStr += "&_query_only=true"
	}

	return connStr
}

// openWriter opens the exclusive writable pool: a single connection, matching
// SQLite's single-writer model. The engine's own locking is the only
// serialisation layer; adding a mutex here could deadlock against it.
func (s *Store) openWriter() (*sql.DB, error) {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, dirPermissions); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", s.dsn(true))
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)
	db.SetConnMaxIdleTime(connMaxIdleTime)

	if err := pingWithTimeout(db); err != nil {
		db.Close() //nolint:errcheck // Best effort cleanup on error path
		return nil, fmt.Errorf("verifying database connection: %w", err)
	}

	return db, nil
}

// openReader opens the shared readable pool. Multiple concurrent holders are
// permitted; with WAL mode enabled they proceed during writes.
func (s *Store) openReader() (*sql.DB, error) {
	db, err := sql.Open("sqlite3", s.dsn(false))
	if err != nil {
		return nil, fmt.Errorf("opening read pool: %w", err)
	}

	db.SetMaxOpenConns(s.cfg.MaxReaders)
	db.SetMaxIdleConns(s.cfg.MaxReaders)
	db.SetConnMaxLifetime(time.Hour)
	db.SetConnMaxIdleTime(connMaxIdleTime)

	if err := pingWithTimeout(db); err != nil {
		db.Close() //nolint:errcheck // Best effort cleanup on error path
		return nil, fmt.Errorf("verifying read pool: %w", err)
	}

	return db, nil
}

// pingWithTimeout verifies connectivity without tying the check to a caller
// context; lifecycle work is never abandoned mid-flight.
func pingWithTimeout(db *sql.DB) error {
	ctx, cancel := context.WithTimeout(context.Background(), connectionTimeout)
	defer cancel()
	return db.PingContext(ctx)
}

// restrictFilePermissions narrows the database file to owner read/write.
// Best effort: WAL side files inherit from the main file on creation.
func (s *Store) restrictFilePermissions() {
	_ = os.Chmod(s.path, filePermissions) //nolint:errcheck // File owned by us either way
}
