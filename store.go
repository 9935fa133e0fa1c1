package graylite

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Store is the public façade over one versioned SQLite file.
//
// The underlying connection pools are opened lazily: the first Query, Exec,
// ExecBatch, Version or HealthCheck call triggers the lifecycle run. All
// methods are safe for concurrent use from multiple goroutines.
type Store struct {
	cfg  Config
	id   string
	path string

	onCreate  CreateFunc
	onMigrate MigrateFunc
	trace     TraceFunc
	log       *slog.Logger
	metrics   *storeMetrics

	mu     sync.Mutex
	state  storeState
	flight *openFlight
	writer *sql.DB
	reader *sql.DB
}

// Stats reports connection pool statistics for both acquisition modes.
type Stats struct {
	Reader sql.DBStats
	Writer sql.DBStats
}

// New validates cfg, freezes it together with the supplied options and
// returns the store façade. The database file is not touched until the
// first operation.
//
// Parameters:
//   - cfg: Store identity and tunables (Dir, Name, Version required)
//   - opts: Optional callbacks, logging and metrics configuration
//
// Returns:
//   - *Store: The immutable access façade
//   - error: If cfg fails validation
func New(cfg Config, opts ...Option) (*Store, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg = cfg.withDefaults()

	s := &Store{
		cfg:       cfg,
		id:        "st-" + uuid.NewString()[:16],
		path:      filepath.Join(cfg.Dir, cfg.Name),
		onCreate:  func(*sql.Tx) error { return nil },
		onMigrate: func(*sql.Tx, int) error { return nil },
		log:       slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.With("store", s.id, "db", cfg.Name)

	return s, nil
}

// Exec executes a single write statement with bound arguments on the
// exclusive writable connection, opening the store first if needed.
// The statement and its arguments are traced before execution.
//
// Argument-count mismatches against '?' placeholders fail with ErrArgument
// before anything is executed.
func (s *Store) Exec(ctx context.Context, query string, args ...any) (err error) {
	start := time.Now()
	defer func() { s.metrics.observeExec(start, err) }()

	db, err := s.acquire(true)
	if err != nil {
		return err
	}
	if err = checkBindArgs(query, args); err != nil {
		return err
	}

	if len(args) == 0 {
		s.tracef("exec: %s", query)
	} else {
		s.tracef("exec: %s; args=%v", query, args)
	}

	_, err = db.ExecContext(ctx, query, args...)
	err = classify(err)
	return err
}

// ExecBatch executes the given statements strictly in order on the exclusive
// writable connection. No multi-statement transaction is opened: if statement
// k fails, statements 1..k-1 remain in effect, k and the rest are not
// attempted and the error propagates.
func (s *Store) ExecBatch(ctx context.Context, stmts ...string) (err error) {
	start := time.Now()
	defer func() { s.metrics.observeExec(start, err) }()

	db, err := s.acquire(true)
	if err != nil {
		return err
	}

	for _, stmt := range stmts {
		s.tracef("exec: %s", stmt)
		if _, execErr := db.ExecContext(ctx, stmt); execErr != nil {
			err = classify(execErr)
			return err
		}
	}
	return nil
}

// Version reports the schema version persisted on disk, opening the store
// (and so running the lifecycle) first if needed.
func (s *Store) Version(ctx context.Context) (int, error) {
	db, err := s.acquire(false)
	if err != nil {
		return 0, err
	}

	var version int
	if err := db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version); err != nil {
		return 0, fmt.Errorf("reading schema version: %w", err)
	}
	return version, nil
}

// HealthCheck verifies the store is accessible and functioning.
// It performs a simple query over the shared-read pool.
func (s *Store) HealthCheck(ctx context.Context) error {
	db, err := s.acquire(false)
	if err != nil {
		return err
	}

	var result int
	if err := db.QueryRowContext(ctx, "SELECT 1").Scan(&result); err != nil {
		return fmt.Errorf("store health check failed: %w", err)
	}
	return nil
}

// Stats returns connection pool statistics for monitoring. Zero values are
// returned while the store has not been opened yet.
func (s *Store) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	var st Stats
	if s.reader != nil {
		st.Reader = s.reader.Stats()
	}
	if s.writer != nil {
		st.Writer = s.writer.Stats()
	}
	return st
}

// tracef hands a formatted trace line to the user-supplied sink, if any.
func (s *Store) tracef(format string, args ...any) {
	if s.trace == nil {
		return
	}
	s.trace(fmt.Sprintf(format, args...))
}
