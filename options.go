package graylite

import (
	"database/sql"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
)

// CreateFunc builds the initial schema for a brand-new store. It runs inside
// the lifecycle transaction; the transaction is rolled back if it returns an
// error. The *sql.Tx must not be retained beyond the call.
type CreateFunc func(tx *sql.Tx) error

// MigrateFunc applies the schema changes for one version step. It is invoked
// once per version from old+1 up to the requested version, in ascending
// order, inside the lifecycle transaction. The *sql.Tx must not be retained
// beyond the call.
type MigrateFunc func(tx *sql.Tx, version int) error

// TraceFunc receives a human-readable trace line before each statement is
// executed and for lifecycle events. It must be safe for concurrent use.
type TraceFunc func(msg string)

// Option configures a Store at construction time.
type Option func(*Store)

// WithOnCreate sets the callback invoked exactly once when the backing file
// does not yet exist. The default creates an empty schema.
func WithOnCreate(fn CreateFunc) Option {
	return func(s *Store) {
		if fn != nil {
			s.onCreate = fn
		}
	}
}

// WithOnMigrate sets the callback invoked once per version increment when an
// existing file is older than the requested version. The default is a no-op,
// which still records the new version.
func WithOnMigrate(fn MigrateFunc) Option {
	return func(s *Store) {
		if fn != nil {
			s.onMigrate = fn
		}
	}
}

// WithTrace sets the trace sink receiving the exact SQL text and bound
// arguments before each execution. Absent by default.
func WithTrace(fn TraceFunc) Option {
	return func(s *Store) {
		if fn != nil {
			s.trace = fn
		}
	}
}

// WithLogger sets the structured logger for lifecycle events (open, create,
// migrate, close). The default logger discards everything.
func WithLogger(log *slog.Logger) Option {
	return func(s *Store) {
		if log != nil {
			s.log = log
		}
	}
}

// WithMetrics registers operation metrics (query/exec counters and duration
// histograms, migrations applied) with the given registerer. Metrics are
// disabled by default.
func WithMetrics(reg prometheus.Registerer) Option {
	return func(s *Store) {
		if reg != nil {
			s.metrics = newMetrics(reg)
		}
	}
}
