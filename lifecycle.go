package graylite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// storeState tracks the open state machine.
//
// Transitions: unopened -> opening -> open -> closed, with opening -> unopened
// on a failed lifecycle run (a later call may retry) and unopened -> closed
// when Close is called before first use.
type storeState int

const (
	stateUnopened storeState = iota
	stateOpening
	stateOpen
	stateClosed
)

// openFlight is one in-progress lifecycle run. Callers that arrive while a
// run is underway block on done and read err afterwards, so a failed run is
// reported to every waiter, not only the goroutine that performed it.
type openFlight struct {
	done chan struct{}
	err  error
}

// acquire returns the connection pool for the requested mode, opening the
// store first if needed. Exactly one goroutine performs the lifecycle run;
// all others block until it finishes.
func (s *Store) acquire(writable bool) (*sql.DB, error) {
	s.mu.Lock()
	for {
		switch s.state {
		case stateOpen:
			db := s.reader
			if writable {
				db = s.writer
			}
			s.mu.Unlock()
			return db, nil

		case stateClosed:
			s.mu.Unlock()
			return nil, ErrClosed

		case stateOpening:
			fl := s.flight
			s.mu.Unlock()
			<-fl.done
			if fl.err != nil {
				return nil, fl.err
			}
			s.mu.Lock()

		case stateUnopened:
			fl := &openFlight{done: make(chan struct{})}
			s.flight = fl
			s.state = stateOpening
			s.mu.Unlock()

			err := s.open()

			s.mu.Lock()
			s.flight = nil
			if err != nil {
				s.state = stateUnopened
				fl.err = err
				close(fl.done)
				s.mu.Unlock()
				return nil, err
			}
			s.state = stateOpen
			close(fl.done)
		}
	}
}

// open performs the one-time lifecycle run: open the writer pool, create or
// migrate the schema inside a single IMMEDIATE transaction, then open the
// read pool. Only the goroutine that won the open flight calls this, so the
// pool fields are written without holding the mutex.
func (s *Store) open() (err error) {
	start := time.Now()
	defer func() {
		s.metrics.observeOpen(start, err)
	}()

	writer, err := s.openWriter()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrLifecycle, err)
	}

	version, err := s.runLifecycle(writer)
	if err != nil {
		writer.Close() //nolint:errcheck // Best effort cleanup on error path
		return fmt.Errorf("%w: %w", ErrLifecycle, err)
	}

	s.restrictFilePermissions()

	reader, err := s.openReader()
	if err != nil {
		writer.Close() //nolint:errcheck // Best effort cleanup on error path
		return fmt.Errorf("%w: %w", ErrLifecycle, err)
	}

	s.writer = writer
	s.reader = reader
	s.log.Info("store opened",
		"path", s.path,
		"version", s.cfg.Version,
		"previous_version", version,
	)
	return nil
}

// runLifecycle compares the persisted schema version with the requested one
// and runs the creation or migration callbacks as needed. The whole run,
// version bump included, happens in one transaction: a failing callback
// rolls everything back and the store is left exactly as it was found.
//
// Returns the version found on disk before the run.
func (s *Store) runLifecycle(writer *sql.DB) (int, error) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tx, err := writer.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("starting lifecycle transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // Rollback is no-op after commit

	var previous int
	if err := tx.QueryRowContext(ctx, "PRAGMA user_version").Scan(&previous); err != nil {
		return 0, fmt.Errorf("reading schema version: %w", err)
	}

	requested := s.cfg.Version
	switch {
	case previous == requested:
		return previous, nil

	case previous > requested:
		return previous, fmt.Errorf("downgrade from version %d to %d is not supported",
			previous, requested)

	case previous == 0:
		s.tracef("create schema version=%d", requested)
		s.log.Info("creating schema", "version", requested)
		if err := s.onCreate(tx); err != nil {
			return previous, fmt.Errorf("create callback: %w", err)
		}

	default:
		for v := previous + 1; v <= requested; v++ {
			s.tracef("migrate schema to version=%d", v)
			s.log.Info("migrating schema", "from", v-1, "to", v)
			if err := s.onMigrate(tx, v); err != nil {
				return previous, fmt.Errorf("migration to version %d: %w", v, err)
			}
			s.metrics.migrationStep()
		}
	}

	// PRAGMA does not support placeholders; requested is a validated int.
	stmt := fmt.Sprintf("PRAGMA user_version = %d", requested)
	if _, err := tx.ExecContext(ctx, stmt); err != nil {
		return previous, fmt.Errorf("recording schema version: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return previous, fmt.Errorf("committing lifecycle run: %w", err)
	}
	return previous, nil
}

// Close releases the connection pools held by the store. Calling any
// operation afterwards, Close included, returns ErrClosed: a closed store is
// never reopened.
//
// Close during an in-progress lifecycle run waits for the run to finish
// before releasing anything; a run is never abandoned mid-statement.
func (s *Store) Close() error {
	s.mu.Lock()
	for s.state == stateOpening {
		fl := s.flight
		s.mu.Unlock()
		<-fl.done
		s.mu.Lock()
	}

	if s.state == stateClosed {
		s.mu.Unlock()
		return ErrClosed
	}

	writer, reader := s.writer, s.reader
	s.writer, s.reader = nil, nil
	s.state = stateClosed
	s.mu.Unlock()

	var errs []error
	if reader != nil {
		if err := reader.Close(); err != nil {
			errs = append(errs, fmt.Errorf("closing read pool: %w", err))
		}
	}
	if writer != nil {
		if err := writer.Close(); err != nil {
			errs = append(errs, fmt.Errorf("closing database: %w", err))
		}
	}

	s.log.Info("store closed", "path", s.path)
	return errors.Join(errs...)
}
