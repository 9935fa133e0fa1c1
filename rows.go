package graylite

import (
	"context"
	"database/sql"
	"time"
)

// RowMapper converts the current result row into a value. It is called once
// per row with the cursor already positioned; implementations should only
// call Scan and must not advance or retain the rows handle.
type RowMapper[T any] func(rows *sql.Rows) (T, error)

// Query runs a read statement on the shared-read pool, opening the store
// first if needed, and eagerly maps every result row in engine-returned
// order, first row to last inclusive.
//
// The statement and its arguments are traced before execution.
// Argument-count mismatches against '?' placeholders fail with ErrArgument
// before anything is executed. The returned slice is finite and detached
// from the database; it is nil when the result set is empty.
func Query[T any](ctx context.Context, s *Store, query string, args []any, mapper RowMapper[T]) (out []T, err error) {
	start := time.Now()
	defer func() { s.metrics.observeQuery(start, err) }()

	db, err := s.acquire(false)
	if err != nil {
		return nil, err
	}
	if err = checkBindArgs(query, args); err != nil {
		return nil, err
	}

	if len(args) == 0 {
		s.tracef("query: %s", query)
	} else {
		s.tracef("query: %s; args=%v", query, args)
	}

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		err = classify(err)
		return nil, err
	}
	defer rows.Close() //nolint:errcheck // Read-only cursor cleanup

	for rows.Next() {
		v, mapErr := mapper(rows)
		if mapErr != nil {
			err = mapErr
			return nil, err
		}
		out = append(out, v)
	}
	if err = classify(rows.Err()); err != nil {
		return nil, err
	}
	return out, nil
}
