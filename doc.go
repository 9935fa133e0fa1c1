// Package graylite provides a concurrency-safe access layer over a single
// versioned SQLite database file.
//
// This package manages:
//   - Lazy, exactly-once schema creation and incremental migrations
//   - Serialised writer access alongside concurrent readers (WAL mode)
//   - A minimal query/execute surface with structured logging hooks
//   - Schema version bookkeeping via PRAGMA user_version
//
// The store is opened on first access. Whichever caller arrives first runs
// the creation or migration callbacks inside a single IMMEDIATE transaction;
// every other caller blocks until that run completes and then observes the
// fully-initialised schema. A failed run rolls back completely and the
// error is delivered to every blocked caller.
//
// Security Considerations:
//   - All statements use parameterised placeholders (no SQL injection)
//   - The database directory is created 0750, the file chmod'd to 0600
//   - Migration callbacks receive a transaction scoped to the lifecycle run
//
// Performance Characteristics:
//   - WAL mode allows concurrent reads during writes
//   - The writer pool holds exactly one connection (SQLite single-writer)
//   - Busy timeout prevents "database is locked" errors under contention
//
// Usage:
//
//	store, err := graylite.New(graylite.Config{
//	    Dir:     "/var/lib/app",
//	    Name:    "app.db",
//	    Version: 2,
//	},
//	    graylite.WithOnCreate(createSchema),
//	    graylite.WithOnMigrate(migrateSchema),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer store.Close()
//
//	users, err := graylite.Query(ctx, store,
//	    "SELECT id, name FROM user WHERE id = ?", []any{4},
//	    func(rows *sql.Rows) (User, error) {
//	        var u User
//	        err := rows.Scan(&u.ID, &u.Name)
//	        return u, err
//	    })
package graylite
