package graylite

import (
	"context"
	"database/sql"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

// TestMetrics verifies operation counters advance when a registerer is
// supplied.
func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	store := newTestStore(t, WithMetrics(reg))
	ctx := context.Background()

	if err := store.Exec(ctx,
		"INSERT INTO user (id, name, gender) VALUES (?, ?, ?)",
		1, "a", "x",
	); err != nil {
		t.Fatalf("Exec() error = %v", err)
	}
	if _, err := Query(ctx, store, "SELECT id FROM user", nil,
		func(rows *sql.Rows) (int, error) {
			var id int
			err := rows.Scan(&id)
			return id, err
		}); err != nil {
		t.Fatalf("Query() error = %v", err)
	}

	if got := testutil.ToFloat64(store.metrics.execsTotal); got != 1 {
		t.Errorf("execs_total = %v, want 1", got)
	}
	if got := testutil.ToFloat64(store.metrics.queriesTotal); got != 1 {
		t.Errorf("queries_total = %v, want 1", got)
	}
}

// TestMetricsDisabled verifies a store without a registerer records nothing
// and never panics.
func TestMetricsDisabled(t *testing.T) {
	store := newTestStore(t)
	if store.metrics != nil {
		t.Fatal("metrics should be nil without WithMetrics")
	}
	if err := store.HealthCheck(context.Background()); err != nil {
		t.Fatalf("HealthCheck() error = %v", err)
	}
}
