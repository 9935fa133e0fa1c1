package graylite

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// storeMetrics instruments query/execute traffic and lifecycle runs.
// A nil *storeMetrics disables all recording.
type storeMetrics struct {
	queriesTotal      prometheus.Counter
	execsTotal        prometheus.Counter
	errorsTotal       *prometheus.CounterVec
	queryDuration     prometheus.Histogram
	execDuration      prometheus.Histogram
	migrationsApplied prometheus.Counter
	openDuration      prometheus.Histogram
}

// newMetrics creates and registers the store's metric instruments.
func newMetrics(reg prometheus.Registerer) *storeMetrics {
	factory := promauto.With(reg)
	return &storeMetrics{
		queriesTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "graylite",
			Name:      "queries_total",
			Help:      "Total number of read queries executed.",
		}),
		execsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "graylite",
			Name:      "execs_total",
			Help:      "Total number of write statements executed.",
		}),
		errorsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "graylite",
			Name:      "errors_total",
			Help:      "Total number of failed operations by kind.",
		}, []string{"kind"}),
		queryDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "graylite",
			Name:      "query_duration_seconds",
			Help:      "Read query latency.",
			Buckets:   prometheus.DefBuckets,
		}),
		execDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "graylite",
			Name:      "exec_duration_seconds",
			Help:      "Write statement latency.",
			Buckets:   prometheus.DefBuckets,
		}),
		migrationsApplied: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "graylite",
			Name:      "migrations_applied_total",
			Help:      "Total number of migration steps applied.",
		}),
		openDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "graylite",
			Name:      "open_duration_seconds",
			Help:      "Time spent opening the store, lifecycle run included.",
			Buckets:   prometheus.DefBuckets,
		}),
	}
}

func (m *storeMetrics) observeQuery(start time.Time, err error) {
	if m == nil {
		return
	}
	m.queriesTotal.Inc()
	m.queryDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		m.errorsTotal.WithLabelValues("query").Inc()
	}
}

func (m *storeMetrics) observeExec(start time.Time, err error) {
	if m == nil {
		return
	}
	m.execsTotal.Inc()
	m.execDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		m.errorsTotal.WithLabelValues("exec").Inc()
	}
}

func (m *storeMetrics) observeOpen(start time.Time, err error) {
	if m == nil {
		return
	}
	m.openDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		m.errorsTotal.WithLabelValues("lifecycle").Inc()
	}
}

func (m *storeMetrics) migrationStep() {
	if m == nil {
		return
	}
	m.migrationsApplied.Inc()
}
