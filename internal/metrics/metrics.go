// Package metrics provides Prometheus metrics for imports and aggregates.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "agentstats"

var (
	// ImportsTotal counts finished imports by source kind and status.
	ImportsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "import",
			Name:      "jobs_total",
			Help:      "Total number of finished imports by source and status",
		},
		[]string{"source", "status"},
	)

	// ImportDuration tracks wall time of an import from parse to commit.
	ImportDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "import",
			Name:      "duration_seconds",
			Help:      "Duration of imports in seconds",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"source"},
	)

	// ImportRows counts data rows read, split by whether they were used.
	ImportRows = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "import",
			Name:      "rows_total",
			Help:      "Data rows read from imports by source and result",
		},
		[]string{"source", "result"},
	)

	// AgentsUpdated counts stat records written by imports.
	AgentsUpdated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "import",
			Name:      "agents_updated_total",
			Help:      "Agent stat records written by imports",
		},
		[]string{"source"},
	)

	// ImportsInFlight tracks imports currently holding a limiter slot.
	ImportsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "import",
			Name:      "in_flight",
			Help:      "Number of imports currently running",
		},
	)

	// AggregateDuration tracks snapshot read plus computation time.
	AggregateDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "aggregate",
			Name:      "duration_seconds",
			Help:      "Duration of aggregate computations in seconds",
			Buckets:   prometheus.DefBuckets,
		},
	)
)

// ObserveImport records one finished import.
func ObserveImport(source string, success bool, d time.Duration) {
	if source == "" {
		source = "unknown"
	}
	status := "failed"
	if success {
		status = "success"
	}
	ImportsTotal.WithLabelValues(source, status).Inc()
	ImportDuration.WithLabelValues(source).Observe(d.Seconds())
}

// ObserveRows records how many rows of an import were used and skipped.
func ObserveRows(source string, read, skipped int) {
	ImportRows.WithLabelValues(source, "used").Add(float64(read - skipped))
	ImportRows.WithLabelValues(source, "skipped").Add(float64(skipped))
}

// Handler serves the default registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.Handler()
}
