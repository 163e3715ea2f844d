package observability

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTP metrics
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cross_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cross_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// Engine metrics
	comparisonsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cross_comparisons_total",
			Help: "Total number of table comparisons by outcome",
		},
		[]string{"outcome"},
	)

	comparisonDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "cross_comparison_duration_seconds",
			Help:    "Table comparison duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	cellsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cross_cells_total",
			Help: "Total number of compared cells by status",
		},
		[]string{"status"},
	)

	initOnce sync.Once
)

// InitMetrics registers the collectors with the default registry. Safe to
// call more than once.
func InitMetrics() {
	initOnce.Do(func() {
		prometheus.MustRegister(
			httpRequestsTotal,
			httpRequestDuration,
			comparisonsTotal,
			comparisonDuration,
			cellsTotal,
		)
	})
}

// MetricsHandler returns an HTTP handler for Prometheus metrics
func MetricsHandler() http.Handler {
	return promhttp.Handler()
}

func RecordHTTPRequest(method, path, status string, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, path, status).Inc()
	httpRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordComparison counts one engine run. outcome is "ok", "canceled" or the
// error kind of a fatal failure.
func RecordComparison(outcome string, duration time.Duration) {
	comparisonsTotal.WithLabelValues(outcome).Inc()
	comparisonDuration.Observe(duration.Seconds())
}

func RecordCells(agree, disagree, invalid int) {
	cellsTotal.WithLabelValues("agree").Add(float64(agree))
	cellsTotal.WithLabelValues("disagree").Add(float64(disagree))
	cellsTotal.WithLabelValues("invalid").Add(float64(invalid))
}
