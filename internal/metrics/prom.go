// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	FilesParsed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fileconverter_files_parsed_total",
			Help: "Total number of uploaded files parsed by format and result",
		},
		[]string{"format", "result"},
	)

	Conversions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fileconverter_conversions_total",
			Help: "Total number of pipeline runs by output format and result",
		},
		[]string{"format", "result"},
	)

	ConversionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "fileconverter_conversion_duration_seconds",
			Help:    "Duration of parse plus pipeline run",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"format"},
	)

	ArtifactBytes = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "fileconverter_artifact_bytes",
			Help:    "Size of produced artifacts",
			Buckets: prometheus.ExponentialBuckets(1024, 4, 10),
		},
		[]string{"format"},
	)

	RowsProcessed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "fileconverter_rows_processed_total",
			Help: "Total number of input rows run through the pipeline",
		},
	)

	StoredFiles = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "fileconverter_stored_files",
			Help: "Number of uploaded files currently held in memory",
		},
	)

	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fileconverter_http_requests_total",
			Help: "Total number of HTTP requests by method, route and status",
		},
		[]string{"method", "route", "status"},
	)

	HTTPDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "fileconverter_http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
)

// Result label values.
const (
	ResultOK    = "ok"
	ResultError = "error"
)

// Outcome maps an error to a result label.
func Outcome(err error) string {
	if err != nil {
		return ResultError
	}
	return ResultOK
}

// ObserveHTTP records one finished request. route should be the route
// pattern, not the raw path, to keep label cardinality bounded.
func ObserveHTTP(method, route string, status int, elapsed time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	HTTPDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
