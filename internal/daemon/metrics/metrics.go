// Package metrics provides Prometheus metrics for the projsync daemon.
package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTP request metrics
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "projsync_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "projsync_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// Scan metrics
	scansTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "projsync_scans_total",
			Help: "Total inventory scans",
		},
		[]string{"kind", "result"},
	)

	scanDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "projsync_scan_duration_seconds",
			Help:    "Inventory scan duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"kind"},
	)

	// Inventory metrics
	inventoryProjects = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "projsync_inventory_projects",
			Help: "Number of projects with local files",
		},
	)

	inventoryFiles = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "projsync_inventory_files",
			Help: "Number of files in the local inventory",
		},
	)

	// SSE metrics
	sseConnectionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "projsync_sse_connections_active",
			Help: "Number of active SSE connections",
		},
	)

	sseEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "projsync_sse_events_total",
			Help: "Total SSE events published",
		},
		[]string{"type"},
	)
)

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordHTTPRequest records one served request.
func RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	httpRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordScan records a full ("full") or per-project ("project") scan.
func RecordScan(kind string, duration time.Duration, err error) {
	result := "success"
	if err != nil {
		result = "error"
	}
	scansTotal.WithLabelValues(kind, result).Inc()
	scanDuration.WithLabelValues(kind).Observe(duration.Seconds())
}

// SetInventorySize records the current inventory dimensions.
func SetInventorySize(projects, files int) {
	inventoryProjects.Set(float64(projects))
	inventoryFiles.Set(float64(files))
}

// SSEConnected adjusts the active SSE connection gauge.
func SSEConnected(delta int) {
	sseConnectionsActive.Add(float64(delta))
}

// RecordSSEEvent counts one published SSE event.
func RecordSSEEvent(eventType string) {
	sseEventsTotal.WithLabelValues(eventType).Inc()
}

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Flush keeps SSE streaming working through the wrapper.
func (rw *responseWriter) Flush() {
	if f, ok := rw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (rw *responseWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}

// routeLabel collapses per-project paths so label cardinality stays bounded.
func routeLabel(path string) string {
	if strings.HasPrefix(path, "/api/files/") {
		return "/api/files/{id}"
	}
	return path
}

// Middleware records request count and latency.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rw, r)
		RecordHTTPRequest(r.Method, routeLabel(r.URL.Path), rw.statusCode, time.Since(start))
	})
}
