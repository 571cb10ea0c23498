// Package metrics holds the Prometheus collectors for the service.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Upstream provider call latency (milliseconds).
	ProviderCallLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "provider_call_latency_ms",
			Help:    "AI provider call latency in milliseconds",
			Buckets: prometheus.ExponentialBuckets(50, 2, 12), // 50ms to ~100s
		},
		[]string{"provider", "status"},
	)

	// HTTP request latency (seconds).
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
		},
		[]string{"method", "path", "status"},
	)

	// Bytes read by the streaming base64 encoder.
	StreamedBytes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "streamed_bytes_total",
			Help: "Total number of bytes encoded into data URLs",
		},
		[]string{"source"}, // source: image, url
	)

	// Generated image persistence outcomes.
	ImageUploadCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "image_upload_count",
			Help: "Total number of generated image uploads",
		},
		[]string{"status"}, // status: success, failed, skipped
	)

	// Record mutations by collection.
	RecordChangeCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "record_change_count",
			Help: "Total number of record changes",
		},
		[]string{"collection", "kind"},
	)

	// Connected event stream clients.
	SSEClients = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "sse_clients",
			Help: "Number of connected server-sent event clients",
		},
	)
)

// RecordProviderCall records one upstream call. status is the upstream HTTP
// code, or "error" when no response arrived.
func RecordProviderCall(provider, status string, duration time.Duration) {
	ProviderCallLatency.WithLabelValues(provider, status).Observe(float64(duration.Milliseconds()))
}

// RecordHTTPRequestDuration records one served request.
func RecordHTTPRequestDuration(method, path, status string, duration time.Duration) {
	HTTPRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}

// AddStreamedBytes counts bytes read by the data URL encoder.
func AddStreamedBytes(source string, n int64) {
	StreamedBytes.WithLabelValues(source).Add(float64(n))
}

// IncrementImageUpload counts an image persistence outcome.
func IncrementImageUpload(status string) {
	ImageUploadCount.WithLabelValues(status).Inc()
}

// IncrementRecordChange counts a record mutation.
func IncrementRecordChange(collection, kind string) {
	RecordChangeCount.WithLabelValues(collection, kind).Inc()
}

// SetSSEClients reports the number of connected event stream clients.
func SetSSEClients(n int) {
	SSEClients.Set(float64(n))
}

// Middleware records HTTP request durations labelled by chi route pattern.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		path := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				path = pattern
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		RecordHTTPRequestDuration(r.Method, path, strconv.Itoa(status), time.Since(start))
	})
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
