package prometheus

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Counter metrics
var (
	// Backend request counter by table, operation and status
	BackendRequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "orgdesk_backend_requests_total",
			Help: "Total number of backend query-interface requests",
		},
		[]string{"table", "operation", "status"},
	)

	// Backend request duration in seconds
	BackendRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "orgdesk_backend_request_duration_seconds",
			Help:    "Duration of backend requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"table", "operation"},
	)

	// Store initialization counter
	StoreInitCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "orgdesk_store_init_total",
			Help: "Total number of store initializations by outcome",
		},
		[]string{"store", "result"}, // result is "ready" or "failed"
	)

	// Signed URL issuance counter
	SignedURLCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "orgdesk_signed_url_total",
			Help: "Total number of signed URL requests by outcome",
		},
		[]string{"result"}, // result is "issued", "cached" or "error"
	)

	// HTTP request counter for the stub server
	HTTPRequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "orgdesk_http_requests_total",
			Help: "Total number of HTTP requests by endpoint and status",
		},
		[]string{"endpoint", "method", "status"},
	)

	// HTTP request duration for the stub server
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "orgdesk_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint", "method"},
	)
)

var initialized bool

// InitMetrics registers all metrics with the default registry.
func InitMetrics() {
	if initialized {
		return
	}
	prometheus.MustRegister(BackendRequestCounter)
	prometheus.MustRegister(BackendRequestDuration)
	prometheus.MustRegister(StoreInitCounter)
	prometheus.MustRegister(SignedURLCounter)
	prometheus.MustRegister(HTTPRequestCounter)
	prometheus.MustRegister(HTTPRequestDuration)
	initialized = true
}

// RecordBackendRequest increments the backend request counter.
func RecordBackendRequest(table, operation string, status int) {
	BackendRequestCounter.WithLabelValues(table, operation, strconv.Itoa(status)).Inc()
}

// TrackBackendRequest returns a function that records the request duration
// when invoked, for use with defer.
func TrackBackendRequest(table, operation string) func(time.Time) {
	return func(start time.Time) {
		BackendRequestDuration.WithLabelValues(table, operation).Observe(time.Since(start).Seconds())
	}
}

// RecordStoreInit increments the store initialization counter.
func RecordStoreInit(store, result string) {
	StoreInitCounter.WithLabelValues(store, result).Inc()
}

// RecordSignedURL increments the signed URL counter.
func RecordSignedURL(result string) {
	SignedURLCounter.WithLabelValues(result).Inc()
}

// MetricsMiddleware returns an Echo middleware that records HTTP metrics
// for the stub server.
func MetricsMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			err := next(c)

			status := c.Response().Status
			method := c.Request().Method
			path := c.Path()

			HTTPRequestCounter.WithLabelValues(path, method, strconv.Itoa(status)).Inc()
			HTTPRequestDuration.WithLabelValues(path, method).Observe(time.Since(start).Seconds())

			return err
		}
	}
}

// MetricsHandler exposes the Prometheus metrics endpoint.
func MetricsHandler(c echo.Context) error {
	promhttp.Handler().ServeHTTP(c.Response(), c.Request())
	return nil
}
