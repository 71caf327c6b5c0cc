package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTP Metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "route"},
	)

	ActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_active_requests",
			Help: "Current number of active HTTP requests",
		},
	)

	// Store Metrics
	StoreOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "store_operation_duration_seconds",
			Help:    "Duration of todo store operations",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"driver", "operation"},
	)

	// Todo Metrics
	TodoOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "todo_operations_total",
			Help: "Total number of committed todo mutations",
		},
		[]string{"operation"}, // create, update, status, delete, bulk_create, bulk_update
	)

	// Error Metrics
	ErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "errors_total",
			Help: "Total number of errors by kind",
		},
		[]string{"kind"}, // validation, not_found, internal
	)
)

// Middleware records request count, duration and in-flight gauge.
// Routes are labelled by their pattern so ids don't explode cardinality.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		ActiveRequests.Inc()
		defer ActiveRequests.Dec()

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		method := c.Request.Method
		HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(c.Writer.Status())).Inc()
		HTTPRequestDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
	}
}

// Handler exposes the default registry.
func Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.Handler())
}

// TrackStoreOperation starts a timer; call ObserveDuration when the operation ends.
func TrackStoreOperation(driver, operation string) *prometheus.Timer {
	return prometheus.NewTimer(StoreOperationDuration.WithLabelValues(driver, operation))
}

// TrackTodoOperation counts a committed mutation; n is the number of records affected.
func TrackTodoOperation(operation string, n int) {
	TodoOperationsTotal.WithLabelValues(operation).Add(float64(n))
}

// TrackError increments the error counter by kind.
func TrackError(kind string) {
	ErrorsTotal.WithLabelValues(kind).Inc()
}
