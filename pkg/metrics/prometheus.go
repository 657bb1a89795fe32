package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP request metrics
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status_code", "authority"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint", "status_code"},
	)

	// Registry metrics
	registryOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "queue_registry_operations_total",
			Help: "Total number of queue registry operations",
		},
		[]string{"operation", "result"},
	)

	registryOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "queue_registry_operation_duration_seconds",
			Help:    "Queue registry operation duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	// Database metrics
	dbQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "db_query_duration_seconds",
			Help:    "Database query duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation", "table"},
	)

	// Redis metrics
	redisOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "redis_operations_total",
			Help: "Total number of Redis operations",
		},
		[]string{"operation", "status"},
	)

	// Event relay metrics
	eventBacklog = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "queue_event_backlog",
			Help: "Number of lifecycle events waiting to be published",
		},
	)

	eventsPublishedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "queue_events_published_total",
			Help: "Total number of lifecycle events handed to the broker",
		},
		[]string{"broker", "event_type", "status"},
	)

	// Rate limiting
	rateLimitedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rate_limited_requests_total",
			Help: "Total number of requests rejected by the rate limiter",
		},
		[]string{"endpoint"},
	)

	// Authentication metrics
	authAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_attempts_total",
			Help: "Total number of authentication attempts",
		},
		[]string{"method", "status"},
	)

	systemErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "system_errors_total",
			Help: "Total number of system errors",
		},
		[]string{"error_type", "component"},
	)
)

// HTTP Metrics
func RecordHTTPRequest(method, endpoint, statusCode, authority string, duration float64) {
	httpRequestsTotal.WithLabelValues(method, endpoint, statusCode, authority).Inc()
	httpRequestDuration.WithLabelValues(method, endpoint, statusCode).Observe(duration)
}

// Registry Metrics
func RecordRegistryOperation(operation, result string, duration float64) {
	registryOperationsTotal.WithLabelValues(operation, result).Inc()
	registryOperationDuration.WithLabelValues(operation).Observe(duration)
}

// Database Metrics
func RecordDBQuery(operation, table string, duration float64) {
	dbQueryDuration.WithLabelValues(operation, table).Observe(duration)
}

// Redis Metrics
func RecordRedisOperation(operation, status string) {
	redisOperationsTotal.WithLabelValues(operation, status).Inc()
}

// Event Metrics
func SetEventBacklog(size float64) {
	eventBacklog.Set(size)
}

func RecordEventPublish(broker, eventType, status string) {
	eventsPublishedTotal.WithLabelValues(broker, eventType, status).Inc()
}

func RecordRateLimited(endpoint string) {
	rateLimitedTotal.WithLabelValues(endpoint).Inc()
}

// Authentication Metrics
func RecordAuthAttempt(method, status string) {
	authAttemptsTotal.WithLabelValues(method, status).Inc()
}

func RecordSystemError(errorType, component string) {
	systemErrorsTotal.WithLabelValues(errorType, component).Inc()
}
