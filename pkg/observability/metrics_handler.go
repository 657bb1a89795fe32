package observability

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ReadinessCheck reports whether a dependency is usable
type ReadinessCheck func(ctx context.Context) error

// MetricsHandler provides Prometheus metrics and health endpoints
type MetricsHandler struct {
	service  string
	gatherer prometheus.Gatherer
	checks   map[string]ReadinessCheck
	timeout  time.Duration
}

// NewMetricsHandler creates a new metrics handler. Metrics are served from the
// default registry, where the application collectors are registered.
func NewMetricsHandler(service string) *MetricsHandler {
	return &MetricsHandler{
		service:  service,
		gatherer: prometheus.DefaultGatherer,
		checks:   map[string]ReadinessCheck{},
		timeout:  2 * time.Second,
	}
}

// AddReadinessCheck registers a dependency check used by the readiness endpoint
func (h *MetricsHandler) AddReadinessCheck(name string, check ReadinessCheck) {
	h.checks[name] = check
}

// MetricsEndpoint returns the Prometheus metrics handler
func (h *MetricsHandler) MetricsEndpoint() gin.HandlerFunc {
	handler := promhttp.HandlerFor(h.gatherer, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})

	return func(c *gin.Context) {
		handler.ServeHTTP(c.Writer, c.Request)
	}
}

// HealthEndpoint provides health check
func (h *MetricsHandler) HealthEndpoint() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"service":   h.service,
			"timestamp": time.Now().UTC(),
		})
	}
}

// ReadinessEndpoint runs every registered dependency check
func (h *MetricsHandler) ReadinessEndpoint() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
		defer cancel()

		names := make([]string, 0, len(h.checks))
		for name := range h.checks {
			names = append(names, name)
		}
		sort.Strings(names)

		status := http.StatusOK
		results := gin.H{}
		for _, name := range names {
			if err := h.checks[name](ctx); err != nil {
				status = http.StatusServiceUnavailable
				results[name] = err.Error()
				continue
			}
			results[name] = "ok"
		}

		state := "ready"
		if status != http.StatusOK {
			state = "not_ready"
		}
		c.JSON(status, gin.H{
			"status": state,
			"checks": results,
		})
	}
}

// LivenessEndpoint provides liveness check
func (h *MetricsHandler) LivenessEndpoint() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "alive",
		})
	}
}
