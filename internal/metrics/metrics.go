// Package metrics exposes ledger counters and HTTP latency to Prometheus.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Prometheus metric names.
const (
	MetricMovementsTotal         = "ledger_movements_total"
	MetricMovementQuantityTotal  = "ledger_movement_quantity_total"
	MetricRejectedMovementsTotal = "ledger_rejected_movements_total"
	MetricHTTPRequestsTotal      = "ledger_http_requests_total"
	MetricHTTPDurationSeconds    = "ledger_http_request_duration_seconds"
)

// Metrics owns a private registry so tests can create as many as they like.
//
// Thread Safety: Safe for concurrent use by multiple goroutines.
type Metrics struct {
	registry *prometheus.Registry

	movementsTotal   *prometheus.CounterVec
	quantityTotal    *prometheus.CounterVec
	rejectedTotal    *prometheus.CounterVec
	httpRequests     *prometheus.CounterVec
	httpDurationSecs *prometheus.HistogramVec
}

func New() *Metrics {
	registry := prometheus.NewRegistry()
	m := &Metrics{
		registry: registry,
		movementsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: MetricMovementsTotal,
			Help: "Committed stock movements by type.",
		}, []string{"type"}),
		quantityTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: MetricMovementQuantityTotal,
			Help: "Units moved by committed movements, by type.",
		}, []string{"type"}),
		rejectedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: MetricRejectedMovementsTotal,
			Help: "Movements rejected before commit, by reason.",
		}, []string{"reason"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: MetricHTTPRequestsTotal,
			Help: "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		httpDurationSecs: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    MetricHTTPDurationSeconds,
			Help:    "HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}

	registry.MustRegister(
		m.movementsTotal,
		m.quantityTotal,
		m.rejectedTotal,
		m.httpRequests,
		m.httpDurationSecs,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// MovementCommitted records a committed movement.
func (m *Metrics) MovementCommitted(transactionType string, quantity int) {
	m.movementsTotal.WithLabelValues(transactionType).Inc()
	m.quantityTotal.WithLabelValues(transactionType).Add(float64(quantity))
}

// MovementRejected records a movement that never reached commit.
func (m *Metrics) MovementRejected(reason string) {
	m.rejectedTotal.WithLabelValues(reason).Inc()
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Middleware observes every Fiber request. The route pattern is used as label
// so path parameters do not explode cardinality.
func (m *Metrics) Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		route := c.Route().Path
		status := c.Response().StatusCode()
		if err != nil {
			if fe, ok := err.(*fiber.Error); ok {
				status = fe.Code
			} else {
				status = fiber.StatusInternalServerError
			}
		}

		m.httpRequests.WithLabelValues(c.Method(), route, strconv.Itoa(status)).Inc()
		m.httpDurationSecs.WithLabelValues(c.Method(), route).Observe(time.Since(start).Seconds())
		return err
	}
}
