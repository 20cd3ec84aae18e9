package observability

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus collectors used by the service.
type Metrics struct {
	requests    *prometheus.CounterVec
	errors      *prometheus.CounterVec
	operations  *prometheus.CounterVec
	opDuration  *prometheus.HistogramVec
	partsIssued *prometheus.CounterVec
}

// NewMetrics registers the collectors on reg. A nil registerer yields a
// Metrics whose methods are no-ops.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		return &Metrics{}
	}
	m := &Metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "HTTP requests by route, method and status.",
		}, []string{"path", "method", "status"}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_request_errors_total",
			Help: "HTTP requests that ended in a domain error, by error code.",
		}, []string{"path", "method", "code"}),
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "maintenance_operations_total",
			Help: "Lifecycle operations by name and outcome code.",
		}, []string{"operation", "outcome"}),
		opDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "maintenance_operation_duration_seconds",
			Help:    "Duration of lifecycle operations including the transaction.",
			Buckets: prometheus.DefBuckets,
		}, []string{"operation"}),
		partsIssued: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "inventory_units_deducted_total",
			Help: "Part units deducted from stock by completed work orders.",
		}, []string{"part_id"}),
	}
	reg.MustRegister(m.requests, m.errors, m.operations, m.opDuration, m.partsIssued)
	return m
}

// RecordRequest increments counters for requests.
func (m *Metrics) RecordRequest(path, method string, status int) {
	if m == nil || m.requests == nil {
		return
	}
	m.requests.WithLabelValues(path, method, strconv.Itoa(status)).Inc()
}

// RecordError increments error counters.
func (m *Metrics) RecordError(path, method, code string) {
	if m == nil || m.errors == nil {
		return
	}
	m.errors.WithLabelValues(path, method, code).Inc()
}

// RecordOperation counts a lifecycle operation and observes its duration.
// outcome is "ok" or the error code.
func (m *Metrics) RecordOperation(operation, outcome string, duration time.Duration) {
	if m == nil || m.operations == nil {
		return
	}
	m.operations.WithLabelValues(operation, outcome).Inc()
	m.opDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordDeduction adds quantity to the deducted-units counter of a part.
func (m *Metrics) RecordDeduction(partID string, quantity int) {
	if m == nil || m.partsIssued == nil {
		return
	}
	m.partsIssued.WithLabelValues(partID).Add(float64(quantity))
}
