// Package metrics provides Prometheus metrics for the internal link editor
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Lookup operations and statuses used as label values.
const (
	OpCandidates = "candidates"
	OpTitle      = "title"

	StatusOK    = "ok"
	StatusError = "error"
)

// Metrics holds all Prometheus metrics. A nil *Metrics records nothing.
type Metrics struct {
	// Lookup metrics
	LookupRequestsTotal *prometheus.CounterVec
	LookupDuration      *prometheus.HistogramVec
	TitleCacheHitsTotal prometheus.Counter
	StaleResponsesTotal *prometheus.CounterVec

	// Editing metrics
	CommandExecutionsTotal     *prometheus.CounterVec
	ControllerTransitionsTotal *prometheus.CounterVec

	// Catalog metrics
	CatalogOperationsTotal   *prometheus.CounterVec
	CatalogOperationDuration *prometheus.HistogramVec

	// HTTP metrics
	HTTPRequestsTotal *prometheus.CounterVec
}

// New creates the metrics and registers them with reg. A nil reg uses a
// fresh private registry.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	factory := promauto.With(reg)
	m := &Metrics{}

	m.LookupRequestsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "internallink_lookup_requests_total",
			Help: "Total number of title and candidate lookups",
		},
		[]string{"op", "status"},
	)

	m.LookupDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "internallink_lookup_duration_seconds",
			Help:    "Duration of lookups in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
		[]string{"op"},
	)

	m.TitleCacheHitsTotal = factory.NewCounter(
		prometheus.CounterOpts{
			Name: "internallink_title_cache_hits_total",
			Help: "Total number of titles served from the cache",
		},
	)

	m.StaleResponsesTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "internallink_stale_responses_total",
			Help: "Total number of lookup responses discarded because a newer request superseded them",
		},
		[]string{"op"},
	)

	m.CommandExecutionsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "internallink_command_executions_total",
			Help: "Total number of link and unlink command executions",
		},
		[]string{"command", "status"},
	)

	m.ControllerTransitionsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "internallink_controller_transitions_total",
			Help: "Total number of interaction state transitions",
		},
		[]string{"from", "to"},
	)

	m.CatalogOperationsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "internallink_catalog_operations_total",
			Help: "Total number of link target catalog operations",
		},
		[]string{"operation", "status"},
	)

	m.CatalogOperationDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "internallink_catalog_operation_duration_seconds",
			Help:    "Duration of catalog operations in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"operation"},
	)

	m.HTTPRequestsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "internallink_http_requests_total",
			Help: "Total number of lookup HTTP requests served",
		},
		[]string{"route", "code"},
	)

	return m
}

// RecordLookup records a lookup with its status
func (m *Metrics) RecordLookup(op, status string, duration time.Duration) {
	if m == nil {
		return
	}
	m.LookupRequestsTotal.WithLabelValues(op, status).Inc()
	m.LookupDuration.WithLabelValues(op).Observe(duration.Seconds())
}

// RecordCacheHit counts a title served from the cache
func (m *Metrics) RecordCacheHit() {
	if m == nil {
		return
	}
	m.TitleCacheHitsTotal.Inc()
}

// RecordStale counts a discarded stale response
func (m *Metrics) RecordStale(op string) {
	if m == nil {
		return
	}
	m.StaleResponsesTotal.WithLabelValues(op).Inc()
}

// RecordCommand records a command execution
func (m *Metrics) RecordCommand(command, status string) {
	if m == nil {
		return
	}
	m.CommandExecutionsTotal.WithLabelValues(command, status).Inc()
}

// RecordTransition records an interaction state change
func (m *Metrics) RecordTransition(from, to string) {
	if m == nil {
		return
	}
	m.ControllerTransitionsTotal.WithLabelValues(from, to).Inc()
}

// RecordCatalogOperation records a catalog operation
func (m *Metrics) RecordCatalogOperation(operation, status string, duration time.Duration) {
	if m == nil {
		return
	}
	m.CatalogOperationsTotal.WithLabelValues(operation, status).Inc()
	m.CatalogOperationDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordHTTPRequest records a served HTTP request
func (m *Metrics) RecordHTTPRequest(route, code string) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(route, code).Inc()
}

// Status maps an error to a status label.
func Status(err error) string {
	if err != nil {
		return StatusError
	}
	return StatusOK
}
