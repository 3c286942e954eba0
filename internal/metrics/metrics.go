// Package metrics provides Prometheus metrics for the telemetry rule
// service. It tracks storage adapter traffic, rule operations,
// aggregation latency and the background emission pipelines.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	namespace = "telemetry"
)

// Storage adapter metrics track the remote key-value store traffic.
var (
	// StorageRequestsTotal counts storage adapter round trips.
	StorageRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "storage_requests_total",
			Help:      "Total number of storage adapter requests",
		},
		[]string{"method", "status"},
	)

	// StorageRequestLatency measures storage adapter round trip time.
	StorageRequestLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "storage_request_latency_seconds",
			Help:      "Latency of storage adapter requests in seconds",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		},
		[]string{"method"},
	)
)

// Rule metrics track repository mutations and queries.
var (
	// RuleOperationsTotal counts rule mutations by operation and result.
	RuleOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rule_operations_total",
			Help:      "Total number of rule repository operations",
		},
		[]string{"operation", "status"}, // operation: create, upsert, delete
	)

	// RuleQueryLatency measures the client-side fetch-filter-sort scan.
	RuleQueryLatency = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "rule_query_latency_seconds",
			Help:      "Time to fetch and page the rule collection in seconds",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
	)
)

// Aggregation metrics track the alarm-by-rule join.
var (
	// AggregationsTotal counts aggregation calls by result.
	AggregationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "aggregations_total",
			Help:      "Total number of alarm-by-rule aggregation calls",
		},
		[]string{"status"}, // status: success, failure
	)

	// AggregationLatency measures the alarm lookup fan-out per call.
	AggregationLatency = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "aggregation_latency_seconds",
			Help:      "Time to join a rule page with alarm counts in seconds",
			Buckets:   []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
	)
)

// Background pipeline metrics.
var (
	// DiagnosticsEventsTotal counts diagnostics emissions by event and result.
	DiagnosticsEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "diagnostics_events_total",
			Help:      "Total number of diagnostics events emitted",
		},
		[]string{"event", "status"},
	)

	// RuleEventsTotal counts rule change events published to the queue.
	RuleEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rule_events_total",
			Help:      "Total number of rule change events published",
		},
		[]string{"type", "status"},
	)
)

// Storage adapter service metrics (the bundled key-value store).
var (
	// DocStoreOperationsTotal counts document store operations.
	DocStoreOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "docstore_operations_total",
			Help:      "Total number of document store operations",
		},
		[]string{"backend", "operation", "status"},
	)
)
