// Package metrics provides Prometheus observability for the capacity engine's
// HTTP surface. The engine itself stays pure; instrumentation lives at the
// caller boundary.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Registry is the custom prometheus registry for our application
var Registry = prometheus.NewRegistry()

// factory allows us to register metrics to our custom Registry directly
var factory = promauto.With(Registry)

// =============================================================================
// HEATMAP METRICS - Request and computation visibility
// =============================================================================

// HeatmapRequestsTotal counts heatmap computations by outcome.
var HeatmapRequestsTotal = factory.NewCounterVec(prometheus.CounterOpts{
	Namespace: "capacity",
	Name:      "heatmap_requests_total",
	Help:      "Heatmap requests by outcome (ok, client_error, server_error)",
}, []string{"outcome"})

// HeatmapDurationSeconds tracks time to assemble a heatmap.
var HeatmapDurationSeconds = factory.NewHistogram(prometheus.HistogramOpts{
	Namespace: "capacity",
	Name:      "heatmap_duration_seconds",
	Help:      "Time taken to assemble one heatmap response",
	Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5},
})

// HeatmapResourcesProcessed tracks resources per heatmap computation.
var HeatmapResourcesProcessed = factory.NewHistogram(prometheus.HistogramOpts{
	Namespace: "capacity",
	Name:      "heatmap_resources_processed",
	Help:      "Number of resources computed per heatmap request",
	Buckets:   []float64{1, 5, 10, 25, 50, 100, 250, 500},
})

// ResourceFetchErrorsTotal counts per-resource fetch failures that were
// isolated into partial-result markers.
var ResourceFetchErrorsTotal = factory.NewCounter(prometheus.CounterOpts{
	Namespace: "capacity",
	Name:      "resource_fetch_errors_total",
	Help:      "Per-resource data fetch failures reported as partial results",
})

// PeriodsClassifiedTotal counts computed period cells by utilization band.
// A consistently high OVERUTILIZED share indicates planning problems.
var PeriodsClassifiedTotal = factory.NewCounterVec(prometheus.CounterOpts{
	Namespace: "capacity",
	Name:      "periods_classified_total",
	Help:      "Computed resource-period cells by utilization band",
}, []string{"band"})
