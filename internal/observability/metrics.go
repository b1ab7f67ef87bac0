package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// allocation engine.
type Metrics struct {
	PlansBuilt        prometheus.Counter
	PlanBuildDuration prometheus.Histogram
	SettlementsScored prometheus.Counter
	DataQualityErrors prometheus.Counter
	VehiclesRequired  prometheus.Gauge

	// FallbackEstimatorActive is 1 when stress scores come from the
	// synthetic-data fallback rather than a trained model.
	FallbackEstimatorActive prometheus.Gauge

	PlanCacheLookups *prometheus.CounterVec // label: result={hit,miss}

	// Plan publishing metrics.
	PlansPublished    prometheus.Counter
	PlanPublishErrors prometheus.Counter
}

// NewMetrics creates and registers all engine metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		PlansBuilt: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "water_alloc",
			Name:      "plans_built_total",
			Help:      "Total allocation plans computed (cache misses).",
		}),
		PlanBuildDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "water_alloc",
			Name:      "plan_build_duration_seconds",
			Help:      "Duration of a complete derive-score-allocate-rank-route cycle.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2.5},
		}),
		SettlementsScored: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "water_alloc",
			Name:      "settlements_scored_total",
			Help:      "Total settlement rows scored across all plan builds.",
		}),
		DataQualityErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "water_alloc",
			Name:      "data_quality_errors_total",
			Help:      "Total rows excluded from plans for data-quality reasons.",
		}),
		VehiclesRequired: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "water_alloc",
			Name:      "vehicles_required",
			Help:      "Total tankers required by the most recent plan.",
		}),
		FallbackEstimatorActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "water_alloc",
			Name:      "fallback_estimator_active",
			Help:      "1 when the synthetic-data fallback estimator is in use.",
		}),
		PlanCacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "water_alloc",
			Name:      "plan_cache_lookups_total",
			Help:      "Plan cache lookups by result.",
		}, []string{"result"}),
		PlansPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "water_alloc",
			Name:      "plans_published_total",
			Help:      "Total plans published to the sink topic.",
		}),
		PlanPublishErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "water_alloc",
			Name:      "plan_publish_errors_total",
			Help:      "Total failed plan publish attempts.",
		}),
	}

	prometheus.MustRegister(
		m.PlansBuilt,
		m.PlanBuildDuration,
		m.SettlementsScored,
		m.DataQualityErrors,
		m.VehiclesRequired,
		m.FallbackEstimatorActive,
		m.PlanCacheLookups,
		m.PlansPublished,
		m.PlanPublishErrors,
	)

	return m
}

// NewMetricsForTesting creates Metrics with a fresh registry to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		PlansBuilt:              prometheus.NewCounter(prometheus.CounterOpts{Namespace: "water_alloc", Name: "plans_built_total"}),
		PlanBuildDuration:       prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "water_alloc", Name: "plan_build_duration_seconds"}),
		SettlementsScored:       prometheus.NewCounter(prometheus.CounterOpts{Namespace: "water_alloc", Name: "settlements_scored_total"}),
		DataQualityErrors:       prometheus.NewCounter(prometheus.CounterOpts{Namespace: "water_alloc", Name: "data_quality_errors_total"}),
		VehiclesRequired:        prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "water_alloc", Name: "vehicles_required"}),
		FallbackEstimatorActive: prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "water_alloc", Name: "fallback_estimator_active"}),
		PlanCacheLookups:        prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "water_alloc", Name: "plan_cache_lookups_total"}, []string{"result"}),
		PlansPublished:          prometheus.NewCounter(prometheus.CounterOpts{Namespace: "water_alloc", Name: "plans_published_total"}),
		PlanPublishErrors:       prometheus.NewCounter(prometheus.CounterOpts{Namespace: "water_alloc", Name: "plan_publish_errors_total"}),
	}
}
