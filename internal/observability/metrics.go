package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "district_dashboard"

// Metrics holds the Prometheus counters, histograms, and gauges for the dashboard.
type Metrics struct {
	// Dataset metrics.
	DatasetRecords      prometheus.Gauge
	DatasetLoads        *prometheus.CounterVec // labels: outcome={success,error}
	DatasetLoadDuration prometheus.Histogram

	// View metrics.
	ViewsBuilt         *prometheus.CounterVec // labels: mode={none,stress,relief}
	ViewCache          *prometheus.CounterVec // labels: result={hit,miss}
	CollapsedDistricts prometheus.Gauge
	ViewBuildDuration  prometheus.Histogram
	InvalidScenarios   prometheus.Counter

	// Order metrics.
	OrdersExported  prometheus.Counter
	OrdersPublished prometheus.Counter
	PublishErrors   prometheus.Counter
}

// NewMetrics creates and registers all dashboard metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()

	prometheus.MustRegister(
		m.DatasetRecords,
		m.DatasetLoads,
		m.DatasetLoadDuration,
		m.ViewsBuilt,
		m.ViewCache,
		m.CollapsedDistricts,
		m.ViewBuildDuration,
		m.InvalidScenarios,
		m.OrdersExported,
		m.OrdersPublished,
		m.PublishErrors,
	)

	return m
}

// NewMetricsForTesting creates unregistered Metrics to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		DatasetRecords: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "dataset_records",
			Help:      "Number of district records in the current dataset.",
		}),
		DatasetLoads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dataset_loads_total",
			Help:      "Dataset load attempts by outcome.",
		}, []string{"outcome"}),
		DatasetLoadDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "dataset_load_duration_seconds",
			Help:      "Duration of a successful dataset load.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		}),
		ViewsBuilt: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "views_built_total",
			Help:      "Dashboard views computed by scenario mode.",
		}, []string{"mode"}),
		ViewCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "view_cache_total",
			Help:      "View cache lookups by result.",
		}, []string{"result"}),
		CollapsedDistricts: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "collapsed_districts",
			Help:      "Collapsed districts in the most recently built view.",
		}),
		ViewBuildDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "view_build_duration_seconds",
			Help:      "Time to filter, simulate and summarise one view.",
			Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
		}),
		InvalidScenarios: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "invalid_scenarios_total",
			Help:      "Rejected scenario requests.",
		}),
		OrdersExported: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "orders_exported_total",
			Help:      "Deployment orders written to CSV downloads.",
		}),
		OrdersPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "orders_published_total",
			Help:      "Deployment orders published to Kafka.",
		}),
		PublishErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "publish_errors_total",
			Help:      "Failed Kafka publish attempts.",
		}),
	}
}
