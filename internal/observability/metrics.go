package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters and histograms for the analysis
// pipeline.
type Metrics struct {
	AnalysesTotal *prometheus.CounterVec   // labels: outcome={success,no_records,no_location,no_station,no_thresholds,no_results,error}
	StageDuration *prometheus.HistogramVec // labels: stage={fetch,geocode,locate,thresholds,analyze}

	// Record fetch metrics.
	RecordsFetched prometheus.Histogram

	// Geocoding metrics.
	GeocodeRequests *prometheus.CounterVec // labels: outcome={match,no_match,error}

	// Report publishing metrics.
	ReportsPublished prometheus.Counter
	PublishErrors    prometheus.Counter
}

// NewMetrics creates and registers all pipeline metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		AnalysesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "water_quality",
			Name:      "analyses_total",
			Help:      "Completed analyses by outcome.",
		}, []string{"outcome"}),
		StageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "water_quality",
			Name:      "stage_duration_seconds",
			Help:      "Duration of each pipeline stage.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"stage"}),
		RecordsFetched: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "water_quality",
			Name:      "records_fetched",
			Help:      "Monitoring records returned per country fetch.",
			Buckets:   []float64{100, 1000, 10000, 50000, 100000, 500000, 1000000},
		}),
		GeocodeRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "water_quality",
			Name:      "geocode_requests_total",
			Help:      "Postal code geocoding requests by outcome.",
		}, []string{"outcome"}),
		ReportsPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "water_quality",
			Name:      "reports_published_total",
			Help:      "Analysis reports published to the sink topic.",
		}),
		PublishErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "water_quality",
			Name:      "publish_errors_total",
			Help:      "Failed report publish attempts.",
		}),
	}

	prometheus.MustRegister(
		m.AnalysesTotal,
		m.StageDuration,
		m.RecordsFetched,
		m.GeocodeRequests,
		m.ReportsPublished,
		m.PublishErrors,
	)

	return m
}

// NewMetricsForTesting creates Metrics with a fresh registry to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		AnalysesTotal:    prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "water_quality", Name: "analyses_total"}, []string{"outcome"}),
		StageDuration:    prometheus.NewHistogramVec(prometheus.HistogramOpts{Namespace: "water_quality", Name: "stage_duration_seconds"}, []string{"stage"}),
		RecordsFetched:   prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "water_quality", Name: "records_fetched"}),
		GeocodeRequests:  prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "water_quality", Name: "geocode_requests_total"}, []string{"outcome"}),
		ReportsPublished: prometheus.NewCounter(prometheus.CounterOpts{Namespace: "water_quality", Name: "reports_published_total"}),
		PublishErrors:    prometheus.NewCounter(prometheus.CounterOpts{Namespace: "water_quality", Name: "publish_errors_total"}),
	}
}
