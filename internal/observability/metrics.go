package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "i79_etl"

// Metrics holds the Prometheus counters, histograms, and gauges for the ETL pipeline.
type Metrics struct {
	PipelineRunning prometheus.Gauge
	RunDuration     prometheus.Histogram
	LastSuccess     prometheus.Gauge
	DatasetSize     prometheus.Gauge

	// Transport metrics.
	FetchRequests *prometheus.CounterVec // labels: outcome={success,error,status}
	FetchDuration prometheus.Histogram

	// Per-source metrics.
	SourceCandidates *prometheus.CounterVec // labels: source
	SourceFailures   *prometheus.CounterVec // labels: source

	// Merge metrics.
	DuplicatesSkipped prometheus.Counter
	OverridesApplied  prometheus.Counter
	ManualIncidents   prometheus.Counter

	LoadErrors *prometheus.CounterVec // labels: loader
}

func newMetrics() *Metrics {
	return &Metrics{
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pipeline_running",
			Help:      "1 while a run is in progress, 0 otherwise.",
		}),
		RunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Duration of a complete extract-merge-load run.",
			Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600, 1200},
		}),
		LastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last run whose dataset was written.",
		}),
		DatasetSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "dataset_incidents",
			Help:      "Number of incidents in the most recent dataset.",
		}),
		FetchRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetch_requests_total",
			Help:      "HTTP fetches by outcome.",
		}, []string{"outcome"}),
		FetchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "fetch_duration_seconds",
			Help:      "HTTP fetch duration in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20},
		}),
		SourceCandidates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "source_candidates_total",
			Help:      "Candidate incidents produced by each source.",
		}, []string{"source"}),
		SourceFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "source_failures_total",
			Help:      "Sources that produced no data because of an error.",
		}, []string{"source"}),
		DuplicatesSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "duplicates_skipped_total",
			Help:      "Candidates dropped because an earlier source reported the same ID.",
		}),
		OverridesApplied: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "overrides_applied_total",
			Help:      "Field patches applied to existing incidents.",
		}),
		ManualIncidents: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "manual_incidents_total",
			Help:      "Hand-entered incidents inserted into the dataset.",
		}),
		LoadErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "load_errors_total",
			Help:      "Dataset writes that failed, by loader.",
		}, []string{"loader"}),
	}
}

// NewMetrics creates and registers all pipeline metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()

	prometheus.MustRegister(
		m.PipelineRunning,
		m.RunDuration,
		m.LastSuccess,
		m.DatasetSize,
		m.FetchRequests,
		m.FetchDuration,
		m.SourceCandidates,
		m.SourceFailures,
		m.DuplicatesSkipped,
		m.OverridesApplied,
		m.ManualIncidents,
		m.LoadErrors,
	)

	return m
}

// NewMetricsForTesting creates unregistered Metrics to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}
