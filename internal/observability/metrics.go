package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "aq_forecast"

// Metrics holds the Prometheus counters, histograms, and gauges for the forecast gateway.
type Metrics struct {
	Submissions         *prometheus.CounterVec // labels: source={upload,manual,raw,live}, outcome={success,invalid,superseded,error}
	SubmissionsInFlight prometheus.Gauge
	SubmissionDuration  *prometheus.HistogramVec // labels: source

	// Ingestion metrics.
	IngestRows           prometheus.Histogram
	IngestSkippedRows    prometheus.Counter
	IngestDefaultedCells prometheus.Counter

	// Prediction API metrics.
	PredictRequests    *prometheus.CounterVec   // labels: endpoint, outcome={success,api_error,network_error}
	PredictAPIDuration *prometheus.HistogramVec // labels: endpoint
	ModelCache         *prometheus.CounterVec   // labels: result={hit,miss}

	// Publishing metrics.
	ResultsPublished prometheus.Counter
	PublishErrors    prometheus.Counter
	PublishEnabled   prometheus.Gauge

	LiveRefreshRuns *prometheus.CounterVec // labels: outcome={success,partial,error,cancelled}
}

// NewMetrics creates and registers all gateway metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		Submissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "submissions_total",
			Help:      "Forecast submissions by source and outcome.",
		}, []string{"source", "outcome"}),
		SubmissionsInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "submissions_in_flight",
			Help:      "Submissions waiting on the prediction API.",
		}),
		SubmissionDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "submission_duration_seconds",
			Help:      "Duration of a submission from parse to prediction.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"source"}),
		IngestRows: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "ingest_rows",
			Help:      "Records produced per parsed upload.",
			Buckets:   []float64{1, 6, 12, 24, 48, 72, 168, 336, 720},
		}),
		IngestSkippedRows: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ingest_skipped_rows_total",
			Help:      "Data rows dropped for a blank date or hour cell.",
		}),
		IngestDefaultedCells: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ingest_defaulted_cells_total",
			Help:      "Cells replaced by a fallback value during ingestion.",
		}),
		PredictRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "predict_api_requests_total",
			Help:      "Prediction API requests by endpoint and outcome.",
		}, []string{"endpoint", "outcome"}),
		PredictAPIDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "predict_api_duration_seconds",
			Help:      "Prediction API request duration in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"endpoint"}),
		ModelCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "model_cache_total",
			Help:      "Model detail cache lookups by result.",
		}, []string{"result"}),
		ResultsPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "results_published_total",
			Help:      "Forecast results written to the results topic.",
		}),
		PublishErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "publish_errors_total",
			Help:      "Failed writes to the results topic.",
		}),
		PublishEnabled: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "publish_enabled",
			Help:      "1 when results are published to Kafka, 0 otherwise.",
		}),
		LiveRefreshRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "live_refresh_runs_total",
			Help:      "Scheduled live refresh runs by outcome.",
		}, []string{"outcome"}),
	}

	prometheus.MustRegister(
		m.Submissions,
		m.SubmissionsInFlight,
		m.SubmissionDuration,
		m.IngestRows,
		m.IngestSkippedRows,
		m.IngestDefaultedCells,
		m.PredictRequests,
		m.PredictAPIDuration,
		m.ModelCache,
		m.ResultsPublished,
		m.PublishErrors,
		m.PublishEnabled,
		m.LiveRefreshRuns,
	)

	return m
}

// NewMetricsForTesting creates Metrics with a fresh registry to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		Submissions:          prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: namespace, Name: "submissions_total"}, []string{"source", "outcome"}),
		SubmissionsInFlight:  prometheus.NewGauge(prometheus.GaugeOpts{Namespace: namespace, Name: "submissions_in_flight"}),
		SubmissionDuration:   prometheus.NewHistogramVec(prometheus.HistogramOpts{Namespace: namespace, Name: "submission_duration_seconds"}, []string{"source"}),
		IngestRows:           prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: namespace, Name: "ingest_rows"}),
		IngestSkippedRows:    prometheus.NewCounter(prometheus.CounterOpts{Namespace: namespace, Name: "ingest_skipped_rows_total"}),
		IngestDefaultedCells: prometheus.NewCounter(prometheus.CounterOpts{Namespace: namespace, Name: "ingest_defaulted_cells_total"}),
		PredictRequests:      prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: namespace, Name: "predict_api_requests_total"}, []string{"endpoint", "outcome"}),
		PredictAPIDuration:   prometheus.NewHistogramVec(prometheus.HistogramOpts{Namespace: namespace, Name: "predict_api_duration_seconds"}, []string{"endpoint"}),
		ModelCache:           prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: namespace, Name: "model_cache_total"}, []string{"result"}),
		ResultsPublished:     prometheus.NewCounter(prometheus.CounterOpts{Namespace: namespace, Name: "results_published_total"}),
		PublishErrors:        prometheus.NewCounter(prometheus.CounterOpts{Namespace: namespace, Name: "publish_errors_total"}),
		PublishEnabled:       prometheus.NewGauge(prometheus.GaugeOpts{Namespace: namespace, Name: "publish_enabled"}),
		LiveRefreshRuns:      prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: namespace, Name: "live_refresh_runs_total"}, []string{"outcome"}),
	}
}
