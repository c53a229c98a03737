package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for evaluation runs.
type Metrics struct {
	RunsStarted   prometheus.Counter
	RunsCompleted prometheus.Counter
	RunsFailed    prometheus.Counter
	RunsSkipped   prometheus.Counter
	RunnerActive  prometheus.Gauge

	ResultRows    prometheus.Counter
	RunDuration   prometheus.Histogram
	CasesSelected *prometheus.GaugeVec // labels: event_type

	// Engine metrics.
	EngineRequests *prometheus.CounterVec // labels: outcome={success,error}
	EngineDuration prometheus.Histogram
	EngineCache    *prometheus.CounterVec // labels: result={hit,miss}
}

// NewMetrics creates and registers all runner metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.RunsStarted,
		m.RunsCompleted,
		m.RunsFailed,
		m.RunsSkipped,
		m.RunnerActive,
		m.ResultRows,
		m.RunDuration,
		m.CasesSelected,
		m.EngineRequests,
		m.EngineDuration,
		m.EngineCache,
	)
	return m
}

// NewMetricsForTesting creates Metrics without registering them to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		RunsStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "evalrunner",
			Name:      "runs_started_total",
			Help:      "Evaluation runs handed to the engine.",
		}),
		RunsCompleted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "evalrunner",
			Name:      "runs_completed_total",
			Help:      "Evaluation runs whose result table was persisted.",
		}),
		RunsFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "evalrunner",
			Name:      "runs_failed_total",
			Help:      "Evaluation runs that failed in the engine or while persisting.",
		}),
		RunsSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "evalrunner",
			Name:      "runs_skipped_total",
			Help:      "Runs disabled in the plan.",
		}),
		RunnerActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "evalrunner",
			Name:      "active",
			Help:      "1 while a plan is executing, 0 otherwise.",
		}),
		ResultRows: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "evalrunner",
			Name:      "result_rows_total",
			Help:      "Result rows persisted across all runs.",
		}),
		RunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "evalrunner",
			Name:      "run_duration_seconds",
			Help:      "Duration of one evaluate-and-persist run.",
			Buckets:   []float64{1, 10, 60, 300, 900, 1800, 3600, 7200, 14400},
		}),
		CasesSelected: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "evalrunner",
			Name:      "cases_selected",
			Help:      "Cases in the most recent subset selected for an event type.",
		}, []string{"event_type"}),
		EngineRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "evalrunner",
			Name:      "engine_requests_total",
			Help:      "Evaluation engine requests by outcome.",
		}, []string{"outcome"}),
		EngineDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "evalrunner",
			Name:      "engine_request_duration_seconds",
			Help:      "Evaluation engine request duration in seconds.",
			Buckets:   []float64{1, 10, 60, 300, 900, 1800, 3600, 7200, 14400},
		}),
		EngineCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "evalrunner",
			Name:      "engine_cache_total",
			Help:      "Evaluation result cache lookups by result.",
		}, []string{"result"}),
	}
}
