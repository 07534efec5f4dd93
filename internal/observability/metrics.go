// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Analysis metrics
	WalletsAnalyzed  prometheus.Counter
	TradesFetched    prometheus.Counter
	OverridesApplied *prometheus.CounterVec // per rule
	ThesesByStrategy *prometheus.CounterVec

	// LLM metrics
	LLMCalls       *prometheus.CounterVec // model, status
	LLMCallLatency *prometheus.HistogramVec
	LLMRetries     *prometheus.CounterVec

	// Evaluation metrics
	EvalRunsTotal    *prometheus.CounterVec // status
	EvalRunDuration  prometheus.Histogram
	ScoringErrors    prometheus.Counter
	RegressionsFound prometheus.Counter

	// Ingestion metrics
	FillsReceived  prometheus.Counter
	FillsArchived  prometheus.Counter
	FeedConnects   prometheus.Counter
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "wallet_strategy_lab"
	}

	return &Metrics{
		WalletsAnalyzed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "analysis",
			Name:      "wallets_analyzed_total",
			Help:      "Total number of wallets run through the analyzer pipeline",
		}),
		TradesFetched: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "analysis",
			Name:      "trades_fetched_total",
			Help:      "Total number of trade events fetched from the data source",
		}),
		OverridesApplied: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "analysis",
			Name:      "overrides_applied_total",
			Help:      "Total number of override rule applications by rule",
		}, []string{"rule"}),
		ThesesByStrategy: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "analysis",
			Name:      "theses_total",
			Help:      "Total number of theses produced by primary strategy",
		}, []string{"strategy"}),

		LLMCalls: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "llm",
			Name:      "calls_total",
			Help:      "Total number of LLM calls by model and status",
		}, []string{"model", "status"}),
		LLMCallLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "llm",
			Name:      "call_latency_seconds",
			Help:      "LLM call latency in seconds",
			Buckets:   []float64{1, 5, 10, 30, 60, 120, 300},
		}, []string{"model"}),
		LLMRetries: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "llm",
			Name:      "retries_total",
			Help:      "Total number of LLM call retries by model",
		}, []string{"model"}),

		EvalRunsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "eval",
			Name:      "runs_total",
			Help:      "Total number of evaluation runs by status",
		}, []string{"status"}),
		EvalRunDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "eval",
			Name:      "run_duration_seconds",
			Help:      "Evaluation run duration in seconds",
			Buckets:   []float64{10, 30, 60, 120, 300, 600, 1800, 3600},
		}),
		ScoringErrors: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "eval",
			Name:      "scoring_errors_total",
			Help:      "Total number of wallets excluded from aggregates by judge failures",
		}),
		RegressionsFound: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "eval",
			Name:      "regressions_found_total",
			Help:      "Total number of version-over-version regressions detected",
		}),

		FillsReceived: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingest",
			Name:      "fills_received_total",
			Help:      "Total number of fills received from the activity feed",
		}),
		FillsArchived: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingest",
			Name:      "fills_archived_total",
			Help:      "Total number of fills written to the trade-event archive",
		}),
		FeedConnects: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingest",
			Name:      "feed_connects_total",
			Help:      "Total number of activity feed connection attempts",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")

// RecordWalletAnalyzed increments the wallets analyzed counter.
func RecordWalletAnalyzed(strategy string) {
	DefaultMetrics.WalletsAnalyzed.Inc()
	DefaultMetrics.ThesesByStrategy.WithLabelValues(strategy).Inc()
}

// RecordOverride records an override rule application.
func RecordOverride(rule string) {
	DefaultMetrics.OverridesApplied.WithLabelValues(rule).Inc()
}

// RecordLLMCall records one LLM call with its outcome and latency.
func RecordLLMCall(model, status string, seconds float64) {
	DefaultMetrics.LLMCalls.WithLabelValues(model, status).Inc()
	DefaultMetrics.LLMCallLatency.WithLabelValues(model).Observe(seconds)
}

// RecordLLMRetry records one retried LLM call.
func RecordLLMRetry(model string) {
	DefaultMetrics.LLMRetries.WithLabelValues(model).Inc()
}

// RecordEvalRun records an evaluation run.
func RecordEvalRun(status string, durationSeconds float64, scoringErrors int) {
	DefaultMetrics.EvalRunsTotal.WithLabelValues(status).Inc()
	DefaultMetrics.EvalRunDuration.Observe(durationSeconds)
	DefaultMetrics.ScoringErrors.Add(float64(scoringErrors))
}

