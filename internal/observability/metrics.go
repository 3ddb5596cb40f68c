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
	// Pricing metrics
	ProductsPriced     prometheus.Counter
	PriceFallbacks     *prometheus.CounterVec
	PersonalizedPrices *prometheus.CounterVec
	ForecastFallbacks  *prometheus.CounterVec

	// Latency metrics
	ForecastLatency  prometheus.Histogram
	OptimizeLatency  prometheus.Histogram
	SolverIterations prometheus.Histogram

	// Pipeline metrics
	PipelineRunsTotal *prometheus.CounterVec
	PipelineDuration  *prometheus.HistogramVec
	ReportsGenerated  prometheus.Counter

	// Database metrics
	DBQueryDuration *prometheus.HistogramVec
	DBQueryErrors   *prometheus.CounterVec

	// Health metrics
	LastSuccessfulPipeline prometheus.Gauge
	ResultsServed          *prometheus.CounterVec
}

// NewMetrics creates a new Metrics instance registered with reg.
// A nil reg uses the default Prometheus registerer.
func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	if namespace == "" {
		namespace = "dynamic_pricing"
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)

	return &Metrics{
		// Pricing metrics
		ProductsPriced: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pricing",
			Name:      "products_priced_total",
			Help:      "Total number of products that received an optimal price",
		}),
		PriceFallbacks: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pricing",
			Name:      "price_fallbacks_total",
			Help:      "Total number of optimal prices that fell back to base price, by reason",
		}, []string{"reason"}),
		PersonalizedPrices: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pricing",
			Name:      "personalized_prices_total",
			Help:      "Total number of personalized prices by rule",
		}, []string{"rule"}),
		ForecastFallbacks: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "forecast",
			Name:      "fallbacks_total",
			Help:      "Total number of demand forecasts that used the default, by reason",
		}, []string{"reason"}),

		// Latency metrics
		ForecastLatency: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "forecast",
			Name:      "latency_seconds",
			Help:      "Per-product demand forecast latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}),
		OptimizeLatency: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "pricing",
			Name:      "optimize_latency_seconds",
			Help:      "Per-product price optimization latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}),
		SolverIterations: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "pricing",
			Name:      "solver_iterations",
			Help:      "SQP iterations per successful solve",
			Buckets:   []float64{1, 2, 3, 5, 8, 13, 21, 34, 55, 100},
		}),

		// Pipeline metrics
		PipelineRunsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "runs_total",
			Help:      "Total number of pipeline runs by status",
		}, []string{"phase", "status"}),
		PipelineDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "duration_seconds",
			Help:      "Pipeline execution duration in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 5, 10, 30, 60, 120, 300, 600},
		}, []string{"phase"}),
		ReportsGenerated: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "reports_generated_total",
			Help:      "Total number of reports generated",
		}),

		// Database metrics
		DBQueryDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_duration_seconds",
			Help:      "Database query duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"database", "operation"}),
		DBQueryErrors: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_errors_total",
			Help:      "Total number of database query errors",
		}, []string{"database", "operation"}),

		// Health metrics
		LastSuccessfulPipeline: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_successful_pipeline_timestamp",
			Help:      "Unix timestamp of last successful pipeline run",
		}),
		ResultsServed: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "server",
			Name:      "results_served_total",
			Help:      "Total number of result requests served by endpoint",
		}, []string{"endpoint"}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("", nil)

// RecordPriced records one product's optimal price outcome.
func RecordPriced(fallbackReason string, seconds float64, iterations int) {
	DefaultMetrics.ProductsPriced.Inc()
	DefaultMetrics.OptimizeLatency.Observe(seconds)
	if fallbackReason != "" {
		DefaultMetrics.PriceFallbacks.WithLabelValues(fallbackReason).Inc()
		return
	}
	DefaultMetrics.SolverIterations.Observe(float64(iterations))
}

// RecordForecast records one product's forecast latency and fallback reason, if any.
func RecordForecast(fallbackReason string, seconds float64) {
	DefaultMetrics.ForecastLatency.Observe(seconds)
	if fallbackReason != "" {
		DefaultMetrics.ForecastFallbacks.WithLabelValues(fallbackReason).Inc()
	}
}

// RecordPersonalized records one personalized price by rule code.
func RecordPersonalized(rule string) {
	DefaultMetrics.PersonalizedPrices.WithLabelValues(rule).Inc()
}

// RecordDBQuery records database query metrics.
func RecordDBQuery(database, operation string, seconds float64, err error) {
	DefaultMetrics.DBQueryDuration.WithLabelValues(database, operation).Observe(seconds)
	if err != nil {
		DefaultMetrics.DBQueryErrors.WithLabelValues(database, operation).Inc()
	}
}

// RecordPipelineRun records a pipeline run.
func RecordPipelineRun(phase, status string, durationSeconds float64) {
	DefaultMetrics.PipelineRunsTotal.WithLabelValues(phase, status).Inc()
	DefaultMetrics.PipelineDuration.WithLabelValues(phase).Observe(durationSeconds)
}

// RecordPipelineSuccess stamps the last successful pipeline gauge.
func RecordPipelineSuccess(unixSeconds float64) {
	DefaultMetrics.LastSuccessfulPipeline.Set(unixSeconds)
}

// RecordReportGenerated increments the reports generated counter.
func RecordReportGenerated() {
	DefaultMetrics.ReportsGenerated.Inc()
}

// RecordResultServed increments the served counter for a results endpoint.
func RecordResultServed(endpoint string) {
	DefaultMetrics.ResultsServed.WithLabelValues(endpoint).Inc()
}
