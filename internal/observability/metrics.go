package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "askdb_http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "askdb_http_request_duration_seconds",
			Help:    "HTTP request latency by route.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	llmRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "askdb_llm_requests_total",
			Help: "Outbound LLM chat-completion calls by component and outcome.",
		},
		[]string{"component", "outcome"},
	)

	llmFallbacksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "askdb_llm_fallbacks_total",
			Help: "Times a component served its deterministic fallback instead of LLM output.",
		},
		[]string{"component"},
	)

	pipelineRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "askdb_pipeline_requests_total",
			Help: "Question-answering pipeline runs by terminal outcome.",
		},
		[]string{"outcome"},
	)

	targetQueryDurationSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "askdb_target_query_duration_seconds",
			Help:    "Wall-clock execution time of generated SQL against the target database.",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
	)
)

func init() {
	prometheus.MustRegister(
		httpRequestsTotal,
		httpRequestDurationSeconds,
		llmRequestsTotal,
		llmFallbacksTotal,
		pipelineRequestsTotal,
		targetQueryDurationSeconds,
	)
}

func ObserveLLMRequest(component, outcome string) {
	llmRequestsTotal.WithLabelValues(component, outcome).Inc()
}

func IncrementLLMFallback(component string) {
	llmFallbacksTotal.WithLabelValues(component).Inc()
}

func ObservePipelineRequest(outcome string) {
	pipelineRequestsTotal.WithLabelValues(outcome).Inc()
}

func ObserveTargetQuery(duration time.Duration) {
	targetQueryDurationSeconds.Observe(duration.Seconds())
}
