// Package observability provides Prometheus metrics, OpenTelemetry tracing,
// and HTTP middleware for monitoring the outings service.
package observability

import "github.com/prometheus/client_golang/prometheus"

// LLMBuckets defines histogram buckets suited for completion latencies,
// ranging from 100ms to 120s.
var LLMBuckets = []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120}

// Loop outcome labels for LoopOutcomesTotal.
const (
	OutcomeFinalText    = "final_text"
	OutcomeRecovered    = "recovered"
	OutcomeSummary      = "summary"
	OutcomeNoUsableTurn = "no_usable_turn"
	OutcomeError        = "error"
)

var (
	// RequestsTotal counts HTTP requests by method, matched route, and status class.
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "outings_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	// RequestDuration records HTTP request duration in seconds.
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "outings_http_request_duration_seconds",
			Help:    "HTTP request duration",
			Buckets: LLMBuckets,
		},
		[]string{"method", "route"},
	)

	// CompletionsTotal counts completion requests by provider, model, and status.
	CompletionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "outings_completions_total",
			Help: "Completion requests",
		},
		[]string{"provider", "model", "status"},
	)

	// CompletionLatency records completion latency in seconds.
	CompletionLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "outings_completion_latency_seconds",
			Help:    "Completion latency",
			Buckets: LLMBuckets,
		},
		[]string{"provider", "model"},
	)

	// CompletionTokensTotal counts tokens by direction (input/output).
	CompletionTokensTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "outings_completion_tokens_total",
			Help: "Token count",
		},
		[]string{"provider", "model", "direction"},
	)

	// FallbackRetriesTotal counts retries against the fallback model.
	FallbackRetriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "outings_fallback_retries_total",
			Help: "Completion retries against the fallback model",
		},
		[]string{"model", "fallback_model"},
	)

	// LoopOutcomesTotal counts how process_message calls terminated.
	LoopOutcomesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "outings_loop_outcomes_total",
			Help: "Orchestration loop terminations by outcome",
		},
		[]string{"outcome"},
	)

	// LoopRounds records the number of tool rounds per process_message call.
	LoopRounds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "outings_loop_rounds",
			Help:    "Tool-executing rounds per message",
			Buckets: []float64{0, 1, 2, 3, 4, 5},
		},
	)

	// ToolDenialsTotal counts tool requests dropped by the availability policy.
	ToolDenialsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "outings_tool_denials_total",
			Help: "Tool requests denied by the allow-list",
		},
		[]string{"tool_name"},
	)

	// RateLimitRejectedTotal counts requests rejected by a rate limiter.
	RateLimitRejectedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "outings_ratelimit_rejected_total",
			Help: "Rate limit rejections",
		},
		[]string{"scope"},
	)

	// ActivityRefreshTotal counts activity cache refreshes by status.
	ActivityRefreshTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "outings_activity_refresh_total",
			Help: "Activity cache refreshes",
		},
		[]string{"status"},
	)

	// CachedActivities reports the number of activities in the cache.
	CachedActivities = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "outings_cached_activities",
			Help: "Activities currently cached",
		},
	)
)

func init() {
	prometheus.MustRegister(
		RequestsTotal,
		RequestDuration,
		CompletionsTotal,
		CompletionLatency,
		CompletionTokensTotal,
		FallbackRetriesTotal,
		LoopOutcomesTotal,
		LoopRounds,
		ToolDenialsTotal,
		RateLimitRejectedTotal,
		ActivityRefreshTotal,
		CachedActivities,
	)
}
