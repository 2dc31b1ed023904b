package observability

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"go.opentelemetry.io/otel/attribute"
)

func TestMetricsRegistered(t *testing.T) {
	CompletionsTotal.WithLabelValues("scripted", "m", "success").Inc()
	CompletionLatency.WithLabelValues("scripted", "m").Observe(0.1)
	CompletionTokensTotal.WithLabelValues("scripted", "m", "input").Add(1)
	FallbackRetriesTotal.WithLabelValues("m", "f").Inc()
	LoopOutcomesTotal.WithLabelValues(OutcomeFinalText).Inc()
	ToolDenialsTotal.WithLabelValues("scrape_activities").Inc()
	RateLimitRejectedTotal.WithLabelValues("http").Inc()
	ActivityRefreshTotal.WithLabelValues("success").Inc()
	RequestsTotal.WithLabelValues("GET", "GET /health", "2xx").Inc()
	RequestDuration.WithLabelValues("GET", "GET /health").Observe(0.01)

	families, err := prometheus.DefaultGatherer.Gather()
	if err != nil {
		t.Fatalf("unexpected gather error: %v", err)
	}

	expected := map[string]bool{
		"outings_http_requests_total":           false,
		"outings_http_request_duration_seconds": false,
		"outings_completions_total":             false,
		"outings_completion_latency_seconds":    false,
		"outings_completion_tokens_total":       false,
		"outings_fallback_retries_total":        false,
		"outings_loop_outcomes_total":           false,
		"outings_loop_rounds":                   false,
		"outings_tool_denials_total":            false,
		"outings_ratelimit_rejected_total":      false,
		"outings_activity_refresh_total":        false,
		"outings_cached_activities":             false,
	}
	for _, mf := range families {
		if _, ok := expected[mf.GetName()]; ok {
			expected[mf.GetName()] = true
		}
	}
	for name, found := range expected {
		if !found {
			t.Errorf("metric %q not found in default registry", name)
		}
	}
}

func TestMiddlewareUsesMatchedPattern(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/preferences/{user_id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	handler := MetricsMiddleware(mux)

	route := "GET /api/preferences/{user_id}"
	before := counterValue(t, RequestsTotal, "GET", route, "2xx")

	for _, user := range []string{"alice", "bob"} {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest("GET", "/api/preferences/"+user, nil))
	}

	after := counterValue(t, RequestsTotal, "GET", route, "2xx")
	if after-before != 2 {
		t.Errorf("expected both users under one route label, delta=%f", after-before)
	}
}

func TestMiddlewareCapturesStatusCode(t *testing.T) {
	before := counterValue(t, RequestsTotal, "POST", "unmatched", "4xx")

	handler := MetricsMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("POST", "/api/chat", nil))

	after := counterValue(t, RequestsTotal, "POST", "unmatched", "4xx")
	if after-before != 1 {
		t.Errorf("expected 4xx count to increase by 1, got delta=%f", after-before)
	}
}

func TestStatusWriterFlush(t *testing.T) {
	rec := httptest.NewRecorder()
	sw := &statusWriter{ResponseWriter: rec, status: http.StatusOK}
	sw.Flush()
	if !rec.Flushed {
		t.Error("expected underlying writer to be flushed")
	}
}

func TestSetupTracingDisabled(t *testing.T) {
	shutdown, err := SetupTracing(context.Background(), TracingConfig{})
	if err != nil {
		t.Fatalf("SetupTracing: %v", err)
	}
	defer shutdown(context.Background())

	_, span := StartSpan(context.Background(), "test", attribute.String("k", "v"))
	span.End()
	if span.SpanContext().IsValid() {
		t.Error("noop tracer should produce invalid span contexts")
	}
}

func TestSetupTracingUnknownExporter(t *testing.T) {
	if _, err := SetupTracing(context.Background(), TracingConfig{Enabled: true, Exporter: "zipkin"}); err == nil {
		t.Error("expected error for unknown exporter")
	}
}

func counterValue(t *testing.T, cv *prometheus.CounterVec, labels ...string) float64 {
	t.Helper()
	m := &dto.Metric{}
	c, err := cv.GetMetricWithLabelValues(labels...)
	if err != nil {
		t.Fatalf("getting counter metric: %v", err)
	}
	if err := c.(prometheus.Metric).Write(m); err != nil {
		t.Fatalf("writing counter metric: %v", err)
	}
	return m.GetCounter().GetValue()
}
