package registry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/kaptinlin/jsonschema"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rhuss/outings/pkg/debug"
	"github.com/rhuss/outings/pkg/tools"
)

var (
	// ErrDuplicateTool is returned when two descriptors share a name.
	ErrDuplicateTool = errors.New("duplicate tool name")

	// ErrSealed is returned when registering after Seal.
	ErrSealed = errors.New("registry is sealed")
)

// Prometheus metrics for tool execution and provider routes.
var (
	toolExecutions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "outings_tool_executions_total",
			Help: "Total tool executions",
		},
		[]string{"provider", "tool_name", "status"},
	)

	toolDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "outings_tool_duration_seconds",
			Help:    "Tool execution duration",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10, 30, 60},
		},
		[]string{"provider", "tool_name"},
	)

	providerAPIRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "outings_provider_api_requests_total",
			Help: "Total tool provider API requests",
		},
		[]string{"provider", "method", "path", "status"},
	)

	providerAPIDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "outings_provider_api_duration_seconds",
			Help:    "Tool provider API request duration",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10, 30, 60},
		},
		[]string{"provider", "method", "path"},
	)
)

func init() {
	prometheus.MustRegister(
		toolExecutions,
		toolDuration,
		providerAPIRequests,
		providerAPIDuration,
	)
}

// entry is one registered tool.
type entry struct {
	desc     tools.Descriptor
	provider string
	schema   *jsonschema.Schema
}

// Registry maps tool names to descriptors and implements tools.ToolExecutor.
type Registry struct {
	mu sync.RWMutex

	providers []Provider
	order     []string
	entries   map[string]*entry
	sealed    bool
}

// Ensure Registry implements tools.ToolExecutor at compile time.
var _ tools.ToolExecutor = (*Registry)(nil)

// New creates an empty Registry.
func New() *Registry {
	return &Registry{
		entries: make(map[string]*entry),
	}
}

// Register adds a provider's tools. A tool name already registered, or a
// parameter schema that does not compile, is a configuration error and
// nothing from the provider is registered.
//
// Any provider-specific Prometheus collectors are also registered.
func (r *Registry) Register(p Provider) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.sealed {
		return fmt.Errorf("register provider %q: %w", p.Name(), ErrSealed)
	}

	descs := p.Tools()
	pending := make([]*entry, 0, len(descs))
	seen := make(map[string]bool, len(descs))
	for _, d := range descs {
		if d.Name == "" {
			return fmt.Errorf("provider %q: tool with empty name", p.Name())
		}
		if d.Func == nil {
			return fmt.Errorf("provider %q: tool %q has no callable", p.Name(), d.Name)
		}
		if existing, ok := r.entries[d.Name]; ok {
			return fmt.Errorf("tool %q from provider %q already registered by %q: %w",
				d.Name, p.Name(), existing.provider, ErrDuplicateTool)
		}
		if seen[d.Name] {
			return fmt.Errorf("tool %q listed twice by provider %q: %w", d.Name, p.Name(), ErrDuplicateTool)
		}
		seen[d.Name] = true

		schema, err := compileSchema(d.Parameters)
		if err != nil {
			return fmt.Errorf("tool %q: %w", d.Name, err)
		}
		pending = append(pending, &entry{desc: d, provider: p.Name(), schema: schema})
	}

	for _, e := range pending {
		r.entries[e.desc.Name] = e
		r.order = append(r.order, e.desc.Name)
	}
	r.providers = append(r.providers, p)

	for _, c := range p.Collectors() {
		if err := prometheus.Register(c); err != nil {
			slog.Debug("collector already registered", "provider", p.Name(), "error", err)
		}
	}

	slog.Info("registered tool provider",
		"provider", p.Name(),
		"tools", len(pending),
		"routes", len(p.Routes()),
	)
	return nil
}

// Seal makes the registry immutable. Further Register calls fail.
func (r *Registry) Seal() {
	r.mu.Lock()
	r.sealed = true
	r.mu.Unlock()
}

func compileSchema(params map[string]any) (*jsonschema.Schema, error) {
	if len(params) == 0 {
		return nil, nil
	}
	raw, err := json.Marshal(params)
	if err != nil {
		return nil, fmt.Errorf("marshal parameter schema: %w", err)
	}
	schema, err := jsonschema.NewCompiler().Compile(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid parameter schema: %w", err)
	}
	return schema, nil
}

// Resolve returns the descriptor registered under name.
func (r *Registry) Resolve(name string) (tools.Descriptor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[name]
	if !ok {
		return tools.Descriptor{}, false
	}
	return e.desc, true
}

// Catalog returns all descriptors in registration order.
func (r *Registry) Catalog() []tools.Descriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]tools.Descriptor, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.entries[name].desc)
	}
	return out
}

// Execute runs the named tool with args, records metrics, and recovers
// from panics. Tool errors, panics, and unknown names all come back as
// {"error": message} results so a misbehaving tool never aborts the loop.
//
// Arguments that fail schema validation are logged and still passed to the
// tool, which applies its own defaults.
func (r *Registry) Execute(ctx context.Context, name string, args tools.Args) (result any) {
	r.mu.RLock()
	e, ok := r.entries[name]
	r.mu.RUnlock()

	if !ok {
		toolExecutions.WithLabelValues("", name, "unknown").Inc()
		return tools.ErrorResult("Unknown tool: " + name)
	}
	if args == nil {
		args = tools.Args{}
	}

	providerName := e.provider
	start := time.Now()

	defer func() {
		if rec := recover(); rec != nil {
			slog.Error("tool panicked",
				"provider", providerName,
				"tool", name,
				"panic", rec,
			)
			result = tools.ErrorResult(fmt.Sprint(rec))

			toolExecutions.WithLabelValues(providerName, name, "panic").Inc()
			toolDuration.WithLabelValues(providerName, name).Observe(time.Since(start).Seconds())
		}
	}()

	if e.schema != nil {
		if res := e.schema.Validate(map[string]any(args)); !res.IsValid() {
			debug.Log("tools", "tool arguments do not match schema",
				"tool", name,
				"error", res.Error(),
			)
		}
	}

	out, err := e.desc.Func(ctx, args)
	duration := time.Since(start).Seconds()

	status := "success"
	switch {
	case err != nil:
		status = "error"
		out = tools.ErrorResult(err.Error())
		slog.Warn("tool failed", "provider", providerName, "tool", name, "error", err)
	case isErrorResult(out):
		status = "tool_error"
	}

	toolExecutions.WithLabelValues(providerName, name, status).Inc()
	toolDuration.WithLabelValues(providerName, name).Observe(duration)

	debug.Log("tools", "tool executed", "tool", name, "status", status, "duration_s", duration)
	return out
}

// isErrorResult reports whether out is a map carrying a non-nil "error".
func isErrorResult(out any) bool {
	m, ok := out.(map[string]any)
	if !ok {
		return false
	}
	v, ok := m["error"]
	return ok && v != nil
}

// HTTPHandler returns an http.Handler that serves all provider routes,
// each wrapped with metrics middleware.
func (r *Registry) HTTPHandler() http.Handler {
	r.mu.RLock()
	defer r.mu.RUnlock()

	mux := http.NewServeMux()
	for _, p := range r.providers {
		for _, route := range p.Routes() {
			pattern := route.Method + " " + route.Pattern
			if route.Method == "" {
				pattern = route.Pattern
			}
			mux.HandleFunc(pattern, wrapRoute(p.Name(), route))
		}
	}
	return mux
}

// Routes returns every provider route as "METHOD pattern" strings, for
// mounting on the server mux.
func (r *Registry) Routes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []string
	for _, p := range r.providers {
		for _, route := range p.Routes() {
			if route.Method == "" {
				out = append(out, route.Pattern)
				continue
			}
			out = append(out, route.Method+" "+route.Pattern)
		}
	}
	return out
}

// Close closes all registered providers, returning the joined errors.
func (r *Registry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var errs []error
	for _, p := range r.providers {
		if err := p.Close(); err != nil {
			slog.Warn("failed to close tool provider", "provider", p.Name(), "error", err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
