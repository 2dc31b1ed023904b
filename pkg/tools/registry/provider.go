// Package registry binds tool names to their callables and calling
// contracts. Tools are contributed by Providers at startup; once the
// registry is sealed it is immutable and safe for concurrent use.
//
// The Registry implements tools.ToolExecutor, records execution metrics,
// recovers from panicking tools, and serves the merged HTTP routes that
// providers expose alongside their tools.
package registry

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rhuss/outings/pkg/tools"
)

// Provider is a pluggable group of tools.
// Each provider contributes tool descriptors, optional HTTP routes, and
// optional Prometheus collectors.
type Provider interface {
	// Name returns a unique identifier for this provider (e.g., "places").
	Name() string

	// Tools returns the descriptors this provider contributes.
	Tools() []tools.Descriptor

	// Routes returns HTTP endpoints that this provider exposes.
	Routes() []Route

	// Collectors returns Prometheus collectors for provider-specific metrics.
	Collectors() []prometheus.Collector

	// Close releases any resources held by the provider.
	Close() error
}

// Route is an HTTP endpoint exposed by a provider.
type Route struct {
	Method  string
	Pattern string
	Handler http.HandlerFunc
}
