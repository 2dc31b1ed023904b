package provider

import (
	"context"
	"log/slog"

	"github.com/rhuss/outings/pkg/observability"
)

// Fallback retries a rate-limited completion once against a designated
// fallback model before surfacing the error.
type Fallback struct {
	inner Provider
	model string
}

// Ensure Fallback implements Provider at compile time.
var _ Provider = (*Fallback)(nil)

// WithFallback wraps p. An empty model disables the retry.
func WithFallback(p Provider, fallbackModel string) *Fallback {
	return &Fallback{inner: p, model: fallbackModel}
}

// Name returns the wrapped provider's name.
func (f *Fallback) Name() string { return f.inner.Name() }

// Complete delegates to the wrapped provider and retries once with the
// fallback model when the first attempt is rate limited.
func (f *Fallback) Complete(ctx context.Context, req *Request) (*Turn, error) {
	turn, err := f.inner.Complete(ctx, req)
	if err == nil || !IsRetryable(err) || f.model == "" || req.Model == f.model {
		return turn, err
	}

	slog.Warn("completion rate limited, retrying with fallback model",
		"model", req.Model,
		"fallback_model", f.model,
		"error", err,
	)
	observability.FallbackRetriesTotal.WithLabelValues(req.Model, f.model).Inc()

	retry := *req
	retry.Model = f.model
	return f.inner.Complete(ctx, &retry)
}

// Close closes the wrapped provider.
func (f *Fallback) Close() error { return f.inner.Close() }
