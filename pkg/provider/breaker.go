package provider

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/rhuss/outings/pkg/api"
	"github.com/sony/gobreaker/v2"
)

// Default circuit breaker settings.
const (
	defaultCBMaxFailures uint32        = 5
	defaultCBTimeout     time.Duration = 30 * time.Second
	defaultCBInterval    time.Duration = 60 * time.Second
)

// BreakerConfig configures the circuit breaker.
type BreakerConfig struct {
	// MaxFailures is the number of consecutive failures before the circuit opens.
	MaxFailures uint32
	// Timeout is how long the circuit stays open before a half-open probe.
	Timeout time.Duration
	// Interval is the cyclic period of the closed state for clearing counts.
	Interval time.Duration
}

// Breaker wraps a Provider with circuit breaker protection. Rate limits,
// rejected requests, and cancellations do not count as failures; only
// backend and transport faults do.
type Breaker struct {
	inner   Provider
	breaker *gobreaker.CircuitBreaker[*Turn]
}

// Ensure Breaker implements Provider at compile time.
var _ Provider = (*Breaker)(nil)

// WithBreaker wraps p. Zero config fields take defaults.
func WithBreaker(p Provider, cfg BreakerConfig) *Breaker {
	maxFailures := cfg.MaxFailures
	if maxFailures == 0 {
		maxFailures = defaultCBMaxFailures
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = defaultCBTimeout
	}
	interval := cfg.Interval
	if interval == 0 {
		interval = defaultCBInterval
	}

	cb := gobreaker.NewCircuitBreaker[*Turn](gobreaker.Settings{
		Name:        "completion:" + p.Name(),
		MaxRequests: 1,
		Interval:    interval,
		Timeout:     timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			slog.Warn("circuit breaker state change",
				"breaker", name,
				"from", from.String(),
				"to", to.String(),
			)
		},
		IsSuccessful: countsAsSuccess,
	})

	return &Breaker{inner: p, breaker: cb}
}

func countsAsSuccess(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, ErrNoUsableTurn) {
		return true
	}
	if apiErr, ok := api.AsAPIError(err); ok {
		switch apiErr.Type {
		case api.ErrorTypeTooManyRequests, api.ErrorTypeInvalidRequest, api.ErrorTypeNotFound:
			return true
		}
	}
	return false
}

// Name returns the wrapped provider's name.
func (b *Breaker) Name() string { return b.inner.Name() }

// Complete routes the call through the circuit breaker.
func (b *Breaker) Complete(ctx context.Context, req *Request) (*Turn, error) {
	turn, err := b.breaker.Execute(func() (*Turn, error) {
		return b.inner.Complete(ctx, req)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("provider %q: %w: %v", b.inner.Name(), ErrCircuitOpen, err)
		}
		return nil, err
	}
	return turn, nil
}

// State returns the current breaker state.
func (b *Breaker) State() gobreaker.State {
	return b.breaker.State()
}

// Close closes the wrapped provider.
func (b *Breaker) Close() error { return b.inner.Close() }
