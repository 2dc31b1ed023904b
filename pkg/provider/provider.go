package provider

import (
	"context"
	"errors"

	"github.com/rhuss/outings/pkg/api"
)

// Provider produces the next conversation turn.
//
// Implementations must be safe for concurrent use by multiple goroutines.
type Provider interface {
	// Name returns the provider identifier (e.g., "openrouter", "scripted").
	Name() string

	// Complete asks for the next turn. A response without any choice is
	// reported as ErrNoUsableTurn.
	Complete(ctx context.Context, req *Request) (*Turn, error)

	// Close releases provider resources (HTTP clients, connections).
	Close() error
}

var (
	// ErrNoUsableTurn reports a completion that carried no choice.
	ErrNoUsableTurn = errors.New("no usable turn")

	// ErrCircuitOpen reports that the breaker rejected the call without
	// contacting the backend.
	ErrCircuitOpen = errors.New("completion circuit open")
)

// IsRetryable reports whether err is the transport's rate-limit signal,
// which earns one retry against the fallback model.
func IsRetryable(err error) bool {
	apiErr, ok := api.AsAPIError(err)
	return ok && apiErr.Type == api.ErrorTypeTooManyRequests
}
