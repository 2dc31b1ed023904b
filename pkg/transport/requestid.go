package transport

import (
	"context"

	"github.com/google/uuid"

	"github.com/rhuss/outings/pkg/api"
)

// RequestIDHeader carries the request id in and out of the HTTP adapter.
const RequestIDHeader = "X-Request-ID"

// RequestID returns middleware that makes sure every chat turn carries a
// request id. An id already in the context (set by the HTTP adapter from
// the X-Request-ID header) is kept.
func RequestID() Middleware {
	return func(next ChatHandler) ChatHandler {
		return ChatHandlerFunc(func(ctx context.Context, req *api.ChatRequest) (*api.ChatResponse, error) {
			if RequestIDFromContext(ctx) == "" {
				ctx = ContextWithRequestID(ctx, NewRequestID())
			}
			return next.Chat(ctx, req)
		})
	}
}

// NewRequestID returns a random UUID string.
func NewRequestID() string {
	return uuid.NewString()
}
