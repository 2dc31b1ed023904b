package transport

import (
	"context"

	"github.com/rhuss/outings/pkg/api"
)

// ChatHandler processes one chat turn for the user named in the request.
// The request's UserID is already resolved when Chat is called.
type ChatHandler interface {
	Chat(ctx context.Context, req *api.ChatRequest) (*api.ChatResponse, error)
}

// ChatHandlerFunc is an adapter that allows using an ordinary function
// as a ChatHandler.
type ChatHandlerFunc func(ctx context.Context, req *api.ChatRequest) (*api.ChatResponse, error)

// Chat calls f(ctx, req).
func (f ChatHandlerFunc) Chat(ctx context.Context, req *api.ChatRequest) (*api.ChatResponse, error) {
	return f(ctx, req)
}

// SessionResetter discards a user's conversation state.
type SessionResetter interface {
	Reset(ctx context.Context, userID string) error
}
