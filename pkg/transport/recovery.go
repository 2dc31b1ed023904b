package transport

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/rhuss/outings/pkg/api"
)

// Recovery returns middleware that turns a panic in the handler into a
// server error. The server keeps accepting requests afterwards.
func Recovery() Middleware {
	return func(next ChatHandler) ChatHandler {
		return ChatHandlerFunc(func(ctx context.Context, req *api.ChatRequest) (resp *api.ChatResponse, retErr error) {
			defer func() {
				if r := recover(); r != nil {
					slog.Error("chat handler panic", "panic", r, "request_id", RequestIDFromContext(ctx))
					resp, retErr = nil, api.NewServerError(fmt.Sprintf("internal server error: %v", r))
				}
			}()
			return next.Chat(ctx, req)
		})
	}
}
