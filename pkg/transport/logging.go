package transport

import (
	"context"
	"log/slog"
	"time"

	"github.com/rhuss/outings/pkg/api"
)

// Logging returns middleware that emits one structured entry per chat
// turn with the user, model, tool count and duration.
func Logging(logger *slog.Logger) Middleware {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next ChatHandler) ChatHandler {
		return ChatHandlerFunc(func(ctx context.Context, req *api.ChatRequest) (*api.ChatResponse, error) {
			start := time.Now()
			resp, err := next.Chat(ctx, req)

			attrs := []slog.Attr{
				slog.String("request_id", RequestIDFromContext(ctx)),
				slog.String("user_id", req.UserID),
				slog.String("model", req.Model),
				slog.Duration("duration", time.Since(start)),
			}
			if err != nil {
				attrs = append(attrs, slog.String("error", err.Error()))
				logger.LogAttrs(ctx, slog.LevelError, "chat failed", attrs...)
				return resp, err
			}

			attrs = append(attrs, slog.Int("tool_results", len(resp.ToolResults)))
			if resp.SkippedToolsMessage != nil {
				attrs = append(attrs, slog.Bool("tools_skipped", true))
			}
			logger.LogAttrs(ctx, slog.LevelInfo, "chat completed", attrs...)
			return resp, nil
		})
	}
}
