package transport

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/rhuss/outings/pkg/api"
)

func okHandler(ctx context.Context, req *api.ChatRequest) (*api.ChatResponse, error) {
	return &api.ChatResponse{Response: "hi", ToolResults: []api.ToolOutcome{}}, nil
}

func TestChainAppliesMiddlewareInOrder(t *testing.T) {
	var order []string

	mw := func(name string) Middleware {
		return func(next ChatHandler) ChatHandler {
			return ChatHandlerFunc(func(ctx context.Context, req *api.ChatRequest) (*api.ChatResponse, error) {
				order = append(order, name+":before")
				resp, err := next.Chat(ctx, req)
				order = append(order, name+":after")
				return resp, err
			})
		}
	}

	handler := ChatHandlerFunc(func(ctx context.Context, req *api.ChatRequest) (*api.ChatResponse, error) {
		order = append(order, "handler")
		return okHandler(ctx, req)
	})

	Chain(mw("first"), mw("second"), mw("third"))(handler).Chat(context.Background(), &api.ChatRequest{})

	expected := []string{
		"first:before", "second:before", "third:before",
		"handler",
		"third:after", "second:after", "first:after",
	}
	if strings.Join(order, ",") != strings.Join(expected, ",") {
		t.Errorf("order = %v, want %v", order, expected)
	}
}

func TestRecoveryCatchesPanic(t *testing.T) {
	handler := ChatHandlerFunc(func(ctx context.Context, req *api.ChatRequest) (*api.ChatResponse, error) {
		panic("test panic")
	})

	resp, err := Recovery()(handler).Chat(context.Background(), &api.ChatRequest{})
	if resp != nil {
		t.Errorf("expected nil response, got %+v", resp)
	}
	apiErr, ok := err.(*api.APIError)
	if !ok {
		t.Fatalf("expected *api.APIError, got %T: %v", err, err)
	}
	if apiErr.Type != api.ErrorTypeServerError {
		t.Errorf("error type = %q, want %q", apiErr.Type, api.ErrorTypeServerError)
	}
	if !strings.Contains(apiErr.Message, "test panic") {
		t.Errorf("error message = %q, should contain %q", apiErr.Message, "test panic")
	}
}

func TestRecoveryPassesThroughNormalExecution(t *testing.T) {
	resp, err := Recovery()(ChatHandlerFunc(okHandler)).Chat(context.Background(), &api.ChatRequest{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Response != "hi" {
		t.Errorf("response = %q", resp.Response)
	}
}

func TestRequestIDGeneratesUUID(t *testing.T) {
	var captured string
	handler := ChatHandlerFunc(func(ctx context.Context, req *api.ChatRequest) (*api.ChatResponse, error) {
		captured = RequestIDFromContext(ctx)
		return okHandler(ctx, req)
	})

	RequestID()(handler).Chat(context.Background(), &api.ChatRequest{})

	if _, err := uuid.Parse(captured); err != nil {
		t.Errorf("request ID %q is not a UUID: %v", captured, err)
	}
}

func TestRequestIDPropagatesExisting(t *testing.T) {
	var captured string
	handler := ChatHandlerFunc(func(ctx context.Context, req *api.ChatRequest) (*api.ChatResponse, error) {
		captured = RequestIDFromContext(ctx)
		return okHandler(ctx, req)
	})

	ctx := ContextWithRequestID(context.Background(), "existing-id-123")
	RequestID()(handler).Chat(ctx, &api.ChatRequest{})

	if captured != "existing-id-123" {
		t.Errorf("request ID = %q, want %q", captured, "existing-id-123")
	}
}

func TestRequestIDUniqueness(t *testing.T) {
	ids := make(map[string]bool)
	handler := ChatHandlerFunc(func(ctx context.Context, req *api.ChatRequest) (*api.ChatResponse, error) {
		ids[RequestIDFromContext(ctx)] = true
		return okHandler(ctx, req)
	})

	wrapped := RequestID()(handler)
	for i := 0; i < 100; i++ {
		wrapped.Chat(context.Background(), &api.ChatRequest{})
	}
	if len(ids) != 100 {
		t.Errorf("expected 100 unique IDs, got %d", len(ids))
	}
}

func TestLoggingEmitsFields(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo}))

	ctx := ContextWithRequestID(context.Background(), "req-log-test")
	Logging(logger)(ChatHandlerFunc(okHandler)).Chat(ctx, &api.ChatRequest{UserID: "alice", Model: "test-model"})

	output := buf.String()
	for _, expected := range []string{"request_id=req-log-test", "user_id=alice", "model=test-model", "tool_results=0", "chat completed"} {
		if !strings.Contains(output, expected) {
			t.Errorf("log output missing %q in:\n%s", expected, output)
		}
	}
}

func TestLoggingEmitsErrorOnFailure(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo}))

	handler := ChatHandlerFunc(func(ctx context.Context, req *api.ChatRequest) (*api.ChatResponse, error) {
		return nil, api.NewServerError("test failure")
	})
	Logging(logger)(handler).Chat(context.Background(), &api.ChatRequest{Model: "test"})

	output := buf.String()
	if !strings.Contains(output, "chat failed") || !strings.Contains(output, "test failure") {
		t.Errorf("log output missing failure details in:\n%s", output)
	}
}
