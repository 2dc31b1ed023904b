package mcp

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/rhuss/outings/pkg/tools"
)

// IdentityFunc resolves the caller's user id from a request context. An
// empty result leaves the supplied user_id untouched.
type IdentityFunc func(ctx context.Context) string

// Server publishes registry tools over MCP.
type Server struct {
	server *mcp.Server
	count  int
}

// NewServer registers every catalog tool that policy allows. When identify
// is non-nil, caller-scoped parameters are bound from the authenticated
// identity exactly as the orchestrator binds them for the model.
func NewServer(exec tools.ToolExecutor, policy *tools.Policy, identify IdentityFunc) *Server {
	s := &Server{
		server: mcp.NewServer(&mcp.Implementation{Name: implName, Version: "1.0.0"}, nil),
	}
	for _, desc := range exec.Catalog() {
		if policy != nil && !policy.Allowed(desc.Name) {
			continue
		}
		s.server.AddTool(&mcp.Tool{
			Name:        desc.Name,
			Title:       desc.DisplayName,
			Description: desc.Description,
			InputSchema: inputSchema(desc.Parameters),
		}, handler(exec, desc, identify))
		s.count++
	}
	slog.Debug("MCP server tools registered", "count", s.count)
	return s
}

// Len returns the number of published tools.
func (s *Server) Len() int { return s.count }

// Handler serves the streamable HTTP transport.
func (s *Server) Handler() http.Handler {
	return mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server { return s.server }, nil)
}

// Run serves a single connection over transport until it closes.
func (s *Server) Run(ctx context.Context, transport mcp.Transport) error {
	return s.server.Run(ctx, transport)
}

func handler(exec tools.ToolExecutor, desc tools.Descriptor, identify IdentityFunc) mcp.ToolHandler {
	return func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var args tools.Args
		if req.Params != nil && len(req.Params.Arguments) > 0 {
			args = tools.DecodeArgs(string(req.Params.Arguments))
		}
		if identify != nil {
			if user := identify(ctx); user != "" {
				args = tools.Inject(desc, args, tools.Scope{UserID: user})
			}
		}

		out := exec.Execute(ctx, desc.Name, args)
		data, err := json.Marshal(out)
		if err != nil {
			data, _ = json.Marshal(tools.ErrorResult("unserializable tool result: " + err.Error()))
		}

		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: string(data)}},
			IsError: isError(out),
		}, nil
	}
}

// inputSchema guarantees the object schema MCP requires.
func inputSchema(params map[string]any) map[string]any {
	if params == nil {
		return map[string]any{"type": "object"}
	}
	if _, ok := params["type"]; !ok {
		out := make(map[string]any, len(params)+1)
		for k, v := range params {
			out[k] = v
		}
		out["type"] = "object"
		return out
	}
	return params
}

func isError(out any) bool {
	m, ok := out.(map[string]any)
	return ok && m["error"] != nil
}
