package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/rhuss/outings/pkg/tools"
	"github.com/rhuss/outings/pkg/tools/registry"
)

const implName = "outings"

// ServerConfig describes one remote MCP server whose tools are imported.
type ServerConfig struct {
	// Name identifies the server in logs and in the provider name.
	Name string

	// Transport is "streamable-http" (default) or "sse".
	Transport string

	// URL is the server endpoint.
	URL string

	// Headers are sent with every request, typically for authentication.
	Headers map[string]string
}

// Client holds a session with one remote MCP server and exposes the tools
// it discovered as a registry.Provider.
type Client struct {
	cfg     ServerConfig
	session *mcp.ClientSession
	tools   []*mcp.Tool
}

var _ registry.Provider = (*Client)(nil)

// Connect opens a session using a transport built from cfg and lists the
// remote tools.
func Connect(ctx context.Context, cfg ServerConfig) (*Client, error) {
	transport, err := newTransport(cfg)
	if err != nil {
		return nil, err
	}
	return ConnectTransport(ctx, cfg, transport)
}

// ConnectTransport is Connect over an explicit transport.
func ConnectTransport(ctx context.Context, cfg ServerConfig, transport mcp.Transport) (*Client, error) {
	client := mcp.NewClient(&mcp.Implementation{Name: implName, Version: "1.0.0"}, nil)
	session, err := client.Connect(ctx, transport, nil)
	if err != nil {
		return nil, fmt.Errorf("connecting to MCP server %q: %w", cfg.Name, err)
	}

	var remote []*mcp.Tool
	for tool, err := range session.Tools(ctx, nil) {
		if err != nil {
			session.Close()
			return nil, fmt.Errorf("listing tools from %q: %w", cfg.Name, err)
		}
		remote = append(remote, tool)
	}
	slog.Info("imported MCP tools", "server", cfg.Name, "count", len(remote))

	return &Client{cfg: cfg, session: session, tools: remote}, nil
}

func newTransport(cfg ServerConfig) (mcp.Transport, error) {
	var httpClient *http.Client
	if len(cfg.Headers) > 0 {
		httpClient = &http.Client{Transport: &headerTransport{base: http.DefaultTransport, headers: cfg.Headers}}
	}

	switch cfg.Transport {
	case "", "streamable-http":
		return &mcp.StreamableClientTransport{Endpoint: cfg.URL, HTTPClient: httpClient}, nil
	case "sse":
		return &mcp.SSEClientTransport{Endpoint: cfg.URL, HTTPClient: httpClient}, nil
	default:
		return nil, fmt.Errorf("MCP server %q: unsupported transport %q", cfg.Name, cfg.Transport)
	}
}

// headerTransport sets static headers on every request.
type headerTransport struct {
	base    http.RoundTripper
	headers map[string]string
}

func (t *headerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	for k, v := range t.headers {
		req.Header.Set(k, v)
	}
	return t.base.RoundTrip(req)
}

// Name returns "mcp:<server>".
func (c *Client) Name() string { return "mcp:" + c.cfg.Name }

// Tools converts the remote tools into descriptors that forward calls.
func (c *Client) Tools() []tools.Descriptor {
	out := make([]tools.Descriptor, 0, len(c.tools))
	for _, t := range c.tools {
		params := schemaMap(t.InputSchema)
		out = append(out, tools.Descriptor{
			Name:        t.Name,
			DisplayName: displayName(t),
			Description: t.Description,
			Parameters:  params,
			Required:    requiredOf(params),
			Func:        c.caller(t.Name),
		})
	}
	return out
}

// Routes returns nil.
func (c *Client) Routes() []registry.Route { return nil }

// Collectors returns nil.
func (c *Client) Collectors() []prometheus.Collector { return nil }

// Close ends the session.
func (c *Client) Close() error {
	return c.session.Close()
}

func (c *Client) caller(name string) tools.Func {
	return func(ctx context.Context, args tools.Args) (any, error) {
		res, err := c.session.CallTool(ctx, &mcp.CallToolParams{
			Name:      name,
			Arguments: map[string]any(args),
		})
		if err != nil {
			return nil, fmt.Errorf("MCP call %q on %q: %w", name, c.cfg.Name, err)
		}
		return decodeResult(res)
	}
}

// decodeResult joins the text content of res. Text that parses as JSON is
// returned decoded so it reaches the model as structured data.
func decodeResult(res *mcp.CallToolResult) (any, error) {
	var parts []string
	for _, content := range res.Content {
		if tc, ok := content.(*mcp.TextContent); ok {
			parts = append(parts, tc.Text)
		}
	}
	text := strings.Join(parts, "\n")

	if res.IsError {
		if text == "" {
			text = "remote tool failed"
		}
		return nil, errors.New(text)
	}
	if res.StructuredContent != nil {
		return res.StructuredContent, nil
	}

	var decoded any
	if err := json.Unmarshal([]byte(text), &decoded); err == nil {
		return decoded, nil
	}
	return map[string]any{"output": text}, nil
}

func schemaMap(schema any) map[string]any {
	if m, ok := schema.(map[string]any); ok {
		return m
	}
	if schema == nil {
		return map[string]any{"type": "object"}
	}
	data, err := json.Marshal(schema)
	if err != nil {
		return map[string]any{"type": "object"}
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil || m == nil {
		return map[string]any{"type": "object"}
	}
	return m
}

func requiredOf(schema map[string]any) []string {
	var out []string
	switch req := schema["required"].(type) {
	case []any:
		for _, r := range req {
			if s, ok := r.(string); ok {
				out = append(out, s)
			}
		}
	case []string:
		out = append(out, req...)
	}
	return out
}

func displayName(t *mcp.Tool) string {
	if t.Title != "" {
		return t.Title
	}
	if t.Annotations != nil && t.Annotations.Title != "" {
		return t.Annotations.Title
	}
	return t.Name
}
