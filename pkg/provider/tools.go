package provider

import (
	"encoding/json"
	"log/slog"

	"github.com/rhuss/outings/pkg/tools"
)

// ToolDefinitions converts registry descriptors to Chat Completions tool
// definitions. Descriptors whose schema cannot be marshaled are dropped
// with a warning.
func ToolDefinitions(descs []tools.Descriptor) []Tool {
	out := make([]Tool, 0, len(descs))
	for _, d := range descs {
		var params json.RawMessage
		if len(d.Parameters) > 0 {
			raw, err := json.Marshal(d.Parameters)
			if err != nil {
				slog.Warn("dropping tool with unmarshalable schema", "tool", d.Name, "error", err)
				continue
			}
			params = raw
		}
		out = append(out, Tool{
			Type: "function",
			Function: FunctionDef{
				Name:        d.Name,
				Description: d.Description,
				Parameters:  params,
			},
		})
	}
	return out
}

// ToolRequests converts a turn's tool calls into tool requests.
func ToolRequests(calls []ToolCall) []tools.Request {
	out := make([]tools.Request, 0, len(calls))
	for _, c := range calls {
		out = append(out, tools.Request{
			ID:        c.ID,
			Name:      c.Function.Name,
			Arguments: c.Function.Arguments,
		})
	}
	return out
}
