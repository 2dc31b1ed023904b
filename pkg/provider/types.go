package provider

import "encoding/json"

// Message roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// Request is the backend-facing completion request.
type Request struct {
	Model    string    `json:"model"`
	Messages []Message `json:"messages"`
	Tools    []Tool    `json:"tools,omitempty"`

	// CallID identifies the process_message call this request belongs to.
	// Providers that script their answers key on it.
	CallID string `json:"-"`

	// Round is the zero-based index of this request within the call.
	Round int `json:"-"`
}

// Message is one entry of the conversation state.
type Message struct {
	Role       string     `json:"role"`
	Content    string     `json:"content"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
	Name       string     `json:"name,omitempty"`
}

// ToolCall is a tool request carried by an assistant message.
type ToolCall struct {
	ID       string       `json:"id"`
	Type     string       `json:"type"`
	Function FunctionCall `json:"function"`
}

// FunctionCall holds the function name and raw JSON arguments.
type FunctionCall struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// Tool is a tool definition in Chat Completions format.
type Tool struct {
	Type     string      `json:"type"`
	Function FunctionDef `json:"function"`
}

// FunctionDef holds a function definition for tool use.
type FunctionDef struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Parameters  json.RawMessage `json:"parameters,omitempty"`
}

// Turn is one response unit from the language model.
type Turn struct {
	// Text is the assistant text, nil when the turn carried none.
	Text *string

	// ToolCalls are the tool requests proposed in this turn.
	ToolCalls []ToolCall

	// Model is the model that produced the turn.
	Model string

	// Usage reports token counts when the backend returns them.
	Usage Usage
}

// HasText reports whether the turn carries non-empty text.
func (t *Turn) HasText() bool {
	return t != nil && t.Text != nil && *t.Text != ""
}

// Usage holds token counts for one completion.
type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}
