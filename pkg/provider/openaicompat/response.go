package openaicompat

import (
	"log/slog"

	"github.com/rhuss/outings/pkg/provider"
)

// TranslateResponse converts a ChatCompletionResponse into a provider.Turn.
// Only choices[0] is used. A response without choices yields
// provider.ErrNoUsableTurn.
func TranslateResponse(resp *ChatCompletionResponse) (*provider.Turn, error) {
	if len(resp.Choices) == 0 {
		return nil, provider.ErrNoUsableTurn
	}

	turn := &provider.Turn{Model: resp.Model}
	if resp.Usage != nil {
		turn.Usage = provider.Usage{
			InputTokens:  resp.Usage.PromptTokens,
			OutputTokens: resp.Usage.CompletionTokens,
		}
	}

	choice := resp.Choices[0]
	if choice.FinishReason == "content_filter" || choice.FinishReason == "length" {
		slog.Warn("completion finished early", "finish_reason", choice.FinishReason, "model", resp.Model)
	}

	if text := ExtractContentString(choice.Message.Content); text != "" {
		turn.Text = &text
	}

	for _, tc := range choice.Message.ToolCalls {
		typ := tc.Type
		if typ == "" {
			typ = "function"
		}
		turn.ToolCalls = append(turn.ToolCalls, provider.ToolCall{
			ID:   tc.ID,
			Type: typ,
			Function: provider.FunctionCall{
				Name:      tc.Function.Name,
				Arguments: tc.Function.Arguments,
			},
		})
	}

	return turn, nil
}

// ExtractContentString attempts to get a plain string from the message content.
// The content field in Chat Completions can be a string, nil, or a list of
// content parts; text parts are concatenated.
func ExtractContentString(content any) string {
	switch v := content.(type) {
	case nil:
		return ""
	case string:
		return v
	case []any:
		var out string
		for _, part := range v {
			m, ok := part.(map[string]any)
			if !ok {
				continue
			}
			if text, ok := m["text"].(string); ok {
				out += text
			}
		}
		return out
	default:
		return ""
	}
}
