package openaicompat

import "github.com/rhuss/outings/pkg/provider"

// TranslateToChat converts a provider.Request into a ChatCompletionRequest.
func TranslateToChat(req *provider.Request) ChatCompletionRequest {
	cr := ChatCompletionRequest{
		Model: req.Model,
		N:     1,
	}

	for _, pm := range req.Messages {
		cm := ChatMessage{
			Role:       pm.Role,
			Content:    pm.Content,
			ToolCallID: pm.ToolCallID,
			Name:       pm.Name,
		}
		// An assistant message that only requests tools has null content.
		if pm.Role == provider.RoleAssistant && pm.Content == "" && len(pm.ToolCalls) > 0 {
			cm.Content = nil
		}
		for _, tc := range pm.ToolCalls {
			typ := tc.Type
			if typ == "" {
				typ = "function"
			}
			cm.ToolCalls = append(cm.ToolCalls, ChatToolCall{
				ID:   tc.ID,
				Type: typ,
				Function: ChatFunctionCall{
					Name:      tc.Function.Name,
					Arguments: tc.Function.Arguments,
				},
			})
		}
		cr.Messages = append(cr.Messages, cm)
	}

	for _, pt := range req.Tools {
		cr.Tools = append(cr.Tools, ChatTool{
			Type: pt.Type,
			Function: ChatFunctionDef{
				Name:        pt.Function.Name,
				Description: pt.Function.Description,
				Parameters:  pt.Function.Parameters,
			},
		})
	}
	if len(cr.Tools) > 0 {
		cr.ToolChoice = "auto"
	}

	return cr
}
