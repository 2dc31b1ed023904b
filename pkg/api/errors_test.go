package api

import (
	"encoding/json"
	"fmt"
	"testing"
)

func TestAPIErrorString(t *testing.T) {
	tests := []struct {
		name string
		err  *APIError
		want string
	}{
		{
			"with param",
			&APIError{Type: ErrorTypeInvalidRequest, Param: "message", Message: "is required"},
			"invalid_request: is required (param: message)",
		},
		{
			"without param",
			&APIError{Type: ErrorTypeServerError, Message: "internal failure"},
			"server_error: internal failure",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("APIError.Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestErrorConstructors(t *testing.T) {
	tests := []struct {
		name      string
		err       *APIError
		wantType  ErrorType
		wantParam string
	}{
		{"invalid request", NewInvalidRequestError("message", "is required"), ErrorTypeInvalidRequest, "message"},
		{"not found", NewNotFoundError("chat history not found"), ErrorTypeNotFound, ""},
		{"server error", NewServerError("internal failure"), ErrorTypeServerError, ""},
		{"model error", NewModelError("model overloaded"), ErrorTypeModelError, ""},
		{"too many requests", NewTooManyRequestsError("rate limit exceeded"), ErrorTypeTooManyRequests, ""},
		{"unauthorized", NewUnauthorizedError("missing credentials"), ErrorTypeUnauthorized, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Type != tt.wantType {
				t.Errorf("Type = %q, want %q", tt.err.Type, tt.wantType)
			}
			if tt.err.Param != tt.wantParam {
				t.Errorf("Param = %q, want %q", tt.err.Param, tt.wantParam)
			}
		})
	}
}

func TestAsAPIError(t *testing.T) {
	wrapped := fmt.Errorf("completing turn: %w", NewTooManyRequestsError("slow down"))

	apiErr, ok := AsAPIError(wrapped)
	if !ok {
		t.Fatal("AsAPIError() did not find wrapped APIError")
	}
	if apiErr.Type != ErrorTypeTooManyRequests {
		t.Errorf("Type = %q, want %q", apiErr.Type, ErrorTypeTooManyRequests)
	}

	if _, ok := AsAPIError(fmt.Errorf("plain")); ok {
		t.Error("AsAPIError() matched a plain error")
	}
}

func TestAPIErrorOmitEmpty(t *testing.T) {
	err := &APIError{Type: ErrorTypeServerError, Message: "fail"}
	data, marshalErr := json.Marshal(ErrorResponse{Error: err})
	if marshalErr != nil {
		t.Fatalf("Marshal: %v", marshalErr)
	}

	var m map[string]map[string]any
	if unmarshalErr := json.Unmarshal(data, &m); unmarshalErr != nil {
		t.Fatalf("Unmarshal: %v", unmarshalErr)
	}

	if _, ok := m["error"]["code"]; ok {
		t.Error("empty code should be omitted from JSON")
	}
	if _, ok := m["error"]["param"]; ok {
		t.Error("empty param should be omitted from JSON")
	}
}
