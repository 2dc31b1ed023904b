package tools

import (
	"context"
	"encoding/json"
	"log/slog"
	"strconv"
	"strings"
)

// ToolID names a built-in tool. The set is closed: every value below has
// exactly one descriptor registered at startup.
type ToolID string

const (
	GetUserPreferences    ToolID = "get_user_preferences"
	UpdateUserPreferences ToolID = "update_user_preferences"
	GetWeatherForLocation ToolID = "get_weather_for_location"
	SearchPlacesForDates  ToolID = "search_places_for_dates"
	ScrapeActivities      ToolID = "scrape_activities"
	SaveToSheets          ToolID = "save_to_sheets"
)

// BuiltinIDs lists the built-in tools in catalog order.
var BuiltinIDs = []ToolID{
	GetUserPreferences,
	UpdateUserPreferences,
	GetWeatherForLocation,
	SearchPlacesForDates,
	ScrapeActivities,
	SaveToSheets,
}

// Valid reports whether id is one of the built-in tools.
func (id ToolID) Valid() bool {
	for _, b := range BuiltinIDs {
		if b == id {
			return true
		}
	}
	return false
}

// Func is the callable bound to a tool name. A returned error is reported
// to the model as {"error": err.Error()}.
type Func func(ctx context.Context, args Args) (any, error)

// Descriptor is the calling contract of one tool.
type Descriptor struct {
	// Name is the tool name the model uses.
	Name string

	// DisplayName is the human-facing capability name used in advisories.
	DisplayName string

	// Description guides the model.
	Description string

	// Parameters is the JSON schema object describing the arguments.
	Parameters map[string]any

	// Required lists the required parameter names. The injector reads it
	// to find caller-scoped parameters.
	Required []string

	// Func executes the tool.
	Func Func
}

// Requires reports whether param is a required parameter.
func (d Descriptor) Requires(param string) bool {
	for _, r := range d.Required {
		if r == param {
			return true
		}
	}
	return false
}

// ToolExecutor resolves and executes tools by name. The registry is the
// production implementation.
type ToolExecutor interface {
	// Resolve returns the descriptor for name.
	Resolve(name string) (Descriptor, bool)

	// Execute runs the named tool. It never returns an error: failures,
	// panics, and unknown names become {"error": ...} results.
	Execute(ctx context.Context, name string, args Args) any

	// Catalog returns every registered descriptor in registration order.
	Catalog() []Descriptor
}

// Request is a model-proposed tool invocation.
type Request struct {
	// ID is the call identifier, unique within a turn.
	ID string

	// Name is the tool name.
	Name string

	// Arguments is the raw JSON-encoded argument string.
	Arguments string
}

// ErrorResult builds the {"error": msg} payload returned for failed calls.
func ErrorResult(msg string) map[string]any {
	return map[string]any{"error": msg}
}

// Args is the permissive key-value container produced by decoding a tool
// call's argument string.
type Args map[string]any

// DecodeArgs decodes raw into Args. Malformed or non-object input yields an
// empty map rather than an error.
func DecodeArgs(raw string) Args {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Args{}
	}
	var args Args
	if err := json.Unmarshal([]byte(raw), &args); err != nil || args == nil {
		slog.Debug("tool arguments did not decode, using empty arguments", "error", err)
		return Args{}
	}
	return args
}

// String returns the string value for key, or "".
func (a Args) String(key string) string {
	switch v := a[key].(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return ""
	}
}

// OptString returns a pointer to the non-empty string value for key.
func (a Args) OptString(key string) *string {
	s := a.String(key)
	if s == "" {
		return nil
	}
	return &s
}

// Float returns the numeric value for key. Numeric strings are accepted.
func (a Args) Float(key string) (float64, bool) {
	switch v := a[key].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

// OptFloat returns a pointer to the numeric value for key, or nil.
func (a Args) OptFloat(key string) *float64 {
	f, ok := a.Float(key)
	if !ok {
		return nil
	}
	return &f
}

// FloatOr returns the numeric value for key or def.
func (a Args) FloatOr(key string, def float64) float64 {
	if f, ok := a.Float(key); ok {
		return f
	}
	return def
}

// Bool returns the boolean value for key.
func (a Args) Bool(key string) bool {
	switch v := a[key].(type) {
	case bool:
		return v
	case string:
		b, _ := strconv.ParseBool(v)
		return b
	default:
		return false
	}
}

// Strings returns the string list for key. A single string is treated as
// a one-element list.
func (a Args) Strings(key string) []string {
	switch v := a[key].(type) {
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	case []string:
		return v
	case string:
		if v == "" {
			return nil
		}
		return []string{v}
	default:
		return nil
	}
}

// Objects returns the list of objects for key, skipping non-object items.
func (a Args) Objects(key string) []map[string]any {
	v, ok := a[key].([]any)
	if !ok {
		return nil
	}
	out := make([]map[string]any, 0, len(v))
	for _, item := range v {
		if m, ok := item.(map[string]any); ok {
			out = append(out, m)
		}
	}
	return out
}

// Object returns the nested object for key, or nil.
func (a Args) Object(key string) Args {
	m, ok := a[key].(map[string]any)
	if !ok {
		return nil
	}
	return Args(m)
}

// Has reports whether key is present with a non-null value.
func (a Args) Has(key string) bool {
	v, ok := a[key]
	return ok && v != nil
}
