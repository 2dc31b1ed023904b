package scripted

// Call is a scripted tool request.
type Call struct {
	Name string
	Args map[string]any
}

// Scenario is one canned exchange: the tool requests issued on the first
// round of a message, and the text returned afterwards.
type Scenario struct {
	Text  string
	Calls []Call
}

// WithTools are scenarios that request tools before answering.
var WithTools = []Scenario{
	{
		Text: "I found some great activities for you! There's a lovely hiking trail at Sunset Ridge Park, a pottery class downtown, and a new escape room that just opened. Would you like me to save these to a spreadsheet?",
		Calls: []Call{
			{Name: "get_user_preferences", Args: map[string]any{"user_id": "default"}},
			{Name: "scrape_activities", Args: map[string]any{"query": "fun activities", "location_a": "San Francisco"}},
		},
	},
	{
		Text: "The weather looks perfect for outdoor activities this weekend! It'll be sunny with highs around 72°F. I'd recommend checking out the farmers market or having a picnic at Golden Gate Park.",
		Calls: []Call{
			{Name: "get_weather_for_location", Args: map[string]any{"location": "San Francisco, CA"}},
		},
	},
	{
		Text: "I've found some wonderful date spots between your two locations! There's a cozy wine bar, an art gallery with a new exhibit, and a rooftop restaurant with amazing views.",
		Calls: []Call{
			{Name: "search_places_for_dates", Args: map[string]any{
				"location1":   "San Francisco, CA",
				"location2":   "Oakland, CA",
				"place_types": []any{"cafe", "restaurant", "park"},
			}},
		},
	},
	{
		Text: "I've saved those activities to your spreadsheet! You can access it anytime to review your saved ideas.",
		Calls: []Call{
			{Name: "save_to_sheets", Args: map[string]any{
				"activities":     []any{map[string]any{"name": "Test Activity", "location": "SF"}},
				"spreadsheet_id": "mock-sheet-id",
			}},
		},
	},
	{
		Text: "I've updated your preferences! I'll keep your love for outdoor activities and Italian food in mind for future recommendations.",
		Calls: []Call{
			{Name: "update_user_preferences", Args: map[string]any{
				"user_id":   "default",
				"interests": []any{"outdoor", "food"},
			}},
		},
	},
	{
		Text: "Based on your preferences and the nice weather forecast, I recommend the outdoor concert series at the amphitheater this Saturday. It's supposed to be 68°F and clear skies!",
		Calls: []Call{
			{Name: "get_user_preferences", Args: map[string]any{"user_id": "default"}},
			{Name: "get_weather_for_location", Args: map[string]any{"location": "San Francisco, CA"}},
			{Name: "scrape_activities", Args: map[string]any{"query": "outdoor concert", "location_a": "San Francisco"}},
		},
	},
}

// NoTools are scenarios that answer directly.
var NoTools = []Scenario{
	{Text: "Great question! I'd be happy to help you find some fun things to do. What kind of activities are you interested in? Are you looking for outdoor adventures, arts and culture, food experiences, or something else?"},
	{Text: "Sure! To give you the best recommendations, could you tell me a bit about what you're in the mood for? Something active, relaxing, or maybe a mix of both?"},
	{Text: "I can help with that! Are you planning something for just yourself, a date, or a group outing? That'll help me tailor my suggestions."},
}

// DefaultScenarios returns the combined catalog: tool scenarios first.
func DefaultScenarios() []Scenario {
	out := make([]Scenario, 0, len(WithTools)+len(NoTools))
	out = append(out, WithTools...)
	out = append(out, NoTools...)
	return out
}
