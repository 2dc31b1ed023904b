package engine

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rhuss/outings/pkg/api"
	"github.com/rhuss/outings/pkg/provider"
)

// SystemPrompt is the preamble every session starts with.
const SystemPrompt = `You are a helpful assistant that discovers fun activities and date ideas personalized to each user's preferences.

Your capabilities:
1. Look up and update user preferences (get_user_preferences, update_user_preferences)
2. Check the weather for a location (get_weather_for_location)
3. Find places between two locations or near one (search_places_for_dates)
4. Search recently collected local events (scrape_activities)
5. Save activities to a Google Sheets spreadsheet (save_to_sheets)

When a user asks for activities:
- First check their preferences using get_user_preferences
- Use those preferences to search for relevant activities
- Present activities in a friendly, engaging way
- Offer to save activities to a spreadsheet when appropriate

Be conversational, helpful, and proactive in suggesting activities based on user preferences.`

// Fallback texts returned when the model yields nothing usable.
const (
	NoResponseText    = "I couldn't generate a response."
	NoUsableTurnText  = "I'm sorry, I couldn't process your request right now. Please try again."
	RecoveryFailText  = "I'm sorry, I couldn't complete that request because the tools it needs are unavailable. Please try asking in a different way."
	SummaryFailText   = "I gathered some information but couldn't put together a summary. Please try asking again."
	summaryInstructed = "You have used all available tool rounds for this message. Do not request any more tools. Summarize everything gathered so far into a helpful answer for the user."
)

// Seed returns the system prompt and a preferences snapshot message.
func Seed(prefs api.Preferences) []provider.Message {
	return []provider.Message{
		{Role: provider.RoleSystem, Content: SystemPrompt},
		PreferencesSnapshot(prefs),
	}
}

// PreferencesSnapshot renders the user's stored preferences as a system message.
func PreferencesSnapshot(prefs api.Preferences) provider.Message {
	data, err := json.Marshal(prefs)
	if err != nil {
		data = []byte("{}")
	}
	return provider.Message{
		Role:    provider.RoleSystem,
		Content: "Current user preferences: " + string(data),
	}
}

// recoveryNote tells the model which tools were unavailable and asks for an
// answer from general knowledge.
func recoveryNote(displayNames []string) provider.Message {
	return provider.Message{
		Role: provider.RoleSystem,
		Content: fmt.Sprintf(
			"The following tools are currently unavailable: %s. Do not call them. Answer the user's last message from your general knowledge instead.",
			strings.Join(displayNames, ", "),
		),
	}
}

// summaryNote asks the model to wrap up after the round budget is spent.
func summaryNote() provider.Message {
	return provider.Message{Role: provider.RoleSystem, Content: summaryInstructed}
}
