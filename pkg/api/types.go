package api

import "time"

// DefaultUserID is used when a chat request names no user and no
// authenticated identity supplies one.
const DefaultUserID = "default"

// ChatRequest is the body of POST /api/chat.
type ChatRequest struct {
	Message string `json:"message" validate:"required"`
	UserID  string `json:"user_id,omitempty" validate:"omitempty,max=128"`
	Model   string `json:"model,omitempty"`
}

// ChatResponse is the result of one process_message call.
type ChatResponse struct {
	Response            string        `json:"response"`
	ToolResults         []ToolOutcome `json:"tool_results"`
	SkippedToolsMessage *string       `json:"skipped_tools_message"`
}

// ToolOutcome records one executed tool request and its decoded result.
type ToolOutcome struct {
	Tool   string `json:"tool"`
	Result any    `json:"result"`
}

// ResetRequest is the body of POST /api/chat/reset.
type ResetRequest struct {
	UserID string `json:"user_id,omitempty" validate:"omitempty,max=128"`
}

// Preferences is the stored preference record for one user.
type Preferences struct {
	UserID    string   `json:"user_id"`
	Location  *string  `json:"location"`
	Interests []string `json:"interests"`
	BudgetMin *float64 `json:"budget_min"`
	BudgetMax *float64 `json:"budget_max"`
}

// DefaultPreferences returns the record reported for a user with nothing stored.
func DefaultPreferences(userID string) Preferences {
	return Preferences{UserID: userID, Interests: []string{}}
}

// PreferencesUpdate is a partial update. Nil fields are left untouched.
type PreferencesUpdate struct {
	Location  *string  `json:"location,omitempty"`
	Interests []string `json:"interests,omitempty"`
	BudgetMin *float64 `json:"budget_min,omitempty" validate:"omitempty,gte=0"`
	BudgetMax *float64 `json:"budget_max,omitempty" validate:"omitempty,gte=0"`
}

// Apply merges the non-nil fields of u into p.
func (u PreferencesUpdate) Apply(p *Preferences) {
	if u.Location != nil {
		loc := *u.Location
		p.Location = &loc
	}
	if u.Interests != nil {
		p.Interests = append([]string{}, u.Interests...)
	}
	if u.BudgetMin != nil {
		v := *u.BudgetMin
		p.BudgetMin = &v
	}
	if u.BudgetMax != nil {
		v := *u.BudgetMax
		p.BudgetMax = &v
	}
}

// Empty reports whether the update carries no fields.
func (u PreferencesUpdate) Empty() bool {
	return u.Location == nil && u.Interests == nil && u.BudgetMin == nil && u.BudgetMax == nil
}

// HistoryMessage is one message of a saved chat.
type HistoryMessage struct {
	Role    string `json:"role" validate:"required,oneof=user assistant system"`
	Content string `json:"content"`
}

// HistoryEntry is a saved chat with its full message list.
type HistoryEntry struct {
	ID        string           `json:"id"`
	Title     string           `json:"title"`
	Messages  []HistoryMessage `json:"messages"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
}

// HistoryListItem summarizes a saved chat without its messages.
type HistoryListItem struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	MessageCount int       `json:"message_count"`
}

// HistorySave is the body of POST /api/chat-history. An empty ID creates
// a new entry.
type HistorySave struct {
	ID       string           `json:"id,omitempty"`
	Messages []HistoryMessage `json:"messages" validate:"required,dive"`
}

// HistoryTitle derives a chat title from the first user message.
func HistoryTitle(messages []HistoryMessage) string {
	for _, m := range messages {
		if m.Role != "user" {
			continue
		}
		r := []rune(m.Content)
		if len(r) > 50 {
			return string(r[:50]) + "..."
		}
		return m.Content
	}
	return "New Chat"
}

// Activity is a cached event or place suggestion.
type Activity struct {
	Name        string `json:"name"`
	Location    string `json:"location"`
	Description string `json:"description"`
	Price       string `json:"price"`
	Date        string `json:"date"`
	URL         string `json:"url"`
	Source      string `json:"source"`
	Category    string `json:"category"`
}

// CacheStats describes the activity cache.
type CacheStats struct {
	LastUpdated     *time.Time     `json:"last_updated"`
	TotalActivities int            `json:"total_activities"`
	BySource        map[string]int `json:"by_source"`
}

// RefreshResult reports one activity cache refresh.
type RefreshResult struct {
	Success         bool           `json:"success"`
	TotalActivities int            `json:"total_activities"`
	BySource        map[string]int `json:"by_source"`
	DurationSeconds float64        `json:"duration_seconds"`
	Timestamp       time.Time      `json:"timestamp"`
	Errors          []string       `json:"errors,omitempty"`
}
