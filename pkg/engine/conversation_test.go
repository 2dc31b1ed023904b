package engine

import (
	"strings"
	"testing"

	"github.com/rhuss/outings/pkg/api"
	"github.com/rhuss/outings/pkg/provider"
)

func TestConversationReset(t *testing.T) {
	conv := NewConversation(provider.Message{Role: provider.RoleSystem, Content: "sys"})
	conv.Append(provider.Message{Role: provider.RoleUser, Content: "hi"})
	if conv.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", conv.Len())
	}

	conv.Reset()
	if conv.Len() != 1 || conv.Messages()[0].Content != "sys" {
		t.Errorf("Reset() should restore the seed, got %+v", conv.Messages())
	}

	conv.Reset(provider.Message{Role: provider.RoleSystem, Content: "new"})
	if conv.Messages()[0].Content != "new" {
		t.Errorf("Reset(seed) should replace the seed")
	}
}

func TestConversationMessagesIsCopy(t *testing.T) {
	conv := NewConversation(provider.Message{Role: provider.RoleSystem, Content: "sys"})
	msgs := conv.Messages()
	msgs[0].Content = "mutated"
	if conv.Messages()[0].Content != "sys" {
		t.Error("Messages() must return a copy")
	}
}

func TestSeed(t *testing.T) {
	loc := "Brooklyn"
	prefs := api.DefaultPreferences("alice")
	prefs.Location = &loc

	seed := Seed(prefs)
	if len(seed) != 2 {
		t.Fatalf("Seed() returned %d messages", len(seed))
	}
	if seed[0].Content != SystemPrompt {
		t.Error("first seed message should be the system prompt")
	}
	if !strings.Contains(seed[1].Content, `"location":"Brooklyn"`) {
		t.Errorf("snapshot = %q", seed[1].Content)
	}
}
