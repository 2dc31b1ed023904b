// Package session keeps one orchestrator conversation per user and
// serializes turns within a conversation.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/rhuss/outings/pkg/api"
	"github.com/rhuss/outings/pkg/debug"
	"github.com/rhuss/outings/pkg/engine"
	"github.com/rhuss/outings/pkg/provider"
	"github.com/rhuss/outings/pkg/storage"
	"github.com/rhuss/outings/pkg/tools"
)

// session pairs a conversation with a lock. The lock is a one-slot
// channel so acquisition can be abandoned when the context ends.
type session struct {
	lock chan struct{}
	conv *engine.Conversation
}

func (s *session) acquire(ctx context.Context) error {
	select {
	case s.lock <- struct{}{}:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("session lock: %w", ctx.Err())
	}
}

func (s *session) release() {
	<-s.lock
}

// Manager owns the per-user conversations.
type Manager struct {
	engine *engine.Engine
	prefs  storage.PreferenceStore

	mu       sync.Mutex
	sessions map[string]*session
}

// NewManager creates a Manager. Sessions are seeded from prefs when first
// used.
func NewManager(eng *engine.Engine, prefs storage.PreferenceStore) *Manager {
	return &Manager{
		engine:   eng,
		prefs:    prefs,
		sessions: make(map[string]*session),
	}
}

// Process runs one user message through the engine on the user's
// conversation. Calls for the same user run one at a time.
func (m *Manager) Process(ctx context.Context, userID, text, model string) (*engine.Result, error) {
	s, err := m.get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := s.acquire(ctx); err != nil {
		return nil, err
	}
	defer s.release()

	return m.engine.ProcessMessage(ctx, s.conv, tools.Scope{UserID: userID}, text, model)
}

// ChatFailedMessage is the only detail a client sees when a turn fails.
const ChatFailedMessage = "Sorry, the assistant could not complete your request. Please try again later."

// Chat adapts Process to the transport layer's request and response types.
// Failures are logged in full and reported as a generic server_error, so
// backend URLs, keys and upstream messages stay out of the response.
func (m *Manager) Chat(ctx context.Context, req *api.ChatRequest) (*api.ChatResponse, error) {
	res, err := m.Process(ctx, req.UserID, req.Message, req.Model)
	if err != nil {
		slog.Error("process message failed",
			"user_id", req.UserID,
			"model", req.Model,
			"error", err,
		)
		return nil, api.NewServerError(ChatFailedMessage)
	}
	return res.ChatResponse(), nil
}

// Reset re-seeds the user's conversation with a fresh preferences snapshot.
// It is a no-op for users without a session.
func (m *Manager) Reset(ctx context.Context, userID string) error {
	m.mu.Lock()
	s, ok := m.sessions[userID]
	m.mu.Unlock()
	if !ok {
		return nil
	}

	seed, err := m.seed(ctx, userID)
	if err != nil {
		return err
	}
	if err := s.acquire(ctx); err != nil {
		return err
	}
	defer s.release()

	s.conv.Reset(seed...)
	debug.Log("loop", "session reset", "user", userID)
	return nil
}

// Drop forgets the user's conversation.
func (m *Manager) Drop(userID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, userID)
}

// Users returns the ids with a live session, sorted.
func (m *Manager) Users() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Len returns the number of messages in the user's conversation, or 0.
func (m *Manager) Len(userID string) int {
	m.mu.Lock()
	s, ok := m.sessions[userID]
	m.mu.Unlock()
	if !ok {
		return 0
	}
	return s.conv.Len()
}

func (m *Manager) get(ctx context.Context, userID string) (*session, error) {
	m.mu.Lock()
	s, ok := m.sessions[userID]
	m.mu.Unlock()
	if ok {
		return s, nil
	}

	seed, err := m.seed(ctx, userID)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[userID]; ok {
		return s, nil
	}
	s = &session{
		lock: make(chan struct{}, 1),
		conv: engine.NewConversation(seed...),
	}
	m.sessions[userID] = s
	debug.Log("loop", "session created", "user", userID)
	return s, nil
}

func (m *Manager) seed(ctx context.Context, userID string) ([]provider.Message, error) {
	prefs, err := m.prefs.GetPreferences(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("loading preferences for %s: %w", userID, err)
	}
	return engine.Seed(prefs), nil
}
