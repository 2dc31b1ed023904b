// Package memory provides in-memory implementations of storage.Store and
// storage.ActivityCache for tests and single-process deployments. Data is
// lost when the process restarts. An optional limit evicts the least
// recently updated chat histories.
package memory

import (
	"container/list"
	"context"
	"sort"
	"sync"
	"time"

	"github.com/rhuss/outings/pkg/api"
	"github.com/rhuss/outings/pkg/storage"
)

// historyEntry holds a saved chat and its position in the LRU list.
type historyEntry struct {
	entry   api.HistoryEntry
	lruElem *list.Element
}

// Store is an in-memory preference and history store.
type Store struct {
	mu         sync.RWMutex
	prefs      map[string]api.Preferences
	histories  map[string]*historyEntry
	lruList    *list.List // front = most recently updated
	maxHistory int        // 0 = unlimited
	now        func() time.Time
}

var _ storage.Store = (*Store)(nil)

// New creates an empty store. If maxHistory > 0, saving a new history
// beyond that count evicts the least recently updated one.
func New(maxHistory int) *Store {
	return &Store{
		prefs:      make(map[string]api.Preferences),
		histories:  make(map[string]*historyEntry),
		lruList:    list.New(),
		maxHistory: maxHistory,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// GetPreferences returns a copy of the stored record or the defaults.
func (s *Store) GetPreferences(_ context.Context, userID string) (api.Preferences, error) {
	if userID == "" {
		return api.Preferences{}, storage.ErrInvalidUser
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.prefs[userID]
	if !ok {
		return api.DefaultPreferences(userID), nil
	}
	return clonePreferences(p), nil
}

// UpdatePreferences merges u into the stored record, creating it if needed.
func (s *Store) UpdatePreferences(_ context.Context, userID string, u api.PreferencesUpdate) (api.Preferences, error) {
	if userID == "" {
		return api.Preferences{}, storage.ErrInvalidUser
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.prefs[userID]
	if !ok {
		p = api.DefaultPreferences(userID)
	}
	u.Apply(&p)
	s.prefs[userID] = p
	return clonePreferences(p), nil
}

// ListUsers returns the stored user ids in sorted order.
func (s *Store) ListUsers(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make([]string, 0, len(s.prefs))
	for id := range s.prefs {
		users = append(users, id)
	}
	sort.Strings(users)
	return users, nil
}

// ListHistory returns all histories, most recently updated first.
func (s *Store) ListHistory(_ context.Context) ([]api.HistoryListItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]api.HistoryListItem, 0, len(s.histories))
	for _, h := range s.histories {
		items = append(items, api.HistoryListItem{
			ID:           h.entry.ID,
			Title:        h.entry.Title,
			CreatedAt:    h.entry.CreatedAt,
			UpdatedAt:    h.entry.UpdatedAt,
			MessageCount: len(h.entry.Messages),
		})
	}
	sort.Slice(items, func(i, j int) bool {
		if !items[i].UpdatedAt.Equal(items[j].UpdatedAt) {
			return items[i].UpdatedAt.After(items[j].UpdatedAt)
		}
		return items[i].ID > items[j].ID
	})
	return items, nil
}

// GetHistory returns a copy of one history.
func (s *Store) GetHistory(_ context.Context, id string) (*api.HistoryEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	h, ok := s.histories[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	e := cloneHistory(h.entry)
	return &e, nil
}

// SaveHistory creates or replaces a history. The title is derived from the
// first user message on every save.
func (s *Store) SaveHistory(_ context.Context, save api.HistorySave) (*api.HistoryEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	id := save.ID
	if id == "" {
		id = api.NewHistoryID()
	}
	msgs := append([]api.HistoryMessage{}, save.Messages...)

	if h, ok := s.histories[id]; ok {
		h.entry.Messages = msgs
		h.entry.Title = api.HistoryTitle(msgs)
		h.entry.UpdatedAt = now
		s.lruList.MoveToFront(h.lruElem)
		e := cloneHistory(h.entry)
		return &e, nil
	}

	if s.maxHistory > 0 && len(s.histories) >= s.maxHistory {
		s.evictOldest()
	}

	h := &historyEntry{
		entry: api.HistoryEntry{
			ID:        id,
			Title:     api.HistoryTitle(msgs),
			Messages:  msgs,
			CreatedAt: now,
			UpdatedAt: now,
		},
		lruElem: s.lruList.PushFront(id),
	}
	s.histories[id] = h
	e := cloneHistory(h.entry)
	return &e, nil
}

// DeleteHistory removes one history.
func (s *Store) DeleteHistory(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	h, ok := s.histories[id]
	if !ok {
		return storage.ErrNotFound
	}
	s.lruList.Remove(h.lruElem)
	delete(s.histories, id)
	return nil
}

// ClearHistory removes every history.
func (s *Store) ClearHistory(_ context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := len(s.histories)
	s.histories = make(map[string]*historyEntry)
	s.lruList.Init()
	return n, nil
}

// HealthCheck always returns nil for the in-memory store.
func (s *Store) HealthCheck(_ context.Context) error {
	return nil
}

// Close is a no-op for the in-memory store.
func (s *Store) Close() error {
	return nil
}

// evictOldest removes the least recently updated history.
// Must be called with s.mu held.
func (s *Store) evictOldest() {
	back := s.lruList.Back()
	if back == nil {
		return
	}
	id := back.Value.(string)
	s.lruList.Remove(back)
	delete(s.histories, id)
}

func clonePreferences(p api.Preferences) api.Preferences {
	out := p
	out.Interests = append([]string{}, p.Interests...)
	if p.Location != nil {
		v := *p.Location
		out.Location = &v
	}
	if p.BudgetMin != nil {
		v := *p.BudgetMin
		out.BudgetMin = &v
	}
	if p.BudgetMax != nil {
		v := *p.BudgetMax
		out.BudgetMax = &v
	}
	return out
}

func cloneHistory(e api.HistoryEntry) api.HistoryEntry {
	out := e
	out.Messages = append([]api.HistoryMessage{}, e.Messages...)
	return out
}
