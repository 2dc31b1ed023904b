package storage

import (
	"context"
	"time"

	"github.com/rhuss/outings/pkg/api"
)

// PreferenceStore persists per-user preference records.
type PreferenceStore interface {
	// GetPreferences returns the stored record, or the defaults for a user
	// with nothing stored. It never creates a record.
	GetPreferences(ctx context.Context, userID string) (api.Preferences, error)

	// UpdatePreferences applies the non-nil fields of u, creating the
	// record first when missing, and returns the merged result.
	UpdatePreferences(ctx context.Context, userID string, u api.PreferencesUpdate) (api.Preferences, error)

	// ListUsers returns the ids of all users with a stored record, sorted.
	ListUsers(ctx context.Context) ([]string, error)
}

// HistoryStore persists saved chat transcripts.
type HistoryStore interface {
	// ListHistory returns all entries without messages, most recently
	// updated first.
	ListHistory(ctx context.Context) ([]api.HistoryListItem, error)

	// GetHistory returns one entry or ErrNotFound.
	GetHistory(ctx context.Context, id string) (*api.HistoryEntry, error)

	// SaveHistory upserts an entry. An empty id creates a new entry.
	SaveHistory(ctx context.Context, save api.HistorySave) (*api.HistoryEntry, error)

	// DeleteHistory removes one entry or returns ErrNotFound.
	DeleteHistory(ctx context.Context, id string) error

	// ClearHistory removes every entry and returns how many were removed.
	ClearHistory(ctx context.Context) (int, error)
}

// Store is a backend serving both preferences and chat history.
type Store interface {
	PreferenceStore
	HistoryStore

	HealthCheck(ctx context.Context) error
	Close() error
}

// ActivityCache holds the most recent scrape of activity sources. A refresh
// replaces the whole set.
type ActivityCache interface {
	// Replace swaps the cached activities for the given set.
	Replace(ctx context.Context, activities []api.Activity, updated time.Time) error

	// All returns every cached activity in insertion order and the time of
	// the last refresh (nil when the cache was never filled).
	All(ctx context.Context) ([]api.Activity, *time.Time, error)

	// Stats summarizes the cache contents.
	Stats(ctx context.Context) (api.CacheStats, error)

	Close() error
}

// ComputeStats builds CacheStats from a snapshot of the cache.
func ComputeStats(activities []api.Activity, updated *time.Time) api.CacheStats {
	bySource := make(map[string]int)
	for _, a := range activities {
		bySource[a.Source]++
	}
	return api.CacheStats{
		LastUpdated:     updated,
		TotalActivities: len(activities),
		BySource:        bySource,
	}
}
