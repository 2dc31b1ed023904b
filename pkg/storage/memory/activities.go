package memory

import (
	"context"
	"sync"
	"time"

	"github.com/rhuss/outings/pkg/api"
	"github.com/rhuss/outings/pkg/storage"
)

// ActivityCache is an in-memory storage.ActivityCache.
type ActivityCache struct {
	mu         sync.RWMutex
	activities []api.Activity
	updated    *time.Time
}

var _ storage.ActivityCache = (*ActivityCache)(nil)

// NewActivityCache returns an empty cache.
func NewActivityCache() *ActivityCache {
	return &ActivityCache{}
}

// Replace swaps the cached set.
func (c *ActivityCache) Replace(_ context.Context, activities []api.Activity, updated time.Time) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.activities = append([]api.Activity{}, activities...)
	c.updated = &updated
	return nil
}

// All returns a copy of the cached activities.
func (c *ActivityCache) All(_ context.Context) ([]api.Activity, *time.Time, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var updated *time.Time
	if c.updated != nil {
		t := *c.updated
		updated = &t
	}
	return append([]api.Activity{}, c.activities...), updated, nil
}

// Stats summarizes the cache.
func (c *ActivityCache) Stats(ctx context.Context) (api.CacheStats, error) {
	all, updated, err := c.All(ctx)
	if err != nil {
		return api.CacheStats{}, err
	}
	return storage.ComputeStats(all, updated), nil
}

// Close is a no-op.
func (c *ActivityCache) Close() error {
	return nil
}
