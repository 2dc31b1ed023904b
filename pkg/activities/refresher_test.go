package activities

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rhuss/outings/pkg/api"
	"github.com/rhuss/outings/pkg/storage/memory"
)

type staticSource struct {
	name  string
	items []api.Activity
	err   error
	calls atomic.Int32
}

func (s *staticSource) Name() string { return s.name }

func (s *staticSource) Fetch(context.Context) ([]api.Activity, error) {
	s.calls.Add(1)
	return s.items, s.err
}

func TestRefresh_ReplacesCache(t *testing.T) {
	cache := memory.NewActivityCache()
	r := NewRefresher(cache, []Source{
		&staticSource{name: "a", items: []api.Activity{{Name: "x", Source: "a"}, {Name: "y", Source: "a"}}},
		&staticSource{name: "b", items: []api.Activity{{Name: "z", Source: "b"}}},
	}, nil)

	res := r.Refresh(context.Background())
	assert.True(t, res.Success)
	assert.Equal(t, 3, res.TotalActivities)
	assert.Equal(t, map[string]int{"a": 2, "b": 1}, res.BySource)
	assert.Empty(t, res.Errors)

	all, updated, err := cache.All(context.Background())
	require.NoError(t, err)
	assert.Len(t, all, 3)
	require.NotNil(t, updated)
	assert.True(t, updated.Equal(res.Timestamp))
}

func TestRefresh_PartialFailure(t *testing.T) {
	cache := memory.NewActivityCache()
	r := NewRefresher(cache, []Source{
		&staticSource{name: "good", items: []api.Activity{{Name: "x", Source: "good"}}},
		&staticSource{name: "bad", err: errors.New("timeout")},
	}, nil)

	res := r.Refresh(context.Background())
	assert.True(t, res.Success)
	assert.Equal(t, 1, res.TotalActivities)
	require.Len(t, res.Errors, 1)
	assert.Contains(t, res.Errors[0], "bad: timeout")
}

func TestRefresh_AllSourcesFailKeepsCache(t *testing.T) {
	cache := memory.NewActivityCache()
	require.NoError(t, cache.Replace(context.Background(), []api.Activity{{Name: "old"}}, time.Now()))

	r := NewRefresher(cache, []Source{&staticSource{name: "bad", err: errors.New("down")}}, nil)
	res := r.Refresh(context.Background())
	assert.False(t, res.Success)

	all, _, err := cache.All(context.Background())
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "old", all[0].Name)
}

func TestStart_RunsImmediately(t *testing.T) {
	src := &staticSource{name: "a", items: []api.Activity{{Name: "x"}}}
	r := NewRefresher(memory.NewActivityCache(), []Source{src}, nil)

	require.NoError(t, r.Start(context.Background(), "1h"))
	defer r.Stop()

	assert.Eventually(t, func() bool { return src.calls.Load() >= 1 }, 2*time.Second, 10*time.Millisecond)
	assert.Error(t, r.Start(context.Background(), "1h"), "second Start should fail")
}

func TestParseSchedule(t *testing.T) {
	for _, s := range []string{"*/5 * * * *", "@hourly", "10m"} {
		_, err := ParseSchedule(s)
		assert.NoError(t, err, s)
	}
	for _, s := range []string{"", "often", "-5m"} {
		_, err := ParseSchedule(s)
		assert.Error(t, err, s)
	}
}

func TestFeedSource(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[
			{"name":"Jazz","price":"$10"},
			{"name":"","price":"skip me"},
			{"name":"Art","source":"custom"}
		]`))
	}))
	defer srv.Close()

	items, err := NewFeedSource("feed", srv.URL, nil).Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "feed", items[0].Source)
	assert.Equal(t, "custom", items[1].Source)
}

func TestFeedSource_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := NewFeedSource("feed", srv.URL, srv.Client()).Fetch(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HTTP 502")
}
