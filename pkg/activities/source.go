package activities

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rhuss/outings/pkg/api"
)

// Source produces a fresh set of activities.
type Source interface {
	Name() string
	Fetch(ctx context.Context) ([]api.Activity, error)
}

// FeedSource reads a JSON array of activities from a URL.
type FeedSource struct {
	name   string
	url    string
	client *http.Client
}

// NewFeedSource creates a FeedSource. A nil client gets a 30s timeout.
func NewFeedSource(name, url string, client *http.Client) *FeedSource {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &FeedSource{name: name, url: url, client: client}
}

// Name returns the configured source name.
func (f *FeedSource) Name() string { return f.name }

// Fetch downloads and decodes the feed. Items without a name are skipped
// and items without a source are attributed to this feed.
func (f *FeedSource) Fetch(ctx context.Context) ([]api.Activity, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", f.name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("fetching %s: HTTP %d: %s", f.name, resp.StatusCode, body)
	}

	var items []api.Activity
	if err := json.NewDecoder(io.LimitReader(resp.Body, 16<<20)).Decode(&items); err != nil {
		return nil, fmt.Errorf("decoding %s feed: %w", f.name, err)
	}

	out := make([]api.Activity, 0, len(items))
	for _, a := range items {
		if a.Name == "" {
			continue
		}
		if a.Source == "" {
			a.Source = f.name
		}
		out = append(out, a)
	}
	return out, nil
}
