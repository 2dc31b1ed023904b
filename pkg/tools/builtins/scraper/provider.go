// Package scraper provides the scrape_activities tool over the activity
// cache, plus the cache statistics and manual refresh endpoints.
package scraper

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/rhuss/outings/pkg/activities"
	"github.com/rhuss/outings/pkg/api"
	"github.com/rhuss/outings/pkg/storage"
	"github.com/rhuss/outings/pkg/tools"
	"github.com/rhuss/outings/pkg/tools/registry"
)

// Provider contributes scrape_activities and the cache routes.
type Provider struct {
	cache     storage.ActivityCache
	refresher *activities.Refresher
}

var _ registry.Provider = (*Provider)(nil)

// New creates the provider. refresher may be nil, in which case
// POST /api/scrape is not served.
func New(cache storage.ActivityCache, refresher *activities.Refresher) *Provider {
	return &Provider{cache: cache, refresher: refresher}
}

// Name returns the provider identifier.
func (p *Provider) Name() string { return "scraper" }

// Tools returns the scrape_activities descriptor.
func (p *Provider) Tools() []tools.Descriptor {
	return []tools.Descriptor{{
		Name:        string(tools.ScrapeActivities),
		DisplayName: tools.DefaultDisplayNames[string(tools.ScrapeActivities)],
		Description: "Search for activities and events in NYC from cached event listings. Returns events matching the query and filters.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"query": map[string]any{
					"type":        "string",
					"description": "Search query for activities (e.g., 'free comedy', 'outdoor events', 'live music', 'art gallery')",
				},
				"location_a": map[string]any{
					"type":        "string",
					"description": "Primary location/neighborhood (e.g., 'Brooklyn', 'Manhattan', 'East Village')",
				},
				"location_b": map[string]any{
					"type":        "string",
					"description": "Optional second location for finding activities in a broader area",
				},
				"filters": map[string]any{
					"type":        "object",
					"description": "Optional filters",
					"properties": map[string]any{
						"category": map[string]any{
							"type":        "string",
							"description": "Activity category (e.g., 'Music', 'Comedy', 'Arts', 'Food & Drink', 'Outdoor', 'Theater')",
						},
						"max_price": map[string]any{
							"type":        "number",
							"description": "Maximum price in dollars (events marked 'Free' are always included)",
						},
						"source": map[string]any{
							"type":        "string",
							"description": "Filter by source feed name",
						},
					},
				},
			},
			"required": []string{"query"},
		},
		Required: []string{"query"},
		Func:     p.execute,
	}}
}

// Routes exposes cache statistics and, with a refresher, manual refresh.
func (p *Provider) Routes() []registry.Route {
	routes := []registry.Route{
		{Method: http.MethodGet, Pattern: "/api/activities/cache", Handler: p.handleStats},
	}
	if p.refresher != nil {
		routes = append(routes, registry.Route{Method: http.MethodPost, Pattern: "/api/scrape", Handler: p.handleScrape})
	}
	return routes
}

// Collectors returns nil; refresh metrics live in observability.
func (p *Provider) Collectors() []prometheus.Collector { return nil }

// Close is a no-op. The cache is owned by the caller.
func (p *Provider) Close() error { return nil }

func (p *Provider) execute(ctx context.Context, args tools.Args) (any, error) {
	q := activities.Query{
		Query:     args.String("query"),
		LocationA: args.String("location_a"),
		LocationB: args.String("location_b"),
	}
	if f := args.Object("filters"); f != nil {
		q.Filters = activities.Filters{
			Category: f.String("category"),
			MaxPrice: f.OptFloat("max_price"),
			Source:   f.String("source"),
		}
	}
	return activities.Search(ctx, p.cache, q)
}

func (p *Provider) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := p.cache.Stats(r.Context())
	if err != nil {
		slog.Error("reading activity cache stats", "error", err)
		writeJSON(w, http.StatusInternalServerError, api.ErrorResponse{Error: api.NewServerError("failed to read activity cache")})
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (p *Provider) handleScrape(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, p.refresher.Refresh(r.Context()))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
