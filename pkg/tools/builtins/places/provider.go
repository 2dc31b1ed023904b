// Package places provides the search_places_for_dates tool and the
// preference-driven activity fetcher behind GET /api/activities. Live
// searches use the Google Maps Directions, Geocoding and Places web
// services; with the API disabled both answer from stub fixtures.
package places

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/rhuss/outings/pkg/storage"
	"github.com/rhuss/outings/pkg/tools"
	"github.com/rhuss/outings/pkg/tools/builtins/upstream"
	"github.com/rhuss/outings/pkg/tools/registry"
)

// WeatherLookup attaches weather to outdoor results when check_weather is set.
type WeatherLookup interface {
	Lookup(ctx context.Context, location, date string) any
}

// Config controls the places tool.
type Config struct {
	// Enabled switches from fixtures to the live API.
	Enabled bool

	// APIKey is the Google Maps key.
	APIKey string

	// BaseURL overrides DefaultBaseURL.
	BaseURL string

	// RequestsPerSecond limits upstream calls (0 = unlimited).
	RequestsPerSecond float64

	// HTTPClient overrides the default client.
	HTTPClient *http.Client
}

// Provider contributes search_places_for_dates and GET /api/activities.
type Provider struct {
	cfg     Config
	client  *upstream.Client
	maps    *mapsClient
	prefs   storage.PreferenceStore
	weather WeatherLookup
}

var _ registry.Provider = (*Provider)(nil)

// New creates the places provider. prefs backs the activity fetcher and
// weather, when non-nil, serves check_weather.
func New(cfg Config, prefs storage.PreferenceStore, weather WeatherLookup) *Provider {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	client := upstream.NewClient("google_maps", cfg.HTTPClient, cfg.RequestsPerSecond, 5)
	return &Provider{
		cfg:     cfg,
		client:  client,
		maps:    &mapsClient{http: client, baseURL: cfg.BaseURL, key: cfg.APIKey},
		prefs:   prefs,
		weather: weather,
	}
}

// Name returns the provider identifier.
func (p *Provider) Name() string { return "places" }

// Tools returns the search_places_for_dates descriptor.
func (p *Provider) Tools() []tools.Descriptor {
	return []tools.Descriptor{{
		Name:        string(tools.SearchPlacesForDates),
		DisplayName: tools.DefaultDisplayNames[string(tools.SearchPlacesForDates)],
		Description: "Search for date activities near one location or between two locations using Google Maps. " +
			"For transit-friendly cities it searches along the transit stops between the two locations, " +
			"otherwise around their midpoint. Finds places like coffee shops, restaurants, parks, and attractions.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"location1": map[string]any{
					"type":        "string",
					"description": "First location (address or coordinates as 'lat,lng')",
				},
				"location2": map[string]any{
					"type":        "string",
					"description": "Optional second location. When omitted, searches near location1",
				},
				"place_types": map[string]any{
					"type":        "array",
					"items":       map[string]any{"type": "string"},
					"description": "Place types to search (e.g., ['cafe', 'restaurant', 'park', 'tourist_attraction'])",
				},
				"price_level": map[string]any{
					"type":        "integer",
					"minimum":     0,
					"maximum":     4,
					"description": "Maximum price level (0-4)",
				},
				"min_rating": map[string]any{
					"type":        "number",
					"description": "Minimum rating (default: 4.0)",
				},
				"radius": map[string]any{
					"type":        "number",
					"description": "Search radius in miles per search point (default: 0.5)",
				},
				"check_weather": map[string]any{
					"type":        "boolean",
					"description": "Attach current weather to each result",
				},
				"user_interests": map[string]any{
					"type":        "array",
					"items":       map[string]any{"type": "string"},
					"description": "User interests used to match reviews",
				},
			},
			"required": []string{"location1"},
		},
		Required: []string{"location1"},
		Func:     p.execute,
	}}
}

// Routes exposes the activity fetcher.
func (p *Provider) Routes() []registry.Route {
	if p.prefs == nil {
		return nil
	}
	return []registry.Route{
		{Method: http.MethodGet, Pattern: "/api/activities", Handler: p.handleActivities},
	}
}

// Collectors returns the upstream request counter.
func (p *Provider) Collectors() []prometheus.Collector {
	return []prometheus.Collector{p.client.Collector()}
}

// Close is a no-op.
func (p *Provider) Close() error { return nil }

func (p *Provider) execute(ctx context.Context, args tools.Args) (any, error) {
	q := Query{
		Location1:     args.String("location1"),
		Location2:     args.String("location2"),
		PlaceTypes:    args.Strings("place_types"),
		MinRating:     args.FloatOr("min_rating", 4.0),
		RadiusMiles:   args.FloatOr("radius", 0.5),
		CheckWeather:  args.Bool("check_weather"),
		UserInterests: args.Strings("user_interests"),
	}
	if lvl, ok := args.Float("price_level"); ok {
		l := int(lvl)
		q.PriceLevel = &l
	}
	return p.Search(ctx, q), nil
}
