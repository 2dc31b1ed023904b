// Package weather provides the get_weather_for_location tool. With the
// API enabled it queries OpenWeatherMap; otherwise it answers from a fixed
// set of fixtures so development runs cost nothing.
package weather

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/rhuss/outings/pkg/tools"
	"github.com/rhuss/outings/pkg/tools/builtins/upstream"
	"github.com/rhuss/outings/pkg/tools/registry"
)

// Config controls the weather tool.
type Config struct {
	// Enabled switches from fixtures to the live API.
	Enabled bool

	// APIKey is the OpenWeatherMap key.
	APIKey string

	// BaseURL overrides DefaultBaseURL.
	BaseURL string

	// RequestsPerSecond limits upstream calls (0 = unlimited).
	RequestsPerSecond float64

	// HTTPClient overrides the default client.
	HTTPClient *http.Client
}

// Provider contributes get_weather_for_location.
type Provider struct {
	cfg    Config
	client *upstream.Client
	now    func() time.Time
}

var _ registry.Provider = (*Provider)(nil)

// New creates the weather provider.
func New(cfg Config) *Provider {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	return &Provider{
		cfg:    cfg,
		client: upstream.NewClient("openweathermap", cfg.HTTPClient, cfg.RequestsPerSecond, 1),
		now:    time.Now,
	}
}

// Name returns the provider identifier.
func (p *Provider) Name() string { return "weather" }

// Tools returns the weather descriptor.
func (p *Provider) Tools() []tools.Descriptor {
	return []tools.Descriptor{{
		Name:        string(tools.GetWeatherForLocation),
		DisplayName: tools.DefaultDisplayNames[string(tools.GetWeatherForLocation)],
		Description: "Get current weather information for a location. Useful for determining if outdoor activities are suitable.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"location": map[string]any{
					"type":        "string",
					"description": "Location (address, city name, or coordinates as 'lat,lng')",
				},
				"date": map[string]any{
					"type":        "string",
					"description": "Optional date (format: 'YYYY-MM-DD'). Default: today",
				},
			},
			"required": []string{"location"},
		},
		Required: []string{"location"},
		Func:     p.execute,
	}}
}

// Routes returns nil.
func (p *Provider) Routes() []registry.Route { return nil }

// Collectors returns the upstream request counter.
func (p *Provider) Collectors() []prometheus.Collector {
	return []prometheus.Collector{p.client.Collector()}
}

// Close is a no-op.
func (p *Provider) Close() error { return nil }

// Lookup returns the weather report for location. Upstream failures are
// reported inside the result map, never as a Go error.
func (p *Provider) Lookup(ctx context.Context, location, date string) any {
	now := p.now()
	if date == "" {
		date = now.Format("2006-01-02")
	}

	var r Report
	if !p.cfg.Enabled {
		r = fixtureFor(location).report(location)
	} else {
		if p.cfg.APIKey == "" {
			return map[string]any{
				"error":    "OPENWEATHER_API_KEY not set. Please set it in your configuration.",
				"location": location,
			}
		}
		var err error
		r, err = current(ctx, p.client, p.cfg.BaseURL, p.cfg.APIKey, location)
		if err != nil {
			return map[string]any{
				"error":    "Failed to fetch weather data: " + err.Error(),
				"location": location,
			}
		}
	}

	r.Timestamp = now.Format(time.RFC3339)
	r.Date = date
	r.Assess()
	return r
}

func (p *Provider) execute(ctx context.Context, args tools.Args) (any, error) {
	return p.Lookup(ctx, args.String("location"), args.String("date")), nil
}
