// Package preferences exposes the preference store to the model as the
// get_user_preferences and update_user_preferences tools.
package preferences

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/rhuss/outings/pkg/api"
	"github.com/rhuss/outings/pkg/storage"
	"github.com/rhuss/outings/pkg/tools"
	"github.com/rhuss/outings/pkg/tools/registry"
)

// Provider contributes the preference tools.
type Provider struct {
	store storage.PreferenceStore
}

var _ registry.Provider = (*Provider)(nil)

// New creates a preferences provider backed by store.
func New(store storage.PreferenceStore) *Provider {
	return &Provider{store: store}
}

// Name returns the provider identifier.
func (p *Provider) Name() string { return "preferences" }

// Tools returns the get and update descriptors.
func (p *Provider) Tools() []tools.Descriptor {
	userID := map[string]any{
		"type":        "string",
		"description": "The user's unique identifier",
	}
	return []tools.Descriptor{
		{
			Name:        string(tools.GetUserPreferences),
			DisplayName: tools.DefaultDisplayNames[string(tools.GetUserPreferences)],
			Description: "Get user preferences including location, interests, and budget",
			Parameters: map[string]any{
				"type":       "object",
				"properties": map[string]any{"user_id": userID},
				"required":   []string{tools.ParamUserID},
			},
			Required: []string{tools.ParamUserID},
			Func:     p.get,
		},
		{
			Name:        string(tools.UpdateUserPreferences),
			DisplayName: tools.DefaultDisplayNames[string(tools.UpdateUserPreferences)],
			Description: "Update user preferences. Only provide fields that should be updated.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"user_id": userID,
					"location": map[string]any{
						"type":        "string",
						"description": "Preferred location (city, neighborhood, etc.)",
					},
					"interests": map[string]any{
						"type":        "array",
						"items":       map[string]any{"type": "string"},
						"description": "List of interests (e.g., ['outdoor', 'art', 'music'])",
					},
					"budget_min": map[string]any{
						"type":        "number",
						"description": "Minimum budget in dollars",
					},
					"budget_max": map[string]any{
						"type":        "number",
						"description": "Maximum budget in dollars",
					},
				},
				"required": []string{tools.ParamUserID},
			},
			Required: []string{tools.ParamUserID},
			Func:     p.update,
		},
	}
}

// Routes returns nil; the preference HTTP endpoints are served by the
// transport layer.
func (p *Provider) Routes() []registry.Route { return nil }

// Collectors returns nil.
func (p *Provider) Collectors() []prometheus.Collector { return nil }

// Close is a no-op.
func (p *Provider) Close() error { return nil }

func (p *Provider) get(ctx context.Context, args tools.Args) (any, error) {
	return p.store.GetPreferences(ctx, args.String(tools.ParamUserID))
}

func (p *Provider) update(ctx context.Context, args tools.Args) (any, error) {
	var u api.PreferencesUpdate
	u.Location = args.OptString("location")
	if args.Has("interests") {
		u.Interests = args.Strings("interests")
		if u.Interests == nil {
			u.Interests = []string{}
		}
	}
	u.BudgetMin = args.OptFloat("budget_min")
	u.BudgetMax = args.OptFloat("budget_max")
	return p.store.UpdatePreferences(ctx, args.String(tools.ParamUserID), u)
}
