package tools

import (
	"sort"
	"strings"
)

// DefaultAllowList is the allow-list used when none is configured.
var DefaultAllowList = []string{
	string(GetUserPreferences),
	string(UpdateUserPreferences),
	string(SaveToSheets),
}

// DefaultDisplayNames maps built-in tool names to capability names.
var DefaultDisplayNames = map[string]string{
	string(SearchPlacesForDates):  "Google Maps",
	string(GetWeatherForLocation): "Weather",
	string(ScrapeActivities):      "Web Scraper",
	string(SaveToSheets):          "Google Sheets",
	string(GetUserPreferences):    "Preferences",
	string(UpdateUserPreferences): "Preferences",
}

// Policy is the deployment-configured availability policy: the set of
// tool names permitted to execute and their user-facing display names.
// It is read-only after construction.
type Policy struct {
	allowed      map[string]struct{}
	displayNames map[string]string
}

// NewPolicy builds a policy from an allow-list and display-name map.
// Display names missing from the map fall back to DefaultDisplayNames,
// then to the tool name itself.
func NewPolicy(allow []string, displayNames map[string]string) *Policy {
	p := &Policy{
		allowed:      make(map[string]struct{}, len(allow)),
		displayNames: make(map[string]string, len(DefaultDisplayNames)+len(displayNames)),
	}
	for _, name := range allow {
		name = strings.TrimSpace(name)
		if name != "" {
			p.allowed[name] = struct{}{}
		}
	}
	for k, v := range DefaultDisplayNames {
		p.displayNames[k] = v
	}
	for k, v := range displayNames {
		p.displayNames[k] = v
	}
	return p
}

// Allowed reports whether name may execute.
func (p *Policy) Allowed(name string) bool {
	_, ok := p.allowed[name]
	return ok
}

// DisplayName returns the user-facing name for a tool.
func (p *Policy) DisplayName(name string) string {
	if dn, ok := p.displayNames[name]; ok && dn != "" {
		return dn
	}
	return name
}

// AllowList returns the allowed tool names, sorted.
func (p *Policy) AllowList() []string {
	out := make([]string, 0, len(p.allowed))
	for name := range p.allowed {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Denials accumulates the display names of denied tools across one
// process_message call. Names are deduplicated case-sensitively and kept
// in first-seen order. The zero value is ready to use.
type Denials struct {
	names []string
	seen  map[string]struct{}
}

func (d *Denials) add(displayName string) {
	if d.seen == nil {
		d.seen = make(map[string]struct{})
	}
	if _, ok := d.seen[displayName]; ok {
		return
	}
	d.seen[displayName] = struct{}{}
	d.names = append(d.names, displayName)
}

// Names returns the denied display names in first-seen order.
func (d *Denials) Names() []string {
	out := make([]string, len(d.names))
	copy(out, d.names)
	return out
}

// Len returns the number of distinct denied display names.
func (d *Denials) Len() int {
	return len(d.names)
}

// Advisory returns the user-facing note about unavailable tools, or nil
// when nothing was denied.
func (d *Denials) Advisory() *string {
	if len(d.names) == 0 {
		return nil
	}
	msg := "Note: the following tools are currently unavailable: " +
		strings.Join(d.names, ", ") +
		". The response was generated without them."
	return &msg
}

// FilterResult holds the outcome of screening one turn's tool requests.
type FilterResult struct {
	// Allowed contains the requests that may execute, in request order.
	Allowed []Request

	// Denied contains the requests dropped in this turn, in request order.
	Denied []Request
}

// Filter screens reqs against the policy. Denied tools are recorded in
// denials, which spans the whole call; denial is never an error.
func (p *Policy) Filter(reqs []Request, denials *Denials) FilterResult {
	var result FilterResult
	for _, req := range reqs {
		if p.Allowed(req.Name) {
			result.Allowed = append(result.Allowed, req)
			continue
		}
		dn := p.DisplayName(req.Name)
		result.Denied = append(result.Denied, req)
		if denials != nil {
			denials.add(dn)
		}
	}
	return result
}
