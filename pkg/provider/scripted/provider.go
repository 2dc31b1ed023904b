// Package scripted is the deterministic stand-in completion provider used
// when live model calls are disabled. Each process_message call is bound to
// one canned scenario: the first round returns the scenario's tool requests
// with no text, every later round returns its final text. The loop thus sees
// the same "tool requests, then answer" shape as with a live model.
package scripted

import (
	"context"
	"encoding/json"
	"fmt"
	"hash/fnv"

	"github.com/rhuss/outings/pkg/debug"
	"github.com/rhuss/outings/pkg/provider"
)

// Selector picks a scenario index in [0, n) for a call id.
type Selector func(callID string, n int) int

// HashSelector selects by FNV-1a hash of the call id, so repeated rounds
// of one call always see the same scenario.
func HashSelector(callID string, n int) int {
	h := fnv.New32a()
	h.Write([]byte(callID))
	return int(h.Sum32() % uint32(n))
}

// Option configures a Provider.
type Option func(*Provider)

// WithScenarios replaces the scenario catalog.
func WithScenarios(s []Scenario) Option {
	return func(p *Provider) { p.scenarios = s }
}

// WithSelector replaces the scenario selector.
func WithSelector(sel Selector) Option {
	return func(p *Provider) { p.selector = sel }
}

// Provider implements provider.Provider with canned scenarios.
type Provider struct {
	scenarios []Scenario
	selector  Selector
}

// Ensure Provider implements provider.Provider at compile time.
var _ provider.Provider = (*Provider)(nil)

// New creates a scripted provider over DefaultScenarios.
func New(opts ...Option) *Provider {
	p := &Provider{
		scenarios: DefaultScenarios(),
		selector:  HashSelector,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Name returns the provider identifier.
func (p *Provider) Name() string { return "scripted" }

// Complete returns the scripted turn for req.CallID and req.Round.
func (p *Provider) Complete(_ context.Context, req *provider.Request) (*provider.Turn, error) {
	if len(p.scenarios) == 0 {
		return nil, provider.ErrNoUsableTurn
	}

	idx := p.selector(req.CallID, len(p.scenarios))
	if idx < 0 || idx >= len(p.scenarios) {
		return nil, fmt.Errorf("scripted: selector returned %d for %d scenarios", idx, len(p.scenarios))
	}
	sc := p.scenarios[idx]

	debug.Log("provider", "scripted turn",
		"call_id", req.CallID,
		"round", req.Round,
		"scenario", idx,
	)

	turn := &provider.Turn{Model: req.Model}
	if req.Round == 0 && len(sc.Calls) > 0 {
		for i, c := range sc.Calls {
			args, err := json.Marshal(c.Args)
			if err != nil {
				return nil, fmt.Errorf("scripted: marshal arguments for %s: %w", c.Name, err)
			}
			turn.ToolCalls = append(turn.ToolCalls, provider.ToolCall{
				ID:   fmt.Sprintf("call_mock_%d", i),
				Type: "function",
				Function: provider.FunctionCall{
					Name:      c.Name,
					Arguments: string(args),
				},
			})
		}
		return turn, nil
	}

	text := sc.Text
	turn.Text = &text
	return turn, nil
}

// Close is a no-op.
func (p *Provider) Close() error { return nil }
