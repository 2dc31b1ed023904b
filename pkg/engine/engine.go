package engine

import (
	"fmt"

	"github.com/rhuss/outings/pkg/api"
	"github.com/rhuss/outings/pkg/provider"
	"github.com/rhuss/outings/pkg/tools"
)

// Engine runs the orchestration loop. It holds only read-only collaborators
// and is safe for concurrent use across conversations.
type Engine struct {
	provider provider.Provider
	executor tools.ToolExecutor
	policy   *tools.Policy
	cfg      Config
}

// New creates an Engine. Provider, executor, and policy must not be nil.
func New(p provider.Provider, exec tools.ToolExecutor, policy *tools.Policy, cfg Config) (*Engine, error) {
	if p == nil {
		return nil, fmt.Errorf("engine: provider must not be nil")
	}
	if exec == nil {
		return nil, fmt.Errorf("engine: tool executor must not be nil")
	}
	if policy == nil {
		return nil, fmt.Errorf("engine: availability policy must not be nil")
	}
	return &Engine{
		provider: p,
		executor: exec,
		policy:   policy,
		cfg:      cfg,
	}, nil
}

// Result is the outcome of one ProcessMessage call.
type Result struct {
	// Response is the user-facing text. It is never empty.
	Response string

	// ToolResults lists executed tools and their results in execution order.
	ToolResults []api.ToolOutcome

	// Advisory names the tools that were denied during the call, or is nil.
	Advisory *string

	// Outcome is the terminal state (see observability.Outcome*).
	Outcome string

	// Rounds is the number of tool-executing rounds.
	Rounds int

	// Completions is the number of completion calls made.
	Completions int
}

// ChatResponse converts the result to its wire form.
func (r *Result) ChatResponse() *api.ChatResponse {
	out := &api.ChatResponse{
		Response:            r.Response,
		ToolResults:         r.ToolResults,
		SkippedToolsMessage: r.Advisory,
	}
	if out.ToolResults == nil {
		out.ToolResults = []api.ToolOutcome{}
	}
	return out
}

// Policy returns the availability policy.
func (e *Engine) Policy() *tools.Policy {
	return e.policy
}

// DefaultModel returns the configured default model.
func (e *Engine) DefaultModel() string {
	return e.cfg.DefaultModel
}
