package engine

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/rhuss/outings/pkg/api"
	"github.com/rhuss/outings/pkg/debug"
	"github.com/rhuss/outings/pkg/observability"
	"github.com/rhuss/outings/pkg/provider"
	"github.com/rhuss/outings/pkg/tools"
	"go.opentelemetry.io/otel/attribute"
)

// loopState carries the call-scoped counters of one ProcessMessage call.
type loopState struct {
	callID      string
	model       string
	scope       tools.Scope
	catalog     []provider.Tool
	denials     tools.Denials
	outcomes    []api.ToolOutcome
	completions int
	rounds      int
}

// ProcessMessage appends text to conv and drives the conversation to a
// user-facing answer.
//
// The loop makes at most MaxRounds completion calls that may lead to tool
// execution, plus at most one extra call: either a summary turn once the
// budget is exhausted, or a recovery turn when every tool requested in a
// text-less turn was denied. Tool failures are fed back to the model as
// {"error": ...} results. Only completion transport failures are returned
// as errors.
func (e *Engine) ProcessMessage(ctx context.Context, conv *Conversation, scope tools.Scope, text, model string) (*Result, error) {
	if model == "" {
		model = e.cfg.DefaultModel
	}

	st := &loopState{
		callID:  api.NewCallID(),
		model:   model,
		scope:   scope,
		catalog: provider.ToolDefinitions(e.executor.Catalog()),
	}

	ctx, span := observability.StartSpan(ctx, "process_message",
		attribute.String("call_id", st.callID),
		attribute.String("model", model),
		attribute.String("user_id", scope.UserID),
	)
	defer span.End()

	conv.Append(provider.Message{Role: provider.RoleUser, Content: text})

	res, err := e.run(ctx, conv, st)
	if err != nil {
		observability.RecordError(span, err)
		observability.LoopOutcomesTotal.WithLabelValues(observability.OutcomeError).Inc()
		return nil, err
	}

	res.ToolResults = st.outcomes
	res.Advisory = st.denials.Advisory()
	res.Rounds = st.rounds
	res.Completions = st.completions

	observability.LoopOutcomesTotal.WithLabelValues(res.Outcome).Inc()
	observability.LoopRounds.Observe(float64(st.rounds))
	span.SetAttributes(
		attribute.String("outcome", res.Outcome),
		attribute.Int("rounds", st.rounds),
		attribute.Int("completions", st.completions),
	)
	debug.Log("loop", "message processed",
		"call_id", st.callID,
		"outcome", res.Outcome,
		"rounds", st.rounds,
		"completions", st.completions,
		"denied", st.denials.Names(),
	)
	return res, nil
}

// run is the state machine: AwaitingTurn, then one of HasToolRequests,
// HasFinalText, or NoUsableTurn.
func (e *Engine) run(ctx context.Context, conv *Conversation, st *loopState) (*Result, error) {
	maxRounds := e.cfg.maxRounds()

	for st.rounds < maxRounds {
		turn, err := e.complete(ctx, conv, st, true)
		if errors.Is(err, provider.ErrNoUsableTurn) {
			return terminal(conv, NoUsableTurnText, observability.OutcomeNoUsableTurn), nil
		}
		if err != nil {
			return nil, err
		}

		filtered := e.policy.Filter(provider.ToolRequests(turn.ToolCalls), &st.denials)
		for _, req := range filtered.Denied {
			observability.ToolDenialsTotal.WithLabelValues(req.Name).Inc()
			slog.Info("tool denied by availability policy",
				"tool", req.Name,
				"display_name", e.policy.DisplayName(req.Name),
				"round", st.rounds,
				"tool_call_id", req.ID,
				"call_id", st.callID,
			)
		}

		if len(filtered.Allowed) == 0 {
			if !turn.HasText() && len(filtered.Denied) > 0 {
				return e.recover(ctx, conv, st)
			}
			text := NoResponseText
			if turn.HasText() {
				text = *turn.Text
			}
			debug.Log("loop", "final text", "call_id", st.callID, "round", st.rounds)
			return terminal(conv, text, observability.OutcomeFinalText), nil
		}

		e.executeRound(ctx, conv, st, turn, filtered.Allowed)
		st.rounds++
	}

	return e.summarize(ctx, conv, st)
}

// recover handles a turn whose tool requests were all denied and that
// carried no text: it injects a corrective note and asks exactly once more.
func (e *Engine) recover(ctx context.Context, conv *Conversation, st *loopState) (*Result, error) {
	debug.Log("loop", "all requested tools denied, requesting recovery turn",
		"call_id", st.callID,
		"denied", st.denials.Names(),
	)
	conv.Append(recoveryNote(st.denials.Names()))

	turn, err := e.complete(ctx, conv, st, false)
	if err != nil && !errors.Is(err, provider.ErrNoUsableTurn) {
		return nil, err
	}
	text := RecoveryFailText
	if err == nil && turn.HasText() {
		text = *turn.Text
	}
	return terminal(conv, text, observability.OutcomeRecovered), nil
}

// summarize issues the single summary turn after the round budget is spent.
// It is sent without tools so the model cannot extend the loop.
func (e *Engine) summarize(ctx context.Context, conv *Conversation, st *loopState) (*Result, error) {
	debug.Log("loop", "round budget exhausted, requesting summary", "call_id", st.callID, "rounds", st.rounds)
	conv.Append(summaryNote())

	turn, err := e.complete(ctx, conv, st, false)
	if err != nil && !errors.Is(err, provider.ErrNoUsableTurn) {
		return nil, err
	}
	text := SummaryFailText
	if err == nil && turn.HasText() {
		text = *turn.Text
	}
	return terminal(conv, text, observability.OutcomeSummary), nil
}

// terminal records the final assistant text and builds the result.
func terminal(conv *Conversation, text, outcome string) *Result {
	conv.Append(provider.Message{Role: provider.RoleAssistant, Content: text})
	return &Result{Response: text, Outcome: outcome}
}

// complete requests one turn and records provider metrics.
func (e *Engine) complete(ctx context.Context, conv *Conversation, st *loopState, withTools bool) (*provider.Turn, error) {
	req := &provider.Request{
		Model:    st.model,
		Messages: conv.Messages(),
		CallID:   st.callID,
		Round:    st.completions,
	}
	if withTools {
		req.Tools = st.catalog
	}
	st.completions++

	provName := e.provider.Name()
	ctx, span := observability.StartSpan(ctx, "completion",
		attribute.String("provider", provName),
		attribute.String("model", st.model),
		attribute.Int("round", req.Round),
		attribute.Bool("with_tools", withTools),
	)
	defer span.End()

	start := time.Now()
	turn, err := e.provider.Complete(ctx, req)
	duration := time.Since(start)
	observability.CompletionLatency.WithLabelValues(provName, st.model).Observe(duration.Seconds())

	if err != nil {
		status := "error"
		if errors.Is(err, provider.ErrNoUsableTurn) {
			status = "empty"
		}
		observability.CompletionsTotal.WithLabelValues(provName, st.model, status).Inc()
		observability.RecordError(span, err)
		slog.Warn("completion failed",
			"provider", provName,
			"model", st.model,
			"call_id", st.callID,
			"round", req.Round,
			"error", err,
		)
		return nil, err
	}

	observability.CompletionsTotal.WithLabelValues(provName, st.model, "success").Inc()
	observability.CompletionTokensTotal.WithLabelValues(provName, st.model, "input").Add(float64(turn.Usage.InputTokens))
	observability.CompletionTokensTotal.WithLabelValues(provName, st.model, "output").Add(float64(turn.Usage.OutputTokens))

	debug.Log("provider", "turn received",
		"call_id", st.callID,
		"round", req.Round,
		"has_text", turn.HasText(),
		"tool_calls", len(turn.ToolCalls),
	)
	return turn, nil
}

// executeRound appends the assistant tool-call message, then executes each
// allowed request in order and appends one tool-result message per request.
func (e *Engine) executeRound(ctx context.Context, conv *Conversation, st *loopState, turn *provider.Turn, allowed []tools.Request) {
	conv.Append(buildAssistantToolCallMessage(turn, allowed))

	for _, req := range allowed {
		result := e.executeTool(ctx, st, req)
		st.outcomes = append(st.outcomes, api.ToolOutcome{Tool: req.Name, Result: result})
		conv.Append(provider.Message{
			Role:       provider.RoleTool,
			Content:    encodeResult(result),
			ToolCallID: req.ID,
			Name:       req.Name,
		})
	}
}

// executeTool decodes arguments, binds caller identity, and runs one tool.
func (e *Engine) executeTool(ctx context.Context, st *loopState, req tools.Request) any {
	ctx, span := observability.StartSpan(ctx, "tool.execute",
		attribute.String("tool", req.Name),
		attribute.String("tool_call_id", req.ID),
	)
	defer span.End()

	args := tools.DecodeArgs(req.Arguments)
	if desc, ok := e.executor.Resolve(req.Name); ok {
		args = tools.Inject(desc, args, st.scope)
	}

	debug.Log("tools", "executing tool", "call_id", st.callID, "tool", req.Name, "tool_call_id", req.ID)
	return e.executor.Execute(ctx, req.Name, args)
}

// buildAssistantToolCallMessage creates the assistant message carrying the
// allowed tool calls. Per Chat Completions convention it must precede the
// tool role result messages, so denied calls are left out.
func buildAssistantToolCallMessage(turn *provider.Turn, allowed []tools.Request) provider.Message {
	msg := provider.Message{Role: provider.RoleAssistant}
	if turn.HasText() {
		msg.Content = *turn.Text
	}
	for _, req := range allowed {
		msg.ToolCalls = append(msg.ToolCalls, provider.ToolCall{
			ID:   req.ID,
			Type: "function",
			Function: provider.FunctionCall{
				Name:      req.Name,
				Arguments: req.Arguments,
			},
		})
	}
	return msg
}

// encodeResult serializes a tool result for the tool-result message.
func encodeResult(result any) string {
	data, err := json.Marshal(result)
	if err != nil {
		data, _ = json.Marshal(tools.ErrorResult("unserializable tool result: " + err.Error()))
	}
	return string(data)
}
