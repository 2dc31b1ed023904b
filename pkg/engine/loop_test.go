package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/rhuss/outings/pkg/api"
	"github.com/rhuss/outings/pkg/provider"
	"github.com/rhuss/outings/pkg/tools"
)

// turnAwareProvider returns a scripted turn per completion call and records
// every request it receives.
type turnAwareProvider struct {
	turns    []*provider.Turn
	errs     []error
	requests []*provider.Request
}

func (p *turnAwareProvider) Name() string { return "turn-aware" }
func (p *turnAwareProvider) Close() error { return nil }

func (p *turnAwareProvider) Complete(_ context.Context, req *provider.Request) (*provider.Turn, error) {
	p.requests = append(p.requests, req)
	i := len(p.requests) - 1
	if i < len(p.errs) && p.errs[i] != nil {
		return nil, p.errs[i]
	}
	if i < len(p.turns) {
		return p.turns[i], nil
	}
	return textTurn("default answer"), nil
}

// loopingProvider always requests another tool unless the request carries
// no tools, in which case it answers.
type loopingProvider struct {
	calls int
}

func (p *loopingProvider) Name() string { return "looping" }
func (p *loopingProvider) Close() error { return nil }

func (p *loopingProvider) Complete(_ context.Context, req *provider.Request) (*provider.Turn, error) {
	p.calls++
	if len(req.Tools) == 0 {
		return textTurn("summary of everything"), nil
	}
	return toolTurn(call("c"+string(rune('0'+p.calls)), "get_user_preferences", `{}`)), nil
}

// fakeExecutor is a map-backed tools.ToolExecutor.
type fakeExecutor struct {
	descs map[string]tools.Descriptor
	order []string
	calls []executedCall
}

type executedCall struct {
	name string
	args tools.Args
}

func newFakeExecutor(descs ...tools.Descriptor) *fakeExecutor {
	e := &fakeExecutor{descs: make(map[string]tools.Descriptor)}
	for _, d := range descs {
		e.descs[d.Name] = d
		e.order = append(e.order, d.Name)
	}
	return e
}

func (e *fakeExecutor) Resolve(name string) (tools.Descriptor, bool) {
	d, ok := e.descs[name]
	return d, ok
}

func (e *fakeExecutor) Catalog() []tools.Descriptor {
	out := make([]tools.Descriptor, 0, len(e.order))
	for _, n := range e.order {
		out = append(out, e.descs[n])
	}
	return out
}

func (e *fakeExecutor) Execute(ctx context.Context, name string, args tools.Args) any {
	e.calls = append(e.calls, executedCall{name: name, args: args})
	d, ok := e.descs[name]
	if !ok {
		return tools.ErrorResult("Unknown tool: " + name)
	}
	out, err := d.Func(ctx, args)
	if err != nil {
		return tools.ErrorResult(err.Error())
	}
	return out
}

func textTurn(s string) *provider.Turn {
	return &provider.Turn{Text: &s}
}

func toolTurn(calls ...provider.ToolCall) *provider.Turn {
	return &provider.Turn{ToolCalls: calls}
}

func call(id, name, args string) provider.ToolCall {
	return provider.ToolCall{ID: id, Type: "function", Function: provider.FunctionCall{Name: name, Arguments: args}}
}

func constTool(name string, required []string, result any) tools.Descriptor {
	return tools.Descriptor{
		Name:     name,
		Required: required,
		Func: func(context.Context, tools.Args) (any, error) {
			return result, nil
		},
	}
}

func allTools() *fakeExecutor {
	return newFakeExecutor(
		constTool("get_user_preferences", []string{"user_id"}, map[string]any{"location": "NYC"}),
		constTool("update_user_preferences", []string{"user_id"}, map[string]any{"ok": true}),
		constTool("scrape_activities", []string{"query"}, []any{}),
		constTool("get_weather_for_location", []string{"location"}, map[string]any{"temperature": 70.0}),
		constTool("save_to_sheets", []string{"activities"}, map[string]any{"spreadsheet_id": "s1"}),
	)
}

func newTestEngine(t *testing.T, p provider.Provider, exec tools.ToolExecutor, allow []string) *Engine {
	t.Helper()
	eng, err := New(p, exec, tools.NewPolicy(allow, nil), Config{DefaultModel: "test-model"})
	if err != nil {
		t.Fatalf("failed to create engine: %v", err)
	}
	return eng
}

func TestProcessMessage_TwoTurns(t *testing.T) {
	prov := &turnAwareProvider{turns: []*provider.Turn{
		toolTurn(call("c1", "get_weather_for_location", `{"location":"Berlin"}`)),
		textTurn("It's 70F in Berlin."),
	}}
	eng := newTestEngine(t, prov, allTools(), []string{"get_weather_for_location"})
	conv := NewConversation(provider.Message{Role: provider.RoleSystem, Content: "sys"})

	res, err := eng.ProcessMessage(context.Background(), conv, tools.Scope{UserID: "alice"}, "Weather?", "")
	if err != nil {
		t.Fatalf("ProcessMessage failed: %v", err)
	}

	if res.Response != "It's 70F in Berlin." {
		t.Errorf("response = %q", res.Response)
	}
	if res.Advisory != nil {
		t.Errorf("advisory = %q, want nil", *res.Advisory)
	}
	if len(res.ToolResults) != 1 || res.ToolResults[0].Tool != "get_weather_for_location" {
		t.Fatalf("tool results = %+v", res.ToolResults)
	}
	if res.Rounds != 1 || res.Completions != 2 {
		t.Errorf("rounds = %d, completions = %d", res.Rounds, res.Completions)
	}

	// system, user, assistant(tool_calls), tool, assistant(text)
	msgs := conv.Messages()
	wantRoles := []string{"system", "user", "assistant", "tool", "assistant"}
	if len(msgs) != len(wantRoles) {
		t.Fatalf("conversation has %d messages, want %d", len(msgs), len(wantRoles))
	}
	for i, role := range wantRoles {
		if msgs[i].Role != role {
			t.Errorf("msgs[%d].Role = %q, want %q", i, msgs[i].Role, role)
		}
	}
	if msgs[3].ToolCallID != "c1" || msgs[3].Content != `{"temperature":70}` {
		t.Errorf("tool message = %+v", msgs[3])
	}

	// Default model applied, call id shared by both rounds, rounds numbered.
	if prov.requests[0].Model != "test-model" {
		t.Errorf("model = %q", prov.requests[0].Model)
	}
	if prov.requests[0].CallID == "" || prov.requests[0].CallID != prov.requests[1].CallID {
		t.Error("both rounds should carry the same call id")
	}
	if prov.requests[0].Round != 0 || prov.requests[1].Round != 1 {
		t.Errorf("rounds = %d, %d", prov.requests[0].Round, prov.requests[1].Round)
	}
	if len(prov.requests[0].Tools) != 5 {
		t.Errorf("tool catalog size = %d, want 5", len(prov.requests[0].Tools))
	}
}

func TestProcessMessage_FilteringKeepsOrderAndAdvises(t *testing.T) {
	prov := &turnAwareProvider{turns: []*provider.Turn{
		toolTurn(
			call("c1", "scrape_activities", `{"query":"jazz"}`),
			call("c2", "get_user_preferences", `{}`),
		),
		textTurn("Here is what I found."),
	}}
	exec := allTools()
	eng := newTestEngine(t, prov, exec, []string{"get_user_preferences"})

	res, err := eng.ProcessMessage(context.Background(), NewConversation(), tools.Scope{UserID: "u"}, "hi", "m")
	if err != nil {
		t.Fatalf("ProcessMessage failed: %v", err)
	}

	if len(exec.calls) != 1 || exec.calls[0].name != "get_user_preferences" {
		t.Fatalf("executed = %+v", exec.calls)
	}
	if res.Advisory == nil || !strings.Contains(*res.Advisory, "Web Scraper") {
		t.Errorf("advisory = %v", res.Advisory)
	}

	// The denied call must not appear in the assistant tool-call message.
	msgs := prov.requests[1].Messages
	assistant := msgs[len(msgs)-2]
	if len(assistant.ToolCalls) != 1 || assistant.ToolCalls[0].ID != "c2" {
		t.Errorf("assistant tool calls = %+v", assistant.ToolCalls)
	}
}

func TestProcessMessage_DenialDedupAcrossRounds(t *testing.T) {
	prov := &turnAwareProvider{turns: []*provider.Turn{
		toolTurn(call("c1", "scrape_activities", `{}`), call("c2", "get_user_preferences", `{}`)),
		toolTurn(call("c3", "scrape_activities", `{}`), call("c4", "get_user_preferences", `{}`)),
		textTurn("done"),
	}}
	eng := newTestEngine(t, prov, allTools(), []string{"get_user_preferences"})

	res, err := eng.ProcessMessage(context.Background(), NewConversation(), tools.Scope{UserID: "u"}, "hi", "m")
	if err != nil {
		t.Fatalf("ProcessMessage failed: %v", err)
	}
	want := "Note: the following tools are currently unavailable: Web Scraper. The response was generated without them."
	if res.Advisory == nil || *res.Advisory != want {
		t.Errorf("advisory = %v, want %q", res.Advisory, want)
	}
}

func TestProcessMessage_DenialLogCarriesRound(t *testing.T) {
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, nil)))
	t.Cleanup(func() { slog.SetDefault(prev) })

	prov := &turnAwareProvider{turns: []*provider.Turn{
		toolTurn(call("c1", "scrape_activities", `{}`), call("c2", "get_user_preferences", `{}`)),
		toolTurn(call("c3", "scrape_activities", `{}`), call("c4", "get_user_preferences", `{}`)),
		textTurn("done"),
	}}
	eng := newTestEngine(t, prov, allTools(), []string{"get_user_preferences"})

	if _, err := eng.ProcessMessage(context.Background(), NewConversation(), tools.Scope{UserID: "u"}, "hi", "m"); err != nil {
		t.Fatalf("ProcessMessage failed: %v", err)
	}

	var denied []string
	for _, line := range strings.Split(buf.String(), "\n") {
		if strings.Contains(line, "tool denied by availability policy") {
			denied = append(denied, line)
		}
	}
	if len(denied) != 2 {
		t.Fatalf("denial log lines = %d, want 2:\n%s", len(denied), buf.String())
	}
	for i, want := range []string{"round=0 tool_call_id=c1", "round=1 tool_call_id=c3"} {
		if !strings.Contains(denied[i], want) {
			t.Errorf("line %d = %q, want %q", i, denied[i], want)
		}
		if !strings.Contains(denied[i], `display_name="Web Scraper"`) || !strings.Contains(denied[i], "call_id=msg_") {
			t.Errorf("line %d missing display name or call id: %q", i, denied[i])
		}
	}
}

func TestProcessMessage_IdentityOverride(t *testing.T) {
	var got tools.Args
	exec := newFakeExecutor(tools.Descriptor{
		Name:     "update_user_preferences",
		Required: []string{"user_id"},
		Func: func(_ context.Context, args tools.Args) (any, error) {
			got = args
			return map[string]any{"user_id": args.String("user_id")}, nil
		},
	})
	prov := &turnAwareProvider{turns: []*provider.Turn{
		toolTurn(call("c1", "update_user_preferences", `{"user_id":"mallory","budget_max":30}`)),
		textTurn("Updated."),
	}}
	eng := newTestEngine(t, prov, exec, []string{"update_user_preferences"})

	if _, err := eng.ProcessMessage(context.Background(), NewConversation(), tools.Scope{UserID: "alice"}, "set budget", "m"); err != nil {
		t.Fatalf("ProcessMessage failed: %v", err)
	}
	if got.String("user_id") != "alice" {
		t.Errorf("user_id = %q, want alice", got.String("user_id"))
	}
	if v, _ := got.Float("budget_max"); v != 30 {
		t.Errorf("budget_max = %v", v)
	}
}

func TestProcessMessage_ToolFaultContinues(t *testing.T) {
	exec := newFakeExecutor(tools.Descriptor{
		Name:     "get_weather_for_location",
		Required: []string{"location"},
		Func: func(context.Context, tools.Args) (any, error) {
			return nil, errors.New("no api key")
		},
	})
	prov := &turnAwareProvider{turns: []*provider.Turn{
		toolTurn(call("c1", "get_weather_for_location", `{"location":"NYC"}`)),
		textTurn("I couldn't check the weather, but here are ideas."),
	}}
	eng := newTestEngine(t, prov, exec, []string{"get_weather_for_location"})

	res, err := eng.ProcessMessage(context.Background(), NewConversation(), tools.Scope{}, "weather?", "m")
	if err != nil {
		t.Fatalf("ProcessMessage failed: %v", err)
	}
	if len(prov.requests) != 2 {
		t.Fatalf("expected another turn after the tool fault, got %d requests", len(prov.requests))
	}
	msgs := prov.requests[1].Messages
	if msgs[len(msgs)-1].Content != `{"error":"no api key"}` {
		t.Errorf("tool result = %q", msgs[len(msgs)-1].Content)
	}
	if res.Response == "" {
		t.Error("expected non-empty response")
	}
}

func TestProcessMessage_MalformedArgumentsDecodeEmpty(t *testing.T) {
	var got tools.Args
	exec := newFakeExecutor(tools.Descriptor{
		Name:     "get_user_preferences",
		Required: []string{"user_id"},
		Func: func(_ context.Context, args tools.Args) (any, error) {
			got = args
			return map[string]any{}, nil
		},
	})
	prov := &turnAwareProvider{turns: []*provider.Turn{
		toolTurn(call("c1", "get_user_preferences", `{"user_id":`)),
		textTurn("ok"),
	}}
	eng := newTestEngine(t, prov, exec, []string{"get_user_preferences"})

	if _, err := eng.ProcessMessage(context.Background(), NewConversation(), tools.Scope{UserID: "bob"}, "hi", "m"); err != nil {
		t.Fatalf("ProcessMessage failed: %v", err)
	}
	if len(got) != 1 || got["user_id"] != "bob" {
		t.Errorf("args = %v, want only injected user_id", got)
	}
}

func TestProcessMessage_DeadEndRecovery(t *testing.T) {
	prov := &turnAwareProvider{turns: []*provider.Turn{
		toolTurn(call("c1", "scrape_activities", `{"query":"x"}`)),
		textTurn("Here's some general advice..."),
	}}
	eng := newTestEngine(t, prov, allTools(), []string{"get_user_preferences"})

	res, err := eng.ProcessMessage(context.Background(), NewConversation(), tools.Scope{UserID: "u"}, "events?", "m")
	if err != nil {
		t.Fatalf("ProcessMessage failed: %v", err)
	}
	if res.Response != "Here's some general advice..." {
		t.Errorf("response = %q", res.Response)
	}
	if res.Advisory == nil || !strings.Contains(*res.Advisory, "Web Scraper") {
		t.Errorf("advisory = %v", res.Advisory)
	}
	if len(prov.requests) != 2 {
		t.Fatalf("expected exactly one recovery turn, got %d requests", len(prov.requests))
	}
	recovery := prov.requests[1]
	if len(recovery.Tools) != 0 {
		t.Error("recovery turn should be sent without tools")
	}
	note := recovery.Messages[len(recovery.Messages)-1]
	if note.Role != provider.RoleSystem || !strings.Contains(note.Content, "Web Scraper") {
		t.Errorf("recovery note = %+v", note)
	}
}

func TestProcessMessage_DeadEndRecoveryYieldsNothing(t *testing.T) {
	prov := &turnAwareProvider{turns: []*provider.Turn{
		toolTurn(call("c1", "scrape_activities", `{}`)),
		{},
	}}
	eng := newTestEngine(t, prov, allTools(), nil)

	res, err := eng.ProcessMessage(context.Background(), NewConversation(), tools.Scope{}, "hi", "m")
	if err != nil {
		t.Fatalf("ProcessMessage failed: %v", err)
	}
	if res.Response != RecoveryFailText {
		t.Errorf("response = %q", res.Response)
	}
}

func TestProcessMessage_TerminationBound(t *testing.T) {
	prov := &loopingProvider{}
	eng := newTestEngine(t, prov, allTools(), []string{"get_user_preferences"})

	res, err := eng.ProcessMessage(context.Background(), NewConversation(), tools.Scope{UserID: "u"}, "loop", "m")
	if err != nil {
		t.Fatalf("ProcessMessage failed: %v", err)
	}
	if prov.calls != DefaultMaxRounds+1 {
		t.Errorf("completion calls = %d, want %d", prov.calls, DefaultMaxRounds+1)
	}
	if res.Response != "summary of everything" {
		t.Errorf("response = %q", res.Response)
	}
	if res.Rounds != DefaultMaxRounds || len(res.ToolResults) != DefaultMaxRounds {
		t.Errorf("rounds = %d, tool results = %d", res.Rounds, len(res.ToolResults))
	}
}

func TestProcessMessage_SummaryFallback(t *testing.T) {
	prov := &turnAwareProvider{
		turns: []*provider.Turn{
			toolTurn(call("c1", "get_user_preferences", `{}`)),
		},
		errs: []error{nil, provider.ErrNoUsableTurn},
	}
	eng, err := New(prov, allTools(), tools.NewPolicy([]string{"get_user_preferences"}, nil), Config{MaxRounds: 1})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	res, err := eng.ProcessMessage(context.Background(), NewConversation(), tools.Scope{}, "hi", "m")
	if err != nil {
		t.Fatalf("ProcessMessage failed: %v", err)
	}
	if res.Response != SummaryFailText {
		t.Errorf("response = %q", res.Response)
	}
	if strings.HasPrefix(res.Response, "{") {
		t.Error("raw tool payload must never be the response")
	}
}

func TestProcessMessage_TextAndToolsStillExecutes(t *testing.T) {
	both := toolTurn(call("c1", "get_user_preferences", `{}`))
	interim := "Let me check your preferences."
	both.Text = &interim
	prov := &turnAwareProvider{turns: []*provider.Turn{both, textTurn("final")}}
	exec := allTools()
	eng := newTestEngine(t, prov, exec, []string{"get_user_preferences"})

	res, err := eng.ProcessMessage(context.Background(), NewConversation(), tools.Scope{}, "hi", "m")
	if err != nil {
		t.Fatalf("ProcessMessage failed: %v", err)
	}
	if len(exec.calls) != 1 || res.Response != "final" {
		t.Errorf("calls = %d, response = %q", len(exec.calls), res.Response)
	}
}

func TestProcessMessage_NoUsableTurn(t *testing.T) {
	prov := &turnAwareProvider{errs: []error{provider.ErrNoUsableTurn}}
	eng := newTestEngine(t, prov, allTools(), nil)

	res, err := eng.ProcessMessage(context.Background(), NewConversation(), tools.Scope{}, "hi", "m")
	if err != nil {
		t.Fatalf("ProcessMessage failed: %v", err)
	}
	if res.Response != NoUsableTurnText {
		t.Errorf("response = %q", res.Response)
	}
}

func TestProcessMessage_TransportErrorPropagates(t *testing.T) {
	prov := &turnAwareProvider{errs: []error{api.NewServerError("backend down")}}
	eng := newTestEngine(t, prov, allTools(), nil)

	_, err := eng.ProcessMessage(context.Background(), NewConversation(), tools.Scope{}, "hi", "m")
	if _, ok := api.AsAPIError(err); !ok {
		t.Fatalf("expected APIError, got %v", err)
	}
}

func TestProcessMessage_EmptyTextFallsBack(t *testing.T) {
	prov := &turnAwareProvider{turns: []*provider.Turn{{}}}
	eng := newTestEngine(t, prov, allTools(), nil)

	res, err := eng.ProcessMessage(context.Background(), NewConversation(), tools.Scope{}, "hi", "m")
	if err != nil {
		t.Fatalf("ProcessMessage failed: %v", err)
	}
	if res.Response != NoResponseText {
		t.Errorf("response = %q", res.Response)
	}
}

func TestResultChatResponse(t *testing.T) {
	r := &Result{Response: "hi"}
	out := r.ChatResponse()
	data, _ := json.Marshal(out)
	want := `{"response":"hi","tool_results":[],"skipped_tools_message":null}`
	if string(data) != want {
		t.Errorf("json = %s, want %s", data, want)
	}
}

func TestNew_Validation(t *testing.T) {
	policy := tools.NewPolicy(nil, nil)
	if _, err := New(nil, allTools(), policy, Config{}); err == nil {
		t.Error("expected error for nil provider")
	}
	if _, err := New(&turnAwareProvider{}, nil, policy, Config{}); err == nil {
		t.Error("expected error for nil executor")
	}
	if _, err := New(&turnAwareProvider{}, allTools(), nil, Config{}); err == nil {
		t.Error("expected error for nil policy")
	}
}
