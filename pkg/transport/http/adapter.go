package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/rhuss/outings/pkg/api"
	"github.com/rhuss/outings/pkg/auth"
	"github.com/rhuss/outings/pkg/observability"
	"github.com/rhuss/outings/pkg/storage"
	"github.com/rhuss/outings/pkg/transport"
)

// emptyResponse replaces a blank chat reply.
const emptyResponse = "I couldn't generate a response."

// Deps are the services the adapter routes to. Chat is required; a nil
// store disables its routes.
type Deps struct {
	Chat     transport.ChatHandler
	Sessions transport.SessionResetter
	Prefs    storage.PreferenceStore
	History  storage.HistoryStore

	// Health reports backend health for /healthz. Nil means always healthy.
	Health func(ctx context.Context) error
}

// Adapter serves the chat API over HTTP.
type Adapter struct {
	chat     transport.ChatHandler
	sessions transport.SessionResetter
	prefs    storage.PreferenceStore
	history  storage.HistoryStore
	health   func(ctx context.Context) error

	validate *validator.Validate
	mux      *http.ServeMux
	config   Config
}

// Config holds configuration for the HTTP adapter.
type Config struct {
	MaxBodySize int64
	CORSOrigins []string

	// Auth, when set, wraps every route except the bypass list.
	Auth func(http.Handler) http.Handler
}

// DefaultConfig returns the default adapter configuration.
func DefaultConfig() Config {
	return Config{MaxBodySize: 1 << 20}
}

// NewAdapter registers the chat API routes. Middleware is applied to the
// chat handler in the given order.
func NewAdapter(deps Deps, cfg Config, middlewares ...transport.Middleware) *Adapter {
	if cfg.MaxBodySize <= 0 {
		cfg.MaxBodySize = DefaultConfig().MaxBodySize
	}
	chat := deps.Chat
	if len(middlewares) > 0 {
		chat = transport.Chain(middlewares...)(chat)
	}

	a := &Adapter{
		chat:     chat,
		sessions: deps.Sessions,
		prefs:    deps.Prefs,
		history:  deps.History,
		health:   deps.Health,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		mux:      http.NewServeMux(),
		config:   cfg,
	}

	a.mux.HandleFunc("GET /{$}", a.handleRoot)
	a.mux.HandleFunc("GET /health", a.handleHealth)
	a.mux.HandleFunc("GET /healthz", a.handleHealthz)

	a.mux.HandleFunc("POST /api/chat", a.handleChat)
	if a.sessions != nil {
		a.mux.HandleFunc("POST /api/chat/reset", a.handleReset)
	}
	if a.prefs != nil {
		a.mux.HandleFunc("GET /api/users", a.handleListUsers)
		a.mux.HandleFunc("GET /api/preferences/{user_id}", a.handleGetPreferences)
		a.mux.HandleFunc("PUT /api/preferences/{user_id}", a.handleUpdatePreferences)
	}
	if a.history != nil {
		a.mux.HandleFunc("GET /api/chat-history", a.handleListHistory)
		a.mux.HandleFunc("GET /api/chat-history/{id}", a.handleGetHistory)
		a.mux.HandleFunc("POST /api/chat-history", a.handleSaveHistory)
		a.mux.HandleFunc("DELETE /api/chat-history/{id}", a.handleDeleteHistory)
		a.mux.HandleFunc("DELETE /api/chat-history", a.handleClearHistory)
	}

	return a
}

// Mount serves h on each of the given ServeMux patterns.
func (a *Adapter) Mount(h http.Handler, patterns ...string) {
	for _, p := range patterns {
		a.mux.Handle(p, h)
	}
}

// Handler returns the http.Handler for this adapter with the HTTP-level
// middleware applied. From the outside in: recovery, request id, access
// logging, CORS, authentication, metrics.
func (a *Adapter) Handler() http.Handler {
	h := observability.MetricsMiddleware(a.mux)
	if a.config.Auth != nil {
		h = a.config.Auth(h)
	}
	h = corsMiddleware(a.config.CORSOrigins)(h)
	h = accessLogMiddleware(h)
	h = httpRequestIDMiddleware(h)
	return recoveryMiddleware(h)
}

func (a *Adapter) handleRoot(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": "Activities Agent API", "status": "running"})
}

func (a *Adapter) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (a *Adapter) handleHealthz(w http.ResponseWriter, r *http.Request) {
	if a.health != nil {
		if err := a.health(r.Context()); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unhealthy", "error": err.Error()})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleChat handles POST /api/chat.
func (a *Adapter) handleChat(w http.ResponseWriter, r *http.Request) {
	var req api.ChatRequest
	if !a.decode(w, r, &req, false) {
		return
	}
	req.UserID = resolveUser(r.Context(), req.UserID)

	resp, err := a.chat.Chat(r.Context(), &req)
	if err != nil {
		transport.WriteError(w, err)
		return
	}
	if strings.TrimSpace(resp.Response) == "" {
		resp.Response = emptyResponse
	}
	if resp.ToolResults == nil {
		resp.ToolResults = []api.ToolOutcome{}
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleReset handles POST /api/chat/reset. The body is optional.
func (a *Adapter) handleReset(w http.ResponseWriter, r *http.Request) {
	var req api.ResetRequest
	if !a.decode(w, r, &req, true) {
		return
	}
	if err := a.sessions.Reset(r.Context(), resolveUser(r.Context(), req.UserID)); err != nil {
		transport.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *Adapter) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := a.prefs.ListUsers(r.Context())
	if err != nil {
		transport.WriteError(w, err)
		return
	}
	if users == nil {
		users = []string{}
	}
	writeJSON(w, http.StatusOK, map[string][]string{"users": users})
}

func (a *Adapter) handleGetPreferences(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathUser(w, r)
	if !ok {
		return
	}
	prefs, err := a.prefs.GetPreferences(r.Context(), userID)
	if err != nil {
		transport.WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, prefs)
}

func (a *Adapter) handleUpdatePreferences(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathUser(w, r)
	if !ok {
		return
	}
	var update api.PreferencesUpdate
	if !a.decode(w, r, &update, false) {
		return
	}
	prefs, err := a.prefs.UpdatePreferences(r.Context(), userID, update)
	if err != nil {
		transport.WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, prefs)
}

func (a *Adapter) handleListHistory(w http.ResponseWriter, r *http.Request) {
	items, err := a.history.ListHistory(r.Context())
	if err != nil {
		transport.WriteError(w, err)
		return
	}
	if items == nil {
		items = []api.HistoryListItem{}
	}
	writeJSON(w, http.StatusOK, items)
}

func (a *Adapter) handleGetHistory(w http.ResponseWriter, r *http.Request) {
	entry, err := a.history.GetHistory(r.Context(), r.PathValue("id"))
	if err != nil {
		writeHistoryError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

func (a *Adapter) handleSaveHistory(w http.ResponseWriter, r *http.Request) {
	var save api.HistorySave
	if !a.decode(w, r, &save, false) {
		return
	}
	entry, err := a.history.SaveHistory(r.Context(), save)
	if err != nil {
		transport.WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

func (a *Adapter) handleDeleteHistory(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := a.history.DeleteHistory(r.Context(), id); err != nil {
		writeHistoryError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Chat history deleted", "id": id})
}

func (a *Adapter) handleClearHistory(w http.ResponseWriter, r *http.Request) {
	if _, err := a.history.ClearHistory(r.Context()); err != nil {
		transport.WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "All chat histories cleared"})
}

// decode reads a size-limited JSON body into v and validates it. An empty
// body is accepted when optional is set. It writes the error response and
// returns false on failure.
func (a *Adapter) decode(w http.ResponseWriter, r *http.Request, v any, optional bool) bool {
	ct := r.Header.Get("Content-Type")
	if ct != "" && !strings.HasPrefix(ct, "application/json") {
		transport.WriteErrorResponse(w,
			api.NewInvalidRequestError("content_type", "Content-Type must be application/json"),
			http.StatusUnsupportedMediaType,
		)
		return false
	}

	r.Body = http.MaxBytesReader(w, r.Body, a.config.MaxBodySize)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var maxBytesErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxBytesErr):
			transport.WriteErrorResponse(w,
				api.NewInvalidRequestError("body", fmt.Sprintf("request body too large (max %d bytes)", a.config.MaxBodySize)),
				http.StatusRequestEntityTooLarge,
			)
			return false
		case errors.Is(err, io.EOF) && optional:
		default:
			transport.WriteAPIError(w, api.NewInvalidRequestError("body", "invalid JSON: "+err.Error()))
			return false
		}
	}

	if err := a.validate.Struct(v); err != nil {
		transport.WriteAPIError(w, validationError(err))
		return false
	}
	return true
}

// validationError reports the first failed field.
func validationError(err error) *api.APIError {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return api.NewInvalidRequestError("body", err.Error())
	}
	fe := verrs[0]
	param := jsonName(fe.Namespace())
	var msg string
	switch fe.Tag() {
	case "required":
		msg = "is required"
	case "gte":
		msg = "must be >= " + fe.Param()
	case "max":
		msg = "must be at most " + fe.Param() + " characters"
	case "oneof":
		msg = "must be one of: " + fe.Param()
	default:
		msg = "failed " + fe.Tag() + " validation"
	}
	return api.NewInvalidRequestError(param, param+" "+msg)
}

// jsonName turns a validator namespace like "HistorySave.Messages[0].Role"
// into "messages[0].role".
func jsonName(ns string) string {
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		ns = ns[i+1:]
	}
	var b strings.Builder
	for i, part := range strings.Split(ns, ".") {
		if i > 0 {
			b.WriteByte('.')
		}
		b.WriteString(snake(part))
	}
	return b.String()
}

func snake(s string) string {
	var b strings.Builder
	for i, r := range s {
		if r >= 'A' && r <= 'Z' {
			if i > 0 && isLowerOrDigit(s[i-1]) {
				b.WriteByte('_')
			}
			r += 'a' - 'A'
		}
		b.WriteRune(r)
	}
	return b.String()
}

func isLowerOrDigit(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9')
}

// resolveUser picks the authenticated subject, then the requested id,
// then the default user.
func resolveUser(ctx context.Context, requested string) string {
	if id := auth.UserID(ctx); id != "" {
		return id
	}
	if requested != "" {
		return requested
	}
	return api.DefaultUserID
}

// pathUser reads {user_id} and rejects access to another user's record
// when the caller is authenticated.
func pathUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID := r.PathValue("user_id")
	if id := auth.UserID(r.Context()); id != "" && id != userID {
		transport.WriteErrorResponse(w,
			api.NewUnauthorizedError("cannot access preferences of another user"),
			http.StatusForbidden,
		)
		return "", false
	}
	return userID, true
}

func writeHistoryError(w http.ResponseWriter, err error) {
	if errors.Is(err, storage.ErrNotFound) {
		transport.WriteAPIError(w, api.NewNotFoundError("Chat history not found"))
		return
	}
	transport.WriteError(w, err)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
