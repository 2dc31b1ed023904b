package auth

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/rhuss/outings/pkg/api"
	"github.com/rhuss/outings/pkg/observability"
)

// DefaultBypassEndpoints lists endpoints that skip authentication.
var DefaultBypassEndpoints = []string{"/", "/health", "/healthz", "/metrics"}

// Middleware authenticates every request through chain, enforces the
// optional per-identity limiter and stores the identity in the context.
func Middleware(chain *Chain, limiter *Limiter, bypassEndpoints []string) func(http.Handler) http.Handler {
	bypass := make(map[string]bool, len(bypassEndpoints))
	for _, ep := range bypassEndpoints {
		bypass[ep] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if bypass[r.URL.Path] {
				next.ServeHTTP(w, r)
				return
			}

			result := chain.Authenticate(r.Context(), r)
			if result.Decision != Yes || result.Identity == nil {
				slog.Warn("authentication failed",
					"path", r.URL.Path,
					"remote_addr", r.RemoteAddr,
					"error", result.Err,
				)
				writeError(w, http.StatusUnauthorized, api.NewUnauthorizedError("authentication required"))
				return
			}

			if result.Identity.Subject == "" {
				slog.Error("authenticator returned identity with empty subject")
				writeError(w, http.StatusInternalServerError, api.NewServerError("internal authentication error"))
				return
			}

			if limiter != nil && !limiter.Allow(result.Identity) {
				slog.Warn("rate limit exceeded", "subject", result.Identity.Subject)
				observability.RateLimitRejectedTotal.WithLabelValues("identity").Inc()
				writeError(w, http.StatusTooManyRequests, api.NewTooManyRequestsError(ErrTooManyRequests.Error()))
				return
			}

			slog.Debug("authenticated", "subject", result.Identity.Subject, "path", r.URL.Path)
			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), result.Identity)))
		})
	}
}

func writeError(w http.ResponseWriter, status int, apiErr *api.APIError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(api.ErrorResponse{Error: apiErr})
}
