package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"
)

// Decision is an authenticator's vote.
type Decision int

const (
	// Yes accepts the request with the returned identity.
	Yes Decision = iota

	// No rejects the request.
	No

	// Abstain passes the request to the next authenticator.
	Abstain
)

// AnonymousSubject is the subject of requests accepted without credentials.
const AnonymousSubject = "anonymous"

// Result is the outcome of one authentication attempt.
type Result struct {
	Decision Decision
	Identity *Identity // set when Decision == Yes
	Err      error     // set when Decision == No
}

// Identity is an authenticated caller.
type Identity struct {
	// Subject becomes the session user id.
	Subject string

	// Scopes lists granted scopes, if the credential carries any.
	Scopes []string
}

// Anonymous reports whether id stands for an unauthenticated caller.
func (id *Identity) Anonymous() bool {
	return id == nil || id.Subject == "" || id.Subject == AnonymousSubject
}

// Authenticator inspects a request's credentials.
type Authenticator interface {
	Authenticate(ctx context.Context, r *http.Request) Result
}

var (
	ErrUnauthenticated = errors.New("authentication required")
	ErrTooManyRequests = errors.New("rate limit exceeded")
)

// Chain runs authenticators in order until one votes Yes or No.
type Chain struct {
	Authenticators []Authenticator

	// Default applies when every authenticator abstains. Yes admits the
	// caller as anonymous.
	Default Decision
}

// Authenticate returns the first non-abstaining vote, or the default.
func (c *Chain) Authenticate(ctx context.Context, r *http.Request) Result {
	for _, a := range c.Authenticators {
		if res := a.Authenticate(ctx, r); res.Decision != Abstain {
			return res
		}
	}
	if c.Default == Yes {
		return Result{Decision: Yes, Identity: &Identity{Subject: AnonymousSubject}}
	}
	return Result{Decision: No, Err: ErrUnauthenticated}
}

type identityKey struct{}

// WithIdentity stores id in ctx.
func WithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// IdentityFromContext returns the stored identity, or nil.
func IdentityFromContext(ctx context.Context) *Identity {
	id, _ := ctx.Value(identityKey{}).(*Identity)
	return id
}

// UserID returns the authenticated subject, or "" for anonymous callers.
func UserID(ctx context.Context) string {
	id := IdentityFromContext(ctx)
	if id.Anonymous() {
		return ""
	}
	return id.Subject
}

// BearerToken extracts the token of a "Bearer" Authorization header.
// ok is false when the header is absent or uses another scheme.
func BearerToken(r *http.Request) (token string, ok bool) {
	h := r.Header.Get("Authorization")
	if !strings.HasPrefix(h, "Bearer ") {
		return "", false
	}
	return strings.TrimSpace(strings.TrimPrefix(h, "Bearer ")), true
}
