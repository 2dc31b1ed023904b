// Package noop provides an authenticator that admits every request under
// a fixed subject.
package noop

import (
	"context"
	"net/http"

	"github.com/rhuss/outings/pkg/auth"
)

// Authenticator always votes Yes.
type Authenticator struct {
	Subject string
}

// New returns an authenticator that admits callers as anonymous.
func New() *Authenticator {
	return &Authenticator{Subject: auth.AnonymousSubject}
}

// Authenticate returns Yes with the configured subject.
func (a *Authenticator) Authenticate(_ context.Context, _ *http.Request) auth.Result {
	return auth.Result{Decision: auth.Yes, Identity: &auth.Identity{Subject: a.Subject}}
}
