// Package apikey validates bearer tokens against a static set of keys,
// each bound to the user it authenticates as.
package apikey

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/rhuss/outings/pkg/auth"
)

// Entry binds a raw key to a user id.
type Entry struct {
	Key  string
	User string
}

type hashedEntry struct {
	hash [32]byte
	user string
}

// Authenticator checks bearer tokens by SHA-256 hash in constant time.
type Authenticator struct {
	keys []hashedEntry
}

// New hashes the keys up front; plaintext keys are not kept.
func New(entries []Entry) *Authenticator {
	a := &Authenticator{}
	for _, e := range entries {
		if e.Key == "" {
			continue
		}
		a.keys = append(a.keys, hashedEntry{hash: sha256.Sum256([]byte(e.Key)), user: e.User})
	}
	return a
}

// Authenticate votes Yes for a known key and No for an unknown one. It
// abstains without a bearer token and for tokens shaped like a JWT, so a
// JWT authenticator later in the chain gets to see them.
func (a *Authenticator) Authenticate(_ context.Context, r *http.Request) auth.Result {
	token, ok := auth.BearerToken(r)
	if !ok || strings.Count(token, ".") == 2 {
		return auth.Result{Decision: auth.Abstain}
	}
	if token == "" {
		return auth.Result{Decision: auth.No, Err: auth.ErrUnauthenticated}
	}

	sum := sha256.Sum256([]byte(token))
	for _, k := range a.keys {
		if subtle.ConstantTimeCompare(sum[:], k.hash[:]) == 1 {
			return auth.Result{Decision: auth.Yes, Identity: &auth.Identity{Subject: k.user}}
		}
	}
	return auth.Result{Decision: auth.No, Err: auth.ErrUnauthenticated}
}
