// Package auth authenticates HTTP callers and binds them to a session user.
//
// Authenticators vote Yes (identity found), No (credentials present but
// invalid) or Abstain (not their kind of credentials). A Chain asks them
// in order and falls back to a default decision when all abstain. The
// Middleware stores the resulting Identity in the request context, where
// UserID reads it to pick the conversation a request belongs to.
package auth
