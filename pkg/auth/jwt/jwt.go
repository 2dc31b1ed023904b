// Package jwt authenticates HMAC-signed JSON Web Tokens.
package jwt

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	gojwt "github.com/golang-jwt/jwt/v5"

	"github.com/rhuss/outings/pkg/auth"
)

// Config holds the JWT validation settings.
type Config struct {
	// Secret is the shared HMAC signing key. Required.
	Secret string

	// Issuer, when set, must match the "iss" claim.
	Issuer string

	// Audience, when set, must appear in the "aud" claim.
	Audience string

	// UserClaim names the claim holding the user id. Defaults to "sub".
	UserClaim string

	// ScopesClaim names a space-separated or array claim of scopes.
	// Defaults to "scope".
	ScopesClaim string
}

// Authenticator validates bearer JWTs.
type Authenticator struct {
	cfg    Config
	parser *gojwt.Parser
}

// New returns an authenticator for cfg.
func New(cfg Config) (*Authenticator, error) {
	if cfg.Secret == "" {
		return nil, errors.New("jwt: secret is required")
	}
	if cfg.UserClaim == "" {
		cfg.UserClaim = "sub"
	}
	if cfg.ScopesClaim == "" {
		cfg.ScopesClaim = "scope"
	}

	opts := []gojwt.ParserOption{
		gojwt.WithValidMethods([]string{"HS256", "HS384", "HS512"}),
		gojwt.WithExpirationRequired(),
	}
	if cfg.Issuer != "" {
		opts = append(opts, gojwt.WithIssuer(cfg.Issuer))
	}
	if cfg.Audience != "" {
		opts = append(opts, gojwt.WithAudience(cfg.Audience))
	}

	return &Authenticator{cfg: cfg, parser: gojwt.NewParser(opts...)}, nil
}

// Authenticate abstains on anything that is not a three-part bearer token.
func (a *Authenticator) Authenticate(_ context.Context, r *http.Request) auth.Result {
	raw, ok := auth.BearerToken(r)
	if !ok || strings.Count(raw, ".") != 2 {
		return auth.Result{Decision: auth.Abstain}
	}

	claims := gojwt.MapClaims{}
	_, err := a.parser.ParseWithClaims(raw, claims, func(*gojwt.Token) (any, error) {
		return []byte(a.cfg.Secret), nil
	})
	if err != nil {
		slog.Debug("jwt rejected", "error", err)
		return auth.Result{Decision: auth.No, Err: fmt.Errorf("%w: %v", auth.ErrUnauthenticated, err)}
	}

	subject, _ := claims[a.cfg.UserClaim].(string)
	if subject == "" {
		return auth.Result{Decision: auth.No, Err: fmt.Errorf("%w: claim %q missing", auth.ErrUnauthenticated, a.cfg.UserClaim)}
	}

	return auth.Result{
		Decision: auth.Yes,
		Identity: &auth.Identity{Subject: subject, Scopes: scopes(claims[a.cfg.ScopesClaim])},
	}
}

func scopes(v any) []string {
	switch s := v.(type) {
	case string:
		return strings.Fields(s)
	case []any:
		out := make([]string, 0, len(s))
		for _, item := range s {
			if str, ok := item.(string); ok {
				out = append(out, str)
			}
		}
		return out
	}
	return nil
}
