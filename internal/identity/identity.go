// Package identity defines the port for the external identity and
// session provider, plus the context plumbing that carries a caller's
// access token down to the store gateway.
package identity

import (
	"context"
	"time"
)

// User is the resolved identity behind a session token.
type User struct {
	ID        string
	Email     string
	CreatedAt time.Time
}

// Session is the result of a successful sign-up or sign-in.
type Session struct {
	AccessToken string
	User        User
}

// Provider is the identity/session port. LookupByEmail is privileged:
// it is only callable with administrative credentials and exists
// solely to resolve admin grants.
type Provider interface {
	SignUp(ctx context.Context, email, password string) (Session, error)
	SignIn(ctx context.Context, email, password string) (Session, error)

	// AuthorizeURL returns the federation URL for an OAuth-style
	// provider ("github", "google", ...); the browser completes the
	// flow against the identity service directly.
	AuthorizeURL(provider, redirectTo string) (string, error)

	SignOut(ctx context.Context, token string) error

	// UserFromToken resolves the identity behind an access token;
	// fails with core.ErrAuthenticationRequired when the token is
	// missing, expired or unknown.
	UserFromToken(ctx context.Context, token string) (User, error)

	// LookupByEmail resolves an identity by email; fails with
	// core.ErrUserNotFound when no such user exists.
	LookupByEmail(ctx context.Context, email string) (User, error)
}

type tokenKey struct{}

// WithToken attaches the caller's access token to the context so the
// store gateway can authenticate per-request.
func WithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenKey{}, token)
}

// TokenFrom extracts the access token attached by WithToken.
func TokenFrom(ctx context.Context) (string, bool) {
	token, ok := ctx.Value(tokenKey{}).(string)
	return token, ok && token != ""
}
