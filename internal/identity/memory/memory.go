// Package memory is an in-process identity double for tests and the
// memory backend.
package memory

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"fintrack/internal/core"
	"fintrack/internal/identity"
)

var _ identity.Provider = (*Provider)(nil)

type account struct {
	user     identity.User
	password string
}

type Provider struct {
	mu       sync.Mutex
	accounts map[string]*account // keyed by email
	sessions map[string]string   // token -> user id
}

func New() *Provider {
	return &Provider{
		accounts: make(map[string]*account),
		sessions: make(map[string]string),
	}
}

// Seed registers a user directly and returns it; tests use this to
// skip the sign-up flow.
func (p *Provider) Seed(email, password string) identity.User {
	p.mu.Lock()
	defer p.mu.Unlock()
	user := identity.User{ID: uuid.NewString(), Email: strings.ToLower(email), CreatedAt: time.Now()}
	p.accounts[user.Email] = &account{user: user, password: password}
	return user
}

// SessionFor mints a session token for an already-seeded user.
func (p *Provider) SessionFor(userID string) string {
	p.mu.Lock()
	defer p.mu.Unlock()
	token := uuid.NewString()
	p.sessions[token] = userID
	return token
}

func (p *Provider) SignUp(_ context.Context, email, password string) (identity.Session, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || len(password) < 6 {
		return identity.Session{}, fmt.Errorf("%w: email and a password of at least 6 characters are required", core.ErrValidation)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, exists := p.accounts[email]; exists {
		return identity.Session{}, fmt.Errorf("%w: email already registered", core.ErrValidation)
	}
	user := identity.User{ID: uuid.NewString(), Email: email, CreatedAt: time.Now()}
	p.accounts[email] = &account{user: user, password: password}
	token := uuid.NewString()
	p.sessions[token] = user.ID
	return identity.Session{AccessToken: token, User: user}, nil
}

func (p *Provider) SignIn(_ context.Context, email, password string) (identity.Session, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	acct, ok := p.accounts[strings.ToLower(strings.TrimSpace(email))]
	if !ok || acct.password != password {
		return identity.Session{}, fmt.Errorf("%w: credentials rejected", core.ErrAuthenticationRequired)
	}
	token := uuid.NewString()
	p.sessions[token] = acct.user.ID
	return identity.Session{AccessToken: token, User: acct.user}, nil
}

func (p *Provider) AuthorizeURL(provider, redirectTo string) (string, error) {
	if provider == "" {
		return "", errors.New("empty federation provider")
	}
	return "https://identity.invalid/authorize?provider=" + provider, nil
}

func (p *Provider) SignOut(_ context.Context, token string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.sessions, token)
	return nil
}

func (p *Provider) UserFromToken(_ context.Context, token string) (identity.User, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	userID, ok := p.sessions[token]
	if !ok {
		return identity.User{}, core.ErrAuthenticationRequired
	}
	for _, acct := range p.accounts {
		if acct.user.ID == userID {
			return acct.user, nil
		}
	}
	return identity.User{}, core.ErrAuthenticationRequired
}

func (p *Provider) LookupByEmail(_ context.Context, email string) (identity.User, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	acct, ok := p.accounts[strings.ToLower(strings.TrimSpace(email))]
	if !ok {
		return identity.User{}, core.ErrUserNotFound
	}
	return acct.user, nil
}
