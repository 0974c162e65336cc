// Package local is the identity provider for the self-hosted sqlite
// backend: bcrypt password hashes and opaque session tokens in the
// same database the collections live in.
package local

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"fintrack/internal/core"
	"fintrack/internal/identity"
)

var _ identity.Provider = (*Provider)(nil)

type Provider struct {
	db *sql.DB
}

func New(db *sql.DB) *Provider {
	return &Provider{db: db}
}

func (p *Provider) SignUp(ctx context.Context, email, password string) (identity.Session, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || len(password) < 6 {
		return identity.Session{}, fmt.Errorf("%w: email and a password of at least 6 characters are required", core.ErrValidation)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return identity.Session{}, fmt.Errorf("hash password: %w", err)
	}

	user := identity.User{
		ID:        uuid.NewString(),
		Email:     email,
		CreatedAt: time.Now().UTC(),
	}
	_, err = p.db.ExecContext(ctx,
		`INSERT INTO users (id, email, password_hash, created_at) VALUES (?, ?, ?, ?)`,
		user.ID, user.Email, string(hash), user.CreatedAt)
	if err != nil {
		return identity.Session{}, fmt.Errorf("%w: create user: %v", core.ErrPersistence, err)
	}

	return p.openSession(ctx, user)
}

func (p *Provider) SignIn(ctx context.Context, email, password string) (identity.Session, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	var (
		user identity.User
		hash string
	)
	err := p.db.QueryRowContext(ctx,
		`SELECT id, email, password_hash, created_at FROM users WHERE email = ?`, email).
		Scan(&user.ID, &user.Email, &hash, &user.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return identity.Session{}, fmt.Errorf("%w: credentials rejected", core.ErrAuthenticationRequired)
	}
	if err != nil {
		return identity.Session{}, fmt.Errorf("%w: look up user: %v", core.ErrPersistence, err)
	}

	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) != nil {
		return identity.Session{}, fmt.Errorf("%w: credentials rejected", core.ErrAuthenticationRequired)
	}

	return p.openSession(ctx, user)
}

// AuthorizeURL is unsupported in self-hosted mode; federation belongs
// to the managed identity service.
func (p *Provider) AuthorizeURL(provider, redirectTo string) (string, error) {
	return "", errors.New("oauth federation is not available on the sqlite backend")
}

func (p *Provider) SignOut(ctx context.Context, token string) error {
	// Deleting an unknown token is still a successful sign-out.
	_, err := p.db.ExecContext(ctx, `DELETE FROM sessions WHERE token = ?`, token)
	if err != nil {
		return fmt.Errorf("%w: delete session: %v", core.ErrPersistence, err)
	}
	return nil
}

func (p *Provider) UserFromToken(ctx context.Context, token string) (identity.User, error) {
	if token == "" {
		return identity.User{}, core.ErrAuthenticationRequired
	}
	var user identity.User
	err := p.db.QueryRowContext(ctx,
		`SELECT u.id, u.email, u.created_at
		 FROM sessions s JOIN users u ON u.id = s.user_id
		 WHERE s.token = ?`, token).
		Scan(&user.ID, &user.Email, &user.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return identity.User{}, core.ErrAuthenticationRequired
	}
	if err != nil {
		return identity.User{}, fmt.Errorf("%w: resolve session: %v", core.ErrPersistence, err)
	}
	return user, nil
}

func (p *Provider) LookupByEmail(ctx context.Context, email string) (identity.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	var user identity.User
	err := p.db.QueryRowContext(ctx,
		`SELECT id, email, created_at FROM users WHERE email = ?`, email).
		Scan(&user.ID, &user.Email, &user.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return identity.User{}, core.ErrUserNotFound
	}
	if err != nil {
		return identity.User{}, fmt.Errorf("%w: look up user: %v", core.ErrPersistence, err)
	}
	return user, nil
}

func (p *Provider) openSession(ctx context.Context, user identity.User) (identity.Session, error) {
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return identity.Session{}, fmt.Errorf("generate session token: %w", err)
	}
	token := hex.EncodeToString(raw)

	_, err := p.db.ExecContext(ctx,
		`INSERT INTO sessions (token, user_id, created_at) VALUES (?, ?, ?)`,
		token, user.ID, time.Now().UTC())
	if err != nil {
		return identity.Session{}, fmt.Errorf("%w: create session: %v", core.ErrPersistence, err)
	}

	return identity.Session{AccessToken: token, User: user}, nil
}
