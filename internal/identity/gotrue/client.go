// Package gotrue is the HTTP client for the managed identity service.
// It covers the session operations the app consumes plus the
// privileged admin user lookup used to resolve admin grants.
package gotrue

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/identity"
)

var _ identity.Provider = (*Client)(nil)

type Client struct {
	baseURL    string
	anonKey    string
	serviceKey string
	http       *http.Client
}

// New creates a client. serviceKey may be empty; LookupByEmail then
// fails with core.ErrPermissionDenied, which is the correct answer for
// a deployment that never granted the app administrative credentials.
func New(baseURL, anonKey, serviceKey string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		anonKey:    anonKey,
		serviceKey: serviceKey,
		http:       &http.Client{Timeout: 10 * time.Second},
	}
}

type wireUser struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

type wireSession struct {
	AccessToken string   `json:"access_token"`
	User        wireUser `json:"user"`
}

func (c *Client) SignUp(ctx context.Context, email, password string) (identity.Session, error) {
	return c.session(ctx, "/auth/v1/signup", email, password)
}

func (c *Client) SignIn(ctx context.Context, email, password string) (identity.Session, error) {
	return c.session(ctx, "/auth/v1/token?grant_type=password", email, password)
}

func (c *Client) session(ctx context.Context, path, email, password string) (identity.Session, error) {
	body, _ := json.Marshal(map[string]string{"email": email, "password": password})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return identity.Session{}, fmt.Errorf("build auth request: %w", err)
	}
	req.Header.Set("apikey", c.anonKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return identity.Session{}, fmt.Errorf("%w: auth request: %v", core.ErrPersistence, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusUnauthorized ||
			resp.StatusCode == http.StatusUnprocessableEntity {
			return identity.Session{}, fmt.Errorf("%w: credentials rejected", core.ErrAuthenticationRequired)
		}
		return identity.Session{}, fmt.Errorf("%w: auth service status %d", core.ErrPersistence, resp.StatusCode)
	}

	var ws wireSession
	if err := json.NewDecoder(resp.Body).Decode(&ws); err != nil {
		return identity.Session{}, fmt.Errorf("%w: decode session: %v", core.ErrPersistence, err)
	}
	if ws.AccessToken == "" {
		return identity.Session{}, fmt.Errorf("%w: session has no access token", core.ErrAuthenticationRequired)
	}
	return identity.Session{
		AccessToken: ws.AccessToken,
		User:        identity.User{ID: ws.User.ID, Email: ws.User.Email, CreatedAt: ws.User.CreatedAt},
	}, nil
}

func (c *Client) AuthorizeURL(provider, redirectTo string) (string, error) {
	if strings.TrimSpace(provider) == "" {
		return "", errors.New("empty federation provider")
	}
	q := url.Values{}
	q.Set("provider", provider)
	if redirectTo != "" {
		q.Set("redirect_to", redirectTo)
	}
	return c.baseURL + "/auth/v1/authorize?" + q.Encode(), nil
}

func (c *Client) SignOut(ctx context.Context, token string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/auth/v1/logout", nil)
	if err != nil {
		return fmt.Errorf("build logout request: %w", err)
	}
	req.Header.Set("apikey", c.anonKey)
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: logout: %v", core.ErrPersistence, err)
	}
	defer resp.Body.Close()
	// An already-dead token is a successful sign-out.
	if resp.StatusCode >= 500 {
		return fmt.Errorf("%w: logout status %d", core.ErrPersistence, resp.StatusCode)
	}
	return nil
}

func (c *Client) UserFromToken(ctx context.Context, token string) (identity.User, error) {
	if token == "" {
		return identity.User{}, core.ErrAuthenticationRequired
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/auth/v1/user", nil)
	if err != nil {
		return identity.User{}, fmt.Errorf("build user request: %w", err)
	}
	req.Header.Set("apikey", c.anonKey)
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.http.Do(req)
	if err != nil {
		return identity.User{}, fmt.Errorf("%w: get user: %v", core.ErrPersistence, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return identity.User{}, core.ErrAuthenticationRequired
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return identity.User{}, fmt.Errorf("%w: get user status %d", core.ErrPersistence, resp.StatusCode)
	}

	var wu wireUser
	if err := json.NewDecoder(resp.Body).Decode(&wu); err != nil {
		return identity.User{}, fmt.Errorf("%w: decode user: %v", core.ErrPersistence, err)
	}
	return identity.User{ID: wu.ID, Email: wu.Email, CreatedAt: wu.CreatedAt}, nil
}

// LookupByEmail walks the privileged admin user listing pages until it
// finds a match. A missing user is core.ErrUserNotFound, never a
// transport failure.
func (c *Client) LookupByEmail(ctx context.Context, email string) (identity.User, error) {
	if c.serviceKey == "" {
		return identity.User{}, fmt.Errorf("%w: no administrative credential configured", core.ErrPermissionDenied)
	}
	email = strings.ToLower(strings.TrimSpace(email))

	const perPage = 50
	for page := 1; page <= 40; page++ {
		users, err := c.adminListUsers(ctx, page, perPage)
		if err != nil {
			return identity.User{}, err
		}
		for _, u := range users {
			if strings.ToLower(u.Email) == email {
				return identity.User{ID: u.ID, Email: u.Email, CreatedAt: u.CreatedAt}, nil
			}
		}
		if len(users) < perPage {
			break
		}
	}
	return identity.User{}, core.ErrUserNotFound
}

func (c *Client) adminListUsers(ctx context.Context, page, perPage int) ([]wireUser, error) {
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("per_page", strconv.Itoa(perPage))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/auth/v1/admin/users?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build admin users request: %w", err)
	}
	req.Header.Set("apikey", c.serviceKey)
	req.Header.Set("Authorization", "Bearer "+c.serviceKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: list users: %v", core.ErrPersistence, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return nil, fmt.Errorf("%w: admin user listing rejected", core.ErrPermissionDenied)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("%w: list users status %d: %s", core.ErrPersistence, resp.StatusCode, strings.TrimSpace(string(payload)))
	}

	var body struct {
		Users []wireUser `json:"users"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("%w: decode users: %v", core.ErrPersistence, err)
	}
	return body.Users, nil
}
