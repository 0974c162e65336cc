// Package rest speaks the managed store's PostgREST-style protocol.
// The client is a thin gateway: every call is one HTTP round trip
// against /rest/v1/{collection} and row-level policy enforcement
// happens on the server, keyed by the caller's bearer token.
package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/identity"
	"fintrack/internal/log"
	"fintrack/internal/store"
)

var _ store.Store = (*Client)(nil)

type Client struct {
	baseURL string
	anonKey string
	http    *http.Client
	logger  *log.Logger
}

func New(baseURL, anonKey string, logger *log.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		anonKey: anonKey,
		http:    &http.Client{Timeout: 10 * time.Second},
		logger:  logger.WithComponent(log.ComponentStore),
	}
}

// transactionRow is the wire shape of a transactions row. Amounts
// travel as decimal strings and are converted to cents exactly once at
// this boundary; remote responses never reach the aggregation logic
// untyped.
type transactionRow struct {
	ID          string      `json:"id,omitempty"`
	UserID      string      `json:"user_id"`
	Type        string      `json:"type"`
	Amount      json.Number `json:"amount"`
	Category    string      `json:"category"`
	Description string      `json:"description,omitempty"`
	Date        string      `json:"date"`
	CreatedAt   time.Time   `json:"created_at,omitempty"`
}

type donationRow struct {
	ID            string      `json:"id,omitempty"`
	DonorName     string      `json:"donor_name"`
	Amount        json.Number `json:"amount"`
	PaymentMethod string      `json:"payment_method"`
	PhoneNumber   string      `json:"phone_number"`
	CreatedAt     time.Time   `json:"created_at,omitempty"`
}

type grantRow struct {
	ID        string    `json:"id,omitempty"`
	UserID    string    `json:"user_id"`
	CreatedAt time.Time `json:"created_at,omitempty"`
}

func (c *Client) InsertTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	row := transactionRow{
		UserID:      t.Owner,
		Type:        string(t.Kind),
		Amount:      json.Number(t.Amount.Decimal()),
		Category:    t.Category,
		Description: t.Description,
		Date:        t.OccurredOn.ISO(),
	}
	var out []transactionRow
	if err := c.do(ctx, http.MethodPost, "transactions", nil, row, &out); err != nil {
		return core.Transaction{}, err
	}
	if len(out) == 0 {
		return core.Transaction{}, fmt.Errorf("%w: insert returned no row", core.ErrPersistence)
	}
	return toTransaction(out[0])
}

func (c *Client) ListTransactions(ctx context.Context, owner string) ([]core.Transaction, error) {
	q := url.Values{}
	q.Set("user_id", "eq."+owner)
	q.Set("order", "created_at.desc")
	var rows []transactionRow
	if err := c.do(ctx, http.MethodGet, "transactions", q, nil, &rows); err != nil {
		return nil, err
	}
	out := make([]core.Transaction, 0, len(rows))
	for _, row := range rows {
		t, err := toTransaction(row)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

// DeleteTransaction filters on both id and owner. The remote row-level
// policy already scopes deletes to the token's identity; the explicit
// owner filter keeps the contract identical across backends.
func (c *Client) DeleteTransaction(ctx context.Context, owner, id string) error {
	q := url.Values{}
	q.Set("id", "eq."+id)
	q.Set("user_id", "eq."+owner)
	return c.deleteWhere(ctx, "transactions", q)
}

func (c *Client) InsertDonation(ctx context.Context, d core.Donation) (core.Donation, error) {
	row := donationRow{
		DonorName:     d.DonorName,
		Amount:        json.Number(d.Amount.Decimal()),
		PaymentMethod: string(d.Method),
		PhoneNumber:   d.PhoneNumber,
	}
	var out []donationRow
	if err := c.do(ctx, http.MethodPost, "donations", nil, row, &out); err != nil {
		return core.Donation{}, err
	}
	if len(out) == 0 {
		return core.Donation{}, fmt.Errorf("%w: insert returned no row", core.ErrPersistence)
	}
	return toDonation(out[0])
}

func (c *Client) ListDonations(ctx context.Context) ([]core.Donation, error) {
	q := url.Values{}
	q.Set("order", "created_at.desc")
	var rows []donationRow
	if err := c.do(ctx, http.MethodGet, "donations", q, nil, &rows); err != nil {
		return nil, err
	}
	out := make([]core.Donation, 0, len(rows))
	for _, row := range rows {
		d, err := toDonation(row)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}

func (c *Client) DeleteDonation(ctx context.Context, id string) error {
	return c.deleteByID(ctx, "donations", id)
}

func (c *Client) InsertGrant(ctx context.Context, userID string) (core.AdminGrant, error) {
	var out []grantRow
	if err := c.do(ctx, http.MethodPost, "admins", nil, grantRow{UserID: userID}, &out); err != nil {
		return core.AdminGrant{}, err
	}
	if len(out) == 0 {
		return core.AdminGrant{}, fmt.Errorf("%w: insert returned no row", core.ErrPersistence)
	}
	return core.AdminGrant{ID: out[0].ID, UserID: out[0].UserID, CreatedAt: out[0].CreatedAt}, nil
}

func (c *Client) ListGrants(ctx context.Context) ([]core.AdminGrant, error) {
	q := url.Values{}
	q.Set("order", "created_at.desc")
	return c.listGrants(ctx, q)
}

func (c *Client) FindGrantsByUser(ctx context.Context, userID string) ([]core.AdminGrant, error) {
	q := url.Values{}
	q.Set("user_id", "eq."+userID)
	return c.listGrants(ctx, q)
}

func (c *Client) DeleteGrant(ctx context.Context, id string) error {
	return c.deleteByID(ctx, "admins", id)
}

func (c *Client) listGrants(ctx context.Context, q url.Values) ([]core.AdminGrant, error) {
	var rows []grantRow
	if err := c.do(ctx, http.MethodGet, "admins", q, nil, &rows); err != nil {
		return nil, err
	}
	out := make([]core.AdminGrant, 0, len(rows))
	for _, row := range rows {
		out = append(out, core.AdminGrant{ID: row.ID, UserID: row.UserID, CreatedAt: row.CreatedAt})
	}
	return out, nil
}

// deleteByID issues a filtered DELETE and asks the store to return the
// removed rows; an empty result means the row was already gone.
func (c *Client) deleteByID(ctx context.Context, collection, id string) error {
	q := url.Values{}
	q.Set("id", "eq."+id)
	return c.deleteWhere(ctx, collection, q)
}

func (c *Client) deleteWhere(ctx context.Context, collection string, q url.Values) error {
	var removed []json.RawMessage
	if err := c.do(ctx, http.MethodDelete, collection, q, nil, &removed); err != nil {
		return err
	}
	if len(removed) == 0 {
		return core.ErrNotFound
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, collection string, query url.Values, body, out any) error {
	endpoint := c.baseURL + "/rest/v1/" + collection
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal %s body: %w", collection, err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("build %s request: %w", collection, err)
	}
	req.Header.Set("apikey", c.anonKey)
	req.Header.Set("Authorization", "Bearer "+c.bearer(ctx))
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if method == http.MethodPost || method == http.MethodDelete {
		// Representation lets us detect no-op deletes and read back
		// server-assigned ids without a second round trip.
		req.Header.Set("Prefer", "return=representation")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s %s: %v", core.ErrPersistence, method, collection, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		c.logger.WarnContext(ctx, "Store request rejected",
			log.FieldCollection, collection,
			log.FieldMethod, method,
			log.FieldStatusCode, resp.StatusCode)
		switch resp.StatusCode {
		case http.StatusUnauthorized, http.StatusForbidden:
			return fmt.Errorf("%w: %s %s: status %d", core.ErrPermissionDenied, method, collection, resp.StatusCode)
		case http.StatusNotFound:
			return core.ErrNotFound
		default:
			return fmt.Errorf("%w: %s %s: status %d: %s", core.ErrPersistence, method, collection, resp.StatusCode, strings.TrimSpace(string(payload)))
		}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode %s response: %v", core.ErrPersistence, collection, err)
	}
	return nil
}

// bearer prefers the caller's session token so the store's row-level
// policy sees the real identity; the anon key is the fallback.
func (c *Client) bearer(ctx context.Context) string {
	if token, ok := identity.TokenFrom(ctx); ok {
		return token
	}
	return c.anonKey
}

func toTransaction(row transactionRow) (core.Transaction, error) {
	cents, err := core.ParseDecimalToCents(row.Amount.String())
	if err != nil {
		return core.Transaction{}, fmt.Errorf("transaction %s: %w", row.ID, err)
	}
	date, err := core.ParseDate(row.Date)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("transaction %s: %w", row.ID, err)
	}
	return core.Transaction{
		ID:          row.ID,
		Owner:       row.UserID,
		Kind:        core.Kind(row.Type),
		Amount:      core.Money{Cents: cents},
		Category:    row.Category,
		Description: row.Description,
		OccurredOn:  date,
		CreatedAt:   row.CreatedAt,
	}, nil
}

func toDonation(row donationRow) (core.Donation, error) {
	cents, err := core.ParseDecimalToCents(row.Amount.String())
	if err != nil {
		return core.Donation{}, fmt.Errorf("donation %s: %w", row.ID, err)
	}
	return core.Donation{
		ID:          row.ID,
		DonorName:   row.DonorName,
		Amount:      core.Money{Cents: cents},
		Method:      core.PaymentMethod(row.PaymentMethod),
		PhoneNumber: row.PhoneNumber,
		CreatedAt:   row.CreatedAt,
	}, nil
}
