// Package sqlite is the self-hosted gateway: the three collections
// live in a local SQLite database instead of the managed remote store.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"fintrack/internal/core"
	"fintrack/internal/store"
)

var _ store.Store = (*Repository)(nil)

type Repository struct {
	db *sql.DB
}

func NewRepository(dbPath string) (*Repository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Repository{db: db}, nil
}

// DB exposes the underlying handle for the local identity provider,
// which shares this database.
func (r *Repository) DB() *sql.DB {
	return r.db
}

func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *Repository) InsertTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}
	t.ID = uuid.NewString()
	t.CreatedAt = time.Now().UTC()
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO transactions (id, user_id, type, amount_cents, category, description, occurred_on, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.Owner, string(t.Kind), t.Amount.Cents, t.Category, t.Description, t.OccurredOn.ISO(), t.CreatedAt)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("%w: insert transaction: %v", core.ErrPersistence, err)
	}
	return t, nil
}

func (r *Repository) ListTransactions(ctx context.Context, owner string) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, type, amount_cents, category, description, occurred_on, created_at
		 FROM transactions WHERE user_id = ? ORDER BY created_at DESC`, owner)
	if err != nil {
		return nil, fmt.Errorf("%w: list transactions: %v", core.ErrPersistence, err)
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		var (
			t          core.Transaction
			kind, date string
		)
		if err := rows.Scan(&t.ID, &t.Owner, &kind, &t.Amount.Cents, &t.Category, &t.Description, &date, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("%w: scan transaction: %v", core.ErrPersistence, err)
		}
		t.Kind = core.Kind(kind)
		if t.OccurredOn, err = core.ParseDate(date); err != nil {
			return nil, fmt.Errorf("transaction %s: %w", t.ID, err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate transactions: %v", core.ErrPersistence, err)
	}
	return out, nil
}

func (r *Repository) DeleteTransaction(ctx context.Context, owner, id string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM transactions WHERE id = ? AND user_id = ?`, id, owner)
	if err != nil {
		return fmt.Errorf("%w: delete transaction: %v", core.ErrPersistence, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: delete transaction: %v", core.ErrPersistence, err)
	}
	if affected == 0 {
		return core.ErrNotFound
	}
	return nil
}

func (r *Repository) InsertDonation(ctx context.Context, d core.Donation) (core.Donation, error) {
	if err := d.Validate(); err != nil {
		return core.Donation{}, err
	}
	d.ID = uuid.NewString()
	d.CreatedAt = time.Now().UTC()
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO donations (id, donor_name, amount_cents, payment_method, phone_number, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		d.ID, d.DonorName, d.Amount.Cents, string(d.Method), d.PhoneNumber, d.CreatedAt)
	if err != nil {
		return core.Donation{}, fmt.Errorf("%w: insert donation: %v", core.ErrPersistence, err)
	}
	return d, nil
}

func (r *Repository) ListDonations(ctx context.Context) ([]core.Donation, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, donor_name, amount_cents, payment_method, phone_number, created_at
		 FROM donations ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("%w: list donations: %v", core.ErrPersistence, err)
	}
	defer rows.Close()

	var out []core.Donation
	for rows.Next() {
		var (
			d      core.Donation
			method string
		)
		if err := rows.Scan(&d.ID, &d.DonorName, &d.Amount.Cents, &method, &d.PhoneNumber, &d.CreatedAt); err != nil {
			return nil, fmt.Errorf("%w: scan donation: %v", core.ErrPersistence, err)
		}
		d.Method = core.PaymentMethod(method)
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate donations: %v", core.ErrPersistence, err)
	}
	return out, nil
}

func (r *Repository) DeleteDonation(ctx context.Context, id string) error {
	return r.deleteByID(ctx, "donations", id)
}

func (r *Repository) InsertGrant(ctx context.Context, userID string) (core.AdminGrant, error) {
	g := core.AdminGrant{
		ID:        uuid.NewString(),
		UserID:    userID,
		CreatedAt: time.Now().UTC(),
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO admins (id, user_id, created_at) VALUES (?, ?, ?)`,
		g.ID, g.UserID, g.CreatedAt)
	if err != nil {
		return core.AdminGrant{}, fmt.Errorf("%w: insert grant: %v", core.ErrPersistence, err)
	}
	return g, nil
}

func (r *Repository) ListGrants(ctx context.Context) ([]core.AdminGrant, error) {
	return r.queryGrants(ctx,
		`SELECT id, user_id, created_at FROM admins ORDER BY created_at DESC`)
}

func (r *Repository) FindGrantsByUser(ctx context.Context, userID string) ([]core.AdminGrant, error) {
	return r.queryGrants(ctx,
		`SELECT id, user_id, created_at FROM admins WHERE user_id = ?`, userID)
}

func (r *Repository) DeleteGrant(ctx context.Context, id string) error {
	return r.deleteByID(ctx, "admins", id)
}

func (r *Repository) queryGrants(ctx context.Context, query string, args ...any) ([]core.AdminGrant, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: query grants: %v", core.ErrPersistence, err)
	}
	defer rows.Close()

	var out []core.AdminGrant
	for rows.Next() {
		var g core.AdminGrant
		if err := rows.Scan(&g.ID, &g.UserID, &g.CreatedAt); err != nil {
			return nil, fmt.Errorf("%w: scan grant: %v", core.ErrPersistence, err)
		}
		out = append(out, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate grants: %v", core.ErrPersistence, err)
	}
	return out, nil
}

func (r *Repository) deleteByID(ctx context.Context, table, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM `+table+` WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("%w: delete from %s: %v", core.ErrPersistence, table, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: delete from %s: %v", core.ErrPersistence, table, err)
	}
	if affected == 0 {
		return core.ErrNotFound
	}
	return nil
}
