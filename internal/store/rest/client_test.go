package rest

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"fintrack/internal/core"
	"fintrack/internal/identity"
	"fintrack/internal/log"
)

func testLogger() *log.Logger {
	return log.New(log.Config{Handler: slog.NewTextHandler(io.Discard, nil)})
}

func TestListTransactionsRequestShape(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/rest/v1/transactions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("user_id"); got != "eq.user-1" {
			t.Errorf("expected owner filter eq.user-1, got %q", got)
		}
		if got := r.URL.Query().Get("order"); got != "created_at.desc" {
			t.Errorf("expected created_at.desc order, got %q", got)
		}
		if got := r.Header.Get("apikey"); got != "anon" {
			t.Errorf("expected apikey header, got %q", got)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer session-token" {
			t.Errorf("expected session bearer, got %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[
			{"id":"t1","user_id":"user-1","type":"income","amount":1000,"category":"Salary","date":"2025-01-01","created_at":"2025-01-03T10:00:00Z"},
			{"id":"t2","user_id":"user-1","type":"expense","amount":"250.50","category":"Food","date":"2025-01-02","created_at":"2025-01-02T10:00:00Z"}
		]`))
	}))
	defer srv.Close()

	c := New(srv.URL, "anon", testLogger())
	ctx := identity.WithToken(context.Background(), "session-token")
	ts, err := c.ListTransactions(ctx, "user-1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(ts) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(ts))
	}
	if ts[0].Amount.Cents != 100000 {
		t.Fatalf("numeric amount should convert to cents, got %d", ts[0].Amount.Cents)
	}
	if ts[1].Amount.Cents != 25050 {
		t.Fatalf("string amount should convert to cents, got %d", ts[1].Amount.Cents)
	}
	if ts[1].OccurredOn.ISO() != "2025-01-02" {
		t.Fatalf("bad date parse: %s", ts[1].OccurredOn.ISO())
	}
}

func TestDeleteAbsentRowIsNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete {
			t.Errorf("expected DELETE, got %s", r.Method)
		}
		if got := r.Header.Get("Prefer"); got != "return=representation" {
			t.Errorf("expected representation preference, got %q", got)
		}
		if got := r.URL.Query().Get("id"); got != "eq.missing" {
			t.Errorf("expected id filter eq.missing, got %q", got)
		}
		if got := r.URL.Query().Get("user_id"); got != "eq.user-1" {
			t.Errorf("expected owner filter eq.user-1, got %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	c := New(srv.URL, "anon", testLogger())
	err := c.DeleteTransaction(context.Background(), "user-1", "missing")
	if !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPermissionDeniedMapping(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"new row violates row-level security policy"}`, http.StatusForbidden)
	}))
	defer srv.Close()

	c := New(srv.URL, "anon", testLogger())
	_, err := c.InsertGrant(context.Background(), "user-1")
	if !errors.Is(err, core.ErrPermissionDenied) {
		t.Fatalf("expected ErrPermissionDenied, got %v", err)
	}
}

func TestTransportFailureIsPersistence(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream unavailable", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := New(srv.URL, "anon", testLogger())
	_, err := c.ListDonations(context.Background())
	if !errors.Is(err, core.ErrPersistence) {
		t.Fatalf("expected ErrPersistence, got %v", err)
	}
}

func TestFindGrantsByUser(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("user_id"); got != "eq.user-9" {
			t.Errorf("expected eq.user-9 filter, got %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"id":"g1","user_id":"user-9","created_at":"2025-01-01T00:00:00Z"}]`))
	}))
	defer srv.Close()

	c := New(srv.URL, "anon", testLogger())
	grants, err := c.FindGrantsByUser(context.Background(), "user-9")
	if err != nil {
		t.Fatalf("find grants: %v", err)
	}
	if len(grants) != 1 || grants[0].UserID != "user-9" {
		t.Fatalf("unexpected grants %+v", grants)
	}
}
