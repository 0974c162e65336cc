package services

import (
	"context"
	"errors"
	"testing"

	"fintrack/internal/core"
	storemem "fintrack/internal/store/memory"
)

func TestGateVerdicts(t *testing.T) {
	st := storemem.New()
	ctx := context.Background()

	grant, err := st.InsertGrant(ctx, "admin-user")
	if err != nil {
		t.Fatalf("insert grant: %v", err)
	}

	gate := NewGate(st, testLogger())

	if gate.IsAdmin(ctx, "plain-user") {
		t.Error("user without grants should not be admin")
	}
	if !gate.IsAdmin(ctx, "admin-user") {
		t.Error("user with a grant should be admin")
	}
	if gate.IsAdmin(ctx, "") {
		t.Error("empty identity is never admin")
	}

	// Verdicts stick until reset even after the roster changes.
	if err := st.DeleteGrant(ctx, grant.ID); err != nil {
		t.Fatalf("delete grant: %v", err)
	}
	if !gate.IsAdmin(ctx, "admin-user") {
		t.Error("cached verdict should survive a roster change")
	}

	gate.Reset("admin-user")
	if gate.IsAdmin(ctx, "admin-user") {
		t.Error("after reset the gate should see the revocation")
	}
}

// flakyAdminStore fails grant queries until cleared.
type flakyAdminStore struct {
	*storemem.Store
	fail bool
}

func (f *flakyAdminStore) FindGrantsByUser(ctx context.Context, userID string) ([]core.AdminGrant, error) {
	if f.fail {
		return nil, errors.New("store unreachable")
	}
	return f.Store.FindGrantsByUser(ctx, userID)
}

func TestGateQueryFailureIsFalseButNotCached(t *testing.T) {
	ctx := context.Background()
	inner := storemem.New()
	if _, err := inner.InsertGrant(ctx, "admin-user"); err != nil {
		t.Fatalf("insert grant: %v", err)
	}

	st := &flakyAdminStore{Store: inner, fail: true}
	gate := NewGate(st, testLogger())

	if gate.IsAdmin(ctx, "admin-user") {
		t.Fatal("query failure must answer false")
	}

	// The failure verdict was not cached; once the store recovers the
	// same check finds the grant.
	st.fail = false
	if !gate.IsAdmin(ctx, "admin-user") {
		t.Fatal("recovered store should yield the real verdict")
	}
}
