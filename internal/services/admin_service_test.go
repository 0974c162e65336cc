package services

import (
	"context"
	"errors"
	"testing"

	"fintrack/internal/core"
	idmem "fintrack/internal/identity/memory"
	storemem "fintrack/internal/store/memory"
)

// recordingPublisher captures mirror messages; failAll makes every
// publish fail.
type recordingPublisher struct {
	recorded []string
	deleted  []core.Donation
	failAll  bool
}

func (p *recordingPublisher) PublishDonationRecorded(_ context.Context, id string) error {
	if p.failAll {
		return errors.New("broker unavailable")
	}
	p.recorded = append(p.recorded, id)
	return nil
}

func (p *recordingPublisher) PublishDonationDeleted(_ context.Context, d core.Donation) error {
	if p.failAll {
		return errors.New("broker unavailable")
	}
	p.deleted = append(p.deleted, d)
	return nil
}

func newAdminFixture() (*AdminService, *storemem.Store, *idmem.Provider, *recordingPublisher) {
	st := storemem.New()
	provider := idmem.New()
	pub := &recordingPublisher{}
	svc := NewAdminService(st, st, provider, pub, testLogger())
	return svc, st, provider, pub
}

func TestRecordDonation(t *testing.T) {
	svc, _, _, pub := newAdminFixture()
	ctx := context.Background()

	created, err := svc.RecordDonation(ctx, RecordDonationInput{
		DonorName:   "Rahim",
		Amount:      "500",
		Method:      core.Bkash,
		PhoneNumber: "01711111111",
	})
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if created.ID == "" {
		t.Fatal("created donation has no id")
	}
	if created.Amount.Cents != 50000 {
		t.Errorf("amount = %d cents, want 50000", created.Amount.Cents)
	}

	rows, err := svc.ListDonations(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 donation, got %d", len(rows))
	}
	if len(pub.recorded) != 1 || pub.recorded[0] != created.ID {
		t.Errorf("mirror publish missing, got %v", pub.recorded)
	}
}

func TestRecordDonationRejectsInvalidInput(t *testing.T) {
	svc, _, _, _ := newAdminFixture()
	ctx := context.Background()

	cases := []struct {
		name string
		in   RecordDonationInput
	}{
		{"negative amount", RecordDonationInput{DonorName: "Rahim", Amount: "-5", Method: core.Bkash, PhoneNumber: "01711111111"}},
		{"empty donor", RecordDonationInput{DonorName: " ", Amount: "100", Method: core.Bkash, PhoneNumber: "01711111111"}},
		{"unknown method", RecordDonationInput{DonorName: "Rahim", Amount: "100", Method: "cash", PhoneNumber: "01711111111"}},
		{"empty phone", RecordDonationInput{DonorName: "Rahim", Amount: "100", Method: core.Nagad, PhoneNumber: ""}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.RecordDonation(ctx, tc.in); !errors.Is(err, core.ErrValidation) {
				t.Fatalf("expected a validation error, got %v", err)
			}
		})
	}

	ov, err := svc.Overview(ctx)
	if err != nil {
		t.Fatalf("overview: %v", err)
	}
	if ov.DonorCount != 0 || ov.TotalDonated.Cents != 0 {
		t.Fatalf("rejected input reached the store: %+v", ov)
	}
}

func TestRecordDonationSurvivesPublishFailure(t *testing.T) {
	svc, _, _, pub := newAdminFixture()
	pub.failAll = true
	ctx := context.Background()

	created, err := svc.RecordDonation(ctx, RecordDonationInput{
		DonorName:   "Karim",
		Amount:      "42.50",
		Method:      core.Nagad,
		PhoneNumber: "01822222222",
	})
	if err != nil {
		t.Fatalf("publish failure must not fail the operation: %v", err)
	}

	rows, err := svc.ListDonations(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(rows) != 1 || rows[0].ID != created.ID {
		t.Fatalf("donation not durable, got %v", rows)
	}
}

func TestDeleteDonationPublishesRowDetails(t *testing.T) {
	svc, _, _, pub := newAdminFixture()
	ctx := context.Background()

	created, err := svc.RecordDonation(ctx, RecordDonationInput{
		DonorName:   "Rahim",
		Amount:      "500",
		Method:      core.Bkash,
		PhoneNumber: "01711111111",
	})
	if err != nil {
		t.Fatalf("record: %v", err)
	}

	if err := svc.DeleteDonation(ctx, created.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := svc.DeleteDonation(ctx, created.ID); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("second delete should be ErrNotFound, got %v", err)
	}

	if len(pub.deleted) != 1 || pub.deleted[0].ID != created.ID {
		t.Fatalf("delete message missing, got %v", pub.deleted)
	}
	if pub.deleted[0].DonorName != "Rahim" {
		t.Errorf("delete message lost row details: %+v", pub.deleted[0])
	}
}

// flakyDonationStore fails listing on demand while deletes keep
// working.
type flakyDonationStore struct {
	*storemem.Store
	failList bool
}

func (f *flakyDonationStore) ListDonations(ctx context.Context) ([]core.Donation, error) {
	if f.failList {
		return nil, errors.New("store unavailable")
	}
	return f.Store.ListDonations(ctx)
}

func TestDeleteDonationSurvivesCaptureFailure(t *testing.T) {
	st := storemem.New()
	flaky := &flakyDonationStore{Store: st}
	pub := &recordingPublisher{}
	svc := NewAdminService(flaky, st, idmem.New(), pub, testLogger())
	ctx := context.Background()

	created, err := svc.RecordDonation(ctx, RecordDonationInput{
		DonorName:   "Rahim",
		Amount:      "500",
		Method:      core.Bkash,
		PhoneNumber: "01711111111",
	})
	if err != nil {
		t.Fatalf("record: %v", err)
	}

	// The pre-delete capture fetch fails; the delete must still go
	// through, just without a mirror message.
	flaky.failList = true
	if err := svc.DeleteDonation(ctx, created.ID); err != nil {
		t.Fatalf("delete must survive a capture failure: %v", err)
	}
	if len(pub.deleted) != 0 {
		t.Fatalf("no delete message should be published without the row, got %v", pub.deleted)
	}

	flaky.failList = false
	rows, err := svc.ListDonations(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(rows) != 0 {
		t.Fatalf("donation should be gone from the store, got %v", rows)
	}
}

func TestGrantAdminUnknownEmailLeavesNoGrant(t *testing.T) {
	svc, st, _, _ := newAdminFixture()
	ctx := context.Background()

	_, err := svc.GrantAdmin(ctx, "nobody@example.com")
	if !errors.Is(err, core.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}

	grants, err := st.ListGrants(ctx)
	if err != nil {
		t.Fatalf("list grants: %v", err)
	}
	if len(grants) != 0 {
		t.Fatalf("unknown email must not leave a grant, got %v", grants)
	}
}

func TestGrantAndRevokeAdmin(t *testing.T) {
	svc, st, provider, _ := newAdminFixture()
	ctx := context.Background()

	user := provider.Seed("friend@example.com", "secret1")

	grant, err := svc.GrantAdmin(ctx, "friend@example.com")
	if err != nil {
		t.Fatalf("grant: %v", err)
	}
	if grant.UserID != user.ID {
		t.Fatalf("grant bound to %q, want %q", grant.UserID, user.ID)
	}

	found, err := st.FindGrantsByUser(ctx, user.ID)
	if err != nil {
		t.Fatalf("find grants: %v", err)
	}
	if len(found) != 1 {
		t.Fatalf("expected 1 grant, got %d", len(found))
	}

	if err := svc.RevokeAdmin(ctx, grant.ID); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if err := svc.RevokeAdmin(ctx, grant.ID); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("second revoke should be ErrNotFound, got %v", err)
	}
}

func TestOverviewAggregates(t *testing.T) {
	svc, _, provider, _ := newAdminFixture()
	ctx := context.Background()

	provider.Seed("friend@example.com", "secret1")
	if _, err := svc.GrantAdmin(ctx, "friend@example.com"); err != nil {
		t.Fatalf("grant: %v", err)
	}

	for _, amount := range []string{"100", "250.50"} {
		if _, err := svc.RecordDonation(ctx, RecordDonationInput{
			DonorName:   "Rahim",
			Amount:      amount,
			Method:      core.Bkash,
			PhoneNumber: "01711111111",
		}); err != nil {
			t.Fatalf("record %s: %v", amount, err)
		}
	}

	ov, err := svc.Overview(ctx)
	if err != nil {
		t.Fatalf("overview: %v", err)
	}
	if ov.DonorCount != 2 {
		t.Errorf("donor count = %d, want 2", ov.DonorCount)
	}
	if ov.AdminCount != 1 {
		t.Errorf("admin count = %d, want 1", ov.AdminCount)
	}
	if ov.TotalDonated.Cents != 35050 {
		t.Errorf("total donated = %d cents, want 35050", ov.TotalDonated.Cents)
	}
}
