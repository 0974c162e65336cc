package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"fintrack/internal/core"
)

func TestAppendAndRemove(t *testing.T) {
	s := New()
	ctx := context.Background()

	d := core.Donation{
		ID:          "row-1",
		DonorName:   "Rahim",
		Amount:      core.Money{Cents: 50000},
		Method:      core.Bkash,
		PhoneNumber: "01711111111",
		CreatedAt:   time.Now(),
	}

	ref, err := s.AppendDonation(ctx, d)
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	if ref == "" {
		t.Error("expected a row reference")
	}
	if rows := s.Rows(); len(rows) != 1 || rows[0].ID != "row-1" {
		t.Fatalf("unexpected rows: %v", rows)
	}

	if err := s.RemoveDonation(ctx, "row-1"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if err := s.RemoveDonation(ctx, "row-1"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestAppendRejectsInvalidRow(t *testing.T) {
	s := New()
	if _, err := s.AppendDonation(context.Background(), core.Donation{}); !errors.Is(err, core.ErrValidation) {
		t.Fatalf("expected a validation error, got %v", err)
	}
}
