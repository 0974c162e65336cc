package core

import (
	"errors"
	"testing"
	"time"
)

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2025-01-02")
	if err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if d.Year() != 2025 || d.Month() != time.January || d.Day() != 2 {
		t.Fatalf("unexpected date %v", d)
	}

	for _, in := range []string{"", "02/01/2025", "2025-13-01", "garbage"} {
		if _, err := ParseDate(in); !errors.Is(err, ErrInvalidDate) {
			t.Fatalf("%q expected ErrInvalidDate, got %v", in, err)
		}
	}
}

func TestTransactionValidate(t *testing.T) {
	good := Transaction{
		Kind:       Income,
		Amount:     Money{Cents: 100000},
		Category:   "Salary",
		OccurredOn: NewDate(2025, 1, 1),
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	cases := []struct {
		name string
		mut  func(tx *Transaction)
		want error
	}{
		{"bad kind", func(tx *Transaction) { tx.Kind = "transfer" }, ErrInvalidKind},
		{"filter kind is not storable", func(tx *Transaction) { tx.Kind = KindAll }, ErrInvalidKind},
		{"zero amount", func(tx *Transaction) { tx.Amount = Money{} }, ErrInvalidAmount},
		{"negative amount", func(tx *Transaction) { tx.Amount = Money{Cents: -5} }, ErrInvalidAmount},
		{"empty category", func(tx *Transaction) { tx.Category = "  " }, ErrEmptyCategory},
		{"zero date", func(tx *Transaction) { tx.OccurredOn = Date{} }, ErrInvalidDate},
	}
	for _, tc := range cases {
		tx := good
		tc.mut(&tx)
		err := tx.Validate()
		if !errors.Is(err, tc.want) {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.want, err)
		}
		if !errors.Is(err, ErrValidation) {
			t.Fatalf("%s: %v should wrap ErrValidation", tc.name, err)
		}
	}

	// Description is optional but capped.
	long := good
	for len(long.Description) <= 200 {
		long.Description += "xxxxxxxxxx"
	}
	if err := long.Validate(); !errors.Is(err, ErrLongDescription) {
		t.Fatalf("expected ErrLongDescription, got %v", err)
	}
}

func TestDonationValidate(t *testing.T) {
	good := Donation{
		DonorName:   "Rahim",
		Amount:      Money{Cents: 50000},
		Method:      Bkash,
		PhoneNumber: "01711111111",
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	cases := []struct {
		name string
		mut  func(d *Donation)
		want error
	}{
		{"empty donor", func(d *Donation) { d.DonorName = "" }, ErrEmptyDonorName},
		{"zero amount", func(d *Donation) { d.Amount = Money{} }, ErrInvalidAmount},
		{"bad method", func(d *Donation) { d.Method = "rocket" }, ErrInvalidMethod},
		{"empty phone", func(d *Donation) { d.PhoneNumber = " " }, ErrEmptyPhone},
	}
	for _, tc := range cases {
		d := good
		tc.mut(&d)
		if err := d.Validate(); !errors.Is(err, tc.want) {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.want, err)
		}
	}
}

func TestCategoriesFor(t *testing.T) {
	if got := CategoriesFor(Income); len(got) != 7 {
		t.Fatalf("expected 7 income categories, got %d", len(got))
	}
	if got := CategoriesFor(Expense); len(got) != 10 {
		t.Fatalf("expected 10 expense categories, got %d", len(got))
	}
}

func TestKindValidFilter(t *testing.T) {
	for _, k := range []Kind{KindAll, Income, Expense} {
		if !k.ValidFilter() {
			t.Fatalf("%s should be a valid filter", k)
		}
	}
	if Kind("transfer").ValidFilter() {
		t.Fatal("unknown kind should not be a valid filter")
	}
}
