package core

import (
	"strings"
	"time"
)

const (
	Income  Kind = "income"
	Expense Kind = "expense"

	// KindAll is only meaningful as a list filter, never stored.
	KindAll Kind = "all"
)

const (
	Bkash PaymentMethod = "bkash"
	Nagad PaymentMethod = "nagad"
)

type (
	Kind string

	PaymentMethod string

	// Date is a calendar date; the time component is always UTC midnight.
	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	// Transaction is a single income or expense row owned by one user.
	Transaction struct {
		ID          string
		Owner       string
		Kind        Kind
		Amount      Money
		Category    string
		Description string
		OccurredOn  Date
		CreatedAt   time.Time
	}

	// Donation is a global ledger row with no owner; it is only
	// visible through the admin area.
	Donation struct {
		ID          string
		DonorName   string
		Amount      Money
		Method      PaymentMethod
		PhoneNumber string
		CreatedAt   time.Time
	}

	// AdminGrant asserts that the referenced identity holds the admin
	// role. Existence of a row is the grant; deleting it revokes.
	AdminGrant struct {
		ID        string
		UserID    string
		CreatedAt time.Time
	}
)

// Category vocabularies offered by the UI per kind. The store accepts
// any non-empty string; these are suggestions, not constraints.
var (
	IncomeCategories = []string{
		"Salary", "Freelance", "Business", "Investment", "Rental", "Gift", "Other",
	}
	ExpenseCategories = []string{
		"Food", "Transportation", "Housing", "Entertainment", "Healthcare",
		"Shopping", "Utilities", "Education", "Travel", "Other",
	}
)

// CategoriesFor returns the suggested vocabulary for a kind.
func CategoriesFor(k Kind) []string {
	if k == Income {
		return IncomeCategories
	}
	return ExpenseCategories
}

func (k Kind) Valid() bool {
	return k == Income || k == Expense
}

// ValidFilter reports whether k is usable as a list filter.
func (k Kind) ValidFilter() bool {
	return k == KindAll || k.Valid()
}

func (m PaymentMethod) Valid() bool {
	return m == Bkash || m == Nagad
}

// NewDate creates a Date from year, month, day.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses the ISO form dates arrive in (2006-01-02).
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", strings.TrimSpace(s))
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return Date{Time: t.UTC()}, nil
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// ISO renders the date in the wire format (2006-01-02).
func (d Date) ISO() string {
	return d.Format("2006-01-02")
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (t Transaction) Validate() error {
	if !t.Kind.Valid() {
		return ErrInvalidKind
	}
	if err := t.Amount.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(t.Category) == "" {
		return ErrEmptyCategory
	}
	if len(t.Description) > 200 {
		return ErrLongDescription
	}
	return t.OccurredOn.Validate()
}

func (d Donation) Validate() error {
	if strings.TrimSpace(d.DonorName) == "" {
		return ErrEmptyDonorName
	}
	if err := d.Amount.Validate(); err != nil {
		return err
	}
	if !d.Method.Valid() {
		return ErrInvalidMethod
	}
	if strings.TrimSpace(d.PhoneNumber) == "" {
		return ErrEmptyPhone
	}
	return nil
}
