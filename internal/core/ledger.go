package core

import "sort"

// Summary holds derived ledger aggregates. Balance may be negative;
// Money.Validate is a construction-time check and does not apply here.
type Summary struct {
	TotalIncome  Money
	TotalExpense Money
	Balance      Money
	Count        int
}

// Summarize computes totals over a set of transactions. Pure and
// order-independent; an empty input yields the zero Summary, which the
// caller must render as a "no data" state rather than a zeroed chart.
func Summarize(ts []Transaction) Summary {
	var s Summary
	for _, t := range ts {
		switch t.Kind {
		case Income:
			s.TotalIncome.Cents += t.Amount.Cents
		case Expense:
			s.TotalExpense.Cents += t.Amount.Cents
		}
	}
	s.Balance.Cents = s.TotalIncome.Cents - s.TotalExpense.Cents
	s.Count = len(ts)
	return s
}

// Filter returns the transactions matching kind. KindAll is the
// identity filter. The input is never mutated.
func Filter(ts []Transaction, kind Kind) []Transaction {
	if kind == KindAll {
		out := make([]Transaction, len(ts))
		copy(out, ts)
		return out
	}
	out := make([]Transaction, 0, len(ts))
	for _, t := range ts {
		if t.Kind == kind {
			out = append(out, t)
		}
	}
	return out
}

// SortByDate orders transactions by occurred-on date, newest first.
// The store fetch is ordered by creation time; the user-visible order
// is driven by the stated date, so the list is always re-sorted here.
// Ties keep their incoming relative order.
func SortByDate(ts []Transaction) []Transaction {
	out := make([]Transaction, len(ts))
	copy(out, ts)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].OccurredOn.After(out[j].OccurredOn.Time)
	})
	return out
}

// TotalDonated sums donation amounts. Same purity contract as Summarize.
func TotalDonated(ds []Donation) Money {
	var total Money
	for _, d := range ds {
		total.Cents += d.Amount.Cents
	}
	return total
}
