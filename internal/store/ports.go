// Package store defines the ports for the remote record collections:
// transactions, donations and admin grants. Every collection supports
// insert, ordered list and delete-by-id; nothing is ever updated in
// place. Implementations map their failures onto the core error
// taxonomy (ErrNotFound, ErrPermissionDenied, ErrPersistence).
package store

import (
	"context"

	"fintrack/internal/core"
)

type (
	TransactionStore interface {
		// InsertTransaction appends a row and returns it with the
		// store-assigned id and creation timestamp.
		InsertTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error)

		// ListTransactions returns every row for the owner, ordered by
		// creation time descending. Callers re-sort for display.
		ListTransactions(ctx context.Context, owner string) ([]core.Transaction, error)

		// DeleteTransaction removes one of the owner's rows. A missing
		// row and a row held by a different owner are both
		// core.ErrNotFound; the ownership check lives here, not in the
		// caller.
		DeleteTransaction(ctx context.Context, owner, id string) error
	}

	DonationStore interface {
		InsertDonation(ctx context.Context, d core.Donation) (core.Donation, error)

		// ListDonations returns all donations ordered by creation time
		// descending.
		ListDonations(ctx context.Context) ([]core.Donation, error)

		DeleteDonation(ctx context.Context, id string) error
	}

	AdminStore interface {
		InsertGrant(ctx context.Context, userID string) (core.AdminGrant, error)

		ListGrants(ctx context.Context) ([]core.AdminGrant, error)

		DeleteGrant(ctx context.Context, id string) error

		// FindGrantsByUser returns the grants held by a user. An empty
		// result is a normal negative answer, not an error.
		FindGrantsByUser(ctx context.Context, userID string) ([]core.AdminGrant, error)
	}

	// Store is the full gateway over all three collections.
	Store interface {
		TransactionStore
		DonationStore
		AdminStore
	}
)
