// Package mirror defines the outbound ports for the donation ledger
// mirror, a spreadsheet copy of the donation collection kept in sync
// by the worker.
package mirror

import (
	"context"

	"fintrack/internal/core"
)

type (
	// DonationAppender writes one donation row to the mirror and
	// returns an adapter-specific row reference.
	DonationAppender interface {
		AppendDonation(ctx context.Context, d core.Donation) (rowRef string, err error)
	}

	// DonationRemover deletes the mirrored row for a donation id.
	// A row that is not on the mirror is core.ErrNotFound.
	DonationRemover interface {
		RemoveDonation(ctx context.Context, id string) error
	}

	// DonationLister reports which donation ids the mirror holds.
	DonationLister interface {
		MirroredIDs(ctx context.Context) ([]string, error)
	}

	Mirror interface {
		DonationAppender
		DonationRemover
		DonationLister
	}
)
