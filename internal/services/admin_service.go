package services

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"fintrack/internal/core"
	"fintrack/internal/identity"
	"fintrack/internal/log"
	"fintrack/internal/store"
)

// MirrorPublisher is the outbound notification channel for the
// donation ledger mirror. Publishing is best-effort: a failure is
// logged and never fails the user-facing operation.
type MirrorPublisher interface {
	PublishDonationRecorded(ctx context.Context, id string) error
	PublishDonationDeleted(ctx context.Context, d core.Donation) error
}

// RecordDonationInput carries raw admin form values.
type RecordDonationInput struct {
	DonorName   string
	Amount      string
	Method      core.PaymentMethod
	PhoneNumber string
}

// Overview is the admin dashboard state: both collections plus their
// derived aggregates, fetched fresh from the store.
type Overview struct {
	Donations    []core.Donation
	Grants       []core.AdminGrant
	TotalDonated core.Money
	DonorCount   int
	AdminCount   int
}

// AdminService manages the donation ledger and the admin roster.
type AdminService struct {
	donations store.DonationStore
	admins    store.AdminStore
	identity  identity.Provider
	publisher MirrorPublisher
	logger    *log.Logger
}

func NewAdminService(donations store.DonationStore, admins store.AdminStore, id identity.Provider, publisher MirrorPublisher, logger *log.Logger) *AdminService {
	return &AdminService{
		donations: donations,
		admins:    admins,
		identity:  id,
		publisher: publisher,
		logger:    logger.WithComponent(log.ComponentAdmin),
	}
}

// RecordDonation validates and appends one donation row. Donations
// carry no owner.
func (s *AdminService) RecordDonation(ctx context.Context, in RecordDonationInput) (core.Donation, error) {
	cents, err := core.ParseDecimalToCents(in.Amount)
	if err != nil {
		return core.Donation{}, err
	}

	d := core.Donation{
		DonorName:   in.DonorName,
		Amount:      core.Money{Cents: cents},
		Method:      in.Method,
		PhoneNumber: in.PhoneNumber,
	}
	if err := d.Validate(); err != nil {
		return core.Donation{}, err
	}

	created, err := s.donations.InsertDonation(ctx, d)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to record donation",
			log.FieldError, err,
			log.FieldDonorName, d.DonorName,
			log.FieldOperation, log.OpCreate)
		return core.Donation{}, err
	}

	s.logger.InfoContext(ctx, "Donation recorded",
		log.FieldRowID, created.ID,
		log.FieldDonorName, created.DonorName,
		log.FieldAmountCents, created.Amount.Cents,
		log.FieldOperation, log.OpCreate)

	if s.publisher != nil {
		if err := s.publisher.PublishDonationRecorded(ctx, created.ID); err != nil {
			// The row is durable in the store; the mirror catches up later.
			s.logger.ErrorContext(ctx, "Failed to publish donation mirror message",
				log.FieldError, err,
				log.FieldRowID, created.ID)
		}
	}

	return created, nil
}

func (s *AdminService) DeleteDonation(ctx context.Context, id string) error {
	// Capture the row before deleting so the mirror message carries
	// enough detail to find it on the sheet. If the capture fails the
	// delete still proceeds; the worker's reconcile pass removes the
	// stranded mirror row later.
	var deleted core.Donation
	if s.publisher != nil {
		rows, err := s.donations.ListDonations(ctx)
		if err != nil {
			s.logger.ErrorContext(ctx, "Failed to capture donation before delete, mirror row left to reconcile",
				log.FieldError, err,
				log.FieldRowID, id,
				log.FieldOperation, log.OpDelete)
		}
		for _, d := range rows {
			if d.ID == id {
				deleted = d
				break
			}
		}
	}

	if err := s.donations.DeleteDonation(ctx, id); err != nil {
		s.logger.ErrorContext(ctx, "Failed to delete donation",
			log.FieldError, err,
			log.FieldRowID, id,
			log.FieldOperation, log.OpDelete)
		return err
	}

	s.logger.InfoContext(ctx, "Donation deleted",
		log.FieldRowID, id,
		log.FieldOperation, log.OpDelete)

	if s.publisher != nil && deleted.ID != "" {
		if err := s.publisher.PublishDonationDeleted(ctx, deleted); err != nil {
			s.logger.ErrorContext(ctx, "Failed to publish donation delete message",
				log.FieldError, err,
				log.FieldRowID, id)
		}
	}

	return nil
}

func (s *AdminService) ListDonations(ctx context.Context) ([]core.Donation, error) {
	return s.donations.ListDonations(ctx)
}

// GrantAdmin resolves an email to an identity through the privileged
// lookup and inserts a grant for it. No matching identity means
// core.ErrUserNotFound and no row is written; a grant must never
// dangle. The store may still reject the insert with
// core.ErrPermissionDenied; that rejection is the real enforcement
// point, independent of the gate.
func (s *AdminService) GrantAdmin(ctx context.Context, email string) (core.AdminGrant, error) {
	user, err := s.identity.LookupByEmail(ctx, email)
	if err != nil {
		s.logger.WarnContext(ctx, "Admin grant lookup failed",
			log.FieldError, err,
			log.FieldOperation, log.OpGrant)
		return core.AdminGrant{}, fmt.Errorf("grant admin: %w", err)
	}

	grant, err := s.admins.InsertGrant(ctx, user.ID)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to insert admin grant",
			log.FieldError, err,
			log.FieldUserID, user.ID,
			log.FieldOperation, log.OpGrant)
		return core.AdminGrant{}, err
	}

	s.logger.InfoContext(ctx, "Admin granted",
		log.FieldRowID, grant.ID,
		log.FieldUserID, grant.UserID,
		log.FieldOperation, log.OpGrant)
	return grant, nil
}

// RevokeAdmin deletes a grant row. Effective for future gate
// evaluations; sessions already holding an Admin verdict keep it until
// their next full reload.
func (s *AdminService) RevokeAdmin(ctx context.Context, id string) error {
	if err := s.admins.DeleteGrant(ctx, id); err != nil {
		s.logger.ErrorContext(ctx, "Failed to revoke admin grant",
			log.FieldError, err,
			log.FieldRowID, id,
			log.FieldOperation, log.OpRevoke)
		return err
	}
	s.logger.InfoContext(ctx, "Admin grant revoked",
		log.FieldRowID, id,
		log.FieldOperation, log.OpRevoke)
	return nil
}

// Overview refetches donations and the roster concurrently and derives
// the dashboard aggregates.
func (s *AdminService) Overview(ctx context.Context) (Overview, error) {
	var (
		donations []core.Donation
		grants    []core.AdminGrant
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		donations, err = s.donations.ListDonations(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		grants, err = s.admins.ListGrants(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		s.logger.ErrorContext(ctx, "Failed to refresh admin overview",
			log.FieldError, err,
			log.FieldOperation, log.OpRefresh)
		return Overview{}, err
	}

	return Overview{
		Donations:    donations,
		Grants:       grants,
		TotalDonated: core.TotalDonated(donations),
		DonorCount:   len(donations),
		AdminCount:   len(grants),
	}, nil
}
