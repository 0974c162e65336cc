// Package worker reconciles the spreadsheet mirror with the donation
// ledger. It is driven by AMQP messages and refetches rows from the
// store instead of trusting message payloads.
package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/mirror"
	"fintrack/internal/store"
)

type MirrorWorker struct {
	donations store.DonationStore
	mirror    mirror.Mirror
	logger    *log.Logger
}

func NewMirrorWorker(donations store.DonationStore, m mirror.Mirror, logger *log.Logger) *MirrorWorker {
	return &MirrorWorker{
		donations: donations,
		mirror:    m,
		logger:    logger.WithComponent(log.ComponentWorker),
	}
}

// HandleMessage processes one mirror message. Errors bubble up so the
// delivery is requeued; conditions that re-running cannot fix are
// swallowed here.
func (w *MirrorWorker) HandleMessage(ctx context.Context, msg *amqp.MirrorMessage) error {
	switch msg.Action {
	case amqp.ActionRecorded:
		return w.handleRecorded(ctx, msg.ID)
	case amqp.ActionDeleted:
		return w.handleDeleted(ctx, msg)
	default:
		w.logger.WarnContext(ctx, "Skipping message with unknown action",
			"action", msg.Action,
			log.FieldRowID, msg.ID)
		return nil
	}
}

func (w *MirrorWorker) handleRecorded(ctx context.Context, id string) error {
	donation, err := w.findDonation(ctx, id)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			// Row was deleted between publish and consume; the delete
			// message will clean up the mirror.
			w.logger.InfoContext(ctx, "Donation gone before mirroring, skipping",
				log.FieldRowID, id)
			return nil
		}
		return fmt.Errorf("fetch donation: %w", err)
	}

	ref, err := w.mirror.AppendDonation(ctx, donation)
	if err != nil {
		return fmt.Errorf("append to mirror: %w", err)
	}

	w.logger.InfoContext(ctx, "Donation mirrored",
		log.FieldRowID, id,
		log.FieldSheetsRef, ref,
		log.FieldOperation, log.OpAppend)
	return nil
}

func (w *MirrorWorker) handleDeleted(ctx context.Context, msg *amqp.MirrorMessage) error {
	err := w.mirror.RemoveDonation(ctx, msg.ID)
	if errors.Is(err, core.ErrNotFound) {
		// Never mirrored, or already removed. Either way done.
		w.logger.InfoContext(ctx, "Mirrored row already absent",
			log.FieldRowID, msg.ID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("remove from mirror: %w", err)
	}

	w.logger.InfoContext(ctx, "Mirrored row removed",
		log.FieldRowID, msg.ID,
		log.FieldOperation, log.OpDelete)
	return nil
}

// Reconcile diffs the mirror against the store in both directions:
// store rows missing from the mirror are appended, mirrored rows whose
// store row is gone are removed. Backup for lost messages in either
// direction; safe to run at startup and on a timer.
func (w *MirrorWorker) Reconcile(ctx context.Context) error {
	rows, err := w.donations.ListDonations(ctx)
	if err != nil {
		return fmt.Errorf("list donations: %w", err)
	}
	stored := make(map[string]struct{}, len(rows))
	for _, d := range rows {
		stored[d.ID] = struct{}{}
	}

	ids, err := w.mirror.MirroredIDs(ctx)
	if err != nil {
		return fmt.Errorf("list mirrored ids: %w", err)
	}
	mirrored := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		mirrored[id] = struct{}{}
	}

	synced := 0
	failed := 0
	for _, d := range rows {
		if _, ok := mirrored[d.ID]; ok {
			continue
		}
		if _, err := w.mirror.AppendDonation(ctx, d); err != nil {
			w.logger.ErrorContext(ctx, "Failed to mirror donation",
				log.FieldError, err, log.FieldRowID, d.ID)
			failed++
			continue
		}
		synced++
	}

	removed := 0
	for _, id := range ids {
		if _, ok := stored[id]; ok {
			continue
		}
		err := w.mirror.RemoveDonation(ctx, id)
		if errors.Is(err, core.ErrNotFound) {
			continue
		}
		if err != nil {
			w.logger.ErrorContext(ctx, "Failed to remove stranded mirror row",
				log.FieldError, err, log.FieldRowID, id)
			failed++
			continue
		}
		removed++
	}

	w.logger.InfoContext(ctx, "Mirror reconciliation completed",
		"total", len(rows),
		"synced", synced,
		"removed", removed,
		"errors", failed,
		log.FieldOperation, log.OpRefresh)
	return nil
}

// RunPeriodicReconcile reconciles on a fixed interval until ctx ends.
func (w *MirrorWorker) RunPeriodicReconcile(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := w.Reconcile(ctx); err != nil {
				w.logger.ErrorContext(ctx, "Periodic reconcile failed", log.FieldError, err)
			}
		}
	}
}

func (w *MirrorWorker) findDonation(ctx context.Context, id string) (core.Donation, error) {
	rows, err := w.donations.ListDonations(ctx)
	if err != nil {
		return core.Donation{}, err
	}
	for _, d := range rows {
		if d.ID == id {
			return d, nil
		}
	}
	return core.Donation{}, core.ErrNotFound
}
