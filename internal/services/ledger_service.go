// Package services holds the application core: the per-user
// transaction ledger, the donation/roster admin ledger and the
// advisory authorization gate. All durable state lives behind the
// store gateway; consistency is refetch-to-reconcile, meaning after
// every mutation callers re-read the collection instead of patching
// any local copy.
package services

import (
	"context"
	"fmt"
	"sync"

	"fintrack/internal/core"
	"fintrack/internal/identity"
	"fintrack/internal/log"
	"fintrack/internal/store"
)

// AddTransactionInput carries raw form values; parsing and validation
// happen here, before anything touches the network.
type AddTransactionInput struct {
	Kind        core.Kind
	Amount      string
	Category    string
	Description string
	OccurredOn  string
}

// LedgerService manages a user's transaction ledger.
//
// It keeps a display snapshot guarded by a generation token: every
// fetch claims a generation up front and only installs its result if
// no newer fetch has landed meanwhile, so a late-arriving response can
// never clobber logically newer state.
type LedgerService struct {
	store    store.TransactionStore
	identity identity.Provider
	logger   *log.Logger

	mu       sync.Mutex
	snapshot []core.Transaction
	fetchGen uint64
	snapGen  uint64
}

func NewLedgerService(st store.TransactionStore, id identity.Provider, logger *log.Logger) *LedgerService {
	return &LedgerService{
		store:    st,
		identity: id,
		logger:   logger.WithComponent(log.ComponentLedger),
	}
}

// Add validates the input, resolves the caller's identity and appends
// one transaction row. It deliberately does not update the snapshot:
// the caller refetches to observe the new row.
func (s *LedgerService) Add(ctx context.Context, in AddTransactionInput) (core.Transaction, error) {
	cents, err := core.ParseDecimalToCents(in.Amount)
	if err != nil {
		return core.Transaction{}, err
	}
	date, err := core.ParseDate(in.OccurredOn)
	if err != nil {
		return core.Transaction{}, err
	}

	t := core.Transaction{
		Kind:        in.Kind,
		Amount:      core.Money{Cents: cents},
		Category:    in.Category,
		Description: in.Description,
		OccurredOn:  date,
	}
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}

	user, err := s.currentUser(ctx)
	if err != nil {
		return core.Transaction{}, err
	}
	t.Owner = user.ID

	created, err := s.store.InsertTransaction(ctx, t)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to append transaction",
			log.FieldError, err,
			log.FieldOwner, t.Owner,
			log.FieldKind, string(t.Kind),
			log.FieldCategory, t.Category,
			log.FieldOperation, log.OpCreate)
		return core.Transaction{}, err
	}

	s.logger.InfoContext(ctx, "Transaction appended",
		log.FieldRowID, created.ID,
		log.FieldOwner, created.Owner,
		log.FieldKind, string(created.Kind),
		log.FieldCategory, created.Category,
		log.FieldAmountCents, created.Amount.Cents,
		log.FieldOccurredOn, created.OccurredOn.ISO(),
		log.FieldOperation, log.OpCreate)
	return created, nil
}

// Remove deletes one of the caller's rows. The delete is scoped to the
// resolved owner, so another user's id answers core.ErrNotFound and the
// row survives. A concurrent delete of the same id is tolerated; the
// loser sees core.ErrNotFound.
func (s *LedgerService) Remove(ctx context.Context, id string) error {
	user, err := s.currentUser(ctx)
	if err != nil {
		return err
	}
	if err := s.store.DeleteTransaction(ctx, user.ID, id); err != nil {
		s.logger.ErrorContext(ctx, "Failed to delete transaction",
			log.FieldError, err,
			log.FieldRowID, id,
			log.FieldOwner, user.ID,
			log.FieldOperation, log.OpDelete)
		return err
	}
	s.logger.InfoContext(ctx, "Transaction deleted",
		log.FieldRowID, id,
		log.FieldOwner, user.ID,
		log.FieldOperation, log.OpDelete)
	return nil
}

// List refetches the caller's full ledger and returns it sorted for
// display: occurred-on descending, regardless of the creation-time
// order the store fetch arrives in. The sequence is restartable;
// every call is a fresh full fetch.
func (s *LedgerService) List(ctx context.Context) ([]core.Transaction, error) {
	user, err := s.currentUser(ctx)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.fetchGen++
	gen := s.fetchGen
	s.mu.Unlock()

	rows, err := s.store.ListTransactions(ctx, user.ID)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to list transactions",
			log.FieldError, err,
			log.FieldOwner, user.ID,
			log.FieldOperation, log.OpList)
		return nil, err
	}

	sorted := core.SortByDate(rows)

	s.mu.Lock()
	if gen > s.snapGen {
		s.snapshot = sorted
		s.snapGen = gen
	}
	s.mu.Unlock()

	return sorted, nil
}

// Snapshot returns the last installed display state without touching
// the store.
func (s *LedgerService) Snapshot() []core.Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Transaction, len(s.snapshot))
	copy(out, s.snapshot)
	return out
}

func (s *LedgerService) currentUser(ctx context.Context) (identity.User, error) {
	token, ok := identity.TokenFrom(ctx)
	if !ok {
		return identity.User{}, core.ErrAuthenticationRequired
	}
	user, err := s.identity.UserFromToken(ctx, token)
	if err != nil {
		return identity.User{}, fmt.Errorf("resolve owner: %w", err)
	}
	return user, nil
}
