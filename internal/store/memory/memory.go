// Package memory is an in-process store double used by the memory
// backend and by tests. It reproduces the gateway contract: ids and
// creation timestamps are assigned on insert, lists come back ordered
// by creation time descending, deletes of absent rows are
// core.ErrNotFound.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"fintrack/internal/core"
)

type Store struct {
	mu           sync.Mutex
	transactions []core.Transaction
	donations    []core.Donation
	grants       []core.AdminGrant
	now          func() time.Time
}

func New() *Store {
	return &Store{now: time.Now}
}

// SetClock overrides the timestamp source; tests use it to control
// creation-time ordering.
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

func (s *Store) InsertTransaction(_ context.Context, t core.Transaction) (core.Transaction, error) {
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	t.ID = uuid.NewString()
	t.CreatedAt = s.now()
	s.transactions = append(s.transactions, t)
	return t, nil
}

func (s *Store) ListTransactions(_ context.Context, owner string) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Transaction, 0, len(s.transactions))
	for _, t := range s.transactions {
		if t.Owner == owner {
			out = append(out, t)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (s *Store) DeleteTransaction(_ context.Context, owner, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, t := range s.transactions {
		if t.ID == id && t.Owner == owner {
			s.transactions = append(s.transactions[:i], s.transactions[i+1:]...)
			return nil
		}
	}
	return core.ErrNotFound
}

func (s *Store) InsertDonation(_ context.Context, d core.Donation) (core.Donation, error) {
	if err := d.Validate(); err != nil {
		return core.Donation{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	d.ID = uuid.NewString()
	d.CreatedAt = s.now()
	s.donations = append(s.donations, d)
	return d, nil
}

func (s *Store) ListDonations(_ context.Context) ([]core.Donation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Donation, len(s.donations))
	copy(out, s.donations)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (s *Store) DeleteDonation(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, d := range s.donations {
		if d.ID == id {
			s.donations = append(s.donations[:i], s.donations[i+1:]...)
			return nil
		}
	}
	return core.ErrNotFound
}

func (s *Store) InsertGrant(_ context.Context, userID string) (core.AdminGrant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g := core.AdminGrant{
		ID:        uuid.NewString(),
		UserID:    userID,
		CreatedAt: s.now(),
	}
	s.grants = append(s.grants, g)
	return g, nil
}

func (s *Store) ListGrants(_ context.Context) ([]core.AdminGrant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.AdminGrant, len(s.grants))
	copy(out, s.grants)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (s *Store) DeleteGrant(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, g := range s.grants {
		if g.ID == id {
			s.grants = append(s.grants[:i], s.grants[i+1:]...)
			return nil
		}
	}
	return core.ErrNotFound
}

func (s *Store) FindGrantsByUser(_ context.Context, userID string) ([]core.AdminGrant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.AdminGrant
	for _, g := range s.grants {
		if g.UserID == userID {
			out = append(out, g)
		}
	}
	return out, nil
}
