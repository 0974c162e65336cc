// Package memory is an in-process mirror double for tests.
package memory

import (
	"context"
	"fmt"
	"sync"

	"fintrack/internal/core"
	"fintrack/internal/mirror"
)

var _ mirror.Mirror = (*Store)(nil)

type Store struct {
	mu   sync.Mutex
	rows []core.Donation
}

func New() *Store {
	return &Store{}
}

// AppendDonation stores the row and returns a synthetic reference.
func (s *Store) AppendDonation(_ context.Context, d core.Donation) (string, error) {
	if err := d.Validate(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows = append(s.rows, d)
	return fmt.Sprintf("mem:%d", len(s.rows)), nil
}

func (s *Store) RemoveDonation(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, d := range s.rows {
		if d.ID == id {
			s.rows = append(s.rows[:i], s.rows[i+1:]...)
			return nil
		}
	}
	return core.ErrNotFound
}

func (s *Store) MirroredIDs(_ context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.rows))
	for _, d := range s.rows {
		out = append(out, d.ID)
	}
	return out, nil
}

// Rows returns a copy of the mirrored rows.
func (s *Store) Rows() []core.Donation {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Donation, len(s.rows))
	copy(out, s.rows)
	return out
}
