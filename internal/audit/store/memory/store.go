// Package memory provides the in-memory audit store used in unit tests.
package memory

import (
	"context"
	"sync"

	"wasmember/internal/audit"
	id "wasmember/pkg/domain"
)

// Store keeps decisions in memory, append-only.
type Store struct {
	mu        sync.Mutex
	decisions []audit.Decision
	failNext  error
}

func NewInMemoryStore() *Store {
	return &Store{}
}

// FailNext makes the next Append return err, for testing rollback behavior.
func (s *Store) FailNext(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failNext = err
}

func (s *Store) Append(_ context.Context, decision audit.Decision) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failNext != nil {
		err := s.failNext
		s.failNext = nil
		return err
	}
	s.decisions = append(s.decisions, decision)
	return nil
}

func (s *Store) ListByClaim(_ context.Context, claimID id.ClaimID) ([]audit.Decision, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []audit.Decision
	for _, d := range s.decisions {
		if d.ClaimID == claimID {
			out = append(out, d)
		}
	}
	return out, nil
}
