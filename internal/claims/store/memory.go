package store

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"wasmember/internal/claims/models"
	id "wasmember/pkg/domain"
	"wasmember/pkg/platform/sentinel"
)

// InMemory is the test twin of the Postgres store. It enforces the same
// member-code uniqueness rule under a mutex so service tests exercise the
// conflict paths without a database.
type InMemory struct {
	mu     sync.Mutex
	claims map[id.ClaimID]*models.Claim
}

// NewInMemory constructs an empty in-memory claim store.
func NewInMemory() *InMemory {
	return &InMemory{claims: make(map[id.ClaimID]*models.Claim)}
}

func (s *InMemory) Insert(_ context.Context, claim *models.Claim) error {
	if claim == nil {
		return fmt.Errorf("claim is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if claim.Status.HoldsLock() {
		if holder := s.lockHolderLocked(claim.MemberCode, claim.ID); holder != nil {
			return fmt.Errorf("member code %s: %w", claim.MemberCode, sentinel.ErrConflict)
		}
	}
	cp := *claim
	s.claims[claim.ID] = &cp
	return nil
}

func (s *InMemory) Transition(_ context.Context, claim *models.Claim, expectFrom models.ClaimStatus) error {
	if claim == nil {
		return fmt.Errorf("claim is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.claims[claim.ID]
	if !ok {
		return sentinel.ErrNotFound
	}
	if existing.Status != expectFrom {
		return fmt.Errorf("claim is %s: %w", existing.Status, sentinel.ErrInvalidState)
	}
	if claim.Status.HoldsLock() && !existing.Status.HoldsLock() {
		if holder := s.lockHolderLocked(claim.MemberCode, claim.ID); holder != nil {
			return fmt.Errorf("member code %s: %w", claim.MemberCode, sentinel.ErrConflict)
		}
	}
	cp := *claim
	s.claims[claim.ID] = &cp
	return nil
}

func (s *InMemory) FindByID(_ context.Context, claimID id.ClaimID) (*models.Claim, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	claim, ok := s.claims[claimID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *claim
	return &cp, nil
}

func (s *InMemory) Delete(_ context.Context, claimID id.ClaimID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.claims[claimID]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.claims, claimID)
	return nil
}

func (s *InMemory) ListByAccount(_ context.Context, accountID id.AccountID, filters models.ListFilters, page int) ([]*models.Claim, error) {
	if page < 1 {
		page = 1
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	var matched []*models.Claim
	for _, claim := range s.claims {
		if claim.AccountID != accountID {
			continue
		}
		if filters.Status != "" && claim.Status != filters.Status {
			continue
		}
		if filters.MemberTypeCode != "" && claim.MemberTypeCode != filters.MemberTypeCode {
			continue
		}
		if filters.SearchTerm != "" {
			term := strings.ToLower(filters.SearchTerm)
			if !strings.Contains(strings.ToLower(claim.MemberCode.String()), term) &&
				!strings.Contains(strings.ToLower(claim.CompanyName), term) {
				continue
			}
		}
		cp := *claim
		matched = append(matched, &cp)
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].UpdatedAt.After(matched[j].UpdatedAt)
	})

	start := (page - 1) * models.PageSize
	if start >= len(matched) {
		return nil, nil
	}
	end := start + models.PageSize
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], nil
}

func (s *InMemory) StatusByCode(_ context.Context, code id.MemberCode) (models.ClaimStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var latest *models.Claim
	for _, claim := range s.claims {
		if claim.MemberCode != code {
			continue
		}
		if latest == nil || claim.UpdatedAt.After(latest.UpdatedAt) {
			latest = claim
		}
	}
	if latest == nil {
		return "", sentinel.ErrNotFound
	}
	return latest.Status, nil
}

func (s *InMemory) NonSelectableCodes(_ context.Context) (map[id.MemberCode]models.ClaimStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	codes := make(map[id.MemberCode]models.ClaimStatus)
	for _, claim := range s.claims {
		if claim.Status.HoldsLock() {
			codes[claim.MemberCode] = claim.Status
		}
	}
	return codes, nil
}

// lockHolderLocked returns the claim currently holding the lock on code,
// excluding the claim identified by self. Callers must hold s.mu.
func (s *InMemory) lockHolderLocked(code id.MemberCode, self id.ClaimID) *models.Claim {
	for _, claim := range s.claims {
		if claim.ID != self && claim.MemberCode == code && claim.Status.HoldsLock() {
			return claim
		}
	}
	return nil
}
