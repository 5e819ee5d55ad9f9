package service

import (
	"context"
	"errors"

	"wasmember/internal/claims/models"
	"wasmember/internal/registry"
	id "wasmember/pkg/domain"
	dErrors "wasmember/pkg/domain-errors"
	"wasmember/pkg/platform/sentinel"
)

// minSearchTermLength keeps the registry from scanning on 1-char prefixes.
const minSearchTermLength = 2

// CodeAvailability is the advisory answer to "can this code be claimed now".
// It is a point-in-time read; the store re-checks at write time.
type CodeAvailability struct {
	MemberCode id.MemberCode      `json:"member_code"`
	Selectable bool               `json:"selectable"`
	Status     models.ClaimStatus `json:"status,omitempty"`
}

// MemberCandidate is a registry search hit annotated with selectability.
type MemberCandidate struct {
	registry.Candidate
	Selectable bool `json:"selectable"`
}

// CheckCode reports whether a member code is currently claimable. A code with
// no claim history, or whose latest claim is rejected, is selectable.
func (s *Service) CheckCode(ctx context.Context, rawCode string) (CodeAvailability, error) {
	code := id.NormalizeMemberCode(rawCode)
	if code.IsZero() {
		return CodeAvailability{}, dErrors.New(dErrors.CodeValidation, "member_code is required")
	}

	status, err := s.store.StatusByCode(ctx, code)
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return CodeAvailability{MemberCode: code, Selectable: true}, nil
	case err != nil:
		return CodeAvailability{}, dErrors.Wrap(err, dErrors.CodeInternal, "check member code")
	}
	return CodeAvailability{
		MemberCode: code,
		Selectable: !status.HoldsLock(),
		Status:     status,
	}, nil
}

// NonSelectableCodes maps every member code currently locked by a pending or
// approved claim to the status holding it.
func (s *Service) NonSelectableCodes(ctx context.Context) (map[id.MemberCode]models.ClaimStatus, error) {
	locked, err := s.store.NonSelectableCodes(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "list non-selectable codes")
	}
	return locked, nil
}

// SearchMembers queries the legacy registry and annotates each candidate with
// whether its code can currently be claimed. The annotation uses one snapshot
// of locked codes, not a per-candidate query.
func (s *Service) SearchMembers(ctx context.Context, term string) ([]MemberCandidate, error) {
	ctx, span := s.tracer.Start(ctx, "claims.SearchMembers")
	defer span.End()

	if len(term) < minSearchTermLength {
		return nil, dErrors.New(dErrors.CodeValidation, "search term must be at least 2 characters")
	}

	candidates, err := s.registry.Search(ctx, term)
	if err != nil {
		span.RecordError(err)
		if errors.Is(err, sentinel.ErrUnavailable) {
			return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "legacy registry is unavailable")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "search legacy registry")
	}

	locked, err := s.store.NonSelectableCodes(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "annotate search results")
	}

	out := make([]MemberCandidate, 0, len(candidates))
	for _, c := range candidates {
		_, taken := locked[id.NormalizeMemberCode(c.MemberCode)]
		out = append(out, MemberCandidate{Candidate: c, Selectable: !taken})
	}
	return out, nil
}
