package service

import (
	"context"
	"errors"

	"wasmember/internal/claims/metrics"
	"wasmember/internal/claims/models"
	id "wasmember/pkg/domain"
	dErrors "wasmember/pkg/domain-errors"
	"wasmember/pkg/platform/sentinel"
	"wasmember/pkg/requestcontext"
)

// Get returns one claim owned by the calling account.
func (s *Service) Get(ctx context.Context, claimID id.ClaimID) (*models.Claim, error) {
	accountID := requestcontext.AccountID(ctx)
	if accountID.IsNil() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "authenticated account is required")
	}
	return s.loadOwned(ctx, claimID, accountID)
}

// ListForAccount returns one page of the calling account's claims, newest
// first. Pages are 1-based; anything below 1 reads as the first page.
func (s *Service) ListForAccount(ctx context.Context, filters models.ListFilters, page int) ([]*models.Claim, error) {
	ctx, span := s.tracer.Start(ctx, "claims.ListForAccount")
	defer span.End()

	accountID := requestcontext.AccountID(ctx)
	if accountID.IsNil() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "authenticated account is required")
	}
	if filters.Status != "" && !filters.Status.IsValid() {
		return nil, dErrors.New(dErrors.CodeValidation, "unknown status filter: "+string(filters.Status))
	}
	if page < 1 {
		page = 1
	}
	claims, err := s.store.ListByAccount(ctx, accountID, filters, page)
	if err != nil {
		span.RecordError(err)
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "list claims")
	}
	return claims, nil
}

// EditAndResubmit updates a rejected claim and returns it to pending under
// the same claim identity and member code. The lock re-acquisition is guarded
// by the store: if the code was claimed elsewhere while this claim sat
// rejected, the resubmission fails with a conflict and the claim stays
// rejected.
func (s *Service) EditAndResubmit(ctx context.Context, claimID id.ClaimID, req models.ResubmitRequest) (*models.Claim, error) {
	ctx, span := s.tracer.Start(ctx, "claims.EditAndResubmit")
	defer span.End()

	accountID := requestcontext.AccountID(ctx)
	if accountID.IsNil() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "authenticated account is required")
	}
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}
	now := requestcontext.Now(ctx)

	var claim *models.Claim
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		c, err := s.loadOwned(txCtx, claimID, accountID)
		if err != nil {
			return err
		}
		if err := c.CanResubmit(); err != nil {
			return err
		}
		from := c.Status
		c.ApplyResubmission(req, now)
		switch err := s.store.Transition(txCtx, c, from); {
		case err == nil:
		case errors.Is(err, sentinel.ErrNotFound):
			return dErrors.New(dErrors.CodeNotFound, "claim not found")
		case errors.Is(err, sentinel.ErrInvalidState):
			return dErrors.New(dErrors.CodeStateConflict, "claim is no longer rejected")
		case errors.Is(err, sentinel.ErrConflict):
			return dErrors.New(dErrors.CodeConflict, "member code is already claimed")
		default:
			return dErrors.Wrap(err, dErrors.CodeInternal, "persist resubmission")
		}
		claim = c
		return nil
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	s.count(func(m *metrics.Metrics) { m.Resubmitted.Inc() })
	return claim, nil
}

// Delete removes a pending or rejected claim owned by the caller, releasing
// its member code if the claim held the lock. Approved claims are permanent.
func (s *Service) Delete(ctx context.Context, claimID id.ClaimID) error {
	ctx, span := s.tracer.Start(ctx, "claims.Delete")
	defer span.End()

	accountID := requestcontext.AccountID(ctx)
	if accountID.IsNil() {
		return dErrors.New(dErrors.CodeUnauthorized, "authenticated account is required")
	}

	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		c, err := s.loadOwned(txCtx, claimID, accountID)
		if err != nil {
			return err
		}
		if err := c.CanDelete(); err != nil {
			return err
		}
		if err := s.store.Delete(txCtx, c.ID); err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return dErrors.New(dErrors.CodeNotFound, "claim not found")
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "delete claim")
		}
		return nil
	})
	if err != nil {
		span.RecordError(err)
		return err
	}

	s.count(func(m *metrics.Metrics) { m.Deleted.Inc() })
	return nil
}

func (s *Service) loadOwned(ctx context.Context, claimID id.ClaimID, accountID id.AccountID) (*models.Claim, error) {
	c, err := s.store.FindByID(ctx, claimID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "claim not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "load claim")
	}
	if !c.OwnedBy(accountID) {
		return nil, dErrors.New(dErrors.CodeForbidden, "claim belongs to another account")
	}
	return c, nil
}
