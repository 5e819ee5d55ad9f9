package service

import (
	"context"
	"errors"
	"fmt"

	"wasmember/internal/audit"
	"wasmember/internal/claims/metrics"
	"wasmember/internal/claims/models"
	"wasmember/internal/notify"
	id "wasmember/pkg/domain"
	dErrors "wasmember/pkg/domain-errors"
	"wasmember/pkg/platform/sentinel"
	"wasmember/pkg/requestcontext"
)

// Approve marks a pending claim approved. The status change and its audit
// entry commit in one transaction; if the audit append fails the decision
// rolls back. The owner notification is queued only after commit.
func (s *Service) Approve(ctx context.Context, claimID id.ClaimID) (*models.Claim, error) {
	ctx, span := s.tracer.Start(ctx, "claims.Approve")
	defer span.End()

	adminID := requestcontext.AdminID(ctx)
	if adminID.IsNil() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "administrator identity is required")
	}
	now := requestcontext.Now(ctx)

	var claim *models.Claim
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		c, err := s.loadForReview(txCtx, claimID)
		if err != nil {
			return err
		}
		if err := c.CanApprove(); err != nil {
			return err
		}
		from := c.Status
		c.ApplyApproval(adminID, now)
		if err := s.transitionReviewed(txCtx, c, from); err != nil {
			return err
		}
		if err := s.audit.Emit(txCtx, audit.Decision{
			ClaimID:    c.ID,
			AdminID:    adminID,
			Action:     audit.ActionApprove,
			MemberCode: c.MemberCode,
			Timestamp:  now,
		}); err != nil {
			return fmt.Errorf("record approval audit: %w", err)
		}
		claim = c
		return nil
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	s.count(func(m *metrics.Metrics) { m.Approved.Inc() })
	s.notifier.Emit(notify.Notification{
		ClaimID:    claim.ID,
		AccountID:  claim.AccountID,
		MemberCode: claim.MemberCode,
		Outcome:    notify.OutcomeApproved,
	})
	return claim, nil
}

// Reject marks a pending claim rejected with a mandatory reason, releasing
// the member code for other accounts. Same transactional shape as Approve.
func (s *Service) Reject(ctx context.Context, claimID id.ClaimID, reason string) (*models.Claim, error) {
	ctx, span := s.tracer.Start(ctx, "claims.Reject")
	defer span.End()

	adminID := requestcontext.AdminID(ctx)
	if adminID.IsNil() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "administrator identity is required")
	}
	now := requestcontext.Now(ctx)

	var claim *models.Claim
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		c, err := s.loadForReview(txCtx, claimID)
		if err != nil {
			return err
		}
		if err := c.CanReject(reason); err != nil {
			return err
		}
		from := c.Status
		c.ApplyRejection(adminID, reason, now)
		if err := s.transitionReviewed(txCtx, c, from); err != nil {
			return err
		}
		if err := s.audit.Emit(txCtx, audit.Decision{
			ClaimID:    c.ID,
			AdminID:    adminID,
			Action:     audit.ActionReject,
			Reason:     reason,
			MemberCode: c.MemberCode,
			Timestamp:  now,
		}); err != nil {
			return fmt.Errorf("record rejection audit: %w", err)
		}
		claim = c
		return nil
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	s.count(func(m *metrics.Metrics) { m.Rejected.Inc() })
	s.notifier.Emit(notify.Notification{
		ClaimID:    claim.ID,
		AccountID:  claim.AccountID,
		MemberCode: claim.MemberCode,
		Outcome:    notify.OutcomeRejected,
		Reason:     reason,
	})
	return claim, nil
}

// DecisionLog returns the audit trail of one claim, oldest first.
func (s *Service) DecisionLog(ctx context.Context, claimID id.ClaimID) ([]audit.Decision, error) {
	if _, err := s.store.FindByID(ctx, claimID); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "claim not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "load claim")
	}
	return s.audit.List(ctx, claimID)
}

func (s *Service) loadForReview(ctx context.Context, claimID id.ClaimID) (*models.Claim, error) {
	c, err := s.store.FindByID(ctx, claimID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "claim not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "load claim")
	}
	return c, nil
}

func (s *Service) transitionReviewed(ctx context.Context, c *models.Claim, from models.ClaimStatus) error {
	err := s.store.Transition(ctx, c, from)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, "claim not found")
	case errors.Is(err, sentinel.ErrInvalidState):
		return dErrors.New(dErrors.CodeStateConflict, "claim was decided by another administrator")
	case errors.Is(err, sentinel.ErrConflict):
		return dErrors.New(dErrors.CodeConflict, "member code is already claimed")
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, "persist claim decision")
	}
}
