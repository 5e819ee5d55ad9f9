package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"wasmember/internal/claims/metrics"
	"wasmember/internal/claims/models"
	id "wasmember/pkg/domain"
	dErrors "wasmember/pkg/domain-errors"
	"wasmember/pkg/platform/sentinel"
	"wasmember/pkg/requestcontext"
)

// submitConcurrency bounds parallel item transactions within one batch.
const submitConcurrency = 4

// SubmitBatch files up to models.MaxBatchSize claims for the calling account.
//
// The batch is validated wholesale before any write: size bounds, per-item
// fields and intra-batch duplicate member codes all fail the entire request.
// Once validation passes, each item runs in its own transaction and fails or
// succeeds independently; the result reports every item in input order.
func (s *Service) SubmitBatch(ctx context.Context, accountID id.AccountID, req models.SubmitBatchRequest) (*models.BatchResult, error) {
	ctx, span := s.tracer.Start(ctx, "claims.SubmitBatch")
	defer span.End()

	if accountID.IsNil() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "authenticated account is required")
	}
	req.Normalize()
	if err := req.Validate(); err != nil {
		span.RecordError(err)
		return nil, err
	}

	now := requestcontext.Now(ctx)
	results := make([]models.ItemResult, len(req.Items))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(submitConcurrency)
	for idx, item := range req.Items {
		g.Go(func() error {
			results[idx] = s.submitOne(gctx, accountID, item, now)
			return nil
		})
	}
	// Item outcomes are reported in results, never as group errors.
	_ = g.Wait()

	return &models.BatchResult{Results: results}, nil
}

func (s *Service) submitOne(ctx context.Context, accountID id.AccountID, item models.ClaimItem, now time.Time) models.ItemResult {
	res := models.ItemResult{MemberCode: item.MemberCode}

	claim, err := models.NewClaim(id.ClaimID(uuid.New()), accountID, item, now)
	if err != nil {
		res.Error = err.Error()
		return res
	}

	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		return s.store.Insert(txCtx, claim)
	})
	switch {
	case err == nil:
		res.Success = true
		res.ClaimID = claim.ID.String()
		s.count(func(m *metrics.Metrics) { m.Submitted.Inc() })
	case errors.Is(err, sentinel.ErrConflict):
		res.Error = "member code is already claimed"
		s.count(func(m *metrics.Metrics) { m.Conflicts.Inc() })
	default:
		s.logger.ErrorContext(ctx, "claim insert failed",
			"member_code", item.MemberCode,
			"account_id", accountID.String(),
			"error", err,
		)
		res.Error = "claim could not be stored"
	}
	return res
}
