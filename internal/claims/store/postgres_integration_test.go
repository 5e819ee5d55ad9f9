//go:build integration

package store

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"wasmember/internal/audit"
	auditpg "wasmember/internal/audit/store/postgres"
	"wasmember/internal/claims/models"
	id "wasmember/pkg/domain"
	"wasmember/pkg/platform/sentinel"
	txcontext "wasmember/pkg/platform/tx"
	"wasmember/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	pg    *containers.PostgresContainer
	store *PostgresStore
}

func TestPostgresStoreSuite(t *testing.T) {
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.pg = containers.NewPostgresContainer(s.T())
	s.pg.ApplySchemaFile(s.T(), "../../../db/schema.sql")
	s.store = NewPostgres(s.pg.DB)
}

func (s *PostgresStoreSuite) SetupTest() {
	_, err := s.pg.DB.Exec(`TRUNCATE claims, claim_audit, outbox`)
	s.Require().NoError(err)
}

func (s *PostgresStoreSuite) newClaim(code string) *models.Claim {
	claim, err := models.NewClaim(
		id.ClaimID(uuid.New()),
		id.AccountID(uuid.New()),
		models.ClaimItem{
			MemberCode:     code,
			CompanyName:    "Acme Fabrication GmbH",
			TaxID:          "DE811234567",
			MemberTypeCode: "MT01",
			DocumentRef:    "https://docs.example/ref/" + code,
		},
		time.Now().UTC().Truncate(time.Microsecond),
	)
	s.Require().NoError(err)
	return claim
}

func (s *PostgresStoreSuite) TestInsertAndFind() {
	ctx := context.Background()
	claim := s.newClaim("WM-1001")
	s.Require().NoError(s.store.Insert(ctx, claim))

	got, err := s.store.FindByID(ctx, claim.ID)
	s.Require().NoError(err)
	s.Equal(claim.ID, got.ID)
	s.Equal(claim.AccountID, got.AccountID)
	s.Equal(claim.MemberCode, got.MemberCode)
	s.Equal(models.StatusPending, got.Status)
	s.True(got.ReviewedBy.IsNil())
	s.Nil(got.ReviewedAt)
}

func (s *PostgresStoreSuite) TestFindByID_NotFound() {
	_, err := s.store.FindByID(context.Background(), id.ClaimID(uuid.New()))
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestInsert_ConflictOnHeldCode() {
	ctx := context.Background()
	s.Require().NoError(s.store.Insert(ctx, s.newClaim("WM-1002")))

	err := s.store.Insert(ctx, s.newClaim("WM-1002"))
	s.ErrorIs(err, sentinel.ErrConflict)
}

func (s *PostgresStoreSuite) TestInsert_ConcurrentSameCodeOneWinner() {
	ctx := context.Background()
	const racers = 8

	errs := make([]error, racers)
	var wg sync.WaitGroup
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs[i] = s.store.Insert(ctx, s.newClaim("WM-RACE"))
		}()
	}
	wg.Wait()

	winners := 0
	for _, err := range errs {
		if err == nil {
			winners++
		} else {
			s.ErrorIs(err, sentinel.ErrConflict)
		}
	}
	s.Equal(1, winners, "the partial unique index must admit exactly one claim")
}

func (s *PostgresStoreSuite) TestTransition_ApproveAndGuard() {
	ctx := context.Background()
	claim := s.newClaim("WM-1003")
	s.Require().NoError(s.store.Insert(ctx, claim))

	adminID := id.AdminID(uuid.New())
	now := time.Now().UTC().Truncate(time.Microsecond)
	claim.ApplyApproval(adminID, now)
	s.Require().NoError(s.store.Transition(ctx, claim, models.StatusPending))

	got, err := s.store.FindByID(ctx, claim.ID)
	s.Require().NoError(err)
	s.Equal(models.StatusApproved, got.Status)
	s.Equal(adminID, got.ReviewedBy)
	s.NotNil(got.ReviewedAt)

	// A second transition guarded on pending fails: the status moved.
	err = s.store.Transition(ctx, claim, models.StatusPending)
	s.ErrorIs(err, sentinel.ErrInvalidState)
}

func (s *PostgresStoreSuite) TestTransition_NotFound() {
	claim := s.newClaim("WM-1004")
	err := s.store.Transition(context.Background(), claim, models.StatusPending)
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestRejectionReleasesCode() {
	ctx := context.Background()
	claim := s.newClaim("WM-1005")
	s.Require().NoError(s.store.Insert(ctx, claim))

	claim.ApplyRejection(id.AdminID(uuid.New()), "wrong company", time.Now().UTC())
	s.Require().NoError(s.store.Transition(ctx, claim, models.StatusPending))

	// The code is claimable again.
	second := s.newClaim("WM-1005")
	s.Require().NoError(s.store.Insert(ctx, second))

	// But the rejected claim can no longer re-acquire the lock.
	claim.ApplyResubmission(models.ResubmitRequest{
		CompanyName: "Acme", TaxID: "DE811234567", MemberTypeCode: "MT01",
	}, time.Now().UTC())
	err := s.store.Transition(ctx, claim, models.StatusRejected)
	s.ErrorIs(err, sentinel.ErrConflict)
}

func (s *PostgresStoreSuite) TestDeleteReleasesCode() {
	ctx := context.Background()
	claim := s.newClaim("WM-1006")
	s.Require().NoError(s.store.Insert(ctx, claim))
	s.Require().NoError(s.store.Delete(ctx, claim.ID))

	s.ErrorIs(s.store.Delete(ctx, claim.ID), sentinel.ErrNotFound)
	s.Require().NoError(s.store.Insert(ctx, s.newClaim("WM-1006")))
}

func (s *PostgresStoreSuite) TestListByAccount() {
	ctx := context.Background()
	accountID := id.AccountID(uuid.New())

	for _, code := range []string{"WM-2001", "WM-2002", "WM-2003"} {
		claim := s.newClaim(code)
		claim.AccountID = accountID
		s.Require().NoError(s.store.Insert(ctx, claim))
	}
	s.Require().NoError(s.store.Insert(ctx, s.newClaim("WM-2004")))

	claims, err := s.store.ListByAccount(ctx, accountID, models.ListFilters{}, 1)
	s.Require().NoError(err)
	s.Len(claims, 3)

	filtered, err := s.store.ListByAccount(ctx, accountID, models.ListFilters{SearchTerm: "2002"}, 1)
	s.Require().NoError(err)
	s.Len(filtered, 1)
	s.Equal(id.MemberCode("WM-2002"), filtered[0].MemberCode)

	empty, err := s.store.ListByAccount(ctx, accountID, models.ListFilters{}, 2)
	s.Require().NoError(err)
	s.Empty(empty)
}

func (s *PostgresStoreSuite) TestStatusByCodeAndNonSelectable() {
	ctx := context.Background()

	_, err := s.store.StatusByCode(ctx, "WM-3001")
	s.ErrorIs(err, sentinel.ErrNotFound)

	claim := s.newClaim("WM-3001")
	s.Require().NoError(s.store.Insert(ctx, claim))

	status, err := s.store.StatusByCode(ctx, "WM-3001")
	s.Require().NoError(err)
	s.Equal(models.StatusPending, status)

	locked, err := s.store.NonSelectableCodes(ctx)
	s.Require().NoError(err)
	s.Equal(models.StatusPending, locked["WM-3001"])
}

// TestDecisionAndAuditCommitTogether drives a transition plus its audit entry
// through one transaction and verifies both rollback and commit behavior.
func (s *PostgresStoreSuite) TestDecisionAndAuditCommitTogether() {
	ctx := context.Background()
	claim := s.newClaim("WM-4001")
	s.Require().NoError(s.store.Insert(ctx, claim))
	auditStore := auditpg.New(s.pg.DB)

	decision := audit.Decision{
		ClaimID:    claim.ID,
		AdminID:    id.AdminID(uuid.New()),
		Action:     audit.ActionApprove,
		MemberCode: claim.MemberCode,
		Timestamp:  time.Now().UTC(),
	}

	// Rollback: the decision and its audit entry both vanish.
	tx, err := s.pg.DB.BeginTx(ctx, nil)
	s.Require().NoError(err)
	txCtx := txcontext.WithTx(ctx, tx)
	approved := *claim
	approved.ApplyApproval(decision.AdminID, time.Now().UTC())
	s.Require().NoError(s.store.Transition(txCtx, &approved, models.StatusPending))
	s.Require().NoError(auditStore.Append(txCtx, decision))
	s.Require().NoError(tx.Rollback())

	got, err := s.store.FindByID(ctx, claim.ID)
	s.Require().NoError(err)
	s.Equal(models.StatusPending, got.Status)
	entries, err := auditStore.ListByClaim(ctx, claim.ID)
	s.Require().NoError(err)
	s.Empty(entries)

	// Commit: both land, and the outbox row is queued unpublished.
	tx, err = s.pg.DB.BeginTx(ctx, nil)
	s.Require().NoError(err)
	txCtx = txcontext.WithTx(ctx, tx)
	s.Require().NoError(s.store.Transition(txCtx, &approved, models.StatusPending))
	s.Require().NoError(auditStore.Append(txCtx, decision))
	s.Require().NoError(tx.Commit())

	got, err = s.store.FindByID(ctx, claim.ID)
	s.Require().NoError(err)
	s.Equal(models.StatusApproved, got.Status)
	entries, err = auditStore.ListByClaim(ctx, claim.ID)
	s.Require().NoError(err)
	s.Len(entries, 1)

	var unpublished int
	s.Require().NoError(s.pg.DB.QueryRow(
		`SELECT COUNT(*) FROM outbox WHERE published_at IS NULL`).Scan(&unpublished))
	s.Equal(1, unpublished)
}
