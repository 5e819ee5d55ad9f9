package store

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"wasmember/internal/claims/models"
	id "wasmember/pkg/domain"
	"wasmember/pkg/platform/sentinel"
)

type InMemoryStoreSuite struct {
	suite.Suite
	store *InMemory
}

func TestInMemoryStoreSuite(t *testing.T) {
	suite.Run(t, new(InMemoryStoreSuite))
}

func (s *InMemoryStoreSuite) SetupTest() {
	s.store = NewInMemory()
}

func (s *InMemoryStoreSuite) newClaim(code string) *models.Claim {
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
		time.Now().UTC(),
	)
	s.Require().NoError(err)
	return claim
}

func (s *InMemoryStoreSuite) TestInsertEnforcesCodeLock() {
	ctx := context.Background()
	s.Require().NoError(s.store.Insert(ctx, s.newClaim("WM-100")))
	s.ErrorIs(s.store.Insert(ctx, s.newClaim("WM-100")), sentinel.ErrConflict)
	s.Require().NoError(s.store.Insert(ctx, s.newClaim("WM-101")))
}

func (s *InMemoryStoreSuite) TestFindReturnsCopy() {
	ctx := context.Background()
	claim := s.newClaim("WM-102")
	s.Require().NoError(s.store.Insert(ctx, claim))

	got, err := s.store.FindByID(ctx, claim.ID)
	s.Require().NoError(err)
	got.CompanyName = "mutated"

	again, err := s.store.FindByID(ctx, claim.ID)
	s.Require().NoError(err)
	s.Equal("Acme Fabrication GmbH", again.CompanyName)
}

func (s *InMemoryStoreSuite) TestTransitionGuardsExpectedState() {
	ctx := context.Background()
	claim := s.newClaim("WM-103")
	s.Require().NoError(s.store.Insert(ctx, claim))

	claim.ApplyApproval(id.AdminID(uuid.New()), time.Now().UTC())
	s.Require().NoError(s.store.Transition(ctx, claim, models.StatusPending))
	s.ErrorIs(s.store.Transition(ctx, claim, models.StatusPending), sentinel.ErrInvalidState)

	s.ErrorIs(s.store.Transition(ctx, s.newClaim("WM-104"), models.StatusPending), sentinel.ErrNotFound)
}

func (s *InMemoryStoreSuite) TestResubmissionRacesOnLock() {
	ctx := context.Background()
	claim := s.newClaim("WM-105")
	s.Require().NoError(s.store.Insert(ctx, claim))
	claim.ApplyRejection(id.AdminID(uuid.New()), "wrong company", time.Now().UTC())
	s.Require().NoError(s.store.Transition(ctx, claim, models.StatusPending))

	// Another claim takes the code while this one is rejected.
	s.Require().NoError(s.store.Insert(ctx, s.newClaim("WM-105")))

	claim.ApplyResubmission(models.ResubmitRequest{
		CompanyName: "Acme", TaxID: "DE811234567", MemberTypeCode: "MT01",
	}, time.Now().UTC())
	s.ErrorIs(s.store.Transition(ctx, claim, models.StatusRejected), sentinel.ErrConflict)
}

func (s *InMemoryStoreSuite) TestNonSelectableCodes() {
	ctx := context.Background()
	pending := s.newClaim("WM-106")
	s.Require().NoError(s.store.Insert(ctx, pending))

	rejected := s.newClaim("WM-107")
	s.Require().NoError(s.store.Insert(ctx, rejected))
	rejected.ApplyRejection(id.AdminID(uuid.New()), "wrong company", time.Now().UTC())
	s.Require().NoError(s.store.Transition(ctx, rejected, models.StatusPending))

	locked, err := s.store.NonSelectableCodes(ctx)
	s.Require().NoError(err)
	s.Equal(map[id.MemberCode]models.ClaimStatus{"WM-106": models.StatusPending}, locked)
}
