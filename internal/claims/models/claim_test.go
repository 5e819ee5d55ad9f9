package models

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	id "wasmember/pkg/domain"
	dErrors "wasmember/pkg/domain-errors"
)

func validItem() ClaimItem {
	return ClaimItem{
		MemberCode:     " WM-001 ",
		CompanyName:    " Acme Fabrication GmbH ",
		TaxID:          "DE811234567",
		MemberTypeCode: "MT01",
		DocumentRef:    "https://docs.example/ref/1",
	}
}

func TestNewClaimNormalizes(t *testing.T) {
	now := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	claim, err := NewClaim(id.ClaimID(uuid.New()), id.AccountID(uuid.New()), validItem(), now)
	require.NoError(t, err)

	require.Equal(t, id.MemberCode("WM-001"), claim.MemberCode)
	require.Equal(t, "Acme Fabrication GmbH", claim.CompanyName)
	require.Equal(t, StatusPending, claim.Status)
	require.Equal(t, now, claim.CreatedAt)
	require.Equal(t, now, claim.UpdatedAt)
}

func TestNewClaimRejectsMissingFields(t *testing.T) {
	now := time.Now()
	for _, mutate := range []func(*ClaimItem){
		func(i *ClaimItem) { i.MemberCode = "  " },
		func(i *ClaimItem) { i.CompanyName = "" },
		func(i *ClaimItem) { i.TaxID = "" },
		func(i *ClaimItem) { i.MemberTypeCode = "" },
		func(i *ClaimItem) { i.DocumentRef = "" },
	} {
		item := validItem()
		mutate(&item)
		_, err := NewClaim(id.ClaimID(uuid.New()), id.AccountID(uuid.New()), item, now)
		require.True(t, dErrors.HasCode(err, dErrors.CodeValidation), "item %+v", item)
	}
}

func TestStatusTransitions(t *testing.T) {
	require.True(t, StatusPending.CanTransitionTo(StatusApproved))
	require.True(t, StatusPending.CanTransitionTo(StatusRejected))
	require.True(t, StatusRejected.CanTransitionTo(StatusPending))

	require.False(t, StatusApproved.CanTransitionTo(StatusPending))
	require.False(t, StatusApproved.CanTransitionTo(StatusRejected))
	require.False(t, StatusRejected.CanTransitionTo(StatusApproved))
	require.False(t, StatusPending.CanTransitionTo(StatusPending))

	require.True(t, StatusPending.HoldsLock())
	require.True(t, StatusApproved.HoldsLock())
	require.False(t, StatusRejected.HoldsLock())
}

func TestApplyResubmissionKeepsIdentity(t *testing.T) {
	now := time.Now()
	claim, err := NewClaim(id.ClaimID(uuid.New()), id.AccountID(uuid.New()), validItem(), now)
	require.NoError(t, err)
	originalID := claim.ID
	originalCode := claim.MemberCode
	originalDoc := claim.DocumentRef

	claim.ApplyRejection(id.AdminID(uuid.New()), "illegible", now.Add(time.Hour))
	require.Equal(t, StatusRejected, claim.Status)
	require.Error(t, claim.CanApprove())
	require.NoError(t, claim.CanResubmit())

	later := now.Add(2 * time.Hour)
	claim.ApplyResubmission(ResubmitRequest{
		CompanyName:    "Acme Fabrication AG",
		TaxID:          "DE819876543",
		MemberTypeCode: "MT02",
	}, later)

	require.Equal(t, originalID, claim.ID)
	require.Equal(t, originalCode, claim.MemberCode)
	require.Equal(t, originalDoc, claim.DocumentRef, "empty document ref keeps the stored document")
	require.Equal(t, StatusPending, claim.Status)
	require.Empty(t, claim.RejectReason)
	require.True(t, claim.ReviewedBy.IsNil())
	require.Nil(t, claim.ReviewedAt)
	require.Equal(t, later, claim.UpdatedAt)
}

func TestCanRejectRequiresReason(t *testing.T) {
	claim, err := NewClaim(id.ClaimID(uuid.New()), id.AccountID(uuid.New()), validItem(), time.Now())
	require.NoError(t, err)

	require.True(t, dErrors.HasCode(claim.CanReject(""), dErrors.CodeValidation))
	require.NoError(t, claim.CanReject("illegible"))
}

func TestCanDelete(t *testing.T) {
	claim, err := NewClaim(id.ClaimID(uuid.New()), id.AccountID(uuid.New()), validItem(), time.Now())
	require.NoError(t, err)

	require.NoError(t, claim.CanDelete())
	claim.ApplyApproval(id.AdminID(uuid.New()), time.Now())
	require.True(t, dErrors.HasCode(claim.CanDelete(), dErrors.CodeStateConflict))
}

func TestSubmitBatchRequestValidate(t *testing.T) {
	req := SubmitBatchRequest{}
	require.True(t, dErrors.HasCode(req.Validate(), dErrors.CodeValidation))

	items := make([]ClaimItem, MaxBatchSize+1)
	for i := range items {
		items[i] = validItem()
		items[i].MemberCode = "WM-" + string(rune('A'+i))
	}
	req = SubmitBatchRequest{Items: items}
	req.Normalize()
	require.True(t, dErrors.HasCode(req.Validate(), dErrors.CodeValidation))

	req = SubmitBatchRequest{Items: []ClaimItem{validItem(), validItem()}}
	req.Normalize()
	err := req.Validate()
	require.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	require.Contains(t, err.Error(), "duplicate member_code")
}
