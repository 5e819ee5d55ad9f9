package models

import (
	"time"

	id "wasmember/pkg/domain"
	dErrors "wasmember/pkg/domain-errors"
)

// Claim is the aggregate linking a portal account to one legacy membership
// record, pending administrative confirmation.
//
// Invariants:
//   - MemberCode is normalized (trimmed) and non-empty
//   - CompanyName, TaxID, MemberTypeCode and DocumentRef are non-empty at rest;
//     a claim never reaches a store without a document reference
//   - At most one claim per MemberCode holds the lock (pending or approved)
//     across all accounts; the store's partial unique index is the sole
//     arbiter of that rule
//   - RejectReason is set exactly when Status is rejected
//
// Company fields are a denormalized snapshot of the legacy record taken at
// submission time; they are not re-validated against the registry afterwards.
type Claim struct {
	ID             id.ClaimID    `json:"id"`
	AccountID      id.AccountID  `json:"account_id"`
	MemberCode     id.MemberCode `json:"member_code"`
	CompanyName    string        `json:"company_name"`
	TaxID          string        `json:"tax_id"`
	MemberTypeCode string        `json:"member_type_code"`
	DocumentRef    string        `json:"document_ref"`
	Status         ClaimStatus   `json:"status"`
	RejectReason   string        `json:"reject_reason,omitempty"`
	ReviewedBy     id.AdminID    `json:"reviewed_by,omitempty"`
	ReviewedAt     *time.Time    `json:"reviewed_at,omitempty"`
	CreatedAt      time.Time     `json:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at"`
}

// NewClaim constructs a pending claim, validating the at-rest invariants.
func NewClaim(claimID id.ClaimID, accountID id.AccountID, item ClaimItem, now time.Time) (*Claim, error) {
	item.Normalize()
	if err := item.Validate(); err != nil {
		return nil, err
	}
	if claimID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "claim id must not be nil")
	}
	if accountID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "account id must not be nil")
	}
	return &Claim{
		ID:             claimID,
		AccountID:      accountID,
		MemberCode:     id.NormalizeMemberCode(item.MemberCode),
		CompanyName:    item.CompanyName,
		TaxID:          item.TaxID,
		MemberTypeCode: item.MemberTypeCode,
		DocumentRef:    item.DocumentRef,
		Status:         StatusPending,
		CreatedAt:      now,
		UpdatedAt:      now,
	}, nil
}

// OwnedBy reports whether the claim belongs to the given account.
func (c *Claim) OwnedBy(accountID id.AccountID) bool {
	return c.AccountID == accountID
}

// CanApprove checks the pending precondition for approval.
func (c *Claim) CanApprove() error {
	if !c.Status.CanTransitionTo(StatusApproved) {
		return dErrors.New(dErrors.CodeStateConflict, "claim is not pending")
	}
	return nil
}

// ApplyApproval transitions the claim to approved. Call CanApprove first.
func (c *Claim) ApplyApproval(adminID id.AdminID, now time.Time) {
	c.Status = StatusApproved
	c.ReviewedBy = adminID
	c.ReviewedAt = &now
	c.UpdatedAt = now
}

// CanReject checks the pending precondition and the non-empty reason rule.
func (c *Claim) CanReject(reason string) error {
	if reason == "" {
		return dErrors.New(dErrors.CodeValidation, "reject reason is required")
	}
	if !c.Status.CanTransitionTo(StatusRejected) {
		return dErrors.New(dErrors.CodeStateConflict, "claim is not pending")
	}
	return nil
}

// ApplyRejection transitions the claim to rejected. Call CanReject first.
func (c *Claim) ApplyRejection(adminID id.AdminID, reason string, now time.Time) {
	c.Status = StatusRejected
	c.RejectReason = reason
	c.ReviewedBy = adminID
	c.ReviewedAt = &now
	c.UpdatedAt = now
}

// CanResubmit checks the rejected precondition for edit-and-resubmit.
// Ownership is enforced at the service layer where the caller is known.
func (c *Claim) CanResubmit() error {
	if !c.Status.CanTransitionTo(StatusPending) {
		return dErrors.New(dErrors.CodeStateConflict, "only rejected claims can be resubmitted")
	}
	return nil
}

// ApplyResubmission updates the editable fields, clears the rejection and
// returns the claim to pending under the same identity. The member code is
// immutable: a resubmission re-acquires the lock for the code it was filed
// under, never for a different one.
func (c *Claim) ApplyResubmission(req ResubmitRequest, now time.Time) {
	c.CompanyName = req.CompanyName
	c.TaxID = req.TaxID
	c.MemberTypeCode = req.MemberTypeCode
	if req.DocumentRef != "" {
		c.DocumentRef = req.DocumentRef
	}
	c.Status = StatusPending
	c.RejectReason = ""
	c.ReviewedBy = id.AdminID{}
	c.ReviewedAt = nil
	c.UpdatedAt = now
}

// CanDelete checks that the owner may remove the claim. Approved claims are
// permanent; releasing an approved code is an out-of-band operation.
func (c *Claim) CanDelete() error {
	if c.Status == StatusApproved {
		return dErrors.New(dErrors.CodeStateConflict, "approved claims cannot be deleted")
	}
	return nil
}
