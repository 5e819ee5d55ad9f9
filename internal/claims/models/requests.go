package models

import (
	"strings"

	id "wasmember/pkg/domain"
	dErrors "wasmember/pkg/domain-errors"
)

// MaxBatchSize bounds one batch submission.
const MaxBatchSize = 10

// ClaimItem is one entry of a batch submission. The legacy portal assembled
// these as loose per-field payloads; here the whole item is validated before
// anything touches the repository.
type ClaimItem struct {
	MemberCode     string `json:"member_code"`
	CompanyName    string `json:"company_name"`
	TaxID          string `json:"tax_id"`
	MemberTypeCode string `json:"member_type_code"`
	DocumentRef    string `json:"document_ref"`
}

// Normalize trims all fields; the member code additionally goes through the
// shared normalization used as the uniqueness key.
func (i *ClaimItem) Normalize() {
	i.MemberCode = id.NormalizeMemberCode(i.MemberCode).String()
	i.CompanyName = strings.TrimSpace(i.CompanyName)
	i.TaxID = strings.TrimSpace(i.TaxID)
	i.MemberTypeCode = strings.TrimSpace(i.MemberTypeCode)
	i.DocumentRef = strings.TrimSpace(i.DocumentRef)
}

// Validate enforces the non-empty-field rule for submission and resubmission.
func (i *ClaimItem) Validate() error {
	switch {
	case i.MemberCode == "":
		return dErrors.New(dErrors.CodeValidation, "member_code is required")
	case i.CompanyName == "":
		return dErrors.New(dErrors.CodeValidation, "company_name is required")
	case i.TaxID == "":
		return dErrors.New(dErrors.CodeValidation, "tax_id is required")
	case i.MemberTypeCode == "":
		return dErrors.New(dErrors.CodeValidation, "member_type_code is required")
	case i.DocumentRef == "":
		return dErrors.New(dErrors.CodeValidation, "document_ref is required")
	}
	return nil
}

// SubmitBatchRequest carries 1..MaxBatchSize claim items from one account.
type SubmitBatchRequest struct {
	Items []ClaimItem `json:"items"`
}

// Normalize trims every item in place.
func (r *SubmitBatchRequest) Normalize() {
	for idx := range r.Items {
		r.Items[idx].Normalize()
	}
}

// Validate checks the batch-level rules before any write is attempted: size
// bounds, per-item field validation, and the intra-batch duplicate member code
// rule, which fails the whole batch fast.
func (r *SubmitBatchRequest) Validate() error {
	if len(r.Items) == 0 {
		return dErrors.New(dErrors.CodeValidation, "items must not be empty")
	}
	if len(r.Items) > MaxBatchSize {
		return dErrors.New(dErrors.CodeValidation, "batch exceeds maximum of 10 items")
	}
	seen := make(map[string]struct{}, len(r.Items))
	for idx := range r.Items {
		if err := r.Items[idx].Validate(); err != nil {
			return err
		}
		code := r.Items[idx].MemberCode
		if _, dup := seen[code]; dup {
			return dErrors.New(dErrors.CodeValidation, "duplicate member_code in batch: "+code)
		}
		seen[code] = struct{}{}
	}
	return nil
}

// ResubmitRequest carries the re-supplied data for a rejected claim. The
// document reference is optional: an empty value reuses the stored document.
type ResubmitRequest struct {
	CompanyName    string `json:"company_name"`
	TaxID          string `json:"tax_id"`
	MemberTypeCode string `json:"member_type_code"`
	DocumentRef    string `json:"document_ref,omitempty"`
}

// Normalize trims all fields.
func (r *ResubmitRequest) Normalize() {
	r.CompanyName = strings.TrimSpace(r.CompanyName)
	r.TaxID = strings.TrimSpace(r.TaxID)
	r.MemberTypeCode = strings.TrimSpace(r.MemberTypeCode)
	r.DocumentRef = strings.TrimSpace(r.DocumentRef)
}

// Validate applies the same non-empty-field rule as initial submission,
// except for the optional document reference.
func (r *ResubmitRequest) Validate() error {
	switch {
	case r.CompanyName == "":
		return dErrors.New(dErrors.CodeValidation, "company_name is required")
	case r.TaxID == "":
		return dErrors.New(dErrors.CodeValidation, "tax_id is required")
	case r.MemberTypeCode == "":
		return dErrors.New(dErrors.CodeValidation, "member_type_code is required")
	}
	return nil
}

// ItemResult reports the outcome of one batch item. Every submitted item
// appears exactly once in the aggregate, success or not.
type ItemResult struct {
	MemberCode string `json:"member_code"`
	Success    bool   `json:"success"`
	Error      string `json:"error,omitempty"`
	ClaimID    string `json:"claim_id,omitempty"`
}

// BatchResult aggregates per-item outcomes; the batch as a whole never fails
// all-or-nothing once it passes pre-validation.
type BatchResult struct {
	Results []ItemResult `json:"results"`
}

// ListFilters narrows an account's claim listing.
type ListFilters struct {
	Status         ClaimStatus
	MemberTypeCode string
	// SearchTerm matches member code or company name as a substring.
	SearchTerm string
}

// PageSize is the fixed page length for claim listings.
const PageSize = 20
