// Package store persists claims. The Postgres implementation is the single
// source of truth for the member-code uniqueness rule; nothing above this
// layer may cache "claimed" status beyond one request.
package store

import (
	"context"

	"wasmember/internal/claims/models"
	id "wasmember/pkg/domain"
)

// Store is the claim repository contract.
//
// Insert and Transition acquire the member-code lock atomically: both return
// sentinel.ErrConflict when another claim already holds the code as pending or
// approved. There is no separate check call to race against.
type Store interface {
	// Insert persists a new pending claim, acquiring the lock on its code.
	Insert(ctx context.Context, claim *models.Claim) error
	// Transition writes the claim's current state, guarded on the state the
	// caller read (expectFrom). Returns sentinel.ErrNotFound if the claim is
	// gone, sentinel.ErrInvalidState if its status moved underneath the
	// caller, sentinel.ErrConflict if moving to pending would double-claim
	// the member code.
	Transition(ctx context.Context, claim *models.Claim, expectFrom models.ClaimStatus) error
	// FindByID loads one claim.
	FindByID(ctx context.Context, claimID id.ClaimID) (*models.Claim, error)
	// Delete removes a claim, releasing its lock if held.
	Delete(ctx context.Context, claimID id.ClaimID) error
	// ListByAccount returns one page of an account's claims, newest first.
	// Pages are 1-based.
	ListByAccount(ctx context.Context, accountID id.AccountID, filters models.ListFilters, page int) ([]*models.Claim, error)
	// StatusByCode returns the status of the most recent claim (by updated_at)
	// for a member code, or sentinel.ErrNotFound when no claim exists.
	StatusByCode(ctx context.Context, code id.MemberCode) (models.ClaimStatus, error)
	// NonSelectableCodes maps every currently locked member code to the status
	// holding the lock.
	NonSelectableCodes(ctx context.Context) (map[id.MemberCode]models.ClaimStatus, error)
}
