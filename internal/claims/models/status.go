package models

// ClaimStatus is the review state of a claim. The legacy portal encoded these
// as 0/1/2; the tagged enumeration keeps the same three-state semantics.
type ClaimStatus string

const (
	// StatusPending: submitted, awaiting an administrator's decision. Holds the
	// uniqueness lock on the claim's member code.
	StatusPending ClaimStatus = "pending"
	// StatusApproved: terminal. The lock on the member code is permanent.
	StatusApproved ClaimStatus = "approved"
	// StatusRejected: the owner may edit and resubmit, or delete. Does not hold
	// the lock; the code is claimable again immediately.
	StatusRejected ClaimStatus = "rejected"
)

// IsValid reports whether s is one of the three known states.
func (s ClaimStatus) IsValid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected:
		return true
	}
	return false
}

// HoldsLock reports whether a claim in this state makes its member code
// non-selectable for everyone.
func (s ClaimStatus) HoldsLock() bool {
	return s == StatusPending || s == StatusApproved
}

// CanTransitionTo encodes the lifecycle table:
//
//	pending  -> approved | rejected
//	rejected -> pending   (resubmission, same claim identity)
//	approved -> (terminal)
//
// pending -> pending is deliberately absent: resubmitting a still-pending
// claim is a state conflict, not a no-op.
func (s ClaimStatus) CanTransitionTo(target ClaimStatus) bool {
	switch s {
	case StatusPending:
		return target == StatusApproved || target == StatusRejected
	case StatusRejected:
		return target == StatusPending
	default:
		return false
	}
}
