// Package audit records administrator decisions on claims. The log is
// append-only and written in the same transaction as the decision itself:
// a decision without its audit entry never commits.
package audit

import (
	"context"
	"time"

	id "wasmember/pkg/domain"
)

// Action is the administrative action being recorded.
type Action string

const (
	ActionApprove Action = "approve"
	ActionReject  Action = "reject"
)

// Decision is one append-only audit entry for an admin decision.
type Decision struct {
	ClaimID    id.ClaimID
	AdminID    id.AdminID
	Action     Action
	Reason     string
	MemberCode id.MemberCode
	Timestamp  time.Time
}

// Store persists audit decisions.
type Store interface {
	Append(ctx context.Context, decision Decision) error
	ListByClaim(ctx context.Context, claimID id.ClaimID) ([]Decision, error)
}

// Publisher is the service-facing entry point for emitting decisions.
type Publisher struct {
	store Store
}

func NewPublisher(store Store) *Publisher {
	return &Publisher{store: store}
}

// Emit appends a decision, defaulting the timestamp when the caller left it zero.
func (p *Publisher) Emit(ctx context.Context, decision Decision) error {
	if decision.Timestamp.IsZero() {
		decision.Timestamp = time.Now()
	}
	return p.store.Append(ctx, decision)
}

// List returns the decisions recorded for one claim, oldest first.
func (p *Publisher) List(ctx context.Context, claimID id.ClaimID) ([]Decision, error) {
	return p.store.ListByClaim(ctx, claimID)
}
