// Package notify dispatches decision notifications to claim owners. Delivery
// is advisory: the claim's committed state is authoritative, and a failed
// notification is logged and counted, never compensated.
package notify

import (
	"context"
	"log/slog"

	id "wasmember/pkg/domain"
)

// Outcome mirrors the decision taken on a claim.
type Outcome string

const (
	OutcomeApproved Outcome = "approved"
	OutcomeRejected Outcome = "rejected"
)

// Notification describes one decision for the owning account.
type Notification struct {
	ClaimID    id.ClaimID
	AccountID  id.AccountID
	MemberCode id.MemberCode
	Outcome    Outcome
	// Reason accompanies rejections so the owner knows what to fix.
	Reason string
}

// Notifier delivers a notification. Implementations must be safe for
// concurrent use; delivery errors are the caller's to log, not to retry
// against committed state.
type Notifier interface {
	NotifyDecision(ctx context.Context, n Notification) error
}

// LogNotifier writes notifications to the log. It stands in for the email
// gateway in development and tests.
type LogNotifier struct {
	Logger *slog.Logger
}

func (l *LogNotifier) NotifyDecision(ctx context.Context, n Notification) error {
	l.Logger.InfoContext(ctx, "claim decision notification",
		"claim_id", n.ClaimID.String(),
		"account_id", n.AccountID.String(),
		"member_code", n.MemberCode.String(),
		"outcome", string(n.Outcome),
		"reason", n.Reason,
	)
	return nil
}
