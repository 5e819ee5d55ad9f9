// Package postgres implements the audit store with a transactional outbox.
// Decisions land in claim_audit (the queryable log) and in the outbox table;
// the outbox worker publishes committed rows to Kafka for downstream
// consumers. The database is the source of truth, Kafka is a feed.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"wasmember/internal/audit"
	id "wasmember/pkg/domain"
	txcontext "wasmember/pkg/platform/tx"
)

// Store implements audit.Store on PostgreSQL.
type Store struct {
	db *sql.DB
}

// New creates a PostgreSQL audit store.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *Store) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

// outboxPayload is the JSON structure published to Kafka. Field names match
// the consumer-side contract.
type outboxPayload struct {
	ID         string `json:"id"`
	ClaimID    string `json:"claim_id"`
	AdminID    string `json:"admin_id"`
	Action     string `json:"action"`
	Reason     string `json:"reason,omitempty"`
	MemberCode string `json:"member_code"`
	Timestamp  string `json:"timestamp"`
}

// Append writes the decision to claim_audit and queues it on the outbox.
// Both inserts join the caller's transaction when one is carried in ctx, so
// a failed audit write rolls back the decision it describes.
func (s *Store) Append(ctx context.Context, decision audit.Decision) error {
	entryID := uuid.New()

	_, err := s.execer(ctx).ExecContext(ctx, `
		INSERT INTO claim_audit (id, claim_id, admin_id, action, reason, member_code, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`,
		entryID,
		uuid.UUID(decision.ClaimID),
		uuid.UUID(decision.AdminID),
		string(decision.Action),
		decision.Reason,
		decision.MemberCode.String(),
		decision.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}

	payload, err := json.Marshal(outboxPayload{
		ID:         entryID.String(),
		ClaimID:    decision.ClaimID.String(),
		AdminID:    decision.AdminID.String(),
		Action:     string(decision.Action),
		Reason:     decision.Reason,
		MemberCode: decision.MemberCode.String(),
		Timestamp:  decision.Timestamp.Format(time.RFC3339Nano),
	})
	if err != nil {
		return fmt.Errorf("marshal outbox payload: %w", err)
	}

	_, err = s.execer(ctx).ExecContext(ctx, `
		INSERT INTO outbox (id, aggregate_type, aggregate_id, event_type, payload, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`,
		uuid.New(),
		"claim",
		decision.ClaimID.String(),
		"claim."+string(decision.Action),
		payload,
		decision.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("insert outbox entry: %w", err)
	}
	return nil
}

// ListByClaim returns the audit trail of one claim, oldest first.
func (s *Store) ListByClaim(ctx context.Context, claimID id.ClaimID) ([]audit.Decision, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT claim_id, admin_id, action, reason, member_code, created_at
		FROM claim_audit
		WHERE claim_id = $1
		ORDER BY created_at ASC
	`, uuid.UUID(claimID))
	if err != nil {
		return nil, fmt.Errorf("query audit entries: %w", err)
	}
	defer rows.Close()

	var decisions []audit.Decision
	for rows.Next() {
		var (
			d       audit.Decision
			claim   uuid.UUID
			admin   uuid.UUID
			action  string
			code    string
		)
		if err := rows.Scan(&claim, &admin, &action, &d.Reason, &code, &d.Timestamp); err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		d.ClaimID = id.ClaimID(claim)
		d.AdminID = id.AdminID(admin)
		d.Action = audit.Action(action)
		d.MemberCode = id.MemberCode(code)
		decisions = append(decisions, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit entries: %w", err)
	}
	return decisions, nil
}
