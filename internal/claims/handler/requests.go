package handler

import (
	"time"

	"wasmember/internal/audit"
	"wasmember/internal/claims/models"
	"wasmember/internal/claims/service"
)

type rejectRequest struct {
	Reason string `json:"reason"`
}

type searchResponse struct {
	Candidates []service.MemberCandidate `json:"candidates"`
}

type nonSelectableResponse struct {
	Codes map[string]string `json:"codes"`
}

type listResponse struct {
	Claims   []*models.Claim `json:"claims"`
	Page     int             `json:"page"`
	PageSize int             `json:"page_size"`
}

type decisionLogResponse struct {
	Decisions []decisionEntry `json:"decisions"`
}

type decisionEntry struct {
	ClaimID    string    `json:"claim_id"`
	AdminID    string    `json:"admin_id"`
	Action     string    `json:"action"`
	Reason     string    `json:"reason,omitempty"`
	MemberCode string    `json:"member_code"`
	Timestamp  time.Time `json:"timestamp"`
}

func newDecisionEntry(d audit.Decision) decisionEntry {
	return decisionEntry{
		ClaimID:    d.ClaimID.String(),
		AdminID:    d.AdminID.String(),
		Action:     string(d.Action),
		Reason:     d.Reason,
		MemberCode: d.MemberCode.String(),
		Timestamp:  d.Timestamp,
	}
}
