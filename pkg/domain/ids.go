// Package domain defines typed identifiers shared across the portal.
//
// IDs are distinct uuid-backed types so the compiler rejects cross-type
// assignment (an AccountID can never be passed where a ClaimID is expected).
package domain

import (
	"strings"

	"github.com/google/uuid"

	dErrors "wasmember/pkg/domain-errors"
)

// AccountID identifies a portal account (the owner of claims).
type AccountID uuid.UUID

// ClaimID identifies a single membership claim.
type ClaimID uuid.UUID

// AdminID identifies a federation administrator acting on claims.
type AdminID uuid.UUID

func (id AccountID) String() string { return uuid.UUID(id).String() }
func (id ClaimID) String() string   { return uuid.UUID(id).String() }
func (id AdminID) String() string   { return uuid.UUID(id).String() }

func (id AccountID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id ClaimID) IsNil() bool   { return uuid.UUID(id) == uuid.Nil }
func (id AdminID) IsNil() bool   { return uuid.UUID(id) == uuid.Nil }

// ParseAccountID parses a string into an AccountID, rejecting empty and nil UUIDs.
func ParseAccountID(s string) (AccountID, error) {
	u, err := parseUUID(s, "account id")
	return AccountID(u), err
}

// ParseClaimID parses a string into a ClaimID, rejecting empty and nil UUIDs.
func ParseClaimID(s string) (ClaimID, error) {
	u, err := parseUUID(s, "claim id")
	return ClaimID(u), err
}

// ParseAdminID parses a string into an AdminID, rejecting empty and nil UUIDs.
func ParseAdminID(s string) (AdminID, error) {
	u, err := parseUUID(s, "admin id")
	return AdminID(u), err
}

func parseUUID(s, label string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeValidation, label+" is required")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeValidation, label+" is not a valid UUID")
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeValidation, label+" must not be the nil UUID")
	}
	return u, nil
}

// MemberCode is the normalized identifier of a legacy membership record.
// It is the uniqueness key of the claim workflow.
type MemberCode string

// NormalizeMemberCode trims surrounding whitespace. Codes are compared exactly
// after normalization; casing is preserved as issued by the legacy registry.
func NormalizeMemberCode(s string) MemberCode {
	return MemberCode(strings.TrimSpace(s))
}

func (c MemberCode) String() string { return string(c) }

// IsZero reports whether the code is empty after normalization.
func (c MemberCode) IsZero() bool { return c == "" }
