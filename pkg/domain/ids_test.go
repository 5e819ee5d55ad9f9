package domain

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	dErrors "wasmember/pkg/domain-errors"
)

func TestParseIDs(t *testing.T) {
	raw := uuid.New()

	accountID, err := ParseAccountID(raw.String())
	require.NoError(t, err)
	require.Equal(t, raw.String(), accountID.String())

	for _, input := range []string{"", "not-a-uuid", uuid.Nil.String()} {
		_, err := ParseAccountID(input)
		require.True(t, dErrors.HasCode(err, dErrors.CodeValidation), "input %q", input)
		_, err = ParseClaimID(input)
		require.True(t, dErrors.HasCode(err, dErrors.CodeValidation), "input %q", input)
		_, err = ParseAdminID(input)
		require.True(t, dErrors.HasCode(err, dErrors.CodeValidation), "input %q", input)
	}
}

func TestIsNil(t *testing.T) {
	require.True(t, AccountID{}.IsNil())
	require.False(t, AccountID(uuid.New()).IsNil())
}

func TestNormalizeMemberCode(t *testing.T) {
	require.Equal(t, MemberCode("WM-001"), NormalizeMemberCode("  WM-001  "))
	require.Equal(t, MemberCode("wm-001"), NormalizeMemberCode("wm-001"), "casing is preserved")
	require.True(t, NormalizeMemberCode("   ").IsZero())
}
