package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseBetSide(t *testing.T) {
	side, err := ParseBetSide("yes")
	require.NoError(t, err)
	assert.Equal(t, BetSideYes, side)

	side, err = ParseBetSide("no")
	require.NoError(t, err)
	assert.Equal(t, BetSideNo, side)

	for _, raw := range []string{"", "YES", "Yes", "maybe", " no"} {
		_, err := ParseBetSide(raw)
		assert.ErrorIs(t, err, ErrInvalidInput, "raw side %q", raw)
	}
}

func TestRejectReason(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{ErrNotFound, "not_found"},
		{ErrInvalidInput, "invalid_input"},
		{ErrDestinationMismatch, "destination_mismatch"},
		{ErrUnverifiableTransfer, "unverifiable_transfer"},
		{ErrDuplicateProof, "duplicate_proof"},
		{ErrStorage, "storage_error"},
		{errors.New("something else"), "internal"},
		{nil, "internal"},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, RejectReason(tc.err))
	}
}

// Wrapped and joined errors keep their taxonomy name.
func TestRejectReasonWrapped(t *testing.T) {
	wrapped := fmt.Errorf("betting: append bet: %w", errors.Join(ErrStorage, errors.New("connection reset")))
	assert.Equal(t, "storage_error", RejectReason(wrapped))

	assert.Equal(t, "duplicate_proof", RejectReason(fmt.Errorf("outer: %w", ErrDuplicateProof)))
}
