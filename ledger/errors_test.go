package ledger_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/warp/envelope-ledger/ledger"
)

func TestStatusOf(t *testing.T) {
	cases := []struct {
		err  error
		want ledger.Status
	}{
		{nil, ledger.StatusSuccess},
		{ledger.BadRequest("x"), ledger.StatusBadRequest},
		{ledger.NotFound("x"), ledger.StatusNotFound},
		{ledger.Gone("x"), ledger.StatusGone},
		{ledger.Forbidden("x"), ledger.StatusForbidden},
		{ledger.Conflict("x"), ledger.StatusConflict},
		{errors.New("disk on fire"), ledger.StatusInternalError},
		{fmt.Errorf("wrapped: %w", ledger.Gone("x")), ledger.StatusGone},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, ledger.StatusOf(tc.err), "%v", tc.err)
	}
}

func TestErrorsIsMatchesSentinel(t *testing.T) {
	err := ledger.Conflict("account %s must be hidden", "a1")
	assert.ErrorIs(t, err, ledger.ErrConflict)
	assert.NotErrorIs(t, err, ledger.ErrNotFound)
	assert.Equal(t, "account a1 must be hidden", ledger.MessageOf(err))
	assert.Equal(t, "conflict: account a1 must be hidden", err.Error())
}

func TestInternal(t *testing.T) {
	// GIVEN: A raw store fault
	// WHEN: Wrapping it
	// THEN: It is InternalError and still exposes the cause

	cause := errors.New("database is locked")
	err := ledger.Internal(cause)
	assert.Equal(t, ledger.StatusInternalError, ledger.StatusOf(err))
	assert.ErrorIs(t, err, ledger.ErrInternal)
	assert.ErrorIs(t, err, cause)

	assert.NoError(t, ledger.Internal(nil))

	classified := ledger.NotFound("missing")
	assert.Same(t, classified, ledger.Internal(classified))
}
