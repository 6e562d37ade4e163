package errs

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindMapping(t *testing.T) {
	cases := []struct {
		err    error
		kind   Kind
		status int
	}{
		{Validation("name is required"), KindValidation, 400},
		{NotFound("member %d not found", 3), KindNotFound, 404},
		{Unauthorized("bad key"), KindUnauthorized, 401},
		{Forbidden("not yours"), KindForbidden, 403},
		{Conflict("taken"), KindConflict, 409},
		{Locked("locked"), KindLocked, 423},
		{Internal("boom", errors.New("disk")), KindInternal, 500},
		{errors.New("plain"), KindInternal, 500},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.kind, KindOf(tc.err), tc.err.Error())
		assert.Equal(t, tc.status, HTTPStatus(tc.err), tc.err.Error())
	}
}

func TestWrappedErrorsKeepKind(t *testing.T) {
	err := fmt.Errorf("register: %w", Conflict("phone already registered"))
	assert.True(t, Is(err, KindConflict))
	assert.Equal(t, "phone already registered", Message(err))
}

func TestInternalHidesCause(t *testing.T) {
	cause := errors.New("no such table")
	err := Internal("failed to list members", cause)
	assert.Equal(t, "failed to list members", Message(err))
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "internal server error", Message(errors.New("raw")))
}
