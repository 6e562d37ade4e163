package session

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quicker-admin/errs"
)

func TestIssueAndParse(t *testing.T) {
	m := NewManager("secret", time.Hour)
	now := time.Now()

	token, expires, err := m.Issue(7, "admin", now)
	require.NoError(t, err)
	assert.WithinDuration(t, now.Add(time.Hour), expires, time.Second)

	id, err := m.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, uint(7), id.AdminID)
	assert.Equal(t, "admin", id.Username)
	assert.NotEmpty(t, id.TokenID)
}

func TestParseRejects(t *testing.T) {
	m := NewManager("secret", time.Hour)
	now := time.Now()

	t.Run("WrongSecret", func(t *testing.T) {
		token, _, err := NewManager("other", time.Hour).Issue(1, "admin", now)
		require.NoError(t, err)
		_, err = m.Parse(token)
		assert.True(t, errs.Is(err, errs.KindUnauthorized))
	})

	t.Run("Expired", func(t *testing.T) {
		token, _, err := m.Issue(1, "admin", now.Add(-2*time.Hour))
		require.NoError(t, err)
		_, err = m.Parse(token)
		assert.True(t, errs.Is(err, errs.KindUnauthorized))
	})

	t.Run("NoneAlgorithm", func(t *testing.T) {
		token, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{
			Subject:   "1",
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		}).SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)
		_, err = m.Parse(token)
		assert.Error(t, err)
	})

	t.Run("Garbage", func(t *testing.T) {
		_, err := m.Parse("not-a-token")
		assert.Error(t, err)
	})
}

func TestRevoke(t *testing.T) {
	m := NewManager("secret", time.Hour)
	token, _, err := m.Issue(1, "admin", time.Now())
	require.NoError(t, err)
	id, err := m.Parse(token)
	require.NoError(t, err)

	m.Revoke(id)

	_, err = m.Parse(token)
	assert.EqualError(t, err, "session has been logged out")

	other, _, err := m.Issue(1, "admin", time.Now())
	require.NoError(t, err)
	_, err = m.Parse(other)
	assert.NoError(t, err)
}

func TestRevokeAll(t *testing.T) {
	m := NewManager("secret", time.Hour)
	now := time.Now()
	first, _, err := m.Issue(1, "admin", now)
	require.NoError(t, err)
	second, _, err := m.Issue(1, "admin", now)
	require.NoError(t, err)
	otherAdmin, _, err := m.Issue(2, "auditor", now)
	require.NoError(t, err)

	m.RevokeAll(1)

	for _, token := range []string{first, second} {
		_, err = m.Parse(token)
		assert.EqualError(t, err, "session ended by a password change")
		assert.True(t, errs.Is(err, errs.KindUnauthorized))
	}
	_, err = m.Parse(otherAdmin)
	assert.NoError(t, err)

	// A login in the same second as the change still gets a working token.
	fresh, _, err := m.Issue(1, "admin", now)
	require.NoError(t, err)
	id, err := m.Parse(fresh)
	require.NoError(t, err)
	assert.Equal(t, uint(1), id.AdminID)
}
