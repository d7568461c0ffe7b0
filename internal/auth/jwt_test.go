package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTM() *TokenManager {
	return NewTokenManager("payments-core", "access-secret", "refresh-secret", time.Minute, time.Hour)
}

func TestGeneratePair_RoundTrip(t *testing.T) {
	tm := newTM()
	access, refresh, exp, err := tm.GeneratePair("user-1", RoleUser)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Minute), exp, 5*time.Second)

	c, err := tm.ParseAccess(access)
	require.NoError(t, err)
	assert.Equal(t, "user-1", c.UserID)
	assert.Equal(t, RoleUser, c.Role)

	c, err = tm.ParseRefresh(refresh)
	require.NoError(t, err)
	assert.Equal(t, "user-1", c.UserID)
}

func TestParse_RejectsWrongKind(t *testing.T) {
	tm := newTM()
	access, refresh, _, err := tm.GeneratePair("user-1", RoleUser)
	require.NoError(t, err)

	_, err = tm.ParseAccess(refresh)
	assert.ErrorIs(t, err, ErrInvalidToken)
	_, err = tm.ParseRefresh(access)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParse_RejectsForeignIssuerAndExpiry(t *testing.T) {
	tm := newTM()
	access, _, _, err := tm.GeneratePair("user-1", RoleUser)
	require.NoError(t, err)

	other := NewTokenManager("someone-else", "access-secret", "refresh-secret", time.Minute, time.Hour)
	_, err = other.ParseAccess(access)
	assert.ErrorIs(t, err, ErrInvalidToken)

	tm.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	_, err = tm.ParseAccess(access)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = newTM().ParseAccess("not-a-jwt")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
