package security

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueAndParse(t *testing.T) {
	issuedAt := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	issuer := NewTokenIssuer("secret", "blockon.house", 7*24*time.Hour).
		WithClock(func() time.Time { return issuedAt })

	token, expiresAt, err := issuer.Issue(SessionClaims{
		AccountID:  "acc-1",
		Admin:      true,
		EthAddress: "0xabc",
		IsJunggae:  true,
	})
	require.NoError(t, err)
	assert.Equal(t, issuedAt.Add(7*24*time.Hour), expiresAt)

	claims, err := issuer.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, "acc-1", claims.AccountID)
	assert.True(t, claims.Admin)
	assert.True(t, claims.IsJunggae)
	assert.Equal(t, "0xabc", claims.EthAddress)
	assert.Equal(t, "blockon.house", claims.Issuer)
	assert.Equal(t, SessionSubject, claims.Subject)
	assert.Equal(t, 7*24*time.Hour, claims.ExpiresAt.Sub(claims.IssuedAt.Time))
}

func TestParseRejects(t *testing.T) {
	now := time.Now()
	issuer := NewTokenIssuer("secret", "blockon.house", time.Hour).WithClock(func() time.Time { return now })
	token, _, err := issuer.Issue(SessionClaims{AccountID: "acc-1"})
	require.NoError(t, err)

	t.Run("wrong secret", func(t *testing.T) {
		other := NewTokenIssuer("other", "blockon.house", time.Hour)
		_, err := other.Parse(token)
		assert.ErrorIs(t, err, jwt.ErrTokenSignatureInvalid)
	})

	t.Run("wrong issuer", func(t *testing.T) {
		other := NewTokenIssuer("secret", "boomable.io", time.Hour)
		_, err := other.Parse(token)
		assert.ErrorIs(t, err, jwt.ErrTokenInvalidIssuer)
	})

	t.Run("expired", func(t *testing.T) {
		later := NewTokenIssuer("secret", "blockon.house", time.Hour).
			WithClock(func() time.Time { return now.Add(2 * time.Hour) })
		_, err := later.Parse(token)
		assert.ErrorIs(t, err, jwt.ErrTokenExpired)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := issuer.Parse("not.a.token")
		assert.Error(t, err)
	})

	t.Run("unsigned", func(t *testing.T) {
		unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, SessionClaims{AccountID: "acc-1"}).
			SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)
		_, err = issuer.Parse(unsigned)
		assert.Error(t, err)
	})
}

func TestIssueWithoutSecret(t *testing.T) {
	_, _, err := NewTokenIssuer("", "blockon.house", time.Hour).Issue(SessionClaims{})
	assert.ErrorIs(t, err, ErrEmptySecret)
}
