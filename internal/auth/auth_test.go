package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSigningKey = []byte("test-signing-key")

func TestVerify(t *testing.T) {
	a := NewAuthenticator(testSigningKey, time.Hour)

	t.Run("valid token", func(t *testing.T) {
		token, err := a.IssueToken(Principal{Id: 1, Username: "testuser", Role: "member"})
		require.NoError(t, err, "expected no error issuing token")

		p, err := a.Verify(token)
		assert.NoError(t, err, "expected no error verifying token")
		assert.Equal(t, 1, p.Id, "expected principal id to match")
		assert.Equal(t, "testuser", p.Username, "expected principal username to match")
		assert.Equal(t, "member", p.Role, "expected principal role to match")
	})

	t.Run("missing token", func(t *testing.T) {
		_, err := a.Verify("")
		assert.ErrorIs(t, err, ErrMissingCredential, "expected missing credential error")
	})

	t.Run("expired token", func(t *testing.T) {
		expired := NewAuthenticator(testSigningKey, -time.Hour)
		token, err := expired.IssueToken(Principal{Id: 1, Username: "testuser", Role: "member"})
		require.NoError(t, err, "expected no error issuing token")

		_, err = a.Verify(token)
		assert.ErrorIs(t, err, ErrExpiredOrInvalid, "expected expired or invalid error")
	})

	t.Run("wrong signing key", func(t *testing.T) {
		other := NewAuthenticator([]byte("other-signing-key"), time.Hour)
		token, err := other.IssueToken(Principal{Id: 1, Username: "testuser", Role: "member"})
		require.NoError(t, err, "expected no error issuing token")

		_, err = a.Verify(token)
		assert.ErrorIs(t, err, ErrExpiredOrInvalid, "expected expired or invalid error")
	})

	t.Run("malformed token", func(t *testing.T) {
		_, err := a.Verify("not-a-token")
		assert.ErrorIs(t, err, ErrExpiredOrInvalid, "expected expired or invalid error")
	})

	t.Run("missing claims", func(t *testing.T) {
		token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
			"exp": time.Now().Add(time.Hour).Unix(),
		})
		signed, err := token.SignedString(testSigningKey)
		require.NoError(t, err, "expected no error signing token")

		_, err = a.Verify(signed)
		assert.ErrorIs(t, err, ErrExpiredOrInvalid, "expected expired or invalid error")
	})

	t.Run("unexpected signing method", func(t *testing.T) {
		token := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
			"id":       1,
			"username": "testuser",
			"role":     "member",
			"exp":      time.Now().Add(time.Hour).Unix(),
		})
		signed, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err, "expected no error signing token")

		_, err = a.Verify(signed)
		assert.ErrorIs(t, err, ErrExpiredOrInvalid, "expected expired or invalid error")
	})
}

func TestIsAdmin(t *testing.T) {
	assert.True(t, Principal{Role: "admin"}.IsAdmin(), "expected admin role to be admin")
	assert.False(t, Principal{Role: "member"}.IsAdmin(), "expected member role to not be admin")
}
