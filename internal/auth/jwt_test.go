package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookcourier/internal/model"
)

const testSecret = "unit-test-secret"

func TestAccessTokenRoundTrip(t *testing.T) {
	tok, err := NewAccessToken(testSecret, "alice@example.com", model.RoleLibrarian, 60)
	require.NoError(t, err)
	require.NotEmpty(t, tok.Token)
	assert.WithinDuration(t, time.Now().UTC().Add(time.Hour), tok.Exp, 5*time.Second)

	id, err := VerifyAccessToken(testSecret, tok.Token)
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", id.Email)
	assert.Equal(t, model.RoleLibrarian, id.Role)
}

func TestVerifyAccessTokenRejections(t *testing.T) {
	t.Run("wrong secret", func(t *testing.T) {
		tok, err := NewAccessToken(testSecret, "alice@example.com", model.RoleUser, 60)
		require.NoError(t, err)
		_, err = VerifyAccessToken("other-secret", tok.Token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("garbage input", func(t *testing.T) {
		for _, raw := range []string{"", "not.a.jwt", "aaaa.bbbb.cccc"} {
			_, err := VerifyAccessToken(testSecret, raw)
			assert.ErrorIs(t, err, ErrInvalidToken, raw)
		}
	})

	t.Run("expired token", func(t *testing.T) {
		claims := jwt.MapClaims{
			"sub":  "alice@example.com",
			"role": "user",
			"exp":  time.Now().UTC().Add(-time.Minute).Unix(),
			"iat":  time.Now().UTC().Add(-2 * time.Hour).Unix(),
		}
		signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
		require.NoError(t, err)
		_, err = VerifyAccessToken(testSecret, signed)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("role outside the closed set", func(t *testing.T) {
		claims := jwt.MapClaims{
			"sub":  "alice@example.com",
			"role": "superuser",
			"exp":  time.Now().UTC().Add(time.Hour).Unix(),
			"iat":  time.Now().UTC().Unix(),
		}
		signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
		require.NoError(t, err)
		_, err = VerifyAccessToken(testSecret, signed)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("missing subject", func(t *testing.T) {
		claims := jwt.MapClaims{
			"role": "user",
			"exp":  time.Now().UTC().Add(time.Hour).Unix(),
		}
		signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
		require.NoError(t, err)
		_, err = VerifyAccessToken(testSecret, signed)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("unsigned algorithm", func(t *testing.T) {
		signed, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
			"sub":  "alice@example.com",
			"role": "admin",
			"exp":  time.Now().UTC().Add(time.Hour).Unix(),
		}).SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)
		_, err = VerifyAccessToken(testSecret, signed)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}

func TestRefreshToken(t *testing.T) {
	t.Run("tokens are unique and sized", func(t *testing.T) {
		a, err := NewRefreshToken(30)
		require.NoError(t, err)
		b, err := NewRefreshToken(30)
		require.NoError(t, err)
		assert.Len(t, a.Raw, 96)
		assert.NotEqual(t, a.Raw, b.Raw)
		assert.WithinDuration(t, time.Now().UTC().Add(30*24*time.Hour), a.Exp, 5*time.Second)
	})

	t.Run("hash is stable and never the raw value", func(t *testing.T) {
		tok, err := NewRefreshToken(1)
		require.NoError(t, err)
		h1 := HashRefreshRaw(tok.Raw)
		h2 := HashRefreshRaw(tok.Raw)
		assert.Equal(t, h1, h2)
		assert.NotEqual(t, tok.Raw, h1)
		assert.Len(t, h1, 64) // hex sha-256
	})
}
