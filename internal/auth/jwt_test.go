package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

func signed(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	s, err := tok.SignedString([]byte(secret))
	require.NoError(t, err)
	return s
}

func TestValidate(t *testing.T) {
	v := NewJWTValidator("test-secret")

	tok := signed(t, "test-secret", jwt.MapClaims{
		"sub": "user-1",
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	sub, err := v.Validate(tok)
	require.NoError(t, err)
	require.Equal(t, "user-1", sub)
}

func TestValidateUserIDClaim(t *testing.T) {
	v := NewJWTValidator("test-secret")

	tok := signed(t, "test-secret", jwt.MapClaims{
		"user_id": "user-2",
		"exp":     time.Now().Add(time.Hour).Unix(),
	})
	sub, err := v.Validate(tok)
	require.NoError(t, err)
	require.Equal(t, "user-2", sub)
}

func TestValidateRejects(t *testing.T) {
	v := NewJWTValidator("test-secret")

	wrongKey := signed(t, "other-secret", jwt.MapClaims{"sub": "user-1"})
	_, err := v.Validate(wrongKey)
	require.ErrorIs(t, err, ErrInvalidToken)

	expired := signed(t, "test-secret", jwt.MapClaims{
		"sub": "user-1",
		"exp": time.Now().Add(-time.Hour).Unix(),
	})
	_, err = v.Validate(expired)
	require.ErrorIs(t, err, ErrInvalidToken)

	noSubject := signed(t, "test-secret", jwt.MapClaims{"exp": time.Now().Add(time.Hour).Unix()})
	_, err = v.Validate(noSubject)
	require.ErrorIs(t, err, ErrInvalidToken)

	_, err = v.Validate("garbage")
	require.ErrorIs(t, err, ErrInvalidToken)
}
