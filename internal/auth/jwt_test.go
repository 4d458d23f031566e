package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignVerify_roundtrip(t *testing.T) {
	svc := NewJWTService("test-secret", time.Hour)
	p := Principal{ID: uuid.New(), Email: "admin@example.com", IsAdmin: true}

	token, err := svc.Sign(p)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	got, err := svc.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, p, got)
}

func TestVerify_preservesAdminFlag(t *testing.T) {
	svc := NewJWTService("test-secret", time.Hour)

	token, err := svc.Sign(Principal{ID: uuid.New(), Email: "viewer@example.com"})
	require.NoError(t, err)

	got, err := svc.Verify(token)
	require.NoError(t, err)
	assert.False(t, got.IsAdmin)
}

func TestVerify_wrongSecret(t *testing.T) {
	token, err := NewJWTService("secret-a", time.Hour).Sign(Principal{ID: uuid.New()})
	require.NoError(t, err)

	_, err = NewJWTService("secret-b", time.Hour).Verify(token)
	assert.Error(t, err)
}

func TestVerify_expiredToken(t *testing.T) {
	secret := "test-secret"
	claims := &Claims{
		UserID:  uuid.New(),
		IsAdmin: true,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(time.Now().Add(-2 * time.Hour)),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)

	_, err = NewJWTService(secret, time.Hour).Verify(token)
	assert.Error(t, err)
}

func TestVerify_garbage(t *testing.T) {
	svc := NewJWTService("test-secret", time.Hour)
	_, err := svc.Verify("not.a.token")
	assert.Error(t, err)
}
