package service

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/padepokan-dev/silat-admin-api/internal/models"
	appErrors "github.com/padepokan-dev/silat-admin-api/pkg/errors"
)

func signToken(t *testing.T, secret string, method jwt.SigningMethod, claims models.JWTClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(method, claims)
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func TestValidateTokenSuccess(t *testing.T) {
	svc := NewAuthService(AuthConfig{Secret: "test-secret"}, nil)
	signed := signToken(t, "test-secret", jwt.SigningMethodHS256, models.JWTClaims{
		UserID: "u-1",
		Role:   models.RoleKetua,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})

	claims, err := svc.ValidateToken(signed)

	require.NoError(t, err)
	assert.Equal(t, "u-1", claims.UserID)
	assert.Equal(t, models.RoleKetua, claims.Role)
}

func TestValidateTokenRejectsWrongSecret(t *testing.T) {
	svc := NewAuthService(AuthConfig{Secret: "test-secret"}, nil)
	signed := signToken(t, "other-secret", jwt.SigningMethodHS256, models.JWTClaims{UserID: "u-1"})

	_, err := svc.ValidateToken(signed)

	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}

func TestValidateTokenRejectsExpired(t *testing.T) {
	svc := NewAuthService(AuthConfig{Secret: "test-secret"}, nil)
	signed := signToken(t, "test-secret", jwt.SigningMethodHS256, models.JWTClaims{
		UserID: "u-1",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		},
	})

	_, err := svc.ValidateToken(signed)

	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}

func TestValidateTokenRejectsGarbage(t *testing.T) {
	svc := NewAuthService(AuthConfig{Secret: "test-secret"}, nil)

	_, err := svc.ValidateToken("not-a-token")

	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}
