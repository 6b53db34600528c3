package service

import (
	"strings"
	"testing"
	"time"

	apperrors "fuel-pricing/pkg/errors"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndValidate(t *testing.T) {
	svc := NewJWTService("secret", time.Minute, time.Hour)

	pair, err := svc.GenerateTokens(7, 2, "")
	require.NoError(t, err)
	require.NotEmpty(t, pair.FamilyID)
	assert.NotEqual(t, pair.AccessJTI, pair.RefreshJTI)

	access, err := svc.ValidateToken(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, uint64(7), access.UserID)
	assert.Equal(t, uint64(2), access.RoleID)
	assert.Equal(t, pair.AccessJTI, access.ID)
	assert.False(t, access.IsRefreshToken())
	assert.Empty(t, access.FamilyID)

	refresh, err := svc.ValidateToken(pair.RefreshToken)
	require.NoError(t, err)
	assert.True(t, refresh.IsRefreshToken())
	assert.Equal(t, pair.FamilyID, refresh.FamilyID)

	next, err := svc.GenerateTokens(7, 2, pair.FamilyID)
	require.NoError(t, err)
	assert.Equal(t, pair.FamilyID, next.FamilyID)
}

func TestValidateRejectsTampering(t *testing.T) {
	svc := NewJWTService("secret", time.Minute, time.Hour)
	other := NewJWTService("other-secret", time.Minute, time.Hour)

	pair, err := other.GenerateTokens(1, 1, "")
	require.NoError(t, err)
	_, err = svc.ValidateToken(pair.AccessToken)
	assert.ErrorIs(t, err, apperrors.ErrInvalidToken)

	_, err = svc.ValidateToken("not-a-token")
	assert.ErrorIs(t, err, apperrors.ErrInvalidToken)

	pair, err = svc.GenerateTokens(1, 1, "")
	require.NoError(t, err)
	parts := strings.Split(pair.AccessToken, ".")
	parts[1] = parts[1] + "x"
	_, err = svc.ValidateToken(strings.Join(parts, "."))
	assert.Error(t, err)
}

func TestValidateRejectsOtherAlgorithms(t *testing.T) {
	svc := NewJWTService("secret", time.Minute, time.Hour)
	claims := &JwtCustomClaim{
		UserID:    1,
		TokenType: TokenTypeAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        "jti",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
	require.NoError(t, err)

	_, err = svc.ValidateToken(token)
	assert.ErrorIs(t, err, apperrors.ErrInvalidToken)
}

func TestValidateExpired(t *testing.T) {
	svc := NewJWTService("secret", time.Minute, time.Hour).(*jwtService)
	issued := time.Now().Add(-2 * time.Hour)
	svc.now = func() time.Time { return issued }

	pair, err := svc.GenerateTokens(1, 1, "")
	require.NoError(t, err)

	svc.now = time.Now
	_, err = svc.ValidateToken(pair.AccessToken)
	assert.ErrorIs(t, err, apperrors.ErrTokenExpired)

	claims := &JwtCustomClaim{RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Second))}}
	assert.Zero(t, claims.Remaining(time.Now()))
}

func TestIssuedAtKeepsNanoseconds(t *testing.T) {
	svc := NewJWTService("secret", time.Minute, time.Hour).(*jwtService)
	issued := time.Date(2026, 5, 4, 10, 0, 0, 123456789, time.UTC)
	svc.now = func() time.Time { return issued }

	pair, err := svc.GenerateTokens(1, 1, "")
	require.NoError(t, err)
	claims, err := svc.ValidateToken(pair.AccessToken)
	require.NoError(t, err)

	assert.Equal(t, issued.Unix(), claims.IssuedAt.Unix())
	assert.Equal(t, issued.UnixNano(), claims.IssuedUnixNano())

	claims.IssuedAtNano = 0
	assert.Equal(t, issued.Truncate(time.Second).UnixNano(), claims.IssuedUnixNano())
}
