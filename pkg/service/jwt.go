package service

import (
	"errors"
	"strconv"
	"time"

	apperrors "fuel-pricing/pkg/errors"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

type JwtCustomClaim struct {
	UserID    uint64 `json:"user_id"`
	RoleID    uint64 `json:"role_id"`
	TokenType string `json:"token_type"`
	// FamilyID links every refresh token produced by rotation from one login.
	FamilyID string `json:"family_id,omitempty"`
	// IssuedAtNano is iat at nanosecond precision; iat itself is whole seconds.
	IssuedAtNano int64 `json:"iat_ns,omitempty"`
	jwt.RegisteredClaims
}

// IssuedUnixNano falls back to iat for tokens without iat_ns, and is 0 without either.
func (c *JwtCustomClaim) IssuedUnixNano() int64 {
	if c.IssuedAtNano != 0 {
		return c.IssuedAtNano
	}
	if c.IssuedAt != nil {
		return c.IssuedAt.UnixNano()
	}
	return 0
}

func (c *JwtCustomClaim) IsRefreshToken() bool { return c.TokenType == TokenTypeRefresh }

// Remaining is the lifetime left at now, never negative.
func (c *JwtCustomClaim) Remaining(now time.Time) time.Duration {
	if c.ExpiresAt == nil {
		return 0
	}
	if d := c.ExpiresAt.Time.Sub(now); d > 0 {
		return d
	}
	return 0
}

type TokenPair struct {
	AccessToken      string    `json:"access_token"`
	RefreshToken     string    `json:"refresh_token"`
	AccessJTI        string    `json:"-"`
	RefreshJTI       string    `json:"-"`
	FamilyID         string    `json:"-"`
	AccessExpiresAt  time.Time `json:"access_expires_at"`
	RefreshExpiresAt time.Time `json:"refresh_expires_at"`
}

type JWTService interface {
	// GenerateTokens issues an access/refresh pair. An empty familyID starts a new family.
	GenerateTokens(userID, roleID uint64, familyID string) (*TokenPair, error)
	ValidateToken(tokenString string) (*JwtCustomClaim, error)
	GetAccessTokenTTL() time.Duration
	GetRefreshTokenTTL() time.Duration
}

type jwtService struct {
	secretKey       []byte
	accessTokenExp  time.Duration
	refreshTokenExp time.Duration
	now             func() time.Time
}

func NewJWTService(secretKey string, accessTokenExp, refreshTokenExp time.Duration) JWTService {
	return &jwtService{
		secretKey:       []byte(secretKey),
		accessTokenExp:  accessTokenExp,
		refreshTokenExp: refreshTokenExp,
		now:             time.Now,
	}
}

func (s *jwtService) GenerateTokens(userID, roleID uint64, familyID string) (*TokenPair, error) {
	now := s.now()
	if familyID == "" {
		familyID = uuid.NewString()
	}

	pair := &TokenPair{
		AccessJTI:        uuid.NewString(),
		RefreshJTI:       uuid.NewString(),
		FamilyID:         familyID,
		AccessExpiresAt:  now.Add(s.accessTokenExp),
		RefreshExpiresAt: now.Add(s.refreshTokenExp),
	}

	var err error
	pair.AccessToken, err = s.sign(&JwtCustomClaim{
		UserID:           userID,
		RoleID:           roleID,
		TokenType:        TokenTypeAccess,
		IssuedAtNano:     now.UnixNano(),
		RegisteredClaims: s.registered(pair.AccessJTI, userID, now, pair.AccessExpiresAt),
	})
	if err != nil {
		return nil, err
	}

	pair.RefreshToken, err = s.sign(&JwtCustomClaim{
		UserID:           userID,
		RoleID:           roleID,
		TokenType:        TokenTypeRefresh,
		FamilyID:         familyID,
		IssuedAtNano:     now.UnixNano(),
		RegisteredClaims: s.registered(pair.RefreshJTI, userID, now, pair.RefreshExpiresAt),
	})
	if err != nil {
		return nil, err
	}

	return pair, nil
}

func (s *jwtService) registered(jti string, userID uint64, now, exp time.Time) jwt.RegisteredClaims {
	return jwt.RegisteredClaims{
		ID:        jti,
		Subject:   strconv.FormatUint(userID, 10),
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(exp),
	}
}

func (s *jwtService) sign(claims *JwtCustomClaim) (string, error) {
	return jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString(s.secretKey)
}

func (s *jwtService) GetAccessTokenTTL() time.Duration  { return s.accessTokenExp }
func (s *jwtService) GetRefreshTokenTTL() time.Duration { return s.refreshTokenExp }

func (s *jwtService) ValidateToken(tokenString string) (*JwtCustomClaim, error) {
	token, err := jwt.ParseWithClaims(tokenString, &JwtCustomClaim{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, apperrors.ErrInvalidSigningMethod
		}
		return s.secretKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS512.Alg()}), jwt.WithTimeFunc(s.now))

	switch {
	case err == nil:
	case errors.Is(err, jwt.ErrTokenExpired):
		return nil, apperrors.ErrTokenExpired
	case errors.Is(err, jwt.ErrTokenNotValidYet), errors.Is(err, jwt.ErrTokenUsedBeforeIssued):
		return nil, apperrors.ErrTokenNotYetValid
	default:
		return nil, apperrors.ErrInvalidToken
	}

	claims, ok := token.Claims.(*JwtCustomClaim)
	if !ok || !token.Valid || claims.ID == "" || claims.UserID == 0 {
		return nil, apperrors.ErrInvalidToken
	}
	if claims.TokenType != TokenTypeAccess && claims.TokenType != TokenTypeRefresh {
		return nil, apperrors.ErrInvalidToken
	}

	return claims, nil
}

