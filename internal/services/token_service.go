package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"fuel-pricing/internal/dto"
	"fuel-pricing/internal/repositories"
	"fuel-pricing/pkg/constants"
	apperrors "fuel-pricing/pkg/errors"
	"fuel-pricing/pkg/service"
)

// TokenServiceInterface owns the lifecycle of issued JWTs: revocation, one-time refresh
// rotation with reuse detection, and per-user revoke-all.
type TokenServiceInterface interface {
	Issue(ctx context.Context, userID, roleID uint64, familyID string) (*service.TokenPair, error)
	EnsureNotRevoked(ctx context.Context, claims *service.JwtCustomClaim) error
	ConsumeRefresh(ctx context.Context, refreshToken string) (*service.JwtCustomClaim, error)
	Revoke(ctx context.Context, callerID uint64, token string) error
	RevokeJTI(ctx context.Context, jti string, ttl time.Duration) error
	RevokeAll(ctx context.Context, userID uint64) error
	Validate(ctx context.Context, token string) dto.SessionDTO
}

type TokenService struct {
	jwtService service.JWTService
	cacheRepo  repositories.CacheRepositoryInterface
	logger     *zap.Logger
	now        func() time.Time
}

func NewTokenService(jwtService service.JWTService, cacheRepo repositories.CacheRepositoryInterface, logger *zap.Logger) *TokenService {
	return &TokenService{
		jwtService: jwtService,
		cacheRepo:  cacheRepo,
		logger:     logger,
		now:        time.Now,
	}
}

func (s *TokenService) Issue(ctx context.Context, userID, roleID uint64, familyID string) (*service.TokenPair, error) {
	pair, err := s.jwtService.GenerateTokens(userID, roleID, familyID)
	if err != nil {
		s.logger.Error("failed to sign tokens", zap.Uint64("userID", userID), zap.Error(err))
		return nil, apperrors.ErrInternalServer
	}
	return pair, nil
}

// EnsureNotRevoked checks the jti deny list, the token family and the user's not-before mark.
func (s *TokenService) EnsureNotRevoked(ctx context.Context, claims *service.JwtCustomClaim) error {
	revoked, err := s.cacheRepo.Exists(ctx, fmt.Sprintf(constants.CacheKeyRevokedToken, claims.ID))
	if err != nil {
		s.logger.Error("revocation lookup failed", zap.String("jti", claims.ID), zap.Error(err))
		return apperrors.ErrInternalServer
	}
	if revoked {
		return apperrors.ErrTokenRevoked
	}

	if claims.FamilyID != "" {
		familyRevoked, err := s.cacheRepo.Exists(ctx, fmt.Sprintf(constants.CacheKeyTokenFamily, claims.FamilyID))
		if err != nil {
			return apperrors.ErrInternalServer
		}
		if familyRevoked {
			return apperrors.ErrTokenRevoked
		}
	}

	notBefore, err := s.cacheRepo.Get(ctx, fmt.Sprintf(constants.CacheKeyUserNotBefore, claims.UserID))
	switch {
	case errors.Is(err, repositories.ErrCacheMiss):
		return nil
	case err != nil:
		return apperrors.ErrInternalServer
	}
	cutoff, err := strconv.ParseInt(notBefore, 10, 64)
	if err != nil {
		s.logger.Warn("corrupted not-before mark", zap.Uint64("userID", claims.UserID), zap.String("value", notBefore))
		return nil
	}
	if claims.IssuedUnixNano() < cutoff {
		return apperrors.ErrTokenRevoked
	}
	return nil
}

// ConsumeRefresh validates a refresh token and marks its jti as used. A second use of the
// same token revokes its whole family.
func (s *TokenService) ConsumeRefresh(ctx context.Context, refreshToken string) (*service.JwtCustomClaim, error) {
	claims, err := s.jwtService.ValidateToken(refreshToken)
	if err != nil {
		return nil, err
	}
	if !claims.IsRefreshToken() {
		return nil, apperrors.ErrTokenIsNotRefresh
	}
	if err := s.EnsureNotRevoked(ctx, claims); err != nil {
		if errors.Is(err, apperrors.ErrTokenRevoked) {
			s.revokeFamily(ctx, claims)
		}
		return nil, err
	}

	ttl := claims.Remaining(s.now())
	if ttl <= 0 {
		return nil, apperrors.ErrTokenExpired
	}
	first, err := s.cacheRepo.SetNX(ctx, fmt.Sprintf(constants.CacheKeyRevokedToken, claims.ID), "rotated", ttl)
	if err != nil {
		s.logger.Error("failed to mark refresh token used", zap.String("jti", claims.ID), zap.Error(err))
		return nil, apperrors.ErrInternalServer
	}
	if !first {
		s.revokeFamily(ctx, claims)
		return nil, apperrors.ErrTokenRevoked
	}
	return claims, nil
}

func (s *TokenService) revokeFamily(ctx context.Context, claims *service.JwtCustomClaim) {
	if claims.FamilyID == "" {
		return
	}
	s.logger.Warn("refresh token reuse detected, revoking family",
		zap.Uint64("userID", claims.UserID),
		zap.String("familyID", claims.FamilyID),
		zap.String("jti", claims.ID),
	)
	key := fmt.Sprintf(constants.CacheKeyTokenFamily, claims.FamilyID)
	if err := s.cacheRepo.Set(ctx, key, "revoked", s.jwtService.GetRefreshTokenTTL()); err != nil {
		s.logger.Error("failed to revoke token family", zap.String("familyID", claims.FamilyID), zap.Error(err))
	}
}

// Revoke puts a single token on the deny list. Users may revoke only their own tokens.
func (s *TokenService) Revoke(ctx context.Context, callerID uint64, token string) error {
	claims, err := s.jwtService.ValidateToken(token)
	if err != nil {
		if errors.Is(err, apperrors.ErrTokenExpired) {
			return nil
		}
		return err
	}
	if claims.UserID != callerID {
		return apperrors.ErrForbidden
	}
	return s.RevokeJTI(ctx, claims.ID, claims.Remaining(s.now()))
}

func (s *TokenService) RevokeJTI(ctx context.Context, jti string, ttl time.Duration) error {
	if jti == "" || ttl <= 0 {
		return nil
	}
	if err := s.cacheRepo.Set(ctx, fmt.Sprintf(constants.CacheKeyRevokedToken, jti), "revoked", ttl); err != nil {
		s.logger.Error("failed to revoke token", zap.String("jti", jti), zap.Error(err))
		return apperrors.ErrInternalServer
	}
	return nil
}

// RevokeAll invalidates every token of userID issued before now. Tokens
// issued from now on, such as the login that follows a password change,
// stay valid.
func (s *TokenService) RevokeAll(ctx context.Context, userID uint64) error {
	key := fmt.Sprintf(constants.CacheKeyUserNotBefore, userID)
	cutoff := strconv.FormatInt(s.now().UnixNano(), 10)
	if err := s.cacheRepo.Set(ctx, key, cutoff, s.jwtService.GetRefreshTokenTTL()); err != nil {
		s.logger.Error("failed to revoke user sessions", zap.Uint64("userID", userID), zap.Error(err))
		return apperrors.ErrInternalServer
	}
	s.logger.Info("all sessions revoked", zap.Uint64("userID", userID))
	return nil
}

// Validate never fails; an unusable token yields Valid=false with the reason.
func (s *TokenService) Validate(ctx context.Context, token string) dto.SessionDTO {
	claims, err := s.jwtService.ValidateToken(token)
	if err != nil {
		return dto.SessionDTO{Valid: false, Reason: err.Error()}
	}
	if err := s.EnsureNotRevoked(ctx, claims); err != nil {
		return dto.SessionDTO{Valid: false, Reason: err.Error()}
	}

	session := dto.SessionDTO{
		Valid:     true,
		UserID:    claims.UserID,
		RoleID:    claims.RoleID,
		TokenType: claims.TokenType,
		TokenID:   claims.ID,
	}
	if claims.IssuedAt != nil {
		iat := claims.IssuedAt.Time
		session.IssuedAt = &iat
	}
	if claims.ExpiresAt != nil {
		exp := claims.ExpiresAt.Time
		session.ExpiresAt = &exp
	}
	return session
}
