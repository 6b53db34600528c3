package services

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"fuel-pricing/internal/dto"
	"fuel-pricing/internal/entities"
	"fuel-pricing/internal/repositories"
	"fuel-pricing/pkg/config"
	"fuel-pricing/pkg/constants"
	apperrors "fuel-pricing/pkg/errors"
	"fuel-pricing/pkg/service"
	"fuel-pricing/pkg/utils"
)

type AuthServiceInterface interface {
	Login(ctx context.Context, payload dto.LoginDTO) (*dto.AuthResponseDTO, error)
	Refresh(ctx context.Context, refreshToken string) (*dto.AuthResponseDTO, error)
	Logout(ctx context.Context, refreshToken string) error
	Me(ctx context.Context) (*dto.AuthResponseDTO, error)
	GetUserByID(ctx context.Context, userID uint64) (*entities.User, error)
}

type AuthService struct {
	userRepo          repositories.UserRepositoryInterface
	cacheRepo         repositories.CacheRepositoryInterface
	tokenService      TokenServiceInterface
	permissionService AuthPermissionServiceInterface
	jwtService        service.JWTService
	logger            *zap.Logger
	cfg               *config.AuthConfig
}

func NewAuthService(
	userRepo repositories.UserRepositoryInterface,
	cacheRepo repositories.CacheRepositoryInterface,
	tokenService TokenServiceInterface,
	permissionService AuthPermissionServiceInterface,
	jwtService service.JWTService,
	logger *zap.Logger,
	cfg *config.AuthConfig,
) AuthServiceInterface {
	return &AuthService{
		userRepo:          userRepo,
		cacheRepo:         cacheRepo,
		tokenService:      tokenService,
		permissionService: permissionService,
		jwtService:        jwtService,
		logger:            logger,
		cfg:               cfg,
	}
}

func (s *AuthService) Login(ctx context.Context, payload dto.LoginDTO) (*dto.AuthResponseDTO, error) {
	user, err := s.userRepo.FindUserByEmailOrLogin(ctx, payload.Login)
	if err != nil {
		if !errors.Is(err, apperrors.ErrInvalidCredentials) {
			s.logger.Error("login lookup failed", zap.Error(err))
		}
		return nil, apperrors.ErrInvalidCredentials
	}
	if err := s.checkLockout(ctx, user.ID); err != nil {
		s.logger.Warn("login attempt on locked account", zap.Uint64("userID", user.ID))
		return nil, err
	}
	if !utils.PasswordMatches(user.Password, payload.Password) {
		s.handleFailedLoginAttempt(ctx, user.ID)
		return nil, apperrors.ErrInvalidCredentials
	}
	if !user.Active {
		return nil, apperrors.ErrAccountInactive
	}
	s.resetLoginAttempts(ctx, user.ID)

	pair, err := s.tokenService.Issue(ctx, user.ID, user.RoleID, "")
	if err != nil {
		return nil, err
	}
	s.logger.Info("user logged in", zap.Uint64("userID", user.ID))
	return s.buildResponse(ctx, user, pair)
}

// Refresh rotates the refresh token: the presented one becomes unusable and a new pair
// in the same family is issued.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*dto.AuthResponseDTO, error) {
	if refreshToken == "" {
		return nil, apperrors.ErrUnauthorized
	}
	claims, err := s.tokenService.ConsumeRefresh(ctx, refreshToken)
	if err != nil {
		return nil, err
	}

	user, err := s.userRepo.FindUserByID(ctx, claims.UserID)
	if err != nil {
		return nil, apperrors.ErrUnauthorized
	}
	if !user.Active {
		return nil, apperrors.ErrAccountInactive
	}

	pair, err := s.tokenService.Issue(ctx, user.ID, user.RoleID, claims.FamilyID)
	if err != nil {
		return nil, err
	}
	return s.buildResponse(ctx, user, pair)
}

// Logout revokes the access token of the current request and, when given, the refresh token.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	userID, err := utils.GetUserIDFromCtx(ctx)
	if err != nil {
		return apperrors.ErrUnauthorized
	}
	if err := s.tokenService.RevokeJTI(ctx, utils.GetTokenIDFromCtx(ctx), s.jwtService.GetAccessTokenTTL()); err != nil {
		return err
	}
	if refreshToken != "" {
		if err := s.tokenService.Revoke(ctx, userID, refreshToken); err != nil && !errors.Is(err, apperrors.ErrInvalidToken) {
			return err
		}
	}
	s.logger.Info("user logged out", zap.Uint64("userID", userID))
	return nil
}

func (s *AuthService) Me(ctx context.Context) (*dto.AuthResponseDTO, error) {
	userID, err := utils.GetUserIDFromCtx(ctx)
	if err != nil {
		return nil, apperrors.ErrUnauthorized
	}
	user, err := s.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.buildResponse(ctx, user, nil)
}

func (s *AuthService) GetUserByID(ctx context.Context, userID uint64) (*entities.User, error) {
	user, err := s.userRepo.FindUserByID(ctx, userID)
	if err != nil {
		s.logger.Warn("GetUserByID: user not found", zap.Uint64("userID", userID), zap.Error(err))
		return nil, apperrors.ErrUserNotFound
	}
	return user, nil
}

func (s *AuthService) buildResponse(ctx context.Context, user *entities.User, pair *service.TokenPair) (*dto.AuthResponseDTO, error) {
	permissions, err := s.permissionService.GetRolePermissionsNames(ctx, user.RoleID)
	if err != nil {
		return nil, err
	}
	resp := &dto.AuthResponseDTO{
		User:        userToDTO(user),
		Permissions: permissions,
	}
	if pair != nil {
		resp.AccessToken = pair.AccessToken
		resp.RefreshToken = pair.RefreshToken
		resp.AccessExpiresAt = pair.AccessExpiresAt
		resp.RefreshExpiresAt = pair.RefreshExpiresAt
	}
	return resp, nil
}

func (s *AuthService) checkLockout(ctx context.Context, userID uint64) error {
	lockoutKey := fmt.Sprintf(constants.CacheKeyLockout, userID)
	if _, err := s.cacheRepo.Get(ctx, lockoutKey); err == nil {
		return apperrors.ErrAccountLocked
	}
	return nil
}

func (s *AuthService) handleFailedLoginAttempt(ctx context.Context, userID uint64) {
	attemptsKey := fmt.Sprintf(constants.CacheKeyLoginAttempts, userID)
	attempts, err := s.cacheRepo.Incr(ctx, attemptsKey)
	if err != nil {
		s.logger.Error("failed to count login attempt", zap.Uint64("userID", userID), zap.Error(err))
		return
	}
	if attempts == 1 {
		if _, err := s.cacheRepo.Expire(ctx, attemptsKey, s.cfg.LockoutDuration); err != nil {
			s.logger.Error("failed to set login attempt window", zap.Uint64("userID", userID), zap.Error(err))
		}
	}
	if attempts < int64(s.cfg.MaxLoginAttempts) {
		return
	}

	lockoutKey := fmt.Sprintf(constants.CacheKeyLockout, userID)
	if err := s.cacheRepo.Set(ctx, lockoutKey, "locked", s.cfg.LockoutDuration); err != nil {
		// the counter stays, so the next failure tries again
		s.logger.Error("failed to lock account", zap.Uint64("userID", userID), zap.Int64("attempts", attempts), zap.Error(err))
		return
	}
	if err := s.cacheRepo.Del(ctx, attemptsKey); err != nil {
		s.logger.Warn("failed to clear login attempts", zap.Uint64("userID", userID), zap.Error(err))
	}
	s.logger.Warn("account locked after failed logins", zap.Uint64("userID", userID), zap.Int64("attempts", attempts))
}

func (s *AuthService) resetLoginAttempts(ctx context.Context, userID uint64) {
	attemptsKey := fmt.Sprintf(constants.CacheKeyLoginAttempts, userID)
	lockoutKey := fmt.Sprintf(constants.CacheKeyLockout, userID)
	if err := s.cacheRepo.Del(ctx, attemptsKey, lockoutKey); err != nil {
		s.logger.Warn("failed to reset login attempts", zap.Uint64("userID", userID), zap.Error(err))
	}
}
