package services

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"fuel-pricing/internal/authz"
	"fuel-pricing/internal/entities"
	"fuel-pricing/internal/repositories"
	apperrors "fuel-pricing/pkg/errors"
	"fuel-pricing/pkg/utils"
)

// BaseService holds what most services need to identify the caller and to cache reads.
type BaseService struct {
	userRepo  repositories.UserRepositoryInterface
	cacheRepo repositories.CacheRepositoryInterface
	logger    *zap.Logger
}

func NewBaseService(userRepo repositories.UserRepositoryInterface, cacheRepo repositories.CacheRepositoryInterface, logger *zap.Logger) *BaseService {
	return &BaseService{userRepo: userRepo, cacheRepo: cacheRepo, logger: logger}
}

// CheckPermission verifies the caller holds permission and returns the caller id.
func (s *BaseService) CheckPermission(ctx context.Context, permission string) (uint64, error) {
	userID, err := utils.GetUserIDFromCtx(ctx)
	if err != nil {
		return 0, apperrors.ErrUnauthorized
	}
	perms, err := utils.GetPermissionsMapFromCtx(ctx)
	if err != nil {
		return userID, apperrors.ErrForbidden
	}
	if !authz.CanDo(permission, authz.Context{Permissions: perms}) {
		s.logger.Warn("access denied", zap.Uint64("userID", userID), zap.String("permission", permission))
		return userID, apperrors.ErrForbidden
	}
	return userID, nil
}

// Actor loads the caller and the permission map the auth middleware resolved.
func (s *BaseService) Actor(ctx context.Context) (*entities.User, map[string]bool, error) {
	userID, err := utils.GetUserIDFromCtx(ctx)
	if err != nil {
		return nil, nil, apperrors.ErrUnauthorized
	}
	perms, err := utils.GetPermissionsMapFromCtx(ctx)
	if err != nil {
		return nil, nil, err
	}
	user, err := s.userRepo.FindUserByID(ctx, userID)
	if err != nil {
		return nil, nil, apperrors.ErrUnauthorized
	}
	if !user.Active {
		return nil, nil, apperrors.ErrAccountInactive
	}
	return user, perms, nil
}

// CacheGet reports whether key was found and decoded into dest.
func (s *BaseService) CacheGet(ctx context.Context, key string, dest interface{}) bool {
	cached, err := s.cacheRepo.Get(ctx, key)
	if err != nil {
		return false
	}
	if err := json.Unmarshal([]byte(cached), dest); err != nil {
		s.logger.Warn("corrupted cache entry", zap.String("key", key), zap.Error(err))
		return false
	}
	return true
}

func (s *BaseService) CacheSet(ctx context.Context, key string, data interface{}, ttl time.Duration) {
	serialized, err := json.Marshal(data)
	if err != nil {
		s.logger.Error("failed to encode cache entry", zap.String("key", key), zap.Error(err))
		return
	}
	if err := s.cacheRepo.Set(ctx, key, serialized, ttl); err != nil {
		s.logger.Warn("failed to write cache entry", zap.String("key", key), zap.Error(err))
	}
}
