package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"fuel-pricing/internal/repositories"
	"fuel-pricing/pkg/constants"
	apperrors "fuel-pricing/pkg/errors"
)

type AuthPermissionServiceInterface interface {
	GetRolePermissionsNames(ctx context.Context, roleID uint64) ([]string, error)
	GetRolePermissionsMap(ctx context.Context, roleID uint64) (map[string]bool, error)
	InvalidateRolePermissionsCache(ctx context.Context, roleID uint64) error
}

type AuthPermissionService struct {
	roleRepo  repositories.RoleRepositoryInterface
	cacheRepo repositories.CacheRepositoryInterface
	logger    *zap.Logger
	cacheTTL  time.Duration
}

func NewAuthPermissionService(
	roleRepo repositories.RoleRepositoryInterface,
	cacheRepo repositories.CacheRepositoryInterface,
	logger *zap.Logger,
	cacheTTL time.Duration,
) AuthPermissionServiceInterface {
	return &AuthPermissionService{
		roleRepo:  roleRepo,
		cacheRepo: cacheRepo,
		logger:    logger,
		cacheTTL:  cacheTTL,
	}
}

func (s *AuthPermissionService) GetRolePermissionsNames(ctx context.Context, roleID uint64) ([]string, error) {
	cacheKey := fmt.Sprintf(constants.CacheKeyRolePermissions, roleID)
	var permissions []string

	cached, errGet := s.cacheRepo.Get(ctx, cacheKey)
	if errGet == nil {
		if err := json.Unmarshal([]byte(cached), &permissions); err == nil {
			return permissions, nil
		} else {
			s.logger.Warn("corrupted role permissions in cache", zap.Error(err), zap.String("key", cacheKey))
		}
	}

	permissions, errDB := s.roleRepo.GetPermissionNames(ctx, roleID)
	if errDB != nil {
		s.logger.Error("failed to load role permissions", zap.Uint64("roleID", roleID), zap.Error(errDB))
		return nil, apperrors.ErrInternalServer
	}

	if len(permissions) > 0 {
		payload, errMarshal := json.Marshal(permissions)
		if errMarshal == nil {
			if errSet := s.cacheRepo.Set(ctx, cacheKey, string(payload), s.cacheTTL); errSet != nil {
				s.logger.Warn("failed to cache role permissions", zap.Uint64("roleID", roleID), zap.Error(errSet))
			}
		}
	}
	return permissions, nil
}

func (s *AuthPermissionService) GetRolePermissionsMap(ctx context.Context, roleID uint64) (map[string]bool, error) {
	names, err := s.GetRolePermissionsNames(ctx, roleID)
	if err != nil {
		return nil, err
	}
	perms := make(map[string]bool, len(names))
	for _, name := range names {
		perms[name] = true
	}
	return perms, nil
}

func (s *AuthPermissionService) InvalidateRolePermissionsCache(ctx context.Context, roleID uint64) error {
	cacheKey := fmt.Sprintf(constants.CacheKeyRolePermissions, roleID)
	if err := s.cacheRepo.Del(ctx, cacheKey); err != nil {
		s.logger.Error("failed to invalidate role permissions cache", zap.Uint64("roleID", roleID), zap.Error(err))
		return err
	}
	s.logger.Info("role permissions cache invalidated", zap.Uint64("roleID", roleID))
	return nil
}
