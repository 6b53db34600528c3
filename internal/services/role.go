package services

import (
	"context"
	"net/http"
	"strings"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"fuel-pricing/internal/authz"
	"fuel-pricing/internal/dto"
	"fuel-pricing/internal/entities"
	"fuel-pricing/internal/repositories"
	apperrors "fuel-pricing/pkg/errors"
	"fuel-pricing/pkg/types"
)

type RoleServiceInterface interface {
	GetRoles(ctx context.Context, filter types.Filter) ([]dto.RoleDTO, uint64, error)
	FindRole(ctx context.Context, id uint64) (*dto.RoleDTO, error)
	CreateRole(ctx context.Context, payload dto.CreateRoleDTO) (*dto.RoleDTO, error)
	UpdateRole(ctx context.Context, id uint64, payload dto.UpdateRoleDTO) (*dto.RoleDTO, error)
	DeleteRole(ctx context.Context, id uint64) error
	ListPermissions(ctx context.Context) ([]string, error)
}

type RoleService struct {
	*BaseService
	txManager             repositories.TxManagerInterface
	repo                  repositories.RoleRepositoryInterface
	authPermissionService AuthPermissionServiceInterface
	logger                *zap.Logger
}

func NewRoleService(
	base *BaseService,
	txManager repositories.TxManagerInterface,
	repo repositories.RoleRepositoryInterface,
	authPermissionService AuthPermissionServiceInterface,
	logger *zap.Logger,
) RoleServiceInterface {
	return &RoleService{
		BaseService:           base,
		txManager:             txManager,
		repo:                  repo,
		authPermissionService: authPermissionService,
		logger:                logger,
	}
}

func validatePermissions(permissions []string) ([]string, error) {
	seen := make(map[string]struct{}, len(permissions))
	out := make([]string, 0, len(permissions))
	for _, p := range permissions {
		p = strings.TrimSpace(p)
		if !authz.IsKnownPermission(p) {
			return nil, apperrors.NewInvalidInputError("unknown permission %q", p)
		}
		if _, dup := seen[p]; dup {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return out, nil
}

func (s *RoleService) GetRoles(ctx context.Context, filter types.Filter) ([]dto.RoleDTO, uint64, error) {
	if _, err := s.CheckPermission(ctx, authz.RolesManage); err != nil {
		return nil, 0, err
	}
	roles, total, err := s.repo.GetRoles(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	dtos := make([]dto.RoleDTO, 0, len(roles))
	for i := range roles {
		dtos = append(dtos, roleToDTO(&roles[i]))
	}
	return dtos, total, nil
}

func (s *RoleService) FindRole(ctx context.Context, id uint64) (*dto.RoleDTO, error) {
	if _, err := s.CheckPermission(ctx, authz.RolesManage); err != nil {
		return nil, err
	}
	role, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	result := roleToDTO(role)
	return &result, nil
}

func (s *RoleService) CreateRole(ctx context.Context, payload dto.CreateRoleDTO) (*dto.RoleDTO, error) {
	actorID, err := s.CheckPermission(ctx, authz.RolesManage)
	if err != nil {
		return nil, err
	}
	permissions, err := validatePermissions(payload.Permissions)
	if err != nil {
		return nil, err
	}

	role := &entities.Role{Name: strings.TrimSpace(payload.Name), Description: payload.Description}
	var id uint64
	err = s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		var err error
		if id, err = s.repo.CreateRole(ctx, tx, role); err != nil {
			return err
		}
		return s.repo.ReplacePermissions(ctx, tx, id, permissions)
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("role created", zap.Uint64("roleID", id), zap.Uint64("createdBy", actorID))
	return s.FindRole(ctx, id)
}

func (s *RoleService) UpdateRole(ctx context.Context, id uint64, payload dto.UpdateRoleDTO) (*dto.RoleDTO, error) {
	actorID, err := s.CheckPermission(ctx, authz.RolesManage)
	if err != nil {
		return nil, err
	}
	var permissions []string
	if payload.Permissions != nil {
		if permissions, err = validatePermissions(payload.Permissions); err != nil {
			return nil, err
		}
	}

	err = s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		role, err := s.repo.FindByID(ctx, id)
		if err != nil {
			return err
		}
		if payload.Name.Valid {
			role.Name = strings.TrimSpace(payload.Name.String)
		}
		if payload.Description.Valid {
			desc := payload.Description.String
			role.Description = &desc
		}
		if err := s.repo.UpdateRole(ctx, tx, role); err != nil {
			return err
		}
		if payload.Permissions != nil {
			return s.repo.ReplacePermissions(ctx, tx, id, permissions)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if payload.Permissions != nil {
		if err := s.authPermissionService.InvalidateRolePermissionsCache(ctx, id); err != nil {
			s.logger.Warn("role updated but permission cache not invalidated", zap.Uint64("roleID", id), zap.Error(err))
		}
	}
	s.logger.Info("role updated", zap.Uint64("roleID", id), zap.Uint64("updatedBy", actorID))
	return s.FindRole(ctx, id)
}

func (s *RoleService) DeleteRole(ctx context.Context, id uint64) error {
	actorID, err := s.CheckPermission(ctx, authz.RolesManage)
	if err != nil {
		return err
	}
	inUse, err := s.repo.CountUsers(ctx, id)
	if err != nil {
		return err
	}
	if inUse > 0 {
		return apperrors.NewHttpError(http.StatusConflict, "role is assigned to users", apperrors.ErrConflict,
			map[string]interface{}{"roleID": id, "users": inUse})
	}
	if err := s.repo.DeleteRole(ctx, id); err != nil {
		return err
	}
	_ = s.authPermissionService.InvalidateRolePermissionsCache(ctx, id)
	s.logger.Info("role deleted", zap.Uint64("roleID", id), zap.Uint64("deletedBy", actorID))
	return nil
}

// ListPermissions returns every permission name a role can be granted.
func (s *RoleService) ListPermissions(ctx context.Context) ([]string, error) {
	if _, err := s.CheckPermission(ctx, authz.RolesManage); err != nil {
		return nil, err
	}
	return append([]string(nil), authz.AllPermissions...), nil
}
