package services

import (
	"context"
	"errors"
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
	"fuel-pricing/pkg/utils"
)

type UserServiceInterface interface {
	GetUsers(ctx context.Context, filter types.Filter) ([]dto.UserDTO, uint64, error)
	FindUser(ctx context.Context, id uint64) (*dto.UserDTO, error)
	CreateUser(ctx context.Context, payload dto.CreateUserDTO) (*dto.UserDTO, error)
	UpdateUser(ctx context.Context, id uint64, payload dto.UpdateUserDTO) (*dto.UserDTO, error)
	DeleteUser(ctx context.Context, id uint64) error
	ChangePassword(ctx context.Context, payload dto.ChangePasswordDTO) error
}

type UserService struct {
	*BaseService
	txManager      repositories.TxManagerInterface
	userRepository repositories.UserRepositoryInterface
	roleRepository repositories.RoleRepositoryInterface
	tokenService   TokenServiceInterface
	logger         *zap.Logger
}

func NewUserService(
	base *BaseService,
	txManager repositories.TxManagerInterface,
	userRepository repositories.UserRepositoryInterface,
	roleRepository repositories.RoleRepositoryInterface,
	tokenService TokenServiceInterface,
	logger *zap.Logger,
) UserServiceInterface {
	return &UserService{
		BaseService:    base,
		txManager:      txManager,
		userRepository: userRepository,
		roleRepository: roleRepository,
		tokenService:   tokenService,
		logger:         logger,
	}
}

func (s *UserService) GetUsers(ctx context.Context, filter types.Filter) ([]dto.UserDTO, uint64, error) {
	if _, err := s.CheckPermission(ctx, authz.UsersView); err != nil {
		return nil, 0, err
	}
	users, total, err := s.userRepository.GetUsers(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	dtos := make([]dto.UserDTO, 0, len(users))
	for i := range users {
		dtos = append(dtos, userToDTO(&users[i]))
	}
	return dtos, total, nil
}

func (s *UserService) FindUser(ctx context.Context, id uint64) (*dto.UserDTO, error) {
	actor, perms, err := s.Actor(ctx)
	if err != nil {
		return nil, err
	}
	user, err := s.userRepository.FindUserByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if actor.ID != user.ID && !authz.CanDo(authz.UsersView, authz.Context{Actor: actor, Permissions: perms, Target: user}) {
		return nil, apperrors.ErrForbidden
	}
	result := userToDTO(user)
	return &result, nil
}

func (s *UserService) ensureRole(ctx context.Context, roleID uint64) error {
	if _, err := s.roleRepository.FindByID(ctx, roleID); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return apperrors.NewInvalidInputError("role %d does not exist", roleID)
		}
		return err
	}
	return nil
}

func (s *UserService) CreateUser(ctx context.Context, payload dto.CreateUserDTO) (*dto.UserDTO, error) {
	actorID, err := s.CheckPermission(ctx, authz.UsersCreate)
	if err != nil {
		return nil, err
	}
	if err := s.ensureRole(ctx, payload.RoleID); err != nil {
		return nil, err
	}

	hashedPassword, err := utils.HashPassword(payload.Password)
	if err != nil {
		if apperrors.IsInvalidInput(err) {
			return nil, err
		}
		s.logger.Error("failed to hash password", zap.Error(err))
		return nil, apperrors.ErrInternalServer
	}

	user := &entities.User{
		Name:          strings.TrimSpace(payload.Name),
		Email:         strings.ToLower(strings.TrimSpace(payload.Email)),
		Login:         strings.ToLower(strings.TrimSpace(payload.Login)),
		Password:      hashedPassword,
		RoleID:        payload.RoleID,
		ApprovalLevel: payload.ApprovalLevel,
		StationID:     payload.StationID,
		Active:        true,
	}

	var id uint64
	err = s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		var err error
		id, err = s.userRepository.CreateUser(ctx, tx, user)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("user created", zap.Uint64("userID", id), zap.Uint64("createdBy", actorID))
	created, err := s.userRepository.FindUserByID(ctx, id)
	if err != nil {
		return nil, err
	}
	result := userToDTO(created)
	return &result, nil
}

// UpdateUser applies a partial update. A role change or deactivation ends every session
// of the user, since tokens carry the role id. station_id 0 removes the station binding.
func (s *UserService) UpdateUser(ctx context.Context, id uint64, payload dto.UpdateUserDTO) (*dto.UserDTO, error) {
	actorID, err := s.CheckPermission(ctx, authz.UsersUpdate)
	if err != nil {
		return nil, err
	}

	var endSessions bool
	err = s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		user, err := s.userRepository.FindUserByID(ctx, id)
		if err != nil {
			return err
		}
		if payload.Name.Valid {
			user.Name = strings.TrimSpace(payload.Name.String)
		}
		if payload.Email.Valid {
			user.Email = strings.ToLower(strings.TrimSpace(payload.Email.String))
		}
		if payload.RoleID.Valid && payload.RoleID.Uint64 != user.RoleID {
			if err := s.ensureRole(ctx, payload.RoleID.Uint64); err != nil {
				return err
			}
			user.RoleID = payload.RoleID.Uint64
			endSessions = true
		}
		if payload.ApprovalLevel.Valid {
			user.ApprovalLevel = int(payload.ApprovalLevel.Int64)
		}
		if payload.StationID.Valid {
			if payload.StationID.Uint64 == 0 {
				user.StationID = nil
			} else {
				stationID := payload.StationID.Uint64
				user.StationID = &stationID
			}
		}
		if payload.Active.Valid {
			if !payload.Active.Bool && user.ID == actorID {
				return apperrors.NewInvalidInputError("you cannot deactivate your own account")
			}
			if user.Active && !payload.Active.Bool {
				endSessions = true
			}
			user.Active = payload.Active.Bool
		}
		return s.userRepository.UpdateUser(ctx, tx, user)
	})
	if err != nil {
		return nil, err
	}

	if endSessions {
		if err := s.tokenService.RevokeAll(ctx, id); err != nil {
			return nil, err
		}
	}
	s.logger.Info("user updated", zap.Uint64("userID", id), zap.Uint64("updatedBy", actorID))

	updated, err := s.userRepository.FindUserByID(ctx, id)
	if err != nil {
		return nil, err
	}
	result := userToDTO(updated)
	return &result, nil
}

// DeleteUser deactivates the account; its suggestions and history stay attributable.
func (s *UserService) DeleteUser(ctx context.Context, id uint64) error {
	actorID, err := s.CheckPermission(ctx, authz.UsersDelete)
	if err != nil {
		return err
	}
	if actorID == id {
		return apperrors.NewInvalidInputError("you cannot delete your own account")
	}
	if err := s.userRepository.DeactivateUser(ctx, id); err != nil {
		return err
	}
	if err := s.tokenService.RevokeAll(ctx, id); err != nil {
		return err
	}
	s.logger.Info("user deactivated", zap.Uint64("userID", id), zap.Uint64("deletedBy", actorID))
	return nil
}

func (s *UserService) ChangePassword(ctx context.Context, payload dto.ChangePasswordDTO) error {
	userID, err := utils.GetUserIDFromCtx(ctx)
	if err != nil {
		return apperrors.ErrUnauthorized
	}
	user, err := s.userRepository.FindUserByID(ctx, userID)
	if err != nil {
		return err
	}
	if !utils.PasswordMatches(user.Password, payload.CurrentPassword) {
		return apperrors.NewHttpError(http.StatusBadRequest, "current password is incorrect", apperrors.ErrBadRequest, nil)
	}

	hashedPassword, err := utils.HashPassword(payload.NewPassword)
	if err != nil {
		if apperrors.IsInvalidInput(err) {
			return err
		}
		return apperrors.ErrInternalServer
	}
	if err := s.userRepository.UpdatePassword(ctx, userID, hashedPassword); err != nil {
		return err
	}
	if err := s.tokenService.RevokeAll(ctx, userID); err != nil {
		return err
	}
	s.logger.Info("password changed, sessions revoked", zap.Uint64("userID", userID))
	return nil
}
