package services

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"fuel-pricing/internal/dto"
	"fuel-pricing/internal/entities"
	"fuel-pricing/internal/repositories"
	apperrors "fuel-pricing/pkg/errors"
	"fuel-pricing/pkg/types"
	"fuel-pricing/pkg/utils"
)

// NotificationServiceInterface covers the caller's own in-app notifications and push devices.
type NotificationServiceInterface interface {
	List(ctx context.Context, filter types.Filter) ([]dto.NotificationDTO, uint64, error)
	UnreadCount(ctx context.Context) (int64, error)
	MarkRead(ctx context.Context, id uint64) error
	MarkAllRead(ctx context.Context) (int64, error)
	RegisterPush(ctx context.Context, payload dto.RegisterPushDTO, userAgent string) error
	UnregisterPush(ctx context.Context, payload dto.UnregisterPushDTO) error
}

type NotificationService struct {
	notificationRepo repositories.NotificationRepositoryInterface
	pushRepo         repositories.PushSubscriptionRepositoryInterface
	logger           *zap.Logger
}

func NewNotificationService(
	notificationRepo repositories.NotificationRepositoryInterface,
	pushRepo repositories.PushSubscriptionRepositoryInterface,
	logger *zap.Logger,
) NotificationServiceInterface {
	return &NotificationService{
		notificationRepo: notificationRepo,
		pushRepo:         pushRepo,
		logger:           logger,
	}
}

func currentUserID(ctx context.Context) (uint64, error) {
	userID, err := utils.GetUserIDFromCtx(ctx)
	if err != nil {
		return 0, apperrors.ErrUnauthorized
	}
	return userID, nil
}

func (s *NotificationService) List(ctx context.Context, filter types.Filter) ([]dto.NotificationDTO, uint64, error) {
	userID, err := currentUserID(ctx)
	if err != nil {
		return nil, 0, err
	}
	items, total, err := s.notificationRepo.GetForUser(ctx, userID, filter)
	if err != nil {
		return nil, 0, err
	}
	dtos := make([]dto.NotificationDTO, 0, len(items))
	for i := range items {
		dtos = append(dtos, notificationToDTO(&items[i]))
	}
	return dtos, total, nil
}

func (s *NotificationService) UnreadCount(ctx context.Context) (int64, error) {
	userID, err := currentUserID(ctx)
	if err != nil {
		return 0, err
	}
	return s.notificationRepo.CountUnread(ctx, userID)
}

// MarkRead only touches notifications owned by the caller; others look missing.
func (s *NotificationService) MarkRead(ctx context.Context, id uint64) error {
	userID, err := currentUserID(ctx)
	if err != nil {
		return err
	}
	return s.notificationRepo.MarkRead(ctx, userID, id)
}

func (s *NotificationService) MarkAllRead(ctx context.Context) (int64, error) {
	userID, err := currentUserID(ctx)
	if err != nil {
		return 0, err
	}
	n, err := s.notificationRepo.MarkAllRead(ctx, userID)
	if err != nil {
		return 0, err
	}
	s.logger.Debug("notifications marked read", zap.Uint64("userID", userID), zap.Int64("count", n))
	return n, nil
}

func (s *NotificationService) RegisterPush(ctx context.Context, payload dto.RegisterPushDTO, userAgent string) error {
	userID, err := currentUserID(ctx)
	if err != nil {
		return err
	}
	sub := &entities.PushSubscription{
		UserID:   userID,
		Token:    strings.TrimSpace(payload.Token),
		Platform: payload.Platform,
	}
	if userAgent != "" {
		if len(userAgent) > 255 {
			userAgent = userAgent[:255]
		}
		sub.UserAgent = &userAgent
	}
	if err := s.pushRepo.Upsert(ctx, sub); err != nil {
		return err
	}
	s.logger.Info("push subscription registered", zap.Uint64("userID", userID), zap.String("platform", sub.Platform))
	return nil
}

func (s *NotificationService) UnregisterPush(ctx context.Context, payload dto.UnregisterPushDTO) error {
	userID, err := currentUserID(ctx)
	if err != nil {
		return err
	}
	return s.pushRepo.DeleteForUser(ctx, userID, strings.TrimSpace(payload.Token))
}
