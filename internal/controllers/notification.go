package controllers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"fuel-pricing/internal/dto"
	"fuel-pricing/internal/services"
	"fuel-pricing/pkg/utils"
)

type NotificationController struct {
	notificationService services.NotificationServiceInterface
	logger              *zap.Logger
}

func NewNotificationController(notificationService services.NotificationServiceInterface, logger *zap.Logger) *NotificationController {
	return &NotificationController{notificationService: notificationService, logger: logger}
}

func (c *NotificationController) GetNotifications(ctx echo.Context) error {
	filter := utils.ParseFilterFromQuery(ctx.Request().URL.Query())
	res, total, err := c.notificationService.List(ctx.Request().Context(), filter)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, res, "notifications", http.StatusOK, total)
}

func (c *NotificationController) UnreadCount(ctx echo.Context) error {
	count, err := c.notificationService.UnreadCount(ctx.Request().Context())
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, dto.UnreadCountDTO{Count: count}, "unread notifications", http.StatusOK)
}

func (c *NotificationController) MarkRead(ctx echo.Context) error {
	id, err := utils.ParseIDParam(ctx, "id")
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	if err := c.notificationService.MarkRead(ctx.Request().Context(), id); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, nil, "notification read", http.StatusOK)
}

func (c *NotificationController) MarkAllRead(ctx echo.Context) error {
	n, err := c.notificationService.MarkAllRead(ctx.Request().Context())
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, dto.UnreadCountDTO{Count: n}, "notifications read", http.StatusOK)
}

func (c *NotificationController) RegisterPush(ctx echo.Context) error {
	var payload dto.RegisterPushDTO
	if err := bindAndValidate(ctx, &payload); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	if err := c.notificationService.RegisterPush(ctx.Request().Context(), payload, ctx.Request().UserAgent()); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, nil, "push token registered", http.StatusOK)
}

func (c *NotificationController) UnregisterPush(ctx echo.Context) error {
	var payload dto.UnregisterPushDTO
	if err := bindAndValidate(ctx, &payload); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	if err := c.notificationService.UnregisterPush(ctx.Request().Context(), payload); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, nil, "push token removed", http.StatusOK)
}
