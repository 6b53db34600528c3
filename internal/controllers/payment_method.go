package controllers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"fuel-pricing/internal/dto"
	"fuel-pricing/internal/services"
	"fuel-pricing/pkg/utils"
)

type PaymentMethodController struct {
	paymentMethodService services.PaymentMethodServiceInterface
	logger               *zap.Logger
}

func NewPaymentMethodController(paymentMethodService services.PaymentMethodServiceInterface, logger *zap.Logger) *PaymentMethodController {
	return &PaymentMethodController{paymentMethodService: paymentMethodService, logger: logger}
}

func (c *PaymentMethodController) GetPaymentMethods(ctx echo.Context) error {
	filter := utils.ParseFilterFromQuery(ctx.Request().URL.Query())
	res, total, err := c.paymentMethodService.GetPaymentMethods(ctx.Request().Context(), filter)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, res, "payment methods", http.StatusOK, total)
}

func (c *PaymentMethodController) FindPaymentMethod(ctx echo.Context) error {
	id, err := utils.ParseIDParam(ctx, "id")
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	res, err := c.paymentMethodService.FindPaymentMethod(ctx.Request().Context(), id)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, res, "payment method", http.StatusOK)
}

func (c *PaymentMethodController) CreatePaymentMethod(ctx echo.Context) error {
	var payload dto.CreatePaymentMethodDTO
	if err := bindAndValidate(ctx, &payload); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	res, err := c.paymentMethodService.CreatePaymentMethod(ctx.Request().Context(), payload)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, res, "payment method created", http.StatusCreated)
}

func (c *PaymentMethodController) UpdatePaymentMethod(ctx echo.Context) error {
	id, err := utils.ParseIDParam(ctx, "id")
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	var payload dto.UpdatePaymentMethodDTO
	if err := bindAndValidate(ctx, &payload); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	res, err := c.paymentMethodService.UpdatePaymentMethod(ctx.Request().Context(), id, payload)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, res, "payment method updated", http.StatusOK)
}

func (c *PaymentMethodController) DeletePaymentMethod(ctx echo.Context) error {
	id, err := utils.ParseIDParam(ctx, "id")
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	if err := c.paymentMethodService.DeletePaymentMethod(ctx.Request().Context(), id); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, nil, "payment method deleted", http.StatusOK)
}
