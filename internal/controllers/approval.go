package controllers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"fuel-pricing/internal/dto"
	"fuel-pricing/internal/services"
	"fuel-pricing/pkg/utils"
)

type ApprovalController struct {
	approvalService services.ApprovalServiceInterface
	logger          *zap.Logger
}

func NewApprovalController(approvalService services.ApprovalServiceInterface, logger *zap.Logger) *ApprovalController {
	return &ApprovalController{approvalService: approvalService, logger: logger}
}

func (c *ApprovalController) GetPending(ctx echo.Context) error {
	filter := utils.ParseFilterFromQuery(ctx.Request().URL.Query())
	res, total, err := c.approvalService.GetPending(ctx.Request().Context(), filter)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, res, "pending approvals", http.StatusOK, total)
}

func (c *ApprovalController) Approve(ctx echo.Context) error {
	id, err := utils.ParseIDParam(ctx, "id")
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	var payload dto.ApproveDTO
	if err := bindAndValidate(ctx, &payload); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	res, err := c.approvalService.Approve(ctx.Request().Context(), id, payload)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, res, "approved", http.StatusOK)
}

func (c *ApprovalController) Reject(ctx echo.Context) error {
	id, err := utils.ParseIDParam(ctx, "id")
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	var payload dto.RejectDTO
	if err := bindAndValidate(ctx, &payload); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	res, err := c.approvalService.Reject(ctx.Request().Context(), id, payload)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, res, "rejected", http.StatusOK)
}

func (c *ApprovalController) Withdraw(ctx echo.Context) error {
	id, err := utils.ParseIDParam(ctx, "id")
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	var payload dto.WithdrawDTO
	if err := bindAndValidate(ctx, &payload); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	res, err := c.approvalService.Withdraw(ctx.Request().Context(), id, payload)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, res, "withdrawn", http.StatusOK)
}

// BatchDecide answers 200 even when some ids fail; each result carries its own outcome.
func (c *ApprovalController) BatchDecide(ctx echo.Context) error {
	var payload dto.BatchDecisionDTO
	if err := bindAndValidate(ctx, &payload); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	res, err := c.approvalService.BatchDecide(ctx.Request().Context(), payload)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, res, "batch processed", http.StatusOK)
}
