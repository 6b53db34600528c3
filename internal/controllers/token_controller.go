package controllers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"fuel-pricing/internal/dto"
	"fuel-pricing/internal/services"
	"fuel-pricing/pkg/utils"
)

// TokenController serves /api/ultra-secure: session inspection, refresh rotation and revocation.
type TokenController struct {
	authService  services.AuthServiceInterface
	tokenService services.TokenServiceInterface
	logger       *zap.Logger
}

func NewTokenController(authService services.AuthServiceInterface, tokenService services.TokenServiceInterface, logger *zap.Logger) *TokenController {
	return &TokenController{authService: authService, tokenService: tokenService, logger: logger}
}

type secureSessionResponse struct {
	*dto.AuthResponseDTO
	Session dto.SessionDTO `json:"session"`
}

func (c *TokenController) Login(ctx echo.Context) error {
	var payload dto.LoginDTO
	if err := bindAndValidate(ctx, &payload); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	reqCtx := ctx.Request().Context()
	res, err := c.authService.Login(reqCtx, payload)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, secureSessionResponse{
		AuthResponseDTO: res,
		Session:         c.tokenService.Validate(reqCtx, res.AccessToken),
	}, "logged in", http.StatusOK)
}

// Validate always answers 200; the verdict is in the body.
func (c *TokenController) Validate(ctx echo.Context) error {
	var payload dto.ValidateTokenDTO
	if err := bindAndValidate(ctx, &payload); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	session := c.tokenService.Validate(ctx.Request().Context(), payload.Token)
	return utils.SuccessResponse(ctx, session, "token checked", http.StatusOK)
}

func (c *TokenController) Rotate(ctx echo.Context) error {
	var payload dto.RefreshDTO
	if err := ctx.Bind(&payload); err != nil || payload.RefreshToken == "" {
		return utils.ErrorResponse(ctx, errRefreshTokenRequired, c.logger)
	}
	reqCtx := ctx.Request().Context()
	res, err := c.authService.Refresh(reqCtx, payload.RefreshToken)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, secureSessionResponse{
		AuthResponseDTO: res,
		Session:         c.tokenService.Validate(reqCtx, res.AccessToken),
	}, "tokens rotated", http.StatusOK)
}

func (c *TokenController) Revoke(ctx echo.Context) error {
	var payload dto.RevokeDTO
	if err := bindAndValidate(ctx, &payload); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	reqCtx := ctx.Request().Context()
	userID, err := utils.GetUserIDFromCtx(reqCtx)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	if payload.All {
		err = c.tokenService.RevokeAll(reqCtx, userID)
	} else {
		err = c.tokenService.Revoke(reqCtx, userID, payload.Token)
	}
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	c.logger.Info("tokens revoked", zap.Uint64("userID", userID), zap.Bool("all", payload.All))
	return utils.SuccessResponse(ctx, nil, "revoked", http.StatusOK)
}
