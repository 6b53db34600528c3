package controllers

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"fuel-pricing/internal/dto"
	"fuel-pricing/internal/services"
	apperrors "fuel-pricing/pkg/errors"
	"fuel-pricing/pkg/utils"
)

const refreshCookieName = "refreshToken"

type AuthController struct {
	authService  services.AuthServiceInterface
	secureCookie bool
	logger       *zap.Logger
}

func NewAuthController(authService services.AuthServiceInterface, secureCookie bool, logger *zap.Logger) *AuthController {
	return &AuthController{authService: authService, secureCookie: secureCookie, logger: logger}
}

// setRefreshCookie stores the refresh token as an HttpOnly cookie; an empty token clears it.
func (c *AuthController) setRefreshCookie(ctx echo.Context, token string, expires time.Time) {
	cookie := &http.Cookie{
		Name:     refreshCookieName,
		Value:    token,
		Path:     "/api",
		Expires:  expires,
		HttpOnly: true,
		Secure:   c.secureCookie,
		SameSite: http.SameSiteStrictMode,
	}
	if token == "" {
		cookie.Expires = time.Unix(0, 0)
		cookie.MaxAge = -1
	}
	ctx.SetCookie(cookie)
}

// refreshTokenFrom prefers the JSON body and falls back to the cookie.
func refreshTokenFrom(ctx echo.Context) string {
	var payload dto.RefreshDTO
	if err := ctx.Bind(&payload); err == nil && payload.RefreshToken != "" {
		return payload.RefreshToken
	}
	if cookie, err := ctx.Cookie(refreshCookieName); err == nil {
		return cookie.Value
	}
	return ""
}

func (c *AuthController) Login(ctx echo.Context) error {
	var payload dto.LoginDTO
	if err := bindAndValidate(ctx, &payload); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	res, err := c.authService.Login(ctx.Request().Context(), payload)
	if err != nil {
		c.logger.Warn("login failed", zap.String("login", payload.Login), zap.Error(err))
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	c.setRefreshCookie(ctx, res.RefreshToken, res.RefreshExpiresAt)
	return utils.SuccessResponse(ctx, res, "logged in", http.StatusOK)
}

func (c *AuthController) Refresh(ctx echo.Context) error {
	token := refreshTokenFrom(ctx)
	if token == "" {
		return utils.ErrorResponse(ctx, apperrors.ErrUnauthorized, c.logger)
	}
	res, err := c.authService.Refresh(ctx.Request().Context(), token)
	if err != nil {
		c.setRefreshCookie(ctx, "", time.Time{})
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	c.setRefreshCookie(ctx, res.RefreshToken, res.RefreshExpiresAt)
	return utils.SuccessResponse(ctx, res, "tokens refreshed", http.StatusOK)
}

func (c *AuthController) Logout(ctx echo.Context) error {
	if err := c.authService.Logout(ctx.Request().Context(), refreshTokenFrom(ctx)); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	c.setRefreshCookie(ctx, "", time.Time{})
	return utils.SuccessResponse(ctx, nil, "logged out", http.StatusOK)
}

func (c *AuthController) Me(ctx echo.Context) error {
	res, err := c.authService.Me(ctx.Request().Context())
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, res, "profile", http.StatusOK)
}
