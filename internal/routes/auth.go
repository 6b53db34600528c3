package routes

import (
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"fuel-pricing/internal/controllers"
	"fuel-pricing/internal/services"
	"fuel-pricing/pkg/middleware"
	"fuel-pricing/pkg/service"
	"fuel-pricing/pkg/websocket"
)

func runAuthRouter(
	api *echo.Group,
	secureGroup *echo.Group,
	authService services.AuthServiceInterface,
	tokenService services.TokenServiceInterface,
	secureCookie bool,
	logger *zap.Logger,
) {
	authCtrl := controllers.NewAuthController(authService, secureCookie, logger)
	tokenCtrl := controllers.NewTokenController(authService, tokenService, logger)
	loginLimit := middleware.RateLimitByIP(loginRateLimit, loginRateWindow)

	authGroup := api.Group("/auth")
	{
		authGroup.POST("/login", authCtrl.Login, loginLimit)
		authGroup.POST("/refresh", authCtrl.Refresh, loginLimit)
		authGroup.POST("/logout", authCtrl.Logout, loginLimit)
	}
	secureGroup.GET("/auth/me", authCtrl.Me)

	ultra := api.Group("/ultra-secure")
	{
		ultra.POST("/login", tokenCtrl.Login, loginLimit)
		ultra.POST("/validate", tokenCtrl.Validate, loginLimit)
		ultra.POST("/rotate", tokenCtrl.Rotate, loginLimit)
	}
	secureGroup.POST("/ultra-secure/revoke", tokenCtrl.Revoke)
}

func runWebSocketRouter(
	e *echo.Echo,
	hub *websocket.Hub,
	jwtSvc service.JWTService,
	revocation middleware.RevocationChecker,
	origins []string,
	logger *zap.Logger,
) {
	wsCtrl := controllers.NewWebSocketController(hub, jwtSvc, revocation, origins, logger)
	e.GET("/ws", wsCtrl.ServeWs)
}
