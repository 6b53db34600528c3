package controllers

import (
	"net/http"
	"slices"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"fuel-pricing/pkg/middleware"
	"fuel-pricing/pkg/service"
	appwebsocket "fuel-pricing/pkg/websocket"
)

type WebSocketController struct {
	hub        *appwebsocket.Hub
	jwtService service.JWTService
	revocation middleware.RevocationChecker
	upgrader   websocket.Upgrader
	logger     *zap.Logger
}

// NewWebSocketController accepts upgrades from allowedOrigins; "*" or an empty list allows any origin.
func NewWebSocketController(
	hub *appwebsocket.Hub,
	jwtService service.JWTService,
	revocation middleware.RevocationChecker,
	allowedOrigins []string,
	logger *zap.Logger,
) *WebSocketController {
	return &WebSocketController{
		hub:        hub,
		jwtService: jwtService,
		revocation: revocation,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if origin == "" || len(allowedOrigins) == 0 || slices.Contains(allowedOrigins, "*") {
					return true
				}
				return slices.Contains(allowedOrigins, origin)
			},
		},
		logger: logger,
	}
}

// ServeWs authenticates with ?token=<access token> since browsers cannot set headers on upgrade.
func (c *WebSocketController) ServeWs(ctx echo.Context) error {
	tokenString := ctx.QueryParam("token")
	if tokenString == "" {
		return ctx.String(http.StatusUnauthorized, "missing token")
	}

	claims, err := c.jwtService.ValidateToken(tokenString)
	if err != nil || claims.IsRefreshToken() {
		return ctx.String(http.StatusUnauthorized, "invalid token")
	}
	if err := c.revocation.EnsureNotRevoked(ctx.Request().Context(), claims); err != nil {
		return ctx.String(http.StatusUnauthorized, "token revoked")
	}

	conn, err := c.upgrader.Upgrade(ctx.Response(), ctx.Request(), nil)
	if err != nil {
		c.logger.Error("websocket upgrade failed", zap.Error(err))
		return nil
	}

	appwebsocket.NewClient(c.hub, conn, claims.UserID).Serve()

	c.logger.Info("websocket client connected", zap.Uint64("userID", claims.UserID))
	return nil
}
