package middleware

import (
	"context"
	"strings"

	"fuel-pricing/pkg/contextkeys"
	apperrors "fuel-pricing/pkg/errors"
	"fuel-pricing/pkg/service"
	"fuel-pricing/pkg/utils"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// RevocationChecker reports ErrTokenRevoked for tokens that were logged out or rotated away.
type RevocationChecker interface {
	EnsureNotRevoked(ctx context.Context, claims *service.JwtCustomClaim) error
}

type PermissionProvider interface {
	GetRolePermissionsMap(ctx context.Context, roleID uint64) (map[string]bool, error)
}

type AuthMiddleware struct {
	jwtService  service.JWTService
	revocation  RevocationChecker
	permissions PermissionProvider
	logger      *zap.Logger
}

func NewAuthMiddleware(jwtSvc service.JWTService, revocation RevocationChecker, permissions PermissionProvider, logger *zap.Logger) *AuthMiddleware {
	return &AuthMiddleware{
		jwtService:  jwtSvc,
		revocation:  revocation,
		permissions: permissions,
		logger:      logger,
	}
}

// BearerToken extracts the token from "Authorization: Bearer <token>".
func BearerToken(header string) (string, error) {
	if header == "" {
		return "", apperrors.ErrEmptyAuthHeader
	}
	parts := strings.Fields(header)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", apperrors.ErrInvalidAuthHeader
	}
	return parts[1], nil
}

// Auth accepts only non-revoked access tokens and puts user, role, jti and permissions in the request context.
func (m *AuthMiddleware) Auth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		tokenString, err := BearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
		if err != nil {
			m.logger.Debug("auth: missing or malformed header", zap.Error(err))
			return utils.ErrorResponse(c, err, m.logger)
		}

		claims, err := m.jwtService.ValidateToken(tokenString)
		if err != nil {
			m.logger.Debug("auth: token rejected", zap.Error(err))
			return utils.ErrorResponse(c, err, m.logger)
		}

		if claims.IsRefreshToken() {
			m.logger.Warn("auth: refresh token used as access token", zap.Uint64("userID", claims.UserID))
			return utils.ErrorResponse(c, apperrors.ErrTokenIsNotAccess, m.logger)
		}

		ctx := c.Request().Context()
		if err := m.revocation.EnsureNotRevoked(ctx, claims); err != nil {
			return utils.ErrorResponse(c, err, m.logger)
		}

		perms, err := m.permissions.GetRolePermissionsMap(ctx, claims.RoleID)
		if err != nil {
			m.logger.Error("auth: failed to load role permissions", zap.Uint64("roleID", claims.RoleID), zap.Error(err))
			return utils.ErrorResponse(c, err, m.logger)
		}

		ctx = utils.WithUser(ctx, claims.UserID, claims.RoleID, perms)
		ctx = context.WithValue(ctx, contextkeys.TokenIDKey, claims.ID)
		c.SetRequest(c.Request().WithContext(ctx))

		return next(c)
	}
}
