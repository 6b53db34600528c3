package utils

import (
	"context"

	"fuel-pricing/pkg/contextkeys"
	apperrors "fuel-pricing/pkg/errors"
)

func GetUserIDFromCtx(ctx context.Context) (uint64, error) {
	userID, ok := ctx.Value(contextkeys.UserIDKey).(uint64)
	if !ok || userID == 0 {
		return 0, apperrors.ErrUserIDNotFoundInContext
	}
	return userID, nil
}

func GetRoleIDFromCtx(ctx context.Context) (uint64, error) {
	roleID, ok := ctx.Value(contextkeys.RoleIDKey).(uint64)
	if !ok {
		return 0, apperrors.ErrUserNotFound
	}
	return roleID, nil
}

func GetPermissionsMapFromCtx(ctx context.Context) (map[string]bool, error) {
	permissions, ok := ctx.Value(contextkeys.UserPermissionsMapKey).(map[string]bool)
	if !ok || permissions == nil {
		return nil, apperrors.ErrForbidden
	}
	return permissions, nil
}

func GetTokenIDFromCtx(ctx context.Context) string {
	jti, _ := ctx.Value(contextkeys.TokenIDKey).(string)
	return jti
}

// WithUser is used by the auth middleware and by tests to build an authenticated context.
func WithUser(ctx context.Context, userID, roleID uint64, permissions map[string]bool) context.Context {
	ctx = context.WithValue(ctx, contextkeys.UserIDKey, userID)
	ctx = context.WithValue(ctx, contextkeys.RoleIDKey, roleID)
	return context.WithValue(ctx, contextkeys.UserPermissionsMapKey, permissions)
}
