// Package contextkeys holds the request-scoped values set by the auth middleware.
package contextkeys

type key string

const (
	UserIDKey             key = "fuel-pricing.user_id"
	RoleIDKey             key = "fuel-pricing.role_id"
	TokenIDKey            key = "fuel-pricing.token_jti"
	UserPermissionsMapKey key = "fuel-pricing.permissions"
)
