package authz

import (
	"strings"

	"fuel-pricing/internal/entities"
)

type Context struct {
	Actor             *entities.User
	Permissions       map[string]bool
	Target            interface{}
	CurrentPermission string
}

func (c *Context) HasPermission(permission string) bool {
	if c.Permissions == nil {
		return false
	}
	return c.Permissions[permission]
}

func getAction(permission string) string {
	parts := strings.Split(permission, ":")
	if len(parts) > 1 {
		return parts[1]
	}
	return ""
}

func sameStation(actor *entities.User, stationID uint64) bool {
	return actor.StationID != nil && *actor.StationID == stationID
}

// canAccessSuggestion: view follows the data scope, approvers see everything waiting on them;
// update and delete belong to the requester.
func canAccessSuggestion(ctx Context, target *entities.PriceSuggestion) bool {
	actor := ctx.Actor
	isRequester := target.RequestedBy == actor.ID

	if getAction(ctx.CurrentPermission) == "view" {
		if ctx.HasPermission(ScopeAll) || isRequester {
			return true
		}
		if ctx.HasPermission(SuggestionsApprove) && actor.ApprovalLevel > 0 {
			return true
		}
		return ctx.HasPermission(ScopeStation) && sameStation(actor, target.StationID)
	}

	return isRequester
}

func canAccessStation(ctx Context, target *entities.Station) bool {
	if getAction(ctx.CurrentPermission) == "view" {
		return true
	}
	if ctx.HasPermission(ScopeAll) {
		return true
	}
	return ctx.HasPermission(ScopeStation) && sameStation(ctx.Actor, target.ID)
}

func canAccessUser(ctx Context, target *entities.User) bool {
	if ctx.Actor.ID == target.ID {
		return true
	}
	if ctx.HasPermission(ScopeAll) {
		return true
	}
	return getAction(ctx.CurrentPermission) == "view"
}

// CanDo checks the permission itself (RBAC) and then the target's attributes (ABAC).
// Superuser bypasses both.
func CanDo(permission string, ctx Context) bool {
	if ctx.HasPermission(Superuser) {
		return true
	}

	ctx.CurrentPermission = permission
	if !ctx.HasPermission(permission) {
		return false
	}

	if ctx.Target == nil || ctx.Actor == nil {
		return ctx.Target == nil
	}

	switch target := ctx.Target.(type) {
	case *entities.PriceSuggestion:
		return canAccessSuggestion(ctx, target)
	case *entities.Station:
		return canAccessStation(ctx, target)
	case *entities.User:
		return canAccessUser(ctx, target)
	}

	return true
}
