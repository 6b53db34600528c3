package routes

import (
	"github.com/labstack/echo/v4"

	"fuel-pricing/internal/controllers"
)

func runRoleRouter(secureGroup *echo.Group, roleCtrl *controllers.RoleController) {
	roles := secureGroup.Group("/roles")

	roles.GET("", roleCtrl.GetRoles)
	roles.POST("", roleCtrl.CreateRole)
	roles.GET("/:id", roleCtrl.FindRole)
	roles.PUT("/:id", roleCtrl.UpdateRole)
	roles.DELETE("/:id", roleCtrl.DeleteRole)

	secureGroup.GET("/permissions", roleCtrl.ListPermissions)
}
