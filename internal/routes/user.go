package routes

import (
	"github.com/labstack/echo/v4"

	"fuel-pricing/internal/controllers"
)

func runUserRouter(secureGroup *echo.Group, userCtrl *controllers.UserController) {
	users := secureGroup.Group("/users")

	users.GET("", userCtrl.GetUsers)
	users.POST("", userCtrl.CreateUser)
	users.PUT("/me/password", userCtrl.ChangePassword)
	users.GET("/:id", userCtrl.FindUser)
	users.PUT("/:id", userCtrl.UpdateUser)
	users.DELETE("/:id", userCtrl.DeleteUser)
}
