package routes

import (
	"github.com/labstack/echo/v4"

	"fuel-pricing/internal/controllers"
)

func runNotificationRouter(secureGroup *echo.Group, notificationCtrl *controllers.NotificationController) {
	notifications := secureGroup.Group("/notifications")

	notifications.GET("", notificationCtrl.GetNotifications)
	notifications.GET("/unread-count", notificationCtrl.UnreadCount)
	notifications.POST("/read-all", notificationCtrl.MarkAllRead)
	notifications.POST("/:id/read", notificationCtrl.MarkRead)
	notifications.POST("/push", notificationCtrl.RegisterPush)
	notifications.DELETE("/push", notificationCtrl.UnregisterPush)
}
