package routes

import (
	"github.com/labstack/echo/v4"

	"fuel-pricing/internal/controllers"
)

func runStationRouter(secureGroup *echo.Group, stationCtrl *controllers.StationController) {
	stations := secureGroup.Group("/stations")

	stations.GET("", stationCtrl.GetStations)
	stations.POST("", stationCtrl.CreateStation)
	stations.GET("/:id", stationCtrl.FindStation)
	stations.PUT("/:id", stationCtrl.UpdateStation)
	stations.DELETE("/:id", stationCtrl.DeleteStation)
}

func runClientRouter(secureGroup *echo.Group, clientCtrl *controllers.ClientController, paymentCtrl *controllers.PaymentMethodController) {
	clients := secureGroup.Group("/clients")
	clients.GET("", clientCtrl.GetClients)
	clients.POST("", clientCtrl.CreateClient)
	clients.GET("/:id", clientCtrl.FindClient)
	clients.PUT("/:id", clientCtrl.UpdateClient)
	clients.DELETE("/:id", clientCtrl.DeleteClient)

	methods := secureGroup.Group("/payment-methods")
	methods.GET("", paymentCtrl.GetPaymentMethods)
	methods.POST("", paymentCtrl.CreatePaymentMethod)
	methods.GET("/:id", paymentCtrl.FindPaymentMethod)
	methods.PUT("/:id", paymentCtrl.UpdatePaymentMethod)
	methods.DELETE("/:id", paymentCtrl.DeletePaymentMethod)
}
