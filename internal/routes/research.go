package routes

import (
	"github.com/labstack/echo/v4"

	"fuel-pricing/internal/controllers"
)

func runResearchRouter(secureGroup *echo.Group, researchCtrl *controllers.ResearchController, mapCtrl *controllers.MapController) {
	research := secureGroup.Group("/research")
	{
		research.GET("", researchCtrl.GetPrices)
		research.POST("", researchCtrl.CreatePrice)
		research.POST("/import", researchCtrl.ImportSheet)
		research.GET("/latest", researchCtrl.LatestPrices)
		research.GET("/compare", researchCtrl.Compare)
		research.GET("/:id", researchCtrl.FindPrice)
		research.DELETE("/:id", researchCtrl.DeletePrice)
	}

	secureGroup.GET("/map/stations", mapCtrl.GetStations)
}
