package routes

import (
	"github.com/labstack/echo/v4"

	"fuel-pricing/internal/controllers"
)

func runReportRouter(secureGroup *echo.Group, dashboardCtrl *controllers.DashboardController, reportCtrl *controllers.ReportController) {
	secureGroup.GET("/dashboard", dashboardCtrl.GetDashboard)
	secureGroup.GET("/reports/suggestions", reportCtrl.GetSuggestionReport)
}
