package routes

import (
	"github.com/labstack/echo/v4"

	"fuel-pricing/internal/controllers"
)

func runSuggestionRouter(
	secureGroup *echo.Group,
	suggestionCtrl *controllers.SuggestionController,
	approvalCtrl *controllers.ApprovalController,
) {
	suggestions := secureGroup.Group("/suggestions")
	{
		suggestions.GET("", suggestionCtrl.GetSuggestions)
		suggestions.POST("", suggestionCtrl.CreateSuggestion)
		suggestions.POST("/batch", suggestionCtrl.BatchCreateSuggestions)
		suggestions.GET("/:id", suggestionCtrl.FindSuggestion)
		suggestions.PUT("/:id", suggestionCtrl.UpdateSuggestion)
		suggestions.DELETE("/:id", suggestionCtrl.DeleteSuggestion)
		suggestions.POST("/:id/submit", suggestionCtrl.SubmitSuggestion)
		suggestions.GET("/:id/history", suggestionCtrl.GetHistory)

		suggestions.POST("/:id/approve", approvalCtrl.Approve)
		suggestions.POST("/:id/reject", approvalCtrl.Reject)
		suggestions.POST("/:id/withdraw", approvalCtrl.Withdraw)
	}

	approvals := secureGroup.Group("/approvals")
	approvals.GET("/pending", approvalCtrl.GetPending)
	approvals.POST("/batch", approvalCtrl.BatchDecide)
}
