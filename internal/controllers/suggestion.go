package controllers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"fuel-pricing/internal/dto"
	"fuel-pricing/internal/services"
	apperrors "fuel-pricing/pkg/errors"
	"fuel-pricing/pkg/utils"
)

type SuggestionController struct {
	suggestionService services.PriceSuggestionServiceInterface
	historyService    services.ApprovalHistoryServiceInterface
	logger            *zap.Logger
}

func NewSuggestionController(
	suggestionService services.PriceSuggestionServiceInterface,
	historyService services.ApprovalHistoryServiceInterface,
	logger *zap.Logger,
) *SuggestionController {
	return &SuggestionController{
		suggestionService: suggestionService,
		historyService:    historyService,
		logger:            logger,
	}
}

// bindListQuery reads ?mine, ?requested_by, ?from and ?to.
func bindListQuery(ctx echo.Context) (dto.SuggestionListQuery, error) {
	var query dto.SuggestionListQuery
	if err := (&echo.DefaultBinder{}).BindQueryParams(ctx, &query); err != nil {
		return query, apperrors.NewHttpError(http.StatusBadRequest, "invalid query parameters", err, nil)
	}
	if err := ctx.Validate(&query); err != nil {
		return query, err
	}
	return query, nil
}

func (c *SuggestionController) GetSuggestions(ctx echo.Context) error {
	query, err := bindListQuery(ctx)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	filter := utils.ParseFilterFromQuery(ctx.Request().URL.Query())

	res, total, err := c.suggestionService.GetSuggestions(ctx.Request().Context(), filter, query)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, res, "price suggestions", http.StatusOK, total)
}

func (c *SuggestionController) FindSuggestion(ctx echo.Context) error {
	id, err := utils.ParseIDParam(ctx, "id")
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	res, err := c.suggestionService.FindSuggestion(ctx.Request().Context(), id)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, res, "price suggestion", http.StatusOK)
}

func (c *SuggestionController) CreateSuggestion(ctx echo.Context) error {
	var payload dto.CreateSuggestionDTO
	if err := bindAndValidate(ctx, &payload); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	res, err := c.suggestionService.CreateSuggestion(ctx.Request().Context(), payload)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, res, "price suggestion created", http.StatusCreated)
}

func (c *SuggestionController) BatchCreateSuggestions(ctx echo.Context) error {
	var payload dto.BatchCreateSuggestionDTO
	if err := bindAndValidate(ctx, &payload); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	res, err := c.suggestionService.BatchCreateSuggestions(ctx.Request().Context(), payload)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	c.logger.Info("batch of suggestions created", zap.Int("count", len(res)))
	return utils.SuccessResponse(ctx, res, "price suggestions created", http.StatusCreated)
}

func (c *SuggestionController) UpdateSuggestion(ctx echo.Context) error {
	id, err := utils.ParseIDParam(ctx, "id")
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	var payload dto.UpdateSuggestionDTO
	if err := bindAndValidate(ctx, &payload); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	res, err := c.suggestionService.UpdateSuggestion(ctx.Request().Context(), id, payload)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, res, "price suggestion updated", http.StatusOK)
}

func (c *SuggestionController) SubmitSuggestion(ctx echo.Context) error {
	id, err := utils.ParseIDParam(ctx, "id")
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	res, err := c.suggestionService.SubmitSuggestion(ctx.Request().Context(), id)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, res, "price suggestion submitted", http.StatusOK)
}

func (c *SuggestionController) DeleteSuggestion(ctx echo.Context) error {
	id, err := utils.ParseIDParam(ctx, "id")
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	if err := c.suggestionService.DeleteSuggestion(ctx.Request().Context(), id); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, nil, "price suggestion deleted", http.StatusOK)
}

func (c *SuggestionController) GetHistory(ctx echo.Context) error {
	id, err := utils.ParseIDParam(ctx, "id")
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	res, err := c.historyService.GetTimeline(ctx.Request().Context(), id)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, res, "approval history", http.StatusOK)
}
