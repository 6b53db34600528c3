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

type MapController struct {
	mapService services.MapServiceInterface
	logger     *zap.Logger
}

func NewMapController(mapService services.MapServiceInterface, logger *zap.Logger) *MapController {
	return &MapController{mapService: mapService, logger: logger}
}

// GetStations returns a bare GeoJSON FeatureCollection so map clients can load it directly.
func (c *MapController) GetStations(ctx echo.Context) error {
	var query dto.MapQuery
	if err := (&echo.DefaultBinder{}).BindQueryParams(ctx, &query); err != nil {
		return utils.ErrorResponse(ctx,
			apperrors.NewHttpError(http.StatusBadRequest, "invalid map query", err, nil),
			c.logger,
		)
	}
	if err := ctx.Validate(&query); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	res, err := c.mapService.GetStations(ctx.Request().Context(), query)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	ctx.Response().Header().Set(echo.HeaderContentType, "application/geo+json")
	return ctx.JSON(http.StatusOK, res)
}
