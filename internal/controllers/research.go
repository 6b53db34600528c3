package controllers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"fuel-pricing/internal/dto"
	"fuel-pricing/internal/services"
	"fuel-pricing/pkg/constants"
	apperrors "fuel-pricing/pkg/errors"
	"fuel-pricing/pkg/utils"
	"fuel-pricing/pkg/validation"
)

type ResearchController struct {
	researchService services.ResearchServiceInterface
	logger          *zap.Logger
}

func NewResearchController(researchService services.ResearchServiceInterface, logger *zap.Logger) *ResearchController {
	return &ResearchController{researchService: researchService, logger: logger}
}

func (c *ResearchController) GetPrices(ctx echo.Context) error {
	filter := utils.ParseFilterFromQuery(ctx.Request().URL.Query())
	res, total, err := c.researchService.GetPrices(ctx.Request().Context(), filter, ctx.QueryParam("from"), ctx.QueryParam("to"))
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, res, "competitor prices", http.StatusOK, total)
}

func (c *ResearchController) FindPrice(ctx echo.Context) error {
	id, err := utils.ParseIDParam(ctx, "id")
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	res, err := c.researchService.FindPrice(ctx.Request().Context(), id)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, res, "competitor price", http.StatusOK)
}

// CreatePrice accepts plain JSON, or multipart/form-data with the JSON in "data" and an optional "photo".
func (c *ResearchController) CreatePrice(ctx echo.Context) error {
	var payload dto.CreateCompetitorPriceDTO
	var photo *services.UploadedFile

	if strings.HasPrefix(ctx.Request().Header.Get(echo.HeaderContentType), echo.MIMEMultipartForm) {
		dataString := ctx.FormValue("data")
		if dataString == "" {
			return utils.ErrorResponse(ctx,
				apperrors.NewHttpError(http.StatusBadRequest, "form field 'data' is required", apperrors.ErrBadRequest, nil),
				c.logger,
			)
		}
		if err := json.Unmarshal([]byte(dataString), &payload); err != nil {
			return utils.ErrorResponse(ctx,
				apperrors.NewHttpError(http.StatusBadRequest, "invalid JSON in 'data'", err, map[string]interface{}{"data": dataString}),
				c.logger,
			)
		}
		if err := ctx.Validate(&payload); err != nil {
			return utils.ErrorResponse(ctx, err, c.logger)
		}

		fileHeader, err := ctx.FormFile("photo")
		if err != nil && err != http.ErrMissingFile {
			return utils.ErrorResponse(ctx,
				apperrors.NewHttpError(http.StatusBadRequest, "could not read 'photo'", err, nil),
				c.logger,
			)
		}
		if fileHeader != nil {
			file, err := fileHeader.Open()
			if err != nil {
				return utils.ErrorResponse(ctx, err, c.logger)
			}
			defer file.Close()

			if err := validation.ValidateFile(fileHeader, file, constants.UploadContextResearchPhoto); err != nil {
				return utils.ErrorResponse(ctx, err, c.logger)
			}
			photo = &services.UploadedFile{Name: fileHeader.Filename, Reader: file}
		}
	} else if err := bindAndValidate(ctx, &payload); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	res, err := c.researchService.CreatePrice(ctx.Request().Context(), payload, photo)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, res, "competitor price recorded", http.StatusCreated)
}

func (c *ResearchController) DeletePrice(ctx echo.Context) error {
	id, err := utils.ParseIDParam(ctx, "id")
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	if err := c.researchService.DeletePrice(ctx.Request().Context(), id); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, nil, "competitor price deleted", http.StatusOK)
}

func (c *ResearchController) ImportSheet(ctx echo.Context) error {
	fileHeader, err := ctx.FormFile("file")
	if err != nil {
		return utils.ErrorResponse(ctx,
			apperrors.NewHttpError(http.StatusBadRequest, "form file 'file' is required", err, nil),
			c.logger,
		)
	}
	file, err := fileHeader.Open()
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	defer file.Close()

	if err := validation.ValidateFile(fileHeader, file, constants.UploadContextResearchSheet); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	res, err := c.researchService.ImportSheet(ctx.Request().Context(), file)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	c.logger.Info("research sheet imported",
		zap.String("filename", fileHeader.Filename),
		zap.Int("imported", res.Imported),
		zap.Int("skipped", res.Skipped),
	)
	return utils.SuccessResponse(ctx, res, "sheet imported", http.StatusOK)
}

func (c *ResearchController) LatestPrices(ctx echo.Context) error {
	stationIDs, err := idsFromQuery(ctx, "station_ids")
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	res, err := c.researchService.LatestPrices(ctx.Request().Context(), stationIDs, ctx.QueryParam("product"))
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, res, "latest competitor prices", http.StatusOK)
}

func (c *ResearchController) Compare(ctx echo.Context) error {
	stationID, err := strconv.ParseUint(ctx.QueryParam("station_id"), 10, 64)
	if err != nil || stationID == 0 {
		return utils.ErrorResponse(ctx,
			apperrors.NewHttpError(http.StatusBadRequest, "station_id is required", err, map[string]interface{}{"param": ctx.QueryParam("station_id")}),
			c.logger,
		)
	}
	competitorIDs, err := idsFromQuery(ctx, "competitor_ids")
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	res, err := c.researchService.Compare(ctx.Request().Context(), stationID, ctx.QueryParam("product"), competitorIDs)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, res, "price comparison", http.StatusOK)
}
