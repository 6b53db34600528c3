package controllers

import (
	"bytes"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"fuel-pricing/internal/services"
	"fuel-pricing/pkg/utils"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type ReportController struct {
	reportService services.ReportServiceInterface
	logger        *zap.Logger
}

func NewReportController(reportService services.ReportServiceInterface, logger *zap.Logger) *ReportController {
	return &ReportController{reportService: reportService, logger: logger}
}

// GetSuggestionReport serves ?format=json (default), csv or xlsx.
func (c *ReportController) GetSuggestionReport(ctx echo.Context) error {
	query, err := bindListQuery(ctx)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	format := strings.ToLower(ctx.QueryParam("format"))
	if format == "" {
		format = services.ReportFormatJSON
	}
	filter := utils.ParseFilterFromQuery(ctx.Request().URL.Query())
	c.logger.Debug("suggestion report requested", zap.String("format", format), zap.Any("query", query))

	rows, total, err := c.reportService.GetSuggestionReport(ctx.Request().Context(), filter, query, format)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	var buf bytes.Buffer
	var contentType string
	switch format {
	case services.ReportFormatCSV:
		contentType = "text/csv; charset=utf-8"
		err = services.WriteSuggestionsCSV(&buf, rows)
	case services.ReportFormatXLSX:
		contentType = xlsxContentType
		err = services.WriteSuggestionsXLSX(&buf, rows)
	default:
		return utils.SuccessResponse(ctx, rows, "suggestion report", http.StatusOK, total)
	}
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	fileName := fmt.Sprintf("suggestions_%s.%s", time.Now().Format("2006-01-02"), format)
	ctx.Response().Header().Set(echo.HeaderContentDisposition, "attachment; filename="+fileName)
	return ctx.Blob(http.StatusOK, contentType, buf.Bytes())
}
