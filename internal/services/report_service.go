package services

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"fuel-pricing/internal/authz"
	"fuel-pricing/internal/dto"
	"fuel-pricing/internal/repositories"
	apperrors "fuel-pricing/pkg/errors"
	"fuel-pricing/pkg/types"
)

const (
	ReportFormatJSON = "json"
	ReportFormatCSV  = "csv"
	ReportFormatXLSX = "xlsx"

	maxReportRows = 100000
	reportSheet   = "Suggestions"
)

type ReportServiceInterface interface {
	GetSuggestionReport(ctx context.Context, filter types.Filter, query dto.SuggestionListQuery, format string) ([]dto.SuggestionDTO, uint64, error)
}

type ReportService struct {
	*BaseService
	suggestionRepo repositories.PriceSuggestionRepositoryInterface
	logger         *zap.Logger
}

func NewReportService(base *BaseService, suggestionRepo repositories.PriceSuggestionRepositoryInterface, logger *zap.Logger) ReportServiceInterface {
	return &ReportService{BaseService: base, suggestionRepo: suggestionRepo, logger: logger}
}

// GetSuggestionReport lists suggestions visible to the caller. File formats ignore paging
// and return every matching row up to maxReportRows.
func (s *ReportService) GetSuggestionReport(ctx context.Context, filter types.Filter, query dto.SuggestionListQuery, format string) ([]dto.SuggestionDTO, uint64, error) {
	actor, perms, err := s.Actor(ctx)
	if err != nil {
		return nil, 0, err
	}
	if !authz.CanDo(authz.ReportsView, authz.Context{Actor: actor, Permissions: perms}) {
		return nil, 0, apperrors.ErrForbidden
	}
	switch format {
	case ReportFormatJSON:
	case ReportFormatCSV, ReportFormatXLSX:
		filter.WithPagination = true
		filter.Limit = maxReportRows
		filter.Offset = 0
		filter.Page = 1
	default:
		return nil, 0, apperrors.NewInvalidInputError("unsupported report format %q", format)
	}

	opts, err := listOptions(actor, perms, query)
	if err != nil {
		return nil, 0, err
	}
	list, total, err := s.suggestionRepo.GetSuggestions(ctx, filter, opts)
	if err != nil {
		return nil, 0, err
	}
	s.logger.Info("suggestion report generated",
		zap.Uint64("userID", actor.ID),
		zap.String("format", format),
		zap.Int("rows", len(list)),
	)
	return suggestionsToDTO(list), total, nil
}

var reportHeaders = []string{
	"ID", "Station", "Product", "Status", "Current price", "Suggested price", "Cost price",
	"Margin", "Margin %", "Effective margin", "Variation %", "Approved price",
	"Requested by", "Level", "Required levels", "Submitted at", "Approved at", "Rejection reason", "Created at",
}

func strOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func moneyOrEmpty(m *dto.MoneyDTO) string {
	if m == nil {
		return ""
	}
	return m.Formatted
}

// textCell keeps user-entered text from being read as a spreadsheet formula.
func textCell(v string) string {
	if v != "" && strings.ContainsRune("=+-@\t\r", rune(v[0])) {
		return "'" + v
	}
	return v
}

func reportRow(s dto.SuggestionDTO) []string {
	return []string{
		strconv.FormatUint(s.ID, 10),
		textCell(s.Station.Name),
		s.ProductLabel,
		s.Status,
		s.CurrentPrice.Formatted,
		s.SuggestedPrice.Formatted,
		s.CostPrice.Formatted,
		s.Margin.Formatted,
		strconv.FormatFloat(s.MarginPercent, 'f', 2, 64),
		s.EffectiveMargin.Formatted,
		strconv.FormatFloat(s.VariationPercent, 'f', 2, 64),
		moneyOrEmpty(s.ApprovedPrice),
		textCell(s.RequestedBy.Name),
		strconv.Itoa(s.CurrentLevel),
		strconv.Itoa(s.RequiredLevels),
		strOrEmpty(s.SubmittedAt),
		strOrEmpty(s.ApprovedAt),
		textCell(strOrEmpty(s.RejectionReason)),
		s.CreatedAt,
	}
}

// WriteSuggestionsCSV streams rows as they are encoded.
func WriteSuggestionsCSV(w io.Writer, rows []dto.SuggestionDTO) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(reportHeaders); err != nil {
		return err
	}
	for _, row := range rows {
		if err := cw.Write(reportRow(row)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func WriteSuggestionsXLSX(w io.Writer, rows []dto.SuggestionDTO) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", reportSheet); err != nil {
		return err
	}
	header := make([]interface{}, len(reportHeaders))
	for i, h := range reportHeaders {
		header[i] = h
	}
	if err := f.SetSheetRow(reportSheet, "A1", &header); err != nil {
		return err
	}
	style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	lastCol, _ := excelize.ColumnNumberToName(len(reportHeaders))
	if err := f.SetCellStyle(reportSheet, "A1", lastCol+"1", style); err != nil {
		return err
	}

	for i, s := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		values := reportRow(s)
		row := make([]interface{}, len(values))
		for j, v := range values {
			row[j] = v
		}
		row[0] = s.ID
		if err := f.SetSheetRow(reportSheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write report row %d: %w", i+2, err)
		}
	}
	_ = f.SetColWidth(reportSheet, "B", "B", 30)
	_ = f.SetColWidth(reportSheet, "C", "D", 18)
	_ = f.SetColWidth(reportSheet, "M", "M", 25)
	_ = f.SetColWidth(reportSheet, "P", "S", 25)

	return f.Write(w)
}
