package services

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"fuel-pricing/internal/dto"
	"fuel-pricing/internal/entities"
	"fuel-pricing/pkg/constants"
	"fuel-pricing/pkg/money"
)

const maxImportRows = 5000

type sheetColumns struct {
	station, product, price, observedAt, notes int
}

var headerAliases = map[string][]string{
	"station":     {"posto", "station", "station_id", "concorrente", "empresa"},
	"product":     {"produto", "product", "combustivel", "combustível"},
	"price":       {"preço", "preco", "price", "valor"},
	"observed_at": {"data", "date", "observed_at", "coleta"},
	"notes":       {"observações", "observacoes", "obs", "notes"},
}

var importDateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04",
	"02/01/2006",
	"02/01/2006 15:04",
	"01-02-06",
}

func matchHeader(cell string, field string) bool {
	cell = strings.ToLower(strings.TrimSpace(cell))
	for _, alias := range headerAliases[field] {
		if cell == alias || strings.HasPrefix(cell, alias+" ") {
			return true
		}
	}
	return false
}

// findHeader scans the first rows for one naming at least station, product and price.
func findHeader(rows [][]string) (int, sheetColumns, bool) {
	limit := len(rows)
	if limit > 20 {
		limit = 20
	}
	for r := 0; r < limit; r++ {
		cols := sheetColumns{station: -1, product: -1, price: -1, observedAt: -1, notes: -1}
		for c, cell := range rows[r] {
			switch {
			case matchHeader(cell, "station"):
				cols.station = c
			case matchHeader(cell, "product"):
				cols.product = c
			case matchHeader(cell, "price"):
				cols.price = c
			case matchHeader(cell, "observed_at"):
				cols.observedAt = c
			case matchHeader(cell, "notes"):
				cols.notes = c
			}
		}
		if cols.station >= 0 && cols.product >= 0 && cols.price >= 0 {
			return r, cols, true
		}
	}
	return -1, sheetColumns{}, false
}

func cellAt(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

// resolveProduct accepts a product code or its label ("Diesel S10").
func resolveProduct(raw string) (string, bool) {
	v := strings.ToLower(strings.TrimSpace(raw))
	if constants.IsFuelProduct(v) {
		return v, true
	}
	for code, label := range constants.ProductLabels {
		if strings.EqualFold(label, v) {
			return code, true
		}
	}
	return "", false
}

func parseImportDate(raw string, now time.Time) (time.Time, error) {
	if raw == "" {
		return now, nil
	}
	for _, layout := range importDateLayouts {
		if t, err := time.ParseInLocation(layout, raw, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised date %q", raw)
}

// stationIndex resolves a sheet cell to a competitor station by id or by name.
type stationIndex struct {
	byID   map[uint64]*entities.Station
	byName map[string]*entities.Station
}

func newStationIndex(stations []entities.Station) stationIndex {
	idx := stationIndex{
		byID:   make(map[uint64]*entities.Station, len(stations)),
		byName: make(map[string]*entities.Station, len(stations)),
	}
	for i := range stations {
		st := &stations[i]
		idx.byID[st.ID] = st
		idx.byName[strings.ToLower(strings.TrimSpace(st.Name))] = st
		if st.TradeName != nil {
			idx.byName[strings.ToLower(strings.TrimSpace(*st.TradeName))] = st
		}
	}
	return idx
}

func (idx stationIndex) lookup(raw string) (*entities.Station, bool) {
	if id, err := strconv.ParseUint(raw, 10, 64); err == nil {
		st, ok := idx.byID[id]
		return st, ok
	}
	st, ok := idx.byName[strings.ToLower(raw)]
	return st, ok
}

// parseResearchSheet reads the first sheet with a recognisable header. Rows that cannot be
// used are reported, not fatal.
func parseResearchSheet(f *excelize.File, stations stationIndex, actorID uint64, now time.Time) ([]entities.CompetitorPrice, dto.ImportResultDTO, error) {
	result := dto.ImportResultDTO{Errors: []dto.ImportRowError{}}

	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil {
			return nil, result, fmt.Errorf("failed to read sheet %q: %w", sheet, err)
		}
		headerRow, cols, ok := findHeader(rows)
		if !ok {
			continue
		}
		if len(rows)-headerRow-1 > maxImportRows {
			return nil, result, fmt.Errorf("sheet has more than %d rows", maxImportRows)
		}

		prices := make([]entities.CompetitorPrice, 0, len(rows)-headerRow-1)
		for i := headerRow + 1; i < len(rows); i++ {
			row := rows[i]
			line := i + 1
			stationCell := cellAt(row, cols.station)
			priceCell := cellAt(row, cols.price)
			if stationCell == "" && priceCell == "" {
				continue
			}
			fail := func(format string, args ...interface{}) {
				result.Skipped++
				result.Errors = append(result.Errors, dto.ImportRowError{Row: line, Message: fmt.Sprintf(format, args...)})
			}

			station, ok := stations.lookup(stationCell)
			if !ok {
				fail("unknown competitor station %q", stationCell)
				continue
			}
			product, ok := resolveProduct(cellAt(row, cols.product))
			if !ok {
				fail("unknown product %q", cellAt(row, cols.product))
				continue
			}
			price, err := money.ParseDecimal(priceCell)
			if err != nil || price <= 0 {
				fail("invalid price %q", priceCell)
				continue
			}
			observedAt, err := parseImportDate(cellAt(row, cols.observedAt), now)
			if err != nil {
				fail("%v", err)
				continue
			}

			p := entities.CompetitorPrice{
				StationID:  station.ID,
				Product:    product,
				Price:      price,
				ObservedAt: observedAt,
				Source:     "import",
				CreatedBy:  actorID,
			}
			if notes := cellAt(row, cols.notes); notes != "" {
				p.Notes = &notes
			}
			prices = append(prices, p)
		}
		return prices, result, nil
	}
	return nil, result, fmt.Errorf("no sheet has station, product and price columns")
}
