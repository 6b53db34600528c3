package entities

import "time"

// Station is a row of sis_empresa: an own station or a competitor.
type Station struct {
	ID           uint64
	Name         string
	TradeName    *string
	CNPJ         *string
	Brand        *string
	Address      *string
	City         *string
	State        *string
	Latitude     *float64
	Longitude    *float64
	IsCompetitor bool
	Active       bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (s *Station) HasCoordinates() bool {
	return s.Latitude != nil && s.Longitude != nil
}

// BoundingBox limits map queries to the visible area.
type BoundingBox struct {
	MinLat, MinLng, MaxLat, MaxLng float64
}
