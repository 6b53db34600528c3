package dto

import "time"

type CreateCompetitorPriceDTO struct {
	StationID  uint64     `json:"station_id" form:"station_id" validate:"required"`
	Product    string     `json:"product" form:"product" validate:"required,fuel_product"`
	Price      string     `json:"price" form:"price" validate:"required,max=32"`
	ObservedAt *time.Time `json:"observed_at" form:"observed_at"`
	Source     string     `json:"source" form:"source" validate:"required,oneof=visit phone app photo import"`
	Notes      *string    `json:"notes" form:"notes" validate:"omitempty,max=1000"`
}

type CompetitorPriceDTO struct {
	ID         uint64          `json:"id"`
	Station    ShortStationDTO `json:"station"`
	Brand      *string         `json:"brand"`
	Product    string          `json:"product"`
	Price      MoneyDTO        `json:"price"`
	ObservedAt string          `json:"observed_at"`
	Source     string          `json:"source"`
	Notes      *string         `json:"notes"`
	PhotoURL   *string         `json:"photo_url"`
	CreatedBy  uint64          `json:"created_by"`
	CreatedAt  string          `json:"created_at"`
}

type ImportRowError struct {
	Row     int    `json:"row"`
	Message string `json:"message"`
}

type ImportResultDTO struct {
	Imported int              `json:"imported"`
	Skipped  int              `json:"skipped"`
	Errors   []ImportRowError `json:"errors"`
}

type CompetitorQuoteDTO struct {
	Station    ShortStationDTO `json:"station"`
	Brand      *string         `json:"brand"`
	Price      MoneyDTO        `json:"price"`
	Difference MoneyDTO        `json:"difference"`
	ObservedAt string          `json:"observed_at"`
}

// ComparisonDTO puts an own station's price for one product next to its competitors.
type ComparisonDTO struct {
	Station     ShortStationDTO      `json:"station"`
	Product     string               `json:"product"`
	OwnPrice    *MoneyDTO            `json:"own_price"`
	Average     *MoneyDTO            `json:"competitor_average"`
	Lowest      *MoneyDTO            `json:"competitor_lowest"`
	Competitors []CompetitorQuoteDTO `json:"competitors"`
}
