package dto

import "github.com/aarondl/null/v8"

type CreateStationDTO struct {
	Name         string   `json:"name" validate:"required,max=255"`
	TradeName    *string  `json:"trade_name" validate:"omitempty,max=255"`
	CNPJ         *string  `json:"cnpj" validate:"omitempty,cnpj"`
	Brand        *string  `json:"brand" validate:"omitempty,max=64"`
	Address      *string  `json:"address" validate:"omitempty,max=255"`
	City         *string  `json:"city" validate:"omitempty,max=128"`
	State        *string  `json:"state" validate:"omitempty,len=2,alpha"`
	Latitude     *float64 `json:"latitude" validate:"omitempty,latitude"`
	Longitude    *float64 `json:"longitude" validate:"omitempty,longitude"`
	IsCompetitor bool     `json:"is_competitor"`
}

type UpdateStationDTO struct {
	Name         null.String  `json:"name" validate:"omitempty,max=255"`
	TradeName    null.String  `json:"trade_name" validate:"omitempty,max=255"`
	CNPJ         null.String  `json:"cnpj" validate:"omitempty,cnpj"`
	Brand        null.String  `json:"brand" validate:"omitempty,max=64"`
	Address      null.String  `json:"address" validate:"omitempty,max=255"`
	City         null.String  `json:"city" validate:"omitempty,max=128"`
	State        null.String  `json:"state" validate:"omitempty,len=2,alpha"`
	Latitude     null.Float64 `json:"latitude"`
	Longitude    null.Float64 `json:"longitude"`
	IsCompetitor null.Bool    `json:"is_competitor"`
	Active       null.Bool    `json:"active"`
}

type StationDTO struct {
	ID           uint64   `json:"id"`
	Name         string   `json:"name"`
	TradeName    *string  `json:"trade_name"`
	CNPJ         *string  `json:"cnpj"`
	Brand        *string  `json:"brand"`
	Address      *string  `json:"address"`
	City         *string  `json:"city"`
	State        *string  `json:"state"`
	Latitude     *float64 `json:"latitude"`
	Longitude    *float64 `json:"longitude"`
	IsCompetitor bool     `json:"is_competitor"`
	Active       bool     `json:"active"`
	CreatedAt    string   `json:"created_at"`
}

type ShortStationDTO struct {
	ID   uint64 `json:"id"`
	Name string `json:"name"`
}
