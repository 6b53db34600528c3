package dto

import "github.com/aarondl/null/v8"

type CreateClientDTO struct {
	Name      string  `json:"name" validate:"required,max=255"`
	Document  *string `json:"document" validate:"omitempty,cpf_cnpj"`
	Email     *string `json:"email" validate:"omitempty,email"`
	Phone     *string `json:"phone" validate:"omitempty,br_phone"`
	StationID *uint64 `json:"station_id"`
}

type UpdateClientDTO struct {
	Name      null.String `json:"name" validate:"omitempty,max=255"`
	Document  null.String `json:"document" validate:"omitempty,cpf_cnpj"`
	Email     null.String `json:"email" validate:"omitempty,email"`
	Phone     null.String `json:"phone" validate:"omitempty,br_phone"`
	StationID null.Uint64 `json:"station_id"`
	Active    null.Bool   `json:"active"`
}

type ClientDTO struct {
	ID        uint64  `json:"id"`
	Name      string  `json:"name"`
	Document  *string `json:"document"`
	Email     *string `json:"email"`
	Phone     *string `json:"phone"`
	StationID *uint64 `json:"station_id"`
	Active    bool    `json:"active"`
	CreatedAt string  `json:"created_at"`
}

type CreatePaymentMethodDTO struct {
	Name           string `json:"name" validate:"required,max=128"`
	Kind           string `json:"kind" validate:"required,oneof=cash debit credit pix fleet_card term"`
	FeeBps         int    `json:"fee_bps" validate:"gte=0,lte=10000"`
	SettlementDays int    `json:"settlement_days" validate:"gte=0,lte=365"`
}

type UpdatePaymentMethodDTO struct {
	Name           null.String `json:"name" validate:"omitempty,max=128"`
	Kind           null.String `json:"kind" validate:"omitempty,oneof=cash debit credit pix fleet_card term"`
	FeeBps         null.Int64  `json:"fee_bps" validate:"omitempty,gte=0,lte=10000"`
	SettlementDays null.Int64  `json:"settlement_days" validate:"omitempty,gte=0,lte=365"`
	Active         null.Bool   `json:"active"`
}

type PaymentMethodDTO struct {
	ID             uint64  `json:"id"`
	Name           string  `json:"name"`
	Kind           string  `json:"kind"`
	FeeBps         int     `json:"fee_bps"`
	FeePercent     float64 `json:"fee_percent"`
	SettlementDays int     `json:"settlement_days"`
	Active         bool    `json:"active"`
}
