package entities

import "time"

type Client struct {
	ID        uint64
	Name      string
	Document  *string
	Email     *string
	Phone     *string
	StationID *uint64
	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

type PaymentMethod struct {
	ID             uint64
	Name           string
	Kind           string
	FeeBps         int
	SettlementDays int
	Active         bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
