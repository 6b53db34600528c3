package entities

import (
	"time"

	"fuel-pricing/pkg/money"
)

type CompetitorPrice struct {
	ID         uint64
	StationID  uint64
	Product    string
	Price      money.Cents
	ObservedAt time.Time
	Source     string
	Notes      *string
	PhotoURL   *string
	CreatedBy  uint64
	CreatedAt  time.Time

	StationName string
	Brand       *string
}
