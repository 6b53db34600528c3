package entities

import (
	"time"

	"fuel-pricing/pkg/money"
)

type StatusCount struct {
	Status string
	Count  int64
}

type ProductMargin struct {
	Product        string
	AvgMarginCents money.Cents
	AvgMarginBps   int64
	Count          int64
}

type LevelCount struct {
	Level int
	Count int64
}

// LatestPrice is the most recent price of one product at one station.
type LatestPrice struct {
	StationID uint64
	Product   string
	Price     money.Cents
	At        time.Time
}
