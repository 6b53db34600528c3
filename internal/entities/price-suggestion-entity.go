package entities

import (
	"time"

	"fuel-pricing/pkg/money"
)

type PriceSuggestion struct {
	ID              uint64
	StationID       uint64
	ClientID        *uint64
	PaymentMethodID *uint64
	Product         string

	CurrentPrice   money.Cents
	SuggestedPrice money.Cents
	CostPrice      money.Cents
	ArlaPrice      *money.Cents
	ArlaCost       *money.Cents
	VolumeLiters   *int64

	MarginCents      money.Cents
	MarginBps        int64
	ArlaCompensation money.Cents
	EffectiveMargin  money.Cents
	VariationBps     int64

	Observations         *string
	ReferenceResearchIDs []int64

	Status         string
	RequiredLevels int
	CurrentLevel   int
	RequestedBy    uint64
	SubmittedAt    *time.Time

	ApprovedBy      *uint64
	ApprovedAt      *time.Time
	ApprovedPrice   *money.Cents
	RejectedBy      *uint64
	RejectedAt      *time.Time
	RejectionReason *string

	CreatedAt time.Time
	UpdatedAt time.Time

	// joined, read-only
	StationName   string
	RequesterName string
}

type ApprovalHistory struct {
	ID           uint64
	SuggestionID uint64
	TxID         string
	Action       string
	FromStatus   *string
	ToStatus     string
	Level        int
	ActorID      uint64
	Comment      *string
	CreatedAt    time.Time

	ActorName string
}
