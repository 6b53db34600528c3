package dto

import "github.com/aarondl/null/v8"

// Prices arrive as typed by the user ("5,89", "R$ 5,89", "5.899") and are parsed into centavos.
type CreateSuggestionDTO struct {
	StationID            uint64  `json:"station_id" validate:"required"`
	ClientID             *uint64 `json:"client_id"`
	PaymentMethodID      *uint64 `json:"payment_method_id"`
	Product              string  `json:"product" validate:"required,fuel_product"`
	CurrentPrice         string  `json:"current_price" validate:"required,max=32"`
	SuggestedPrice       string  `json:"suggested_price" validate:"required,max=32"`
	CostPrice            string  `json:"cost_price" validate:"required,max=32"`
	ArlaPrice            *string `json:"arla_price" validate:"omitempty,max=32"`
	ArlaCost             *string `json:"arla_cost" validate:"omitempty,max=32"`
	VolumeLiters         *int64  `json:"volume_liters" validate:"omitempty,gt=0"`
	Observations         *string `json:"observations" validate:"omitempty,max=2000"`
	ReferenceResearchIDs []int64 `json:"reference_research_ids" validate:"omitempty,dive,gt=0"`
	Submit               bool    `json:"submit"`
}

// BatchCreateSuggestionDTO creates the same proposal for several stations at once.
type BatchCreateSuggestionDTO struct {
	StationIDs []uint64 `json:"station_ids" validate:"required,min=1,max=100,dive,required"`
	CreateSuggestionDTO
}

type UpdateSuggestionDTO struct {
	ClientID             null.Uint64 `json:"client_id"`
	PaymentMethodID      null.Uint64 `json:"payment_method_id"`
	CurrentPrice         null.String `json:"current_price" validate:"omitempty,max=32"`
	SuggestedPrice       null.String `json:"suggested_price" validate:"omitempty,max=32"`
	CostPrice            null.String `json:"cost_price" validate:"omitempty,max=32"`
	ArlaPrice            null.String `json:"arla_price" validate:"omitempty,max=32"`
	ArlaCost             null.String `json:"arla_cost" validate:"omitempty,max=32"`
	VolumeLiters         null.Int64  `json:"volume_liters" validate:"omitempty,gt=0"`
	Observations         null.String `json:"observations" validate:"omitempty,max=2000"`
	ReferenceResearchIDs []int64     `json:"reference_research_ids" validate:"omitempty,dive,gt=0"`
}

type ApproveDTO struct {
	Comment       *string `json:"comment" validate:"omitempty,max=1000"`
	ApprovedPrice *string `json:"approved_price" validate:"omitempty,max=32"`
}

type RejectDTO struct {
	Reason string `json:"reason" validate:"required,min=3,max=1000"`
}

type WithdrawDTO struct {
	Comment *string `json:"comment" validate:"omitempty,max=1000"`
}

type BatchDecisionDTO struct {
	IDs     []uint64 `json:"ids" validate:"required,min=1,max=200,dive,required"`
	Action  string   `json:"action" validate:"required,oneof=approve reject"`
	Comment *string  `json:"comment" validate:"omitempty,max=1000"`
	Reason  string   `json:"reason" validate:"required_if=Action reject,omitempty,min=3,max=1000"`
}

type BatchResultDTO struct {
	ID     uint64 `json:"id"`
	OK     bool   `json:"ok"`
	Status string `json:"status,omitempty"`
	Error  string `json:"error,omitempty"`
}

type MoneyDTO struct {
	Cents     int64  `json:"cents"`
	Formatted string `json:"formatted"`
}

type SuggestionDTO struct {
	ID                   uint64          `json:"id"`
	Station              ShortStationDTO `json:"station"`
	ClientID             *uint64         `json:"client_id"`
	PaymentMethodID      *uint64         `json:"payment_method_id"`
	Product              string          `json:"product"`
	ProductLabel         string          `json:"product_label"`
	CurrentPrice         MoneyDTO        `json:"current_price"`
	SuggestedPrice       MoneyDTO        `json:"suggested_price"`
	CostPrice            MoneyDTO        `json:"cost_price"`
	ArlaPrice            *MoneyDTO       `json:"arla_price"`
	ArlaCost             *MoneyDTO       `json:"arla_cost"`
	VolumeLiters         *int64          `json:"volume_liters"`
	Margin               MoneyDTO        `json:"margin"`
	MarginPercent        float64         `json:"margin_percent"`
	ArlaCompensation     MoneyDTO        `json:"arla_compensation"`
	EffectiveMargin      MoneyDTO        `json:"effective_margin"`
	VariationPercent     float64         `json:"variation_percent"`
	Observations         *string         `json:"observations"`
	ReferenceResearchIDs []int64         `json:"reference_research_ids"`
	Status               string          `json:"status"`
	RequiredLevels       int             `json:"required_levels"`
	CurrentLevel         int             `json:"current_level"`
	RequestedBy          ShortUserDTO    `json:"requested_by"`
	SubmittedAt          *string         `json:"submitted_at"`
	ApprovedBy           *uint64         `json:"approved_by"`
	ApprovedAt           *string         `json:"approved_at"`
	ApprovedPrice        *MoneyDTO       `json:"approved_price"`
	RejectedBy           *uint64         `json:"rejected_by"`
	RejectedAt           *string         `json:"rejected_at"`
	RejectionReason      *string         `json:"rejection_reason"`
	CreatedAt            string          `json:"created_at"`
	UpdatedAt            string          `json:"updated_at"`
}

type ShortUserDTO struct {
	ID   uint64 `json:"id"`
	Name string `json:"name"`
}

type HistoryEntryDTO struct {
	ID           uint64       `json:"id"`
	SuggestionID uint64       `json:"suggestion_id"`
	Action       string       `json:"action"`
	FromStatus   *string      `json:"from_status"`
	ToStatus     string       `json:"to_status"`
	Level        int          `json:"level"`
	Comment      *string      `json:"comment"`
	Actor        ShortUserDTO `json:"actor"`
	Line         string       `json:"line"`
	CreatedAt    string       `json:"created_at"`
}

// TimelineBlockDTO groups the history rows written by one transaction.
type TimelineBlockDTO struct {
	TxID      string            `json:"tx_id"`
	Actor     ShortUserDTO      `json:"actor"`
	CreatedAt string            `json:"created_at"`
	Lines     []string          `json:"lines"`
	Entries   []HistoryEntryDTO `json:"entries"`
}

// SuggestionListQuery carries list options that do not fit filter[...] params.
type SuggestionListQuery struct {
	Mine        bool    `query:"mine"`
	RequestedBy *uint64 `query:"requested_by"`
	From        string  `query:"from" validate:"omitempty,datetime=2006-01-02"`
	To          string  `query:"to" validate:"omitempty,datetime=2006-01-02"`
}
