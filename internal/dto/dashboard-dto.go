package dto

type ProductMarginDTO struct {
	Product       string   `json:"product"`
	ProductLabel  string   `json:"product_label"`
	AverageMargin MoneyDTO `json:"average_margin"`
	MarginPercent float64  `json:"margin_percent"`
	Count         int64    `json:"count"`
}

type LevelCountDTO struct {
	Level int   `json:"level"`
	Count int64 `json:"count"`
}

type DashboardDTO struct {
	StatusCounts    map[string]int64   `json:"status_counts"`
	Total           int64              `json:"total"`
	ApprovalRate    float64            `json:"approval_rate"`
	MarginByProduct []ProductMarginDTO `json:"margin_by_product"`
	PendingByLevel  []LevelCountDTO    `json:"pending_by_level"`
	RecentActivity  []HistoryEntryDTO  `json:"recent_activity"`
}
