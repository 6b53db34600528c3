package constants

// Suggestion statuses, stored as text in price_suggestions.status.
const (
	SuggestionStatusDraft    = "draft"
	SuggestionStatusPending  = "pending"
	SuggestionStatusApproved = "approved"
	SuggestionStatusRejected = "rejected"
)

var SuggestionStatuses = []string{
	SuggestionStatusDraft,
	SuggestionStatusPending,
	SuggestionStatusApproved,
	SuggestionStatusRejected,
}

// approval_history.action values
const (
	HistoryActionCreate   = "create"
	HistoryActionSubmit   = "submit"
	HistoryActionUpdate   = "update"
	HistoryActionApprove  = "approve"
	HistoryActionReject   = "reject"
	HistoryActionWithdraw = "withdraw"
)

// Fuel products.
const (
	ProductGasolinaComum     = "gasolina_comum"
	ProductGasolinaAditivada = "gasolina_aditivada"
	ProductEtanol            = "etanol"
	ProductDieselS10         = "diesel_s10"
	ProductDieselS500        = "diesel_s500"
	ProductGNV               = "gnv"
)

var FuelProducts = []string{
	ProductGasolinaComum,
	ProductGasolinaAditivada,
	ProductEtanol,
	ProductDieselS10,
	ProductDieselS500,
	ProductGNV,
}

var ProductLabels = map[string]string{
	ProductGasolinaComum:     "Gasolina Comum",
	ProductGasolinaAditivada: "Gasolina Aditivada",
	ProductEtanol:            "Etanol",
	ProductDieselS10:         "Diesel S10",
	ProductDieselS500:        "Diesel S500",
	ProductGNV:               "GNV",
}

func IsFuelProduct(p string) bool {
	for _, fp := range FuelProducts {
		if fp == p {
			return true
		}
	}
	return false
}

// Payment method kinds.
var PaymentKinds = []string{"cash", "debit", "credit", "pix", "fleet_card", "term"}

// Competitor research sources.
var ResearchSources = []string{"visit", "phone", "app", "photo", "import"}
