package seeders

import "fuel-pricing/internal/authz"

type roleSeed struct {
	Name        string
	Description string
	Permissions []string
}

var rolesData = []roleSeed{
	{
		Name:        "admin",
		Description: "Full access",
		Permissions: authz.AllPermissions,
	},
	{
		Name:        "diretor",
		Description: "Approves at any level and sees every station",
		Permissions: []string{
			authz.SuggestionsView, authz.SuggestionsApprove,
			authz.StationsView, authz.ClientsView, authz.PaymentMethodsView,
			authz.ResearchView, authz.ReportsView, authz.ScopeAll,
		},
	},
	{
		Name:        "gerente",
		Description: "Regional manager: proposes, approves and maintains the catalogue",
		Permissions: []string{
			authz.SuggestionsCreate, authz.SuggestionsView, authz.SuggestionsUpdate,
			authz.SuggestionsDelete, authz.SuggestionsApprove,
			authz.StationsCreate, authz.StationsView, authz.StationsUpdate,
			authz.ClientsCreate, authz.ClientsView, authz.ClientsUpdate,
			authz.PaymentMethodsView,
			authz.ResearchCreate, authz.ResearchView, authz.ResearchImport,
			authz.ReportsView, authz.ScopeAll,
		},
	},
	{
		Name:        "operador",
		Description: "Station operator: proposes prices and records competitor research",
		Permissions: []string{
			authz.SuggestionsCreate, authz.SuggestionsView, authz.SuggestionsUpdate, authz.SuggestionsDelete,
			authz.StationsView, authz.ClientsView, authz.PaymentMethodsView,
			authz.ResearchCreate, authz.ResearchView,
			authz.ScopeStation,
		},
	},
}

var paymentMethodsData = []struct {
	Name           string
	Kind           string
	FeeBps         int
	SettlementDays int
}{
	{Name: "Dinheiro", Kind: "cash", FeeBps: 0, SettlementDays: 0},
	{Name: "PIX", Kind: "pix", FeeBps: 0, SettlementDays: 0},
	{Name: "Débito", Kind: "debit", FeeBps: 150, SettlementDays: 1},
	{Name: "Crédito", Kind: "credit", FeeBps: 320, SettlementDays: 30},
	{Name: "Cartão Frota", Kind: "fleet_card", FeeBps: 450, SettlementDays: 30},
	{Name: "Faturado", Kind: "term", FeeBps: 0, SettlementDays: 28},
}
