package authz

const (
	Superuser = "superuser"

	// Price suggestions
	SuggestionsCreate  = "suggestions:create"
	SuggestionsView    = "suggestions:view"
	SuggestionsUpdate  = "suggestions:update"
	SuggestionsDelete  = "suggestions:delete"
	SuggestionsApprove = "suggestions:approve"

	// Stations (sis_empresa)
	StationsCreate = "stations:create"
	StationsView   = "stations:view"
	StationsUpdate = "stations:update"
	StationsDelete = "stations:delete"

	// Clients
	ClientsCreate = "clients:create"
	ClientsView   = "clients:view"
	ClientsUpdate = "clients:update"
	ClientsDelete = "clients:delete"

	// Payment methods (tipos_pagamento)
	PaymentMethodsCreate = "payment_methods:create"
	PaymentMethodsView   = "payment_methods:view"
	PaymentMethodsUpdate = "payment_methods:update"
	PaymentMethodsDelete = "payment_methods:delete"

	// Competitor research
	ResearchCreate = "research:create"
	ResearchView   = "research:view"
	ResearchDelete = "research:delete"
	ResearchImport = "research:import"

	// Users and roles
	UsersCreate = "users:create"
	UsersView   = "users:view"
	UsersUpdate = "users:update"
	UsersDelete = "users:delete"
	RolesManage = "roles:manage"

	ReportsView = "reports:view"

	// Data scopes
	ScopeAll     = "scope:all"
	ScopeStation = "scope:station"
	ScopeOwn     = "scope:own"
)

// AllPermissions is what the seeder writes for the admin role.
var AllPermissions = []string{
	Superuser,
	SuggestionsCreate, SuggestionsView, SuggestionsUpdate, SuggestionsDelete, SuggestionsApprove,
	StationsCreate, StationsView, StationsUpdate, StationsDelete,
	ClientsCreate, ClientsView, ClientsUpdate, ClientsDelete,
	PaymentMethodsCreate, PaymentMethodsView, PaymentMethodsUpdate, PaymentMethodsDelete,
	ResearchCreate, ResearchView, ResearchDelete, ResearchImport,
	UsersCreate, UsersView, UsersUpdate, UsersDelete, RolesManage,
	ReportsView,
	ScopeAll, ScopeStation, ScopeOwn,
}

func IsKnownPermission(p string) bool {
	for _, known := range AllPermissions {
		if known == p {
			return true
		}
	}
	return false
}
