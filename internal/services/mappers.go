package services

import (
	"time"

	"fuel-pricing/internal/dto"
	"fuel-pricing/internal/entities"
	"fuel-pricing/internal/pricing"
	"fuel-pricing/pkg/constants"
	"fuel-pricing/pkg/money"
)

func formatTime(t time.Time) string {
	return t.Format(time.RFC3339)
}

func formatTimePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := formatTime(*t)
	return &s
}

func moneyToDTO(c money.Cents) dto.MoneyDTO {
	return dto.MoneyDTO{Cents: int64(c), Formatted: c.String()}
}

func moneyPtrToDTO(c *money.Cents) *dto.MoneyDTO {
	if c == nil {
		return nil
	}
	m := moneyToDTO(*c)
	return &m
}

func productLabel(product string) string {
	if label, ok := constants.ProductLabels[product]; ok {
		return label
	}
	return product
}

func userToDTO(u *entities.User) dto.UserDTO {
	return dto.UserDTO{
		ID:            u.ID,
		Name:          u.Name,
		Email:         u.Email,
		Login:         u.Login,
		RoleID:        u.RoleID,
		RoleName:      u.RoleName,
		ApprovalLevel: u.ApprovalLevel,
		StationID:     u.StationID,
		Active:        u.Active,
		CreatedAt:     formatTime(u.CreatedAt),
	}
}

func roleToDTO(r *entities.Role) dto.RoleDTO {
	permissions := r.Permissions
	if permissions == nil {
		permissions = []string{}
	}
	return dto.RoleDTO{ID: r.ID, Name: r.Name, Description: r.Description, Permissions: permissions}
}

func stationToDTO(s *entities.Station) dto.StationDTO {
	return dto.StationDTO{
		ID:           s.ID,
		Name:         s.Name,
		TradeName:    s.TradeName,
		CNPJ:         s.CNPJ,
		Brand:        s.Brand,
		Address:      s.Address,
		City:         s.City,
		State:        s.State,
		Latitude:     s.Latitude,
		Longitude:    s.Longitude,
		IsCompetitor: s.IsCompetitor,
		Active:       s.Active,
		CreatedAt:    formatTime(s.CreatedAt),
	}
}

func clientToDTO(c *entities.Client) dto.ClientDTO {
	return dto.ClientDTO{
		ID:        c.ID,
		Name:      c.Name,
		Document:  c.Document,
		Email:     c.Email,
		Phone:     c.Phone,
		StationID: c.StationID,
		Active:    c.Active,
		CreatedAt: formatTime(c.CreatedAt),
	}
}

func paymentMethodToDTO(pm *entities.PaymentMethod) dto.PaymentMethodDTO {
	return dto.PaymentMethodDTO{
		ID:             pm.ID,
		Name:           pm.Name,
		Kind:           pm.Kind,
		FeeBps:         pm.FeeBps,
		FeePercent:     float64(pm.FeeBps) / 100,
		SettlementDays: pm.SettlementDays,
		Active:         pm.Active,
	}
}

func suggestionToDTO(s *entities.PriceSuggestion) dto.SuggestionDTO {
	refs := s.ReferenceResearchIDs
	if refs == nil {
		refs = []int64{}
	}
	return dto.SuggestionDTO{
		ID:                   s.ID,
		Station:              dto.ShortStationDTO{ID: s.StationID, Name: s.StationName},
		ClientID:             s.ClientID,
		PaymentMethodID:      s.PaymentMethodID,
		Product:              s.Product,
		ProductLabel:         productLabel(s.Product),
		CurrentPrice:         moneyToDTO(s.CurrentPrice),
		SuggestedPrice:       moneyToDTO(s.SuggestedPrice),
		CostPrice:            moneyToDTO(s.CostPrice),
		ArlaPrice:            moneyPtrToDTO(s.ArlaPrice),
		ArlaCost:             moneyPtrToDTO(s.ArlaCost),
		VolumeLiters:         s.VolumeLiters,
		Margin:               moneyToDTO(s.MarginCents),
		MarginPercent:        float64(s.MarginBps) / 100,
		ArlaCompensation:     moneyToDTO(s.ArlaCompensation),
		EffectiveMargin:      moneyToDTO(s.EffectiveMargin),
		VariationPercent:     pricing.VariationPercent(s.CurrentPrice, s.SuggestedPrice),
		Observations:         s.Observations,
		ReferenceResearchIDs: refs,
		Status:               s.Status,
		RequiredLevels:       s.RequiredLevels,
		CurrentLevel:         s.CurrentLevel,
		RequestedBy:          dto.ShortUserDTO{ID: s.RequestedBy, Name: s.RequesterName},
		SubmittedAt:          formatTimePtr(s.SubmittedAt),
		ApprovedBy:           s.ApprovedBy,
		ApprovedAt:           formatTimePtr(s.ApprovedAt),
		ApprovedPrice:        moneyPtrToDTO(s.ApprovedPrice),
		RejectedBy:           s.RejectedBy,
		RejectedAt:           formatTimePtr(s.RejectedAt),
		RejectionReason:      s.RejectionReason,
		CreatedAt:            formatTime(s.CreatedAt),
		UpdatedAt:            formatTime(s.UpdatedAt),
	}
}

func suggestionsToDTO(list []entities.PriceSuggestion) []dto.SuggestionDTO {
	out := make([]dto.SuggestionDTO, 0, len(list))
	for i := range list {
		out = append(out, suggestionToDTO(&list[i]))
	}
	return out
}

func competitorPriceToDTO(p *entities.CompetitorPrice) dto.CompetitorPriceDTO {
	return dto.CompetitorPriceDTO{
		ID:         p.ID,
		Station:    dto.ShortStationDTO{ID: p.StationID, Name: p.StationName},
		Brand:      p.Brand,
		Product:    p.Product,
		Price:      moneyToDTO(p.Price),
		ObservedAt: formatTime(p.ObservedAt),
		Source:     p.Source,
		Notes:      p.Notes,
		PhotoURL:   p.PhotoURL,
		CreatedBy:  p.CreatedBy,
		CreatedAt:  formatTime(p.CreatedAt),
	}
}

func notificationToDTO(n *entities.Notification) dto.NotificationDTO {
	return dto.NotificationDTO{
		ID:           n.ID,
		Type:         n.Type,
		Title:        n.Title,
		Message:      n.Message,
		SuggestionID: n.SuggestionID,
		IsRead:       n.IsRead,
		ReadAt:       formatTimePtr(n.ReadAt),
		CreatedAt:    formatTime(n.CreatedAt),
	}
}

func historyEntryToDTO(h *entities.ApprovalHistory) dto.HistoryEntryDTO {
	return dto.HistoryEntryDTO{
		ID:           h.ID,
		SuggestionID: h.SuggestionID,
		Action:       h.Action,
		FromStatus:   h.FromStatus,
		ToStatus:     h.ToStatus,
		Level:        h.Level,
		Comment:      h.Comment,
		Actor:        dto.ShortUserDTO{ID: h.ActorID, Name: h.ActorName},
		Line:         historyLine(h),
		CreatedAt:    formatTime(h.CreatedAt),
	}
}
