package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"fuel-pricing/internal/authz"
	"fuel-pricing/internal/dto"
	"fuel-pricing/internal/entities"
	"fuel-pricing/internal/events"
	"fuel-pricing/internal/pricing"
	"fuel-pricing/internal/repositories"
	"fuel-pricing/pkg/constants"
	apperrors "fuel-pricing/pkg/errors"
	"fuel-pricing/pkg/metrics"
	"fuel-pricing/pkg/money"
	"fuel-pricing/pkg/types"
)

type PriceSuggestionServiceInterface interface {
	GetSuggestions(ctx context.Context, filter types.Filter, query dto.SuggestionListQuery) ([]dto.SuggestionDTO, uint64, error)
	FindSuggestion(ctx context.Context, id uint64) (*dto.SuggestionDTO, error)
	CreateSuggestion(ctx context.Context, payload dto.CreateSuggestionDTO) (*dto.SuggestionDTO, error)
	BatchCreateSuggestions(ctx context.Context, payload dto.BatchCreateSuggestionDTO) ([]dto.SuggestionDTO, error)
	UpdateSuggestion(ctx context.Context, id uint64, payload dto.UpdateSuggestionDTO) (*dto.SuggestionDTO, error)
	SubmitSuggestion(ctx context.Context, id uint64) (*dto.SuggestionDTO, error)
	DeleteSuggestion(ctx context.Context, id uint64) error
}

type PriceSuggestionService struct {
	*BaseService
	txManager      repositories.TxManagerInterface
	suggestionRepo repositories.PriceSuggestionRepositoryInterface
	historyRepo    repositories.ApprovalHistoryRepositoryInterface
	stationRepo    repositories.StationRepositoryInterface
	calculator     *pricing.Calculator
	publisher      EventPublisher
	metrics        *metrics.Metrics
	logger         *zap.Logger
	now            func() time.Time
}

func NewPriceSuggestionService(
	base *BaseService,
	txManager repositories.TxManagerInterface,
	suggestionRepo repositories.PriceSuggestionRepositoryInterface,
	historyRepo repositories.ApprovalHistoryRepositoryInterface,
	stationRepo repositories.StationRepositoryInterface,
	calculator *pricing.Calculator,
	publisher EventPublisher,
	m *metrics.Metrics,
	logger *zap.Logger,
) PriceSuggestionServiceInterface {
	return &PriceSuggestionService{
		BaseService:    base,
		txManager:      txManager,
		suggestionRepo: suggestionRepo,
		historyRepo:    historyRepo,
		stationRepo:    stationRepo,
		calculator:     calculator,
		publisher:      publisher,
		metrics:        m,
		logger:         logger,
		now:            time.Now,
	}
}

func parsePrice(field, raw string) (money.Cents, error) {
	c, err := money.ParseDecimal(raw)
	if err != nil {
		return 0, apperrors.NewInvalidInputError("%s: %v", field, err)
	}
	if c <= 0 {
		return 0, apperrors.NewInvalidInputError("%s must be greater than zero", field)
	}
	return c, nil
}

func parseOptionalPrice(field string, raw *string) (*money.Cents, error) {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil, nil
	}
	c, err := parsePrice(field, *raw)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// recompute refreshes every derived column. ARLA prices only mean something for diesel S10
// and are dropped for other products.
func (s *PriceSuggestionService) recompute(e *entities.PriceSuggestion) error {
	if e.Product != constants.ProductDieselS10 {
		e.ArlaPrice, e.ArlaCost = nil, nil
	}
	if (e.ArlaPrice == nil) != (e.ArlaCost == nil) {
		return apperrors.NewInvalidInputError("arla_price and arla_cost must be given together")
	}
	b := s.calculator.Compute(pricing.Input{
		Product:        e.Product,
		CurrentPrice:   e.CurrentPrice,
		SuggestedPrice: e.SuggestedPrice,
		CostPrice:      e.CostPrice,
		ArlaPrice:      e.ArlaPrice,
		ArlaCost:       e.ArlaCost,
	})
	e.MarginCents = b.Margin
	e.MarginBps = b.MarginBps
	e.ArlaCompensation = b.ArlaCompensation
	e.EffectiveMargin = b.EffectiveMargin
	e.VariationBps = b.VariationBps
	e.RequiredLevels = b.RequiredLevels
	return nil
}

func (s *PriceSuggestionService) buildSuggestion(payload dto.CreateSuggestionDTO, stationID, requesterID uint64) (*entities.PriceSuggestion, error) {
	current, err := parsePrice("current_price", payload.CurrentPrice)
	if err != nil {
		return nil, err
	}
	suggested, err := parsePrice("suggested_price", payload.SuggestedPrice)
	if err != nil {
		return nil, err
	}
	cost, err := parsePrice("cost_price", payload.CostPrice)
	if err != nil {
		return nil, err
	}
	arlaPrice, err := parseOptionalPrice("arla_price", payload.ArlaPrice)
	if err != nil {
		return nil, err
	}
	arlaCost, err := parseOptionalPrice("arla_cost", payload.ArlaCost)
	if err != nil {
		return nil, err
	}

	e := &entities.PriceSuggestion{
		StationID:            stationID,
		ClientID:             payload.ClientID,
		PaymentMethodID:      payload.PaymentMethodID,
		Product:              payload.Product,
		CurrentPrice:         current,
		SuggestedPrice:       suggested,
		CostPrice:            cost,
		ArlaPrice:            arlaPrice,
		ArlaCost:             arlaCost,
		VolumeLiters:         payload.VolumeLiters,
		Observations:         payload.Observations,
		ReferenceResearchIDs: payload.ReferenceResearchIDs,
		Status:               constants.SuggestionStatusDraft,
		RequestedBy:          requesterID,
	}
	if err := s.recompute(e); err != nil {
		return nil, err
	}
	return e, nil
}

// canUseStation: actors bound to a station may only propose prices for it
// unless they hold scope:all.
func canUseStation(actor *entities.User, perms map[string]bool, stationID uint64) bool {
	if perms[authz.Superuser] || perms[authz.ScopeAll] || actor.StationID == nil {
		return true
	}
	return *actor.StationID == stationID
}

func (s *PriceSuggestionService) checkStations(ctx context.Context, actor *entities.User, perms map[string]bool, stationIDs []uint64) error {
	stations, err := s.stationRepo.FindStationsByIDs(ctx, stationIDs)
	if err != nil {
		return err
	}
	found := make(map[uint64]*entities.Station, len(stations))
	for i := range stations {
		found[stations[i].ID] = &stations[i]
	}
	for _, id := range stationIDs {
		st, ok := found[id]
		if !ok {
			return apperrors.NewInvalidInputError("station %d does not exist", id)
		}
		if st.IsCompetitor {
			return apperrors.NewInvalidInputError("station %d is a competitor station", id)
		}
		if !st.Active {
			return apperrors.NewInvalidInputError("station %d is inactive", id)
		}
		if !canUseStation(actor, perms, id) {
			return apperrors.ErrForbidden
		}
	}
	return nil
}

// insert stores a new suggestion and its history. With submit it goes straight to pending.
func (s *PriceSuggestionService) insert(ctx context.Context, tx pgx.Tx, e *entities.PriceSuggestion, submit bool, hw *historyWriter) error {
	if submit {
		now := s.now()
		e.Status = constants.SuggestionStatusPending
		e.SubmittedAt = &now
	}
	if _, err := s.suggestionRepo.CreateSuggestion(ctx, tx, e); err != nil {
		return err
	}
	created := constants.SuggestionStatusDraft
	draft := *e
	draft.Status = created
	if err := hw.write(ctx, tx, &draft, constants.HistoryActionCreate, nil, nil); err != nil {
		return err
	}
	if submit {
		return hw.write(ctx, tx, e, constants.HistoryActionSubmit, &created, nil)
	}
	return nil
}

func (s *PriceSuggestionService) CreateSuggestion(ctx context.Context, payload dto.CreateSuggestionDTO) (*dto.SuggestionDTO, error) {
	actor, perms, err := s.Actor(ctx)
	if err != nil {
		return nil, err
	}
	if !authz.CanDo(authz.SuggestionsCreate, authz.Context{Actor: actor, Permissions: perms}) {
		return nil, apperrors.ErrForbidden
	}
	if err := s.checkStations(ctx, actor, perms, []uint64{payload.StationID}); err != nil {
		return nil, err
	}

	e, err := s.buildSuggestion(payload, payload.StationID, actor.ID)
	if err != nil {
		return nil, err
	}

	hw := newHistoryWriter(s.historyRepo, actor.ID)
	err = s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		return s.insert(ctx, tx, e, payload.Submit, hw)
	})
	if err != nil {
		s.logger.Error("failed to create price suggestion", zap.Uint64("stationID", payload.StationID), zap.Error(err))
		return nil, err
	}

	s.metrics.SuggestionAction(constants.HistoryActionCreate)
	if payload.Submit {
		s.metrics.SuggestionAction(constants.HistoryActionSubmit)
		// reloaded for the joined station and requester names
		submitted, err := s.suggestionRepo.FindSuggestion(ctx, e.ID)
		if err != nil {
			return nil, err
		}
		s.publisher.Publish(ctx, events.NewSuggestionEvent(events.SuggestionSubmitted, *submitted, actor.ID, hw.txID, nil))
	}
	s.logger.Info("price suggestion created",
		zap.Uint64("suggestionID", e.ID),
		zap.String("status", e.Status),
		zap.Int("requiredLevels", e.RequiredLevels),
	)
	return s.FindSuggestion(ctx, e.ID)
}

// BatchCreateSuggestions creates the same proposal for every station in one transaction.
func (s *PriceSuggestionService) BatchCreateSuggestions(ctx context.Context, payload dto.BatchCreateSuggestionDTO) ([]dto.SuggestionDTO, error) {
	actor, perms, err := s.Actor(ctx)
	if err != nil {
		return nil, err
	}
	if !authz.CanDo(authz.SuggestionsCreate, authz.Context{Actor: actor, Permissions: perms}) {
		return nil, apperrors.ErrForbidden
	}

	stationIDs := uniqueIDs(payload.StationIDs)
	if err := s.checkStations(ctx, actor, perms, stationIDs); err != nil {
		return nil, err
	}

	created := make([]*entities.PriceSuggestion, 0, len(stationIDs))
	for _, stationID := range stationIDs {
		e, err := s.buildSuggestion(payload.CreateSuggestionDTO, stationID, actor.ID)
		if err != nil {
			return nil, err
		}
		created = append(created, e)
	}

	hw := newHistoryWriter(s.historyRepo, actor.ID)
	err = s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		for _, e := range created {
			if err := s.insert(ctx, tx, e, payload.Submit, hw); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		s.logger.Error("batch create failed", zap.Int("stations", len(stationIDs)), zap.Error(err))
		return nil, err
	}

	result := make([]dto.SuggestionDTO, 0, len(created))
	for _, e := range created {
		found, err := s.suggestionRepo.FindSuggestion(ctx, e.ID)
		if err != nil {
			return nil, err
		}
		s.metrics.SuggestionAction(constants.HistoryActionCreate)
		if payload.Submit {
			s.metrics.SuggestionAction(constants.HistoryActionSubmit)
			s.publisher.Publish(ctx, events.NewSuggestionEvent(events.SuggestionSubmitted, *found, actor.ID, hw.txID, nil))
		}
		result = append(result, suggestionToDTO(found))
	}
	s.logger.Info("price suggestions created in batch", zap.Int("count", len(result)), zap.Uint64("userID", actor.ID))
	return result, nil
}

func uniqueIDs(ids []uint64) []uint64 {
	seen := make(map[uint64]struct{}, len(ids))
	out := make([]uint64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func applySuggestionUpdate(e *entities.PriceSuggestion, payload dto.UpdateSuggestionDTO) error {
	if payload.ClientID.Valid {
		id := payload.ClientID.Uint64
		e.ClientID = &id
	}
	if payload.PaymentMethodID.Valid {
		id := payload.PaymentMethodID.Uint64
		e.PaymentMethodID = &id
	}
	prices := []struct {
		field  string
		value  string
		valid  bool
		target *money.Cents
	}{
		{"current_price", payload.CurrentPrice.String, payload.CurrentPrice.Valid, &e.CurrentPrice},
		{"suggested_price", payload.SuggestedPrice.String, payload.SuggestedPrice.Valid, &e.SuggestedPrice},
		{"cost_price", payload.CostPrice.String, payload.CostPrice.Valid, &e.CostPrice},
	}
	for _, p := range prices {
		if !p.valid {
			continue
		}
		c, err := parsePrice(p.field, p.value)
		if err != nil {
			return err
		}
		*p.target = c
	}
	if payload.ArlaPrice.Valid {
		c, err := parseOptionalPrice("arla_price", &payload.ArlaPrice.String)
		if err != nil {
			return err
		}
		e.ArlaPrice = c
	}
	if payload.ArlaCost.Valid {
		c, err := parseOptionalPrice("arla_cost", &payload.ArlaCost.String)
		if err != nil {
			return err
		}
		e.ArlaCost = c
	}
	if payload.VolumeLiters.Valid {
		v := payload.VolumeLiters.Int64
		e.VolumeLiters = &v
	}
	if payload.Observations.Valid {
		obs := payload.Observations.String
		e.Observations = &obs
	}
	if payload.ReferenceResearchIDs != nil {
		e.ReferenceResearchIDs = payload.ReferenceResearchIDs
	}
	return nil
}

// UpdateSuggestion edits a draft or pending suggestion. Editing a pending one restarts
// its approval from level zero.
func (s *PriceSuggestionService) UpdateSuggestion(ctx context.Context, id uint64, payload dto.UpdateSuggestionDTO) (*dto.SuggestionDTO, error) {
	actor, perms, err := s.Actor(ctx)
	if err != nil {
		return nil, err
	}

	var updated entities.PriceSuggestion
	var resubmitted bool
	hw := newHistoryWriter(s.historyRepo, actor.ID)
	err = s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		e, err := s.suggestionRepo.FindSuggestionForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}
		if !authz.CanDo(authz.SuggestionsUpdate, authz.Context{Actor: actor, Permissions: perms, Target: e}) {
			return apperrors.ErrForbidden
		}
		if e.Status != constants.SuggestionStatusDraft && e.Status != constants.SuggestionStatusPending {
			return apperrors.ErrInvalidStatusTransition
		}

		from := e.Status
		if err := applySuggestionUpdate(e, payload); err != nil {
			return err
		}
		if err := s.recompute(e); err != nil {
			return err
		}
		if e.Status == constants.SuggestionStatusPending {
			now := s.now()
			e.CurrentLevel = 0
			e.SubmittedAt = &now
			// an override was made against the old values
			e.ApprovedPrice = nil
			resubmitted = true
		}
		if err := s.suggestionRepo.UpdateSuggestion(ctx, tx, e); err != nil {
			return err
		}
		if err := hw.write(ctx, tx, e, constants.HistoryActionUpdate, &from, nil); err != nil {
			return err
		}
		if resubmitted {
			if err := hw.write(ctx, tx, e, constants.HistoryActionSubmit, &from, nil); err != nil {
				return err
			}
		}
		updated = *e
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.SuggestionAction(constants.HistoryActionUpdate)
	if resubmitted {
		s.publisher.Publish(ctx, events.NewSuggestionEvent(events.SuggestionSubmitted, updated, actor.ID, hw.txID, nil))
	}
	return s.FindSuggestion(ctx, id)
}

func (s *PriceSuggestionService) SubmitSuggestion(ctx context.Context, id uint64) (*dto.SuggestionDTO, error) {
	actor, perms, err := s.Actor(ctx)
	if err != nil {
		return nil, err
	}

	var submitted entities.PriceSuggestion
	hw := newHistoryWriter(s.historyRepo, actor.ID)
	err = s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		e, err := s.suggestionRepo.FindSuggestionForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}
		if !authz.CanDo(authz.SuggestionsUpdate, authz.Context{Actor: actor, Permissions: perms, Target: e}) {
			return apperrors.ErrForbidden
		}
		if err := ensureTransition(e.Status, constants.SuggestionStatusPending); err != nil {
			return err
		}

		from := e.Status
		now := s.now()
		e.Status = constants.SuggestionStatusPending
		e.CurrentLevel = 0
		e.SubmittedAt = &now
		if err := s.suggestionRepo.UpdateSuggestion(ctx, tx, e); err != nil {
			return err
		}
		if err := hw.write(ctx, tx, e, constants.HistoryActionSubmit, &from, nil); err != nil {
			return err
		}
		submitted = *e
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.SuggestionAction(constants.HistoryActionSubmit)
	s.publisher.Publish(ctx, events.NewSuggestionEvent(events.SuggestionSubmitted, submitted, actor.ID, hw.txID, nil))
	s.logger.Info("price suggestion submitted", zap.Uint64("suggestionID", id), zap.Uint64("userID", actor.ID))
	return s.FindSuggestion(ctx, id)
}

// DeleteSuggestion cancels a draft. Anything past draft is part of the audit trail and stays.
func (s *PriceSuggestionService) DeleteSuggestion(ctx context.Context, id uint64) error {
	actor, perms, err := s.Actor(ctx)
	if err != nil {
		return err
	}
	err = s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		e, err := s.suggestionRepo.FindSuggestionForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}
		if !authz.CanDo(authz.SuggestionsDelete, authz.Context{Actor: actor, Permissions: perms, Target: e}) {
			return apperrors.ErrForbidden
		}
		if e.Status != constants.SuggestionStatusDraft {
			return apperrors.ErrInvalidStatusTransition
		}
		return s.suggestionRepo.DeleteSuggestion(ctx, tx, id)
	})
	if err != nil {
		return err
	}
	s.logger.Info("price suggestion deleted", zap.Uint64("suggestionID", id), zap.Uint64("userID", actor.ID))
	return nil
}

func (s *PriceSuggestionService) FindSuggestion(ctx context.Context, id uint64) (*dto.SuggestionDTO, error) {
	actor, perms, err := s.Actor(ctx)
	if err != nil {
		return nil, err
	}
	e, err := s.suggestionRepo.FindSuggestion(ctx, id)
	if err != nil {
		return nil, err
	}
	if !authz.CanDo(authz.SuggestionsView, authz.Context{Actor: actor, Permissions: perms, Target: e}) {
		return nil, apperrors.ErrForbidden
	}
	result := suggestionToDTO(e)
	return &result, nil
}

func parseDay(raw string, nextDay bool) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	day, err := time.ParseInLocation("2006-01-02", raw, time.Local)
	if err != nil {
		return nil, apperrors.NewInvalidInputError("invalid date %q, expected YYYY-MM-DD", raw)
	}
	if nextDay {
		day = day.AddDate(0, 0, 1)
	}
	return &day, nil
}

// listOptions narrows the list to what the actor may see; "to" is inclusive.
func listOptions(actor *entities.User, perms map[string]bool, query dto.SuggestionListQuery) (repositories.SuggestionListOptions, error) {
	var opts repositories.SuggestionListOptions
	var err error
	if opts.From, err = parseDay(query.From, false); err != nil {
		return opts, err
	}
	if opts.To, err = parseDay(query.To, true); err != nil {
		return opts, err
	}

	if query.Mine {
		opts.RequestedBy = &actor.ID
	} else if query.RequestedBy != nil {
		opts.RequestedBy = query.RequestedBy
	}

	seesAll := perms[authz.Superuser] || perms[authz.ScopeAll] ||
		(perms[authz.SuggestionsApprove] && actor.ApprovalLevel > 0)
	if !seesAll {
		opts.VisibleToUser = &actor.ID
		if perms[authz.ScopeStation] && actor.StationID != nil {
			opts.VisibleStationID = actor.StationID
		}
	}
	return opts, nil
}

func (s *PriceSuggestionService) GetSuggestions(ctx context.Context, filter types.Filter, query dto.SuggestionListQuery) ([]dto.SuggestionDTO, uint64, error) {
	actor, perms, err := s.Actor(ctx)
	if err != nil {
		return nil, 0, err
	}
	if !authz.CanDo(authz.SuggestionsView, authz.Context{Actor: actor, Permissions: perms}) {
		return nil, 0, apperrors.ErrForbidden
	}
	opts, err := listOptions(actor, perms, query)
	if err != nil {
		return nil, 0, err
	}

	list, total, err := s.suggestionRepo.GetSuggestions(ctx, filter, opts)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			s.logger.Error("failed to list price suggestions", zap.Error(err))
		}
		return nil, 0, err
	}
	return suggestionsToDTO(list), total, nil
}
