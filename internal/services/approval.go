package services

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"fuel-pricing/internal/authz"
	"fuel-pricing/internal/dto"
	"fuel-pricing/internal/entities"
	"fuel-pricing/internal/events"
	"fuel-pricing/internal/repositories"
	"fuel-pricing/pkg/constants"
	apperrors "fuel-pricing/pkg/errors"
	"fuel-pricing/pkg/metrics"
	"fuel-pricing/pkg/types"
)

const minReasonLen = 3

type ApprovalServiceInterface interface {
	Approve(ctx context.Context, id uint64, payload dto.ApproveDTO) (*dto.SuggestionDTO, error)
	Reject(ctx context.Context, id uint64, payload dto.RejectDTO) (*dto.SuggestionDTO, error)
	Withdraw(ctx context.Context, id uint64, payload dto.WithdrawDTO) (*dto.SuggestionDTO, error)
	BatchDecide(ctx context.Context, payload dto.BatchDecisionDTO) ([]dto.BatchResultDTO, error)
	GetPending(ctx context.Context, filter types.Filter) ([]dto.SuggestionDTO, uint64, error)
}

type ApprovalService struct {
	*BaseService
	txManager      repositories.TxManagerInterface
	suggestionRepo repositories.PriceSuggestionRepositoryInterface
	historyRepo    repositories.ApprovalHistoryRepositoryInterface
	publisher      EventPublisher
	metrics        *metrics.Metrics
	logger         *zap.Logger
	now            func() time.Time
}

func NewApprovalService(
	base *BaseService,
	txManager repositories.TxManagerInterface,
	suggestionRepo repositories.PriceSuggestionRepositoryInterface,
	historyRepo repositories.ApprovalHistoryRepositoryInterface,
	publisher EventPublisher,
	m *metrics.Metrics,
	logger *zap.Logger,
) ApprovalServiceInterface {
	return &ApprovalService{
		BaseService:    base,
		txManager:      txManager,
		suggestionRepo: suggestionRepo,
		historyRepo:    historyRepo,
		publisher:      publisher,
		metrics:        m,
		logger:         logger,
		now:            time.Now,
	}
}

func (s *ApprovalService) Approve(ctx context.Context, id uint64, payload dto.ApproveDTO) (*dto.SuggestionDTO, error) {
	actor, perms, err := s.Actor(ctx)
	if err != nil {
		return nil, err
	}
	event, err := s.approve(ctx, actor, perms, id, payload)
	if err != nil {
		return nil, err
	}
	s.publisher.Publish(ctx, event)
	return s.reload(ctx, id)
}

func (s *ApprovalService) approve(ctx context.Context, actor *entities.User, perms map[string]bool, id uint64, payload dto.ApproveDTO) (events.SuggestionEvent, error) {
	override, err := parseOptionalPrice("approved_price", payload.ApprovedPrice)
	if err != nil {
		return events.SuggestionEvent{}, err
	}

	var approved entities.PriceSuggestion
	hw := newHistoryWriter(s.historyRepo, actor.ID)
	err = s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		e, err := s.suggestionRepo.FindSuggestionForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}
		already, err := s.historyRepo.HasApprovedSinceSubmit(ctx, tx, id, actor.ID)
		if err != nil {
			return err
		}
		if err := authz.CheckApprover(perms, actor, e, already); err != nil {
			return err
		}

		from := e.Status
		e.CurrentLevel = authz.NextLevel(actor, e)
		if override != nil {
			e.ApprovedPrice = override
		}
		if e.CurrentLevel >= e.RequiredLevels {
			if err := ensureTransition(from, constants.SuggestionStatusApproved); err != nil {
				return err
			}
			now := s.now()
			e.Status = constants.SuggestionStatusApproved
			e.ApprovedBy = &actor.ID
			e.ApprovedAt = &now
		}
		if err := s.suggestionRepo.UpdateSuggestion(ctx, tx, e); err != nil {
			return err
		}
		if err := hw.write(ctx, tx, e, constants.HistoryActionApprove, &from, payload.Comment); err != nil {
			return err
		}
		approved = *e
		return nil
	})
	if err != nil {
		return events.SuggestionEvent{}, err
	}

	eventType := events.SuggestionLevelApproved
	if approved.Status == constants.SuggestionStatusApproved {
		eventType = events.SuggestionApproved
	}
	s.metrics.SuggestionAction(constants.HistoryActionApprove)
	s.logger.Info("price suggestion approved",
		zap.Uint64("suggestionID", id),
		zap.Uint64("approverID", actor.ID),
		zap.Int("level", approved.CurrentLevel),
		zap.Int("requiredLevels", approved.RequiredLevels),
		zap.String("status", approved.Status),
	)
	return events.NewSuggestionEvent(eventType, approved, actor.ID, hw.txID, payload.Comment), nil
}

func (s *ApprovalService) Reject(ctx context.Context, id uint64, payload dto.RejectDTO) (*dto.SuggestionDTO, error) {
	actor, perms, err := s.Actor(ctx)
	if err != nil {
		return nil, err
	}
	event, err := s.reject(ctx, actor, perms, id, payload.Reason)
	if err != nil {
		return nil, err
	}
	s.publisher.Publish(ctx, event)
	return s.reload(ctx, id)
}

func (s *ApprovalService) reject(ctx context.Context, actor *entities.User, perms map[string]bool, id uint64, reason string) (events.SuggestionEvent, error) {
	reason = strings.TrimSpace(reason)
	if utf8.RuneCountInString(reason) < minReasonLen {
		return events.SuggestionEvent{}, apperrors.NewInvalidInputError("a rejection reason of at least %d characters is required", minReasonLen)
	}

	var rejected entities.PriceSuggestion
	hw := newHistoryWriter(s.historyRepo, actor.ID)
	err := s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		e, err := s.suggestionRepo.FindSuggestionForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}
		if err := authz.CheckApprover(perms, actor, e, false); err != nil {
			return err
		}
		if err := ensureTransition(e.Status, constants.SuggestionStatusRejected); err != nil {
			return err
		}

		from := e.Status
		now := s.now()
		e.Status = constants.SuggestionStatusRejected
		e.RejectedBy = &actor.ID
		e.RejectedAt = &now
		e.RejectionReason = &reason
		if err := s.suggestionRepo.UpdateSuggestion(ctx, tx, e); err != nil {
			return err
		}
		if err := hw.write(ctx, tx, e, constants.HistoryActionReject, &from, &reason); err != nil {
			return err
		}
		rejected = *e
		return nil
	})
	if err != nil {
		return events.SuggestionEvent{}, err
	}

	s.metrics.SuggestionAction(constants.HistoryActionReject)
	s.logger.Info("price suggestion rejected", zap.Uint64("suggestionID", id), zap.Uint64("approverID", actor.ID))
	return events.NewSuggestionEvent(events.SuggestionRejected, rejected, actor.ID, hw.txID, &reason), nil
}

// Withdraw lets the requester pull a pending suggestion back to draft.
func (s *ApprovalService) Withdraw(ctx context.Context, id uint64, payload dto.WithdrawDTO) (*dto.SuggestionDTO, error) {
	actor, perms, err := s.Actor(ctx)
	if err != nil {
		return nil, err
	}

	hw := newHistoryWriter(s.historyRepo, actor.ID)
	err = s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		e, err := s.suggestionRepo.FindSuggestionForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}
		if !authz.CanDo(authz.SuggestionsUpdate, authz.Context{Actor: actor, Permissions: perms, Target: e}) {
			return apperrors.ErrForbidden
		}
		if err := ensureTransition(e.Status, constants.SuggestionStatusDraft); err != nil {
			return err
		}

		from := e.Status
		e.Status = constants.SuggestionStatusDraft
		e.CurrentLevel = 0
		e.SubmittedAt = nil
		e.ApprovedPrice = nil
		if err := s.suggestionRepo.UpdateSuggestion(ctx, tx, e); err != nil {
			return err
		}
		return hw.write(ctx, tx, e, constants.HistoryActionWithdraw, &from, payload.Comment)
	})
	if err != nil {
		return nil, err
	}

	s.metrics.SuggestionAction(constants.HistoryActionWithdraw)
	s.logger.Info("price suggestion withdrawn", zap.Uint64("suggestionID", id), zap.Uint64("userID", actor.ID))
	return s.reload(ctx, id)
}

// BatchDecide runs each id in its own transaction; one failure does not stop the rest.
func (s *ApprovalService) BatchDecide(ctx context.Context, payload dto.BatchDecisionDTO) ([]dto.BatchResultDTO, error) {
	actor, perms, err := s.Actor(ctx)
	if err != nil {
		return nil, err
	}

	ids := uniqueIDs(payload.IDs)
	results := make([]dto.BatchResultDTO, 0, len(ids))
	for _, id := range ids {
		var event events.SuggestionEvent
		var err error
		switch payload.Action {
		case "approve":
			event, err = s.approve(ctx, actor, perms, id, dto.ApproveDTO{Comment: payload.Comment})
		case "reject":
			event, err = s.reject(ctx, actor, perms, id, payload.Reason)
		default:
			return nil, apperrors.NewInvalidInputError("unknown action %q", payload.Action)
		}

		if err != nil {
			results = append(results, dto.BatchResultDTO{ID: id, OK: false, Error: batchErrorMessage(err)})
			continue
		}
		s.publisher.Publish(ctx, event)
		results = append(results, dto.BatchResultDTO{ID: id, OK: true, Status: event.Suggestion.Status})
	}
	return results, nil
}

func batchErrorMessage(err error) string {
	var httpErr *apperrors.HttpError
	if errors.As(err, &httpErr) {
		return httpErr.Message
	}
	switch {
	case errors.Is(err, apperrors.ErrNotFound),
		errors.Is(err, apperrors.ErrForbidden),
		errors.Is(err, apperrors.ErrSelfApproval),
		errors.Is(err, apperrors.ErrApprovalLevelTooLow),
		errors.Is(err, apperrors.ErrAlreadyApproved),
		errors.Is(err, apperrors.ErrInvalidStatusTransition):
		return err.Error()
	}
	var invalid *apperrors.InvalidInputError
	if errors.As(err, &invalid) {
		return invalid.Message
	}
	return apperrors.ErrInternalServer.Error()
}

// GetPending lists suggestions waiting on the caller's approval level.
func (s *ApprovalService) GetPending(ctx context.Context, filter types.Filter) ([]dto.SuggestionDTO, uint64, error) {
	actor, perms, err := s.Actor(ctx)
	if err != nil {
		return nil, 0, err
	}
	if !perms[authz.SuggestionsApprove] && !perms[authz.Superuser] {
		return nil, 0, apperrors.ErrForbidden
	}
	if actor.ApprovalLevel <= 0 {
		return []dto.SuggestionDTO{}, 0, nil
	}

	list, total, err := s.suggestionRepo.GetPendingForApprover(ctx, actor.ID, actor.ApprovalLevel, filter)
	if err != nil {
		return nil, 0, err
	}
	return suggestionsToDTO(list), total, nil
}

func (s *ApprovalService) reload(ctx context.Context, id uint64) (*dto.SuggestionDTO, error) {
	e, err := s.suggestionRepo.FindSuggestion(ctx, id)
	if err != nil {
		return nil, err
	}
	result := suggestionToDTO(e)
	return &result, nil
}
