package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"fuel-pricing/internal/authz"
	"fuel-pricing/internal/dto"
	"fuel-pricing/internal/entities"
	"fuel-pricing/internal/repositories"
	"fuel-pricing/pkg/constants"
	apperrors "fuel-pricing/pkg/errors"
)

type ApprovalHistoryServiceInterface interface {
	GetTimeline(ctx context.Context, suggestionID uint64) ([]dto.TimelineBlockDTO, error)
}

type ApprovalHistoryService struct {
	*BaseService
	historyRepo    repositories.ApprovalHistoryRepositoryInterface
	suggestionRepo repositories.PriceSuggestionRepositoryInterface
	logger         *zap.Logger
}

func NewApprovalHistoryService(
	base *BaseService,
	historyRepo repositories.ApprovalHistoryRepositoryInterface,
	suggestionRepo repositories.PriceSuggestionRepositoryInterface,
	logger *zap.Logger,
) ApprovalHistoryServiceInterface {
	return &ApprovalHistoryService{
		BaseService:    base,
		historyRepo:    historyRepo,
		suggestionRepo: suggestionRepo,
		logger:         logger,
	}
}

// GetTimeline returns the suggestion's history oldest first, one block per transaction.
func (s *ApprovalHistoryService) GetTimeline(ctx context.Context, suggestionID uint64) ([]dto.TimelineBlockDTO, error) {
	actor, perms, err := s.Actor(ctx)
	if err != nil {
		return nil, err
	}
	suggestion, err := s.suggestionRepo.FindSuggestion(ctx, suggestionID)
	if err != nil {
		return nil, err
	}
	if !authz.CanDo(authz.SuggestionsView, authz.Context{Actor: actor, Permissions: perms, Target: suggestion}) {
		return nil, apperrors.ErrForbidden
	}

	events, err := s.historyRepo.FindBySuggestionID(ctx, suggestionID)
	if err != nil {
		return nil, err
	}
	timeline := buildTimeline(events)
	s.logger.Debug("timeline built", zap.Uint64("suggestionID", suggestionID), zap.Int("blocks", len(timeline)))
	return timeline, nil
}

func buildTimeline(events []entities.ApprovalHistory) []dto.TimelineBlockDTO {
	timeline := make([]dto.TimelineBlockDTO, 0, len(events))
	for i := range events {
		event := &events[i]
		entry := historyEntryToDTO(event)

		last := len(timeline) - 1
		if last >= 0 && event.TxID != "" && timeline[last].TxID == event.TxID {
			timeline[last].Lines = append(timeline[last].Lines, entry.Line)
			timeline[last].Entries = append(timeline[last].Entries, entry)
			continue
		}
		timeline = append(timeline, dto.TimelineBlockDTO{
			TxID:      event.TxID,
			Actor:     entry.Actor,
			CreatedAt: entry.CreatedAt,
			Lines:     []string{entry.Line},
			Entries:   []dto.HistoryEntryDTO{entry},
		})
	}
	return timeline
}

// historyLine renders one history row as a sentence for the timeline.
func historyLine(h *entities.ApprovalHistory) string {
	var line string
	switch h.Action {
	case constants.HistoryActionCreate:
		line = fmt.Sprintf("Suggestion created as %s", h.ToStatus)
	case constants.HistoryActionSubmit:
		line = "Submitted for approval"
	case constants.HistoryActionUpdate:
		line = "Prices updated"
		if h.FromStatus != nil && *h.FromStatus != h.ToStatus {
			line += ", approval progress reset"
		}
	case constants.HistoryActionApprove:
		if h.ToStatus == constants.SuggestionStatusApproved {
			line = fmt.Sprintf("Approved at level %d, suggestion approved", h.Level)
		} else {
			line = fmt.Sprintf("Approved at level %d", h.Level)
		}
	case constants.HistoryActionReject:
		line = "Rejected"
	case constants.HistoryActionWithdraw:
		line = "Withdrawn back to draft"
	default:
		line = fmt.Sprintf("%s: %s", h.Action, h.ToStatus)
	}
	if h.Comment != nil && *h.Comment != "" {
		line += fmt.Sprintf(": «%s»", *h.Comment)
	}
	return line
}
