package services

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"fuel-pricing/internal/entities"
	"fuel-pricing/internal/repositories"
	"fuel-pricing/pkg/constants"
	apperrors "fuel-pricing/pkg/errors"
	"fuel-pricing/pkg/eventbus"
)

// EventPublisher is satisfied by *eventbus.Bus.
type EventPublisher interface {
	Publish(ctx context.Context, event eventbus.Event)
}

var allowedTransitions = map[string][]string{
	constants.SuggestionStatusDraft:   {constants.SuggestionStatusPending},
	constants.SuggestionStatusPending: {constants.SuggestionStatusApproved, constants.SuggestionStatusRejected, constants.SuggestionStatusDraft},
}

// CanTransition reports whether a suggestion may move from one status to another.
func CanTransition(from, to string) bool {
	for _, next := range allowedTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

func ensureTransition(from, to string) error {
	if !CanTransition(from, to) {
		return apperrors.ErrInvalidStatusTransition
	}
	return nil
}

// historyWriter collects the approval_history rows of one transaction under a shared tx id.
type historyWriter struct {
	repo  repositories.ApprovalHistoryRepositoryInterface
	txID  string
	actor uint64
}

func newHistoryWriter(repo repositories.ApprovalHistoryRepositoryInterface, actorID uint64) *historyWriter {
	return &historyWriter{repo: repo, txID: uuid.NewString(), actor: actorID}
}

func (w *historyWriter) write(ctx context.Context, tx pgx.Tx, s *entities.PriceSuggestion, action string, from *string, comment *string) error {
	entry := &entities.ApprovalHistory{
		SuggestionID: s.ID,
		TxID:         w.txID,
		Action:       action,
		FromStatus:   from,
		ToStatus:     s.Status,
		Level:        s.CurrentLevel,
		ActorID:      w.actor,
		Comment:      comment,
	}
	return w.repo.CreateInTx(ctx, tx, entry)
}
