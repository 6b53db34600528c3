package authz

import (
	"fuel-pricing/internal/entities"
	"fuel-pricing/pkg/constants"
	apperrors "fuel-pricing/pkg/errors"
)

// CheckApprover applies the multi-level rules for one approve or reject action.
// alreadyActed is whether the actor approved this suggestion since its last submission.
func CheckApprover(perms map[string]bool, actor *entities.User, s *entities.PriceSuggestion, alreadyActed bool) error {
	if !perms[SuggestionsApprove] && !perms[Superuser] {
		return apperrors.ErrForbidden
	}
	if s.Status != constants.SuggestionStatusPending {
		return apperrors.ErrInvalidStatusTransition
	}
	if s.RequestedBy == actor.ID {
		return apperrors.ErrSelfApproval
	}
	if actor.ApprovalLevel <= s.CurrentLevel {
		return apperrors.ErrApprovalLevelTooLow
	}
	if alreadyActed {
		return apperrors.ErrAlreadyApproved
	}
	return nil
}

// NextLevel is the level reached after actor approves: min(actor level, required).
func NextLevel(actor *entities.User, s *entities.PriceSuggestion) int {
	if actor.ApprovalLevel < s.RequiredLevels {
		return actor.ApprovalLevel
	}
	return s.RequiredLevels
}
