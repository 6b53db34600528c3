package authz

import (
	"testing"

	"fuel-pricing/internal/entities"
	"fuel-pricing/pkg/constants"
	apperrors "fuel-pricing/pkg/errors"

	"github.com/stretchr/testify/assert"
)

func uptr(v uint64) *uint64 { return &v }

func perms(p ...string) map[string]bool {
	m := make(map[string]bool, len(p))
	for _, x := range p {
		m[x] = true
	}
	return m
}

func TestCanDoSuggestionScopes(t *testing.T) {
	suggestion := &entities.PriceSuggestion{ID: 1, StationID: 10, RequestedBy: 5}

	requester := &entities.User{ID: 5}
	colleague := &entities.User{ID: 6, StationID: uptr(10)}
	outsider := &entities.User{ID: 7, StationID: uptr(99)}
	approver := &entities.User{ID: 8, ApprovalLevel: 2}

	assert.True(t, CanDo(SuggestionsView, Context{Actor: requester, Permissions: perms(SuggestionsView), Target: suggestion}))
	assert.True(t, CanDo(SuggestionsView, Context{Actor: colleague, Permissions: perms(SuggestionsView, ScopeStation), Target: suggestion}))
	assert.False(t, CanDo(SuggestionsView, Context{Actor: outsider, Permissions: perms(SuggestionsView, ScopeStation), Target: suggestion}))
	assert.True(t, CanDo(SuggestionsView, Context{Actor: outsider, Permissions: perms(SuggestionsView, ScopeAll), Target: suggestion}))
	assert.True(t, CanDo(SuggestionsView, Context{Actor: approver, Permissions: perms(SuggestionsView, SuggestionsApprove), Target: suggestion}))

	assert.True(t, CanDo(SuggestionsUpdate, Context{Actor: requester, Permissions: perms(SuggestionsUpdate), Target: suggestion}))
	assert.False(t, CanDo(SuggestionsUpdate, Context{Actor: colleague, Permissions: perms(SuggestionsUpdate, ScopeAll), Target: suggestion}))
	assert.False(t, CanDo(SuggestionsUpdate, Context{Actor: requester, Permissions: perms(SuggestionsView), Target: suggestion}))

	assert.True(t, CanDo(SuggestionsDelete, Context{Actor: outsider, Permissions: perms(Superuser), Target: suggestion}))
}

func TestCanDoWithoutTarget(t *testing.T) {
	assert.True(t, CanDo(StationsCreate, Context{Permissions: perms(StationsCreate)}))
	assert.False(t, CanDo(StationsCreate, Context{Permissions: perms(StationsView)}))
}

func TestCanDoStation(t *testing.T) {
	station := &entities.Station{ID: 10}
	manager := &entities.User{ID: 1, StationID: uptr(10)}
	other := &entities.User{ID: 2, StationID: uptr(11)}

	assert.True(t, CanDo(StationsUpdate, Context{Actor: manager, Permissions: perms(StationsUpdate, ScopeStation), Target: station}))
	assert.False(t, CanDo(StationsUpdate, Context{Actor: other, Permissions: perms(StationsUpdate, ScopeStation), Target: station}))
	assert.True(t, CanDo(StationsView, Context{Actor: other, Permissions: perms(StationsView), Target: station}))
}

func TestCheckApprover(t *testing.T) {
	pending := &entities.PriceSuggestion{Status: constants.SuggestionStatusPending, RequestedBy: 1, RequiredLevels: 3, CurrentLevel: 1}
	approver := &entities.User{ID: 2, ApprovalLevel: 2}
	p := perms(SuggestionsApprove)

	assert.NoError(t, CheckApprover(p, approver, pending, false))
	assert.Equal(t, 2, NextLevel(approver, pending))

	assert.ErrorIs(t, CheckApprover(perms(SuggestionsView), approver, pending, false), apperrors.ErrForbidden)
	assert.ErrorIs(t, CheckApprover(p, &entities.User{ID: 1, ApprovalLevel: 3}, pending, false), apperrors.ErrSelfApproval)
	assert.ErrorIs(t, CheckApprover(p, &entities.User{ID: 3, ApprovalLevel: 1}, pending, false), apperrors.ErrApprovalLevelTooLow)
	assert.ErrorIs(t, CheckApprover(p, approver, pending, true), apperrors.ErrAlreadyApproved)

	draft := *pending
	draft.Status = constants.SuggestionStatusDraft
	assert.ErrorIs(t, CheckApprover(p, approver, &draft, false), apperrors.ErrInvalidStatusTransition)

	director := &entities.User{ID: 4, ApprovalLevel: 5}
	assert.Equal(t, 3, NextLevel(director, pending))
}
