package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fuel-pricing/internal/authz"
	"fuel-pricing/internal/dto"
	"fuel-pricing/internal/entities"
	"fuel-pricing/internal/events"
	"fuel-pricing/pkg/constants"
	apperrors "fuel-pricing/pkg/errors"
	"fuel-pricing/pkg/money"
)

type approvalFixture struct {
	svc         ApprovalServiceInterface
	suggestions *memSuggestionRepo
	history     *memHistoryRepo
	publisher   *recordingPublisher
}

func newApprovalFixture(t *testing.T, s entities.PriceSuggestion) *approvalFixture {
	t.Helper()
	users := newFakeUserRepo(
		entities.User{ID: 1, Name: "Requester", ApprovalLevel: 0, Active: true},
		entities.User{ID: 2, Name: "Supervisor", ApprovalLevel: 1, Active: true},
		entities.User{ID: 3, Name: "Manager", ApprovalLevel: 2, Active: true},
		entities.User{ID: 4, Name: "Director", ApprovalLevel: 3, Active: true},
	)
	cache, _ := newTestCache(t)
	base := NewBaseService(users, cache, nopLogger())
	f := &approvalFixture{
		suggestions: newMemSuggestionRepo(s),
		history:     &memHistoryRepo{},
		publisher:   &recordingPublisher{},
	}
	svc := NewApprovalService(base, fakeTx{}, f.suggestions, f.history, f.publisher, nil, nopLogger()).(*ApprovalService)
	svc.now = func() time.Time { return time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC) }
	f.svc = svc
	return f
}

func pendingSuggestion(required int) entities.PriceSuggestion {
	submitted := time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC)
	return entities.PriceSuggestion{
		ID:             7,
		StationID:      1,
		Product:        constants.ProductEtanol,
		CurrentPrice:   money.Cents(449),
		SuggestedPrice: money.Cents(459),
		CostPrice:      money.Cents(400),
		Status:         constants.SuggestionStatusPending,
		RequiredLevels: required,
		RequestedBy:    1,
		SubmittedAt:    &submitted,
	}
}

func TestApproveWalksLevelsUntilRequired(t *testing.T) {
	f := newApprovalFixture(t, pendingSuggestion(2))

	res, err := f.svc.Approve(authCtx(2, authz.SuggestionsApprove), 7, dto.ApproveDTO{})
	require.NoError(t, err)
	assert.Equal(t, constants.SuggestionStatusPending, res.Status)
	assert.Equal(t, 1, res.CurrentLevel)

	res, err = f.svc.Approve(authCtx(3, authz.SuggestionsApprove), 7, dto.ApproveDTO{})
	require.NoError(t, err)
	assert.Equal(t, constants.SuggestionStatusApproved, res.Status)
	assert.Equal(t, 2, res.CurrentLevel)
	require.NotNil(t, res.ApprovedBy)
	assert.Equal(t, uint64(3), *res.ApprovedBy)

	assert.Equal(t, []string{events.SuggestionLevelApproved, events.SuggestionApproved}, f.publisher.names())
	assert.Equal(t, []string{"approve", "approve"}, f.history.actions(7))
}

func TestHigherApproverFinishesInOneStep(t *testing.T) {
	f := newApprovalFixture(t, pendingSuggestion(3))

	res, err := f.svc.Approve(authCtx(4, authz.SuggestionsApprove), 7, dto.ApproveDTO{})
	require.NoError(t, err)
	assert.Equal(t, constants.SuggestionStatusApproved, res.Status)
	assert.Equal(t, 3, res.CurrentLevel)
}

func TestApproveRules(t *testing.T) {
	t.Run("requester cannot approve", func(t *testing.T) {
		s := pendingSuggestion(1)
		s.RequestedBy = 2
		f := newApprovalFixture(t, s)
		_, err := f.svc.Approve(authCtx(2, authz.SuggestionsApprove), 7, dto.ApproveDTO{})
		assert.ErrorIs(t, err, apperrors.ErrSelfApproval)
	})

	t.Run("level must exceed current", func(t *testing.T) {
		s := pendingSuggestion(3)
		s.CurrentLevel = 1
		f := newApprovalFixture(t, s)
		_, err := f.svc.Approve(authCtx(2, authz.SuggestionsApprove), 7, dto.ApproveDTO{})
		assert.ErrorIs(t, err, apperrors.ErrApprovalLevelTooLow)
	})

	t.Run("permission required", func(t *testing.T) {
		f := newApprovalFixture(t, pendingSuggestion(1))
		_, err := f.svc.Approve(authCtx(4, authz.SuggestionsView), 7, dto.ApproveDTO{})
		assert.ErrorIs(t, err, apperrors.ErrForbidden)
	})

	t.Run("drafts cannot be approved", func(t *testing.T) {
		s := pendingSuggestion(1)
		s.Status = constants.SuggestionStatusDraft
		f := newApprovalFixture(t, s)
		_, err := f.svc.Approve(authCtx(4, authz.SuggestionsApprove), 7, dto.ApproveDTO{})
		assert.ErrorIs(t, err, apperrors.ErrInvalidStatusTransition)
	})
}

func TestApproveWithPriceOverride(t *testing.T) {
	f := newApprovalFixture(t, pendingSuggestion(1))
	price := "4,55"

	res, err := f.svc.Approve(authCtx(2, authz.SuggestionsApprove), 7, dto.ApproveDTO{ApprovedPrice: &price})
	require.NoError(t, err)
	require.NotNil(t, res.ApprovedPrice)
	assert.Equal(t, int64(455), res.ApprovedPrice.Cents)
}

func TestRejectRecordsReason(t *testing.T) {
	f := newApprovalFixture(t, pendingSuggestion(2))

	res, err := f.svc.Reject(authCtx(2, authz.SuggestionsApprove), 7, dto.RejectDTO{Reason: "margin too thin"})
	require.NoError(t, err)
	assert.Equal(t, constants.SuggestionStatusRejected, res.Status)
	require.NotNil(t, res.RejectionReason)
	assert.Equal(t, "margin too thin", *res.RejectionReason)
	assert.Equal(t, []string{events.SuggestionRejected}, f.publisher.names())

	_, err = f.svc.Reject(authCtx(3, authz.SuggestionsApprove), 7, dto.RejectDTO{Reason: "again"})
	assert.ErrorIs(t, err, apperrors.ErrInvalidStatusTransition)
}

func TestRejectNeedsARealReason(t *testing.T) {
	f := newApprovalFixture(t, pendingSuggestion(2))
	ctx := authCtx(2, authz.SuggestionsApprove)

	for _, reason := range []string{"", "   ", " ok ", "\tno\n"} {
		_, err := f.svc.Reject(ctx, 7, dto.RejectDTO{Reason: reason})
		assert.True(t, apperrors.IsInvalidInput(err), "reason %q: %v", reason, err)
	}
	assert.Equal(t, constants.SuggestionStatusPending, f.suggestions.items[7].Status)

	// three runes, five bytes
	res, err := f.svc.Reject(ctx, 7, dto.RejectDTO{Reason: "  não  "})
	require.NoError(t, err)
	require.NotNil(t, res.RejectionReason)
	assert.Equal(t, "não", *res.RejectionReason)
}

func TestWithdrawResetsApprovalProgress(t *testing.T) {
	s := pendingSuggestion(2)
	s.CurrentLevel = 1
	f := newApprovalFixture(t, s)

	_, err := f.svc.Withdraw(authCtx(2, authz.SuggestionsUpdate), 7, dto.WithdrawDTO{})
	assert.ErrorIs(t, err, apperrors.ErrForbidden)

	res, err := f.svc.Withdraw(authCtx(1, authz.SuggestionsUpdate), 7, dto.WithdrawDTO{})
	require.NoError(t, err)
	assert.Equal(t, constants.SuggestionStatusDraft, res.Status)
	assert.Equal(t, 0, res.CurrentLevel)
	assert.Nil(t, res.SubmittedAt)
}

func TestBatchDecideReportsPerItem(t *testing.T) {
	f := newApprovalFixture(t, pendingSuggestion(1))
	other := pendingSuggestion(1)
	other.ID = 8
	other.RequestedBy = 2
	f.suggestions.items[8] = &other

	results, err := f.svc.BatchDecide(authCtx(2, authz.SuggestionsApprove), dto.BatchDecisionDTO{
		IDs:    []uint64{7, 8, 99, 7},
		Action: "approve",
	})
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.True(t, results[0].OK)
	assert.Equal(t, constants.SuggestionStatusApproved, results[0].Status)
	assert.False(t, results[1].OK)
	assert.NotEmpty(t, results[1].Error)
	assert.False(t, results[2].OK)
}
