package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fuel-pricing/internal/entities"
	"fuel-pricing/pkg/constants"
	"fuel-pricing/pkg/utils"
)

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to string
		want     bool
	}{
		{constants.SuggestionStatusDraft, constants.SuggestionStatusPending, true},
		{constants.SuggestionStatusPending, constants.SuggestionStatusApproved, true},
		{constants.SuggestionStatusPending, constants.SuggestionStatusRejected, true},
		{constants.SuggestionStatusPending, constants.SuggestionStatusDraft, true},
		{constants.SuggestionStatusDraft, constants.SuggestionStatusApproved, false},
		{constants.SuggestionStatusApproved, constants.SuggestionStatusPending, false},
		{constants.SuggestionStatusRejected, constants.SuggestionStatusDraft, false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, CanTransition(tc.from, tc.to), "%s -> %s", tc.from, tc.to)
	}
}

func TestHistoryLine(t *testing.T) {
	pending := constants.SuggestionStatusPending

	assert.Equal(t, "Approved at level 2", historyLine(&entities.ApprovalHistory{
		Action: constants.HistoryActionApprove, ToStatus: constants.SuggestionStatusPending, Level: 2,
	}))
	assert.Equal(t, "Approved at level 3, suggestion approved", historyLine(&entities.ApprovalHistory{
		Action: constants.HistoryActionApprove, ToStatus: constants.SuggestionStatusApproved, Level: 3,
	}))
	assert.Equal(t, "Prices updated, approval progress reset", historyLine(&entities.ApprovalHistory{
		Action: constants.HistoryActionUpdate, FromStatus: &pending, ToStatus: constants.SuggestionStatusDraft,
	}))
	assert.Equal(t, "Rejected: «too low»", historyLine(&entities.ApprovalHistory{
		Action: constants.HistoryActionReject, ToStatus: constants.SuggestionStatusRejected, Comment: utils.Ptr("too low"),
	}))
}

func TestBuildTimelineGroupsByTransaction(t *testing.T) {
	at := time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC)
	events := []entities.ApprovalHistory{
		{ID: 1, TxID: "a", Action: constants.HistoryActionCreate, ToStatus: constants.SuggestionStatusPending, ActorID: 1, ActorName: "Ana", CreatedAt: at},
		{ID: 2, TxID: "a", Action: constants.HistoryActionSubmit, ToStatus: constants.SuggestionStatusPending, ActorID: 1, ActorName: "Ana", CreatedAt: at},
		{ID: 3, TxID: "b", Action: constants.HistoryActionApprove, ToStatus: constants.SuggestionStatusApproved, Level: 1, ActorID: 2, ActorName: "Bruno", CreatedAt: at.Add(time.Hour)},
		{ID: 4, Action: constants.HistoryActionWithdraw, ToStatus: constants.SuggestionStatusDraft, ActorID: 1, CreatedAt: at.Add(2 * time.Hour)},
	}

	timeline := buildTimeline(events)
	require.Len(t, timeline, 3)
	assert.Equal(t, []string{"Suggestion created as pending", "Submitted for approval"}, timeline[0].Lines)
	assert.Equal(t, "Ana", timeline[0].Actor.Name)
	assert.Len(t, timeline[1].Entries, 1)
	assert.Equal(t, "Bruno", timeline[1].Actor.Name)
	assert.Equal(t, []string{"Withdrawn back to draft"}, timeline[2].Lines)

	assert.Empty(t, buildTimeline(nil))
}
