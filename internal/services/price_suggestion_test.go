package services

import (
	"testing"
	"time"

	"github.com/aarondl/null/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fuel-pricing/internal/authz"
	"fuel-pricing/internal/dto"
	"fuel-pricing/internal/entities"
	"fuel-pricing/internal/events"
	"fuel-pricing/internal/pricing"
	"fuel-pricing/pkg/constants"
	apperrors "fuel-pricing/pkg/errors"
	"fuel-pricing/pkg/money"
	"fuel-pricing/pkg/utils"
)

type suggestionFixture struct {
	svc         PriceSuggestionServiceInterface
	suggestions *memSuggestionRepo
	history     *memHistoryRepo
	publisher   *recordingPublisher
}

func newSuggestionFixture(t *testing.T) *suggestionFixture {
	t.Helper()
	station := uint64(1)
	users := newFakeUserRepo(
		entities.User{ID: 1, Name: "Ana", Active: true},
		entities.User{ID: 2, Name: "Bruno", Active: true, StationID: &station},
	)
	cache, _ := newTestCache(t)
	f := &suggestionFixture{
		suggestions: newMemSuggestionRepo(),
		history:     &memHistoryRepo{},
		publisher:   &recordingPublisher{},
	}
	stations := &fakeStationRepo{stations: researchStations()}
	stations.stations = append(stations.stations, entities.Station{ID: 2, Name: "Posto Norte", Active: true})
	f.suggestions.stationNames = map[uint64]string{1: "Posto Central", 2: "Posto Norte"}
	f.suggestions.userNames = map[uint64]string{1: "Ana", 2: "Bruno"}
	svc := NewPriceSuggestionService(
		NewBaseService(users, cache, nopLogger()),
		fakeTx{}, f.suggestions, f.history, stations,
		pricing.NewCalculator(pricing.DefaultTiers, pricing.DefaultArlaRatioPermille),
		f.publisher, nil, nopLogger(),
	).(*PriceSuggestionService)
	svc.now = func() time.Time { return time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC) }
	f.svc = svc
	return f
}

func etanolPayload(stationID uint64) dto.CreateSuggestionDTO {
	return dto.CreateSuggestionDTO{
		StationID:      stationID,
		Product:        constants.ProductEtanol,
		CurrentPrice:   "4,49",
		SuggestedPrice: "4,59",
		CostPrice:      "4,30",
		ArlaPrice:      utils.Ptr("3,10"),
		ArlaCost:       utils.Ptr("2,50"),
	}
}

var editorPerms = []string{authz.SuggestionsCreate, authz.SuggestionsView, authz.SuggestionsUpdate, authz.SuggestionsDelete}

func TestCreateAndSubmitSuggestion(t *testing.T) {
	f := newSuggestionFixture(t)
	payload := etanolPayload(1)
	payload.Submit = true

	res, err := f.svc.CreateSuggestion(authCtx(1, editorPerms...), payload)
	require.NoError(t, err)
	assert.Equal(t, constants.SuggestionStatusPending, res.Status)
	assert.Equal(t, int64(29), res.Margin.Cents)
	assert.Equal(t, 2, res.RequiredLevels)
	assert.Nil(t, res.ArlaPrice)
	require.NotNil(t, res.SubmittedAt)

	assert.Equal(t, []string{constants.HistoryActionCreate, constants.HistoryActionSubmit}, f.history.actions(res.ID))
	assert.Equal(t, []string{events.SuggestionSubmitted}, f.publisher.names())

	ev := f.publisher.events[0].(events.SuggestionEvent)
	assert.Equal(t, "Posto Central", ev.Suggestion.StationName)
	assert.Equal(t, "Ana", ev.Suggestion.RequesterName)
}

func TestCreateSuggestionChecksStation(t *testing.T) {
	f := newSuggestionFixture(t)
	var invalid *apperrors.InvalidInputError

	_, err := f.svc.CreateSuggestion(authCtx(1, editorPerms...), etanolPayload(10))
	assert.ErrorAs(t, err, &invalid)

	_, err = f.svc.CreateSuggestion(authCtx(1, editorPerms...), etanolPayload(99))
	assert.ErrorAs(t, err, &invalid)

	// bound to station 1
	_, err = f.svc.CreateSuggestion(authCtx(2, editorPerms...), etanolPayload(2))
	assert.ErrorIs(t, err, apperrors.ErrForbidden)

	bad := etanolPayload(1)
	bad.SuggestedPrice = "abc"
	_, err = f.svc.CreateSuggestion(authCtx(1, editorPerms...), bad)
	assert.ErrorAs(t, err, &invalid)
}

func TestUpdatePendingRestartsApproval(t *testing.T) {
	f := newSuggestionFixture(t)
	payload := etanolPayload(1)
	payload.Submit = true
	created, err := f.svc.CreateSuggestion(authCtx(1, editorPerms...), payload)
	require.NoError(t, err)
	f.suggestions.items[created.ID].CurrentLevel = 1

	res, err := f.svc.UpdateSuggestion(authCtx(1, editorPerms...), created.ID, dto.UpdateSuggestionDTO{
		SuggestedPrice: null.StringFrom("4,79"),
	})
	require.NoError(t, err)
	assert.Equal(t, constants.SuggestionStatusPending, res.Status)
	assert.Equal(t, 0, res.CurrentLevel)
	assert.Equal(t, int64(49), res.Margin.Cents)
	assert.Equal(t, 1, res.RequiredLevels)

	assert.Equal(t, []string{
		constants.HistoryActionCreate, constants.HistoryActionSubmit,
		constants.HistoryActionUpdate, constants.HistoryActionSubmit,
	}, f.history.actions(created.ID))
	assert.Equal(t, []string{events.SuggestionSubmitted, events.SuggestionSubmitted}, f.publisher.names())

	_, err = f.svc.UpdateSuggestion(authCtx(2, editorPerms...), created.ID, dto.UpdateSuggestionDTO{})
	assert.ErrorIs(t, err, apperrors.ErrForbidden)
}

func TestUpdatePendingDropsApprovedPriceOverride(t *testing.T) {
	f := newSuggestionFixture(t)
	payload := etanolPayload(1)
	payload.Submit = true
	created, err := f.svc.CreateSuggestion(authCtx(1, editorPerms...), payload)
	require.NoError(t, err)

	// a first-level approver overrode the price before the requester edited it
	override := money.Cents(450)
	f.suggestions.items[created.ID].CurrentLevel = 1
	f.suggestions.items[created.ID].ApprovedPrice = &override

	res, err := f.svc.UpdateSuggestion(authCtx(1, editorPerms...), created.ID, dto.UpdateSuggestionDTO{
		SuggestedPrice: null.StringFrom("4,99"),
	})
	require.NoError(t, err)
	assert.Equal(t, constants.SuggestionStatusPending, res.Status)
	assert.Equal(t, 0, res.CurrentLevel)
	assert.Equal(t, int64(499), res.SuggestedPrice.Cents)
	assert.Nil(t, res.ApprovedPrice)
	assert.Nil(t, f.suggestions.items[created.ID].ApprovedPrice)
}

func TestSubmitAndDeleteDraft(t *testing.T) {
	f := newSuggestionFixture(t)
	ctx := authCtx(1, editorPerms...)

	draft, err := f.svc.CreateSuggestion(ctx, etanolPayload(1))
	require.NoError(t, err)
	assert.Equal(t, constants.SuggestionStatusDraft, draft.Status)
	assert.Empty(t, f.publisher.names())

	other, err := f.svc.CreateSuggestion(ctx, etanolPayload(1))
	require.NoError(t, err)
	require.NoError(t, f.svc.DeleteSuggestion(ctx, other.ID))
	_, err = f.svc.FindSuggestion(ctx, other.ID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	submitted, err := f.svc.SubmitSuggestion(ctx, draft.ID)
	require.NoError(t, err)
	assert.Equal(t, constants.SuggestionStatusPending, submitted.Status)

	_, err = f.svc.SubmitSuggestion(ctx, draft.ID)
	assert.ErrorIs(t, err, apperrors.ErrInvalidStatusTransition)
	assert.ErrorIs(t, f.svc.DeleteSuggestion(ctx, draft.ID), apperrors.ErrInvalidStatusTransition)
}

func TestBatchCreateIsAllOrNothing(t *testing.T) {
	f := newSuggestionFixture(t)
	ctx := authCtx(1, editorPerms...)

	res, err := f.svc.BatchCreateSuggestions(ctx, dto.BatchCreateSuggestionDTO{
		StationIDs:          []uint64{1, 2, 1},
		CreateSuggestionDTO: etanolPayload(0),
	})
	require.NoError(t, err)
	require.Len(t, res, 2)
	assert.Equal(t, uint64(1), res[0].Station.ID)
	assert.Equal(t, uint64(2), res[1].Station.ID)

	_, err = f.svc.BatchCreateSuggestions(ctx, dto.BatchCreateSuggestionDTO{
		StationIDs:          []uint64{1, 10},
		CreateSuggestionDTO: etanolPayload(0),
	})
	assert.Error(t, err)
	assert.Len(t, f.suggestions.items, 2)
}
