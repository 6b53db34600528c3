package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fuel-pricing/internal/authz"
	"fuel-pricing/internal/dto"
	"fuel-pricing/internal/entities"
	"fuel-pricing/pkg/constants"
	apperrors "fuel-pricing/pkg/errors"
	"fuel-pricing/pkg/money"
)

func newMapFixture(t *testing.T) (*MapService, *fakeStationRepo) {
	t.Helper()
	cache, _ := newTestCache(t)
	base := NewBaseService(newFakeUserRepo(entities.User{ID: 1, Active: true}), cache, nopLogger())

	ownLat, ownLng := coords(-23.5505, -46.6333)
	compLat, compLng := coords(-23.5605, -46.6400)
	stations := &fakeStationRepo{stations: []entities.Station{
		{ID: 1, Name: "Posto Central", Latitude: ownLat, Longitude: ownLng, Active: true},
		{ID: 10, Name: "Shell Paulista", Latitude: compLat, Longitude: compLng, IsCompetitor: true, Active: true},
	}}
	approved := &fakeApprovedPrices{prices: []entities.LatestPrice{
		{StationID: 1, Product: constants.ProductGasolinaComum, Price: money.Cents(589), At: time.Now()},
		{StationID: 1, Product: constants.ProductEtanol, Price: money.Cents(459), At: time.Now()},
	}}
	competitors := &fakePriceRepo{latest: []entities.CompetitorPrice{
		{StationID: 10, Product: constants.ProductEtanol, Price: money.Cents(469), ObservedAt: time.Now()},
	}}
	return NewMapService(base, stations, approved, competitors, cache, nil, nopLogger()), stations
}

func TestMapStationsGeoJSON(t *testing.T) {
	svc, _ := newMapFixture(t)

	fc, err := svc.GetStations(authCtx(1, authz.StationsView), dto.MapQuery{})
	require.NoError(t, err)
	assert.Equal(t, "FeatureCollection", fc.Type)
	require.Len(t, fc.Features, 2)

	own := fc.Features[0]
	assert.Equal(t, "Point", own.Geometry.Type)
	assert.Equal(t, [2]float64{-46.6333, -23.5505}, own.Geometry.Coordinates)
	require.Len(t, own.Properties.Prices, 2)
	assert.Equal(t, constants.ProductEtanol, own.Properties.Prices[0].Product)

	competitor := fc.Features[1]
	assert.True(t, competitor.Properties.IsCompetitor)
	require.Len(t, competitor.Properties.Prices, 1)
	assert.Equal(t, int64(469), competitor.Properties.Prices[0].Price.Cents)
}

func TestMapStationsAreCachedUntilInvalidated(t *testing.T) {
	svc, stations := newMapFixture(t)
	ctx := authCtx(1, authz.StationsView)

	_, err := svc.GetStations(ctx, dto.MapQuery{})
	require.NoError(t, err)
	_, err = svc.GetStations(ctx, dto.MapQuery{})
	require.NoError(t, err)
	assert.Equal(t, 1, stations.calls)

	_, err = svc.GetStations(ctx, dto.MapQuery{Product: constants.ProductEtanol})
	require.NoError(t, err)
	assert.Equal(t, 2, stations.calls)

	svc.Invalidate(ctx)
	_, err = svc.GetStations(ctx, dto.MapQuery{})
	require.NoError(t, err)
	assert.Equal(t, 3, stations.calls)
}

func TestMapBuildOutlivesCancelledCaller(t *testing.T) {
	svc, stations := newMapFixture(t)
	ctx, cancel := context.WithCancel(authCtx(1, authz.StationsView))
	cancel()

	fc, err := svc.GetStations(ctx, dto.MapQuery{})
	require.NoError(t, err)
	assert.Len(t, fc.Features, 2)
	assert.Equal(t, 1, stations.calls)
}

func TestMapStationsRejectsPartialBox(t *testing.T) {
	svc, _ := newMapFixture(t)
	lat := -23.0

	_, err := svc.GetStations(authCtx(1, authz.StationsView), dto.MapQuery{MinLat: &lat})
	var invalid *apperrors.InvalidInputError
	assert.ErrorAs(t, err, &invalid)

	_, err = svc.GetStations(authCtx(1), dto.MapQuery{})
	assert.ErrorIs(t, err, apperrors.ErrForbidden)
}

func TestMapCacheKeyIgnoresSpelling(t *testing.T) {
	a, b := -23.5, -23.50000
	assert.Equal(t, mapCacheKey(dto.MapQuery{MinLat: &a}), mapCacheKey(dto.MapQuery{MinLat: &b}))
	assert.NotEqual(t, mapCacheKey(dto.MapQuery{}), mapCacheKey(dto.MapQuery{Product: constants.ProductGNV}))
}
