package services

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"fuel-pricing/internal/authz"
	"fuel-pricing/internal/entities"
	"fuel-pricing/internal/repositories"
	"fuel-pricing/pkg/constants"
	apperrors "fuel-pricing/pkg/errors"
	"fuel-pricing/pkg/money"
	"fuel-pricing/pkg/types"
	"fuel-pricing/pkg/utils"
)

type fakeStationRepo struct {
	repositories.StationRepositoryInterface
	stations []entities.Station
	calls    int
}

func (r *fakeStationRepo) FindStation(_ context.Context, id uint64) (*entities.Station, error) {
	for i := range r.stations {
		if r.stations[i].ID == id {
			st := r.stations[i]
			return &st, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (r *fakeStationRepo) GetStations(_ context.Context, filter types.Filter) ([]entities.Station, uint64, error) {
	var out []entities.Station
	for _, st := range r.stations {
		if v, ok := filter.Filter["is_competitor"]; ok && v != st.IsCompetitor {
			continue
		}
		out = append(out, st)
	}
	return out, uint64(len(out)), nil
}

func (r *fakeStationRepo) GetMapStations(ctx context.Context, _ *entities.BoundingBox) ([]entities.Station, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.calls++
	return r.stations, nil
}

type fakePriceRepo struct {
	repositories.CompetitorPriceRepositoryInterface
	latest  []entities.CompetitorPrice
	created []entities.CompetitorPrice
}

func (r *fakePriceRepo) LatestPrices(_ context.Context, stationIDs []uint64, _ string) ([]entities.CompetitorPrice, error) {
	var out []entities.CompetitorPrice
	for _, p := range r.latest {
		for _, id := range stationIDs {
			if p.StationID == id {
				out = append(out, p)
			}
		}
	}
	return out, nil
}

func (r *fakePriceRepo) CreatePrice(_ context.Context, _ pgx.Tx, p *entities.CompetitorPrice) (uint64, error) {
	r.created = append(r.created, *p)
	return uint64(len(r.created)), nil
}

type fakeApprovedPrices struct {
	repositories.PriceSuggestionRepositoryInterface
	prices []entities.LatestPrice
}

func (r *fakeApprovedPrices) LatestApprovedPrices(_ context.Context, stationIDs []uint64, _ string) ([]entities.LatestPrice, error) {
	var out []entities.LatestPrice
	for _, p := range r.prices {
		for _, id := range stationIDs {
			if p.StationID == id {
				out = append(out, p)
			}
		}
	}
	return out, nil
}

type countingInvalidator struct{ n int }

func (c *countingInvalidator) Invalidate(context.Context) { c.n++ }

func coords(lat, lng float64) (*float64, *float64) { return &lat, &lng }

func researchStations() []entities.Station {
	ownLat, ownLng := coords(-23.5505, -46.6333)
	nearLat, nearLng := coords(-23.5605, -46.6333)
	farLat, farLng := coords(-23.7000, -46.6333)
	return []entities.Station{
		{ID: 1, Name: "Posto Central", Latitude: ownLat, Longitude: ownLng, Active: true},
		{ID: 10, Name: "Shell Paulista", Latitude: nearLat, Longitude: nearLng, IsCompetitor: true, Active: true},
		{ID: 11, Name: "Ipiranga Sul", Latitude: farLat, Longitude: farLng, IsCompetitor: true, Active: true},
		{ID: 12, Name: "BR Closed", Latitude: nearLat, Longitude: nearLng, IsCompetitor: true, Active: false},
		{ID: 13, Name: "Ale Centro", TradeName: utils.Ptr("Ale"), IsCompetitor: true, Active: true, City: utils.Ptr("São Paulo")},
	}
}

func TestDistanceKm(t *testing.T) {
	assert.InDelta(t, 0, distanceKm(-23.55, -46.63, -23.55, -46.63), 1e-9)
	// one hundredth of a degree of latitude is about 1.11 km
	assert.InDelta(t, 1.11, distanceKm(-23.5505, -46.6333, -23.5605, -46.6333), 0.01)
}

func TestNearbyCompetitors(t *testing.T) {
	stations := researchStations()
	assert.Equal(t, []uint64{10}, nearbyCompetitors(&stations[0], stations))

	noCoords := entities.Station{ID: 2, City: utils.Ptr("São Paulo")}
	assert.Equal(t, []uint64{13}, nearbyCompetitors(&noCoords, stations))
}

func newResearchFixture(t *testing.T) (*ResearchService, *fakePriceRepo, *countingInvalidator) {
	t.Helper()
	cache, _ := newTestCache(t)
	base := NewBaseService(newFakeUserRepo(entities.User{ID: 1, Active: true}), cache, nopLogger())
	prices := &fakePriceRepo{}
	suggestions := &fakeApprovedPrices{prices: []entities.LatestPrice{
		{StationID: 1, Product: constants.ProductEtanol, Price: money.Cents(459)},
	}}
	inv := &countingInvalidator{}
	svc := NewResearchService(base, fakeTx{}, prices, &fakeStationRepo{stations: researchStations()}, suggestions, nil, inv, nopLogger()).(*ResearchService)
	svc.now = func() time.Time { return time.Date(2026, 5, 4, 12, 0, 0, 0, time.Local) }
	return svc, prices, inv
}

func TestCompareAgainstNearbyCompetitors(t *testing.T) {
	svc, prices, _ := newResearchFixture(t)
	prices.latest = []entities.CompetitorPrice{
		{StationID: 10, StationName: "Shell Paulista", Product: constants.ProductEtanol, Price: money.Cents(469)},
		{StationID: 11, StationName: "Ipiranga Sul", Product: constants.ProductEtanol, Price: money.Cents(439)},
	}

	res, err := svc.Compare(authCtx(1, authz.ResearchView), 1, constants.ProductEtanol, nil)
	require.NoError(t, err)
	require.NotNil(t, res.OwnPrice)
	assert.Equal(t, int64(459), res.OwnPrice.Cents)
	require.Len(t, res.Competitors, 1)
	assert.Equal(t, int64(10), res.Competitors[0].Difference.Cents)

	res, err = svc.Compare(authCtx(1, authz.ResearchView), 1, constants.ProductEtanol, []uint64{10, 11})
	require.NoError(t, err)
	require.Len(t, res.Competitors, 2)
	assert.Equal(t, uint64(11), res.Competitors[0].Station.ID)
	assert.Equal(t, int64(-20), res.Competitors[0].Difference.Cents)
	assert.Equal(t, int64(454), res.Average.Cents)
	assert.Equal(t, int64(439), res.Lowest.Cents)
}

func TestCompareRejectsCompetitorStationAndUnknownProduct(t *testing.T) {
	svc, _, _ := newResearchFixture(t)

	var invalid *apperrors.InvalidInputError
	_, err := svc.Compare(authCtx(1, authz.ResearchView), 10, constants.ProductEtanol, nil)
	assert.ErrorAs(t, err, &invalid)

	_, err = svc.Compare(authCtx(1, authz.ResearchView), 1, "kerosene", nil)
	assert.ErrorAs(t, err, &invalid)

	_, err = svc.Compare(authCtx(1), 1, constants.ProductEtanol, nil)
	assert.ErrorIs(t, err, apperrors.ErrForbidden)
}

func researchWorkbook(t *testing.T, rows [][]interface{}) *bytes.Buffer {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &row))
	}
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf
}

func TestImportSheet(t *testing.T) {
	svc, prices, inv := newResearchFixture(t)
	book := researchWorkbook(t, [][]interface{}{
		{"Pesquisa de preços - semana 18"},
		{"Posto", "Produto", "Preço", "Data", "Obs"},
		{"10", "etanol", "4,69", "03/05/2026", "placa nova"},
		{"ale", "Diesel S10", "R$ 5,99", "", ""},
		{"Unknown", "etanol", "4,50", "", ""},
		{"10", "kerosene", "4,50", "", ""},
		{"10", "gnv", "abc", "", ""},
		{"", "", "", "", ""},
	})

	res, err := svc.ImportSheet(authCtx(1, authz.ResearchImport), book)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Imported)
	assert.Equal(t, 3, res.Skipped)
	require.Len(t, res.Errors, 3)
	assert.Equal(t, 5, res.Errors[0].Row)

	require.Len(t, prices.created, 2)
	first := prices.created[0]
	assert.Equal(t, uint64(10), first.StationID)
	assert.Equal(t, money.Cents(469), first.Price)
	assert.Equal(t, 3, first.ObservedAt.Day())
	require.NotNil(t, first.Notes)
	assert.Equal(t, "import", first.Source)

	second := prices.created[1]
	assert.Equal(t, uint64(13), second.StationID)
	assert.Equal(t, constants.ProductDieselS10, second.Product)
	assert.Equal(t, svc.now(), second.ObservedAt)

	assert.Equal(t, 1, inv.n)
}

func TestImportSheetWithoutHeader(t *testing.T) {
	svc, _, _ := newResearchFixture(t)
	book := researchWorkbook(t, [][]interface{}{{"a", "b"}, {"1", "2"}})

	_, err := svc.ImportSheet(authCtx(1, authz.ResearchImport), book)
	var invalid *apperrors.InvalidInputError
	assert.ErrorAs(t, err, &invalid)
}

func (r *fakeStationRepo) FindStationsByIDs(_ context.Context, ids []uint64) ([]entities.Station, error) {
	var out []entities.Station
	for _, st := range r.stations {
		for _, id := range ids {
			if st.ID == id {
				out = append(out, st)
			}
		}
	}
	return out, nil
}
