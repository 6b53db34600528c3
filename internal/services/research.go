package services

import (
	"context"
	"io"
	"math"
	"sort"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"fuel-pricing/internal/authz"
	"fuel-pricing/internal/dto"
	"fuel-pricing/internal/entities"
	"fuel-pricing/internal/repositories"
	"fuel-pricing/pkg/constants"
	apperrors "fuel-pricing/pkg/errors"
	"fuel-pricing/pkg/filestorage"
	"fuel-pricing/pkg/money"
	"fuel-pricing/pkg/types"
)

// Competitors within this distance of an own station are compared against it.
const nearbyRadiusKm = 5.0

// UploadedFile is a photo already checked by the transport layer.
type UploadedFile struct {
	Name   string
	Reader io.Reader
}

type ResearchServiceInterface interface {
	GetPrices(ctx context.Context, filter types.Filter, from, to string) ([]dto.CompetitorPriceDTO, uint64, error)
	FindPrice(ctx context.Context, id uint64) (*dto.CompetitorPriceDTO, error)
	CreatePrice(ctx context.Context, payload dto.CreateCompetitorPriceDTO, photo *UploadedFile) (*dto.CompetitorPriceDTO, error)
	DeletePrice(ctx context.Context, id uint64) error
	ImportSheet(ctx context.Context, file io.Reader) (*dto.ImportResultDTO, error)
	LatestPrices(ctx context.Context, stationIDs []uint64, product string) ([]dto.CompetitorPriceDTO, error)
	Compare(ctx context.Context, stationID uint64, product string, competitorIDs []uint64) (*dto.ComparisonDTO, error)
}

type ResearchService struct {
	*BaseService
	txManager      repositories.TxManagerInterface
	priceRepo      repositories.CompetitorPriceRepositoryInterface
	stationRepo    repositories.StationRepositoryInterface
	suggestionRepo repositories.PriceSuggestionRepositoryInterface
	fileStorage    filestorage.FileStorageInterface
	mapCache       MapCacheInvalidator
	logger         *zap.Logger
	now            func() time.Time
}

func NewResearchService(
	base *BaseService,
	txManager repositories.TxManagerInterface,
	priceRepo repositories.CompetitorPriceRepositoryInterface,
	stationRepo repositories.StationRepositoryInterface,
	suggestionRepo repositories.PriceSuggestionRepositoryInterface,
	fileStorage filestorage.FileStorageInterface,
	mapCache MapCacheInvalidator,
	logger *zap.Logger,
) ResearchServiceInterface {
	return &ResearchService{
		BaseService:    base,
		txManager:      txManager,
		priceRepo:      priceRepo,
		stationRepo:    stationRepo,
		suggestionRepo: suggestionRepo,
		fileStorage:    fileStorage,
		mapCache:       mapCache,
		logger:         logger,
		now:            time.Now,
	}
}

func (s *ResearchService) GetPrices(ctx context.Context, filter types.Filter, from, to string) ([]dto.CompetitorPriceDTO, uint64, error) {
	if _, err := s.CheckPermission(ctx, authz.ResearchView); err != nil {
		return nil, 0, err
	}
	fromDay, err := parseDay(from, false)
	if err != nil {
		return nil, 0, err
	}
	toDay, err := parseDay(to, true)
	if err != nil {
		return nil, 0, err
	}
	prices, total, err := s.priceRepo.GetPrices(ctx, filter, fromDay, toDay)
	if err != nil {
		return nil, 0, err
	}
	return competitorPricesToDTO(prices), total, nil
}

func competitorPricesToDTO(prices []entities.CompetitorPrice) []dto.CompetitorPriceDTO {
	out := make([]dto.CompetitorPriceDTO, 0, len(prices))
	for i := range prices {
		out = append(out, competitorPriceToDTO(&prices[i]))
	}
	return out
}

func (s *ResearchService) FindPrice(ctx context.Context, id uint64) (*dto.CompetitorPriceDTO, error) {
	if _, err := s.CheckPermission(ctx, authz.ResearchView); err != nil {
		return nil, err
	}
	p, err := s.priceRepo.FindPrice(ctx, id)
	if err != nil {
		return nil, err
	}
	result := competitorPriceToDTO(p)
	return &result, nil
}

func (s *ResearchService) competitorStation(ctx context.Context, id uint64) (*entities.Station, error) {
	station, err := s.stationRepo.FindStation(ctx, id)
	if err != nil {
		return nil, err
	}
	if !station.IsCompetitor {
		return nil, apperrors.NewInvalidInputError("station %d is not a competitor station", id)
	}
	return station, nil
}

func (s *ResearchService) CreatePrice(ctx context.Context, payload dto.CreateCompetitorPriceDTO, photo *UploadedFile) (*dto.CompetitorPriceDTO, error) {
	actorID, err := s.CheckPermission(ctx, authz.ResearchCreate)
	if err != nil {
		return nil, err
	}
	if _, err := s.competitorStation(ctx, payload.StationID); err != nil {
		return nil, err
	}
	price, err := parsePrice("price", payload.Price)
	if err != nil {
		return nil, err
	}

	observedAt := s.now()
	if payload.ObservedAt != nil {
		if payload.ObservedAt.After(observedAt.Add(time.Hour)) {
			return nil, apperrors.NewInvalidInputError("observed_at cannot be in the future")
		}
		observedAt = *payload.ObservedAt
	}

	entry := &entities.CompetitorPrice{
		StationID:  payload.StationID,
		Product:    payload.Product,
		Price:      price,
		ObservedAt: observedAt,
		Source:     payload.Source,
		Notes:      payload.Notes,
		CreatedBy:  actorID,
	}

	if photo != nil {
		url, err := s.fileStorage.Save(photo.Reader, photo.Name, constants.UploadContextResearchPhoto.String())
		if err != nil {
			s.logger.Error("failed to store research photo", zap.Error(err))
			return nil, apperrors.ErrInternalServer
		}
		entry.PhotoURL = &url
	}

	var id uint64
	err = s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		var err error
		id, err = s.priceRepo.CreatePrice(ctx, tx, entry)
		return err
	})
	if err != nil {
		if entry.PhotoURL != nil {
			if delErr := s.fileStorage.Delete(*entry.PhotoURL); delErr != nil {
				s.logger.Warn("failed to remove orphaned photo", zap.String("url", *entry.PhotoURL), zap.Error(delErr))
			}
		}
		return nil, err
	}

	s.mapCache.Invalidate(ctx)
	s.logger.Info("competitor price recorded",
		zap.Uint64("id", id),
		zap.Uint64("stationID", entry.StationID),
		zap.String("product", entry.Product),
		zap.String("price", entry.Price.FormatDecimal()),
	)
	return s.FindPrice(ctx, id)
}

func (s *ResearchService) DeletePrice(ctx context.Context, id uint64) error {
	actorID, err := s.CheckPermission(ctx, authz.ResearchDelete)
	if err != nil {
		return err
	}
	p, err := s.priceRepo.FindPrice(ctx, id)
	if err != nil {
		return err
	}
	if err := s.priceRepo.DeletePrice(ctx, id); err != nil {
		return err
	}
	if p.PhotoURL != nil {
		if err := s.fileStorage.Delete(*p.PhotoURL); err != nil {
			s.logger.Warn("failed to delete research photo", zap.String("url", *p.PhotoURL), zap.Error(err))
		}
	}
	s.mapCache.Invalidate(ctx)
	s.logger.Info("competitor price deleted", zap.Uint64("id", id), zap.Uint64("deletedBy", actorID))
	return nil
}

// ImportSheet stores every usable row of an .xlsx survey in one transaction.
func (s *ResearchService) ImportSheet(ctx context.Context, file io.Reader) (*dto.ImportResultDTO, error) {
	actorID, err := s.CheckPermission(ctx, authz.ResearchImport)
	if err != nil {
		return nil, err
	}

	f, err := excelize.OpenReader(file)
	if err != nil {
		return nil, apperrors.NewInvalidInputError("file is not a valid .xlsx workbook")
	}
	defer f.Close()

	competitors, _, err := s.stationRepo.GetStations(ctx, types.Filter{Filter: map[string]interface{}{"is_competitor": true}})
	if err != nil {
		return nil, err
	}

	prices, result, err := parseResearchSheet(f, newStationIndex(competitors), actorID, s.now())
	if err != nil {
		return nil, apperrors.NewInvalidInputError("%v", err)
	}

	if len(prices) > 0 {
		err = s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
			for i := range prices {
				if _, err := s.priceRepo.CreatePrice(ctx, tx, &prices[i]); err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
		s.mapCache.Invalidate(ctx)
	}

	result.Imported = len(prices)
	s.logger.Info("research sheet imported",
		zap.Uint64("userID", actorID),
		zap.Int("imported", result.Imported),
		zap.Int("skipped", result.Skipped),
	)
	return &result, nil
}

func (s *ResearchService) LatestPrices(ctx context.Context, stationIDs []uint64, product string) ([]dto.CompetitorPriceDTO, error) {
	if _, err := s.CheckPermission(ctx, authz.ResearchView); err != nil {
		return nil, err
	}
	prices, err := s.priceRepo.LatestPrices(ctx, stationIDs, product)
	if err != nil {
		return nil, err
	}
	return competitorPricesToDTO(prices), nil
}

// distanceKm is the great-circle distance between two coordinates.
func distanceKm(lat1, lng1, lat2, lng2 float64) float64 {
	const earthRadiusKm = 6371.0
	toRad := func(d float64) float64 { return d * math.Pi / 180 }
	dLat := toRad(lat2 - lat1)
	dLng := toRad(lng2 - lng1)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*math.Sin(dLng/2)*math.Sin(dLng/2)
	return earthRadiusKm * 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}

// nearbyCompetitors picks competitors within nearbyRadiusKm, or in the same city when
// the own station has no coordinates.
func nearbyCompetitors(own *entities.Station, stations []entities.Station) []uint64 {
	ids := make([]uint64, 0)
	for i := range stations {
		c := &stations[i]
		if !c.IsCompetitor || !c.Active {
			continue
		}
		if own.HasCoordinates() && c.HasCoordinates() {
			if distanceKm(*own.Latitude, *own.Longitude, *c.Latitude, *c.Longitude) <= nearbyRadiusKm {
				ids = append(ids, c.ID)
			}
			continue
		}
		if !own.HasCoordinates() && own.City != nil && c.City != nil && *own.City == *c.City {
			ids = append(ids, c.ID)
		}
	}
	return ids
}

// Compare puts an own station's latest approved price next to competitor quotes.
func (s *ResearchService) Compare(ctx context.Context, stationID uint64, product string, competitorIDs []uint64) (*dto.ComparisonDTO, error) {
	if _, err := s.CheckPermission(ctx, authz.ResearchView); err != nil {
		return nil, err
	}
	if !constants.IsFuelProduct(product) {
		return nil, apperrors.NewInvalidInputError("unknown product %q", product)
	}
	own, err := s.stationRepo.FindStation(ctx, stationID)
	if err != nil {
		return nil, err
	}
	if own.IsCompetitor {
		return nil, apperrors.NewInvalidInputError("station %d is a competitor station", stationID)
	}

	if len(competitorIDs) == 0 {
		stations, _, err := s.stationRepo.GetStations(ctx, types.Filter{Filter: map[string]interface{}{"is_competitor": true}})
		if err != nil {
			return nil, err
		}
		competitorIDs = nearbyCompetitors(own, stations)
	}

	result := &dto.ComparisonDTO{
		Station:     dto.ShortStationDTO{ID: own.ID, Name: own.Name},
		Product:     product,
		Competitors: []dto.CompetitorQuoteDTO{},
	}

	ownPrices, err := s.suggestionRepo.LatestApprovedPrices(ctx, []uint64{own.ID}, product)
	if err != nil {
		return nil, err
	}
	var ownPrice *money.Cents
	if len(ownPrices) > 0 {
		ownPrice = &ownPrices[0].Price
		result.OwnPrice = moneyPtrToDTO(ownPrice)
	}

	if len(competitorIDs) == 0 {
		return result, nil
	}
	quotes, err := s.priceRepo.LatestPrices(ctx, competitorIDs, product)
	if err != nil {
		return nil, err
	}
	if len(quotes) == 0 {
		return result, nil
	}

	sort.Slice(quotes, func(i, j int) bool { return quotes[i].Price < quotes[j].Price })
	var sum int64
	for i := range quotes {
		q := &quotes[i]
		sum += int64(q.Price)
		var diff money.Cents
		if ownPrice != nil {
			diff = q.Price - *ownPrice
		}
		result.Competitors = append(result.Competitors, dto.CompetitorQuoteDTO{
			Station:    dto.ShortStationDTO{ID: q.StationID, Name: q.StationName},
			Brand:      q.Brand,
			Price:      moneyToDTO(q.Price),
			Difference: moneyToDTO(diff),
			ObservedAt: formatTime(q.ObservedAt),
		})
	}
	n := int64(len(quotes))
	avg := money.Cents((sum + n/2) / n)
	lowest := quotes[0].Price
	result.Average = moneyPtrToDTO(&avg)
	result.Lowest = moneyPtrToDTO(&lowest)
	return result, nil
}
