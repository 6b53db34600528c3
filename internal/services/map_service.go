package services

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"fuel-pricing/internal/authz"
	"fuel-pricing/internal/dto"
	"fuel-pricing/internal/entities"
	"fuel-pricing/internal/repositories"
	"fuel-pricing/pkg/constants"
	apperrors "fuel-pricing/pkg/errors"
	"fuel-pricing/pkg/metrics"
)

const mapCacheTTL = 60 * time.Second

type MapServiceInterface interface {
	GetStations(ctx context.Context, query dto.MapQuery) (*dto.FeatureCollection, error)
	Invalidate(ctx context.Context)
}

type MapService struct {
	*BaseService
	stationRepo    repositories.StationRepositoryInterface
	suggestionRepo repositories.PriceSuggestionRepositoryInterface
	competitorRepo repositories.CompetitorPriceRepositoryInterface
	cacheRepo      repositories.CacheRepositoryInterface
	metrics        *metrics.Metrics
	group          singleflight.Group
	logger         *zap.Logger
}

func NewMapService(
	base *BaseService,
	stationRepo repositories.StationRepositoryInterface,
	suggestionRepo repositories.PriceSuggestionRepositoryInterface,
	competitorRepo repositories.CompetitorPriceRepositoryInterface,
	cacheRepo repositories.CacheRepositoryInterface,
	m *metrics.Metrics,
	logger *zap.Logger,
) *MapService {
	return &MapService{
		BaseService:    base,
		stationRepo:    stationRepo,
		suggestionRepo: suggestionRepo,
		competitorRepo: competitorRepo,
		cacheRepo:      cacheRepo,
		metrics:        m,
		logger:         logger,
	}
}

// mapCacheKey is stable for equal queries regardless of how they were spelled.
func mapCacheKey(q dto.MapQuery) string {
	f := func(v *float64) string {
		if v == nil {
			return "-"
		}
		return fmt.Sprintf("%.5f", *v)
	}
	raw := fmt.Sprintf("%s|%s|%s|%s|%s", q.Product, f(q.MinLat), f(q.MinLng), f(q.MaxLat), f(q.MaxLng))
	sum := sha1.Sum([]byte(raw))
	return fmt.Sprintf(constants.CacheKeyMapStations, hex.EncodeToString(sum[:8]))
}

func (s *MapService) GetStations(ctx context.Context, query dto.MapQuery) (*dto.FeatureCollection, error) {
	if _, err := s.CheckPermission(ctx, authz.StationsView); err != nil {
		return nil, err
	}
	if !query.HasBounds() && (query.MinLat != nil || query.MinLng != nil || query.MaxLat != nil || query.MaxLng != nil) {
		return nil, apperrors.NewInvalidInputError("bounding box needs min_lat, min_lng, max_lat and max_lng")
	}

	key := mapCacheKey(query)
	var cached dto.FeatureCollection
	if s.CacheGet(ctx, key, &cached) {
		s.metrics.MapCache(true)
		return &cached, nil
	}
	s.metrics.MapCache(false)

	// shared by every caller waiting on key, so one cancelled request must not fail the rest
	shared := context.WithoutCancel(ctx)
	v, err, _ := s.group.Do(key, func() (interface{}, error) {
		fc, err := s.build(shared, query)
		if err != nil {
			return nil, err
		}
		s.CacheSet(shared, key, fc, mapCacheTTL)
		return fc, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*dto.FeatureCollection), nil
}

func (s *MapService) build(ctx context.Context, query dto.MapQuery) (*dto.FeatureCollection, error) {
	var box *entities.BoundingBox
	if query.HasBounds() {
		box = &entities.BoundingBox{MinLat: *query.MinLat, MinLng: *query.MinLng, MaxLat: *query.MaxLat, MaxLng: *query.MaxLng}
	}
	stations, err := s.stationRepo.GetMapStations(ctx, box)
	if err != nil {
		return nil, err
	}

	fc := &dto.FeatureCollection{Type: "FeatureCollection", Features: make([]dto.Feature, 0, len(stations))}
	if len(stations) == 0 {
		return fc, nil
	}

	var ownIDs, competitorIDs []uint64
	for i := range stations {
		if stations[i].IsCompetitor {
			competitorIDs = append(competitorIDs, stations[i].ID)
		} else {
			ownIDs = append(ownIDs, stations[i].ID)
		}
	}

	prices := make(map[uint64][]dto.MapPriceDTO, len(stations))
	if len(ownIDs) > 0 {
		latest, err := s.suggestionRepo.LatestApprovedPrices(ctx, ownIDs, query.Product)
		if err != nil {
			return nil, err
		}
		for _, p := range latest {
			prices[p.StationID] = append(prices[p.StationID], dto.MapPriceDTO{
				Product:    p.Product,
				Price:      moneyToDTO(p.Price),
				ObservedAt: formatTime(p.At),
			})
		}
	}
	if len(competitorIDs) > 0 {
		latest, err := s.competitorRepo.LatestPrices(ctx, competitorIDs, query.Product)
		if err != nil {
			return nil, err
		}
		for _, p := range latest {
			prices[p.StationID] = append(prices[p.StationID], dto.MapPriceDTO{
				Product:    p.Product,
				Price:      moneyToDTO(p.Price),
				ObservedAt: formatTime(p.ObservedAt),
			})
		}
	}

	for i := range stations {
		st := &stations[i]
		stationPrices := prices[st.ID]
		if stationPrices == nil {
			stationPrices = []dto.MapPriceDTO{}
		}
		sort.Slice(stationPrices, func(a, b int) bool { return stationPrices[a].Product < stationPrices[b].Product })
		fc.Features = append(fc.Features, dto.Feature{
			Type: "Feature",
			Geometry: dto.Geometry{
				Type:        "Point",
				Coordinates: [2]float64{*st.Longitude, *st.Latitude},
			},
			Properties: dto.FeatureProperties{
				ID:           st.ID,
				Name:         st.Name,
				Brand:        st.Brand,
				City:         st.City,
				IsCompetitor: st.IsCompetitor,
				Prices:       stationPrices,
			},
		})
	}
	return fc, nil
}

// Invalidate drops every cached map response.
func (s *MapService) Invalidate(ctx context.Context) {
	if err := s.cacheRepo.DelByPattern(ctx, fmt.Sprintf(constants.CacheKeyMapStations, "*")); err != nil {
		s.logger.Warn("failed to invalidate map cache", zap.Error(err))
	}
}
