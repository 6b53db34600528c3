package services

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"fuel-pricing/internal/authz"
	"fuel-pricing/internal/dto"
	"fuel-pricing/internal/entities"
	"fuel-pricing/internal/repositories"
	apperrors "fuel-pricing/pkg/errors"
	"fuel-pricing/pkg/types"
	"fuel-pricing/pkg/validation"
)

type StationServiceInterface interface {
	GetStations(ctx context.Context, filter types.Filter) ([]dto.StationDTO, uint64, error)
	FindStation(ctx context.Context, id uint64) (*dto.StationDTO, error)
	CreateStation(ctx context.Context, payload dto.CreateStationDTO) (*dto.StationDTO, error)
	UpdateStation(ctx context.Context, id uint64, payload dto.UpdateStationDTO) (*dto.StationDTO, error)
	DeleteStation(ctx context.Context, id uint64) error
}

type StationService struct {
	*BaseService
	txManager   repositories.TxManagerInterface
	stationRepo repositories.StationRepositoryInterface
	mapCache    MapCacheInvalidator
	logger      *zap.Logger
}

// MapCacheInvalidator drops cached map responses after station or price changes.
type MapCacheInvalidator interface {
	Invalidate(ctx context.Context)
}

func NewStationService(
	base *BaseService,
	txManager repositories.TxManagerInterface,
	stationRepo repositories.StationRepositoryInterface,
	mapCache MapCacheInvalidator,
	logger *zap.Logger,
) StationServiceInterface {
	return &StationService{
		BaseService: base,
		txManager:   txManager,
		stationRepo: stationRepo,
		mapCache:    mapCache,
		logger:      logger,
	}
}

func normalizeCNPJ(cnpj *string) *string {
	if cnpj == nil {
		return nil
	}
	digits := validation.OnlyDigits(*cnpj)
	if digits == "" {
		return nil
	}
	return &digits
}

func upperPtr(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.ToUpper(strings.TrimSpace(*s))
	return &v
}

func checkCoordinates(lat, lng *float64) error {
	if (lat == nil) != (lng == nil) {
		return apperrors.NewInvalidInputError("latitude and longitude must be given together")
	}
	return nil
}

func (s *StationService) GetStations(ctx context.Context, filter types.Filter) ([]dto.StationDTO, uint64, error) {
	if _, err := s.CheckPermission(ctx, authz.StationsView); err != nil {
		return nil, 0, err
	}
	stations, total, err := s.stationRepo.GetStations(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	dtos := make([]dto.StationDTO, 0, len(stations))
	for i := range stations {
		dtos = append(dtos, stationToDTO(&stations[i]))
	}
	return dtos, total, nil
}

func (s *StationService) FindStation(ctx context.Context, id uint64) (*dto.StationDTO, error) {
	if _, err := s.CheckPermission(ctx, authz.StationsView); err != nil {
		return nil, err
	}
	station, err := s.stationRepo.FindStation(ctx, id)
	if err != nil {
		return nil, err
	}
	result := stationToDTO(station)
	return &result, nil
}

func (s *StationService) CreateStation(ctx context.Context, payload dto.CreateStationDTO) (*dto.StationDTO, error) {
	actorID, err := s.CheckPermission(ctx, authz.StationsCreate)
	if err != nil {
		return nil, err
	}
	if err := checkCoordinates(payload.Latitude, payload.Longitude); err != nil {
		return nil, err
	}

	station := &entities.Station{
		Name:         strings.TrimSpace(payload.Name),
		TradeName:    payload.TradeName,
		CNPJ:         normalizeCNPJ(payload.CNPJ),
		Brand:        payload.Brand,
		Address:      payload.Address,
		City:         payload.City,
		State:        upperPtr(payload.State),
		Latitude:     payload.Latitude,
		Longitude:    payload.Longitude,
		IsCompetitor: payload.IsCompetitor,
		Active:       true,
	}

	var id uint64
	err = s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		var err error
		id, err = s.stationRepo.CreateStation(ctx, tx, station)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.mapCache.Invalidate(ctx)
	s.logger.Info("station created", zap.Uint64("stationID", id), zap.Bool("competitor", station.IsCompetitor), zap.Uint64("createdBy", actorID))
	return s.FindStation(ctx, id)
}

func (s *StationService) UpdateStation(ctx context.Context, id uint64, payload dto.UpdateStationDTO) (*dto.StationDTO, error) {
	actor, perms, err := s.Actor(ctx)
	if err != nil {
		return nil, err
	}

	err = s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		station, err := s.stationRepo.FindStation(ctx, id)
		if err != nil {
			return err
		}
		if !authz.CanDo(authz.StationsUpdate, authz.Context{Actor: actor, Permissions: perms, Target: station}) {
			return apperrors.ErrForbidden
		}

		if payload.Name.Valid {
			station.Name = strings.TrimSpace(payload.Name.String)
		}
		if payload.TradeName.Valid {
			station.TradeName = &payload.TradeName.String
		}
		if payload.CNPJ.Valid {
			station.CNPJ = normalizeCNPJ(&payload.CNPJ.String)
		}
		if payload.Brand.Valid {
			station.Brand = &payload.Brand.String
		}
		if payload.Address.Valid {
			station.Address = &payload.Address.String
		}
		if payload.City.Valid {
			station.City = &payload.City.String
		}
		if payload.State.Valid {
			station.State = upperPtr(&payload.State.String)
		}
		if payload.Latitude.Valid {
			lat := payload.Latitude.Float64
			station.Latitude = &lat
		}
		if payload.Longitude.Valid {
			lng := payload.Longitude.Float64
			station.Longitude = &lng
		}
		if err := checkCoordinates(station.Latitude, station.Longitude); err != nil {
			return err
		}
		if payload.IsCompetitor.Valid {
			station.IsCompetitor = payload.IsCompetitor.Bool
		}
		if payload.Active.Valid {
			station.Active = payload.Active.Bool
		}
		return s.stationRepo.UpdateStation(ctx, tx, station)
	})
	if err != nil {
		return nil, err
	}

	s.mapCache.Invalidate(ctx)
	s.logger.Info("station updated", zap.Uint64("stationID", id), zap.Uint64("updatedBy", actor.ID))
	return s.FindStation(ctx, id)
}

func (s *StationService) DeleteStation(ctx context.Context, id uint64) error {
	actorID, err := s.CheckPermission(ctx, authz.StationsDelete)
	if err != nil {
		return err
	}
	if err := s.stationRepo.DeleteStation(ctx, id); err != nil {
		return err
	}
	s.mapCache.Invalidate(ctx)
	s.logger.Info("station deleted", zap.Uint64("stationID", id), zap.Uint64("deletedBy", actorID))
	return nil
}
