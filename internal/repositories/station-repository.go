package repositories

import (
	"context"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"fuel-pricing/internal/entities"
	"fuel-pricing/internal/infrastructure/bd"
	apperrors "fuel-pricing/pkg/errors"
	"fuel-pricing/pkg/types"
)

const stationTable = "sis_empresa"

var stationMap = map[string]string{
	"id":            "s.id",
	"name":          "s.name",
	"brand":         "s.brand",
	"city":          "s.city",
	"state":         "s.state",
	"cnpj":          "s.cnpj",
	"is_competitor": "s.is_competitor",
	"active":        "s.active",
	"created_at":    "s.created_at",
}

var stationColumns = []string{
	"s.id", "s.name", "s.trade_name", "s.cnpj", "s.brand", "s.address", "s.city", "s.state",
	"s.latitude", "s.longitude", "s.is_competitor", "s.active", "s.created_at", "s.updated_at",
}

var stationUniqueMessages = map[string]string{"sis_empresa_cnpj_key": "CNPJ already registered"}

type StationRepositoryInterface interface {
	GetStations(ctx context.Context, filter types.Filter) ([]entities.Station, uint64, error)
	FindStation(ctx context.Context, id uint64) (*entities.Station, error)
	FindStationsByIDs(ctx context.Context, ids []uint64) ([]entities.Station, error)
	GetMapStations(ctx context.Context, box *entities.BoundingBox) ([]entities.Station, error)
	CreateStation(ctx context.Context, tx pgx.Tx, station *entities.Station) (uint64, error)
	UpdateStation(ctx context.Context, tx pgx.Tx, station *entities.Station) error
	DeleteStation(ctx context.Context, id uint64) error
}

type StationRepository struct {
	storage *pgxpool.Pool
	logger  *zap.Logger
}

func NewStationRepository(storage *pgxpool.Pool, logger *zap.Logger) StationRepositoryInterface {
	return &StationRepository{storage: storage, logger: logger}
}

func scanStation(row pgx.Row) (*entities.Station, error) {
	var s entities.Station
	err := row.Scan(
		&s.ID, &s.Name, &s.TradeName, &s.CNPJ, &s.Brand, &s.Address, &s.City, &s.State,
		&s.Latitude, &s.Longitude, &s.IsCompetitor, &s.Active, &s.CreatedAt, &s.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan station: %w", err)
	}
	return &s, nil
}

func (r *StationRepository) GetStations(ctx context.Context, filter types.Filter) ([]entities.Station, uint64, error) {
	psql := sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
	searchCols := []string{"s.name", "s.trade_name", "s.city", "s.brand", "s.cnpj"}

	countBuilder := psql.Select("COUNT(s.id)").From(stationTable + " s")
	countBuilder = bd.ApplySearch(countBuilder, filter.Search, searchCols...)
	countBuilder = bd.ApplyListParams(countBuilder, bd.CountFilter(filter), stationMap)

	sqlCount, argsCount, err := countBuilder.ToSql()
	if err != nil {
		return nil, 0, err
	}
	var total uint64
	if err := r.storage.QueryRow(ctx, sqlCount, argsCount...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count stations: %w", err)
	}
	if total == 0 {
		return []entities.Station{}, 0, nil
	}

	builder := psql.Select(stationColumns...).From(stationTable + " s")
	builder = bd.ApplySearch(builder, filter.Search, searchCols...)
	if len(filter.Sort) == 0 {
		builder = builder.OrderBy("s.name ASC")
	}
	builder = bd.ApplyListParams(builder, filter, stationMap)

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, 0, err
	}
	stations, err := r.query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	return stations, total, nil
}

func (r *StationRepository) query(ctx context.Context, query string, args ...interface{}) ([]entities.Station, error) {
	rows, err := r.storage.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query stations: %w", err)
	}
	defer rows.Close()

	stations := make([]entities.Station, 0)
	for rows.Next() {
		s, err := scanStation(rows)
		if err != nil {
			return nil, err
		}
		stations = append(stations, *s)
	}
	return stations, rows.Err()
}

func (r *StationRepository) FindStation(ctx context.Context, id uint64) (*entities.Station, error) {
	query, args, err := sq.StatementBuilder.PlaceholderFormat(sq.Dollar).
		Select(stationColumns...).From(stationTable + " s").Where(sq.Eq{"s.id": id}).ToSql()
	if err != nil {
		return nil, err
	}
	return scanStation(r.storage.QueryRow(ctx, query, args...))
}

func (r *StationRepository) FindStationsByIDs(ctx context.Context, ids []uint64) ([]entities.Station, error) {
	if len(ids) == 0 {
		return []entities.Station{}, nil
	}
	query, args, err := sq.StatementBuilder.PlaceholderFormat(sq.Dollar).
		Select(stationColumns...).From(stationTable + " s").Where(sq.Eq{"s.id": ids}).ToSql()
	if err != nil {
		return nil, err
	}
	return r.query(ctx, query, args...)
}

// GetMapStations returns active stations that have coordinates, optionally inside box.
func (r *StationRepository) GetMapStations(ctx context.Context, box *entities.BoundingBox) ([]entities.Station, error) {
	builder := sq.StatementBuilder.PlaceholderFormat(sq.Dollar).
		Select(stationColumns...).From(stationTable + " s").
		Where(sq.Eq{"s.active": true}).
		Where("s.latitude IS NOT NULL AND s.longitude IS NOT NULL")
	if box != nil {
		builder = builder.Where(sq.And{
			sq.GtOrEq{"s.latitude": box.MinLat},
			sq.LtOrEq{"s.latitude": box.MaxLat},
			sq.GtOrEq{"s.longitude": box.MinLng},
			sq.LtOrEq{"s.longitude": box.MaxLng},
		})
	}
	query, args, err := builder.OrderBy("s.id ASC").ToSql()
	if err != nil {
		return nil, err
	}
	return r.query(ctx, query, args...)
}

func (r *StationRepository) CreateStation(ctx context.Context, tx pgx.Tx, s *entities.Station) (uint64, error) {
	query := `
		INSERT INTO sis_empresa (name, trade_name, cnpj, brand, address, city, state, latitude, longitude, is_competitor, active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11) RETURNING id`

	var id uint64
	err := pick(r.storage, tx).QueryRow(ctx, query,
		s.Name, s.TradeName, s.CNPJ, s.Brand, s.Address, s.City, s.State, s.Latitude, s.Longitude, s.IsCompetitor, s.Active,
	).Scan(&id)
	if err != nil {
		return 0, translatePgError(err, stationUniqueMessages)
	}
	return id, nil
}

func (r *StationRepository) UpdateStation(ctx context.Context, tx pgx.Tx, s *entities.Station) error {
	query := `
		UPDATE sis_empresa SET name = $1, trade_name = $2, cnpj = $3, brand = $4, address = $5, city = $6, state = $7,
			latitude = $8, longitude = $9, is_competitor = $10, active = $11, updated_at = NOW()
		WHERE id = $12`

	result, err := pick(r.storage, tx).Exec(ctx, query,
		s.Name, s.TradeName, s.CNPJ, s.Brand, s.Address, s.City, s.State, s.Latitude, s.Longitude, s.IsCompetitor, s.Active, s.ID,
	)
	if err != nil {
		return translatePgError(err, stationUniqueMessages)
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// DeleteStation fails with 400 while suggestions still reference the station.
func (r *StationRepository) DeleteStation(ctx context.Context, id uint64) error {
	result, err := r.storage.Exec(ctx, `DELETE FROM sis_empresa WHERE id = $1`, id)
	if err != nil {
		return translatePgError(err, nil)
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}
