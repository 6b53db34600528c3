package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"fuel-pricing/internal/entities"
	"fuel-pricing/internal/infrastructure/bd"
	apperrors "fuel-pricing/pkg/errors"
	"fuel-pricing/pkg/money"
	"fuel-pricing/pkg/types"
)

var competitorPriceMap = map[string]string{
	"id":          "cp.id",
	"station_id":  "cp.station_id",
	"product":     "cp.product",
	"source":      "cp.source",
	"price":       "cp.price",
	"observed_at": "cp.observed_at",
	"created_by":  "cp.created_by",
	"brand":       "s.brand",
	"city":        "s.city",
}

var competitorPriceColumns = []string{
	"cp.id", "cp.station_id", "cp.product", "cp.price", "cp.observed_at", "cp.source", "cp.notes", "cp.photo_url",
	"cp.created_by", "cp.created_at", "COALESCE(s.name, '')", "s.brand",
}

type CompetitorPriceRepositoryInterface interface {
	GetPrices(ctx context.Context, filter types.Filter, from, to *time.Time) ([]entities.CompetitorPrice, uint64, error)
	FindPrice(ctx context.Context, id uint64) (*entities.CompetitorPrice, error)
	CreatePrice(ctx context.Context, tx pgx.Tx, price *entities.CompetitorPrice) (uint64, error)
	DeletePrice(ctx context.Context, id uint64) error
	LatestPrices(ctx context.Context, stationIDs []uint64, product string) ([]entities.CompetitorPrice, error)
}

type CompetitorPriceRepository struct {
	storage *pgxpool.Pool
	logger  *zap.Logger
}

func NewCompetitorPriceRepository(storage *pgxpool.Pool, logger *zap.Logger) CompetitorPriceRepositoryInterface {
	return &CompetitorPriceRepository{storage: storage, logger: logger}
}

func scanCompetitorPrice(row pgx.Row) (*entities.CompetitorPrice, error) {
	var cp entities.CompetitorPrice
	var price int64
	err := row.Scan(
		&cp.ID, &cp.StationID, &cp.Product, &price, &cp.ObservedAt, &cp.Source, &cp.Notes, &cp.PhotoURL,
		&cp.CreatedBy, &cp.CreatedAt, &cp.StationName, &cp.Brand,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan competitor price: %w", err)
	}
	cp.Price = money.Cents(price)
	return &cp, nil
}

func (r *CompetitorPriceRepository) selectPrices(columns ...string) sq.SelectBuilder {
	return sq.StatementBuilder.PlaceholderFormat(sq.Dollar).
		Select(columns...).
		From("competitor_prices cp").
		LeftJoin("sis_empresa s ON s.id = cp.station_id")
}

func (r *CompetitorPriceRepository) GetPrices(ctx context.Context, filter types.Filter, from, to *time.Time) ([]entities.CompetitorPrice, uint64, error) {
	apply := func(b sq.SelectBuilder) sq.SelectBuilder {
		b = bd.ApplySearch(b, filter.Search, "s.name", "s.brand", "cp.notes")
		if from != nil {
			b = b.Where(sq.GtOrEq{"cp.observed_at": *from})
		}
		if to != nil {
			b = b.Where(sq.Lt{"cp.observed_at": *to})
		}
		return b
	}

	countBuilder := bd.ApplyListParams(apply(r.selectPrices("COUNT(cp.id)")), bd.CountFilter(filter), competitorPriceMap)
	sqlCount, argsCount, err := countBuilder.ToSql()
	if err != nil {
		return nil, 0, err
	}
	var total uint64
	if err := r.storage.QueryRow(ctx, sqlCount, argsCount...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count competitor prices: %w", err)
	}
	if total == 0 {
		return []entities.CompetitorPrice{}, 0, nil
	}

	builder := apply(r.selectPrices(competitorPriceColumns...))
	if len(filter.Sort) == 0 {
		builder = builder.OrderBy("cp.observed_at DESC", "cp.id DESC")
	}
	builder = bd.ApplyListParams(builder, filter, competitorPriceMap)

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, 0, err
	}
	list, err := r.query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

func (r *CompetitorPriceRepository) query(ctx context.Context, query string, args ...interface{}) ([]entities.CompetitorPrice, error) {
	rows, err := r.storage.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query competitor prices: %w", err)
	}
	defer rows.Close()

	list := make([]entities.CompetitorPrice, 0)
	for rows.Next() {
		cp, err := scanCompetitorPrice(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *cp)
	}
	return list, rows.Err()
}

func (r *CompetitorPriceRepository) FindPrice(ctx context.Context, id uint64) (*entities.CompetitorPrice, error) {
	query, args, err := r.selectPrices(competitorPriceColumns...).Where(sq.Eq{"cp.id": id}).ToSql()
	if err != nil {
		return nil, err
	}
	return scanCompetitorPrice(r.storage.QueryRow(ctx, query, args...))
}

func (r *CompetitorPriceRepository) CreatePrice(ctx context.Context, tx pgx.Tx, cp *entities.CompetitorPrice) (uint64, error) {
	err := pick(r.storage, tx).QueryRow(ctx, `
		INSERT INTO competitor_prices (station_id, product, price, observed_at, source, notes, photo_url, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id, created_at`,
		cp.StationID, cp.Product, int64(cp.Price), cp.ObservedAt, cp.Source, cp.Notes, cp.PhotoURL, cp.CreatedBy,
	).Scan(&cp.ID, &cp.CreatedAt)
	if err != nil {
		return 0, translatePgError(err, nil)
	}
	return cp.ID, nil
}

func (r *CompetitorPriceRepository) DeletePrice(ctx context.Context, id uint64) error {
	result, err := r.storage.Exec(ctx, `DELETE FROM competitor_prices WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// LatestPrices returns the newest observation per station and product.
// Empty stationIDs means every station; empty product means every product.
func (r *CompetitorPriceRepository) LatestPrices(ctx context.Context, stationIDs []uint64, product string) ([]entities.CompetitorPrice, error) {
	columns := append([]string{"DISTINCT ON (cp.station_id, cp.product) cp.id"}, competitorPriceColumns[1:]...)
	builder := r.selectPrices(columns...)
	if len(stationIDs) > 0 {
		builder = builder.Where(sq.Eq{"cp.station_id": stationIDs})
	}
	if product != "" {
		builder = builder.Where(sq.Eq{"cp.product": product})
	}
	query, args, err := builder.OrderBy("cp.station_id", "cp.product", "cp.observed_at DESC", "cp.id DESC").ToSql()
	if err != nil {
		return nil, err
	}
	return r.query(ctx, query, args...)
}
