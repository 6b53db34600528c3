package repositories

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"fuel-pricing/internal/entities"
	"fuel-pricing/pkg/constants"
	"fuel-pricing/pkg/money"
)

type DashboardRepositoryInterface interface {
	GetCountByStatus(ctx context.Context, securityCondition sq.Sqlizer) ([]entities.StatusCount, error)
	GetMarginByProduct(ctx context.Context, securityCondition sq.Sqlizer) ([]entities.ProductMargin, error)
	GetPendingByLevel(ctx context.Context, securityCondition sq.Sqlizer) ([]entities.LevelCount, error)
}

type DashboardRepository struct {
	storage *pgxpool.Pool
	logger  *zap.Logger
}

func NewDashboardRepository(storage *pgxpool.Pool, logger *zap.Logger) DashboardRepositoryInterface {
	return &DashboardRepository{storage: storage, logger: logger}
}

func applySecurity(b sq.SelectBuilder, securityCondition sq.Sqlizer) sq.SelectBuilder {
	if securityCondition != nil {
		return b.Where(securityCondition)
	}
	return b
}

func (r *DashboardRepository) GetCountByStatus(ctx context.Context, securityCondition sq.Sqlizer) ([]entities.StatusCount, error) {
	base := sq.Select("ps.status", "COUNT(*)").From("price_suggestions ps").GroupBy("ps.status").OrderBy("ps.status")
	query, args, err := applySecurity(base, securityCondition).PlaceholderFormat(sq.Dollar).ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.storage.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to count suggestions by status: %w", err)
	}
	defer rows.Close()

	out := make([]entities.StatusCount, 0, len(constants.SuggestionStatuses))
	for rows.Next() {
		var sc entities.StatusCount
		if err := rows.Scan(&sc.Status, &sc.Count); err != nil {
			return nil, err
		}
		out = append(out, sc)
	}
	return out, rows.Err()
}

// GetMarginByProduct averages the effective margin of approved suggestions.
func (r *DashboardRepository) GetMarginByProduct(ctx context.Context, securityCondition sq.Sqlizer) ([]entities.ProductMargin, error) {
	base := sq.Select(
		"ps.product",
		"ROUND(AVG(ps.effective_margin))::BIGINT",
		"ROUND(AVG(ps.margin_bps))::BIGINT",
		"COUNT(*)",
	).From("price_suggestions ps").
		Where(sq.Eq{"ps.status": constants.SuggestionStatusApproved}).
		GroupBy("ps.product").
		OrderBy("ps.product")

	query, args, err := applySecurity(base, securityCondition).PlaceholderFormat(sq.Dollar).ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.storage.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to average margins: %w", err)
	}
	defer rows.Close()

	out := make([]entities.ProductMargin, 0)
	for rows.Next() {
		var pm entities.ProductMargin
		var avg int64
		if err := rows.Scan(&pm.Product, &avg, &pm.AvgMarginBps, &pm.Count); err != nil {
			return nil, err
		}
		pm.AvgMarginCents = money.Cents(avg)
		out = append(out, pm)
	}
	return out, rows.Err()
}

// GetPendingByLevel groups pending suggestions by the level they are waiting for.
func (r *DashboardRepository) GetPendingByLevel(ctx context.Context, securityCondition sq.Sqlizer) ([]entities.LevelCount, error) {
	base := sq.Select("ps.current_level + 1", "COUNT(*)").
		From("price_suggestions ps").
		Where(sq.Eq{"ps.status": constants.SuggestionStatusPending}).
		GroupBy("ps.current_level").
		OrderBy("ps.current_level")

	query, args, err := applySecurity(base, securityCondition).PlaceholderFormat(sq.Dollar).ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.storage.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to count pending by level: %w", err)
	}
	defer rows.Close()

	out := make([]entities.LevelCount, 0)
	for rows.Next() {
		var lc entities.LevelCount
		if err := rows.Scan(&lc.Level, &lc.Count); err != nil {
			return nil, err
		}
		out = append(out, lc)
	}
	return out, rows.Err()
}
