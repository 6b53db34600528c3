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
	"fuel-pricing/pkg/constants"
	apperrors "fuel-pricing/pkg/errors"
	"fuel-pricing/pkg/money"
	"fuel-pricing/pkg/types"
)

var suggestionMap = map[string]string{
	"id":                "ps.id",
	"status":            "ps.status",
	"station_id":        "ps.station_id",
	"client_id":         "ps.client_id",
	"payment_method_id": "ps.payment_method_id",
	"product":           "ps.product",
	"requested_by":      "ps.requested_by",
	"current_level":     "ps.current_level",
	"required_levels":   "ps.required_levels",
	"suggested_price":   "ps.suggested_price",
	"margin_cents":      "ps.margin_cents",
	"effective_margin":  "ps.effective_margin",
	"created_at":        "ps.created_at",
	"submitted_at":      "ps.submitted_at",
	"approved_at":       "ps.approved_at",
}

var suggestionColumns = []string{
	"ps.id", "ps.station_id", "ps.client_id", "ps.payment_method_id", "ps.product",
	"ps.current_price", "ps.suggested_price", "ps.cost_price", "ps.arla_price", "ps.arla_cost", "ps.volume_liters",
	"ps.margin_cents", "ps.margin_bps", "ps.arla_compensation", "ps.effective_margin", "ps.variation_bps",
	"ps.observations", "ps.reference_research_ids",
	"ps.status", "ps.required_levels", "ps.current_level", "ps.requested_by", "ps.submitted_at",
	"ps.approved_by", "ps.approved_at", "ps.approved_price", "ps.rejected_by", "ps.rejected_at", "ps.rejection_reason",
	"ps.created_at", "ps.updated_at",
	"COALESCE(s.name, '')", "COALESCE(u.name, '')",
}

// SuggestionListOptions narrows a list beyond the generic filter.
// VisibleToUser restricts rows to those the user requested, or, with VisibleStationID,
// those of that station.
type SuggestionListOptions struct {
	RequestedBy      *uint64
	From             *time.Time
	To               *time.Time
	VisibleToUser    *uint64
	VisibleStationID *uint64
}

type PriceSuggestionRepositoryInterface interface {
	GetSuggestions(ctx context.Context, filter types.Filter, opts SuggestionListOptions) ([]entities.PriceSuggestion, uint64, error)
	GetPendingForApprover(ctx context.Context, approverID uint64, approverLevel int, filter types.Filter) ([]entities.PriceSuggestion, uint64, error)
	GetStalePending(ctx context.Context, submittedBefore time.Time) ([]entities.PriceSuggestion, error)
	FindSuggestion(ctx context.Context, id uint64) (*entities.PriceSuggestion, error)
	FindSuggestionForUpdate(ctx context.Context, tx pgx.Tx, id uint64) (*entities.PriceSuggestion, error)
	CreateSuggestion(ctx context.Context, tx pgx.Tx, s *entities.PriceSuggestion) (uint64, error)
	UpdateSuggestion(ctx context.Context, tx pgx.Tx, s *entities.PriceSuggestion) error
	DeleteSuggestion(ctx context.Context, tx pgx.Tx, id uint64) error
	LatestApprovedPrices(ctx context.Context, stationIDs []uint64, product string) ([]entities.LatestPrice, error)
}

type PriceSuggestionRepository struct {
	storage *pgxpool.Pool
	logger  *zap.Logger
}

func NewPriceSuggestionRepository(storage *pgxpool.Pool, logger *zap.Logger) PriceSuggestionRepositoryInterface {
	return &PriceSuggestionRepository{storage: storage, logger: logger}
}

func scanSuggestion(row pgx.Row) (*entities.PriceSuggestion, error) {
	var ps entities.PriceSuggestion
	var current, suggested, cost, margin, compensation, effective int64
	var arlaPrice, arlaCost, approvedPrice *int64
	err := row.Scan(
		&ps.ID, &ps.StationID, &ps.ClientID, &ps.PaymentMethodID, &ps.Product,
		&current, &suggested, &cost, &arlaPrice, &arlaCost, &ps.VolumeLiters,
		&margin, &ps.MarginBps, &compensation, &effective, &ps.VariationBps,
		&ps.Observations, &ps.ReferenceResearchIDs,
		&ps.Status, &ps.RequiredLevels, &ps.CurrentLevel, &ps.RequestedBy, &ps.SubmittedAt,
		&ps.ApprovedBy, &ps.ApprovedAt, &approvedPrice, &ps.RejectedBy, &ps.RejectedAt, &ps.RejectionReason,
		&ps.CreatedAt, &ps.UpdatedAt,
		&ps.StationName, &ps.RequesterName,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan price suggestion: %w", err)
	}

	ps.CurrentPrice = money.Cents(current)
	ps.SuggestedPrice = money.Cents(suggested)
	ps.CostPrice = money.Cents(cost)
	ps.MarginCents = money.Cents(margin)
	ps.ArlaCompensation = money.Cents(compensation)
	ps.EffectiveMargin = money.Cents(effective)
	ps.ArlaPrice = toCents(arlaPrice)
	ps.ArlaCost = toCents(arlaCost)
	ps.ApprovedPrice = toCents(approvedPrice)
	if ps.ReferenceResearchIDs == nil {
		ps.ReferenceResearchIDs = []int64{}
	}
	return &ps, nil
}

func toCents(v *int64) *money.Cents {
	if v == nil {
		return nil
	}
	c := money.Cents(*v)
	return &c
}

func fromCents(c *money.Cents) *int64 {
	if c == nil {
		return nil
	}
	v := int64(*c)
	return &v
}

func (r *PriceSuggestionRepository) selectSuggestions() sq.SelectBuilder {
	return sq.StatementBuilder.PlaceholderFormat(sq.Dollar).
		Select(suggestionColumns...).
		From("price_suggestions ps").
		LeftJoin("sis_empresa s ON s.id = ps.station_id").
		LeftJoin("users u ON u.id = ps.requested_by")
}

func applySuggestionOptions(b sq.SelectBuilder, filter types.Filter, opts SuggestionListOptions) sq.SelectBuilder {
	b = bd.ApplySearch(b, filter.Search, "s.name", "u.name", "ps.observations")
	if opts.RequestedBy != nil {
		b = b.Where(sq.Eq{"ps.requested_by": *opts.RequestedBy})
	}
	if opts.From != nil {
		b = b.Where(sq.GtOrEq{"ps.created_at": *opts.From})
	}
	if opts.To != nil {
		b = b.Where(sq.Lt{"ps.created_at": *opts.To})
	}
	if opts.VisibleToUser != nil {
		visible := sq.Or{sq.Eq{"ps.requested_by": *opts.VisibleToUser}}
		if opts.VisibleStationID != nil {
			visible = append(visible, sq.Eq{"ps.station_id": *opts.VisibleStationID})
		}
		b = b.Where(visible)
	}
	return b
}

func (r *PriceSuggestionRepository) GetSuggestions(ctx context.Context, filter types.Filter, opts SuggestionListOptions) ([]entities.PriceSuggestion, uint64, error) {
	psql := sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

	countBuilder := psql.Select("COUNT(ps.id)").
		From("price_suggestions ps").
		LeftJoin("sis_empresa s ON s.id = ps.station_id").
		LeftJoin("users u ON u.id = ps.requested_by")
	countBuilder = applySuggestionOptions(countBuilder, filter, opts)
	countBuilder = bd.ApplyListParams(countBuilder, bd.CountFilter(filter), suggestionMap)

	sqlCount, argsCount, err := countBuilder.ToSql()
	if err != nil {
		return nil, 0, err
	}
	var total uint64
	if err := r.storage.QueryRow(ctx, sqlCount, argsCount...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count price suggestions: %w", err)
	}
	if total == 0 {
		return []entities.PriceSuggestion{}, 0, nil
	}

	builder := applySuggestionOptions(r.selectSuggestions(), filter, opts)
	if len(filter.Sort) == 0 {
		builder = builder.OrderBy("ps.created_at DESC", "ps.id DESC")
	}
	builder = bd.ApplyListParams(builder, filter, suggestionMap)

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, 0, err
	}
	list, err := r.query(ctx, r.storage, query, args...)
	if err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

// pendingForApprover: waiting on a level the approver can reach, not requested by them,
// and not already approved by them since the last submission.
func pendingForApprover(b sq.SelectBuilder, approverID uint64, approverLevel int) sq.SelectBuilder {
	return b.
		Where(sq.Eq{"ps.status": constants.SuggestionStatusPending}).
		Where(sq.Lt{"ps.current_level": approverLevel}).
		Where(sq.NotEq{"ps.requested_by": approverID}).
		Where(`NOT EXISTS (
			SELECT 1 FROM approval_history ah
			WHERE ah.suggestion_id = ps.id AND ah.actor_id = ? AND ah.action = 'approve'
			  AND ah.id > COALESCE((
				SELECT MAX(sub.id) FROM approval_history sub
				WHERE sub.suggestion_id = ps.id AND sub.action = 'submit'), 0))`, approverID)
}

func (r *PriceSuggestionRepository) GetPendingForApprover(ctx context.Context, approverID uint64, approverLevel int, filter types.Filter) ([]entities.PriceSuggestion, uint64, error) {
	psql := sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

	countBuilder := pendingForApprover(psql.Select("COUNT(ps.id)").From("price_suggestions ps"), approverID, approverLevel)
	countBuilder = bd.ApplyListParams(countBuilder, bd.CountFilter(filter), suggestionMap)
	sqlCount, argsCount, err := countBuilder.ToSql()
	if err != nil {
		return nil, 0, err
	}
	var total uint64
	if err := r.storage.QueryRow(ctx, sqlCount, argsCount...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count pending suggestions: %w", err)
	}
	if total == 0 {
		return []entities.PriceSuggestion{}, 0, nil
	}

	builder := pendingForApprover(r.selectSuggestions(), approverID, approverLevel)
	if len(filter.Sort) == 0 {
		builder = builder.OrderBy("ps.submitted_at ASC", "ps.id ASC")
	}
	builder = bd.ApplyListParams(builder, filter, suggestionMap)

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, 0, err
	}
	list, err := r.query(ctx, r.storage, query, args...)
	if err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

func (r *PriceSuggestionRepository) GetStalePending(ctx context.Context, submittedBefore time.Time) ([]entities.PriceSuggestion, error) {
	query, args, err := r.selectSuggestions().
		Where(sq.Eq{"ps.status": constants.SuggestionStatusPending}).
		Where(sq.Lt{"ps.submitted_at": submittedBefore}).
		OrderBy("ps.submitted_at ASC").
		ToSql()
	if err != nil {
		return nil, err
	}
	return r.query(ctx, r.storage, query, args...)
}

func (r *PriceSuggestionRepository) query(ctx context.Context, q Querier, query string, args ...interface{}) ([]entities.PriceSuggestion, error) {
	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query price suggestions: %w", err)
	}
	defer rows.Close()

	list := make([]entities.PriceSuggestion, 0)
	for rows.Next() {
		ps, err := scanSuggestion(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *ps)
	}
	return list, rows.Err()
}

func (r *PriceSuggestionRepository) FindSuggestion(ctx context.Context, id uint64) (*entities.PriceSuggestion, error) {
	query, args, err := r.selectSuggestions().Where(sq.Eq{"ps.id": id}).ToSql()
	if err != nil {
		return nil, err
	}
	return scanSuggestion(r.storage.QueryRow(ctx, query, args...))
}

// FindSuggestionForUpdate locks the row until tx ends; concurrent approvals serialize here.
func (r *PriceSuggestionRepository) FindSuggestionForUpdate(ctx context.Context, tx pgx.Tx, id uint64) (*entities.PriceSuggestion, error) {
	query, args, err := r.selectSuggestions().Where(sq.Eq{"ps.id": id}).Suffix("FOR UPDATE OF ps").ToSql()
	if err != nil {
		return nil, err
	}
	return scanSuggestion(pick(r.storage, tx).QueryRow(ctx, query, args...))
}

func (r *PriceSuggestionRepository) CreateSuggestion(ctx context.Context, tx pgx.Tx, s *entities.PriceSuggestion) (uint64, error) {
	query := `
		INSERT INTO price_suggestions (
			station_id, client_id, payment_method_id, product,
			current_price, suggested_price, cost_price, arla_price, arla_cost, volume_liters,
			margin_cents, margin_bps, arla_compensation, effective_margin, variation_bps,
			observations, reference_research_ids, status, required_levels, current_level, requested_by, submitted_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22)
		RETURNING id, created_at, updated_at`

	ids := s.ReferenceResearchIDs
	if ids == nil {
		ids = []int64{}
	}
	err := pick(r.storage, tx).QueryRow(ctx, query,
		s.StationID, s.ClientID, s.PaymentMethodID, s.Product,
		int64(s.CurrentPrice), int64(s.SuggestedPrice), int64(s.CostPrice), fromCents(s.ArlaPrice), fromCents(s.ArlaCost), s.VolumeLiters,
		int64(s.MarginCents), s.MarginBps, int64(s.ArlaCompensation), int64(s.EffectiveMargin), s.VariationBps,
		s.Observations, ids, s.Status, s.RequiredLevels, s.CurrentLevel, s.RequestedBy, s.SubmittedAt,
	).Scan(&s.ID, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return 0, translatePgError(err, nil)
	}
	return s.ID, nil
}

// UpdateSuggestion writes every mutable column, workflow fields included.
func (r *PriceSuggestionRepository) UpdateSuggestion(ctx context.Context, tx pgx.Tx, s *entities.PriceSuggestion) error {
	query := `
		UPDATE price_suggestions SET
			client_id = $1, payment_method_id = $2,
			current_price = $3, suggested_price = $4, cost_price = $5, arla_price = $6, arla_cost = $7, volume_liters = $8,
			margin_cents = $9, margin_bps = $10, arla_compensation = $11, effective_margin = $12, variation_bps = $13,
			observations = $14, reference_research_ids = $15,
			status = $16, required_levels = $17, current_level = $18, submitted_at = $19,
			approved_by = $20, approved_at = $21, approved_price = $22,
			rejected_by = $23, rejected_at = $24, rejection_reason = $25,
			updated_at = NOW()
		WHERE id = $26`

	ids := s.ReferenceResearchIDs
	if ids == nil {
		ids = []int64{}
	}
	result, err := pick(r.storage, tx).Exec(ctx, query,
		s.ClientID, s.PaymentMethodID,
		int64(s.CurrentPrice), int64(s.SuggestedPrice), int64(s.CostPrice), fromCents(s.ArlaPrice), fromCents(s.ArlaCost), s.VolumeLiters,
		int64(s.MarginCents), s.MarginBps, int64(s.ArlaCompensation), int64(s.EffectiveMargin), s.VariationBps,
		s.Observations, ids,
		s.Status, s.RequiredLevels, s.CurrentLevel, s.SubmittedAt,
		s.ApprovedBy, s.ApprovedAt, fromCents(s.ApprovedPrice),
		s.RejectedBy, s.RejectedAt, s.RejectionReason,
		s.ID,
	)
	if err != nil {
		return translatePgError(err, nil)
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *PriceSuggestionRepository) DeleteSuggestion(ctx context.Context, tx pgx.Tx, id uint64) error {
	result, err := pick(r.storage, tx).Exec(ctx, `DELETE FROM price_suggestions WHERE id = $1`, id)
	if err != nil {
		return translatePgError(err, nil)
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// LatestApprovedPrices returns, per station and product, the most recent approved price.
// An override given at approval wins over the suggested price. Empty product means every product.
func (r *PriceSuggestionRepository) LatestApprovedPrices(ctx context.Context, stationIDs []uint64, product string) ([]entities.LatestPrice, error) {
	builder := sq.StatementBuilder.PlaceholderFormat(sq.Dollar).
		Select("DISTINCT ON (ps.station_id, ps.product) ps.station_id", "ps.product",
			"COALESCE(ps.approved_price, ps.suggested_price)", "ps.approved_at").
		From("price_suggestions ps").
		Where(sq.Eq{"ps.status": constants.SuggestionStatusApproved}).
		Where("ps.approved_at IS NOT NULL")
	if len(stationIDs) > 0 {
		builder = builder.Where(sq.Eq{"ps.station_id": stationIDs})
	}
	if product != "" {
		builder = builder.Where(sq.Eq{"ps.product": product})
	}
	query, args, err := builder.OrderBy("ps.station_id", "ps.product", "ps.approved_at DESC").ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.storage.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to load latest approved prices: %w", err)
	}
	defer rows.Close()

	prices := make([]entities.LatestPrice, 0)
	for rows.Next() {
		var lp entities.LatestPrice
		var price int64
		if err := rows.Scan(&lp.StationID, &lp.Product, &price, &lp.At); err != nil {
			return nil, fmt.Errorf("failed to scan latest price: %w", err)
		}
		lp.Price = money.Cents(price)
		prices = append(prices, lp)
	}
	return prices, rows.Err()
}
