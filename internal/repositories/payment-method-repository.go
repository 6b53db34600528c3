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

var paymentMethodMap = map[string]string{
	"id":              "pm.id",
	"name":            "pm.name",
	"kind":            "pm.kind",
	"fee_bps":         "pm.fee_bps",
	"settlement_days": "pm.settlement_days",
	"active":          "pm.active",
}

var paymentMethodColumns = []string{
	"pm.id", "pm.name", "pm.kind", "pm.fee_bps", "pm.settlement_days", "pm.active", "pm.created_at", "pm.updated_at",
}

var paymentMethodUniqueMessages = map[string]string{"tipos_pagamento_name_key": "payment method name already in use"}

type PaymentMethodRepositoryInterface interface {
	GetPaymentMethods(ctx context.Context, filter types.Filter) ([]entities.PaymentMethod, uint64, error)
	FindPaymentMethod(ctx context.Context, id uint64) (*entities.PaymentMethod, error)
	CreatePaymentMethod(ctx context.Context, tx pgx.Tx, pm *entities.PaymentMethod) (uint64, error)
	UpdatePaymentMethod(ctx context.Context, tx pgx.Tx, pm *entities.PaymentMethod) error
	DeletePaymentMethod(ctx context.Context, id uint64) error
}

type PaymentMethodRepository struct {
	storage *pgxpool.Pool
	logger  *zap.Logger
}

func NewPaymentMethodRepository(storage *pgxpool.Pool, logger *zap.Logger) PaymentMethodRepositoryInterface {
	return &PaymentMethodRepository{storage: storage, logger: logger}
}

func scanPaymentMethod(row pgx.Row) (*entities.PaymentMethod, error) {
	var pm entities.PaymentMethod
	err := row.Scan(&pm.ID, &pm.Name, &pm.Kind, &pm.FeeBps, &pm.SettlementDays, &pm.Active, &pm.CreatedAt, &pm.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan payment method: %w", err)
	}
	return &pm, nil
}

func (r *PaymentMethodRepository) GetPaymentMethods(ctx context.Context, filter types.Filter) ([]entities.PaymentMethod, uint64, error) {
	psql := sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

	countBuilder := bd.ApplySearch(psql.Select("COUNT(pm.id)").From("tipos_pagamento pm"), filter.Search, "pm.name")
	countBuilder = bd.ApplyListParams(countBuilder, bd.CountFilter(filter), paymentMethodMap)
	sqlCount, argsCount, err := countBuilder.ToSql()
	if err != nil {
		return nil, 0, err
	}
	var total uint64
	if err := r.storage.QueryRow(ctx, sqlCount, argsCount...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count payment methods: %w", err)
	}
	if total == 0 {
		return []entities.PaymentMethod{}, 0, nil
	}

	builder := bd.ApplySearch(psql.Select(paymentMethodColumns...).From("tipos_pagamento pm"), filter.Search, "pm.name")
	if len(filter.Sort) == 0 {
		builder = builder.OrderBy("pm.name ASC")
	}
	builder = bd.ApplyListParams(builder, filter, paymentMethodMap)

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, 0, err
	}
	rows, err := r.storage.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list payment methods: %w", err)
	}
	defer rows.Close()

	methods := make([]entities.PaymentMethod, 0)
	for rows.Next() {
		pm, err := scanPaymentMethod(rows)
		if err != nil {
			return nil, 0, err
		}
		methods = append(methods, *pm)
	}
	return methods, total, rows.Err()
}

func (r *PaymentMethodRepository) FindPaymentMethod(ctx context.Context, id uint64) (*entities.PaymentMethod, error) {
	query, args, err := sq.StatementBuilder.PlaceholderFormat(sq.Dollar).
		Select(paymentMethodColumns...).From("tipos_pagamento pm").Where(sq.Eq{"pm.id": id}).ToSql()
	if err != nil {
		return nil, err
	}
	return scanPaymentMethod(r.storage.QueryRow(ctx, query, args...))
}

func (r *PaymentMethodRepository) CreatePaymentMethod(ctx context.Context, tx pgx.Tx, pm *entities.PaymentMethod) (uint64, error) {
	var id uint64
	err := pick(r.storage, tx).QueryRow(ctx, `
		INSERT INTO tipos_pagamento (name, kind, fee_bps, settlement_days, active)
		VALUES ($1, $2, $3, $4, $5) RETURNING id`,
		pm.Name, pm.Kind, pm.FeeBps, pm.SettlementDays, pm.Active,
	).Scan(&id)
	if err != nil {
		return 0, translatePgError(err, paymentMethodUniqueMessages)
	}
	return id, nil
}

func (r *PaymentMethodRepository) UpdatePaymentMethod(ctx context.Context, tx pgx.Tx, pm *entities.PaymentMethod) error {
	result, err := pick(r.storage, tx).Exec(ctx, `
		UPDATE tipos_pagamento SET name = $1, kind = $2, fee_bps = $3, settlement_days = $4, active = $5, updated_at = NOW()
		WHERE id = $6`,
		pm.Name, pm.Kind, pm.FeeBps, pm.SettlementDays, pm.Active, pm.ID,
	)
	if err != nil {
		return translatePgError(err, paymentMethodUniqueMessages)
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *PaymentMethodRepository) DeletePaymentMethod(ctx context.Context, id uint64) error {
	result, err := r.storage.Exec(ctx, `DELETE FROM tipos_pagamento WHERE id = $1`, id)
	if err != nil {
		return translatePgError(err, nil)
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}
