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

var clientMap = map[string]string{
	"id":         "c.id",
	"name":       "c.name",
	"document":   "c.document",
	"station_id": "c.station_id",
	"active":     "c.active",
	"created_at": "c.created_at",
}

var clientColumns = []string{
	"c.id", "c.name", "c.document", "c.email", "c.phone", "c.station_id", "c.active", "c.created_at", "c.updated_at",
}

var clientUniqueMessages = map[string]string{"clientes_document_key": "document already registered"}

type ClientRepositoryInterface interface {
	GetClients(ctx context.Context, filter types.Filter) ([]entities.Client, uint64, error)
	FindClient(ctx context.Context, id uint64) (*entities.Client, error)
	CreateClient(ctx context.Context, tx pgx.Tx, client *entities.Client) (uint64, error)
	UpdateClient(ctx context.Context, tx pgx.Tx, client *entities.Client) error
	DeleteClient(ctx context.Context, id uint64) error
}

type ClientRepository struct {
	storage *pgxpool.Pool
	logger  *zap.Logger
}

func NewClientRepository(storage *pgxpool.Pool, logger *zap.Logger) ClientRepositoryInterface {
	return &ClientRepository{storage: storage, logger: logger}
}

func scanClient(row pgx.Row) (*entities.Client, error) {
	var c entities.Client
	err := row.Scan(&c.ID, &c.Name, &c.Document, &c.Email, &c.Phone, &c.StationID, &c.Active, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan client: %w", err)
	}
	return &c, nil
}

func (r *ClientRepository) GetClients(ctx context.Context, filter types.Filter) ([]entities.Client, uint64, error) {
	psql := sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

	countBuilder := bd.ApplySearch(psql.Select("COUNT(c.id)").From("clientes c"), filter.Search, "c.name", "c.document", "c.email")
	countBuilder = bd.ApplyListParams(countBuilder, bd.CountFilter(filter), clientMap)
	sqlCount, argsCount, err := countBuilder.ToSql()
	if err != nil {
		return nil, 0, err
	}
	var total uint64
	if err := r.storage.QueryRow(ctx, sqlCount, argsCount...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count clients: %w", err)
	}
	if total == 0 {
		return []entities.Client{}, 0, nil
	}

	builder := bd.ApplySearch(psql.Select(clientColumns...).From("clientes c"), filter.Search, "c.name", "c.document", "c.email")
	if len(filter.Sort) == 0 {
		builder = builder.OrderBy("c.name ASC")
	}
	builder = bd.ApplyListParams(builder, filter, clientMap)

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, 0, err
	}
	rows, err := r.storage.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list clients: %w", err)
	}
	defer rows.Close()

	clients := make([]entities.Client, 0)
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, 0, err
		}
		clients = append(clients, *c)
	}
	return clients, total, rows.Err()
}

func (r *ClientRepository) FindClient(ctx context.Context, id uint64) (*entities.Client, error) {
	query, args, err := sq.StatementBuilder.PlaceholderFormat(sq.Dollar).
		Select(clientColumns...).From("clientes c").Where(sq.Eq{"c.id": id}).ToSql()
	if err != nil {
		return nil, err
	}
	return scanClient(r.storage.QueryRow(ctx, query, args...))
}

func (r *ClientRepository) CreateClient(ctx context.Context, tx pgx.Tx, c *entities.Client) (uint64, error) {
	var id uint64
	err := pick(r.storage, tx).QueryRow(ctx, `
		INSERT INTO clientes (name, document, email, phone, station_id, active)
		VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`,
		c.Name, c.Document, c.Email, c.Phone, c.StationID, c.Active,
	).Scan(&id)
	if err != nil {
		return 0, translatePgError(err, clientUniqueMessages)
	}
	return id, nil
}

func (r *ClientRepository) UpdateClient(ctx context.Context, tx pgx.Tx, c *entities.Client) error {
	result, err := pick(r.storage, tx).Exec(ctx, `
		UPDATE clientes SET name = $1, document = $2, email = $3, phone = $4, station_id = $5, active = $6, updated_at = NOW()
		WHERE id = $7`,
		c.Name, c.Document, c.Email, c.Phone, c.StationID, c.Active, c.ID,
	)
	if err != nil {
		return translatePgError(err, clientUniqueMessages)
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *ClientRepository) DeleteClient(ctx context.Context, id uint64) error {
	result, err := r.storage.Exec(ctx, `DELETE FROM clientes WHERE id = $1`, id)
	if err != nil {
		return translatePgError(err, nil)
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}
