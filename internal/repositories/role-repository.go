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

var roleMap = map[string]string{
	"id":         "r.id",
	"name":       "r.name",
	"created_at": "r.created_at",
}

var roleUniqueMessages = map[string]string{"roles_name_key": "role name already in use"}

type RoleRepositoryInterface interface {
	GetRoles(ctx context.Context, filter types.Filter) ([]entities.Role, uint64, error)
	FindByID(ctx context.Context, id uint64) (*entities.Role, error)
	FindByName(ctx context.Context, name string) (*entities.Role, error)
	GetPermissionNames(ctx context.Context, roleID uint64) ([]string, error)
	CreateRole(ctx context.Context, tx pgx.Tx, role *entities.Role) (uint64, error)
	UpdateRole(ctx context.Context, tx pgx.Tx, role *entities.Role) error
	ReplacePermissions(ctx context.Context, tx pgx.Tx, roleID uint64, permissions []string) error
	DeleteRole(ctx context.Context, id uint64) error
	CountUsers(ctx context.Context, roleID uint64) (int64, error)
}

type RoleRepository struct {
	storage *pgxpool.Pool
	logger  *zap.Logger
}

func NewRoleRepository(storage *pgxpool.Pool, logger *zap.Logger) RoleRepositoryInterface {
	return &RoleRepository{storage: storage, logger: logger}
}

// roleColumns aggregates permissions so one row carries the whole role.
var roleColumns = []string{
	"r.id", "r.name", "r.description", "r.created_at", "r.updated_at",
	"COALESCE(ARRAY(SELECT rp.permission FROM role_permissions rp WHERE rp.role_id = r.id ORDER BY rp.permission), '{}')",
}

func scanRole(row pgx.Row) (*entities.Role, error) {
	var role entities.Role
	err := row.Scan(&role.ID, &role.Name, &role.Description, &role.CreatedAt, &role.UpdatedAt, &role.Permissions)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan role: %w", err)
	}
	return &role, nil
}

func (r *RoleRepository) GetRoles(ctx context.Context, filter types.Filter) ([]entities.Role, uint64, error) {
	psql := sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

	countBuilder := bd.ApplySearch(psql.Select("COUNT(r.id)").From("roles r"), filter.Search, "r.name")
	countBuilder = bd.ApplyListParams(countBuilder, bd.CountFilter(filter), roleMap)
	sqlCount, argsCount, err := countBuilder.ToSql()
	if err != nil {
		return nil, 0, err
	}
	var total uint64
	if err := r.storage.QueryRow(ctx, sqlCount, argsCount...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count roles: %w", err)
	}
	if total == 0 {
		return []entities.Role{}, 0, nil
	}

	builder := bd.ApplySearch(psql.Select(roleColumns...).From("roles r"), filter.Search, "r.name")
	if len(filter.Sort) == 0 {
		builder = builder.OrderBy("r.id ASC")
	}
	builder = bd.ApplyListParams(builder, filter, roleMap)

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, 0, err
	}
	rows, err := r.storage.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list roles: %w", err)
	}
	defer rows.Close()

	roles := make([]entities.Role, 0)
	for rows.Next() {
		role, err := scanRole(rows)
		if err != nil {
			return nil, 0, err
		}
		roles = append(roles, *role)
	}
	return roles, total, rows.Err()
}

func (r *RoleRepository) findOne(ctx context.Context, where sq.Eq) (*entities.Role, error) {
	query, args, err := sq.StatementBuilder.PlaceholderFormat(sq.Dollar).
		Select(roleColumns...).From("roles r").Where(where).ToSql()
	if err != nil {
		return nil, err
	}
	return scanRole(r.storage.QueryRow(ctx, query, args...))
}

func (r *RoleRepository) FindByID(ctx context.Context, id uint64) (*entities.Role, error) {
	return r.findOne(ctx, sq.Eq{"r.id": id})
}

func (r *RoleRepository) FindByName(ctx context.Context, name string) (*entities.Role, error) {
	return r.findOne(ctx, sq.Eq{"r.name": name})
}

func (r *RoleRepository) GetPermissionNames(ctx context.Context, roleID uint64) ([]string, error) {
	rows, err := r.storage.Query(ctx, `SELECT permission FROM role_permissions WHERE role_id = $1 ORDER BY permission`, roleID)
	if err != nil {
		return nil, fmt.Errorf("failed to load role permissions: %w", err)
	}
	return pgx.CollectRows(rows, pgx.RowTo[string])
}

func (r *RoleRepository) CreateRole(ctx context.Context, tx pgx.Tx, role *entities.Role) (uint64, error) {
	var id uint64
	err := pick(r.storage, tx).QueryRow(ctx,
		`INSERT INTO roles (name, description) VALUES ($1, $2) RETURNING id`, role.Name, role.Description,
	).Scan(&id)
	if err != nil {
		return 0, translatePgError(err, roleUniqueMessages)
	}
	return id, nil
}

func (r *RoleRepository) UpdateRole(ctx context.Context, tx pgx.Tx, role *entities.Role) error {
	result, err := pick(r.storage, tx).Exec(ctx,
		`UPDATE roles SET name = $1, description = $2, updated_at = NOW() WHERE id = $3`,
		role.Name, role.Description, role.ID,
	)
	if err != nil {
		return translatePgError(err, roleUniqueMessages)
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *RoleRepository) ReplacePermissions(ctx context.Context, tx pgx.Tx, roleID uint64, permissions []string) error {
	q := pick(r.storage, tx)
	if _, err := q.Exec(ctx, `DELETE FROM role_permissions WHERE role_id = $1`, roleID); err != nil {
		return fmt.Errorf("failed to clear role permissions: %w", err)
	}
	if len(permissions) == 0 {
		return nil
	}
	builder := sq.StatementBuilder.PlaceholderFormat(sq.Dollar).
		Insert("role_permissions").Columns("role_id", "permission").
		Suffix("ON CONFLICT DO NOTHING")
	for _, p := range permissions {
		builder = builder.Values(roleID, p)
	}
	query, args, err := builder.ToSql()
	if err != nil {
		return err
	}
	if _, err := q.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to link role permissions: %w", err)
	}
	return nil
}

func (r *RoleRepository) DeleteRole(ctx context.Context, id uint64) error {
	result, err := r.storage.Exec(ctx, `DELETE FROM roles WHERE id = $1`, id)
	if err != nil {
		return translatePgError(err, nil)
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *RoleRepository) CountUsers(ctx context.Context, roleID uint64) (int64, error) {
	var n int64
	err := r.storage.QueryRow(ctx, `SELECT COUNT(*) FROM users WHERE role_id = $1`, roleID).Scan(&n)
	return n, err
}
