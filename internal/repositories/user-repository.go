package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"fuel-pricing/internal/entities"
	"fuel-pricing/internal/infrastructure/bd"
	apperrors "fuel-pricing/pkg/errors"
	"fuel-pricing/pkg/types"
)

var userMap = map[string]string{
	"id":             "u.id",
	"name":           "u.name",
	"email":          "u.email",
	"login":          "u.login",
	"role_id":        "u.role_id",
	"approval_level": "u.approval_level",
	"station_id":     "u.station_id",
	"active":         "u.active",
	"created_at":     "u.created_at",
}

var userColumns = []string{
	"u.id", "u.name", "u.email", "u.login", "u.password", "u.role_id", "COALESCE(r.name, '')",
	"u.approval_level", "u.station_id", "u.active", "u.created_at", "u.updated_at",
}

var userUniqueMessages = map[string]string{
	"users_email_key": "email already in use",
	"users_login_key": "login already in use",
}

type UserRepositoryInterface interface {
	GetUsers(ctx context.Context, filter types.Filter) ([]entities.User, uint64, error)
	FindUserByID(ctx context.Context, id uint64) (*entities.User, error)
	FindUserByEmailOrLogin(ctx context.Context, login string) (*entities.User, error)
	FindUsersByIDs(ctx context.Context, ids []uint64) ([]entities.User, error)
	FindApprovers(ctx context.Context, minLevel int) ([]entities.User, error)
	CreateUser(ctx context.Context, tx pgx.Tx, user *entities.User) (uint64, error)
	UpdateUser(ctx context.Context, tx pgx.Tx, user *entities.User) error
	UpdatePassword(ctx context.Context, userID uint64, passwordHash string) error
	DeactivateUser(ctx context.Context, id uint64) error
}

type UserRepository struct {
	storage *pgxpool.Pool
	logger  *zap.Logger
}

func NewUserRepository(storage *pgxpool.Pool, logger *zap.Logger) UserRepositoryInterface {
	return &UserRepository{storage: storage, logger: logger}
}

func scanUser(row pgx.Row) (*entities.User, error) {
	var user entities.User
	err := row.Scan(
		&user.ID, &user.Name, &user.Email, &user.Login, &user.Password, &user.RoleID, &user.RoleName,
		&user.ApprovalLevel, &user.StationID, &user.Active, &user.CreatedAt, &user.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan user: %w", err)
	}
	return &user, nil
}

func (r *UserRepository) selectUsers() sq.SelectBuilder {
	return sq.StatementBuilder.PlaceholderFormat(sq.Dollar).
		Select(userColumns...).
		From("users u").
		LeftJoin("roles r ON r.id = u.role_id")
}

func (r *UserRepository) GetUsers(ctx context.Context, filter types.Filter) ([]entities.User, uint64, error) {
	psql := sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

	countBuilder := psql.Select("COUNT(u.id)").From("users u")
	countBuilder = bd.ApplySearch(countBuilder, filter.Search, "u.name", "u.email", "u.login")
	countBuilder = bd.ApplyListParams(countBuilder, bd.CountFilter(filter), userMap)

	var total uint64
	sqlCount, argsCount, err := countBuilder.ToSql()
	if err != nil {
		return nil, 0, err
	}
	if err := r.storage.QueryRow(ctx, sqlCount, argsCount...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count users: %w", err)
	}
	if total == 0 {
		return []entities.User{}, 0, nil
	}

	builder := bd.ApplySearch(r.selectUsers(), filter.Search, "u.name", "u.email", "u.login")
	if len(filter.Sort) == 0 {
		builder = builder.OrderBy("u.name ASC")
	}
	builder = bd.ApplyListParams(builder, filter, userMap)

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, 0, err
	}
	rows, err := r.storage.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	users := make([]entities.User, 0)
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, 0, err
		}
		users = append(users, *user)
	}
	return users, total, rows.Err()
}

func (r *UserRepository) findOne(ctx context.Context, where sq.Sqlizer) (*entities.User, error) {
	query, args, err := r.selectUsers().Where(where).Limit(1).ToSql()
	if err != nil {
		return nil, err
	}
	return scanUser(r.storage.QueryRow(ctx, query, args...))
}

func (r *UserRepository) FindUserByID(ctx context.Context, id uint64) (*entities.User, error) {
	return r.findOne(ctx, sq.Eq{"u.id": id})
}

// FindUserByEmailOrLogin hides whether the account exists: a miss is ErrInvalidCredentials.
func (r *UserRepository) FindUserByEmailOrLogin(ctx context.Context, login string) (*entities.User, error) {
	login = strings.ToLower(strings.TrimSpace(login))
	user, err := r.findOne(ctx, sq.Or{sq.Eq{"LOWER(u.email)": login}, sq.Eq{"LOWER(u.login)": login}})
	if errors.Is(err, apperrors.ErrNotFound) {
		return nil, apperrors.ErrInvalidCredentials
	}
	return user, err
}

func (r *UserRepository) FindUsersByIDs(ctx context.Context, ids []uint64) ([]entities.User, error) {
	if len(ids) == 0 {
		return []entities.User{}, nil
	}
	query, args, err := r.selectUsers().Where(sq.Eq{"u.id": ids}).ToSql()
	if err != nil {
		return nil, err
	}
	return r.queryUsers(ctx, query, args...)
}

// FindApprovers returns active users with approval_level >= minLevel whose role may approve.
func (r *UserRepository) FindApprovers(ctx context.Context, minLevel int) ([]entities.User, error) {
	query, args, err := r.selectUsers().
		Where(sq.Eq{"u.active": true}).
		Where(sq.GtOrEq{"u.approval_level": minLevel}).
		Where(`EXISTS (SELECT 1 FROM role_permissions rp WHERE rp.role_id = u.role_id AND rp.permission IN ('suggestions:approve', 'superuser'))`).
		OrderBy("u.approval_level ASC", "u.id ASC").
		ToSql()
	if err != nil {
		return nil, err
	}
	return r.queryUsers(ctx, query, args...)
}

func (r *UserRepository) queryUsers(ctx context.Context, query string, args ...interface{}) ([]entities.User, error) {
	rows, err := r.storage.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	users := make([]entities.User, 0)
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *user)
	}
	return users, rows.Err()
}

func (r *UserRepository) CreateUser(ctx context.Context, tx pgx.Tx, user *entities.User) (uint64, error) {
	query := `
		INSERT INTO users (name, email, login, password, role_id, approval_level, station_id, active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id`

	var id uint64
	err := pick(r.storage, tx).QueryRow(ctx, query,
		user.Name, user.Email, user.Login, user.Password, user.RoleID, user.ApprovalLevel, user.StationID, user.Active,
	).Scan(&id)
	if err != nil {
		return 0, translatePgError(err, userUniqueMessages)
	}
	return id, nil
}

func (r *UserRepository) UpdateUser(ctx context.Context, tx pgx.Tx, user *entities.User) error {
	query := `
		UPDATE users SET name = $1, email = $2, role_id = $3, approval_level = $4, station_id = $5, active = $6,
			updated_at = NOW()
		WHERE id = $7`

	result, err := pick(r.storage, tx).Exec(ctx, query,
		user.Name, user.Email, user.RoleID, user.ApprovalLevel, user.StationID, user.Active, user.ID,
	)
	if err != nil {
		return translatePgError(err, userUniqueMessages)
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *UserRepository) UpdatePassword(ctx context.Context, userID uint64, passwordHash string) error {
	result, err := r.storage.Exec(ctx, `UPDATE users SET password = $1, updated_at = NOW() WHERE id = $2`, passwordHash, userID)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// DeactivateUser keeps the row: suggestions and history reference it.
func (r *UserRepository) DeactivateUser(ctx context.Context, id uint64) error {
	result, err := r.storage.Exec(ctx, `UPDATE users SET active = FALSE, updated_at = NOW() WHERE id = $1 AND active`, id)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}
