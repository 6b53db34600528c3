package repositories

import (
	"context"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"fuel-pricing/internal/entities"
	"fuel-pricing/internal/infrastructure/bd"
	apperrors "fuel-pricing/pkg/errors"
	"fuel-pricing/pkg/types"
)

var notificationMap = map[string]string{
	"type":       "n.type",
	"is_read":    "n.is_read",
	"created_at": "n.created_at",
}

var notificationColumns = []string{
	"n.id", "n.user_id", "n.type", "n.title", "n.message", "n.suggestion_id", "n.is_read", "n.read_at", "n.created_at",
}

type NotificationRepositoryInterface interface {
	Create(ctx context.Context, n *entities.Notification) error
	GetForUser(ctx context.Context, userID uint64, filter types.Filter) ([]entities.Notification, uint64, error)
	CountUnread(ctx context.Context, userID uint64) (int64, error)
	MarkRead(ctx context.Context, userID, id uint64) error
	MarkAllRead(ctx context.Context, userID uint64) (int64, error)
}

type NotificationRepository struct {
	storage *pgxpool.Pool
}

func NewNotificationRepository(storage *pgxpool.Pool) NotificationRepositoryInterface {
	return &NotificationRepository{storage: storage}
}

func (r *NotificationRepository) Create(ctx context.Context, n *entities.Notification) error {
	err := r.storage.QueryRow(ctx, `
		INSERT INTO notifications (user_id, type, title, message, suggestion_id)
		VALUES ($1, $2, $3, $4, $5) RETURNING id, created_at`,
		n.UserID, n.Type, n.Title, n.Message, n.SuggestionID,
	).Scan(&n.ID, &n.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert notification: %w", err)
	}
	return nil
}

func (r *NotificationRepository) GetForUser(ctx context.Context, userID uint64, filter types.Filter) ([]entities.Notification, uint64, error) {
	psql := sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

	countBuilder := psql.Select("COUNT(n.id)").From("notifications n").Where(sq.Eq{"n.user_id": userID})
	countBuilder = bd.ApplyListParams(countBuilder, bd.CountFilter(filter), notificationMap)
	sqlCount, argsCount, err := countBuilder.ToSql()
	if err != nil {
		return nil, 0, err
	}
	var total uint64
	if err := r.storage.QueryRow(ctx, sqlCount, argsCount...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count notifications: %w", err)
	}
	if total == 0 {
		return []entities.Notification{}, 0, nil
	}

	builder := psql.Select(notificationColumns...).From("notifications n").Where(sq.Eq{"n.user_id": userID})
	if len(filter.Sort) == 0 {
		builder = builder.OrderBy("n.created_at DESC", "n.id DESC")
	}
	builder = bd.ApplyListParams(builder, filter, notificationMap)

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, 0, err
	}
	rows, err := r.storage.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list notifications: %w", err)
	}
	defer rows.Close()

	list := make([]entities.Notification, 0)
	for rows.Next() {
		var n entities.Notification
		if err := rows.Scan(&n.ID, &n.UserID, &n.Type, &n.Title, &n.Message, &n.SuggestionID, &n.IsRead, &n.ReadAt, &n.CreatedAt); err != nil {
			return nil, 0, fmt.Errorf("failed to scan notification: %w", err)
		}
		list = append(list, n)
	}
	return list, total, rows.Err()
}

func (r *NotificationRepository) CountUnread(ctx context.Context, userID uint64) (int64, error) {
	var n int64
	err := r.storage.QueryRow(ctx, `SELECT COUNT(*) FROM notifications WHERE user_id = $1 AND NOT is_read`, userID).Scan(&n)
	return n, err
}

// MarkRead only touches the caller's own notification; anything else is ErrNotFound.
func (r *NotificationRepository) MarkRead(ctx context.Context, userID, id uint64) error {
	var exists bool
	err := r.storage.QueryRow(ctx, `
		WITH upd AS (
			UPDATE notifications SET is_read = TRUE, read_at = COALESCE(read_at, NOW())
			WHERE id = $1 AND user_id = $2 RETURNING id
		) SELECT EXISTS (SELECT 1 FROM upd)`, id, userID).Scan(&exists)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return err
	}
	if !exists {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *NotificationRepository) MarkAllRead(ctx context.Context, userID uint64) (int64, error) {
	result, err := r.storage.Exec(ctx,
		`UPDATE notifications SET is_read = TRUE, read_at = NOW() WHERE user_id = $1 AND NOT is_read`, userID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}
