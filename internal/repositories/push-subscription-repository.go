package repositories

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"fuel-pricing/internal/entities"
)

type PushSubscriptionRepositoryInterface interface {
	Upsert(ctx context.Context, sub *entities.PushSubscription) error
	DeleteByToken(ctx context.Context, token string) error
	DeleteForUser(ctx context.Context, userID uint64, token string) error
	FindByUserIDs(ctx context.Context, userIDs []uint64) ([]entities.PushSubscription, error)
	Touch(ctx context.Context, token string) error
}

type PushSubscriptionRepository struct {
	storage *pgxpool.Pool
}

func NewPushSubscriptionRepository(storage *pgxpool.Pool) PushSubscriptionRepositoryInterface {
	return &PushSubscriptionRepository{storage: storage}
}

// Upsert re-assigns a token to the current user when the device changes hands.
func (r *PushSubscriptionRepository) Upsert(ctx context.Context, sub *entities.PushSubscription) error {
	err := r.storage.QueryRow(ctx, `
		INSERT INTO push_subscriptions (user_id, token, platform, user_agent)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (token) DO UPDATE SET user_id = EXCLUDED.user_id, platform = EXCLUDED.platform,
			user_agent = EXCLUDED.user_agent
		RETURNING id, created_at`,
		sub.UserID, sub.Token, sub.Platform, sub.UserAgent,
	).Scan(&sub.ID, &sub.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to save push subscription: %w", err)
	}
	return nil
}

func (r *PushSubscriptionRepository) DeleteByToken(ctx context.Context, token string) error {
	_, err := r.storage.Exec(ctx, `DELETE FROM push_subscriptions WHERE token = $1`, token)
	return err
}

func (r *PushSubscriptionRepository) DeleteForUser(ctx context.Context, userID uint64, token string) error {
	_, err := r.storage.Exec(ctx, `DELETE FROM push_subscriptions WHERE user_id = $1 AND token = $2`, userID, token)
	return err
}

func (r *PushSubscriptionRepository) FindByUserIDs(ctx context.Context, userIDs []uint64) ([]entities.PushSubscription, error) {
	if len(userIDs) == 0 {
		return []entities.PushSubscription{}, nil
	}
	rows, err := r.storage.Query(ctx, `
		SELECT id, user_id, token, platform, user_agent, created_at, last_used_at
		FROM push_subscriptions WHERE user_id = ANY($1)`, userIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to load push subscriptions: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (entities.PushSubscription, error) {
		var s entities.PushSubscription
		err := row.Scan(&s.ID, &s.UserID, &s.Token, &s.Platform, &s.UserAgent, &s.CreatedAt, &s.LastUsedAt)
		return s, err
	})
}

func (r *PushSubscriptionRepository) Touch(ctx context.Context, token string) error {
	_, err := r.storage.Exec(ctx, `UPDATE push_subscriptions SET last_used_at = NOW() WHERE token = $1`, token)
	return err
}
