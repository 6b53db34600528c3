package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"fuel-pricing/internal/repositories"
	"fuel-pricing/pkg/metrics"
	"fuel-pricing/pkg/push"
)

// PushJob sends one message to every device of the listed users.
type PushJob struct {
	subscriptions repositories.PushSubscriptionRepositoryInterface
	sender        push.SenderInterface
	metrics       *metrics.Metrics
	logger        *zap.Logger
}

func NewPushJob(
	subscriptions repositories.PushSubscriptionRepositoryInterface,
	sender push.SenderInterface,
	m *metrics.Metrics,
	logger *zap.Logger,
) *PushJob {
	return &PushJob{subscriptions: subscriptions, sender: sender, metrics: m, logger: logger}
}

// Handle drops tokens FCM reports as unregistered. Other failures are retried by asynq
// only when no device got the message.
func (j *PushJob) Handle(ctx context.Context, t *asynq.Task) error {
	var payload PushPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("invalid push payload: %v: %w", err, asynq.SkipRetry)
	}

	subs, err := j.subscriptions.FindByUserIDs(ctx, payload.UserIDs)
	if err != nil {
		return err
	}
	if len(subs) == 0 {
		return nil
	}

	var sent, failed int
	var lastErr error
	for _, sub := range subs {
		err := j.sender.Send(ctx, push.Message{
			Token: sub.Token,
			Title: payload.Title,
			Body:  payload.Body,
			Link:  payload.Link,
			Data:  payload.Data,
		})
		switch {
		case err == nil:
			sent++
			j.metrics.PushDelivery("sent")
			if err := j.subscriptions.Touch(ctx, sub.Token); err != nil {
				j.logger.Debug("failed to touch push subscription", zap.Error(err))
			}
		case errors.Is(err, push.ErrDisabled):
			j.metrics.PushDelivery("disabled")
			return nil
		case errors.Is(err, push.ErrUnregistered):
			j.metrics.PushDelivery("unregistered")
			if err := j.subscriptions.DeleteByToken(ctx, sub.Token); err != nil {
				j.logger.Warn("failed to delete unregistered push token", zap.Uint64("userID", sub.UserID), zap.Error(err))
			}
		default:
			failed++
			lastErr = err
			j.metrics.PushDelivery("failed")
			j.logger.Warn("push delivery failed", zap.Uint64("userID", sub.UserID), zap.Error(err))
		}
	}

	if sent == 0 && failed > 0 {
		return lastErr
	}
	return nil
}
