package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"fuel-pricing/internal/entities"
	"fuel-pricing/internal/repositories"
	"fuel-pricing/internal/services"
	"fuel-pricing/pkg/constants"
)

// ReminderJob tells approvers about suggestions that have waited on them longer than after.
type ReminderJob struct {
	suggestions repositories.PriceSuggestionRepositoryInterface
	users       repositories.UserRepositoryInterface
	notifier    services.NotifierInterface
	after       time.Duration
	logger      *zap.Logger
	now         func() time.Time
}

func NewReminderJob(
	suggestions repositories.PriceSuggestionRepositoryInterface,
	users repositories.UserRepositoryInterface,
	notifier services.NotifierInterface,
	after time.Duration,
	logger *zap.Logger,
) *ReminderJob {
	return &ReminderJob{
		suggestions: suggestions,
		users:       users,
		notifier:    notifier,
		after:       after,
		logger:      logger,
		now:         time.Now,
	}
}

func (j *ReminderJob) Handle(ctx context.Context, _ *asynq.Task) error {
	stale, err := j.suggestions.GetStalePending(ctx, j.now().Add(-j.after))
	if err != nil {
		return err
	}
	if len(stale) == 0 {
		j.logger.Debug("no stale pending suggestions")
		return nil
	}

	waiting := waitingPerApprover(stale, func(level int) ([]entities.User, error) {
		return j.users.FindApprovers(ctx, level)
	})
	if waiting.err != nil {
		return waiting.err
	}

	for userID, count := range waiting.counts {
		notice := services.Notice{
			Type:    constants.NotificationPendingReminder,
			Title:   "Suggestions waiting for your approval",
			Message: fmt.Sprintf("%d price suggestion(s) pending for more than %s", count, humanDuration(j.after)),
		}
		if err := j.notifier.Notify(ctx, []uint64{userID}, notice); err != nil {
			j.logger.Warn("failed to send pending reminder", zap.Uint64("userID", userID), zap.Error(err))
		}
	}
	j.logger.Info("pending reminders sent", zap.Int("suggestions", len(stale)), zap.Int("approvers", len(waiting.counts)))
	return nil
}

type approverCounts struct {
	counts map[uint64]int
	err    error
}

// waitingPerApprover counts, per approver, the stale suggestions they could act on next.
func waitingPerApprover(stale []entities.PriceSuggestion, approversAt func(level int) ([]entities.User, error)) approverCounts {
	result := approverCounts{counts: make(map[uint64]int)}
	cache := make(map[int][]entities.User)
	for _, s := range stale {
		level := s.CurrentLevel + 1
		approvers, ok := cache[level]
		if !ok {
			var err error
			if approvers, err = approversAt(level); err != nil {
				result.err = err
				return result
			}
			cache[level] = approvers
		}
		for _, u := range approvers {
			if u.ID == s.RequestedBy {
				continue
			}
			result.counts[u.ID]++
		}
	}
	return result
}

func humanDuration(d time.Duration) string {
	if d%(24*time.Hour) == 0 {
		days := int(d / (24 * time.Hour))
		if days == 1 {
			return "24 hours"
		}
		return fmt.Sprintf("%d days", days)
	}
	return d.String()
}
