package services

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"fuel-pricing/internal/entities"
	"fuel-pricing/internal/repositories"
	"fuel-pricing/pkg/websocket"
)

// UserMessenger delivers realtime messages to connected users. *websocket.Hub satisfies it.
type UserMessenger interface {
	SendMessageToUser(userID uint64, payload interface{}, messageType string) (int, error)
}

// PushEnqueuer schedules push delivery outside the caller's goroutine.
type PushEnqueuer interface {
	EnqueuePush(ctx context.Context, userIDs []uint64, title, body, link string, data map[string]string) error
}

type Notice struct {
	Type         string
	Title        string
	Message      string
	SuggestionID *uint64
}

type NotifierInterface interface {
	Notify(ctx context.Context, userIDs []uint64, notice Notice) error
}

// Notifier stores an in-app notification per recipient, then fans it out over the
// websocket hub and the push queue. Either channel may be nil.
type Notifier struct {
	notificationRepo repositories.NotificationRepositoryInterface
	messenger        UserMessenger
	push             PushEnqueuer
	frontendURL      string
	logger           *zap.Logger
}

func NewNotifier(
	notificationRepo repositories.NotificationRepositoryInterface,
	messenger UserMessenger,
	push PushEnqueuer,
	frontendURL string,
	logger *zap.Logger,
) *Notifier {
	return &Notifier{
		notificationRepo: notificationRepo,
		messenger:        messenger,
		push:             push,
		frontendURL:      strings.TrimRight(frontendURL, "/"),
		logger:           logger,
	}
}

func (n *Notifier) link(suggestionID *uint64) string {
	if suggestionID == nil {
		return n.frontendURL + "/approvals"
	}
	return fmt.Sprintf("%s/suggestions/%d", n.frontendURL, *suggestionID)
}

func (n *Notifier) Notify(ctx context.Context, userIDs []uint64, notice Notice) error {
	if len(userIDs) == 0 {
		return nil
	}
	link := n.link(notice.SuggestionID)
	delivered := make([]uint64, 0, len(userIDs))

	for _, userID := range userIDs {
		item := &entities.Notification{
			UserID:       userID,
			Type:         notice.Type,
			Title:        notice.Title,
			Message:      notice.Message,
			SuggestionID: notice.SuggestionID,
		}
		if err := n.notificationRepo.Create(ctx, item); err != nil {
			n.logger.Error("failed to store notification", zap.Uint64("userID", userID), zap.Error(err))
			continue
		}
		delivered = append(delivered, userID)

		if n.messenger == nil {
			continue
		}
		payload := websocket.NotificationPayload{
			ID:           item.ID,
			Type:         item.Type,
			Title:        item.Title,
			Message:      item.Message,
			SuggestionID: item.SuggestionID,
			Link:         link,
			CreatedAt:    item.CreatedAt,
		}
		if _, err := n.messenger.SendMessageToUser(userID, payload, websocket.MessageTypeNotification); err != nil {
			n.logger.Warn("failed to send websocket notification", zap.Uint64("userID", userID), zap.Error(err))
		}
	}

	if n.push == nil || len(delivered) == 0 {
		return nil
	}
	data := map[string]string{"type": notice.Type}
	if notice.SuggestionID != nil {
		data["suggestion_id"] = fmt.Sprint(*notice.SuggestionID)
	}
	if err := n.push.EnqueuePush(ctx, delivered, notice.Title, notice.Message, link, data); err != nil {
		n.logger.Error("failed to enqueue push delivery", zap.Int("recipients", len(delivered)), zap.Error(err))
		return err
	}
	return nil
}
