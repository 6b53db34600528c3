// Package jobs holds the background tasks processed by the asynq worker.
package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
)

const (
	QueueDefault = "default"
	QueuePush    = "push"

	TaskPushSend        = "push:send"
	TaskPendingReminder = "suggestions:pending_reminder"

	// Every morning at 08:00 server time.
	PendingReminderCron = "0 8 * * *"
)

type PushPayload struct {
	UserIDs []uint64          `json:"user_ids"`
	Title   string            `json:"title"`
	Body    string            `json:"body"`
	Link    string            `json:"link,omitempty"`
	Data    map[string]string `json:"data,omitempty"`
}

func NewPushTask(payload PushPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskPushSend, data, asynq.Queue(QueuePush), asynq.MaxRetry(5), asynq.Timeout(time.Minute)), nil
}

func NewPendingReminderTask() *asynq.Task {
	return asynq.NewTask(TaskPendingReminder, nil, asynq.MaxRetry(2), asynq.Unique(time.Hour))
}

// TaskEnqueuer is satisfied by *asynq.Client.
type TaskEnqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// Dispatcher puts push deliveries on the queue for the worker.
type Dispatcher struct {
	client TaskEnqueuer
}

func NewDispatcher(client TaskEnqueuer) *Dispatcher {
	return &Dispatcher{client: client}
}

func (d *Dispatcher) EnqueuePush(ctx context.Context, userIDs []uint64, title, body, link string, data map[string]string) error {
	task, err := NewPushTask(PushPayload{UserIDs: userIDs, Title: title, Body: body, Link: link, Data: data})
	if err != nil {
		return fmt.Errorf("failed to build push task: %w", err)
	}
	if _, err := d.client.EnqueueContext(ctx, task); err != nil {
		return fmt.Errorf("failed to enqueue push task: %w", err)
	}
	return nil
}
