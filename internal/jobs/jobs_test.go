package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"fuel-pricing/internal/entities"
	"fuel-pricing/internal/repositories"
	"fuel-pricing/internal/services"
	"fuel-pricing/pkg/push"
)

type fakeSubscriptions struct {
	subs    []entities.PushSubscription
	deleted []string
	touched []string
}

func (f *fakeSubscriptions) Upsert(context.Context, *entities.PushSubscription) error { return nil }
func (f *fakeSubscriptions) DeleteForUser(context.Context, uint64, string) error     { return nil }
func (f *fakeSubscriptions) DeleteByToken(_ context.Context, token string) error {
	f.deleted = append(f.deleted, token)
	return nil
}
func (f *fakeSubscriptions) FindByUserIDs(_ context.Context, ids []uint64) ([]entities.PushSubscription, error) {
	var out []entities.PushSubscription
	for _, s := range f.subs {
		for _, id := range ids {
			if s.UserID == id {
				out = append(out, s)
			}
		}
	}
	return out, nil
}
func (f *fakeSubscriptions) Touch(_ context.Context, token string) error {
	f.touched = append(f.touched, token)
	return nil
}

type fakeSender struct {
	results map[string]error
	sent    []push.Message
}

func (f *fakeSender) Send(_ context.Context, msg push.Message) error {
	f.sent = append(f.sent, msg)
	return f.results[msg.Token]
}

func pushTask(t *testing.T, payload PushPayload) *asynq.Task {
	t.Helper()
	task, err := NewPushTask(payload)
	require.NoError(t, err)
	return task
}

func TestPushJobDeletesUnregisteredTokens(t *testing.T) {
	subs := &fakeSubscriptions{subs: []entities.PushSubscription{
		{UserID: 1, Token: "tok-ok"},
		{UserID: 1, Token: "tok-gone"},
		{UserID: 2, Token: "tok-other"},
	}}
	sender := &fakeSender{results: map[string]error{"tok-gone": push.ErrUnregistered}}
	job := NewPushJob(subs, sender, nil, zap.NewNop())

	err := job.Handle(context.Background(), pushTask(t, PushPayload{UserIDs: []uint64{1}, Title: "t", Body: "b"}))
	require.NoError(t, err)

	assert.Len(t, sender.sent, 2)
	assert.Equal(t, []string{"tok-gone"}, subs.deleted)
	assert.Equal(t, []string{"tok-ok"}, subs.touched)
}

func TestPushJobRetriesWhenNothingDelivered(t *testing.T) {
	subs := &fakeSubscriptions{subs: []entities.PushSubscription{{UserID: 1, Token: "tok"}}}
	sender := &fakeSender{results: map[string]error{"tok": errors.New("fcm responded 503")}}
	job := NewPushJob(subs, sender, nil, zap.NewNop())

	err := job.Handle(context.Background(), pushTask(t, PushPayload{UserIDs: []uint64{1}}))
	assert.Error(t, err)
}

func TestPushJobDisabledIsNotAnError(t *testing.T) {
	subs := &fakeSubscriptions{subs: []entities.PushSubscription{{UserID: 1, Token: "a"}, {UserID: 1, Token: "b"}}}
	sender := &fakeSender{results: map[string]error{"a": push.ErrDisabled, "b": push.ErrDisabled}}
	job := NewPushJob(subs, sender, nil, zap.NewNop())

	require.NoError(t, job.Handle(context.Background(), pushTask(t, PushPayload{UserIDs: []uint64{1}})))
	assert.Len(t, sender.sent, 1)
}

func TestPushJobRejectsBadPayload(t *testing.T) {
	job := NewPushJob(&fakeSubscriptions{}, &fakeSender{}, nil, zap.NewNop())
	err := job.Handle(context.Background(), asynq.NewTask(TaskPushSend, []byte("{")))
	assert.ErrorIs(t, err, asynq.SkipRetry)
}

type fakeEnqueuer struct {
	tasks []*asynq.Task
}

func (f *fakeEnqueuer) EnqueueContext(_ context.Context, task *asynq.Task, _ ...asynq.Option) (*asynq.TaskInfo, error) {
	f.tasks = append(f.tasks, task)
	return &asynq.TaskInfo{}, nil
}

func TestDispatcherEnqueuesPushTask(t *testing.T) {
	q := &fakeEnqueuer{}
	d := NewDispatcher(q)

	err := d.EnqueuePush(context.Background(), []uint64{3, 4}, "title", "body", "http://app/x", map[string]string{"k": "v"})
	require.NoError(t, err)
	require.Len(t, q.tasks, 1)
	assert.Equal(t, TaskPushSend, q.tasks[0].Type())

	var payload PushPayload
	require.NoError(t, json.Unmarshal(q.tasks[0].Payload(), &payload))
	assert.Equal(t, []uint64{3, 4}, payload.UserIDs)
	assert.Equal(t, "http://app/x", payload.Link)
}

func TestWaitingPerApprover(t *testing.T) {
	stale := []entities.PriceSuggestion{
		{ID: 1, CurrentLevel: 0, RequestedBy: 10},
		{ID: 2, CurrentLevel: 1, RequestedBy: 11},
		{ID: 3, CurrentLevel: 0, RequestedBy: 20},
	}
	calls := map[int]int{}
	result := waitingPerApprover(stale, func(level int) ([]entities.User, error) {
		calls[level]++
		if level == 1 {
			return []entities.User{{ID: 20, ApprovalLevel: 1}, {ID: 30, ApprovalLevel: 2}}, nil
		}
		return []entities.User{{ID: 30, ApprovalLevel: 2}}, nil
	})

	require.NoError(t, result.err)
	assert.Equal(t, map[uint64]int{20: 1, 30: 3}, result.counts)
	assert.Equal(t, 1, calls[1])
	assert.Equal(t, 1, calls[2])
}

type recordingNotifier struct {
	mu      sync.Mutex
	calls   [][]uint64
	notices []services.Notice
}

func (r *recordingNotifier) Notify(_ context.Context, ids []uint64, n services.Notice) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, ids)
	r.notices = append(r.notices, n)
	return nil
}

func TestHumanDuration(t *testing.T) {
	assert.Equal(t, "24 hours", humanDuration(24*time.Hour))
	assert.Equal(t, "2 days", humanDuration(48*time.Hour))
	assert.Equal(t, "6h0m0s", humanDuration(6*time.Hour))
}

type staleRepo struct {
	repositories.PriceSuggestionRepositoryInterface
	stale  []entities.PriceSuggestion
	before time.Time
}

func (r *staleRepo) GetStalePending(_ context.Context, before time.Time) ([]entities.PriceSuggestion, error) {
	r.before = before
	return r.stale, nil
}

type approverRepo struct {
	repositories.UserRepositoryInterface
	approvers []entities.User
}

func (r *approverRepo) FindApprovers(_ context.Context, minLevel int) ([]entities.User, error) {
	var out []entities.User
	for _, u := range r.approvers {
		if u.ApprovalLevel >= minLevel {
			out = append(out, u)
		}
	}
	return out, nil
}

func TestReminderJobNotifiesEachApproverOnce(t *testing.T) {
	now := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)
	suggestions := &staleRepo{stale: []entities.PriceSuggestion{
		{ID: 1, CurrentLevel: 0, RequestedBy: 5},
		{ID: 2, CurrentLevel: 0, RequestedBy: 6},
	}}
	users := &approverRepo{approvers: []entities.User{{ID: 7, ApprovalLevel: 1}, {ID: 8, ApprovalLevel: 3}}}
	notifier := &recordingNotifier{}

	job := NewReminderJob(suggestions, users, notifier, 24*time.Hour, zap.NewNop())
	job.now = func() time.Time { return now }

	require.NoError(t, job.Handle(context.Background(), NewPendingReminderTask()))
	assert.Equal(t, now.Add(-24*time.Hour), suggestions.before)
	require.Len(t, notifier.calls, 2)
	for _, n := range notifier.notices {
		assert.Contains(t, n.Message, "2 price suggestion(s)")
	}
}
