package eventbus

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

type pingEvent struct{}

func (pingEvent) Name() string { return "ping" }

type otherEvent struct{}

func (otherEvent) Name() string { return "other" }

func TestPublishReachesEverySubscriber(t *testing.T) {
	bus := New(zap.NewNop())
	var calls int32

	for i := 0; i < 3; i++ {
		bus.Subscribe("ping", func(ctx context.Context, e Event) error {
			atomic.AddInt32(&calls, 1)
			return nil
		})
	}
	bus.Subscribe("other", func(ctx context.Context, e Event) error {
		t.Error("listener of another event must not run")
		return nil
	})

	bus.Publish(context.Background(), pingEvent{})
	bus.Wait()

	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestListenerFailuresAreContained(t *testing.T) {
	bus := New(zap.NewNop())
	var ok int32

	bus.Subscribe("ping", func(ctx context.Context, e Event) error { return errors.New("boom") })
	bus.Subscribe("ping", func(ctx context.Context, e Event) error { panic("kaboom") })
	bus.Subscribe("ping", func(ctx context.Context, e Event) error {
		atomic.StoreInt32(&ok, 1)
		return nil
	})

	bus.Publish(context.Background(), pingEvent{})
	bus.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&ok))
}

func TestListenerContextSurvivesCancelledRequest(t *testing.T) {
	bus := New(zap.NewNop())
	var cancelled atomic.Bool

	bus.Subscribe("other", func(ctx context.Context, e Event) error {
		cancelled.Store(ctx.Err() != nil)
		return nil
	})

	reqCtx, cancel := context.WithCancel(context.Background())
	cancel()
	bus.Publish(reqCtx, otherEvent{})
	bus.Wait()

	assert.False(t, cancelled.Load())
}

type actorKey struct{}

func TestListenerSeesRequestValues(t *testing.T) {
	bus := New(zap.NewNop())
	var got atomic.Value

	bus.Subscribe("ping", func(ctx context.Context, e Event) error {
		got.Store(ctx.Value(actorKey{}))
		return nil
	})

	bus.Publish(context.WithValue(context.Background(), actorKey{}, uint64(7)), pingEvent{})
	bus.Wait()

	assert.Equal(t, uint64(7), got.Load())
}
