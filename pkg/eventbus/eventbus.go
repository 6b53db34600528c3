package eventbus

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Event is anything published on the bus.
type Event interface {
	Name() string
}

type Listener func(ctx context.Context, event Event) error

const defaultTimeout = time.Minute

// Bus runs every subscriber of a published event on its own goroutine.
type Bus struct {
	mu      sync.RWMutex
	subs    map[string][]Listener
	wg      sync.WaitGroup
	timeout time.Duration
	logger  *zap.Logger
}

func New(logger *zap.Logger) *Bus {
	return &Bus{
		subs:    make(map[string][]Listener),
		timeout: defaultTimeout,
		logger:  logger,
	}
}

func (b *Bus) Subscribe(name string, l Listener) {
	b.mu.Lock()
	b.subs[name] = append(b.subs[name], l)
	b.mu.Unlock()
}

// Publish returns without waiting for listeners. They see the values of ctx
// (the acting user, for instance) but not its cancellation, and each gets
// its own deadline.
func (b *Bus) Publish(ctx context.Context, event Event) {
	b.mu.RLock()
	subs := b.subs[event.Name()]
	b.mu.RUnlock()

	base := context.WithoutCancel(ctx)
	for _, l := range subs {
		b.wg.Add(1)
		go b.dispatch(base, l, event)
	}
}

func (b *Bus) dispatch(base context.Context, l Listener, event Event) {
	defer b.wg.Done()

	ctx, cancel := context.WithTimeout(base, b.timeout)
	defer cancel()

	if err := safeCall(ctx, l, event); err != nil {
		b.logger.Error("event listener failed", zap.String("event", event.Name()), zap.Error(err))
	}
}

func safeCall(ctx context.Context, l Listener, event Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return l(ctx, event)
}

// Wait blocks until every listener started so far has returned.
func (b *Bus) Wait() {
	b.wg.Wait()
}
