package handlers

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// handlerScope owns the lifetime of one registered handler: its id, the
// context its workers run under, and the teardown run on Close.
//
// The scope closes itself when the parent context ends.
type handlerScope struct {
	EffectId string
	ctx      context.Context
	cancel   context.CancelFunc
	stop     func() bool

	mu     sync.RWMutex
	closed bool

	once     sync.Once
	wait     func()
	teardown func()
}

func newHandlerScope(parent context.Context, teardown func()) *handlerScope {
	ctx, cancel := context.WithCancel(parent)
	if teardown == nil {
		teardown = func() {}
	}
	hs := &handlerScope{
		EffectId: uuid.New().String(),
		ctx:      ctx,
		cancel:   cancel,
		wait:     func() {},
		teardown: teardown,
	}
	hs.stop = context.AfterFunc(parent, hs.Close)
	return hs
}

// Done is closed once the handler stops accepting effects.
func (hs *handlerScope) Done() <-chan struct{} {
	return hs.ctx.Done()
}

// Close stops accepting effects, lets the workers drain, then runs the
// teardown. Calling Close more than once is a no-op.
func (hs *handlerScope) Close() {
	hs.once.Do(func() {
		hs.stop()

		// in-flight sends hold the read lock; once we own the write lock
		// nothing else can be enqueued
		hs.mu.Lock()
		hs.closed = true
		hs.mu.Unlock()

		hs.cancel()
		hs.wait()
		hs.teardown()
	})
}

func send[T any](hs *handlerScope, ctx context.Context, ch chan<- T, msg T) bool {
	hs.mu.RLock()
	defer hs.mu.RUnlock()

	if hs.closed {
		return false
	}

	select {
	case <-ctx.Done():
		return false
	case <-hs.ctx.Done():
		return false
	case ch <- msg:
		return true
	}
}
