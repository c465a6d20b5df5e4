package async

import (
	"context"
	"sync"
)

// Executor registers a callback-based operation. It must arrange for resolve
// to be called once the operation completes, and return a cleanup that undoes
// the registration. resolve may be called from any goroutine, including
// synchronously from within the executor.
//
// Cleanup only runs when the wait is aborted first. After a successful resolve,
// disposing of the registration is up to the code that called resolve.
type Executor[T any] func(resolve func(T)) (cleanup func())

type settleState int

const (
	statePending settleState = iota
	stateResolved
	stateAborted
)

type pending[T any] struct {
	mu    sync.Mutex
	state settleState
	value T
	done  chan struct{}
}

// transition moves out of pending exactly once.
func (p *pending[T]) transition(to settleState, value T) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state != statePending {
		return false
	}
	p.state = to
	p.value = value
	return true
}

// Promisify runs executor and blocks until it resolves or ctx is done.
//
//   - ctx that can never be done (Done() == nil): only resolve ends the wait.
//   - ctx already done: executor is not called; an *AbortError is returned.
//   - otherwise the first of resolve and ctx's end wins. If ctx wins, the
//     executor's cleanup runs exactly once before the *AbortError is returned.
//     If resolve wins, cleanup is never called.
//
// Only the first resolve counts. Panics in executor are not recovered.
func Promisify[T any](ctx context.Context, executor Executor[T]) (T, error) {
	var zero T

	p := &pending[T]{done: make(chan struct{})}

	if ctx.Done() == nil {
		executor(func(v T) {
			if p.transition(stateResolved, v) {
				close(p.done)
			}
		})
		<-p.done
		return p.value, nil
	}

	if ctx.Err() != nil {
		return zero, abortErrorOf(ctx)
	}

	var (
		cleanup  func()
		returned = make(chan struct{})
		stop     func() bool
	)

	// subscribe before running the executor, like an abort listener would be
	stop = context.AfterFunc(ctx, func() {
		if !p.transition(stateAborted, zero) {
			return
		}
		// the cleanup only exists once the executor has returned it
		<-returned
		if cleanup != nil {
			cleanup()
		}
		close(p.done)
	})

	cleanup = executor(func(v T) {
		if p.transition(stateResolved, v) {
			stop()
			close(p.done)
		}
	})
	close(returned)

	<-p.done

	p.mu.Lock()
	state, value := p.state, p.value
	p.mu.Unlock()

	if state == stateAborted {
		return zero, abortErrorOf(ctx)
	}
	return value, nil
}
