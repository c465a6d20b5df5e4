package concurrency

import (
	"context"
	"errors"
	"sync"

	"github.com/on-the-ground/effects_player/effects"
	effectmodel "github.com/on-the-ground/effects_player/effects/internal/model"
	"github.com/on-the-ground/effects_player/effects/log"
)

// ErrSupervisorClosed is the cancellation cause children see when their
// handler is torn down.
var ErrSupervisorClosed = errors.New("concurrency handler closed")

// WithConcurrencyEffectHandler installs a fire-and-forget concurrency effect handler.
//
// It allows `ConcurrencyEff(ctx, ...)` to spawn goroutines under a managed scope.
//
//   - Each child runs with its own cancellable context that keeps ctx's values
//     (log and binding handlers) but not its cancellation.
//   - When ctx ends, or the returned function is called, every running child
//     is cancelled with ErrSupervisorClosed and joined before the handler
//     finishes closing.
//   - Panics in children are recovered and logged.
//   - Worker count is fixed to 1 (non-partitioned).
func WithConcurrencyEffectHandler(
	ctx context.Context,
	bufferSize int,
) (context.Context, func() context.Context) {
	sv := &supervisor{
		base:     context.WithoutCancel(ctx),
		children: make(map[uint64]context.CancelCauseFunc),
	}

	return effects.WithFireAndForgetEffectHandler(
		ctx,
		effectmodel.NewEffectScopeConfig(bufferSize, 1),
		effectmodel.EffectConcurrency,
		sv.spawnConcurrentChildren,
		sv.shutdown,
	)
}

// ConcurrencyEff spawns every fn in its own goroutine under the handler in ctx.
// It reports false when the handler no longer accepts work, in which case no
// fn runs.
//
// Panics if no concurrency handler is registered.
func ConcurrencyEff(ctx context.Context, fns ...func(context.Context)) bool {
	return effects.FireAndForgetEffect(ctx, effectmodel.EffectConcurrency, ConcurrencyPayload(fns))
}

type ConcurrencyPayload []func(context.Context)

func (cp ConcurrencyPayload) PartitionKey() string {
	return "unpartitioned"
}

// supervisor tracks the children spawned by one handler.
type supervisor struct {
	base context.Context
	wg   sync.WaitGroup

	mu       sync.Mutex
	nextID   uint64
	children map[uint64]context.CancelCauseFunc
}

func (s *supervisor) track(cancel context.CancelCauseFunc) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	s.children[s.nextID] = cancel
	return s.nextID
}

func (s *supervisor) untrack(id uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.children, id)
}

// spawnConcurrentChildren starts each function in its own goroutine and
// returns once all of them have started.
func (s *supervisor) spawnConcurrentChildren(
	handlerCtx context.Context,
	functions ConcurrencyPayload,
) {
	ready := sync.WaitGroup{}

	for _, fn := range functions {
		if fn == nil {
			continue
		}
		childCtx, cancel := context.WithCancelCause(s.base)
		id := s.track(cancel)
		s.wg.Add(1)
		ready.Add(1)
		go func(f func(context.Context), ctx context.Context) {
			defer s.wg.Done()
			defer func() {
				s.untrack(id)
				cancel(nil)
			}()
			defer func() {
				if r := recover(); r != nil {
					log.LogEff(s.base, log.LogError, "panic in child routine", map[string]interface{}{
						"error": r,
					})
				}
			}()
			ready.Done()
			f(ctx)
		}(fn, childCtx)
	}

	ready.Wait()
}

// shutdown cancels every running child and waits for all of them.
// The handler's workers have already drained, so nothing new is spawned.
func (s *supervisor) shutdown() {
	s.mu.Lock()
	running := len(s.children)
	for _, cancel := range s.children {
		cancel(ErrSupervisorClosed)
	}
	s.mu.Unlock()

	if running > 0 {
		log.LogEff(s.base, log.LogInfo, "waiting for all routines to finish", map[string]interface{}{
			"running": running,
		})
	}
	s.wg.Wait()
	log.LogEff(s.base, log.LogDebug, "all routines finished", nil)
}
