package handlers

import (
	"context"

	effectmodel "github.com/on-the-ground/effects_player/effects/internal/model"
)

// NewResumableHandler starts the workers of a handler that replies to every
// payload through a per-call result channel.
func NewResumableHandler[P effectmodel.Partitionable, R any](
	ctx context.Context,
	config effectmodel.EffectScopeConfig,
	handleFn func(context.Context, P) (R, error),
	teardown func(),
) ResumableHandler[P, R] {
	scope := newHandlerScope(ctx, teardown)

	dispatcher := NewPartitionedQueue(
		scope.ctx,
		config.NumWorkers,
		config.BufferSize,
		func(ctx context.Context, msg ResumableEffectMessage[P, R]) {
			defer close(msg.ResumeCh)
			select {
			case <-ctx.Done():
			case msg.ResumeCh <- ResumableResultFrom(handleFn(ctx, msg.Payload)):
			}
		},
	)
	scope.wait = dispatcher.Wait

	return ResumableHandler[P, R]{
		handlerScope: scope,
		dispatcher:   dispatcher,
	}
}

type ResumableHandler[P effectmodel.Partitionable, R any] struct {
	*handlerScope
	dispatcher WorkerDispatcher[ResumableEffectMessage[P, R]]
}

// PerformEffect sends payload to the handler. The returned channel yields at
// most one result and is closed afterwards; it is closed without a result if
// the payload could not be delivered.
func (rh ResumableHandler[P, R]) PerformEffect(ctx context.Context, payload P) <-chan ResumableResult[R] {
	// buffered so the worker never blocks on a caller that gave up
	resumeCh := make(chan ResumableResult[R], 1)

	msg := ResumableEffectMessage[P, R]{
		Payload:  payload,
		ResumeCh: resumeCh,
	}
	if !send(rh.handlerScope, ctx, rh.dispatcher.GetChannelOf(msg), msg) {
		close(resumeCh)
	}

	return resumeCh
}

// ResumableResult represents the result of handled effects.
type ResumableResult[T any] struct {
	Value T
	Err   error
}

func ResumableResultFrom[R any](res R, err error) ResumableResult[R] {
	return ResumableResult[R]{Value: res, Err: err}
}

var _ effectmodel.Partitionable = ResumableEffectMessage[effectmodel.Partitionable, any]{}

type ResumableEffectMessage[P effectmodel.Partitionable, R any] struct {
	Payload  P
	ResumeCh chan ResumableResult[R]
}

func (rem ResumableEffectMessage[P, R]) PartitionKey() string {
	return rem.Payload.PartitionKey()
}
