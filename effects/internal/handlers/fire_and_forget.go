package handlers

import (
	"context"

	effectmodel "github.com/on-the-ground/effects_player/effects/internal/model"
)

// NewFireAndForgetHandler starts the workers of a handler that never replies.
// With more than one worker, payloads are partitioned by PartitionKey.
func NewFireAndForgetHandler[P effectmodel.Partitionable](
	ctx context.Context,
	config effectmodel.EffectScopeConfig,
	handleFn func(context.Context, P),
	teardown func(),
) FireAndForgetHandler[P] {
	scope := newHandlerScope(ctx, teardown)

	var dispatcher WorkerDispatcher[P]
	if config.NumWorkers > 1 {
		dispatcher = NewPartitionedQueue(scope.ctx, config.NumWorkers, config.BufferSize, handleFn)
	} else {
		dispatcher = NewSingleQueue(scope.ctx, config.BufferSize, handleFn)
	}
	scope.wait = dispatcher.Wait

	return FireAndForgetHandler[P]{
		handlerScope: scope,
		dispatcher:   dispatcher,
	}
}

type FireAndForgetHandler[P effectmodel.Partitionable] struct {
	*handlerScope
	dispatcher WorkerDispatcher[P]
}

// FireAndForgetEffect enqueues payload and reports whether it was accepted.
// It returns without delivering when either the caller's context or the
// handler is done.
func (ffh FireAndForgetHandler[P]) FireAndForgetEffect(ctx context.Context, payload P) bool {
	return send(ffh.handlerScope, ctx, ffh.dispatcher.GetChannelOf(payload), payload)
}
