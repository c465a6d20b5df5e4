package effects

import (
	"context"

	"github.com/on-the-ground/effects_player/effects/internal/handlers"
	"github.com/on-the-ground/effects_player/effects/internal/helper"
	effectmodel "github.com/on-the-ground/effects_player/effects/internal/model"
	sharedHelper "github.com/on-the-ground/effects_player/shared/helper"
	"go.uber.org/zap"
)

// ResumableResult is the reply of a resumable effect handler.
type ResumableResult[R any] = handlers.ResumableResult[R]

// WithResumableEffectHandler registers a resumable effect handler for a given effect enum.
//
// Payloads are hash-partitioned by PartitionKey() across config.NumWorkers workers,
// so effects sharing a key are handled in order.
//
// Usage:
//
//	ctx, end := WithResumableEffectHandler(ctx, config, MyEffectEnum, handleFn)
//	defer end()
func WithResumableEffectHandler[P effectmodel.Partitionable, R any](
	ctx context.Context,
	config effectmodel.EffectScopeConfig,
	enum effectmodel.EffectEnum,
	handleFn func(context.Context, P) (R, error),
	teardown ...func(),
) (context.Context, func() context.Context) {
	handler := handlers.NewResumableHandler(ctx, config, handleFn, normalizeTeardown(teardown))
	ctxWith := context.WithValue(ctx, enum, handler)
	zap.L().Sugar().Debugf("created resumable effect handler: effectId: %v, enum: %v", handler.EffectId, enum)

	return ctxWith, func() context.Context {
		handler.Close()
		zap.L().Sugar().Debugf("closed resumable effect handler: effectId: %v, enum: %v", handler.EffectId, enum)
		return ctx
	}
}

// PerformResumableEffect sends a payload to the resumable effect handler.
//
// The returned channel yields the handler's result, or is closed empty when the
// payload could not be delivered. Panics if no handler is registered for enum.
func PerformResumableEffect[P effectmodel.Partitionable, R any](
	ctx context.Context,
	enum effectmodel.EffectEnum,
	payload P,
) <-chan ResumableResult[R] {
	handler := sharedHelper.MustGetTypedValue[handlers.ResumableHandler[P, R]](
		func() (any, error) {
			return helper.GetHandler(ctx, enum)
		},
	)
	return handler.PerformEffect(ctx, payload)
}

// WithFireAndForgetEffectHandler registers a fire-and-forget effect handler for a given effect enum.
//
// Suitable for one-shot effects like logging or spawning background work.
// With config.NumWorkers > 1 payloads are partitioned by PartitionKey().
func WithFireAndForgetEffectHandler[P effectmodel.Partitionable](
	ctx context.Context,
	config effectmodel.EffectScopeConfig,
	enum effectmodel.EffectEnum,
	handleFn func(context.Context, P),
	teardown ...func(),
) (context.Context, func() context.Context) {
	handler := handlers.NewFireAndForgetHandler(ctx, config, handleFn, normalizeTeardown(teardown))
	ctxWith := context.WithValue(ctx, enum, handler)
	zap.L().Sugar().Debugf("created fire/forget effect handler: effectId: %v, enum: %v", handler.EffectId, enum)

	return ctxWith, func() context.Context {
		handler.Close()
		zap.L().Sugar().Debugf("closed fire/forget effect handler: effectId: %v, enum: %v", handler.EffectId, enum)
		return ctx
	}
}

// FireAndForgetEffect triggers a fire-and-forget effect for the given enum and payload.
// It reports false when the handler was already closed or ctx was done.
//
// Panics if no handler is registered for the given enum.
func FireAndForgetEffect[P effectmodel.Partitionable](
	ctx context.Context,
	enum effectmodel.EffectEnum,
	payload P,
) bool {
	handler := sharedHelper.MustGetTypedValue[handlers.FireAndForgetHandler[P]](
		func() (any, error) {
			return helper.GetHandler(ctx, enum)
		},
	)
	return handler.FireAndForgetEffect(ctx, payload)
}

// HasHandler reports whether a handler for enum is registered in ctx.
func HasHandler(ctx context.Context, enum effectmodel.EffectEnum) bool {
	_, err := helper.GetHandler(ctx, enum)
	return err == nil
}

// normalizeTeardown flattens optional teardown functions into a single callable.
//
// Accepts either 0 or 1 teardown functions. Panics if more than one is passed.
func normalizeTeardown(teardown []func()) func() {
	switch len(teardown) {
	case 1:
		return teardown[0]
	case 0:
		return func() {}
	default:
		panic("normalizeTeardown: only one or zero teardown functions allowed")
	}
}
