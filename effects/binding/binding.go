package binding

import (
	"context"
	"errors"
	"fmt"

	"github.com/on-the-ground/effects_player/effects"
	effectmodel "github.com/on-the-ground/effects_player/effects/internal/model"
)

// ErrKeyNotFound is returned when neither this scope nor any upper scope binds the key.
var ErrKeyNotFound = errors.New("key not found")

// Payload defines a key-based lookup payload.
// Used as input to the Binding effect.
type Payload string

func (bp Payload) PartitionKey() string {
	return string(bp)
}

// WithEffectHandler registers a resumable, partitionable effect handler for bindings.
//
//   - Lookups are partitioned by key across numWorkers workers.
//   - Keys missing from bindingMap are delegated to the binding handler of an
//     upper scope, if one is registered.
//   - The returned teardown closes the handler and returns the parent context.
func WithEffectHandler(
	ctx context.Context,
	bufferSize, numWorkers int,
	bindingMap map[string]any,
) (context.Context, func() context.Context) {
	bh := bindingHandler{
		bindingMap: normalizeBindingMap(bindingMap),
	}
	return effects.WithResumableEffectHandler[Payload, any](
		ctx,
		effectmodel.NewEffectScopeConfig(bufferSize, numWorkers),
		effectmodel.EffectBinding,
		bh.handle,
	)
}

// Effect performs a key-based lookup using the Binding effect handler.
//
// Returns either the value found or an error if the key is not found and no upper scope provides it.
func Effect(ctx context.Context, key string) (val any, err error) {
	resultCh := effects.PerformResumableEffect[Payload, any](ctx, effectmodel.EffectBinding, Payload(key))
	select {
	case res, ok := <-resultCh:
		if ok {
			return res.Value, res.Err
		}
	case <-ctx.Done():
	}
	if err = ctx.Err(); err == nil {
		err = effectmodel.ErrHandlerClosed
	}
	return nil, err
}

func normalizeBindingMap(bm map[string]any) map[string]any {
	if bm == nil {
		bm = make(map[string]any)
	}
	return bm
}

type bindingHandler struct {
	bindingMap map[string]any
}

// handle looks up the key in the local bindingMap.
//   - If found: returns the value.
//   - If not found: delegates to an upper handler (if available).
//   - Otherwise: returns ErrKeyNotFound.
//
// ctx is the context the handler was registered under, so it only sees
// upper scopes.
func (bh bindingHandler) handle(ctx context.Context, payload Payload) (any, error) {
	key := string(payload)
	if v, ok := bh.bindingMap[key]; ok {
		return v, nil
	}
	if !effects.HasHandler(ctx, effectmodel.EffectBinding) {
		return nil, fmt.Errorf("%w: %s", ErrKeyNotFound, key)
	}
	return Effect(ctx, key)
}
