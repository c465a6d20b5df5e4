package binding

import (
	"context"
	"errors"

	"github.com/on-the-ground/effects_player/effects"
	effectmodel "github.com/on-the-ground/effects_player/effects/internal/model"
	"github.com/on-the-ground/effects_player/shared/helper"
)

// GetFromBindingEffect fetches a typed value from the Binding effect using the provided key.
// Returns a zero value and error if the key is not found or the type is mismatched.
func GetFromBindingEffect[T any](ctx context.Context, key string) (T, error) {
	return helper.GetTypedValueOf[T](func() (any, error) {
		return Effect(ctx, key)
	})
}

// MustGetFromBindingEffect is the panic-on-failure variant of GetFromBindingEffect.
// It panics if the key is missing or the type doesn't match.
func MustGetFromBindingEffect[T any](ctx context.Context, key string) T {
	return helper.MustGetTypedValue[T](func() (any, error) {
		return Effect(ctx, key)
	})
}

// GetOrDefault returns the bound value for key, or def when no binding handler
// is registered or the key is unbound. A value of the wrong type is an error.
func GetOrDefault[T any](ctx context.Context, key string, def T) (T, error) {
	if !effects.HasHandler(ctx, effectmodel.EffectBinding) {
		return def, nil
	}
	v, err := GetFromBindingEffect[T](ctx, key)
	if errors.Is(err, ErrKeyNotFound) {
		return def, nil
	}
	return v, err
}
