package player

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/on-the-ground/effects_player/effects/binding"
	"github.com/on-the-ground/effects_player/effects/configkeys"
	"github.com/on-the-ground/effects_player/effects/scene"
)

var (
	ErrUnknownEffect     = errors.New("unknown effect")
	ErrNoSupportedEffect = errors.New("no supported effect")
)

// Factory builds a fresh Effect for one run.
type Factory func() Effect

// Switcher is an Effect that runs a different registered effect each time,
// rotating over names. Unsupported effects are skipped.
type Switcher struct {
	registry map[string]Factory
	names    []string

	mu      sync.Mutex
	current int
}

var _ Effect = (*Switcher)(nil)

// NewSwitcher rotates over names in order. Without names it rotates over
// every registered effect, sorted by name.
func NewSwitcher(registry map[string]Factory, names ...string) *Switcher {
	if len(names) == 0 {
		names = make([]string, 0, len(registry))
		for name := range registry {
			names = append(names, name)
		}
		sort.Strings(names)
	}
	return &Switcher{
		registry: registry,
		names:    append([]string(nil), names...),
	}
}

// NewSwitcherFromConfig reads the rotation from the binding effect in ctx,
// falling back to every registered effect.
func NewSwitcherFromConfig(ctx context.Context, registry map[string]Factory) (*Switcher, error) {
	names, err := binding.GetOrDefault[[]string](ctx, configkeys.ConfigEffectPlayerRotation, nil)
	if err != nil {
		return nil, fmt.Errorf("effect rotation: %w", err)
	}
	for _, name := range names {
		if _, ok := registry[name]; !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownEffect, name)
		}
	}
	return NewSwitcher(registry, names...), nil
}

func (s *Switcher) Names() []string {
	return append([]string(nil), s.names...)
}

// IsSupported reports whether any effect of the rotation is supported.
func (s *Switcher) IsSupported() bool {
	for _, name := range s.names {
		if f, ok := s.registry[name]; ok && f().IsSupported() {
			return true
		}
	}
	return false
}

// next returns the current name and advances the rotation.
func (s *Switcher) next() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	name := s.names[s.current]
	s.current = (s.current + 1) % len(s.names)
	return name
}

// Run runs the next supported effect of the rotation. Every attempt advances
// the rotation, so the following Run starts after the effect that ran.
func (s *Switcher) Run(ctx context.Context, root *scene.Node) error {
	for range s.names {
		name := s.next()
		factory, ok := s.registry[name]
		if !ok {
			return fmt.Errorf("%w: %q", ErrUnknownEffect, name)
		}
		effect := factory()
		if effect.IsSupported() {
			return effect.Run(ctx, root)
		}
	}
	return ErrNoSupportedEffect
}
