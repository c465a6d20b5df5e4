package player_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/on-the-ground/effects_player/effects/async"
	"github.com/on-the-ground/effects_player/effects/binding"
	"github.com/on-the-ground/effects_player/effects/configkeys"
	"github.com/on-the-ground/effects_player/effects/event"
	"github.com/on-the-ground/effects_player/effects/player"
	"github.com/on-the-ground/effects_player/effects/scene"
	"github.com/on-the-ground/effects_player/effects/task"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runAsync(ctx context.Context, e player.Effect, root *scene.Node) <-chan error {
	errCh := make(chan error, 1)
	go func() { errCh <- e.Run(ctx, root) }()
	return errCh
}

// drawing reports whether root has n children, each waiting for its
// transition to end.
func drawing(root *scene.Node, n int) bool {
	children := root.Children()
	if len(children) != n {
		return false
	}
	for _, c := range children {
		if c.ListenerCount(event.TypeTransitionEnd) != 1 {
			return false
		}
	}
	return true
}

func TestRepeating_DrawsUntilAborted(t *testing.T) {
	root := scene.NewNode("body")
	drawer := &pulseDrawer{times: 3}
	effect := player.NewRepeating(drawer)

	ctx, cancel := context.WithCancelCause(context.Background())
	errCh := runAsync(ctx, effect, root)

	require.Eventually(t, func() bool { return drawing(root, 3) }, time.Second, time.Millisecond)

	// finishing a transition starts the next drawing with a fresh node
	first := root.Children()[0]
	first.Dispatch(&event.Event{Type: event.TypeTransitionEnd})
	require.Eventually(t, func() bool {
		return drawer.draws.Load() == 4 && drawing(root, 3)
	}, time.Second, time.Millisecond)
	assert.NotContains(t, root.Children(), first)

	cancel(errors.New("stop"))
	require.NoError(t, <-errCh)
	assert.Empty(t, root.Children())
	assert.Equal(t, int32(4), drawer.cleaned.Load())
}

func TestRepeating_DrawErrorEndsRun(t *testing.T) {
	root := scene.NewNode("body")
	boom := errors.New("canvas lost")
	cleanErr := errors.New("release failed")
	drawer := &pulseDrawer{times: 1, drawErr: boom, clean: cleanErr}

	err := player.NewRepeating(drawer).Run(context.Background(), root)

	require.ErrorIs(t, err, boom)
	require.ErrorIs(t, err, cleanErr)
	assert.False(t, async.IsAbort(err))
	assert.Empty(t, root.Children())
	assert.Equal(t, int32(1), drawer.draws.Load())
}

func TestRepeating_DrawErrorRemovesSiblings(t *testing.T) {
	root := scene.NewNode("body")
	boom := errors.New("draw failed")
	drawer := &splitDrawer{times: 2, fail: make(chan struct{}), err: boom}

	errCh := runAsync(context.Background(), player.NewRepeating(drawer), root)

	require.Eventually(t, func() bool {
		if drawer.draws.Load() != 2 {
			return false
		}
		for _, c := range root.Children() {
			if c.ListenerCount(event.TypeTransitionEnd) == 1 {
				return true
			}
		}
		return false
	}, time.Second, time.Millisecond)
	close(drawer.fail)

	select {
	case err := <-errCh:
		require.ErrorIs(t, err, boom)
	case <-time.After(2 * time.Second):
		t.Fatal("run did not return")
	}
	assert.Empty(t, root.Children())
	assert.Equal(t, int32(2), drawer.draws.Load(), "aborted drawings do not start again")
}

func TestRepeating_DrawingsShareFrames(t *testing.T) {
	root := scene.NewNode("body")
	drawer := &splitDrawer{times: 2}

	ctx, cancel := context.WithCancel(context.Background())
	errCh := runAsync(ctx, player.NewRepeating(drawer), root)

	require.Eventually(t, func() bool { return drawing(root, 2) }, time.Second, time.Millisecond)
	root.Children()[0].Dispatch(&event.Event{Type: event.TypeTransitionEnd})
	require.Eventually(t, func() bool { return drawer.draws.Load() == 3 }, time.Second, time.Millisecond)

	frames := drawer.seenFrames()
	require.Len(t, frames, 3)
	require.NotNil(t, frames[0])
	assert.Same(t, frames[0], frames[1])
	assert.Same(t, frames[0], frames[2])

	cancel()
	require.NoError(t, <-errCh)
	assert.Empty(t, root.Children())
}

func TestRepeating_ZeroTimes(t *testing.T) {
	drawer := &pulseDrawer{times: 0}
	require.NoError(t, player.NewRepeating(drawer).Run(context.Background(), scene.NewNode("body")))
	assert.Equal(t, int32(0), drawer.draws.Load())
}

func TestRepeating_StartDelay(t *testing.T) {
	root := scene.NewNode("body")

	t.Run("option", func(t *testing.T) {
		clock := &holdClock{}
		effect := player.NewRepeating(&pulseDrawer{times: 2},
			player.WithStartDelay(300*time.Millisecond),
			player.WithTaskOptions(task.WithClock(clock)),
		)

		ctx, cancel := context.WithCancel(context.Background())
		errCh := runAsync(ctx, effect, root)
		require.Eventually(t, func() bool { return len(clock.durations()) == 2 }, time.Second, time.Millisecond)
		assert.Equal(t, []time.Duration{300 * time.Millisecond, 300 * time.Millisecond}, clock.durations())

		cancel()
		require.NoError(t, <-errCh)
		assert.Empty(t, root.Children())
	})

	t.Run("binding", func(t *testing.T) {
		ctx, endOfBindingHandler := binding.WithEffectHandler(context.Background(), 1, 1, map[string]any{
			configkeys.ConfigEffectPlayerStartDelay: time.Second,
		})
		defer endOfBindingHandler()

		clock := &holdClock{}
		effect := player.NewRepeating(&pulseDrawer{times: 1},
			player.WithStartDelay(time.Millisecond),
			player.WithTaskOptions(task.WithClock(clock)),
		)

		ctx, cancel := context.WithCancel(ctx)
		errCh := runAsync(ctx, effect, root)
		require.Eventually(t, func() bool { return len(clock.durations()) == 1 }, time.Second, time.Millisecond)
		assert.Equal(t, time.Second, clock.durations()[0])

		cancel()
		require.NoError(t, <-errCh)
	})

	t.Run("wrong type", func(t *testing.T) {
		ctx, endOfBindingHandler := binding.WithEffectHandler(context.Background(), 1, 1, map[string]any{
			configkeys.ConfigEffectPlayerStartDelay: "soon",
		})
		defer endOfBindingHandler()

		err := player.NewRepeating(&pulseDrawer{times: 1}).Run(ctx, root)
		require.Error(t, err)
		assert.Empty(t, root.Children())
	})
}

func TestRepeating_IsSupported(t *testing.T) {
	assert.True(t, player.NewRepeating(&pulseDrawer{}).IsSupported())
	assert.False(t, player.NewRepeating(&pulseDrawer{unsup: true}).IsSupported())
}

func newStubRegistry(ran *[]string, mu *sync.Mutex, supported map[string]bool) map[string]player.Factory {
	registry := make(map[string]player.Factory, len(supported))
	for name, ok := range supported {
		registry[name] = func() player.Effect {
			return stubEffect{name: name, supported: ok, ran: ran, mu: mu}
		}
	}
	return registry
}

func TestSwitcher_RotatesAndSkipsUnsupported(t *testing.T) {
	var (
		ran []string
		mu  sync.Mutex
	)
	registry := newStubRegistry(&ran, &mu, map[string]bool{
		"rainbow-highlight": true,
		"code":              false,
		"firework":          true,
		"rain":              true,
	})
	sw := player.NewSwitcher(registry, "rainbow-highlight", "code", "firework", "rain")
	root := scene.NewNode("body")

	for i := 0; i < 4; i++ {
		require.NoError(t, sw.Run(context.Background(), root))
	}
	assert.Equal(t, []string{"rainbow-highlight", "firework", "rain", "rainbow-highlight"}, ran)
	assert.True(t, sw.IsSupported())
}

func TestSwitcher_NoSupportedEffect(t *testing.T) {
	var (
		ran []string
		mu  sync.Mutex
	)
	registry := newStubRegistry(&ran, &mu, map[string]bool{"a": false, "b": false})

	sw := player.NewSwitcher(registry)
	assert.Equal(t, []string{"a", "b"}, sw.Names())
	require.ErrorIs(t, sw.Run(context.Background(), scene.NewNode("body")), player.ErrNoSupportedEffect)
	assert.False(t, sw.IsSupported())
	assert.Empty(t, ran)

	require.ErrorIs(t, player.NewSwitcher(nil).Run(context.Background(), nil), player.ErrNoSupportedEffect)
}

func TestSwitcher_UnknownEffect(t *testing.T) {
	sw := player.NewSwitcher(map[string]player.Factory{}, "missing")
	require.ErrorIs(t, sw.Run(context.Background(), scene.NewNode("body")), player.ErrUnknownEffect)
}

func TestSwitcher_FromConfig(t *testing.T) {
	var (
		ran []string
		mu  sync.Mutex
	)
	registry := newStubRegistry(&ran, &mu, map[string]bool{"a": true, "b": true, "c": true})

	sw, err := player.NewSwitcherFromConfig(context.Background(), registry)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, sw.Names())

	ctx, endOfBindingHandler := binding.WithEffectHandler(context.Background(), 1, 1, map[string]any{
		configkeys.ConfigEffectPlayerRotation: []string{"c", "a"},
	})
	defer endOfBindingHandler()

	sw, err = player.NewSwitcherFromConfig(ctx, registry)
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "a"}, sw.Names())

	require.NoError(t, sw.Run(ctx, nil))
	require.NoError(t, sw.Run(ctx, nil))
	require.NoError(t, sw.Run(ctx, nil))
	assert.Equal(t, []string{"c", "a", "c"}, ran)

	bad, endOfBadBinding := binding.WithEffectHandler(context.Background(), 1, 1, map[string]any{
		configkeys.ConfigEffectPlayerRotation: []string{"z"},
	})
	defer endOfBadBinding()
	_, err = player.NewSwitcherFromConfig(bad, registry)
	require.ErrorIs(t, err, player.ErrUnknownEffect)
}
