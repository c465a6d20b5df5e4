package player_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/on-the-ground/effects_player/effects/async"
	"github.com/on-the-ground/effects_player/effects/concurrency"
	"github.com/on-the-ground/effects_player/effects/log"
	"github.com/on-the-ground/effects_player/effects/player"
	"github.com/on-the-ground/effects_player/effects/scene"
	"github.com/on-the-ground/effects_player/effects/task"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

// withHandlers installs an observed log handler and a concurrency handler,
// closed in that reverse order at the end of the test.
func withHandlers(t *testing.T) (context.Context, *observer.ObservedLogs, func()) {
	t.Helper()

	core, logs := observer.New(zap.DebugLevel)
	ctx, endOfLogHandler := log.WithZapEffectHandler(context.Background(), 16, zap.New(core))
	ctx, endOfConcurrencyHandler := concurrency.WithConcurrencyEffectHandler(ctx, 4)

	var once sync.Once
	end := func() {
		once.Do(func() {
			endOfConcurrencyHandler()
			endOfLogHandler()
		})
	}
	t.Cleanup(end)
	return ctx, logs, func() { endOfConcurrencyHandler() }
}

// pulseDrawer attaches a node and waits for its transition to end.
type pulseDrawer struct {
	times   int
	draws   atomic.Int32
	cleaned atomic.Int32
	drawErr error
	clean   error
	unsup   bool
}

func (d *pulseDrawer) Times(*scene.Node) int { return d.times }

func (d *pulseDrawer) Init() *scene.Node {
	n := scene.NewNode("i")
	n.SetStyle("opacity", "0")
	return n
}

func (d *pulseDrawer) Draw(ctx context.Context, node *scene.Node, tk *task.Task) error {
	d.draws.Add(1)
	if d.drawErr != nil {
		return d.drawErr
	}
	node.SetStyle("opacity", "1")
	return tk.TransitionEnd(node)
}

func (d *pulseDrawer) Clean(*scene.Node) error {
	d.cleaned.Add(1)
	return d.clean
}

func (d *pulseDrawer) IsSupported() bool { return !d.unsup }

// causeEffect records why the context of every run ended.
type causeEffect struct {
	player.Effect
	causes chan error
}

func recordCauses(e player.Effect) *causeEffect {
	return &causeEffect{Effect: e, causes: make(chan error, 16)}
}

func (c *causeEffect) Run(ctx context.Context, root *scene.Node) error {
	context.AfterFunc(ctx, func() {
		c.causes <- context.Cause(ctx)
	})
	return c.Effect.Run(ctx, root)
}

func (c *causeEffect) next(t *testing.T) error {
	t.Helper()
	select {
	case err := <-c.causes:
		return err
	case <-time.After(2 * time.Second):
		t.Fatal("effect did not return")
		return nil
	}
}

// stubEffect is a fixed Effect for switcher tests.
type stubEffect struct {
	name      string
	supported bool
	ran       *[]string
	mu        *sync.Mutex
}

func (s stubEffect) IsSupported() bool { return s.supported }

func (s stubEffect) Run(context.Context, *scene.Node) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	*s.ran = append(*s.ran, s.name)
	return nil
}

// holdClock records armed durations and never fires.
type holdClock struct {
	mu   sync.Mutex
	durs []time.Duration
}

func (c *holdClock) AfterFunc(d time.Duration, f func()) func() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.durs = append(c.durs, d)
	return func() bool { return true }
}

func (c *holdClock) durations() []time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]time.Duration(nil), c.durs...)
}

// splitDrawer fails its first drawing once fail is closed; every other
// drawing waits for its transition to end. It records the frames each Draw
// was handed.
type splitDrawer struct {
	times int
	fail  chan struct{}
	err   error
	draws atomic.Int32

	mu     sync.Mutex
	frames []async.Frames
}

func (d *splitDrawer) Times(*scene.Node) int { return d.times }

func (d *splitDrawer) Init() *scene.Node { return scene.NewNode("i") }

func (d *splitDrawer) Draw(ctx context.Context, node *scene.Node, tk *task.Task) error {
	d.mu.Lock()
	d.frames = append(d.frames, tk.Frames())
	d.mu.Unlock()

	if d.draws.Add(1) == 1 && d.fail != nil {
		<-d.fail
		return d.err
	}
	return tk.TransitionEnd(node)
}

func (d *splitDrawer) seenFrames() []async.Frames {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]async.Frames(nil), d.frames...)
}
