package player

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/on-the-ground/effects_player/effects/async"
	"github.com/on-the-ground/effects_player/effects/binding"
	"github.com/on-the-ground/effects_player/effects/configkeys"
	"github.com/on-the-ground/effects_player/effects/scene"
	"github.com/on-the-ground/effects_player/effects/task"
	"go.uber.org/multierr"
)

// Effect is a runnable decorative effect.
//
// Run draws under root until ctx ends or drawing fails. It must remove every
// node it appended before returning, on every path.
type Effect interface {
	IsSupported() bool
	Run(ctx context.Context, root *scene.Node) error
}

// Drawer is the per-effect part of a Repeating effect.
type Drawer interface {
	// Times is how many drawings run side by side under root.
	Times(root *scene.Node) int
	// Init builds a fresh, detached node for one drawing.
	Init() *scene.Node
	// Draw animates node, which is attached while Draw runs. Waits go
	// through tk so they end with the session.
	Draw(ctx context.Context, node *scene.Node, tk *task.Task) error
}

// Supporter lets a Drawer opt out on hosts that cannot run it.
type Supporter interface {
	IsSupported() bool
}

// Cleaner lets a Drawer release what it attached to a node. Clean runs after
// the node was removed, whatever Draw returned.
type Cleaner interface {
	Clean(node *scene.Node) error
}

type RepeatingOption func(*Repeating)

// WithStartDelay sets the pause between appending a node and drawing it, used
// when the binding effect does not configure one.
func WithStartDelay(d time.Duration) RepeatingOption {
	return func(r *Repeating) {
		r.startDelay = d
	}
}

// WithTaskOptions configures the Task handed to every Draw.
func WithTaskOptions(opts ...task.Option) RepeatingOption {
	return func(r *Repeating) {
		r.taskOpts = append(r.taskOpts, opts...)
	}
}

// Repeating runs Times copies of a Drawer side by side, each one over and
// over: append a fresh node, wait the start delay, draw, remove the node.
type Repeating struct {
	drawer     Drawer
	startDelay time.Duration
	taskOpts   []task.Option
}

var _ Effect = (*Repeating)(nil)

func NewRepeating(drawer Drawer, opts ...RepeatingOption) *Repeating {
	r := &Repeating{drawer: drawer}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Repeating) IsSupported() bool {
	if s, ok := r.drawer.(Supporter); ok {
		return s.IsSupported()
	}
	return true
}

// Run returns nil once ctx ends, or the first drawing error. On error the
// other drawings are aborted with that error as cause, and Run returns only
// after every one of them removed its node.
func (r *Repeating) Run(ctx context.Context, root *scene.Node) error {
	delay, err := binding.GetOrDefault(ctx, configkeys.ConfigEffectPlayerStartDelay, r.startDelay)
	if err != nil {
		if ctx.Err() != nil {
			// ended before anything was drawn
			return nil
		}
		return fmt.Errorf("start delay: %w", err)
	}

	count := max(r.drawer.Times(root), 0)
	ctx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)

	// one Task per run, so every drawing waits on the same frames
	tk := task.New(ctx, r.taskOpts...)

	var drawings sync.WaitGroup
	drawings.Add(count)
	err = async.Parallel(count, func() error {
		defer drawings.Done()
		return async.Loop(func() error {
			return r.repeat(ctx, root, tk, delay)
		})
	})
	if err != nil {
		cancel(err)
		drawings.Wait()
	}
	return err
}

func (r *Repeating) repeat(ctx context.Context, root *scene.Node, tk *task.Task, delay time.Duration) (err error) {
	node := r.drawer.Init()
	if err := root.AppendChild(node); err != nil {
		return err
	}
	defer func() {
		// a drawing may detach its own node
		if rmErr := node.Remove(); rmErr != nil && !errors.Is(rmErr, scene.ErrDetached) {
			err = multierr.Append(err, rmErr)
		}
		if c, ok := r.drawer.(Cleaner); ok {
			err = multierr.Append(err, c.Clean(node))
		}
	}()

	if err := tk.SetTimeout(delay); err != nil {
		return err
	}
	return r.drawer.Draw(ctx, node, tk)
}
