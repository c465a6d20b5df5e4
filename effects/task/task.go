// Package task binds the cancellable waits an effect performs while drawing
// to the context of one play session.
package task

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/on-the-ground/effects_player/effects/async"
	"github.com/on-the-ground/effects_player/effects/event"
	"github.com/on-the-ground/effects_player/effects/scene"
)

var (
	ErrTimeoutAborted    = errors.New("timeout is aborted")
	ErrTransitionAborted = errors.New("transition is aborted")
	ErrFrameAborted      = errors.New("frame is aborted")
)

type Option func(*Task)

// WithClock replaces the clock SetTimeout arms its timers on.
func WithClock(clock async.Clock) Option {
	return func(t *Task) {
		t.clock = clock
	}
}

// WithFrames replaces the frame source of NextFrame.
func WithFrames(frames async.Frames) Option {
	return func(t *Task) {
		t.frames = frames
	}
}

// DefaultFrameInterval paces the frames of a Task built without WithFrames.
const DefaultFrameInterval = time.Second / 60

type Task struct {
	ctx    context.Context
	clock  async.Clock
	frames async.Frames
}

func New(ctx context.Context, opts ...Option) *Task {
	t := &Task{
		ctx:   ctx,
		clock: async.SystemClock,
	}
	for _, opt := range opts {
		opt(t)
	}
	if t.frames == nil {
		t.frames = async.NewFrameClockOn(t.clock, DefaultFrameInterval)
	}
	return t
}

func (t *Task) Context() context.Context {
	return t.ctx
}

// Frames returns the frame source NextFrame waits on.
func (t *Task) Frames() async.Frames {
	return t.frames
}

// SetTimeout waits for d. The returned error wraps both ErrTimeoutAborted and
// the *async.AbortError when the session ends first.
func (t *Task) SetTimeout(d time.Duration) error {
	if err := async.DelayOn(t.ctx, t.clock, d); err != nil {
		return fmt.Errorf("%w: %w", ErrTimeoutAborted, err)
	}
	return nil
}

// TransitionEnd waits for the next transitionend event reaching node,
// including ones bubbling up from its descendants.
func (t *Task) TransitionEnd(node *scene.Node) error {
	if _, err := async.When(t.ctx, node, event.TypeTransitionEnd, nil); err != nil {
		return fmt.Errorf("%w: %w", ErrTransitionAborted, err)
	}
	return nil
}

// NextFrame waits for the next frame and returns its timestamp.
func (t *Task) NextFrame() (time.Time, error) {
	at, err := async.NextFrame(t.ctx, t.frames)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %w", ErrFrameAborted, err)
	}
	return at, nil
}
