package async

import (
	"context"
	"sync"
	"time"
)

// Clock arms one-shot timers. The returned stop func cancels the timer if it
// has not fired yet.
type Clock interface {
	AfterFunc(d time.Duration, f func()) (stop func() bool)
}

type systemClock struct{}

func (systemClock) AfterFunc(d time.Duration, f func()) func() bool {
	return time.AfterFunc(d, f).Stop
}

// SystemClock is backed by time.AfterFunc.
var SystemClock Clock = systemClock{}

// Delay waits for d on the SystemClock, or until ctx is done.
func Delay(ctx context.Context, d time.Duration) error {
	return DelayOn(ctx, SystemClock, d)
}

// DelayOn waits for d on clock, or until ctx is done, in which case the timer
// is stopped. A ctx that is already done never arms a timer. Zero and negative
// durations are passed through to the clock.
func DelayOn(ctx context.Context, clock Clock, d time.Duration) error {
	_, err := Promisify(ctx, func(resolve func(struct{})) func() {
		stop := clock.AfterFunc(d, func() {
			resolve(struct{}{})
		})
		return func() {
			stop()
		}
	})
	return err
}

// Frames schedules callbacks for the next rendered frame.
type Frames interface {
	RequestFrame(callback func(time.Time)) (cancel func())
}

// NextFrame waits for the next frame of frames and returns its timestamp.
// A ctx that is already done never requests a frame.
func NextFrame(ctx context.Context, frames Frames) (time.Time, error) {
	return Promisify(ctx, func(resolve func(time.Time)) func() {
		return frames.RequestFrame(resolve)
	})
}

// FrameClock is a timer-driven Frames: every interval it runs the callbacks
// requested since the previous frame, all with the same timestamp.
type FrameClock struct {
	interval time.Duration
	clock    Clock

	mu        sync.Mutex
	nextID    uint64
	callbacks map[uint64]func(time.Time)
	order     []uint64
	armed     bool
}

var _ Frames = (*FrameClock)(nil)

// NewFrameClock returns a FrameClock ticking every interval on the SystemClock.
func NewFrameClock(interval time.Duration) *FrameClock {
	return NewFrameClockOn(SystemClock, interval)
}

func NewFrameClockOn(clock Clock, interval time.Duration) *FrameClock {
	return &FrameClock{
		interval:  interval,
		clock:     clock,
		callbacks: make(map[uint64]func(time.Time)),
	}
}

func (fc *FrameClock) RequestFrame(callback func(time.Time)) func() {
	fc.mu.Lock()
	defer fc.mu.Unlock()

	fc.nextID++
	id := fc.nextID
	fc.callbacks[id] = callback
	fc.order = append(fc.order, id)
	if !fc.armed {
		fc.armed = true
		fc.clock.AfterFunc(fc.interval, fc.tick)
	}

	return func() {
		fc.mu.Lock()
		defer fc.mu.Unlock()
		delete(fc.callbacks, id)
	}
}

// Pending returns how many callbacks wait for the next frame.
func (fc *FrameClock) Pending() int {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	return len(fc.callbacks)
}

func (fc *FrameClock) tick() {
	fc.mu.Lock()
	order := fc.order
	due := make([]func(time.Time), 0, len(order))
	for _, id := range order {
		if cb, ok := fc.callbacks[id]; ok {
			due = append(due, cb)
			delete(fc.callbacks, id)
		}
	}
	fc.order = nil
	fc.armed = false
	fc.mu.Unlock()

	now := time.Now()
	for _, cb := range due {
		cb(now)
	}
}
