package async_test

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/on-the-ground/effects_player/effects/event"
)

const (
	timerPending int32 = iota
	timerFired
	timerStopped
)

type fakeTimer struct {
	d     time.Duration
	f     func()
	state atomic.Int32
	stops atomic.Int32
}

func (t *fakeTimer) stop() bool {
	t.stops.Add(1)
	return t.state.CompareAndSwap(timerPending, timerStopped)
}

func (t *fakeTimer) fire() {
	if t.state.CompareAndSwap(timerPending, timerFired) {
		t.f()
	}
}

// fakeClock records every timer and fires them only on demand.
type fakeClock struct {
	mu     sync.Mutex
	timers []*fakeTimer
	armed  chan *fakeTimer
}

func newFakeClock() *fakeClock {
	return &fakeClock{armed: make(chan *fakeTimer, 64)}
}

func (c *fakeClock) AfterFunc(d time.Duration, f func()) func() bool {
	t := &fakeTimer{d: d, f: f}
	c.mu.Lock()
	c.timers = append(c.timers, t)
	c.mu.Unlock()
	c.armed <- t
	return t.stop
}

func (c *fakeClock) calls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.timers)
}

// countingTarget counts listener registrations and removals.
type countingTarget struct {
	*event.EventTarget
	adds    atomic.Int32
	removes atomic.Int32
}

func newCountingTarget() *countingTarget {
	return &countingTarget{EventTarget: event.NewEventTarget(nil)}
}

func (c *countingTarget) AddListener(eventType string, l event.Listener) event.ListenerID {
	c.adds.Add(1)
	return c.EventTarget.AddListener(eventType, l)
}

func (c *countingTarget) RemoveListener(eventType string, id event.ListenerID) bool {
	c.removes.Add(1)
	return c.EventTarget.RemoveListener(eventType, id)
}
