// Package event provides a minimal, goroutine-safe event target.
//
// Go funcs cannot be compared, so listeners are removed by the ListenerID
// returned when they were added.
package event

import (
	"sync"
)

// Common event types.
const (
	TypeClick            = "click"
	TypeKeydown          = "keydown"
	TypeResize           = "resize"
	TypeTransitionEnd    = "transitionend"
	TypeVisibilityChange = "visibilitychange"
)

// Event is a dispatched occurrence. Target is set by the dispatching target
// when left nil.
type Event struct {
	Type   string
	Target any
	// Key is the key name of keyboard events (" ", "Enter", "Escape", ...).
	Key    string
	Detail any
}

// Listener receives dispatched events.
type Listener func(*Event)

type ListenerID uint64

// Target is anything listeners can be attached to.
type Target interface {
	AddListener(eventType string, listener Listener) ListenerID
	RemoveListener(eventType string, id ListenerID) bool
}

type listenerEntry struct {
	id       ListenerID
	listener Listener
}

// EventTarget is the default Target. The zero value is ready to use.
type EventTarget struct {
	mu        sync.RWMutex
	listeners map[string][]listenerEntry
	nextID    ListenerID
	owner     any
}

var _ Target = (*EventTarget)(nil)

// NewEventTarget returns a target that stamps owner as Event.Target on
// dispatched events that carry none.
func NewEventTarget(owner any) *EventTarget {
	return &EventTarget{owner: owner}
}

// AddListener registers listener for eventType. A nil listener is ignored and
// yields the zero ListenerID.
func (et *EventTarget) AddListener(eventType string, listener Listener) ListenerID {
	if listener == nil {
		return 0
	}

	et.mu.Lock()
	defer et.mu.Unlock()

	if et.listeners == nil {
		et.listeners = make(map[string][]listenerEntry)
	}
	et.nextID++
	id := et.nextID
	et.listeners[eventType] = append(et.listeners[eventType], listenerEntry{id: id, listener: listener})
	return id
}

// RemoveListener removes the listener registered under id. It reports whether
// a listener was removed.
func (et *EventTarget) RemoveListener(eventType string, id ListenerID) bool {
	et.mu.Lock()
	defer et.mu.Unlock()

	entries := et.listeners[eventType]
	for i, entry := range entries {
		if entry.id != id {
			continue
		}
		// copy so snapshots taken by Dispatch stay intact
		next := make([]listenerEntry, 0, len(entries)-1)
		next = append(next, entries[:i]...)
		next = append(next, entries[i+1:]...)
		if len(next) == 0 {
			delete(et.listeners, eventType)
		} else {
			et.listeners[eventType] = next
		}
		return true
	}
	return false
}

// ListenerCount returns the number of listeners registered for eventType.
func (et *EventTarget) ListenerCount(eventType string) int {
	et.mu.RLock()
	defer et.mu.RUnlock()
	return len(et.listeners[eventType])
}

// Dispatch calls every listener registered for ev.Type at the time of the
// call, in registration order, on the calling goroutine. Listeners may add or
// remove listeners while being called.
func (et *EventTarget) Dispatch(ev *Event) {
	if ev.Target == nil {
		ev.Target = et.owner
	}

	et.mu.RLock()
	snapshot := et.listeners[ev.Type]
	et.mu.RUnlock()

	for _, entry := range snapshot {
		entry.listener(ev)
	}
}
