package scene

import (
	"sync"

	"github.com/on-the-ground/effects_player/effects/event"
)

type Visibility string

const (
	VisibilityVisible Visibility = "visible"
	VisibilityHidden  Visibility = "hidden"
)

// Size is the Detail of resize events.
type Size struct {
	Width, Height int
}

// Window receives resize events.
type Window struct {
	*event.EventTarget

	mu   sync.Mutex
	size Size
}

func (w *Window) Size() Size {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.size
}

// Resize records the new size and dispatches a resize event, even when the
// size did not change.
func (w *Window) Resize(width, height int) {
	size := Size{Width: width, Height: height}
	w.mu.Lock()
	w.size = size
	w.mu.Unlock()
	w.Dispatch(&event.Event{Type: event.TypeResize, Detail: size})
}

// Document owns the Body tree and the Window, and receives every event
// bubbling out of Body.
type Document struct {
	Body   *Node
	Window *Window

	events *event.EventTarget

	mu         sync.Mutex
	visibility Visibility
}

var _ event.Target = (*Document)(nil)

func NewDocument() *Document {
	d := &Document{
		Body:       NewNode("body"),
		visibility: VisibilityVisible,
	}
	d.events = event.NewEventTarget(d)
	d.Window = &Window{}
	d.Window.EventTarget = event.NewEventTarget(d.Window)

	treeMu.Lock()
	d.Body.doc = d
	treeMu.Unlock()
	return d
}

func (d *Document) AddListener(eventType string, listener event.Listener) event.ListenerID {
	return d.events.AddListener(eventType, listener)
}

func (d *Document) RemoveListener(eventType string, id event.ListenerID) bool {
	return d.events.RemoveListener(eventType, id)
}

func (d *Document) ListenerCount(eventType string) int {
	return d.events.ListenerCount(eventType)
}

// Dispatch delivers ev to the document only.
func (d *Document) Dispatch(ev *event.Event) {
	d.events.Dispatch(ev)
}

func (d *Document) VisibilityState() Visibility {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.visibility
}

// SetVisibility dispatches visibilitychange when the state changes.
func (d *Document) SetVisibility(v Visibility) {
	d.mu.Lock()
	changed := d.visibility != v
	d.visibility = v
	d.mu.Unlock()

	if changed {
		d.Dispatch(&event.Event{Type: event.TypeVisibilityChange, Detail: v})
	}
}

// Click dispatches a click on target, or on the document when target is nil.
func (d *Document) Click(target *Node) {
	ev := &event.Event{Type: event.TypeClick}
	if target == nil {
		d.Dispatch(ev)
		return
	}
	target.Dispatch(ev)
}

// KeyDown dispatches a keydown for key on target, or on the document when
// target is nil.
func (d *Document) KeyDown(target *Node, key string) {
	ev := &event.Event{Type: event.TypeKeydown, Key: key}
	if target == nil {
		d.Dispatch(ev)
		return
	}
	target.Dispatch(ev)
}
