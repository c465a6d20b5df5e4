// Package scene is a small goroutine-safe element tree that effects draw on.
//
// Nodes carry attributes, style properties and text, and dispatch events that
// bubble from the node through its ancestors to the owning Document.
package scene

import (
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/on-the-ground/effects_player/effects/event"
)

var (
	ErrDetached = errors.New("node is not attached to a parent")
	ErrCycle    = errors.New("node cannot be appended to its own subtree")
	ErrNilNode  = errors.New("nil node")
)

// treeMu guards parent and children links of every node. Links span two
// nodes, so a per-node lock would need ordering rules.
var treeMu sync.RWMutex

type Node struct {
	id  string
	tag string

	mu    sync.RWMutex
	attrs map[string]string
	style map[string]string
	text  string

	// guarded by treeMu
	parent   *Node
	children []*Node
	doc      *Document

	events *event.EventTarget
}

var _ event.Target = (*Node)(nil)

func NewNode(tag string) *Node {
	n := &Node{
		id:    uuid.NewString(),
		tag:   tag,
		attrs: make(map[string]string),
		style: make(map[string]string),
	}
	n.events = event.NewEventTarget(n)
	return n
}

func (n *Node) ID() string  { return n.id }
func (n *Node) Tag() string { return n.tag }

func (n *Node) String() string {
	return fmt.Sprintf("<%s id=%s>", n.tag, n.id)
}

func (n *Node) SetAttr(name, value string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.attrs[name] = value
}

// RemoveAttr reports whether the attribute was present.
func (n *Node) RemoveAttr(name string) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	_, ok := n.attrs[name]
	delete(n.attrs, name)
	return ok
}

func (n *Node) Attr(name string) (string, bool) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	v, ok := n.attrs[name]
	return v, ok
}

func (n *Node) HasAttr(name string) bool {
	_, ok := n.Attr(name)
	return ok
}

// SetStyle sets a style property. An empty value removes it.
func (n *Node) SetStyle(property, value string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if value == "" {
		delete(n.style, property)
		return
	}
	n.style[property] = value
}

func (n *Node) Style(property string) string {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.style[property]
}

func (n *Node) SetText(text string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.text = text
}

func (n *Node) Text() string {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.text
}

// AppendChild makes child the last child of n, detaching it from its previous
// parent first.
func (n *Node) AppendChild(child *Node) error {
	if child == nil {
		return ErrNilNode
	}

	treeMu.Lock()
	defer treeMu.Unlock()

	for cur := n; cur != nil; cur = cur.parent {
		if cur == child {
			return ErrCycle
		}
	}
	if child.parent != nil {
		child.parent.removeChildLocked(child)
	}
	child.parent = n
	n.children = append(n.children, child)
	return nil
}

// Remove detaches n from its parent.
func (n *Node) Remove() error {
	treeMu.Lock()
	defer treeMu.Unlock()

	if n.parent == nil {
		return ErrDetached
	}
	n.parent.removeChildLocked(n)
	n.parent = nil
	return nil
}

func (n *Node) removeChildLocked(child *Node) {
	for i, c := range n.children {
		if c == child {
			n.children = append(n.children[:i:i], n.children[i+1:]...)
			return
		}
	}
}

func (n *Node) Parent() *Node {
	treeMu.RLock()
	defer treeMu.RUnlock()
	return n.parent
}

// Children returns a snapshot of n's children.
func (n *Node) Children() []*Node {
	treeMu.RLock()
	defer treeMu.RUnlock()
	out := make([]*Node, len(n.children))
	copy(out, n.children)
	return out
}

// Contains reports whether other is n or one of its descendants.
func (n *Node) Contains(other *Node) bool {
	treeMu.RLock()
	defer treeMu.RUnlock()
	for cur := other; cur != nil; cur = cur.parent {
		if cur == n {
			return true
		}
	}
	return false
}

// Document returns the document n is connected to, or nil.
func (n *Node) Document() *Document {
	treeMu.RLock()
	defer treeMu.RUnlock()
	return n.rootLocked().doc
}

func (n *Node) rootLocked() *Node {
	cur := n
	for cur.parent != nil {
		cur = cur.parent
	}
	return cur
}

func (n *Node) AddListener(eventType string, listener event.Listener) event.ListenerID {
	return n.events.AddListener(eventType, listener)
}

func (n *Node) RemoveListener(eventType string, id event.ListenerID) bool {
	return n.events.RemoveListener(eventType, id)
}

func (n *Node) ListenerCount(eventType string) int {
	return n.events.ListenerCount(eventType)
}

// Dispatch delivers ev to n, then to each ancestor, then to the document n is
// connected to. ev.Target is set to n when empty. The propagation path is
// fixed before the first listener runs.
func (n *Node) Dispatch(ev *event.Event) {
	if ev.Target == nil {
		ev.Target = n
	}

	treeMu.RLock()
	var path []*event.EventTarget
	cur := n
	for {
		path = append(path, cur.events)
		if cur.parent == nil {
			break
		}
		cur = cur.parent
	}
	if cur.doc != nil {
		path = append(path, cur.doc.events)
	}
	treeMu.RUnlock()

	for _, target := range path {
		target.Dispatch(ev)
	}
}
