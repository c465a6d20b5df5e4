// Package player drives effects on a scene under a stoppable play session.
package player

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/on-the-ground/effects_player/effects"
	"github.com/on-the-ground/effects_player/effects/async"
	"github.com/on-the-ground/effects_player/effects/concurrency"
	"github.com/on-the-ground/effects_player/effects/event"
	effectmodel "github.com/on-the-ground/effects_player/effects/internal/model"
	"github.com/on-the-ground/effects_player/effects/log"
	"github.com/on-the-ground/effects_player/effects/scene"
)

// Abort reasons of a play session, readable with context.Cause.
var (
	ErrStopped         = errors.New("player stopped")
	ErrStoppedByClick  = fmt.Errorf("%w: clicked outside the player", ErrStopped)
	ErrStoppedByEscape = fmt.Errorf("%w: escape pressed", ErrStopped)
	ErrHidden          = fmt.Errorf("%w: document hidden", ErrStopped)
	ErrResized         = fmt.Errorf("%w: window resized", ErrStopped)
	ErrDisconnected    = errors.New("player disconnected")
	ErrEffectEnded     = errors.New("effect ended")
	ErrShutdown        = errors.New("concurrency handler unavailable")
)

type Option func(*Player)

// WithStopped sets the initial stopped state.
func WithStopped(stopped bool) Option {
	return func(p *Player) {
		p.stopped = stopped
	}
}

type registration struct {
	target    event.Target
	eventType string
	id        event.ListenerID
}

func (r registration) remove() {
	r.target.RemoveListener(r.eventType, r.id)
}

type session struct {
	id        string
	cancel    context.CancelCauseFunc
	listeners []registration
	// done closes when the effect returned, cleaned once listeners are gone
	done    chan struct{}
	cleaned chan struct{}
}

// Player plays an Effect on the document body while it is connected and not
// stopped. Clicking it, or pressing Space or Enter on it, starts playing.
// While playing, a click elsewhere, Escape, hiding the document or resizing
// the window stops it.
//
// ctx must carry a log and a concurrency handler; sessions run as children of
// the concurrency handler.
type Player struct {
	ctx    context.Context
	doc    *scene.Document
	host   *scene.Node
	effect Effect

	mu        sync.Mutex
	stopped   bool
	connected bool
	hostRegs  []registration
	session   *session
	last      *session
}

func New(ctx context.Context, doc *scene.Document, host *scene.Node, effect Effect, opts ...Option) (*Player, error) {
	for _, enum := range []effectmodel.EffectEnum{effectmodel.EffectLog, effectmodel.EffectConcurrency} {
		if !effects.HasHandler(ctx, enum) {
			return nil, fmt.Errorf("%w: %s", effectmodel.ErrNoEffectHandler, enum)
		}
	}
	p := &Player{
		ctx:    ctx,
		doc:    doc,
		host:   host,
		effect: effect,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

func (p *Player) Host() *scene.Node {
	return p.host
}

// Connect starts listening on the host and plays unless stopped.
func (p *Player) Connect() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.connected {
		return
	}
	p.connected = true
	p.hostRegs = []registration{
		p.listen(p.host, event.TypeClick, func(*event.Event) {
			p.SetStopped(false)
		}),
		p.listen(p.host, event.TypeKeydown, func(ev *event.Event) {
			if ev.Key == " " || ev.Key == "Enter" {
				p.SetStopped(false)
			}
		}),
	}
	p.applyLocked()
}

// Disconnect aborts the running session without changing the stopped state.
func (p *Player) Disconnect() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.connected {
		return
	}
	p.connected = false
	for _, reg := range p.hostRegs {
		reg.remove()
	}
	p.hostRegs = nil
	p.abortLocked(ErrDisconnected)
}

func (p *Player) Stopped() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stopped
}

// Playing reports whether a session is running.
func (p *Player) Playing() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.session != nil
}

// SessionID returns the id of the running session, or "".
func (p *Player) SessionID() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.session == nil {
		return ""
	}
	return p.session.id
}

// SetStopped stops or resumes playing.
func (p *Player) SetStopped(stopped bool) {
	p.setStopped(stopped, ErrStopped)
}

func (p *Player) setStopped(stopped bool, reason error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stopped == stopped && (stopped || p.session != nil) {
		return
	}
	p.stopped = stopped
	if stopped {
		p.abortLocked(reason)
	}
	p.applyLocked()
}

// Wait blocks until the most recent session has ended and removed its
// listeners. It does not stop the session.
func (p *Player) Wait() {
	p.mu.Lock()
	s := p.last
	p.mu.Unlock()
	if s != nil {
		<-s.done
		<-s.cleaned
	}
}

// applyLocked reflects the stopped state on the host and starts a session
// when one should run.
func (p *Player) applyLocked() {
	if p.stopped {
		p.host.SetAttr("tabindex", "0")
		p.host.SetAttr("role", "button")
		return
	}
	p.host.RemoveAttr("tabindex")
	p.host.RemoveAttr("role")
	if p.connected && p.session == nil {
		p.playLocked()
	}
}

func (p *Player) abortLocked(reason error) {
	if p.session != nil {
		p.session.cancel(reason)
		p.session = nil
	}
}

// stopSession stops playing on behalf of s, unless s was already replaced.
func (p *Player) stopSession(s *session, reason error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.session != s {
		return
	}
	p.stopped = true
	p.abortLocked(reason)
	p.applyLocked()
}

func (p *Player) listen(target event.Target, eventType string, listener event.Listener) registration {
	return registration{
		target:    target,
		eventType: eventType,
		id:        target.AddListener(eventType, listener),
	}
}

func (p *Player) playLocked() {
	ctx, cancel := context.WithCancelCause(p.ctx)
	s := &session{
		id:      uuid.NewString(),
		cancel:  cancel,
		done:    make(chan struct{}),
		cleaned: make(chan struct{}),
	}

	s.listeners = []registration{
		p.listen(p.doc, event.TypeClick, func(ev *event.Event) {
			if ev.Target != p.host {
				p.stopSession(s, ErrStoppedByClick)
			}
		}),
		p.listen(p.doc, event.TypeKeydown, func(ev *event.Event) {
			if ev.Key == "Escape" {
				p.stopSession(s, ErrStoppedByEscape)
			}
		}),
		p.listen(p.doc, event.TypeVisibilityChange, func(*event.Event) {
			if p.doc.VisibilityState() == scene.VisibilityHidden {
				p.stopSession(s, ErrHidden)
			}
		}),
		p.listen(p.doc.Window, event.TypeResize, func(*event.Event) {
			p.stopSession(s, ErrResized)
		}),
	}
	p.session = s
	p.last = s

	context.AfterFunc(ctx, func() {
		defer close(s.cleaned)
		for _, reg := range s.listeners {
			reg.remove()
		}
		p.mu.Lock()
		if p.session == s {
			p.session = nil
		}
		p.mu.Unlock()
		log.LogEff(p.ctx, log.LogDebug, "play session ended", map[string]interface{}{
			"session": s.id,
			"reason":  context.Cause(ctx).Error(),
		})
	})

	delivered := concurrency.ConcurrencyEff(p.ctx, func(childCtx context.Context) {
		defer close(s.done)
		stop := context.AfterFunc(childCtx, func() {
			cancel(context.Cause(childCtx))
		})
		defer stop()

		err := p.effect.Run(ctx, p.doc.Body)
		if err != nil && !async.IsAbort(err) {
			log.LogEff(p.ctx, log.LogError, "effect failed", map[string]interface{}{
				"session": s.id,
				"error":   err.Error(),
			})
		}
		cancel(ErrEffectEnded)
	})
	if !delivered {
		close(s.done)
		p.abortLocked(ErrShutdown)
		return
	}
	log.LogEff(p.ctx, log.LogDebug, "play session started", map[string]interface{}{
		"session": s.id,
	})
}
