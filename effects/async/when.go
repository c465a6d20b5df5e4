package async

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/on-the-ground/effects_player/effects/event"
)

// Filter decides whether an observed event settles When. It may be called any
// number of times and must not have side effects.
type Filter func(*event.Event) bool

// When waits for the first eventType event on target that passes filter (nil
// accepts every event) and returns that exact event.
//
// Exactly one listener is added and exactly one removal happens per call,
// whether the wait resolves or is aborted.
func When(ctx context.Context, target event.Target, eventType string, filter Filter) (*event.Event, error) {
	return Promisify(ctx, func(resolve func(*event.Event)) func() {
		var (
			id    event.ListenerID
			added = make(chan struct{})
			fired atomic.Bool
		)
		detach := sync.OnceFunc(func() {
			<-added
			target.RemoveListener(eventType, id)
		})

		id = target.AddListener(eventType, func(ev *event.Event) {
			if filter != nil && !filter(ev) {
				return
			}
			if !fired.CompareAndSwap(false, true) {
				return
			}
			detach()
			resolve(ev)
		})
		close(added)

		return detach
	})
}
