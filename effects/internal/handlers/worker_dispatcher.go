package handlers

import (
	"context"
	"sync"

	"github.com/cespare/xxhash/v2"
	effectmodel "github.com/on-the-ground/effects_player/effects/internal/model"
)

// --- common interface ---

// WorkerDispatcher routes a message to the channel of the worker that owns it.
type WorkerDispatcher[T any] interface {
	GetChannelOf(msg T) chan<- T
	// Wait blocks until every worker has drained its channel and returned.
	Wait()
}

// --- single queue ---

type singleQueue[T any] struct {
	effectCh chan T
	wg       *sync.WaitGroup
}

func (q singleQueue[T]) GetChannelOf(_ T) chan<- T {
	return q.effectCh
}

func (q singleQueue[T]) Wait() {
	q.wg.Wait()
}

func NewSingleQueue[T any](
	ctx context.Context,
	bufferSize int,
	handleFn func(context.Context, T),
) WorkerDispatcher[T] {
	wg := &sync.WaitGroup{}
	effCh := startWorker(ctx, wg, bufferSize, handleFn)
	return singleQueue[T]{effectCh: effCh, wg: wg}
}

// --- partitioned queue ---

type partitionedQueue[T effectmodel.Partitionable] struct {
	effectChs []chan T
	wg        *sync.WaitGroup
}

func (pq partitionedQueue[T]) GetChannelOf(msg T) chan<- T {
	return pq.effectChs[indexOf(msg, len(pq.effectChs))]
}

func (pq partitionedQueue[T]) Wait() {
	pq.wg.Wait()
}

// NewPartitionedQueue starts numWorkers workers. Messages sharing a PartitionKey
// always land on the same worker, so they are handled in send order.
func NewPartitionedQueue[T effectmodel.Partitionable](
	ctx context.Context,
	numWorkers, bufferSize int,
	handleFn func(context.Context, T),
) WorkerDispatcher[T] {
	if numWorkers <= 0 {
		numWorkers = 1
	}
	wg := &sync.WaitGroup{}
	channels := make([]chan T, numWorkers)
	for i := range channels {
		channels[i] = startWorker(ctx, wg, bufferSize, handleFn)
	}
	return partitionedQueue[T]{effectChs: channels, wg: wg}
}

func indexOf(payload effectmodel.Partitionable, numChs int) int {
	switch numChs {
	case 0:
		panic("number of channels cannot be 0")
	case 1:
		return 0
	default:
		return int(xxhash.Sum64String(payload.PartitionKey()) % uint64(numChs))
	}
}

// startWorker runs handleFn for every message until ctx is done, then drains
// whatever is still buffered.
func startWorker[T any](
	ctx context.Context,
	wg *sync.WaitGroup,
	bufferSize int,
	handleFn func(context.Context, T),
) chan T {
	ch := make(chan T, bufferSize)
	ready := make(chan struct{})

	wg.Add(1)
	go func() {
		defer wg.Done()
		close(ready)
		for {
			select {
			case msg := <-ch:
				handleFn(ctx, msg)
			case <-ctx.Done():
				for {
					select {
					case msg := <-ch:
						handleFn(ctx, msg)
					default:
						return
					}
				}
			}
		}
	}()
	<-ready

	return ch
}
