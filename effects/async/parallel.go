package async

import (
	"context"
	"errors"

	"golang.org/x/sync/errgroup"
)

// taskFailure marks an error returned by a task, so it can be told apart
// from the cancellation errgroup applies when the group finishes cleanly.
type taskFailure struct {
	err error
}

func (f *taskFailure) Error() string { return f.err.Error() }

func (f *taskFailure) Unwrap() error { return f.err }

// Parallel starts count goroutines running task, in order, and waits for them.
//
// Cancellation errors are absorbed. The first other error is returned as soon
// as it is observed; the remaining goroutines are not stopped by Parallel, so
// callers share one context between them. A panicking task is reported as a
// *PanicError.
func Parallel(count int, task func() error) error {
	if count <= 0 {
		return nil
	}

	g, failed := errgroup.WithContext(context.Background())
	for i := 0; i < count; i++ {
		g.Go(func() error {
			if err := runRecovered(task); err != nil && !IsAbort(err) {
				return &taskFailure{err: err}
			}
			return nil
		})
	}

	joined := make(chan error, 1)
	go func() {
		joined <- g.Wait()
	}()

	select {
	case <-failed.Done():
		// failed also ends when Wait returns without error
		if err := taskErrorOf(context.Cause(failed)); err != nil {
			return err
		}
		return taskErrorOf(<-joined)
	case err := <-joined:
		return taskErrorOf(err)
	}
}

func taskErrorOf(err error) error {
	var f *taskFailure
	if errors.As(err, &f) {
		return f.err
	}
	return nil
}

func runRecovered(task func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{Value: r}
		}
	}()
	return task()
}
