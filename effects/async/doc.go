// Package async coordinates cancellable waits.
//
// A context.Context plays the role of an abort signal: Promisify, Delay,
// NextFrame and When return an *AbortError carrying context.Cause once the
// context is done. Loop and Parallel treat such errors as a clean stop and
// surface every other error.
//
// Example:
//
//	ctx, abort := context.WithCancelCause(ctx)
//	go func() {
//	    _ = async.Parallel(3, func() error {
//	        return async.Loop(func() error {
//	            return async.Delay(ctx, 100*time.Millisecond)
//	        })
//	    })
//	}()
//	abort(errors.New("user pressed escape"))
package async
