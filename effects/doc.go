// Package effects runs decorative scene effects under a shared cancellation
// signal, and hosts the context-scoped effect handlers the player relies on.
//
// # Layout
//
//   - async: cancellable waits (Promisify, Delay, NextFrame, When) and the
//     Loop and Parallel combinators.
//   - event, scene: listener targets and the node tree effects draw on.
//   - task: per-session waits handed to drawing code.
//   - player: the Effect protocol, the Repeating adapter, the Switcher and
//     the Player host.
//   - log, binding, concurrency: handlers registered in a context.
//
// # Handlers
//
// Handlers are registered with `WithXxxEffectHandler(ctx, ...)` and performed
// through `PerformResumableEffect` or `FireAndForgetEffect`. Each handler lives
// until its teardown is called or the context it was registered under ends,
// whichever comes first. Payloads carry a partition key; payloads sharing a key
// are handled in order.
//
// Example:
//
//	ctx, endOfLog := log.WithZapEffectHandler(ctx, 16, logger)
//	defer endOfLog()
//
//	ctx, endOfConcurrency := concurrency.WithConcurrencyEffectHandler(ctx, 4)
//	defer endOfConcurrency()
//
//	p, err := player.New(ctx, doc, host, player.NewSwitcher(registry))
//	if err != nil {
//	    return err
//	}
//	p.Connect()
//	defer p.Disconnect()
package effects
