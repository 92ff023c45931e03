// Package tasks drives a [mixer.Coordinator] from a single control goroutine with progress reporting.
//
// # Tick Driver
//
// [TickDriver] owns engine time. Each tick it:
//
//  1. Queues every [Cue] due at the current tick, stamping stem requests with the current time
//  2. Drains the coordinator's request queue
//  3. Advances engine time by 1/TickRate and calls [mixer.Coordinator.Update]
//
// Ticks are paced by a [rate.Limiter] when DriverOpts.Paced is set. Unpaced runs (simulation,
// tests) execute as fast as possible with identical results.
//
// # Progress Reporting
//
// Runs use non-blocking channels for progress updates. Each tick sends a [ProgressUpdate] carrying
// a [Snapshot], which is a copy of the mix safe to read from another goroutine (e.g. the monitor UI).
// Updates use select with default, so a slow consumer drops frames instead of stalling the engine.
package tasks
