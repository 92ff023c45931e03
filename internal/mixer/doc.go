// Package mixer coordinates playback across channels.
//
// A [Coordinator] owns a [catalog.Catalog], every [session.Session] it creates, and the mix
// state: master and per-channel volumes, the single background-music slot, and FIFO-bounded
// lists of active sound effects and stems. Stems are scheduled on the next bar boundary from
// a [clock.Clock].
//
// Overflow on the effect and stem lists evicts the oldest entry. Stopped sessions with a
// fade-out stay in the session map until [Coordinator.Update] observes them reach Stopped.
//
// All state changes are published as [events.Event] values to the subscribed sinks.
package mixer
