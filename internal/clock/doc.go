// Package clock aligns engine time to a musical grid.
//
// A [Clock] converts (time, tempo) pairs into bar, beat and subdivision boundaries using
// ceiling arithmetic with an inclusive boundary: a time exactly on a boundary is its own
// "next" boundary. Invalid tempos are replaced by the configured default rather than
// reported, so every method is total and deterministic.
//
// Groove patterns ([Groove]) add a fraction of a beat to off-grid positions to emulate
// swing, shuffle, funk and latin feels.
package clock
