// Package ui implements a live terminal monitor for the playback engine using bubbletea's Elm architecture.
//
// The monitor has two views:
//  1. [ClipListView] : Browse the catalog and play clips on their channel
//  2. [SessionView] : Per-session state and volume meters, plus the mix status
//
// A [tasks.TickDriver] runs in its own goroutine and is the only code touching the coordinator.
// The (view) [Model] receives [tasks.Snapshot] values through the driver's progress channel and
// sends user actions back as [tasks.Command] values, so rendering never blocks the engine.
//
// Keyboard navigation uses vim-style bindings (j/k, enter, tab, q) with contextual help displayed via charmbracelet/bubbles/help.
package ui
