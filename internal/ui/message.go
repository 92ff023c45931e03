package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/mixdeck/internal/events"
	"github.com/desertthunder/mixdeck/internal/tasks"
)

// MsgKind enumerates all message types in the monitor.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgProgressUpdate MsgKind = iota
	MsgRunComplete
	MsgCommandPosted
	MsgEngineEvent
)

// progressUpdateMsg is the constructor for [MsgProgressUpdate]
func progressUpdateMsg(update tasks.ProgressUpdate) Msg {
	return Msg{kind: MsgProgressUpdate, data: update}
}

// runCompleteMsg is the constructor for [MsgRunComplete]
func runCompleteMsg(result *tasks.RunResult, err error) Msg {
	return Msg{
		kind: MsgRunComplete,
		data: struct {
			result *tasks.RunResult
			err    error
		}{result, err},
	}
}

// commandPostedMsg is the constructor for [MsgCommandPosted]
func commandPostedMsg(label string, accepted bool) Msg {
	return Msg{
		kind: MsgCommandPosted,
		data: struct {
			label    string
			accepted bool
		}{label, accepted},
	}
}

// engineEventMsg is the constructor for [MsgEngineEvent]
func engineEventMsg(e events.Event) Msg {
	return Msg{kind: MsgEngineEvent, data: e}
}
