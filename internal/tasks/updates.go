package tasks

import "fmt"

// ProgressUpdate represents a progress event during a driver run.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Run phase
	Step    int    // Current tick
	Total   int    // Total ticks, 0 when unbounded
	Message string // Human-readable message for display
	Data    any    // Snapshot on ticks, *RunResult on completion
}

// Run phase enumeration
type Phase int

const (
	Start Phase = iota
	Tick
	RequestFailed
	Complete
)

func (p Phase) String() string {
	switch p {
	case Start:
		return "start"
	case Tick:
		return "tick"
	case RequestFailed:
		return "request_failed"
	case Complete:
		return "complete"
	default:
		return ""
	}
}

func startUpdate(total int, dt float64) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Start,
		Total:   total,
		Message: fmt.Sprintf("Driving engine at %.1f ticks/s...", 1/dt),
	}
}

func tickUpdate(step, total int, snap Snapshot) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Tick,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d] t=%.3fs %s", step, snap.Time, snap.Status.Summary()),
		Data:    snap,
	}
}

func failureUpdate(step, total int, err error) ProgressUpdate {
	return ProgressUpdate{
		Phase:   RequestFailed,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d] ✗ %v", step, err),
	}
}

func completeUpdate(r *RunResult) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Complete,
		Step:    r.Ticks,
		Total:   r.Ticks,
		Message: fmt.Sprintf("✓ %d ticks, %d requests, %d failed, t=%.3fs", r.Ticks, r.Dispatched, len(r.Failures), r.EngineTime),
		Data:    r,
	}
}
