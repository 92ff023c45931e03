package session

// State is a session's position in the playback lifecycle.
type State int

const (
	Idle State = iota
	Playing
	Paused
	Scheduled
	FadingIn
	FadingOut
	Stopped
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Playing:
		return "playing"
	case Paused:
		return "paused"
	case Scheduled:
		return "scheduled"
	case FadingIn:
		return "fading_in"
	case FadingOut:
		return "fading_out"
	case Stopped:
		return "stopped"
	default:
		return ""
	}
}

// Audible reports whether the session is producing sound.
func (s State) Audible() bool {
	return s == Playing || s == FadingIn || s == FadingOut
}

// Live reports whether the session has not reached its terminal state.
func (s State) Live() bool {
	return s != Stopped
}
