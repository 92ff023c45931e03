// Package session implements the per-playback state machine.
//
//	Idle --Start--> Playing | FadingIn --(fade done)--> Playing
//	Playing --Pause--> Paused --Resume--> Playing
//	Playing | Paused | FadingIn --Stop--> FadingOut --(fade done)--> Stopped
//	Idle | Scheduled --Stop--> Stopped
//	Idle --Schedule(t)--> Scheduled --(Update sees now >= t)--> Start
//
// Sessions never read a wall clock: every time-dependent call takes the engine time.
// Invalid transitions return [shared.ErrInvalidTransition] and leave the session untouched.
package session
