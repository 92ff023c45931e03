package session

import (
	"fmt"
	"math"

	"github.com/desertthunder/mixdeck/internal/events"
	"github.com/desertthunder/mixdeck/internal/models"
	"github.com/desertthunder/mixdeck/internal/shared"
)

// volumeEpsilon is the smallest volume change SetVolume acts on.
const volumeEpsilon = 0.001

// Config holds fade and ramp settings, in seconds.
type Config struct {
	FadeInEnabled  bool
	FadeIn         float64
	FadeOutEnabled bool
	FadeOut        float64
	RampEnabled    bool
	RampDuration   float64
	MaxVolume      float64
}

// DefaultConfig enables short fades and ramps with unity maximum volume.
func DefaultConfig() Config {
	return Config{
		FadeInEnabled:  true,
		FadeIn:         0.1,
		FadeOutEnabled: true,
		FadeOut:        0.1,
		RampEnabled:    true,
		RampDuration:   0.05,
		MaxVolume:      1.0,
	}
}

func (c Config) fadesIn() bool  { return c.FadeInEnabled && c.FadeIn > 0 }
func (c Config) fadesOut() bool { return c.FadeOutEnabled && c.FadeOut > 0 }
func (c Config) ramps() bool    { return c.RampEnabled && c.RampDuration > 0 }

// Fade is a linear volume transition between two absolute engine times.
type Fade struct {
	Start, End float64
	From, To   float64
}

// At returns the fade volume at now and whether the fade has finished.
func (f Fade) At(now float64) (float64, bool) {
	span := f.End - f.Start
	if span <= 0 {
		return f.To, true
	}
	progress := math.Max(0, math.Min(1, (now-f.Start)/span))
	return f.From + (f.To-f.From)*progress, progress >= 1
}

// Session is one playback attempt of a clip. It is not safe for concurrent use.
type Session struct {
	id      string
	clipID  string
	channel models.Channel
	cfg     Config
	sink    events.Sink

	state    State
	current  float64
	target   float64
	velocity float64
	ramping  bool
	fade     *Fade

	scheduledAt float64
	elapsed     float64
	loop        bool
	lastUpdate  float64
}

// New creates an Idle session with zero volume. A nil sink discards events.
func New(id, clipID string, channel models.Channel, cfg Config, sink events.Sink) *Session {
	if sink == nil {
		sink = events.Discard
	}
	if cfg.MaxVolume <= 0 {
		cfg.MaxVolume = 1
	}
	return &Session{id: id, clipID: clipID, channel: channel, cfg: cfg, sink: sink}
}

func (s *Session) ID() string              { return s.id }
func (s *Session) ClipID() string          { return s.clipID }
func (s *Session) Channel() models.Channel { return s.channel }
func (s *Session) State() State            { return s.state }
func (s *Session) CurrentVolume() float64  { return s.current }
func (s *Session) TargetVolume() float64   { return s.target }
func (s *Session) Elapsed() float64        { return s.elapsed }
func (s *Session) Loop() bool              { return s.loop }
func (s *Session) SetLoop(loop bool)       { s.loop = loop }

// ScheduledAt returns the pending start time, if the session is Scheduled.
func (s *Session) ScheduledAt() (float64, bool) {
	return s.scheduledAt, s.state == Scheduled
}

// Fade returns a copy of the active fade window, if any.
func (s *Session) Fade() (Fade, bool) {
	if s.fade == nil {
		return Fade{}, false
	}
	return *s.fade, true
}

func (s *Session) emit(kind events.Kind, now float64, detail string) {
	s.sink.Emit(events.Event{
		Kind:    kind,
		Subject: s.id,
		ClipID:  s.clipID,
		Channel: s.channel,
		Time:    now,
		Volume:  s.current,
		Detail:  detail,
	})
}

func (s *Session) invalid(op string) error {
	return fmt.Errorf("%w: cannot %s session %s while %s", shared.ErrInvalidTransition, op, s.id, s.state)
}

// Start begins playback from Idle or Scheduled.
//
// With fade-in enabled the session enters FadingIn and ramps from silence to its target volume.
func (s *Session) Start(now float64) error {
	if s.state != Idle && s.state != Scheduled {
		return s.invalid("start")
	}

	s.scheduledAt = 0
	s.lastUpdate = now
	if s.cfg.fadesIn() {
		s.current = 0
		s.fade = &Fade{Start: now, End: now + s.cfg.FadeIn, From: 0, To: s.target}
		s.state = FadingIn
	} else {
		s.current = s.target
		s.state = Playing
	}
	s.emit(events.SessionStarted, now, s.state.String())
	return nil
}

// Stop ends playback. Audible or paused sessions fade out first when fade-out is enabled;
// the session then stays in FadingOut until [Session.Update] completes the fade.
func (s *Session) Stop(now float64) error {
	switch s.state {
	case Playing, Paused, FadingIn:
		if s.cfg.fadesOut() {
			s.fade = &Fade{Start: now, End: now + s.cfg.FadeOut, From: s.current, To: 0}
			s.ramping, s.velocity = false, 0
			s.state = FadingOut
			s.emit(events.SessionStopping, now, "fade out")
			return nil
		}
	case Idle, Scheduled:
	default:
		return s.invalid("stop")
	}
	s.halt(now)
	return nil
}

// StopNow stops immediately regardless of fade settings. It is a no-op on a Stopped session.
func (s *Session) StopNow(now float64) {
	if s.state == Stopped {
		return
	}
	s.halt(now)
}

func (s *Session) halt(now float64) {
	s.state = Stopped
	s.current = 0
	s.fade = nil
	s.ramping, s.velocity = false, 0
	s.scheduledAt = 0
	s.emit(events.SessionStopped, now, "")
}

func (s *Session) Pause(now float64) error {
	if s.state != Playing {
		return s.invalid("pause")
	}
	s.state = Paused
	s.emit(events.SessionPaused, now, "")
	return nil
}

func (s *Session) Resume(now float64) error {
	if s.state != Paused {
		return s.invalid("resume")
	}
	s.state = Playing
	s.emit(events.SessionResumed, now, "")
	return nil
}

// Schedule arms an Idle session to start once Update observes now >= at. A Scheduled session may be re-armed.
func (s *Session) Schedule(at float64) error {
	if math.IsNaN(at) || math.IsInf(at, 0) || at < 0 {
		return fmt.Errorf("%w: schedule time %v for %s", shared.ErrInvalidInput, at, s.id)
	}
	if s.state != Idle && s.state != Scheduled {
		return s.invalid("schedule")
	}
	s.scheduledAt = at
	s.state = Scheduled
	s.emit(events.SessionScheduled, at, fmt.Sprintf("at %.3fs", at))
	return nil
}

// SetVolume sets the target volume, clamped to [0, MaxVolume].
//
// Changes below the epsilon are ignored. While audible with ramping enabled the current volume
// moves toward the target over the ramp duration; otherwise it snaps.
// It reports whether the target changed.
func (s *Session) SetVolume(v float64) (bool, error) {
	if math.IsNaN(v) {
		return false, fmt.Errorf("%w: volume is NaN", shared.ErrInvalidInput)
	}
	if s.state == Stopped {
		return false, s.invalid("set volume on")
	}

	v = math.Max(0, math.Min(s.cfg.MaxVolume, v))
	if math.Abs(v-s.target) < volumeEpsilon {
		return false, nil
	}

	old := s.target
	s.target = v
	switch {
	case s.state == Idle || s.state == Scheduled:
		s.ramping, s.velocity = false, 0
	case s.cfg.ramps():
		s.velocity = (v - old) / s.cfg.RampDuration
		s.ramping = true
	case s.fade == nil:
		s.current = v
	}
	s.emit(events.SessionVolume, s.lastUpdate, fmt.Sprintf("%.2f -> %.2f", old, v))
	return true, nil
}

// Update advances the session to engine time now, dt seconds after the previous tick.
//
// A due Scheduled session starts first. Elapsed time accrues only while Playing.
// An active fade takes precedence over the volume ramp.
func (s *Session) Update(now, dt float64) {
	if s.state == Stopped {
		return
	}
	if dt < 0 || math.IsNaN(dt) {
		dt = 0
	}
	s.lastUpdate = now

	played := dt
	if s.state == Scheduled && now >= s.scheduledAt {
		_ = s.Start(s.scheduledAt)
		// Only the part of this tick after the scheduled start counts as playback.
		played = min(max(now-s.scheduledAt, 0), dt)
	}

	if s.state == Playing {
		s.elapsed += played
	}

	if s.fade != nil {
		s.advanceFade(now)
		return
	}
	if s.ramping {
		s.advanceRamp(dt)
	}
}

func (s *Session) advanceFade(now float64) {
	v, done := s.fade.At(now)
	s.current = v
	if !done {
		return
	}

	to := s.fade.To
	s.fade = nil
	s.emit(events.FadeCompleted, now, fmt.Sprintf("%.2f", to))
	switch s.state {
	case FadingOut:
		s.halt(now)
	case FadingIn:
		// a target set mid-fade is picked up by the ramp, or snapped to here
		if !s.ramping {
			s.current = s.target
		}
		s.state = Playing
	}
}

func (s *Session) advanceRamp(dt float64) {
	s.current += s.velocity * dt
	if (s.velocity > 0 && s.current >= s.target) || (s.velocity < 0 && s.current <= s.target) || s.velocity == 0 {
		s.current = s.target
		s.ramping, s.velocity = false, 0
	}
}
