package session

import (
	"fmt"

	"github.com/desertthunder/mixdeck/internal/models"
)

// Status is a read-only snapshot of a session.
type Status struct {
	ID            string         `json:"id"`
	ClipID        string         `json:"clip_id"`
	Channel       models.Channel `json:"channel"`
	State         State          `json:"-"`
	StateName     string         `json:"state"`
	CurrentVolume float64        `json:"current_volume"`
	TargetVolume  float64        `json:"target_volume"`
	Ramping       bool           `json:"ramping"`
	Fading        bool           `json:"fading"`
	ScheduledAt   float64        `json:"scheduled_at,omitempty"`
	Elapsed       float64        `json:"elapsed"`
	Loop          bool           `json:"loop"`
	LastUpdate    float64        `json:"last_update"`
}

func (s *Session) Status() Status {
	st := Status{
		ID:            s.id,
		ClipID:        s.clipID,
		Channel:       s.channel,
		State:         s.state,
		StateName:     s.state.String(),
		CurrentVolume: s.current,
		TargetVolume:  s.target,
		Ramping:       s.ramping,
		Fading:        s.fade != nil,
		Elapsed:       s.elapsed,
		Loop:          s.loop,
		LastUpdate:    s.lastUpdate,
	}
	if s.state == Scheduled {
		st.ScheduledAt = s.scheduledAt
	}
	return st
}

// Summary renders the status on one line.
func (st Status) Summary() string {
	line := fmt.Sprintf("%s [%s] %s | vol %.2f/%.2f | %.2fs", st.ID, st.Channel, st.StateName, st.CurrentVolume, st.TargetVolume, st.Elapsed)
	if st.State == Scheduled {
		line += fmt.Sprintf(" | at %.3fs", st.ScheduledAt)
	}
	return line
}
