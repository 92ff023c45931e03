package mixer

import (
	"fmt"
	"maps"
	"slices"

	"github.com/desertthunder/mixdeck/internal/models"
	"github.com/desertthunder/mixdeck/internal/session"
)

// Status is a read-only snapshot of the mix.
type Status struct {
	Enabled                bool               `json:"enabled"`
	StemSync               bool               `json:"stem_sync"`
	MasterVolume           float64            `json:"master_volume"`
	ChannelVolumes         map[string]float64 `json:"channel_volumes"`
	CurrentBackgroundMusic string             `json:"current_bgm,omitempty"`
	CurrentBackgroundClip  string             `json:"current_bgm_clip,omitempty"`
	ActiveSoundEffects     int                `json:"active_sfx"`
	ActiveStems            int                `json:"active_stems"`
	TotalActive            int                `json:"total_active"`
	TotalSessions          int                `json:"total_sessions"`
	PendingRequests        int                `json:"pending_requests"`
	LastUpdate             float64            `json:"last_update"`
}

// Status reports the current mix. Channel volumes are keyed by channel name.
func (c *Coordinator) Status() Status {
	st := Status{
		Enabled:                c.enabled,
		StemSync:               c.opts.StemSync,
		MasterVolume:           c.state.MasterVolume,
		ChannelVolumes:         make(map[string]float64, len(c.state.ChannelVolume)),
		CurrentBackgroundMusic: c.state.CurrentBackgroundMusic,
		ActiveSoundEffects:     len(c.state.ActiveSoundEffects),
		ActiveStems:            len(c.state.ActiveStems),
		TotalSessions:          len(c.state.Sessions),
		PendingRequests:        len(c.state.PendingRequests),
		LastUpdate:             c.lastUpdate,
	}
	for ch, v := range c.state.ChannelVolume {
		st.ChannelVolumes[ch.String()] = v
	}
	st.TotalActive = st.ActiveSoundEffects + st.ActiveStems
	if s, ok := c.state.Sessions[st.CurrentBackgroundMusic]; ok {
		st.CurrentBackgroundClip = s.ClipID()
		st.TotalActive++
	}
	return st
}

func (s Status) Summary() string {
	bgm := s.CurrentBackgroundMusic
	if bgm == "" {
		bgm = "none"
	}
	return fmt.Sprintf("audio enabled=%t master=%.2f bgm=%s sfx=%d stems=%d sessions=%d pending=%d",
		s.Enabled, s.MasterVolume, bgm, s.ActiveSoundEffects, s.ActiveStems, s.TotalSessions, s.PendingRequests)
}

// Session returns the status of one session, including sessions still fading out.
func (c *Coordinator) Session(id string) (session.Status, bool) {
	s, ok := c.state.Sessions[id]
	if !ok {
		return session.Status{}, false
	}
	return s.Status(), true
}

// Sessions returns every session's status ordered by id.
func (c *Coordinator) Sessions() []session.Status {
	ids := slices.Sorted(maps.Keys(c.state.Sessions))
	out := make([]session.Status, len(ids))
	for i, id := range ids {
		out[i] = c.state.Sessions[id].Status()
	}
	return out
}

// ActiveSoundEffects returns the tracked effect ids, oldest first.
func (c *Coordinator) ActiveSoundEffects() []string { return slices.Clone(c.state.ActiveSoundEffects) }

// ActiveStems returns the tracked stem ids, oldest first.
func (c *Coordinator) ActiveStems() []string { return slices.Clone(c.state.ActiveStems) }

// ChannelVolume returns the configured volume for ch.
func (c *Coordinator) ChannelVolume(ch models.Channel) float64 { return c.state.ChannelVolume[ch] }

// MixedVolume is master times channel volume for ch.
func (c *Coordinator) MixedVolume(ch models.Channel) float64 {
	return c.state.MasterVolume * c.state.ChannelVolume[ch]
}

// Summary is a one-line description of the mix and catalog.
func (c *Coordinator) Summary() string {
	return c.Status().Summary() + " | " + c.catalog.Summary()
}
