// package events carries structured engine events from the catalog, sessions and coordinator to observers.
package events

import (
	"fmt"

	"github.com/desertthunder/mixdeck/internal/models"
)

// Kind enumerates engine events
type Kind int

const (
	ClipRegistered Kind = iota
	ClipUpdated
	ClipRemoved
	ClipRejected

	SessionScheduled
	SessionStarted
	SessionPaused
	SessionResumed
	SessionStopping
	SessionStopped
	SessionVolume
	FadeCompleted

	BackgroundMusicStarted
	BackgroundMusicStopped
	SoundEffectPlayed
	StemScheduled
	SessionEvicted
	ChannelVolumeChanged
	MasterVolumeChanged
	AllAudioStopped
	RequestQueued
	AudioError
)

func (k Kind) String() string {
	switch k {
	case ClipRegistered:
		return "clip_registered"
	case ClipUpdated:
		return "clip_updated"
	case ClipRemoved:
		return "clip_removed"
	case ClipRejected:
		return "clip_rejected"
	case SessionScheduled:
		return "session_scheduled"
	case SessionStarted:
		return "session_started"
	case SessionPaused:
		return "session_paused"
	case SessionResumed:
		return "session_resumed"
	case SessionStopping:
		return "session_stopping"
	case SessionStopped:
		return "session_stopped"
	case SessionVolume:
		return "session_volume"
	case FadeCompleted:
		return "fade_completed"
	case BackgroundMusicStarted:
		return "bgm_started"
	case BackgroundMusicStopped:
		return "bgm_stopped"
	case SoundEffectPlayed:
		return "sfx_played"
	case StemScheduled:
		return "stem_scheduled"
	case SessionEvicted:
		return "session_evicted"
	case ChannelVolumeChanged:
		return "channel_volume_changed"
	case MasterVolumeChanged:
		return "master_volume_changed"
	case AllAudioStopped:
		return "all_audio_stopped"
	case RequestQueued:
		return "request_queued"
	case AudioError:
		return "audio_error"
	default:
		return ""
	}
}

// Event is a single state change. Fields that do not apply to a kind are left zero.
type Event struct {
	Kind    Kind
	Subject string  // Session id, or clip id for catalog events
	ClipID  string  // Clip backing the session, when known
	Channel models.Channel
	Time    float64 // Engine time the change was observed at
	Volume  float64 // Resulting volume for volume and start events
	Detail  string  // Human-readable context or error text
}

func (e Event) String() string {
	s := e.Kind.String()
	if e.Subject != "" {
		s += " " + e.Subject
	}
	if e.Detail != "" {
		s += ": " + e.Detail
	}
	return s
}

// Errorf builds an [AudioError] event.
func Errorf(subject, format string, args ...any) Event {
	return Event{Kind: AudioError, Subject: subject, Detail: fmt.Sprintf(format, args...)}
}
