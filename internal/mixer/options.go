package mixer

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/mixdeck/internal/catalog"
	"github.com/desertthunder/mixdeck/internal/clock"
	"github.com/desertthunder/mixdeck/internal/events"
	"github.com/desertthunder/mixdeck/internal/models"
	"github.com/desertthunder/mixdeck/internal/session"
	"github.com/desertthunder/mixdeck/internal/shared"
)

// Keying decides how session ids are derived from clip ids.
type Keying int

const (
	// KeyByClip uses the clip id, so a clip has at most one live session.
	KeyByClip Keying = iota
	// KeyByInstance suffixes a random token, allowing overlapping plays of one clip.
	KeyByInstance
)

func (k Keying) String() string {
	switch k {
	case KeyByClip:
		return "clip"
	case KeyByInstance:
		return "instance"
	default:
		return ""
	}
}

func ParseKeying(s string) (Keying, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "clip":
		return KeyByClip, nil
	case "instance":
		return KeyByInstance, nil
	}
	return KeyByClip, fmt.Errorf("%w: session keying %q", shared.ErrInvalidInput, s)
}

// Options configures a [Coordinator]. Start from [DefaultOptions]; the zero value has audio disabled.
type Options struct {
	Enabled            bool
	StemSync           bool
	MasterVolume       float64
	ChannelVolumes     map[models.Channel]float64 // Channels left out default to 1
	MaxConcurrentSFX   int
	MaxConcurrentStems int
	StemTempoFromClip  bool // Align stems to the clip's tempo when it has one
	Keying             Keying
	Session            session.Config

	Catalog       *catalog.Catalog // Created from CatalogConfig when nil
	CatalogConfig catalog.Config
	Clock         *clock.Clock // Created from clock.DefaultConfig when nil
	Logger        *log.Logger  // Discards when nil
	Sinks         []events.Sink
}

func DefaultOptions() Options {
	return Options{
		Enabled:      true,
		StemSync:     true,
		MasterVolume: 1.0,
		ChannelVolumes: map[models.Channel]float64{
			models.ChannelBGM:  0.8,
			models.ChannelSFX:  1.0,
			models.ChannelStem: 0.9,
		},
		MaxConcurrentSFX:   16,
		MaxConcurrentStems: 8,
		StemTempoFromClip:  true,
		Keying:             KeyByClip,
		Session:            session.DefaultConfig(),
		CatalogConfig:      catalog.DefaultConfig(),
	}
}

// OptionsFromConfig maps the TOML configuration onto coordinator options.
func OptionsFromConfig(cfg *shared.Config) (Options, error) {
	opts := DefaultOptions()
	opts.Enabled = cfg.Audio.Enabled
	opts.StemSync = cfg.Audio.StemSync
	keying, err := ParseKeying(cfg.Audio.SessionKeying)
	if err != nil {
		return opts, err
	}
	opts.Keying = keying

	opts.MasterVolume = cfg.Mixer.MasterVolume
	opts.MaxConcurrentSFX = cfg.Mixer.MaxConcurrentSFX
	opts.MaxConcurrentStems = cfg.Mixer.MaxConcurrentStems
	opts.StemTempoFromClip = cfg.Mixer.StemTempoFromClip
	for name, v := range cfg.Mixer.ChannelVolumes {
		ch, err := models.ParseChannel(name)
		if err != nil {
			return opts, fmt.Errorf("mixer.channel_volumes: %w", err)
		}
		opts.ChannelVolumes[ch] = v
	}

	opts.Session = session.Config{
		FadeInEnabled:  cfg.Session.FadeInEnabled,
		FadeIn:         cfg.Session.FadeIn,
		FadeOutEnabled: cfg.Session.FadeOutEnabled,
		FadeOut:        cfg.Session.FadeOut,
		RampEnabled:    cfg.Session.RampEnabled,
		RampDuration:   cfg.Session.Ramp,
		MaxVolume:      cfg.Session.MaxVolume,
	}
	opts.CatalogConfig = catalog.Config{
		MaxClips:          cfg.Catalog.MaxClips,
		PreventDuplicates: cfg.Catalog.PreventDuplicates,
		TempoTolerance:    cfg.Catalog.TempoTolerance,
	}
	opts.Clock = clock.New(clock.Config{
		DefaultTempo:   cfg.Clock.DefaultTempo,
		BeatsPerBar:    cfg.Clock.BeatsPerBar,
		Subdivision:    cfg.Clock.Subdivision,
		GrooveEnabled:  cfg.Clock.GrooveEnabled,
		GrooveStrength: cfg.Clock.GrooveStrength,
		SyncTolerance:  cfg.Clock.SyncTolerance,
	})
	return opts, nil
}

func (o *Options) setDefaults() {
	if o.MaxConcurrentSFX <= 0 {
		o.MaxConcurrentSFX = 16
	}
	if o.MaxConcurrentStems <= 0 {
		o.MaxConcurrentStems = 8
	}
	if o.Clock == nil {
		o.Clock = clock.New(clock.DefaultConfig())
	}
	if o.Logger == nil {
		o.Logger = log.New(io.Discard)
	}
}
