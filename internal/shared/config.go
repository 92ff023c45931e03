package shared

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Audio    AudioConfig    `toml:"audio"`
	Mixer    MixerConfig    `toml:"mixer"`
	Session  SessionConfig  `toml:"session"`
	Catalog  CatalogConfig  `toml:"catalog"`
	Clock    ClockConfig    `toml:"clock"`
	Database DatabaseConfig `toml:"database"`
	Driver   DriverConfig   `toml:"driver"`
	Log      LogConfig      `toml:"log"`
	Clips    []ClipConfig   `toml:"clips"`
}

// AudioConfig holds global switches.
type AudioConfig struct {
	Enabled bool `toml:"enabled"`
	// StemSync gates synchronized stem playback.
	StemSync bool `toml:"stem_sync"`
	// SessionKeying is either "clip" (one live session per clip id) or "instance".
	SessionKeying string `toml:"session_keying"`
}

// MixerConfig contains mix levels and concurrency limits.
type MixerConfig struct {
	MasterVolume       float64            `toml:"master_volume"`
	MaxConcurrentSFX   int                `toml:"max_concurrent_sfx"`
	MaxConcurrentStems int                `toml:"max_concurrent_stems"`
	StemTempoFromClip  bool               `toml:"stem_tempo_from_clip"`
	ChannelVolumes     map[string]float64 `toml:"channel_volumes"`
}

// SessionConfig contains per-session fade and ramp settings, in seconds.
type SessionConfig struct {
	FadeInEnabled  bool    `toml:"fade_in_enabled"`
	FadeIn         float64 `toml:"fade_in"`
	FadeOutEnabled bool    `toml:"fade_out_enabled"`
	FadeOut        float64 `toml:"fade_out"`
	RampEnabled    bool    `toml:"ramp_enabled"`
	Ramp           float64 `toml:"ramp"`
	MaxVolume      float64 `toml:"max_volume"`
}

// CatalogConfig contains clip registry limits.
type CatalogConfig struct {
	MaxClips          int     `toml:"max_clips"`
	PreventDuplicates bool    `toml:"prevent_duplicates"`
	TempoTolerance    float64 `toml:"tempo_tolerance"`
}

// ClockConfig contains musical grid defaults.
type ClockConfig struct {
	DefaultTempo   float64 `toml:"default_tempo"`
	BeatsPerBar    int     `toml:"beats_per_bar"`
	Subdivision    int     `toml:"subdivision"`
	GrooveEnabled  bool    `toml:"groove_enabled"`
	GrooveStrength float64 `toml:"groove_strength"`
	SyncTolerance  float64 `toml:"sync_tolerance"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
	Journal      bool   `toml:"journal"`
}

// DriverConfig controls the host tick loop used by simulate and monitor.
type DriverConfig struct {
	TickRate int `toml:"tick_rate"`
}

// TickInterval converts the configured tick rate (ticks per second) to a duration.
func (d DriverConfig) TickInterval() time.Duration {
	if d.TickRate <= 0 {
		return 0
	}
	return time.Second / time.Duration(d.TickRate)
}

// LogConfig contains logger settings.
type LogConfig struct {
	Level string `toml:"level"`
	File  string `toml:"file"`
}

// ClipConfig is a clip manifest entry registered at start-up.
type ClipConfig struct {
	ID       string   `toml:"id"`
	Name     string   `toml:"name"`
	Channel  string   `toml:"channel"`
	Tempo    float64  `toml:"tempo"`
	Category string   `toml:"category"`
	Tags     []string `toml:"tags"`
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Keys missing from the file keep the values of [DefaultConfig].
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrMissingConfig, path)
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	config.Clips = nil
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate checks ranges that would otherwise be silently clamped at runtime.
func (c *Config) Validate() error {
	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalidConfig}, args...)...))
		}
	}

	check(c.Mixer.MasterVolume >= 0 && c.Mixer.MasterVolume <= 1, "mixer.master_volume %v not in [0,1]", c.Mixer.MasterVolume)
	check(c.Mixer.MaxConcurrentSFX > 0, "mixer.max_concurrent_sfx must be positive")
	check(c.Mixer.MaxConcurrentStems > 0, "mixer.max_concurrent_stems must be positive")
	for ch, v := range c.Mixer.ChannelVolumes {
		check(v >= 0 && v <= 1, "mixer.channel_volumes.%s %v not in [0,1]", ch, v)
	}
	check(c.Session.FadeIn >= 0 && c.Session.FadeOut >= 0 && c.Session.Ramp >= 0, "session durations must not be negative")
	check(c.Session.MaxVolume > 0, "session.max_volume must be positive")
	check(c.Catalog.MaxClips > 0, "catalog.max_clips must be positive")
	check(c.Catalog.TempoTolerance >= 0, "catalog.tempo_tolerance must not be negative")
	check(c.Audio.SessionKeying == "" || c.Audio.SessionKeying == "clip" || c.Audio.SessionKeying == "instance",
		"audio.session_keying %q must be clip or instance", c.Audio.SessionKeying)
	check(c.Driver.TickRate >= 0, "driver.tick_rate must not be negative")
	if _, err := ParseLogLevel(c.Log.Level); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}
