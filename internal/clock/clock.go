package clock

import (
	"fmt"
	"math"
)

const (
	fallbackTempo       = 120.0
	fallbackBeatsPerBar = 4
	fallbackSubdivision = 4
)

// Config holds the grid defaults used whenever a caller passes a non-positive tempo or subdivision.
type Config struct {
	DefaultTempo   float64 // BPM substituted for invalid tempos
	BeatsPerBar    int     // Time signature numerator
	Subdivision    int     // Subdivisions per beat
	GrooveEnabled  bool
	GrooveStrength float64 // Scales groove offsets, clamped to [0,1]
	SyncTolerance  float64 // Seconds within which a time snaps to the nearest grid line
}

// DefaultConfig is 120 BPM in 4/4 with sixteenth-note subdivisions.
func DefaultConfig() Config {
	return Config{
		DefaultTempo:   fallbackTempo,
		BeatsPerBar:    fallbackBeatsPerBar,
		Subdivision:    fallbackSubdivision,
		GrooveEnabled:  true,
		GrooveStrength: 0.5,
		SyncTolerance:  1e-9,
	}
}

// Clock maps engine time onto a musical grid. Every method is a pure function of its arguments and the config.
type Clock struct {
	cfg Config
}

// New normalizes cfg so every later call is total.
func New(cfg Config) *Clock {
	if !validTempo(cfg.DefaultTempo) {
		cfg.DefaultTempo = fallbackTempo
	}
	if cfg.BeatsPerBar <= 0 {
		cfg.BeatsPerBar = fallbackBeatsPerBar
	}
	if cfg.Subdivision <= 0 {
		cfg.Subdivision = fallbackSubdivision
	}
	if math.IsNaN(cfg.GrooveStrength) {
		cfg.GrooveStrength = 0
	}
	cfg.GrooveStrength = math.Max(0, math.Min(1, cfg.GrooveStrength))
	if math.IsNaN(cfg.SyncTolerance) || cfg.SyncTolerance < 0 {
		cfg.SyncTolerance = 0
	}
	return &Clock{cfg: cfg}
}

func (c *Clock) Config() Config { return c.cfg }

func validTempo(bpm float64) bool {
	return bpm > 0 && !math.IsInf(bpm, 0) && !math.IsNaN(bpm)
}

// Tempo returns bpm, or the default tempo when bpm is unusable.
func (c *Clock) Tempo(bpm float64) float64 {
	if validTempo(bpm) {
		return bpm
	}
	return c.cfg.DefaultTempo
}

// Grid is the set of durations derived from a tempo.
type Grid struct {
	Tempo                 float64
	BeatsPerBar           int
	Subdivision           int
	SecondsPerBeat        float64
	SecondsPerBar         float64
	SecondsPerSubdivision float64
}

func (c *Clock) Grid(bpm float64) Grid {
	return c.grid(bpm, c.cfg.Subdivision)
}

func (c *Clock) grid(bpm float64, subdivision int) Grid {
	if subdivision <= 0 {
		subdivision = c.cfg.Subdivision
	}
	tempo := c.Tempo(bpm)
	spb := 60.0 / tempo
	return Grid{
		Tempo:                 tempo,
		BeatsPerBar:           c.cfg.BeatsPerBar,
		Subdivision:           subdivision,
		SecondsPerBeat:        spb,
		SecondsPerBar:         spb * float64(c.cfg.BeatsPerBar),
		SecondsPerSubdivision: spb / float64(subdivision),
	}
}

// NextBarTime returns the first bar boundary at or after t.
func (c *Clock) NextBarTime(t, bpm float64) float64 {
	return c.ceil(t, c.Grid(bpm).SecondsPerBar)
}

// NextBeatTime returns the first beat boundary at or after t.
func (c *Clock) NextBeatTime(t, bpm float64) float64 {
	return c.ceil(t, c.Grid(bpm).SecondsPerBeat)
}

// NextSubdivisionTime returns the first subdivision boundary at or after t.
// A non-positive subdivision uses the configured one.
func (c *Clock) NextSubdivisionTime(t, bpm float64, subdivision int) float64 {
	return c.ceil(t, c.grid(bpm, subdivision).SecondsPerSubdivision)
}

// ceil rounds t up to a multiple of step. A t on a boundary (within SyncTolerance) is returned as that boundary.
func (c *Clock) ceil(t, step float64) float64 {
	t = finite(t)
	if math.IsInf(t, 0) {
		return t
	}
	// +0 turns a -0 result into 0
	units := t / step
	if nearest := math.Round(units); math.Abs(units-nearest)*step <= c.cfg.SyncTolerance {
		return nearest*step + 0
	}
	return math.Ceil(units)*step + 0
}

// split returns floor(t/step) and the fractional progress into the current step, honoring SyncTolerance.
func (c *Clock) split(t, step float64) (float64, float64) {
	units := t / step
	if nearest := math.Round(units); math.Abs(units-nearest)*step <= c.cfg.SyncTolerance {
		return nearest, 0
	}
	whole := math.Floor(units)
	return whole, units - whole
}

func finite(t float64) float64 {
	if math.IsNaN(t) {
		return 0
	}
	return t
}

func mod(a, n int) int {
	return ((a % n) + n) % n
}

// Timing is a one-line description of the grid at bpm.
func (c *Clock) Timing(bpm float64) string {
	g := c.Grid(bpm)
	return fmt.Sprintf("%.1f BPM %d/4: beat %.3fs, bar %.3fs, 1/%d %.3fs",
		g.Tempo, g.BeatsPerBar, g.SecondsPerBeat, g.SecondsPerBar, g.Subdivision*4, g.SecondsPerSubdivision)
}

func (c *Clock) Summary() string {
	groove := "off"
	if c.cfg.GrooveEnabled {
		groove = fmt.Sprintf("%.0f%%", c.cfg.GrooveStrength*100)
	}
	return fmt.Sprintf("clock: default %.1f BPM, %d beats/bar, %d subdivisions, groove %s",
		c.cfg.DefaultTempo, c.cfg.BeatsPerBar, c.cfg.Subdivision, groove)
}
