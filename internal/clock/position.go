package clock

import (
	"fmt"
	"math"
	"strings"

	"github.com/desertthunder/mixdeck/internal/shared"
)

// MusicalPosition locates a time on the grid. Indices are zero-based.
type MusicalPosition struct {
	Bar                 int
	Beat                int // Beat within the bar
	Subdivision         int // Subdivision within the beat
	BarProgress         float64
	BeatProgress        float64
	SubdivisionProgress float64
	Tempo               float64
	BeatsPerBar         int
}

// String renders the position one-based, e.g. "3.2.1".
func (p MusicalPosition) String() string {
	return fmt.Sprintf("%d.%d.%d", p.Bar+1, p.Beat+1, p.Subdivision+1)
}

// Position decomposes t into bar, beat and subdivision indices plus progress within each.
func (c *Clock) Position(t, bpm float64) MusicalPosition {
	g := c.Grid(bpm)
	t = finite(t)
	if math.IsInf(t, 0) {
		return MusicalPosition{Tempo: g.Tempo, BeatsPerBar: g.BeatsPerBar}
	}

	bars, barProgress := c.split(t, g.SecondsPerBar)
	beats, beatProgress := c.split(t, g.SecondsPerBeat)
	subs, subProgress := c.split(t, g.SecondsPerSubdivision)

	return MusicalPosition{
		Bar:                 int(bars),
		Beat:                mod(int(beats), g.BeatsPerBar),
		Subdivision:         mod(int(subs), g.Subdivision),
		BarProgress:         barProgress,
		BeatProgress:        beatProgress,
		SubdivisionProgress: subProgress,
		Tempo:               g.Tempo,
		BeatsPerBar:         g.BeatsPerBar,
	}
}

// Alignment selects which grid line [Clock.GridAlignmentOffset] measures to.
type Alignment int

const (
	AlignBar Alignment = iota
	AlignBeat
	AlignSubdivision
)

func (a Alignment) String() string {
	switch a {
	case AlignBar:
		return "bar"
	case AlignBeat:
		return "beat"
	case AlignSubdivision:
		return "subdivision"
	default:
		return ""
	}
}

func ParseAlignment(s string) (Alignment, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "bar":
		return AlignBar, nil
	case "beat":
		return AlignBeat, nil
	case "subdivision", "sub":
		return AlignSubdivision, nil
	}
	return 0, fmt.Errorf("%w: unknown alignment %q", shared.ErrInvalidInput, s)
}

// GridAlignmentOffset is the time from t to the next grid line of the given kind. Unknown kinds align to bars.
func (c *Clock) GridAlignmentOffset(t, bpm float64, a Alignment) float64 {
	t = finite(t)
	var next float64
	switch a {
	case AlignBeat:
		next = c.NextBeatTime(t, bpm)
	case AlignSubdivision:
		next = c.NextSubdivisionTime(t, bpm, 0)
	default:
		next = c.NextBarTime(t, bpm)
	}
	if math.IsInf(t, 0) {
		return 0
	}
	return next - t
}
