package clock

import (
	"fmt"
	"strings"

	"github.com/desertthunder/mixdeck/internal/shared"
)

// Groove is a timing feel applied on top of the grid.
type Groove int

const (
	GrooveNone Groove = iota
	GrooveSwing
	GrooveShuffle
	GrooveLatin
	GrooveFunk
)

// Fractions of a beat added on affected positions, before strength scaling.
const (
	swingOffset   = 0.33
	shuffleOffset = 0.25
	latinOffset   = 0.20
	funkOffset    = 0.15
)

func (g Groove) String() string {
	switch g {
	case GrooveNone:
		return "none"
	case GrooveSwing:
		return "swing"
	case GrooveShuffle:
		return "shuffle"
	case GrooveLatin:
		return "latin"
	case GrooveFunk:
		return "funk"
	default:
		return ""
	}
}

func ParseGroove(s string) (Groove, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	for g := GrooveNone; g <= GrooveFunk; g++ {
		if g.String() == key {
			return g, nil
		}
	}
	return GrooveNone, fmt.Errorf("%w: unknown groove %q", shared.ErrInvalidInput, s)
}

// ApplyGroove shifts t by the pattern's offset when t falls on a position the pattern affects.
//
// Swing, shuffle and funk push odd subdivisions late. Latin pushes the second and fourth beats of the bar.
// GrooveNone, and any pattern while groove is disabled, returns t unchanged.
func (c *Clock) ApplyGroove(t, bpm float64, g Groove) float64 {
	if g == GrooveNone || !c.cfg.GrooveEnabled {
		return t
	}

	pos := c.Position(t, bpm)
	spb := c.Grid(bpm).SecondsPerBeat
	strength := c.cfg.GrooveStrength

	switch g {
	case GrooveSwing:
		if pos.Subdivision%2 == 1 {
			return t + spb*swingOffset*strength
		}
	case GrooveShuffle:
		if pos.Subdivision%2 == 1 {
			return t + spb*shuffleOffset*strength
		}
	case GrooveFunk:
		if pos.Subdivision%2 == 1 {
			return t + spb*funkOffset*strength
		}
	case GrooveLatin:
		if pos.Beat == 1 || pos.Beat == 3 {
			return t + spb*latinOffset*strength
		}
	}
	return t
}
