package models

import (
	"fmt"
	"maps"
	"math"
	"slices"
	"strings"
	"time"

	"github.com/desertthunder/mixdeck/internal/shared"
)

const (
	MaxTempo          = 300.0
	MaxCategoryLength = 50
)

// Clip describes a registered audio clip. Identity is immutable; metadata changes through the catalog.
type Clip struct {
	id           string
	displayName  string
	channel      Channel
	tempo        float64
	category     string
	tags         map[string]struct{}
	registeredAt time.Time
	updatedAt    time.Time
	updatedBy    string
}

// NewClip builds a clip with the channel's default category. It is not validated.
func NewClip(id, displayName string, channel Channel, tempo float64) *Clip {
	now := time.Now()
	return &Clip{
		id:           id,
		displayName:  displayName,
		channel:      channel,
		tempo:        tempo,
		category:     channel.DefaultCategory(),
		tags:         map[string]struct{}{},
		registeredAt: now,
		updatedAt:    now,
	}
}

func (c *Clip) ID() string           { return c.id }
func (c *Clip) DisplayName() string  { return c.displayName }
func (c *Clip) Channel() Channel     { return c.channel }
func (c *Clip) Tempo() float64       { return c.tempo }
func (c *Clip) Category() string     { return c.category }
func (c *Clip) CreatedAt() time.Time { return c.registeredAt }
func (c *Clip) UpdatedAt() time.Time { return c.updatedAt }
func (c *Clip) UpdatedBy() string    { return c.updatedBy }

// TempoBound reports whether the clip carries a tempo (sound effects usually do not).
func (c *Clip) TempoBound() bool { return c.tempo > 0 }

// Tags returns the clip's tags sorted.
func (c *Clip) Tags() []string {
	return slices.Sorted(maps.Keys(c.tags))
}

func (c *Clip) HasTag(tag string) bool {
	_, ok := c.tags[tag]
	return ok
}

func (c *Clip) SetDisplayName(name string) { c.displayName = name }
func (c *Clip) SetChannel(ch Channel)      { c.channel = ch }
func (c *Clip) SetTempo(bpm float64)       { c.tempo = bpm }
func (c *Clip) SetCategory(cat string)     { c.category = cat }
func (c *Clip) SetUpdatedBy(by string)     { c.updatedBy = by }
func (c *Clip) SetUpdatedAt(t time.Time)   { c.updatedAt = t }
func (c *Clip) AddTag(tag string)          { c.tags[tag] = struct{}{} }
func (c *Clip) RemoveTag(tag string)       { delete(c.tags, tag) }

// Clone returns a deep copy.
func (c *Clip) Clone() *Clip {
	cp := *c
	cp.tags = maps.Clone(c.tags)
	if cp.tags == nil {
		cp.tags = map[string]struct{}{}
	}
	return &cp
}

// Matches reports whether text (already lowercased) is a substring of the id, display name, category or any tag.
func (c *Clip) Matches(text string) bool {
	if strings.Contains(strings.ToLower(c.id), text) ||
		strings.Contains(strings.ToLower(c.displayName), text) ||
		strings.Contains(strings.ToLower(c.category), text) {
		return true
	}
	for tag := range c.tags {
		if strings.Contains(strings.ToLower(tag), text) {
			return true
		}
	}
	return false
}

// Validate checks the descriptor invariants.
func (c *Clip) Validate() error {
	if strings.TrimSpace(c.id) == "" {
		return fmt.Errorf("%w: clip id is required", shared.ErrInvalidInput)
	}
	if strings.TrimSpace(c.displayName) == "" {
		return fmt.Errorf("%w: display name is required for %s", shared.ErrInvalidInput, c.id)
	}
	if !c.channel.Valid() {
		return fmt.Errorf("%w: %s has unknown channel %d", shared.ErrInvalidInput, c.id, int(c.channel))
	}
	if math.IsNaN(c.tempo) || c.tempo < 0 || c.tempo > MaxTempo {
		return fmt.Errorf("%w: tempo %v for %s not in [0,%v]", shared.ErrInvalidInput, c.tempo, c.id, MaxTempo)
	}
	if len([]rune(c.category)) > MaxCategoryLength {
		return fmt.Errorf("%w: category for %s exceeds %d characters", shared.ErrInvalidInput, c.id, MaxCategoryLength)
	}
	return nil
}

func (c *Clip) String() string {
	return fmt.Sprintf("%s (%s, %s, %.0f BPM)", c.displayName, c.id, c.channel, c.tempo)
}
